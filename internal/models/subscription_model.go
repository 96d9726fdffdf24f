package models

import "time"

// Product is a line item. Deliveries hold a snapshot copy, not a live reference.
type Product struct {
	Name     string  `json:"name" firestore:"name" binding:"required"`
	Price    float64 `json:"price" firestore:"price" binding:"gte=0"`
	Quantity float64 `json:"quantity" firestore:"quantity" binding:"gte=0"`
	Unit     string  `json:"unit" firestore:"unit" binding:"required"`
}

// Subscription is a plan consumers can be billed for.
type Subscription struct {
	ID          string    `json:"id" firestore:"-"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description" firestore:"description"`
	Price       float64   `json:"price" firestore:"price"`
	Duration    int       `json:"duration" firestore:"duration"` // days
	Products    []Product `json:"products" firestore:"products"`
	IsActive    bool      `json:"isActive" firestore:"isActive"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// SubscriptionSummary is embedded in populated bills.
type SubscriptionSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
