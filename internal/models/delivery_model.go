package models

import "time"

// Delivery assigns a delivery person to bring products to a consumer.
type Delivery struct {
	ID               string         `json:"id" firestore:"-"`
	DeliveryPersonID string         `json:"deliveryPersonId" firestore:"deliveryPersonId"`
	ConsumerID       string         `json:"consumerId" firestore:"consumerId"`
	Status           DeliveryStatus `json:"status" firestore:"status"`
	Products         []Product      `json:"products" firestore:"products"`
	DeliveryDate     time.Time      `json:"deliveryDate" firestore:"deliveryDate"`
	Address          string         `json:"address" firestore:"address"`
	Notes            string         `json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt        time.Time      `json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt" firestore:"updatedAt"`
}

// DeliveryView is a Delivery with its referenced users resolved.
// A summary is nil when the referenced user no longer exists.
type DeliveryView struct {
	*Delivery
	DeliveryPerson *UserSummary `json:"deliveryPerson"`
	Consumer       *UserSummary `json:"consumer"`
}
