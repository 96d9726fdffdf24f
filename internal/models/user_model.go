package models

import "time"

// User represents an admin, a delivery person or a consumer.
type User struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email" firestore:"email"`
	Phone     string    `json:"phone" firestore:"phone"`
	Address   string    `json:"address,omitempty" firestore:"address,omitempty"`
	Role      Role      `json:"role" firestore:"role"`
	Password  string    `json:"-" firestore:"password"` // bcrypt hash
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// UserSummary is the reduced form of a User embedded in populated responses.
type UserSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ConsumerPage is one page of the consumer listing.
type ConsumerPage struct {
	Consumers  []*User `json:"consumers"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}
