package models

import "time"

// LoginRequest accepts either an email or a username; both are matched against User.Email.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Identifier returns whichever login handle was supplied.
func (r LoginRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

// CreateConsumerRequest is validated by the consumer service so that missing fields
// are reported together.
type CreateConsumerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

// UpdateConsumerRequest is a partial update; nil fields are left unchanged.
type UpdateConsumerRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// ListConsumersParams carries the already-normalized paging inputs.
type ListConsumersParams struct {
	Page   int
	Limit  int
	Search string
}

// SubscriptionRequest is used for both create and full update.
type SubscriptionRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" binding:"gte=0"`
	Duration    int       `json:"duration" binding:"required,gte=1"`
	Products    []Product `json:"products" binding:"dive"`
	IsActive    *bool     `json:"isActive,omitempty"`
}

// DeliveryRequest is used for both create and full update. An empty Status means
// pending on create and "unchanged" on update.
type DeliveryRequest struct {
	DeliveryPersonID string         `json:"deliveryPersonId" binding:"required"`
	ConsumerID       string         `json:"consumerId" binding:"required"`
	Status           DeliveryStatus `json:"status,omitempty"`
	Products         []Product      `json:"products" binding:"dive"`
	DeliveryDate     time.Time      `json:"deliveryDate" binding:"required"`
	Address          string         `json:"address" binding:"required"`
	Notes            string         `json:"notes,omitempty"`
}

// DeliveryStatusRequest is the body of PATCH /deliveries/:id/status.
type DeliveryStatusRequest struct {
	Status DeliveryStatus `json:"status" binding:"required"`
}

// BillingRequest is used for both create and full update.
type BillingRequest struct {
	ConsumerID     string        `json:"consumerId" binding:"required"`
	SubscriptionID string        `json:"subscriptionId" binding:"required"`
	Amount         float64       `json:"amount" binding:"gte=0"`
	Status         BillingStatus `json:"status,omitempty"`
	DueDate        time.Time     `json:"dueDate" binding:"required"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty"`
	TransactionID  string        `json:"transactionId,omitempty"`
}

// BillingStatusRequest is the body of PATCH /bills/:id/status.
// PaymentMethod and TransactionID are recorded as given when Status is paid.
type BillingStatusRequest struct {
	Status        BillingStatus `json:"status" binding:"required"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
}
