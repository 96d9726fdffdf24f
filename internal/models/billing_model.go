package models

import "time"

// Billing is a bill raised against a consumer for a subscription.
// PaidDate, PaymentMethod and TransactionID are only written on the transition to paid.
type Billing struct {
	ID             string        `json:"id" firestore:"-"`
	ConsumerID     string        `json:"consumerId" firestore:"consumerId"`
	SubscriptionID string        `json:"subscriptionId" firestore:"subscriptionId"`
	Amount         float64       `json:"amount" firestore:"amount"`
	Status         BillingStatus `json:"status" firestore:"status"`
	DueDate        time.Time     `json:"dueDate" firestore:"dueDate"`
	PaidDate       *time.Time    `json:"paidDate,omitempty" firestore:"paidDate,omitempty"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty" firestore:"paymentMethod,omitempty"`
	TransactionID  string        `json:"transactionId,omitempty" firestore:"transactionId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" firestore:"updatedAt"`
}

// BillingView is a Billing with consumer and subscription resolved.
type BillingView struct {
	*Billing
	Consumer     *UserSummary         `json:"consumer"`
	Subscription *SubscriptionSummary `json:"subscription"`
}
