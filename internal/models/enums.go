package models

import "fmt"

// Role partitions what a User may do across every other entity.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
	RoleConsumer Role = "consumer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDelivery, RoleConsumer:
		return true
	}
	return false
}

// ParseRole converts a raw claim or document value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// DeliveryStatus is the lifecycle state of a Delivery.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryInProgress DeliveryStatus = "in-progress"
	DeliveryDelivered  DeliveryStatus = "delivered"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryInProgress, DeliveryDelivered:
		return true
	}
	return false
}

// BillingStatus is the payment state of a Billing record.
type BillingStatus string

const (
	BillingPending BillingStatus = "pending"
	BillingPaid    BillingStatus = "paid"
)

func (s BillingStatus) Valid() bool {
	switch s {
	case BillingPending, BillingPaid:
		return true
	}
	return false
}

// PaymentMethod records how a bill was settled.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}
