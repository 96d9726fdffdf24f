package db

import (
	"context"
	"errors"
	"strings"

	"dairy-backend-go/internal/models"
)

// ErrNotFound is returned by every repository when the document does not exist.
var ErrNotFound = errors.New("document not found")

// UserFilter narrows FindByRole. Offset/Limit apply after filtering; Limit <= 0 means no limit.
type UserFilter struct {
	Search string
	Offset int
	Limit  int
}

// DeliveryFilter narrows Deliveries.List; empty fields match everything.
type DeliveryFilter struct {
	DeliveryPersonID string
	ConsumerID       string
}

// BillingFilter narrows Billings.List; empty fields match everything.
type BillingFilter struct {
	ConsumerID string
}

// UserRepository stores admins, delivery people and consumers.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (string, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByRole returns one page of users with the role, newest first, and the
	// total number of matches before paging.
	FindByRole(ctx context.Context, role models.Role, filter UserFilter) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID string) error
}

// SubscriptionRepository stores subscription plans. There is no hard delete.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) (string, error)
	GetByID(ctx context.Context, subID string) (*models.Subscription, error)
	ListActive(ctx context.Context) ([]*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
}

// DeliveryRepository stores delivery assignments.
type DeliveryRepository interface {
	Create(ctx context.Context, d *models.Delivery) (string, error)
	GetByID(ctx context.Context, deliveryID string) (*models.Delivery, error)
	List(ctx context.Context, filter DeliveryFilter) ([]*models.Delivery, error)
	Update(ctx context.Context, d *models.Delivery) error
	CountByConsumer(ctx context.Context, consumerID string) (int, error)
}

// BillingRepository stores bills.
type BillingRepository interface {
	Create(ctx context.Context, b *models.Billing) (string, error)
	GetByID(ctx context.Context, billID string) (*models.Billing, error)
	List(ctx context.Context, filter BillingFilter) ([]*models.Billing, error)
	Update(ctx context.Context, b *models.Billing) error
	CountByConsumer(ctx context.Context, consumerID string) (int, error)
}

// Repositories is the full set handed to the core services.
type Repositories struct {
	Users         UserRepository
	Subscriptions SubscriptionRepository
	Deliveries    DeliveryRepository
	Billings      BillingRepository
}

// MatchesSearch reports whether search occurs case-insensitively in the user's
// name, email, phone or address. An empty search matches every user.
func MatchesSearch(u *models.User, search string) bool {
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	for _, field := range []string{u.Name, u.Email, u.Phone, u.Address} {
		if strings.Contains(strings.ToLower(field), s) {
			return true
		}
	}
	return false
}

// NormalizeEmail is the canonical stored and looked-up form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func pageOf[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
