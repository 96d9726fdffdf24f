package core

import (
	"context"
	"time"

	"dairy-backend-go/internal/models"
)

// AuthService handles credential login and logout.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	// Logout revokes the token the caller presented.
	Logout(ctx context.Context, caller models.Identity) error
}

// UserService serves the caller's own profile.
type UserService interface {
	GetProfile(ctx context.Context, caller models.Identity) (*models.User, error)
}

// ConsumerService manages users with the consumer role. All operations are admin-only;
// the role check happens in the router.
type ConsumerService interface {
	List(ctx context.Context, params models.ListConsumersParams) (*models.ConsumerPage, error)
	Create(ctx context.Context, caller models.Identity, req models.CreateConsumerRequest) (*models.User, error)
	Update(ctx context.Context, consumerID string, req models.UpdateConsumerRequest) (*models.User, error)
	Delete(ctx context.Context, consumerID string) error
}

// SubscriptionService manages subscription plans.
type SubscriptionService interface {
	ListActive(ctx context.Context) ([]*models.Subscription, error)
	Get(ctx context.Context, subID string) (*models.Subscription, error)
	Create(ctx context.Context, req models.SubscriptionRequest) (*models.Subscription, error)
	Update(ctx context.Context, subID string, req models.SubscriptionRequest) (*models.Subscription, error)
	// Deactivate is the soft delete: the plan stays readable by id.
	Deactivate(ctx context.Context, subID string) error
}

// DeliveryService manages deliveries and enforces per-caller visibility.
type DeliveryService interface {
	List(ctx context.Context, caller models.Identity) ([]*models.DeliveryView, error)
	Get(ctx context.Context, caller models.Identity, deliveryID string) (*models.DeliveryView, error)
	Create(ctx context.Context, req models.DeliveryRequest) (*models.DeliveryView, error)
	UpdateStatus(ctx context.Context, caller models.Identity, deliveryID string, status models.DeliveryStatus) (*models.DeliveryView, error)
	Update(ctx context.Context, deliveryID string, req models.DeliveryRequest) (*models.DeliveryView, error)
}

// BillingService manages bills and enforces per-caller visibility.
type BillingService interface {
	List(ctx context.Context) ([]*models.BillingView, error)
	ListForCaller(ctx context.Context, caller models.Identity) ([]*models.BillingView, error)
	Get(ctx context.Context, caller models.Identity, billID string) (*models.BillingView, error)
	Create(ctx context.Context, req models.BillingRequest) (*models.BillingView, error)
	UpdateStatus(ctx context.Context, caller models.Identity, billID string, req models.BillingStatusRequest) (*models.BillingView, error)
	Update(ctx context.Context, billID string, req models.BillingRequest) (*models.BillingView, error)
}

// TokenIssuer signs access tokens for a user.
type TokenIssuer interface {
	Issue(user *models.User) (token string, expiresAt time.Time, err error)
}

// TokenRevoker invalidates a token id until the token would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}
