package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/models"
)

type subscriptionService struct {
	subs db.SubscriptionRepository
	now  func() time.Time
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(subs db.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{subs: subs, now: utcNow}
}

func (s *subscriptionService) ListActive(ctx context.Context) ([]*models.Subscription, error) {
	subs, err := s.subs.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *subscriptionService) Get(ctx context.Context, subID string) (*models.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return nil, notFoundOr(err, "Subscription", subID)
	}
	return sub, nil
}

func (s *subscriptionService) Create(ctx context.Context, req models.SubscriptionRequest) (*models.Subscription, error) {
	if err := validateSubscription(req); err != nil {
		return nil, err
	}
	now := s.now()
	sub := &models.Subscription{IsActive: true, CreatedAt: now}
	applySubscription(sub, req)
	sub.UpdatedAt = now

	if _, err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

func (s *subscriptionService) Update(ctx context.Context, subID string, req models.SubscriptionRequest) (*models.Subscription, error) {
	if err := validateSubscription(req); err != nil {
		return nil, err
	}
	sub, err := s.Get(ctx, subID)
	if err != nil {
		return nil, err
	}
	applySubscription(sub, req)
	sub.UpdatedAt = s.now()

	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription '%s': %w", subID, err)
	}
	return sub, nil
}

func (s *subscriptionService) Deactivate(ctx context.Context, subID string) error {
	sub, err := s.Get(ctx, subID)
	if err != nil {
		return err
	}
	sub.IsActive = false
	sub.UpdatedAt = s.now()
	if err := s.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to deactivate subscription '%s': %w", subID, err)
	}
	return nil
}

func validateSubscription(req models.SubscriptionRequest) error {
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name is required")
	}
	if req.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if req.Duration < 1 {
		problems = append(problems, "duration must be at least 1 day")
	}
	problems = append(problems, validateProducts(req.Products)...)
	return validationError(problems)
}

// applySubscription copies the editable fields. A nil IsActive keeps the current value.
func applySubscription(sub *models.Subscription, req models.SubscriptionRequest) {
	sub.Name = strings.TrimSpace(req.Name)
	sub.Description = req.Description
	sub.Price = req.Price
	sub.Duration = req.Duration
	sub.Products = req.Products
	if sub.Products == nil {
		sub.Products = []models.Product{}
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}
}
