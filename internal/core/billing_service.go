package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/models"
)

type billingService struct {
	bills     db.BillingRepository
	users     db.UserRepository
	subs      db.SubscriptionRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBillingService creates a BillingService.
func NewBillingService(bills db.BillingRepository, users db.UserRepository, subs db.SubscriptionRepository, publisher events.Publisher, logger *zap.Logger) BillingService {
	return &billingService{
		bills:     bills,
		users:     users,
		subs:      subs,
		publisher: publisher,
		logger:    logger,
		now:       utcNow,
	}
}

func (s *billingService) List(ctx context.Context) ([]*models.BillingView, error) {
	list, err := s.bills.List(ctx, db.BillingFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return s.populateAll(ctx, list)
}

// ListForCaller returns the bills whose consumer is the caller.
func (s *billingService) ListForCaller(ctx context.Context, caller models.Identity) ([]*models.BillingView, error) {
	list, err := s.bills.List(ctx, db.BillingFilter{ConsumerID: caller.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to list bills for '%s': %w", caller.UserID, err)
	}
	return s.populateAll(ctx, list)
}

func (s *billingService) Get(ctx context.Context, caller models.Identity, billID string) (*models.BillingView, error) {
	b, err := s.load(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !canAccessBill(caller, b) {
		return nil, newError(ErrForbidden, "Not authorized")
	}
	return s.populate(ctx, b, newBillLookup(s.users, s.subs))
}

func (s *billingService) Create(ctx context.Context, req models.BillingRequest) (*models.BillingView, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	now := s.now()
	b := &models.Billing{Status: models.BillingPending, CreatedAt: now}
	s.apply(b, req, now)

	if _, err := s.bills.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	return s.populate(ctx, b, newBillLookup(s.users, s.subs))
}

// UpdateStatus lets an admin or the billed consumer change the status. Moving to paid stamps
// paidDate and records the payment details exactly as supplied; other statuses leave them alone.
func (s *billingService) UpdateStatus(ctx context.Context, caller models.Identity, billID string, req models.BillingStatusRequest) (*models.BillingView, error) {
	if !req.Status.Valid() {
		return nil, newError(ErrValidation, "Invalid billing status %q", req.Status)
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return nil, newError(ErrValidation, "Invalid payment method %q", req.PaymentMethod)
	}
	b, err := s.load(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !canAccessBill(caller, b) {
		return nil, newError(ErrForbidden, "Not authorized")
	}

	now := s.now()
	b.Status = req.Status
	if req.Status == models.BillingPaid {
		b.PaidDate = &now
		b.PaymentMethod = req.PaymentMethod
		b.TransactionID = req.TransactionID
	}
	b.UpdatedAt = now
	if err := s.bills.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update bill '%s' status: %w", billID, err)
	}

	if req.Status == models.BillingPaid {
		publish(ctx, s.publisher, s.logger, events.Event{
			Type:       events.BillPaid,
			ResourceID: b.ID,
			ActorID:    caller.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"consumerId":    b.ConsumerID,
				"amount":        b.Amount,
				"paymentMethod": string(b.PaymentMethod),
			},
		})
	}
	return s.populate(ctx, b, newBillLookup(s.users, s.subs))
}

// Update replaces every editable field. An empty status keeps the current one.
func (s *billingService) Update(ctx context.Context, billID string, req models.BillingRequest) (*models.BillingView, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, billID)
	if err != nil {
		return nil, err
	}
	s.apply(b, req, s.now())

	if err := s.bills.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update bill '%s': %w", billID, err)
	}
	return s.populate(ctx, b, newBillLookup(s.users, s.subs))
}

func (s *billingService) load(ctx context.Context, billID string) (*models.Billing, error) {
	b, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, notFoundOr(err, "Bill", billID)
	}
	return b, nil
}

func canAccessBill(caller models.Identity, b *models.Billing) bool {
	return caller.IsAdmin() || caller.UserID == b.ConsumerID
}

func (s *billingService) validate(ctx context.Context, req models.BillingRequest) error {
	var problems []string
	if req.ConsumerID == "" {
		problems = append(problems, "consumerId is required")
	}
	if req.SubscriptionID == "" {
		problems = append(problems, "subscriptionId is required")
	}
	if req.Amount < 0 {
		problems = append(problems, "amount must not be negative")
	}
	if req.DueDate.IsZero() {
		problems = append(problems, "dueDate is required")
	}
	if req.Status != "" && !req.Status.Valid() {
		problems = append(problems, fmt.Sprintf("invalid billing status %q", req.Status))
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		problems = append(problems, fmt.Sprintf("invalid payment method %q", req.PaymentMethod))
	}
	if len(problems) > 0 {
		return validationError(problems)
	}

	if err := requireRole(ctx, s.users, req.ConsumerID, models.RoleConsumer, "consumerId"); err != nil {
		return err
	}
	if _, err := s.subs.GetByID(ctx, req.SubscriptionID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return newError(ErrValidation, "subscriptionId does not reference an existing subscription")
		}
		return fmt.Errorf("failed to load subscription '%s': %w", req.SubscriptionID, err)
	}
	return nil
}

// apply copies the editable fields. A bill that becomes paid without a paidDate is stamped with now.
func (s *billingService) apply(b *models.Billing, req models.BillingRequest, now time.Time) {
	b.ConsumerID = req.ConsumerID
	b.SubscriptionID = req.SubscriptionID
	b.Amount = req.Amount
	if req.Status != "" {
		b.Status = req.Status
	}
	b.DueDate = req.DueDate.UTC()
	b.PaymentMethod = req.PaymentMethod
	b.TransactionID = req.TransactionID
	if b.Status == models.BillingPaid && b.PaidDate == nil {
		b.PaidDate = &now
	}
	b.UpdatedAt = now
}

func (s *billingService) populateAll(ctx context.Context, list []*models.Billing) ([]*models.BillingView, error) {
	lookup := newBillLookup(s.users, s.subs)
	views := make([]*models.BillingView, 0, len(list))
	for _, b := range list {
		v, err := s.populate(ctx, b, lookup)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *billingService) populate(ctx context.Context, b *models.Billing, lookup *billLookup) (*models.BillingView, error) {
	consumer, err := lookup.users.summary(ctx, b.ConsumerID, func(u *models.User) *models.UserSummary {
		return &models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
	})
	if err != nil {
		return nil, err
	}
	sub, err := lookup.subscription(ctx, b.SubscriptionID)
	if err != nil {
		return nil, err
	}
	return &models.BillingView{Billing: b, Consumer: consumer, Subscription: sub}, nil
}

type billLookup struct {
	users *userLookup
	subs  db.SubscriptionRepository
	seen  map[string]*models.SubscriptionSummary
}

func newBillLookup(users db.UserRepository, subs db.SubscriptionRepository) *billLookup {
	return &billLookup{users: newUserLookup(users), subs: subs, seen: map[string]*models.SubscriptionSummary{}}
}

// subscription returns nil for a dangling reference.
func (l *billLookup) subscription(ctx context.Context, subID string) (*models.SubscriptionSummary, error) {
	if subID == "" {
		return nil, nil
	}
	if s, ok := l.seen[subID]; ok {
		return s, nil
	}
	sub, err := l.subs.GetByID(ctx, subID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to load referenced subscription '%s': %w", subID, err)
	}
	var summary *models.SubscriptionSummary
	if sub != nil {
		summary = &models.SubscriptionSummary{ID: sub.ID, Name: sub.Name, Price: sub.Price}
	}
	l.seen[subID] = summary
	return summary, nil
}
