package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/models"
)

const (
	defaultConsumerPage  = 1
	defaultConsumerLimit = 10
	maxConsumerLimit     = 100

	// maxConsumerOffset is the largest offset handed to the store; pages past it are past the end.
	maxConsumerOffset = math.MaxInt32
)

// ConsumerDefaults are applied to consumers created by an admin.
type ConsumerDefaults struct {
	Password string // placeholder password, stored hashed
	Address  string // used when the request omits an address
}

type consumerService struct {
	repos     db.Repositories
	defaults  ConsumerDefaults
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewConsumerService creates a ConsumerService. Deliveries and Billings are consulted before
// a delete so that no reference is left dangling.
func NewConsumerService(repos db.Repositories, defaults ConsumerDefaults, publisher events.Publisher, logger *zap.Logger) ConsumerService {
	return &consumerService{
		repos:     repos,
		defaults:  defaults,
		publisher: publisher,
		logger:    logger,
		now:       utcNow,
	}
}

func (s *consumerService) List(ctx context.Context, params models.ListConsumersParams) (*models.ConsumerPage, error) {
	page, limit := params.Page, params.Limit
	if page < 1 {
		page = defaultConsumerPage
	}
	if limit < 1 {
		limit = defaultConsumerLimit
	}
	if limit > maxConsumerLimit {
		limit = maxConsumerLimit
	}
	offset := maxConsumerOffset
	if page-1 <= maxConsumerOffset/limit {
		offset = (page - 1) * limit
	}

	consumers, total, err := s.repos.Users.FindByRole(ctx, models.RoleConsumer, db.UserFilter{
		Search: strings.TrimSpace(params.Search),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list consumers: %w", err)
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &models.ConsumerPage{
		Consumers:  consumers,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

func (s *consumerService) Create(ctx context.Context, caller models.Identity, req models.CreateConsumerRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := db.NormalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return nil, newError(ErrValidation, "Missing required fields: %s", strings.Join(missing, ", "))
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		address = s.defaults.Address
	}
	hash, err := HashPassword(s.defaults.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	consumer := &models.User{
		Name:      name,
		Email:     email,
		Phone:     phone,
		Address:   address,
		Role:      models.RoleConsumer,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.repos.Users.Create(ctx, consumer); err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	publish(ctx, s.publisher, s.logger, events.Event{
		Type:       events.ConsumerCreated,
		ResourceID: consumer.ID,
		ActorID:    caller.UserID,
		OccurredAt: now,
		Data:       map[string]interface{}{"email": consumer.Email},
	})
	return consumer, nil
}

func (s *consumerService) Update(ctx context.Context, consumerID string, req models.UpdateConsumerRequest) (*models.User, error) {
	consumer, err := s.getConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}

	var blank []string
	setRequired := func(field string, value *string, target *string) {
		if value == nil {
			return
		}
		if v := strings.TrimSpace(*value); v != "" {
			*target = v
		} else {
			blank = append(blank, field)
		}
	}
	setRequired("name", req.Name, &consumer.Name)
	setRequired("phone", req.Phone, &consumer.Phone)
	if req.Email != nil {
		email := db.NormalizeEmail(*req.Email)
		if email == "" {
			blank = append(blank, "email")
		} else if email != consumer.Email {
			if err := s.ensureEmailFree(ctx, email, consumer.ID); err != nil {
				return nil, err
			}
			consumer.Email = email
		}
	}
	if len(blank) > 0 {
		return nil, newError(ErrValidation, "Fields cannot be empty: %s", strings.Join(blank, ", "))
	}
	if req.Address != nil {
		consumer.Address = strings.TrimSpace(*req.Address)
		if consumer.Address == "" {
			consumer.Address = s.defaults.Address
		}
	}

	consumer.UpdatedAt = s.now()
	if err := s.repos.Users.Update(ctx, consumer); err != nil {
		return nil, fmt.Errorf("failed to update consumer '%s': %w", consumerID, err)
	}
	return consumer, nil
}

func (s *consumerService) Delete(ctx context.Context, consumerID string) error {
	if _, err := s.getConsumer(ctx, consumerID); err != nil {
		return err
	}

	deliveries, err := s.repos.Deliveries.CountByConsumer(ctx, consumerID)
	if err != nil {
		return fmt.Errorf("failed to count deliveries for consumer '%s': %w", consumerID, err)
	}
	bills, err := s.repos.Billings.CountByConsumer(ctx, consumerID)
	if err != nil {
		return fmt.Errorf("failed to count bills for consumer '%s': %w", consumerID, err)
	}
	if deliveries > 0 || bills > 0 {
		return newError(ErrConflict, "Consumer is referenced by %d deliveries and %d bills", deliveries, bills)
	}

	if err := s.repos.Users.Delete(ctx, consumerID); err != nil {
		return notFoundOr(err, "Consumer", consumerID)
	}
	return nil
}

// getConsumer loads a user and hides anyone who is not a consumer.
func (s *consumerService) getConsumer(ctx context.Context, consumerID string) (*models.User, error) {
	u, err := s.repos.Users.GetByID(ctx, consumerID)
	if err != nil {
		return nil, notFoundOr(err, "Consumer", consumerID)
	}
	if u.Role != models.RoleConsumer {
		return nil, newError(ErrNotFound, "Consumer not found")
	}
	return u, nil
}

func (s *consumerService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repos.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up email '%s': %w", email, err)
	case existing.ID != selfID:
		return newError(ErrConflict, "A user with email %s already exists", email)
	}
	return nil
}
