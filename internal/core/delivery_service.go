package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/models"
)

type deliveryService struct {
	deliveries db.DeliveryRepository
	users      db.UserRepository
	publisher  events.Publisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewDeliveryService creates a DeliveryService.
func NewDeliveryService(deliveries db.DeliveryRepository, users db.UserRepository, publisher events.Publisher, logger *zap.Logger) DeliveryService {
	return &deliveryService{
		deliveries: deliveries,
		users:      users,
		publisher:  publisher,
		logger:     logger,
		now:        utcNow,
	}
}

// List returns every delivery to an admin and only their own assignments to a delivery person.
func (s *deliveryService) List(ctx context.Context, caller models.Identity) ([]*models.DeliveryView, error) {
	var filter db.DeliveryFilter
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleDelivery:
		filter.DeliveryPersonID = caller.UserID
	default:
		return nil, newError(ErrForbidden, "Not authorized")
	}

	list, err := s.deliveries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return s.populateAll(ctx, list)
}

func (s *deliveryService) Get(ctx context.Context, caller models.Identity, deliveryID string) (*models.DeliveryView, error) {
	d, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.UserID != d.DeliveryPersonID && caller.UserID != d.ConsumerID {
		return nil, newError(ErrForbidden, "Not authorized")
	}
	return s.populate(ctx, d, newUserLookup(s.users))
}

func (s *deliveryService) Create(ctx context.Context, req models.DeliveryRequest) (*models.DeliveryView, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	now := s.now()
	d := &models.Delivery{Status: models.DeliveryPending, CreatedAt: now}
	applyDelivery(d, req)
	d.UpdatedAt = now

	if _, err := s.deliveries.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}
	return s.populate(ctx, d, newUserLookup(s.users))
}

// UpdateStatus accepts any status value; deliveries may move between states in any order.
func (s *deliveryService) UpdateStatus(ctx context.Context, caller models.Identity, deliveryID string, status models.DeliveryStatus) (*models.DeliveryView, error) {
	if !status.Valid() {
		return nil, newError(ErrValidation, "Invalid delivery status %q", status)
	}
	d, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleDelivery:
		if d.DeliveryPersonID != caller.UserID {
			return nil, newError(ErrForbidden, "Not authorized")
		}
	default:
		return nil, newError(ErrForbidden, "Not authorized")
	}

	previous := d.Status
	d.Status = status
	d.UpdatedAt = s.now()
	if err := s.deliveries.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update delivery '%s' status: %w", deliveryID, err)
	}

	publish(ctx, s.publisher, s.logger, events.Event{
		Type:       events.DeliveryStatusChanged,
		ResourceID: d.ID,
		ActorID:    caller.UserID,
		OccurredAt: d.UpdatedAt,
		Data: map[string]interface{}{
			"from":       string(previous),
			"to":         string(status),
			"consumerId": d.ConsumerID,
		},
	})
	return s.populate(ctx, d, newUserLookup(s.users))
}

// Update replaces every editable field. An empty status keeps the current one.
func (s *deliveryService) Update(ctx context.Context, deliveryID string, req models.DeliveryRequest) (*models.DeliveryView, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	applyDelivery(d, req)
	d.UpdatedAt = s.now()

	if err := s.deliveries.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update delivery '%s': %w", deliveryID, err)
	}
	return s.populate(ctx, d, newUserLookup(s.users))
}

func (s *deliveryService) load(ctx context.Context, deliveryID string) (*models.Delivery, error) {
	d, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, notFoundOr(err, "Delivery", deliveryID)
	}
	return d, nil
}

func (s *deliveryService) validate(ctx context.Context, req models.DeliveryRequest) error {
	var problems []string
	if req.DeliveryPersonID == "" {
		problems = append(problems, "deliveryPersonId is required")
	}
	if req.ConsumerID == "" {
		problems = append(problems, "consumerId is required")
	}
	if req.DeliveryDate.IsZero() {
		problems = append(problems, "deliveryDate is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		problems = append(problems, "address is required")
	}
	if req.Status != "" && !req.Status.Valid() {
		problems = append(problems, fmt.Sprintf("invalid delivery status %q", req.Status))
	}
	problems = append(problems, validateProducts(req.Products)...)
	if len(problems) > 0 {
		return validationError(problems)
	}

	if err := requireRole(ctx, s.users, req.DeliveryPersonID, models.RoleDelivery, "deliveryPersonId"); err != nil {
		return err
	}
	return requireRole(ctx, s.users, req.ConsumerID, models.RoleConsumer, "consumerId")
}

func applyDelivery(d *models.Delivery, req models.DeliveryRequest) {
	d.DeliveryPersonID = req.DeliveryPersonID
	d.ConsumerID = req.ConsumerID
	if req.Status != "" {
		d.Status = req.Status
	}
	d.Products = req.Products
	if d.Products == nil {
		d.Products = []models.Product{}
	}
	d.DeliveryDate = req.DeliveryDate.UTC()
	d.Address = strings.TrimSpace(req.Address)
	d.Notes = req.Notes
}

func (s *deliveryService) populateAll(ctx context.Context, list []*models.Delivery) ([]*models.DeliveryView, error) {
	lookup := newUserLookup(s.users)
	views := make([]*models.DeliveryView, 0, len(list))
	for _, d := range list {
		v, err := s.populate(ctx, d, lookup)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *deliveryService) populate(ctx context.Context, d *models.Delivery, lookup *userLookup) (*models.DeliveryView, error) {
	person, err := lookup.summary(ctx, d.DeliveryPersonID, func(u *models.User) *models.UserSummary {
		return &models.UserSummary{ID: u.ID, Name: u.Name, Phone: u.Phone}
	})
	if err != nil {
		return nil, err
	}
	consumer, err := lookup.summary(ctx, d.ConsumerID, func(u *models.User) *models.UserSummary {
		return &models.UserSummary{ID: u.ID, Name: u.Name, Phone: u.Phone, Address: u.Address}
	})
	if err != nil {
		return nil, err
	}
	return &models.DeliveryView{Delivery: d, DeliveryPerson: person, Consumer: consumer}, nil
}

// requireRole checks that userID references an existing user with the given role.
func requireRole(ctx context.Context, users db.UserRepository, userID string, role models.Role, field string) error {
	u, err := users.GetByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return newError(ErrValidation, "%s does not reference an existing user", field)
	}
	if err != nil {
		return fmt.Errorf("failed to load user '%s': %w", userID, err)
	}
	if u.Role != role {
		return newError(ErrValidation, "%s must reference a user with role %s", field, role)
	}
	return nil
}

// userLookup memoizes user reads while one response is being populated.
type userLookup struct {
	users db.UserRepository
	seen  map[string]*models.User
}

func newUserLookup(users db.UserRepository) *userLookup {
	return &userLookup{users: users, seen: map[string]*models.User{}}
}

func (l *userLookup) summary(ctx context.Context, userID string, project func(*models.User) *models.UserSummary) (*models.UserSummary, error) {
	if u, ok := l.seen[userID]; ok {
		if u == nil {
			return nil, nil
		}
		return project(u), nil
	}
	var found *models.User
	s, err := userSummary(ctx, l.users, userID, func(u *models.User) *models.UserSummary {
		found = u
		return project(u)
	})
	if err != nil {
		return nil, err
	}
	l.seen[userID] = found
	return s, nil
}
