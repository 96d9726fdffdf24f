package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"dairy-backend-go/internal/models"
)

// NewMemoryRepositories returns repositories backed by process memory. They are used for
// local development (STORAGE_DRIVER=memory) and tests; nothing survives a restart.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Users:         &memoryUsers{docs: map[string]models.User{}},
		Subscriptions: &memorySubscriptions{docs: map[string]models.Subscription{}},
		Deliveries:    &memoryDeliveries{docs: map[string]models.Delivery{}},
		Billings:      &memoryBillings{docs: map[string]models.Billing{}},
	}
}

func newID() string { return uuid.NewString() }

// Values are stored and returned as deep copies so callers cannot mutate stored state.

func cloneProducts(p []models.Product) []models.Product {
	if p == nil {
		return nil
	}
	return append([]models.Product(nil), p...)
}

func cloneSubscription(s models.Subscription) models.Subscription {
	s.Products = cloneProducts(s.Products)
	return s
}

func cloneDelivery(d models.Delivery) models.Delivery {
	d.Products = cloneProducts(d.Products)
	return d
}

func cloneBilling(b models.Billing) models.Billing {
	if b.PaidDate != nil {
		paid := *b.PaidDate
		b.PaidDate = &paid
	}
	return b
}

type memoryUsers struct {
	mu   sync.RWMutex
	docs map[string]models.User
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = newID()
	m.docs[user.ID] = *user
	return user.ID, nil
}

func (m *memoryUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.docs[userID]
	if !ok {
		return nil, fmt.Errorf("users/%s: %w", userID, ErrNotFound)
	}
	return &u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := NormalizeEmail(email)
	for _, u := range m.docs {
		if u.Email == want {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email '%s': %w", email, ErrNotFound)
}

func (m *memoryUsers) FindByRole(_ context.Context, role models.Role, filter UserFilter) ([]*models.User, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := []*models.User{}
	for _, u := range m.docs {
		if u.Role == role && MatchesSearch(&u, filter.Search) {
			u := u
			matched = append(matched, &u)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return pageOf(matched, filter.Offset, filter.Limit), len(matched), nil
}

func (m *memoryUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[user.ID] = *user
	return nil
}

func (m *memoryUsers) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[userID]; !ok {
		return fmt.Errorf("users/%s: %w", userID, ErrNotFound)
	}
	delete(m.docs, userID)
	return nil
}

type memorySubscriptions struct {
	mu   sync.RWMutex
	docs map[string]models.Subscription
}

func (m *memorySubscriptions) Create(_ context.Context, sub *models.Subscription) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = newID()
	m.docs[sub.ID] = cloneSubscription(*sub)
	return sub.ID, nil
}

func (m *memorySubscriptions) GetByID(_ context.Context, subID string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.docs[subID]
	if !ok {
		return nil, fmt.Errorf("subscriptions/%s: %w", subID, ErrNotFound)
	}
	s = cloneSubscription(s)
	return &s, nil
}

func (m *memorySubscriptions) ListActive(_ context.Context) ([]*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Subscription{}
	for _, s := range m.docs {
		if s.IsActive {
			s := cloneSubscription(s)
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memorySubscriptions) Update(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[sub.ID] = cloneSubscription(*sub)
	return nil
}

type memoryDeliveries struct {
	mu   sync.RWMutex
	docs map[string]models.Delivery
}

func (m *memoryDeliveries) Create(_ context.Context, d *models.Delivery) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = newID()
	m.docs[d.ID] = cloneDelivery(*d)
	return d.ID, nil
}

func (m *memoryDeliveries) GetByID(_ context.Context, deliveryID string) (*models.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[deliveryID]
	if !ok {
		return nil, fmt.Errorf("deliveries/%s: %w", deliveryID, ErrNotFound)
	}
	d = cloneDelivery(d)
	return &d, nil
}

func (m *memoryDeliveries) List(_ context.Context, filter DeliveryFilter) ([]*models.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Delivery{}
	for _, d := range m.docs {
		if filter.DeliveryPersonID != "" && d.DeliveryPersonID != filter.DeliveryPersonID {
			continue
		}
		if filter.ConsumerID != "" && d.ConsumerID != filter.ConsumerID {
			continue
		}
		d := cloneDelivery(d)
		out = append(out, &d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryDeliveries) Update(_ context.Context, d *models.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = cloneDelivery(*d)
	return nil
}

func (m *memoryDeliveries) CountByConsumer(_ context.Context, consumerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, d := range m.docs {
		if d.ConsumerID == consumerID {
			n++
		}
	}
	return n, nil
}

type memoryBillings struct {
	mu   sync.RWMutex
	docs map[string]models.Billing
}

func (m *memoryBillings) Create(_ context.Context, b *models.Billing) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = newID()
	m.docs[b.ID] = cloneBilling(*b)
	return b.ID, nil
}

func (m *memoryBillings) GetByID(_ context.Context, billID string) (*models.Billing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.docs[billID]
	if !ok {
		return nil, fmt.Errorf("billings/%s: %w", billID, ErrNotFound)
	}
	b = cloneBilling(b)
	return &b, nil
}

func (m *memoryBillings) List(_ context.Context, filter BillingFilter) ([]*models.Billing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Billing{}
	for _, b := range m.docs {
		if filter.ConsumerID != "" && b.ConsumerID != filter.ConsumerID {
			continue
		}
		b := cloneBilling(b)
		out = append(out, &b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryBillings) Update(_ context.Context, b *models.Billing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[b.ID] = cloneBilling(*b)
	return nil
}

func (m *memoryBillings) CountByConsumer(_ context.Context, consumerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, b := range m.docs {
		if b.ConsumerID == consumerID {
			n++
		}
	}
	return n, nil
}
