package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/models"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func addUser(t *testing.T, repos db.Repositories, name string, role models.Role) string {
	t.Helper()
	id, err := repos.Users.Create(context.Background(), &models.User{
		Name:      name,
		Email:     name + "@dairy.test",
		Phone:     "9000000000",
		Address:   name + " street",
		Role:      role,
		CreatedAt: fixedNow,
	})
	require.NoError(t, err)
	return id
}

func addSubscription(t *testing.T, repos db.Repositories, name string, price float64) string {
	t.Helper()
	id, err := repos.Subscriptions.Create(context.Background(), &models.Subscription{
		Name: name, Price: price, Duration: 30, IsActive: true, CreatedAt: fixedNow,
	})
	require.NoError(t, err)
	return id
}

func admin() models.Identity { return models.Identity{UserID: "admin-1", Role: models.RoleAdmin} }

func as(userID string, role models.Role) models.Identity {
	return models.Identity{UserID: userID, Role: role}
}

func strPtr(s string) *string { return &s }
