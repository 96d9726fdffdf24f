package core

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/models"
)

func newConsumerServiceForTest(repos db.Repositories, pub events.Publisher) *consumerService {
	svc := NewConsumerService(repos, ConsumerDefaults{Password: "default123", Address: "Default Address"}, pub, zap.NewNop()).(*consumerService)
	svc.now = fixedClock
	return svc
}

func TestConsumerCreateAppliesDefaults(t *testing.T) {
	repos := db.NewMemoryRepositories()
	pub := &recordingPublisher{}
	svc := newConsumerServiceForTest(repos, pub)

	c, err := svc.Create(context.Background(), admin(), models.CreateConsumerRequest{Name: "A", Email: "A@X.com ", Phone: "123"})
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.RoleConsumer, c.Role)
	assert.Equal(t, "Default Address", c.Address)
	assert.Equal(t, "a@x.com", c.Email)
	assert.True(t, CheckPassword(c.Password, "default123"))
	assert.Equal(t, fixedNow, c.CreatedAt)
	assert.Equal(t, []events.Type{events.ConsumerCreated}, pub.types())

	stored, err := repos.Users.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleConsumer, stored.Role)
}

func TestConsumerCreateValidation(t *testing.T) {
	svc := newConsumerServiceForTest(db.NewMemoryRepositories(), events.NoopPublisher{})

	_, err := svc.Create(context.Background(), admin(), models.CreateConsumerRequest{Name: "A", Phone: " "})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "phone")
	assert.NotContains(t, err.Error(), "name")
}

func TestConsumerCreateRejectsDuplicateEmail(t *testing.T) {
	svc := newConsumerServiceForTest(db.NewMemoryRepositories(), events.NoopPublisher{})
	ctx := context.Background()

	_, err := svc.Create(ctx, admin(), models.CreateConsumerRequest{Name: "A", Email: "a@x.com", Phone: "1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin(), models.CreateConsumerRequest{Name: "B", Email: "A@x.com", Phone: "2"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConsumerListPaging(t *testing.T) {
	repos := db.NewMemoryRepositories()
	svc := newConsumerServiceForTest(repos, events.NoopPublisher{})
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		svc.now = func() time.Time { return fixedNow.Add(time.Duration(i) * time.Second) }
		_, err := svc.Create(ctx, admin(), models.CreateConsumerRequest{
			Name: fmt.Sprintf("C%02d", i), Email: fmt.Sprintf("c%02d@x.com", i), Phone: "1",
		})
		require.NoError(t, err)
	}
	addUser(t, repos, "driver", models.RoleDelivery)

	page, err := svc.List(ctx, models.ListConsumersParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Consumers, 10)
	assert.Equal(t, "C22", page.Consumers[0].Name)

	page, err = svc.List(ctx, models.ListConsumersParams{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Consumers, 3)

	page, err = svc.List(ctx, models.ListConsumersParams{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Consumers)
	assert.NotNil(t, page.Consumers)
	assert.Equal(t, 3, page.TotalPages)
}

func TestConsumerListExtremePaging(t *testing.T) {
	repos := db.NewMemoryRepositories()
	svc := newConsumerServiceForTest(repos, events.NoopPublisher{})
	ctx := context.Background()
	for _, name := range []string{"asha", "bala", "chitra"} {
		addUser(t, repos, name, models.RoleConsumer)
	}

	page, err := svc.List(ctx, models.ListConsumersParams{Page: math.MaxInt, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Consumers)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, math.MaxInt, page.Page)

	page, err = svc.List(ctx, models.ListConsumersParams{Page: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, page.Consumers, 3)
	assert.Equal(t, 1, page.TotalPages)

	for i := 0; i < 150; i++ {
		addUser(t, repos, fmt.Sprintf("c%03d", i), models.RoleConsumer)
	}
	page, err = svc.List(ctx, models.ListConsumersParams{Page: 1, Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Consumers, maxConsumerLimit)
	assert.Equal(t, 153, page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

func TestConsumerListSearch(t *testing.T) {
	repos := db.NewMemoryRepositories()
	svc := newConsumerServiceForTest(repos, events.NoopPublisher{})
	ctx := context.Background()
	_, err := svc.Create(ctx, admin(), models.CreateConsumerRequest{Name: "A", Email: "a@x.com", Phone: "123"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin(), models.CreateConsumerRequest{Name: "Bob", Email: "bob@y.com", Phone: "456", Address: "Lake View"})
	require.NoError(t, err)

	page, err := svc.List(ctx, models.ListConsumersParams{Search: "a@x"})
	require.NoError(t, err)
	require.Len(t, page.Consumers, 1)
	assert.Equal(t, "a@x.com", page.Consumers[0].Email)
	assert.Equal(t, 1, page.TotalPages)

	page, err = svc.List(ctx, models.ListConsumersParams{Search: "LAKE"})
	require.NoError(t, err)
	require.Len(t, page.Consumers, 1)
	assert.Equal(t, "Bob", page.Consumers[0].Name)

	page, err = svc.List(ctx, models.ListConsumersParams{Search: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.TotalPages)
}

func TestConsumerUpdate(t *testing.T) {
	repos := db.NewMemoryRepositories()
	svc := newConsumerServiceForTest(repos, events.NoopPublisher{})
	ctx := context.Background()
	c, err := svc.Create(ctx, admin(), models.CreateConsumerRequest{Name: "A", Email: "a@x.com", Phone: "123", Address: "Old"})
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	svc.now = func() time.Time { return later }
	updated, err := svc.Update(ctx, c.ID, models.UpdateConsumerRequest{Phone: strPtr("999"), Email: strPtr("NEW@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Name)
	assert.Equal(t, "999", updated.Phone)
	assert.Equal(t, "new@x.com", updated.Email)
	assert.Equal(t, "Old", updated.Address)
	assert.Equal(t, later, updated.UpdatedAt)

	_, err = svc.Update(ctx, c.ID, models.UpdateConsumerRequest{Name: strPtr("")})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err = svc.Update(ctx, c.ID, models.UpdateConsumerRequest{Address: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Default Address", updated.Address)
}

func TestConsumerUpdateAndDeleteOnlyTouchConsumers(t *testing.T) {
	repos := db.NewMemoryRepositories()
	svc := newConsumerServiceForTest(repos, events.NoopPublisher{})
	ctx := context.Background()
	driverID := addUser(t, repos, "driver", models.RoleDelivery)

	_, err := svc.Update(ctx, driverID, models.UpdateConsumerRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, driverID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrNotFound)

	_, err = repos.Users.GetByID(ctx, driverID)
	assert.NoError(t, err)
}

func TestConsumerDeleteDeniedWhileReferenced(t *testing.T) {
	repos := db.NewMemoryRepositories()
	svc := newConsumerServiceForTest(repos, events.NoopPublisher{})
	ctx := context.Background()
	c, err := svc.Create(ctx, admin(), models.CreateConsumerRequest{Name: "A", Email: "a@x.com", Phone: "1"})
	require.NoError(t, err)
	billID, err := repos.Billings.Create(ctx, &models.Billing{ConsumerID: c.ID})
	require.NoError(t, err)

	err = svc.Delete(ctx, c.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "1 bills")

	require.NoError(t, repos.Billings.Update(ctx, &models.Billing{ID: billID, ConsumerID: "someone-else"}))
	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = repos.Users.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
