package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dairy-backend-go/internal/auth"
	"dairy-backend-go/internal/cache"
	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/middleware"
	"dairy-backend-go/internal/models"
)

func init() { gin.SetMode(gin.TestMode) }

const testPassword = "pw-123456"

type testServer struct {
	router *gin.Engine
	repos  db.Repositories
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repos := db.NewMemoryRepositories()
	revoker := auth.NewRevoker(cache.NewMemoryCache())
	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "dairy-backend", TTL: time.Hour}, revoker)
	require.NoError(t, err)

	logger := zap.NewNop()
	pub := events.NoopPublisher{}
	services := Services{
		Auth:          core.NewAuthService(repos.Users, jwtManager, revoker, logger),
		Users:         core.NewUserService(repos.Users),
		Consumers:     core.NewConsumerService(repos, core.ConsumerDefaults{Password: "default123", Address: "Default Address"}, pub, logger),
		Subscriptions: core.NewSubscriptionService(repos.Subscriptions),
		Deliveries:    core.NewDeliveryService(repos.Deliveries, repos.Users, pub, logger),
		Billings:      core.NewBillingService(repos.Billings, repos.Users, repos.Subscriptions, pub, logger),
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	SetupRoutes(router, logger, middleware.NewAuthMiddleware(jwtManager, logger), services, nil)
	return &testServer{router: router, repos: repos, jwt: jwtManager}
}

// seedUser stores a user and returns its id and a valid bearer token.
func (s *testServer) seedUser(t *testing.T, name string, role models.Role) (string, string) {
	t.Helper()
	hash, err := core.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		Name: name, Email: name + "@dairy.test", Phone: "555", Address: name + " lane",
		Role: role, Password: hash, CreatedAt: time.Now().UTC(),
	}
	id, err := s.repos.Users.Create(context.Background(), u)
	require.NoError(t, err)
	token, _, err := s.jwt.Issue(u)
	require.NoError(t, err)
	return id, token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/cows", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).Message)
}

func TestLoginProfileLogout(t *testing.T) {
	s := newTestServer(t)
	id, _ := s.seedUser(t, "admin", models.RoleAdmin)

	rec := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ADMIN@dairy.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode[ErrorResponse](t, rec).Message)

	rec = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@dairy.test"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin@dairy.test", "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[models.LoginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, id, login.User.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodGet, "/api/users/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode[models.User](t, rec).Name)

	rec = s.do(http.MethodPost, "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/users/profile", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMissingOrBadTokenIs401(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/consumers", "/api/subscriptions", "/api/deliveries", "/api/bills", "/api/bills/consumer", "/api/users/profile"} {
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, path, "", nil).Code, path)
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, path, "garbage", nil).Code, path)
	}
}

func TestConsumerCreateThenSearch(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin", models.RoleAdmin)

	rec := s.do(http.MethodPost, "/api/consumers", adminToken, gin.H{"name": "A", "email": "a@x.com", "phone": "123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.User](t, rec)
	assert.Equal(t, models.RoleConsumer, created.Role)
	assert.Equal(t, "Default Address", created.Address)

	rec = s.do(http.MethodPost, "/api/consumers", adminToken, gin.H{"name": "B", "email": "b@y.com", "phone": "456"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/consumers?search=a@x", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.ConsumerPage](t, rec)
	require.Len(t, page.Consumers, 1)
	assert.Equal(t, created.ID, page.Consumers[0].ID)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
}

func TestConsumerListPagingParams(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin", models.RoleAdmin)
	for _, n := range []string{"c1", "c2", "c3"} {
		s.seedUser(t, n, models.RoleConsumer)
	}

	rec := s.do(http.MethodGet, "/api/consumers?page=abc&limit=xyz", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.ConsumerPage](t, rec)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Consumers, 3)

	rec = s.do(http.MethodGet, "/api/consumers?page=2&limit=2", adminToken, nil)
	page = decode[models.ConsumerPage](t, rec)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Consumers, 1)

	rec = s.do(http.MethodGet, "/api/consumers?page=3&limit=2", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, rec, "consumers")))

	rec = s.do(http.MethodGet, "/api/consumers?page=9223372036854775807&limit=9223372036854775807", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, rec, "consumers")))
	assert.JSONEq(t, `1`, string(mustField(t, rec, "totalPages")))
}

func mustField(t *testing.T, rec *httptest.ResponseRecorder, field string) json.RawMessage {
	t.Helper()
	m := decode[map[string]json.RawMessage](t, rec)
	v, ok := m[field]
	require.True(t, ok, field)
	return v
}

func TestConsumerErrors(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin", models.RoleAdmin)
	consumerID, _ := s.seedUser(t, "asha", models.RoleConsumer)

	rec := s.do(http.MethodPost, "/api/consumers", adminToken, gin.H{"name": "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "Missing required fields")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, "/api/consumers/nope", adminToken, gin.H{"name": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/consumers/nope", adminToken, nil).Code)

	rec = s.do(http.MethodPut, "/api/consumers/"+consumerID, adminToken, gin.H{"address": "New Road"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New Road", decode[models.User](t, rec).Address)

	_, err := s.repos.Billings.Create(context.Background(), &models.Billing{ConsumerID: consumerID})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/api/consumers/"+consumerID, adminToken, nil).Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin", models.RoleAdmin)
	_, consumerToken := s.seedUser(t, "asha", models.RoleConsumer)

	rec := s.do(http.MethodPost, "/api/subscriptions", adminToken, gin.H{"name": "Daily Milk", "price": 900, "duration": 30})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[models.Subscription](t, rec)
	assert.True(t, sub.IsActive)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/subscriptions", adminToken, gin.H{"name": "x", "price": 1, "duration": 0}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/subscriptions", consumerToken, gin.H{"name": "x", "price": 1, "duration": 1}).Code)

	rec = s.do(http.MethodGet, "/api/subscriptions", consumerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Subscription](t, rec), 1)

	rec = s.do(http.MethodDelete, "/api/subscriptions/"+sub.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Subscription deactivated successfully", decode[MessageResponse](t, rec).Message)

	rec = s.do(http.MethodGet, "/api/subscriptions", consumerToken, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
	rec = s.do(http.MethodGet, "/api/subscriptions/"+sub.ID, consumerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Subscription](t, rec).IsActive)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/subscriptions/nope", adminToken, nil).Code)
}

func TestDeliveryVisibilityAndStatus(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin", models.RoleAdmin)
	ravi, raviToken := s.seedUser(t, "ravi", models.RoleDelivery)
	sunil, sunilToken := s.seedUser(t, "sunil", models.RoleDelivery)
	asha, ashaToken := s.seedUser(t, "asha", models.RoleConsumer)
	_, balaToken := s.seedUser(t, "bala", models.RoleConsumer)

	create := func(driver string) models.DeliveryView {
		rec := s.do(http.MethodPost, "/api/deliveries", adminToken, gin.H{
			"deliveryPersonId": driver, "consumerId": asha,
			"deliveryDate": "2024-03-02T06:00:00Z", "address": "12 MG Road",
			"products": []gin.H{{"name": "Milk", "price": 30, "quantity": 2, "unit": "litre"}},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[models.DeliveryView](t, rec)
	}
	d1 := create(ravi)
	create(sunil)
	assert.Equal(t, models.DeliveryPending, d1.Status)
	require.NotNil(t, d1.DeliveryPerson)
	assert.Equal(t, "ravi", d1.DeliveryPerson.Name)

	rec := s.do(http.MethodGet, "/api/deliveries", adminToken, nil)
	assert.Len(t, decode[[]models.DeliveryView](t, rec), 2)
	rec = s.do(http.MethodGet, "/api/deliveries", raviToken, nil)
	mine := decode[[]models.DeliveryView](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, ravi, mine[0].DeliveryPersonID)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/deliveries", ashaToken, nil).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/deliveries/"+d1.ID, ashaToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/deliveries/"+d1.ID, raviToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/deliveries/"+d1.ID, sunilToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/deliveries/"+d1.ID, balaToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/deliveries/nope", adminToken, nil).Code)

	status := gin.H{"status": "delivered"}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, "/api/deliveries/"+d1.ID+"/status", sunilToken, status).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, "/api/deliveries/"+d1.ID+"/status", ashaToken, status).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/deliveries/"+d1.ID+"/status", raviToken, gin.H{"status": "lost"}).Code)
	rec = s.do(http.MethodPatch, "/api/deliveries/"+d1.ID+"/status", raviToken, status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DeliveryDelivered, decode[models.DeliveryView](t, rec).Status)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, "/api/deliveries/"+d1.ID, raviToken, gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/deliveries", adminToken, gin.H{"consumerId": asha}).Code)
}

func TestBillingAccessAndPaidStamping(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin", models.RoleAdmin)
	asha, ashaToken := s.seedUser(t, "asha", models.RoleConsumer)
	_, balaToken := s.seedUser(t, "bala", models.RoleConsumer)
	_, raviToken := s.seedUser(t, "ravi", models.RoleDelivery)
	subID, err := s.repos.Subscriptions.Create(context.Background(), &models.Subscription{Name: "Daily Milk", Price: 900, Duration: 30, IsActive: true})
	require.NoError(t, err)

	rec := s.do(http.MethodPost, "/api/bills", adminToken, gin.H{
		"consumerId": asha, "subscriptionId": subID, "amount": 900, "dueDate": "2024-03-31T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bill := decode[models.BillingView](t, rec)
	assert.Equal(t, models.BillingPending, bill.Status)
	require.NotNil(t, bill.Subscription)
	assert.Equal(t, "Daily Milk", bill.Subscription.Name)

	path := "/api/bills/" + bill.ID
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, ashaToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, adminToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, balaToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, raviToken, nil).Code)

	rec = s.do(http.MethodGet, "/api/bills/consumer", ashaToken, nil)
	assert.Len(t, decode[[]models.BillingView](t, rec), 1)
	rec = s.do(http.MethodGet, "/api/bills/consumer", balaToken, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, path+"/status", balaToken, gin.H{"status": "paid"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, path+"/status", ashaToken, gin.H{"status": "paid", "paymentMethod": "cheque"}).Code)

	rec = s.do(http.MethodPatch, path+"/status", ashaToken, gin.H{"status": "paid", "paymentMethod": "upi", "transactionId": "txn-9"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[models.BillingView](t, rec)
	assert.Equal(t, models.BillingPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, models.PaymentUPI, paid.PaymentMethod)
	assert.Equal(t, "txn-9", paid.TransactionID)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/bills", ashaToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, path, ashaToken, gin.H{}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/bills/nope", adminToken, nil).Code)
}

func TestBillExport(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin", models.RoleAdmin)
	_, consumerToken := s.seedUser(t, "asha", models.RoleConsumer)

	rec := s.do(http.MethodGet, "/api/bills/export", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/bills/export", consumerToken, nil).Code)
}

func TestAdminOnlyMatrix(t *testing.T) {
	s := newTestServer(t)
	_, deliveryToken := s.seedUser(t, "ravi", models.RoleDelivery)
	_, consumerToken := s.seedUser(t, "asha", models.RoleConsumer)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/consumers"},
		{http.MethodPost, "/api/consumers"},
		{http.MethodPut, "/api/consumers/x"},
		{http.MethodDelete, "/api/consumers/x"},
		{http.MethodPost, "/api/subscriptions"},
		{http.MethodPut, "/api/subscriptions/x"},
		{http.MethodDelete, "/api/subscriptions/x"},
		{http.MethodPost, "/api/deliveries"},
		{http.MethodPut, "/api/deliveries/x"},
		{http.MethodGet, "/api/bills"},
		{http.MethodGet, "/api/bills/export"},
		{http.MethodPost, "/api/bills"},
		{http.MethodPut, "/api/bills/x"},
	}
	for _, r := range routes {
		for role, token := range map[string]string{"delivery": deliveryToken, "consumer": consumerToken} {
			rec := s.do(r.method, r.path, token, gin.H{})
			assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as %s", r.method, r.path, role)
			assert.Equal(t, "Access denied", decode[ErrorResponse](t, rec).Message)
		}
	}
}

type brokenConsumers struct{ core.ConsumerService }

func (brokenConsumers) List(context.Context, models.ListConsumersParams) (*models.ConsumerPage, error) {
	return nil, errors.New("firestore: deadline exceeded")
}

func TestUnexpectedErrorIs500(t *testing.T) {
	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{Secret: "s", TTL: time.Hour}, nil)
	require.NoError(t, err)
	token, _, err := jwtManager.Issue(&models.User{ID: "a1", Role: models.RoleAdmin})
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, zap.NewNop(), middleware.NewAuthMiddleware(jwtManager, zap.NewNop()), Services{Consumers: brokenConsumers{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/consumers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
}

func TestMetricsRouteIsOptional(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/metrics", "", nil).Code)

	router := gin.New()
	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{Secret: "s", TTL: time.Hour}, nil)
	require.NoError(t, err)
	SetupRoutes(router, zap.NewNop(), middleware.NewAuthMiddleware(jwtManager, zap.NewNop()), Services{},
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# metrics", rec.Body.String())
}
