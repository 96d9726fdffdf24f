package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/middleware"
	"dairy-backend-go/internal/models"
)

// Services bundles the core services the routes dispatch to.
type Services struct {
	Auth          core.AuthService
	Users         core.UserService
	Consumers     core.ConsumerService
	Subscriptions core.SubscriptionService
	Deliveries    core.DeliveryService
	Billings      core.BillingService
}

// SetupRoutes registers every route on router. Global middleware (logging, recovery, CORS,
// metrics) is expected to be installed by the caller. metricsHandler may be nil to leave
// /metrics unregistered.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
	services Services,
	metricsHandler http.Handler,
) {
	authHandler := NewAuthHandler(services.Auth, logger)
	userHandler := NewUserHandler(services.Users, logger)
	consumerHandler := NewConsumerHandler(services.Consumers, logger)
	subscriptionHandler := NewSubscriptionHandler(services.Subscriptions, logger)
	deliveryHandler := NewDeliveryHandler(services.Deliveries, logger)
	billingHandler := NewBillingHandler(services.Billings, logger)

	requireAuth := authMW.VerifyToken()
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	apiGroup := router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", requireAuth, authHandler.Logout)
		}

		apiGroup.GET("/users/profile", requireAuth, userHandler.GetProfile)

		consumers := apiGroup.Group("/consumers", requireAuth, adminOnly)
		{
			consumers.GET("", consumerHandler.ListConsumers)
			consumers.POST("", consumerHandler.CreateConsumer)
			consumers.PUT("/:id", consumerHandler.UpdateConsumer)
			consumers.DELETE("/:id", consumerHandler.DeleteConsumer)
		}

		subscriptions := apiGroup.Group("/subscriptions", requireAuth)
		{
			subscriptions.GET("", subscriptionHandler.ListSubscriptions)
			subscriptions.GET("/:id", subscriptionHandler.GetSubscription)
			subscriptions.POST("", adminOnly, subscriptionHandler.CreateSubscription)
			subscriptions.PUT("/:id", adminOnly, subscriptionHandler.UpdateSubscription)
			subscriptions.DELETE("/:id", adminOnly, subscriptionHandler.DeleteSubscription)
		}

		deliveries := apiGroup.Group("/deliveries", requireAuth)
		{
			staff := middleware.RequireRoles(models.RoleAdmin, models.RoleDelivery)
			deliveries.GET("", staff, deliveryHandler.ListDeliveries)
			deliveries.GET("/:id", deliveryHandler.GetDelivery)
			deliveries.POST("", adminOnly, deliveryHandler.CreateDelivery)
			deliveries.PATCH("/:id/status", staff, deliveryHandler.UpdateDeliveryStatus)
			deliveries.PUT("/:id", adminOnly, deliveryHandler.UpdateDelivery)
		}

		bills := apiGroup.Group("/bills", requireAuth)
		{
			bills.GET("", adminOnly, billingHandler.ListBills)
			bills.GET("/consumer", billingHandler.ListMyBills)
			bills.GET("/export", adminOnly, billingHandler.ExportBills)
			bills.GET("/:id", billingHandler.GetBill)
			bills.POST("", adminOnly, billingHandler.CreateBill)
			bills.PATCH("/:id/status", billingHandler.UpdateBillStatus)
			bills.PUT("/:id", adminOnly, billingHandler.UpdateBill)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "UP"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Route not found"})
	})

	logger.Info("API routes configured under /api, /health")
}
