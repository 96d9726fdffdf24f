package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dairy-backend-go/internal/api"
	"dairy-backend-go/internal/auth"
	"dairy-backend-go/internal/cache"
	"dairy-backend-go/internal/config"
	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/metrics"
	"dairy-backend-go/internal/middleware"
)

func main() {
	// .env is a development convenience; release deployments set the environment directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file loaded:", err)
		}
	}

	// --- 1. Configuration and logger ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	var zapLogger *zap.Logger
	if appConfig.IsRelease() {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded",
		zap.String("storage", appConfig.StorageDriver),
		zap.Bool("firebaseAuth", appConfig.AuthFirebaseEnabled))

	// --- 2. Storage ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	var firebaseClients *db.FirebaseClients
	if appConfig.NeedsFirebase() {
		firebaseClients, err = db.InitFirebase(initCtx, appConfig, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
		}
		defer firebaseClients.Close()
	}

	repos, err := db.Open(appConfig, firebaseClients)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to open repositories", zap.Error(err))
	}
	if appConfig.StorageDriver == config.StorageMemory {
		zapLogger.Warn("Using in-memory storage; data is lost on restart")
		if _, err := core.EnsureAdmin(initCtx, repos.Users, appConfig.AdminEmail, appConfig.AdminPassword); err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to seed admin into in-memory storage", zap.Error(err))
		}
		zapLogger.Info("Seeded in-memory admin", zap.String("email", appConfig.AdminEmail))
	}

	// --- 3. Token cache, auth and events ---
	var tokenCache cache.Cache
	if appConfig.RedisAddr != "" {
		tokenCache, err = cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
	} else {
		zapLogger.Warn("REDIS_ADDR not set; token revocation is process-local")
		tokenCache = cache.NewMemoryCache()
	}
	defer tokenCache.Close()

	revoker := auth.NewRevoker(tokenCache)
	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{
		Secret: appConfig.JWTSecret,
		Issuer: appConfig.JWTIssuer,
		TTL:    appConfig.JWTTTL,
	}, revoker)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize JWT manager", zap.Error(err))
	}

	var verifier auth.Verifier = jwtManager
	if appConfig.AuthFirebaseEnabled {
		verifier = auth.ChainVerifier{jwtManager, auth.NewFirebaseVerifier(firebaseClients.Auth, repos.Users)}
		zapLogger.Info("Firebase ID tokens accepted alongside application tokens")
	}

	var appMetrics *metrics.Metrics
	if appConfig.MetricsEnabled {
		appMetrics = metrics.New()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if appConfig.AMQPURL != "" {
		publisher, err = events.NewRabbitMQPublisher(events.RabbitMQConfig{
			URL:   appConfig.AMQPURL,
			Queue: appConfig.AMQPQueue,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
	}
	if appMetrics != nil {
		publisher = appMetrics.InstrumentPublisher(publisher)
	}
	defer publisher.Close()

	// --- 4. Services ---
	services := api.Services{
		Auth:  core.NewAuthService(repos.Users, jwtManager, revoker, zapLogger),
		Users: core.NewUserService(repos.Users),
		Consumers: core.NewConsumerService(repos, core.ConsumerDefaults{
			Password: appConfig.ConsumerDefaultPassword,
			Address:  appConfig.ConsumerDefaultAddress,
		}, publisher, zapLogger),
		Subscriptions: core.NewSubscriptionService(repos.Subscriptions),
		Deliveries:    core.NewDeliveryService(repos.Deliveries, repos.Users, publisher, zapLogger),
		Billings:      core.NewBillingService(repos.Billings, repos.Users, repos.Subscriptions, publisher, zapLogger),
	}

	// --- 5. HTTP engine ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	var metricsHandler http.Handler
	if appMetrics != nil {
		router.Use(middleware.Metrics(appMetrics))
		metricsHandler = appMetrics.Handler()
	}

	api.SetupRoutes(router, zapLogger, middleware.NewAuthMiddleware(verifier, zapLogger), services, metricsHandler)

	// --- 6. Serve until signalled ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
