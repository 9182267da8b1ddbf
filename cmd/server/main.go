package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/api"
	"lyra-backend-go/internal/billing"
	"lyra-backend-go/internal/config"
	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/db"
	"lyra-backend-go/internal/export"
	"lyra-backend-go/internal/llm"
	"lyra-backend-go/internal/middleware"
	"lyra-backend-go/pkg/messagequeue"
	"lyra-backend-go/pkg/ratelimit"
)

func main() {
	// --- 1. Initialize Logger (Zap) ---
	zapLogger, err := newLogger(os.Getenv("GIN_MODE"))
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded.",
		zap.String("store", appConfig.StoreDriver),
		zap.String("llmProvider", appConfig.LLMProvider))

	// --- 3. Initialize Firebase Admin SDK (Auth, and Firestore when selected) ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()
	firebaseClients, err := db.InitFirebase(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer firebaseClients.Close()

	// --- 4. Initialize the Record Store ---
	var store db.Store
	switch appConfig.StoreDriver {
	case config.StoreDriverFirestore:
		store = db.NewFirestoreStore(firebaseClients.Firestore, time.Now)
	default:
		store = db.NewMemoryStore().Store()
		zapLogger.Warn("Using the in-memory store. Records are lost on restart.")
	}

	// --- 5. Initialize External Adapters ---
	generator, generatorCloser, err := llm.NewGenerator(context.Background(), appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize language model provider", zap.Error(err))
	}
	defer generatorCloser.Close()

	var gateway core.PaymentGateway
	if appConfig.BillingConfigured() {
		stripeGateway, err := billing.NewStripeGateway(appConfig.StripeSecretKey, appConfig.StripeWebhookSecret)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Stripe", zap.Error(err))
		}
		gateway = stripeGateway
	} else {
		zapLogger.Warn("Stripe is not configured. Checkout will return BillingUnavailable.")
	}

	var publisher core.ActivityPublisher = core.NopPublisher{}
	if appConfig.AMQPURL != "" {
		mq, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: appConfig.AMQPURL}, zapLogger)
		if err != nil {
			zapLogger.Warn("RabbitMQ unavailable. Activity events are disabled.", zap.Error(err))
		} else {
			defer mq.Close()
			publisher = messagequeue.NewActivityPublisher(mq, appConfig.AMQPActivityQueue)
		}
	}

	limiter := newLimiter(initCtx, appConfig, zapLogger)

	overrides, err := core.LoadOverridePolicy(appConfig.EntitlementOverridesFile, appConfig.EntitlementProEmails)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load entitlement overrides", zap.Error(err))
	}

	// --- 6. Initialize Services ---
	userService := core.NewUserService(store.Users, zapLogger)
	entitlementService := core.NewEntitlementService(store.Users, store.Subscriptions, zapLogger,
		core.WithOverridePolicy(overrides))
	toolService := core.NewToolService(generator, store.History, zapLogger,
		core.WithGenerationTimeout(appConfig.LLMTimeout),
		core.WithActivityPublisher(publisher))
	billingService := core.NewBillingService(core.BillingDeps{
		Gateway:       gateway,
		PriceID:       appConfig.StripePriceID,
		Users:         store.Users,
		Subscriptions: store.Subscriptions,
		Publisher:     publisher,
		Logger:        zapLogger,
	})
	exportService := core.NewExportService(export.NewNotionExporter(), toolService, zapLogger)

	// --- 7. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger, middleware.SkipPaths("/health"), middleware.SlowRequestThreshold(30*time.Second)))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	// --- 9. Setup API Routes ---
	api.SetupRoutes(router, api.RouterDeps{
		Config:       appConfig,
		Logger:       zapLogger,
		Verifier:     firebaseClients.Auth,
		Limiter:      limiter,
		Users:        userService,
		Entitlements: entitlementService,
		Tools:        toolService,
		Billing:      billingService,
		Exports:      exportService,
	})

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Tool calls wait on the language model.
		WriteTimeout: appConfig.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	zapLogger.Info("Server exiting gracefully.")
}

func newLogger(ginMode string) (*zap.Logger, error) {
	if strings.ToLower(ginMode) == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newLimiter prefers the shared Redis limiter and falls back to a local one.
func newLimiter(ctx context.Context, appConfig *config.Config, logger *zap.Logger) ratelimit.Limiter {
	if appConfig.RateLimitPerMinute <= 0 {
		logger.Info("Tool rate limiting disabled.")
		return ratelimit.Unlimited{}
	}
	if appConfig.RedisAddr != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(ctx, ratelimit.NewRedisLimiterConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
			Limit:    appConfig.RateLimitPerMinute,
			Window:   time.Minute,
		}, logger)
		if err == nil {
			return redisLimiter
		}
		logger.Warn("Redis unavailable, using a process-local rate limiter", zap.Error(err))
	}
	return ratelimit.NewLocalLimiter(appConfig.RateLimitPerMinute, time.Minute)
}
