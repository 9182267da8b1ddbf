package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lyra-backend-go/internal/config"
	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/middleware"
	"lyra-backend-go/pkg/ratelimit"
)

// RouterDeps are the collaborators needed to serve the API.
type RouterDeps struct {
	Config       *config.Config
	Logger       *zap.Logger
	Verifier     middleware.TokenVerifier
	Limiter      ratelimit.Limiter // nil disables tool rate limiting
	Users        core.UserService
	Entitlements core.EntitlementService
	Tools        core.ToolService
	Billing      core.BillingService
	Exports      core.ExportService
}

// SetupRoutes registers every route on router. Global middleware (request id,
// logging, recovery, CORS) is applied by the caller.
func SetupRoutes(router *gin.Engine, deps RouterDeps) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(core.JSONFieldName)
	}

	authMW := middleware.NewAuthMiddleware(deps.Verifier, deps.Logger)
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	subscriptionHandler := NewSubscriptionHandler(deps.Entitlements, deps.Logger)
	toolHandler := NewToolHandler(deps.Tools, deps.Logger)
	historyHandler := NewHistoryHandler(deps.Tools, deps.Logger)
	billingHandler := NewBillingHandler(deps.Billing, deps.Logger)
	exportHandler := NewExportHandler(deps.Exports, deps.Logger)
	statusHandler := NewStatusHandler(deps.Config, deps.Billing)

	router.GET("/health", Health)

	apiGroup := router.Group("/api")

	public := apiGroup.Group("/public")
	{
		public.GET("/status", statusHandler.Status)
		public.POST("/billing/webhook", billingHandler.HandleWebhook)
	}

	protected := apiGroup.Group("", authMW.VerifyToken(), PrincipalLoader(deps.Users, deps.Logger))
	{
		protected.GET("/subscription", subscriptionHandler.GetSubscription)
		protected.POST("/create-subscription", billingHandler.CreateSubscription)

		protected.GET("/history", historyHandler.ListHistory)
		protected.POST("/history", historyHandler.RecordHistory)

		protected.POST("/export/notion", exportHandler.ExportNotion)

		tools := protected.Group("/tools", middleware.RateLimit(limiter, principalRateKey, time.Minute, deps.Logger))
		{
			tools.POST("/proposal", toolHandler.Proposal)
			tools.POST("/email", toolHandler.Email)
			tools.POST("/pricing", toolHandler.Pricing)
			tools.POST("/contract", toolHandler.Contract)
			tools.POST("/brief", toolHandler.Brief)
			tools.POST("/onboarding", toolHandler.Onboarding)
		}
	}

	deps.Logger.Info("API routes configured under /api and /health.")
}
