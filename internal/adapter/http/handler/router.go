package handler

import (
	"invite-escrow-ledger/internal/adapter/http/middleware"
	redisStore "invite-escrow-ledger/internal/adapter/storage/redis"
	"invite-escrow-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	EscrowSvc      ports.EscrowService
	AuthSvc        ports.AuthService
	ReportingSvc   ports.ReportingService
	SigSvc         ports.SignatureService
	NonceStore     ports.NonceStore
	TokenSvc       ports.TokenService
	HookSecret     string
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Hook-authenticated routes (asset-transfer hook) ---
	hookAuth := middleware.HookAuth(deps.HookSecret, deps.SigSvc, deps.NonceStore, deps.Logger)
	escrowHandler := NewEscrowHandler(deps.EscrowSvc)

	hooks := v1.Group("/hooks", hookAuth)
	{
		hooks.POST("/deposit", rl("hooks"), escrowHandler.DepositNotice)
	}

	escrowOps := v1.Group("/escrows", hookAuth)
	{
		escrowOps.POST("/redeem", rl("hooks"), escrowHandler.Redeem)
		escrowOps.POST("/revoke", rl("hooks"), escrowHandler.Revoke)
		escrowOps.POST("/revoke-all", rl("hooks"), escrowHandler.RevokeAll)
	}

	// --- JWT-authenticated routes (operator dashboard) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	dashboardHandler := NewDashboardHandler(deps.ReportingSvc)

	queries := v1.Group("/escrows", jwtAuth)
	{
		queries.GET("/inviters/:invitee", rl("queries"), escrowHandler.ListInviters)
		queries.GET("/invitees/:inviter", rl("queries"), escrowHandler.ListInvitees)
		queries.GET("/:inviter/:invitee/balance", rl("queries"), escrowHandler.GetBalance)
	}

	events := v1.Group("/events", jwtAuth)
	{
		events.GET("", rl("dashboard"), dashboardHandler.ListEvents)
	}

	dashboard := v1.Group("/dashboard", jwtAuth)
	{
		dashboard.GET("/stats", rl("dashboard"), dashboardHandler.GetStats)
	}

	return r
}
