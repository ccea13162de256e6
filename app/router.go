// Package app wires the shared HTTP routes and middleware chain.
package app

import (
	"time"

	"github.com/dexten32/accuscanner/app/config"
	"github.com/dexten32/accuscanner/app/models"
	"github.com/dexten32/accuscanner/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP router. The scanner group enforces, in order:
// session auth, plan allow-list, then the per-plan rate limit. The ordering
// is deliberate: unauthenticated or forbidden callers must not consume rate
// budget, and a 403 always wins over a 429.
func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", Health)

	router.POST("/auth/register", Register)
	router.POST("/auth/login", Login)
	router.POST("/auth/logout", Logout)

	authed := auth.Middleware(cfg.Auth.JWTSecret)
	router.GET("/me", authed, Me)

	payment := router.Group("/payment", authed)
	payment.POST("/order", CreateOrder)
	payment.POST("/verify", VerifyPayment)

	limiter := NewRateLimiter()
	scanner := router.Group("/scanner",
		authed,
		auth.RequirePlan(models.PlanFree, models.PlanTrial, models.PlanPro),
	)
	scanner.POST("/run", RateLimitMiddleware(limiter), RunScanner)
	scanner.GET("/results", RateLimitMiddleware(limiter), GetScanResults)
	scanner.GET("/dates", RateLimitMiddleware(limiter), GetAvailableDates)
	// Status is polled while a run is in flight, so it skips the rate limit.
	scanner.GET("/status", GetRunStatus)

	return router, nil
}
