package api

import (
	"olimpiad/internal/metrics"
	"olimpiad/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const adminRole = "admin"

type Handlers struct {
	Feature  *FeatureHandler
	Olimpiad *OlimpiadHandler
	Stream   *StreamHandler
	Auth     *AuthHandler
	Upload   *UploadHandler
}

type RouterOptions struct {
	// TokenParser validates bearer tokens when AuthEnabled is set.
	TokenParser       middleware.TokenParser
	AuthEnabled       bool
	Redis             *redis.Client
	RequestsPerSecond int
}

func RegisterRoutes(h Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.CorsMiddleware(),
		middleware.RequestID(),
		middleware.TraceMiddleware(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
	)
	_ = r.SetTrustedProxies(nil)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if h.Upload != nil {
		r.Static(uploadsURLPrefix, h.Upload.Dir())
	}

	writeLimiter := middleware.RateLimitMiddleware(opts.Redis, opts.RequestsPerSecond)
	guard := []gin.HandlerFunc{
		middleware.JWTMiddleware(opts.TokenParser, opts.AuthEnabled),
		middleware.RequireRole(adminRole, opts.AuthEnabled),
	}

	api := r.Group("/api")
	{
		api.GET("/", h.Feature.Root)
		api.GET("/health", h.Feature.HealthCheck)
	}

	if h.Auth != nil {
		auth := api.Group("/auth")
		auth.POST("/login", writeLimiter, h.Auth.Login)
		auth.POST("/refresh", writeLimiter, h.Auth.Refresh)

		protected := auth.Group("")
		protected.Use(middleware.JWTMiddleware(opts.TokenParser, true))
		protected.GET("/me", h.Auth.GetProfile)
		protected.POST("/logout", h.Auth.Logout)
	}

	features := api.Group("/features")
	{
		features.GET("", h.Feature.ListFeatures)
		features.GET("/audits", h.Feature.ListAudits)
		features.GET("/snapshot", h.Stream.Snapshot)
		features.GET("/stream", h.Stream.WatchSchema)
		features.POST("", append(guard, writeLimiter, h.Feature.CreateFeature)...)
		features.DELETE("/:id", append(guard, writeLimiter, h.Feature.DeleteFeature)...)
	}

	olimpiads := api.Group("/olimpiads")
	{
		olimpiads.GET("", h.Olimpiad.List)
		olimpiads.POST("", writeLimiter, h.Olimpiad.Create)
		olimpiads.GET("/by-status/:status", h.Olimpiad.ListByStatus)
		olimpiads.GET("/:id", h.Olimpiad.Get)
		olimpiads.PUT("/:id", writeLimiter, h.Olimpiad.Update)
		olimpiads.DELETE("/:id", writeLimiter, h.Olimpiad.Delete)
		olimpiads.POST("/:id/dates", writeLimiter, h.Olimpiad.AppendDate)
		olimpiads.PUT("/:id/dynamic-feature/:feature_id", writeLimiter, h.Olimpiad.SetFeatureValue)
	}

	if h.Upload != nil {
		api.POST("/uploads", writeLimiter, h.Upload.Upload)
	}
	return r
}
