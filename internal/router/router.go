package router

import (
	"context"
	"time"

	"aish-backend/internal/handlers"
	"aish-backend/internal/metrics"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options are the dependencies of the HTTP API.
type Options struct {
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	Auth        handlers.AuthService
	Cases       handlers.CaseService
	Ping        func(context.Context) error
}

// New builds the gin engine serving the API under /api.
func New(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(ginzap.Ginzap(opts.Logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(opts.Logger, true))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	auth := handlers.NewAuthHandler(opts.Auth)
	cases := handlers.NewCaseHandler(opts.Cases)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health(opts.Ping))

		a := api.Group("/auth")
		a.GET("/doctors", auth.Doctors)
		a.POST("/register", auth.Register)
		a.POST("/login", auth.Login)

		api.GET("/cases", cases.List)
		api.POST("/cases", cases.Create)
		api.POST("/cases/sync", cases.Sync)
		api.GET("/cases/:id", cases.Get)
		api.PUT("/cases/:id", cases.Update)
		api.DELETE("/cases/:id", cases.Delete)

		api.GET("/stats", cases.Stats)
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	r.NoRoute(handlers.NotFound)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
