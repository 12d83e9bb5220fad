package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"ryven-shop/internal/config"
	"ryven-shop/internal/gateway"
	custommiddleware "ryven-shop/internal/middleware"
	"ryven-shop/internal/service"
	"ryven-shop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the collaborators built by main and shared by every request
type Deps struct {
	DB       *sql.DB
	Redis    *redis.Client // nil when no Redis host is configured
	Prober   gateway.Prober
	Objects  transport.ObjectStore
	Sessions *service.Registry
	Shop     *service.Storefront
	Tokens   *service.Tokens
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

// NewRouter builds the full route tree
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) chi.Router {
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Public routes
	transport.NewStatusHandler(deps.Prober, logger).RegisterRoutes(router)
	transport.NewStorageHandler(deps.Objects, logger).RegisterRoutes(router)

	limitCfg := custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit",
	}
	var limiter custommiddleware.Limiter
	if deps.Redis != nil {
		limiter = custommiddleware.NewRedisLimiter(deps.Redis, limitCfg)
	} else {
		limiter = custommiddleware.NewLocalLimiter(limitCfg)
	}

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(limiter, limitCfg, logger))

		transport.NewShopHandler(deps.Shop, logger).RegisterRoutes(r)

		// Admin console
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(custommiddleware.AuthMiddleware(deps.Tokens, logger))
			r.Use(custommiddleware.RequireAdmin(logger))

			transport.NewOrderHandler(deps.Sessions, logger).RegisterRoutes(r)
			transport.NewProductHandler(deps.Sessions, cfg.Storage.MaxImageBytes, logger).RegisterRoutes(r)
		})
	})

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
