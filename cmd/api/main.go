package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ryven-shop/internal/config"
	"ryven-shop/internal/database"
	"ryven-shop/internal/gateway"
	"ryven-shop/internal/inflight"
	"ryven-shop/internal/logger"
	"ryven-shop/internal/repository"
	"ryven-shop/internal/server"
	"ryven-shop/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

// newRedis returns nil when no Redis host is configured
func newRedis(cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable yet", zap.String("addr", client.Options().Addr), zap.Error(err))
	}
	return client
}

func newGuard(cfg config.InFlightConfig, client *redis.Client, log *zap.Logger) inflight.Guard {
	if cfg.Backend == "redis" {
		if client != nil {
			return inflight.NewRedis(client, "inflight", cfg.TTL, log)
		}
		log.Warn("In-flight backend is redis but no Redis host is configured, using local guard")
	}
	return inflight.NewLocal()
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting shop API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	db := dbService.DB()

	health := dbService.Health()
	log.Info("Database health check", zap.Any("health", health))

	// An unreachable store is not fatal; the console reports it and offers sample data
	if health["status"] == "up" {
		if err := database.RunMigrations(db, cfg.Storage.MigrationsPath, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		log.Info("Database migrations completed successfully")
	}

	tables := gateway.NewPostgres(db, gateway.ShopSchema)
	bucket, err := gateway.NewDiskBucket(cfg.Storage.Root, cfg.Storage.PublicBaseURL)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}

	orders := repository.NewOrderRepository(tables)
	products := repository.NewProductRepository(tables, bucket, repository.ImageStore{
		Bucket:       cfg.Storage.ImageBucket,
		CacheControl: cfg.Storage.CacheControl,
	})

	redisClient := newRedis(cfg.Redis, log)
	guard := newGuard(cfg.InFlight, redisClient, log)

	sessions := service.NewRegistry(service.SessionDeps{
		Orders:   orders,
		Products: products,
		Guard:    guard,
		Catalog:  service.CatalogOptions{MaxImageBytes: cfg.Storage.MaxImageBytes},
		Logger:   log,
	}, cfg.Session.IdleTTL)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	srv := server.NewServer(cfg, log, server.Deps{
		DB:       db,
		Redis:    redisClient,
		Prober:   tables,
		Objects:  bucket,
		Sessions: sessions,
		Shop:     service.NewStorefront(products, orders, log),
		Tokens:   service.NewTokens(cfg.JWT.Secret),
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
