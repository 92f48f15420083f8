package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"example.com/storefront/internal/config"
	"example.com/storefront/internal/infra/apiclient"
	"example.com/storefront/internal/infra/persistence"
	"example.com/storefront/internal/infra/persistence/memory"
	"example.com/storefront/internal/infra/persistence/mysql"
	"example.com/storefront/internal/infra/persistence/postgres"
	redisstore "example.com/storefront/internal/infra/persistence/redis"
	"example.com/storefront/internal/infra/security"
	httpapi "example.com/storefront/internal/interface/http"
	authuc "example.com/storefront/internal/usecase/auth"
	cartuc "example.com/storefront/internal/usecase/cart"
	productuc "example.com/storefront/internal/usecase/product"
	"example.com/storefront/internal/usecase/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Error("open storage", slog.String("backend", cfg.StorageBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeBackend()
	logger.Info("storage ready", slog.String("backend", cfg.StorageBackend))

	store := persistence.NewStore(backend,
		persistence.WithTimeout(cfg.StorageTimeout),
		persistence.WithLogger(logger))

	client := apiclient.New(cfg.APIBaseURL, apiclient.Options{
		Timeout: cfg.APITimeout,
		Logger:  logger,
	})

	registry := session.NewRegistry(ctx, session.Deps{
		Carts:             apiclient.NewCartClient(client),
		Orders:            apiclient.NewOrderClient(client),
		Products:          productuc.NewService(apiclient.NewProductClient(client), cartuc.DefaultAttempts),
		Store:             store,
		Logger:            logger,
		GuestShippingCost: cfg.GuestShippingCost,
		Attempts:          cartuc.DefaultAttempts,
	})
	defer registry.Close()
	go registry.Run(ctx, cfg.SessionSweep, cfg.SessionIdleTimeout)

	tokenSvc := security.NewJWTService(cfg.JWTSecret, 24*time.Hour)
	api := httpapi.NewAPI(httpapi.Dependencies{
		Sessions:    registry,
		AuthService: authuc.NewService(tokenSvc),
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.APITimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr), slog.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
	}
}

// openBackend connects the configured storage and creates its table when it has one.
func openBackend(ctx context.Context, cfg *config.Config) (persistence.Backend, func(), error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.StorageBackend {
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return redisstore.NewBackend(client, "storefront:", cfg.RedisTTL), func() { _ = client.Close() }, nil

	case config.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql open: %w", err)
		}
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql ping: %w", err)
		}
		kv := mysql.NewKVStore(db)
		if err := kv.EnsureSchema(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return kv, func() { _ = db.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(pingCtx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pg connect: %w", err)
		}
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg ping: %w", err)
		}
		kv := postgres.NewKVStore(pool)
		if err := kv.EnsureSchema(pingCtx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return kv, pool.Close, nil

	default:
		return memory.NewBackend(), func() {}, nil
	}
}
