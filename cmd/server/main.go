package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/rcauth-eu/keyportal/internal/app/httpapi"
	"github.com/rcauth-eu/keyportal/internal/audit"
	"github.com/rcauth-eu/keyportal/internal/auth"
	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	"github.com/rcauth-eu/keyportal/internal/infra/config"
	"github.com/rcauth-eu/keyportal/internal/infra/persistence"
	"github.com/rcauth-eu/keyportal/internal/infra/ratelimit"
	"github.com/rcauth-eu/keyportal/internal/logging"
	"github.com/rcauth-eu/keyportal/internal/service"
)

func main() {
	logger := slog.New(logging.NewContextHandler(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := config.Load(os.Getenv("KEYPORTAL_CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		keys         domain.KeyRepository
		transactions domain.TransactionStore
		clients      domain.ClientStore
		health       func(context.Context) error
	)
	if cfg.Server.Mode == "development" {
		// No database in development mode; everything lives in memory,
		// seeded with one transaction and one client for smoke testing.
		keys = persistence.NewMemoryKeyStore()
		devToken := domain.AccessToken(fmt.Sprintf("https://localhost/devtoken/%d", time.Now().UnixMilli()))
		txStore := persistence.NewMemoryTransactionStore()
		txStore.Put(&domain.Transaction{
			Token:            devToken,
			ClientID:         "dev-client",
			Username:         "developer",
			AccessTokenValid: true,
		})
		transactions = txStore
		clientStore := persistence.NewMemoryClientStore()
		clientStore.Put(&domain.Client{
			ID:           "dev-client",
			SecretDigest: auth.SHA1Hex("dev-secret"),
			Approved:     true,
		})
		clients = clientStore
		logger.Info("development stores seeded",
			"token", string(devToken), "client_id", "dev-client", "client_secret", "dev-secret")
	} else {
		pool, err := persistence.NewPool(ctx, cfg.Database, cfg.Server)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		keys = persistence.NewKeyStore(pool, logger)
		transactions = persistence.NewTransactionStore(pool)
		cached := persistence.NewCachedClientStore(persistence.NewClientStore(pool))
		defer cached.Close()
		clients = cached
		health = func(ctx context.Context) error { return persistence.Health(ctx, pool) }
	}

	registry := service.NewRegistry(keys, cfg.Registry.MaxKeys, audit.NewStructuredLogger(logger), logger)
	gate := auth.NewTokenGate(transactions, cfg.Token.Lifetime, logger)
	resolver := auth.NewCredentialResolver(clients, nil, logger)
	handler := httpapi.NewHandler(gate, resolver, registry, apperrors.NewClassifier(logger), health, logger)

	limiter := ratelimit.Unlimited
	if cfg.Server.RateLimiter.Enabled {
		limiter = ratelimit.New(rate.Limit(cfg.Server.RateLimiter.Rate), cfg.Server.RateLimiter.Burst)
	}

	server := httpapi.NewServer(cfg.Server, handler.Routes(limiter), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
