package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/h2ledger/h2ledger/internal/config"
	"github.com/h2ledger/h2ledger/internal/infra"
	"github.com/h2ledger/h2ledger/internal/ledger"
	"github.com/h2ledger/h2ledger/internal/logging"
	"github.com/h2ledger/h2ledger/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		logger.Warn("no DATABASE_URL, using in-memory stores")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	} else {
		logger.Warn("no REDIS_URL, using in-memory challenge store")
	}

	var chain ledger.Ledger
	if cfg.ChainRPCURL != "" {
		client, err := infra.NewEthereumClient(ctx, cfg.ChainRPCURL)
		if err != nil {
			logger.Error("connect chain rpc", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		chain, err = ledger.NewEthereum(ctx, client, cfg.ContractAddress, cfg.OwnerPrivateKey, cfg.LedgerTimeout, logger)
		if err != nil {
			logger.Error("bind credits contract", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("no CHAIN_RPC_URL, using in-memory ledger")
	}

	srv, err := server.New(cfg, db, cache, chain, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
