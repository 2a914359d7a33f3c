package main

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/application/authservice"
	"github.com/crepmaster/pharmapp/internal/application/escrowservice"
	"github.com/crepmaster/pharmapp/internal/application/idempotency"
	"github.com/crepmaster/pharmapp/internal/application/proposalservice"
	"github.com/crepmaster/pharmapp/internal/application/sweeper"
	"github.com/crepmaster/pharmapp/internal/application/walletservice"
	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/cache"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/deliveryrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/exchangerepo"
	"github.com/crepmaster/pharmapp/internal/repositories/idempotencyrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/inventoryrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/ledgerrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/paymentrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/proposalrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/walletrepo"
	"github.com/crepmaster/pharmapp/internal/server"
	"github.com/crepmaster/pharmapp/pkg/config"
	"github.com/crepmaster/pharmapp/pkg/logger"
)

// allowAllSubscriptions stands in until the subscription system exposes its
// eligibility endpoint.
type allowAllSubscriptions struct{}

func (allowAllSubscriptions) Eligible(context.Context, string) (bool, string, error) {
	return true, "active", nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithConfig(logger.Config{
		Level:  cfg.Logger.Level,
		Pretty: cfg.Logger.Pretty,
	})

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	var cacheStore cache.Store = cache.NewNop()
	if cfg.Redis.Addr != "" {
		walletCache, err := cache.New(&cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer walletCache.Close()
		cacheStore = walletCache
	}

	publisher := events.NewNop()
	if cfg.NATS.URL != "" {
		publisher, err = events.NewNATS(cfg.NATS.URL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
	}

	walletRepo := walletrepo.New(log)
	ledgerRepo := ledgerrepo.New(log)
	exchangeRepo := exchangerepo.New(log)
	proposalRepo := proposalrepo.New(log)
	deliveryRepo := deliveryrepo.New(log)
	inventoryRepo := inventoryrepo.New(log)
	paymentRepo := paymentrepo.New(log)
	idempotencyRepo := idempotencyrepo.New(log)

	guard := idempotency.NewGuard(db, idempotencyRepo, log)

	var subscriptions domain.SubscriptionValidator = allowAllSubscriptions{}

	escrowSvc := escrowservice.New(db.Pool, db, guard, walletRepo, exchangeRepo, ledgerRepo, publisher, cfg.Escrow, log)
	proposalSvc := proposalservice.New(db, proposalRepo, deliveryRepo, inventoryRepo, walletRepo, ledgerRepo, subscriptions, publisher, cfg.Escrow, log)
	walletSvc := walletservice.New(db.Pool, db, guard, walletRepo, ledgerRepo, paymentRepo, cacheStore, publisher, cfg, log)
	authSvc := authservice.NewAuthService(cfg, log)

	sweep := sweeper.New(db.Pool, exchangeRepo, escrowSvc, cfg.Sweeper, log)
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go func() {
		if err := sweep.Start(sweepCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Sweeper exited")
		}
	}()

	srv := server.New(cfg, escrowSvc, proposalSvc, walletSvc, authSvc, log)
	srv.Start()
}
