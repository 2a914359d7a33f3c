package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/escrowservice"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/infrastructure/metrics"
	"github.com/crepmaster/pharmapp/internal/repositories/exchangerepo"
	"github.com/crepmaster/pharmapp/pkg/config"
)

// Sweeper cancels escrow holds that outlived the hold TTL. Items are processed
// sequentially and each failure is isolated; the expire idempotency key keeps
// overlapping runs from double-releasing a hold.
type Sweeper struct {
	db           database.Querier
	exchangeRepo exchangerepo.IExchangeRepository
	escrow       escrowservice.IEscrowService
	config       config.SweeperConfig
	logger       zerolog.Logger
}

func New(
	db database.Querier,
	exchangeRepo exchangerepo.IExchangeRepository,
	escrow escrowservice.IEscrowService,
	cfg config.SweeperConfig,
	logger zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		db:           db,
		exchangeRepo: exchangeRepo,
		escrow:       escrow,
		config:       cfg,
		logger:       logger,
	}
}

// Start blocks until ctx is canceled, sweeping on a fixed interval.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.config.Interval).Dur("hold_ttl", s.config.HoldTTL).Msg("Starting expiry sweeper")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			swept, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("Expiry sweep failed")
				continue
			}
			if swept > 0 {
				s.logger.Info().Int("swept", swept).Msg("Expiry sweep finished")
			}
		}
	}
}

// SweepOnce pages through stale hold_active exchanges and expires each one.
// Returns the number of holds successfully canceled.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.config.HoldTTL)
	swept := 0
	var cursor *exchangerepo.Cursor

	for {
		exchanges, err := s.exchangeRepo.ListExpiredHolds(ctx, s.db, cutoff, cursor, s.config.PageSize)
		if err != nil {
			return swept, fmt.Errorf("failed to list expired holds: %w", err)
		}
		if len(exchanges) == 0 {
			break
		}

		for _, ex := range exchanges {
			if err := s.escrow.Expire(ctx, ex.ID); err != nil {
				metrics.SweepErrorsTotal.Inc()
				s.logger.Error().Err(err).Str("exchange_id", ex.ID).Msg("Failed to expire hold")
				continue
			}
			metrics.SweptHoldsTotal.Inc()
			swept++
		}

		last := exchanges[len(exchanges)-1]
		cursor = &exchangerepo.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		if len(exchanges) < s.config.PageSize {
			break
		}
	}

	metrics.SweepRunsTotal.Inc()
	return swept, nil
}
