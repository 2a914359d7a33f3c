package escrowservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/idempotency"
	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/exchangerepo"
	"github.com/crepmaster/pharmapp/internal/repositories/ledgerrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/walletrepo"
	"github.com/crepmaster/pharmapp/pkg/config"
)

const escrowParty = "escrow"

type escrowService struct {
	db           database.Querier
	runner       database.TxRunner
	guard        *idempotency.Guard
	walletRepo   walletrepo.IWalletRepository
	exchangeRepo exchangerepo.IExchangeRepository
	ledgerRepo   ledgerrepo.ILedgerRepository
	publisher    events.Publisher
	config       config.EscrowConfig
	logger       zerolog.Logger
}

func New(
	db database.Querier,
	runner database.TxRunner,
	guard *idempotency.Guard,
	walletRepo walletrepo.IWalletRepository,
	exchangeRepo exchangerepo.IExchangeRepository,
	ledgerRepo ledgerrepo.ILedgerRepository,
	publisher events.Publisher,
	cfg config.EscrowConfig,
	logger zerolog.Logger,
) IEscrowService {
	return &escrowService{
		db:           db,
		runner:       runner,
		guard:        guard,
		walletRepo:   walletRepo,
		exchangeRepo: exchangeRepo,
		ledgerRepo:   ledgerRepo,
		publisher:    publisher,
		config:       cfg,
		logger:       logger,
	}
}

// holdKey prefers the exchange ID, then a caller-supplied key, then the
// composite of the hold parameters, so client retries without an ID still
// deduplicate.
func holdKey(req domain.CreateHoldRequest) string {
	switch {
	case req.ExchangeID != "":
		return idempotency.Key("hold", req.ExchangeID)
	case req.IdempotencyKey != "":
		return idempotency.Key("hold", req.IdempotencyKey)
	default:
		return idempotency.Key("hold", fmt.Sprintf("%s:%s:%d:%s", req.AID, req.BID, req.CourierFee, req.Currency))
	}
}

func (s *escrowService) CreateHold(ctx context.Context, req domain.CreateHoldRequest) (*domain.Exchange, bool, error) {
	details := map[string]any{}
	if req.AID == "" {
		details["aId"] = "required"
	}
	if req.BID == "" {
		details["bId"] = "required"
	}
	if req.AID != "" && req.AID == req.BID {
		details["bId"] = "must differ from aId"
	}
	if req.CourierFee <= 0 {
		details["courierFee"] = "must be positive"
	}
	if len(details) > 0 {
		return nil, false, domain.ErrValidation("invalid hold request", details)
	}
	if req.Currency == "" {
		req.Currency = s.config.DefaultCurrency
	}

	exchangeID := req.ExchangeID
	if exchangeID == "" {
		exchangeID = uuid.NewString()
	}
	halfA, halfB := domain.SplitCourierFee(req.CourierFee)

	var exchange *domain.Exchange
	executed, err := s.guard.Run(ctx, holdKey(req), func(ctx context.Context) error {
		return s.runner.WithinTx(ctx, func(q database.Querier) error {
			walletA, walletB, err := s.walletRepo.GetPairForUpdate(ctx, q, req.AID, req.BID)
			if err != nil {
				return err
			}
			if walletA == nil {
				return domain.ErrWalletNotFound(req.AID)
			}
			if walletB == nil {
				return domain.ErrWalletNotFound(req.BID)
			}
			if walletA.Available < halfA {
				return domain.ErrInsufficientFunds(fmt.Sprintf("pharmacy %s has %d available, hold requires %d", req.AID, walletA.Available, halfA))
			}
			if walletB.Available < halfB {
				return domain.ErrInsufficientFunds(fmt.Sprintf("pharmacy %s has %d available, hold requires %d", req.BID, walletB.Available, halfB))
			}

			if err := s.walletRepo.Shift(ctx, q, req.AID, domain.BalanceAvailable, domain.BalanceHeld, halfA); err != nil {
				return err
			}
			if err := s.walletRepo.Shift(ctx, q, req.BID, domain.BalanceAvailable, domain.BalanceHeld, halfB); err != nil {
				return err
			}

			exchange = &domain.Exchange{
				ID:         exchangeID,
				AID:        req.AID,
				BID:        req.BID,
				CourierFee: req.CourierFee,
				HoldA:      halfA,
				HoldB:      halfB,
				Currency:   req.Currency,
				Status:     domain.ExchangeHoldActive,
			}
			if err := s.exchangeRepo.Create(ctx, q, exchange); err != nil {
				return err
			}

			return s.appendHoldEntries(ctx, q, exchange)
		})
	})
	if err != nil {
		return nil, false, err
	}
	if !executed {
		existing, err := s.exchangeRepo.Get(ctx, s.db, req.ExchangeID)
		if err != nil {
			s.logger.Warn().Err(err).Str("exchange_id", req.ExchangeID).Msg("Failed to load exchange for replayed hold")
		}
		return existing, false, nil
	}

	s.publisher.Publish(events.SubjectHoldCreated, exchange)
	s.logger.Info().Str("exchange_id", exchange.ID).Int64("courier_fee", exchange.CourierFee).Msg("Escrow hold created")
	return exchange, true, nil
}

func (s *escrowService) appendHoldEntries(ctx context.Context, q database.Querier, ex *domain.Exchange) error {
	for _, leg := range []struct {
		userID string
		amount int64
	}{{ex.AID, ex.HoldA}, {ex.BID, ex.HoldB}} {
		entry := &domain.LedgerEntry{
			UserID:     leg.userID,
			Type:       domain.LedgerHold,
			Amount:     leg.amount,
			Currency:   ex.Currency,
			From:       leg.userID,
			To:         escrowParty,
			ExchangeID: ex.ID,
		}
		if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *escrowService) Capture(ctx context.Context, req domain.CaptureRequest) (*domain.Exchange, error) {
	details := map[string]any{}
	if req.ExchangeID == "" {
		details["exchangeId"] = "required"
	}
	if req.CourierID == "" {
		details["courierId"] = "required"
	}
	if req.SaleAmount > 0 {
		if req.SellerID == "" {
			details["sellerId"] = "required when saleAmount is set"
		}
		if req.BuyerID == "" {
			details["buyerId"] = "required when saleAmount is set"
		}
		if req.SellerID != "" && req.SellerID == req.BuyerID {
			details["buyerId"] = "must differ from sellerId"
		}
	}
	if len(details) > 0 {
		return nil, domain.ErrValidation("invalid capture request", details)
	}

	var exchange *domain.Exchange
	executed, err := s.guard.Run(ctx, idempotency.Key("capture", req.ExchangeID), func(ctx context.Context) error {
		return s.runner.WithinTx(ctx, func(q database.Querier) error {
			ex, err := s.exchangeRepo.GetForUpdate(ctx, q, req.ExchangeID)
			if err != nil {
				return err
			}
			if ex == nil {
				return domain.ErrExchangeNotFound(req.ExchangeID)
			}
			if ex.Status != domain.ExchangeHoldActive {
				return domain.ErrExchangeInvalidStatus(ex.Status, domain.ExchangeHoldActive)
			}

			walletA, walletB, err := s.walletRepo.GetPairForUpdate(ctx, q, ex.AID, ex.BID)
			if err != nil {
				return err
			}
			if walletA == nil {
				return domain.ErrWalletNotFound(ex.AID)
			}
			if walletB == nil {
				return domain.ErrWalletNotFound(ex.BID)
			}
			if walletA.Held < ex.HoldA {
				return domain.ErrInsufficientFunds(fmt.Sprintf("pharmacy %s holds %d, exchange recorded %d", ex.AID, walletA.Held, ex.HoldA))
			}
			if walletB.Held < ex.HoldB {
				return domain.ErrInsufficientFunds(fmt.Sprintf("pharmacy %s holds %d, exchange recorded %d", ex.BID, walletB.Held, ex.HoldB))
			}

			if req.SaleAmount > 0 {
				buyer, err := s.walletRepo.GetForUpdate(ctx, q, req.BuyerID)
				if err != nil {
					return err
				}
				if buyer == nil {
					return domain.ErrWalletNotFound(req.BuyerID)
				}
				if buyer.Available < req.SaleAmount {
					return domain.ErrInsufficientFunds(fmt.Sprintf("buyer %s has %d available, sale requires %d", req.BuyerID, buyer.Available, req.SaleAmount))
				}
			}

			if err := s.walletRepo.Debit(ctx, q, ex.AID, domain.BalanceHeld, ex.HoldA); err != nil {
				return err
			}
			if err := s.walletRepo.Debit(ctx, q, ex.BID, domain.BalanceHeld, ex.HoldB); err != nil {
				return err
			}
			if err := s.walletRepo.Credit(ctx, q, req.CourierID, domain.BalanceAvailable, ex.CourierFee, ex.Currency); err != nil {
				return err
			}

			entries := []*domain.LedgerEntry{
				{UserID: ex.AID, Type: domain.LedgerHoldRelease, Amount: ex.HoldA, Currency: ex.Currency, From: escrowParty, To: ex.AID, ExchangeID: ex.ID, Reason: "captured"},
				{UserID: ex.BID, Type: domain.LedgerHoldRelease, Amount: ex.HoldB, Currency: ex.Currency, From: escrowParty, To: ex.BID, ExchangeID: ex.ID, Reason: "captured"},
				{UserID: req.CourierID, Type: domain.LedgerCourierPayment, Amount: ex.CourierFee, Currency: ex.Currency, From: escrowParty, To: req.CourierID, ExchangeID: ex.ID},
			}

			if req.SaleAmount > 0 {
				if err := s.walletRepo.Debit(ctx, q, req.BuyerID, domain.BalanceAvailable, req.SaleAmount); err != nil {
					return err
				}
				if err := s.walletRepo.Credit(ctx, q, req.SellerID, domain.BalanceAvailable, req.SaleAmount, ex.Currency); err != nil {
					return err
				}
				entries = append(entries,
					&domain.LedgerEntry{UserID: req.BuyerID, Type: domain.LedgerPurchase, Amount: req.SaleAmount, Currency: ex.Currency, From: req.BuyerID, To: req.SellerID, ExchangeID: ex.ID},
					&domain.LedgerEntry{UserID: req.SellerID, Type: domain.LedgerSale, Amount: req.SaleAmount, Currency: ex.Currency, From: req.BuyerID, To: req.SellerID, ExchangeID: ex.ID},
				)
			}

			for _, entry := range entries {
				if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
					return err
				}
			}

			ex.Status = domain.ExchangeCompleted
			ex.CourierID = req.CourierID
			ex.SaleAmount = req.SaleAmount
			ex.SellerID = req.SellerID
			ex.BuyerID = req.BuyerID
			if err := s.exchangeRepo.MarkCompleted(ctx, q, ex); err != nil {
				return err
			}
			exchange = ex
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !executed {
		return s.exchangeRepo.Get(ctx, s.db, req.ExchangeID)
	}

	s.publisher.Publish(events.SubjectCaptured, exchange)
	s.logger.Info().Str("exchange_id", exchange.ID).Str("courier_id", req.CourierID).Msg("Escrow hold captured")
	return exchange, nil
}

func (s *escrowService) Cancel(ctx context.Context, req domain.CancelRequest) (*domain.Exchange, error) {
	if req.ExchangeID == "" {
		return nil, domain.ErrValidation("invalid cancel request", map[string]any{"exchangeId": "required"})
	}
	reason := req.Reason
	if reason == "" {
		reason = "expired"
	}
	return s.cancelUnderKey(ctx, idempotency.Key("cancel", req.ExchangeID), req.ExchangeID, reason)
}

func (s *escrowService) Expire(ctx context.Context, exchangeID string) error {
	_, err := s.cancelUnderKey(ctx, idempotency.Key("expire", exchangeID), exchangeID, "expired")
	return err
}

func (s *escrowService) cancelUnderKey(ctx context.Context, key, exchangeID, reason string) (*domain.Exchange, error) {
	var exchange *domain.Exchange
	var canceled bool
	executed, err := s.guard.Run(ctx, key, func(ctx context.Context) error {
		return s.runner.WithinTx(ctx, func(q database.Querier) error {
			ex, err := s.exchangeRepo.GetForUpdate(ctx, q, exchangeID)
			if err != nil {
				return err
			}
			if ex == nil {
				return domain.ErrExchangeNotFound(exchangeID)
			}
			exchange = ex
			if ex.Status != domain.ExchangeHoldActive {
				// Already terminal. Cancellation is idempotent at the business
				// level on top of the key-level guard.
				return nil
			}

			walletA, walletB, err := s.walletRepo.GetPairForUpdate(ctx, q, ex.AID, ex.BID)
			if err != nil {
				return err
			}
			if walletA == nil {
				return domain.ErrWalletNotFound(ex.AID)
			}
			if walletB == nil {
				return domain.ErrWalletNotFound(ex.BID)
			}
			if walletA.Held < ex.HoldA {
				return domain.ErrHeldMismatch(ex.AID)
			}
			if walletB.Held < ex.HoldB {
				return domain.ErrHeldMismatch(ex.BID)
			}

			if err := s.walletRepo.Shift(ctx, q, ex.AID, domain.BalanceHeld, domain.BalanceAvailable, ex.HoldA); err != nil {
				return err
			}
			if err := s.walletRepo.Shift(ctx, q, ex.BID, domain.BalanceHeld, domain.BalanceAvailable, ex.HoldB); err != nil {
				return err
			}

			for _, leg := range []struct {
				userID string
				amount int64
			}{{ex.AID, ex.HoldA}, {ex.BID, ex.HoldB}} {
				entry := &domain.LedgerEntry{
					UserID:     leg.userID,
					Type:       domain.LedgerHoldRelease,
					Amount:     leg.amount,
					Currency:   ex.Currency,
					From:       escrowParty,
					To:         leg.userID,
					ExchangeID: ex.ID,
					Reason:     reason,
				}
				if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
					return err
				}
			}

			if err := s.exchangeRepo.MarkCanceled(ctx, q, ex.ID, reason); err != nil {
				return err
			}
			ex.Status = domain.ExchangeCanceled
			ex.CancelReason = reason
			canceled = true
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !executed {
		return s.exchangeRepo.Get(ctx, s.db, exchangeID)
	}

	if canceled {
		s.publisher.Publish(events.SubjectCanceled, exchange)
		s.logger.Info().Str("exchange_id", exchangeID).Str("reason", reason).Msg("Escrow hold canceled")
	}
	return exchange, nil
}
