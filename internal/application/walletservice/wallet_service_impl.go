package walletservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/idempotency"
	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/cache"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/ledgerrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/paymentrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/walletrepo"
	"github.com/crepmaster/pharmapp/pkg/config"
)

type walletService struct {
	db          database.Querier
	runner      database.TxRunner
	guard       *idempotency.Guard
	walletRepo  walletrepo.IWalletRepository
	ledgerRepo  ledgerrepo.ILedgerRepository
	paymentRepo paymentrepo.IPaymentRepository
	cache       cache.Store
	publisher   events.Publisher
	config      *config.Config
	logger      zerolog.Logger
}

func New(
	db database.Querier,
	runner database.TxRunner,
	guard *idempotency.Guard,
	walletRepo walletrepo.IWalletRepository,
	ledgerRepo ledgerrepo.ILedgerRepository,
	paymentRepo paymentrepo.IPaymentRepository,
	cacheStore cache.Store,
	publisher events.Publisher,
	cfg *config.Config,
	logger zerolog.Logger,
) IWalletService {
	return &walletService{
		db:          db,
		runner:      runner,
		guard:       guard,
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		paymentRepo: paymentRepo,
		cache:       cacheStore,
		publisher:   publisher,
		config:      cfg,
		logger:      logger,
	}
}

func (s *walletService) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if wallet := s.cache.Get(ctx, userID); wallet != nil {
		return wallet, nil
	}

	wallet, err := s.walletRepo.Get(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound(userID)
	}

	s.cache.Set(ctx, wallet)
	return wallet, nil
}

func (s *walletService) ListLedger(ctx context.Context, userID string, limit, offset int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.ledgerRepo.ListByUser(ctx, s.db, userID, limit, offset)
}

func (s *walletService) CreateTopupIntent(ctx context.Context, req domain.TopupRequest) (*domain.Payment, error) {
	details := map[string]any{}
	if req.UserID == "" {
		details["userId"] = "required"
	}
	if req.Amount <= 0 {
		details["amount"] = "must be positive"
	}
	if req.Method != string(domain.ProviderMomo) && req.Method != string(domain.ProviderOrange) {
		details["method"] = "must be mtn_momo or orange_money"
	}
	if len(details) > 0 {
		return nil, domain.ErrValidation("invalid topup request", details)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.Escrow.DefaultCurrency
	}

	payment := &domain.Payment{
		ID:       uuid.NewString(),
		UserID:   req.UserID,
		Method:   req.Method,
		Amount:   req.Amount,
		Currency: currency,
		MSISDN:   req.MSISDN,
		Status:   domain.PaymentPending,
	}
	err := s.runner.WithinTx(ctx, func(q database.Querier) error {
		return s.paymentRepo.CreateIntent(ctx, q, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("payment_id", payment.ID).Str("user_id", req.UserID).Int64("amount", req.Amount).Msg("Topup intent created")
	return payment, nil
}

func (s *walletService) SandboxCredit(ctx context.Context, req domain.SandboxCreditRequest) (*domain.Wallet, error) {
	if s.config.IsProduction() {
		return nil, domain.ErrPermissionDenied("sandbox credit is disabled in production")
	}

	details := map[string]any{}
	if req.UserID == "" {
		details["userId"] = "required"
	}
	if req.Amount <= 0 {
		details["amount"] = "must be positive"
	}
	if req.Amount > s.config.Escrow.MaxSandboxCredit {
		details["amount"] = fmt.Sprintf("must not exceed %d", s.config.Escrow.MaxSandboxCredit)
	}
	if len(details) > 0 {
		return nil, domain.ErrValidation("invalid sandbox credit request", details)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.Escrow.DefaultCurrency
	}

	var wallet *domain.Wallet
	err := s.runner.WithinTx(ctx, func(q database.Querier) error {
		existing, err := s.walletRepo.GetForUpdate(ctx, q, req.UserID)
		if err != nil {
			return err
		}
		if err := s.walletRepo.Credit(ctx, q, req.UserID, domain.BalanceAvailable, req.Amount, currency); err != nil {
			return err
		}

		entry := &domain.LedgerEntry{
			UserID:   req.UserID,
			Type:     domain.LedgerSandboxCredit,
			Amount:   req.Amount,
			Currency: currency,
			From:     "sandbox",
			To:       req.UserID,
		}
		if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
			return err
		}

		if existing == nil {
			wallet = &domain.Wallet{UserID: req.UserID, Available: req.Amount, Currency: currency}
		} else {
			credited := *existing
			credited.Available += req.Amount
			wallet = &credited
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, req.UserID)
	s.publisher.Publish(events.SubjectWalletCredited, wallet)
	s.logger.Info().Str("user_id", req.UserID).Int64("amount", req.Amount).Msg("Sandbox credit applied")
	return wallet, nil
}

func (s *walletService) ProcessWebhook(ctx context.Context, notice domain.WebhookNotice, headers, payload json.RawMessage) (bool, error) {
	if notice.ProviderTxnID == "" {
		return false, domain.ErrValidation("invalid webhook payload", map[string]any{"providerTxnId": "required"})
	}

	var creditedUser string
	key := idempotency.Key(string(notice.Provider), notice.ProviderTxnID)
	executed, err := s.guard.Run(ctx, key, func(ctx context.Context) error {
		return s.runner.WithinTx(ctx, func(q database.Querier) error {
			var payment *domain.Payment
			if notice.PaymentID != "" {
				var err error
				payment, err = s.paymentRepo.GetForUpdate(ctx, q, notice.PaymentID)
				if err != nil {
					return err
				}
			}

			userID := ""
			amount := notice.Amount
			currency := notice.Currency
			if payment != nil {
				userID = payment.UserID
				if amount <= 0 {
					amount = payment.Amount
				}
				if currency == "" {
					currency = payment.Currency
				}
			}
			if currency == "" {
				currency = s.config.Escrow.DefaultCurrency
			}

			paymentID := notice.PaymentID
			if paymentID == "" {
				paymentID = notice.ProviderTxnID
			}

			event := &domain.WebhookEvent{
				ID:            uuid.NewString(),
				Provider:      notice.Provider,
				ProviderTxnID: notice.ProviderTxnID,
				PaymentID:     paymentID,
				Headers:       headers,
				Payload:       payload,
				ExpireAt:      time.Now().Add(s.config.Webhooks.LogRetention),
			}
			if err := s.paymentRepo.LogWebhook(ctx, q, event); err != nil {
				return err
			}

			succeeded := &domain.Payment{
				ID:         paymentID,
				UserID:     userID,
				Method:     string(notice.Provider),
				Amount:     amount,
				Currency:   currency,
				GatewayRef: notice.ProviderTxnID,
			}
			if err := s.paymentRepo.UpsertSucceeded(ctx, q, succeeded); err != nil {
				return err
			}

			// Credit only when the callback resolves to a user and a positive
			// amount; otherwise the log and payment rows are all we keep.
			if userID == "" || amount <= 0 {
				s.logger.Warn().
					Str("provider", string(notice.Provider)).
					Str("provider_txn_id", notice.ProviderTxnID).
					Msg("Webhook did not resolve to a creditable wallet")
				return nil
			}

			if err := s.walletRepo.Credit(ctx, q, userID, domain.BalanceAvailable, amount, currency); err != nil {
				return err
			}
			entry := &domain.LedgerEntry{
				UserID:    userID,
				Type:      domain.LedgerTopup,
				Amount:    amount,
				Currency:  currency,
				From:      string(notice.Provider),
				To:        userID,
				PaymentID: paymentID,
				Provider:  string(notice.Provider),
			}
			if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
				return err
			}
			creditedUser = userID
			return nil
		})
	})
	if err != nil {
		return executed, err
	}

	if executed && creditedUser != "" {
		s.cache.Invalidate(ctx, creditedUser)
		s.publisher.Publish(events.SubjectWalletCredited, map[string]any{
			"userId":   creditedUser,
			"amount":   notice.Amount,
			"provider": notice.Provider,
		})
	}
	return executed, nil
}
