package proposalservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/deliveryrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/inventoryrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/ledgerrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/proposalrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/walletrepo"
	"github.com/crepmaster/pharmapp/pkg/config"
)

const escrowParty = "escrow"

type proposalService struct {
	runner        database.TxRunner
	proposalRepo  proposalrepo.IProposalRepository
	deliveryRepo  deliveryrepo.IDeliveryRepository
	inventoryRepo inventoryrepo.IInventoryRepository
	walletRepo    walletrepo.IWalletRepository
	ledgerRepo    ledgerrepo.ILedgerRepository
	subscriptions domain.SubscriptionValidator
	publisher     events.Publisher
	config        config.EscrowConfig
	logger        zerolog.Logger
}

func New(
	runner database.TxRunner,
	proposalRepo proposalrepo.IProposalRepository,
	deliveryRepo deliveryrepo.IDeliveryRepository,
	inventoryRepo inventoryrepo.IInventoryRepository,
	walletRepo walletrepo.IWalletRepository,
	ledgerRepo ledgerrepo.ILedgerRepository,
	subscriptions domain.SubscriptionValidator,
	publisher events.Publisher,
	cfg config.EscrowConfig,
	logger zerolog.Logger,
) IProposalService {
	return &proposalService{
		runner:        runner,
		proposalRepo:  proposalRepo,
		deliveryRepo:  deliveryRepo,
		inventoryRepo: inventoryRepo,
		walletRepo:    walletRepo,
		ledgerRepo:    ledgerRepo,
		subscriptions: subscriptions,
		publisher:     publisher,
		config:        cfg,
		logger:        logger,
	}
}

func validateCreate(actorID string, req domain.CreateProposalRequest) map[string]any {
	details := map[string]any{}
	if req.ToPharmacyID == "" {
		details["toPharmacyId"] = "required"
	}
	if req.ToPharmacyID == actorID {
		details["toPharmacyId"] = "cannot propose to yourself"
	}
	if req.InventoryItemID == "" {
		details["inventoryItemId"] = "required"
	}
	if req.Quantity <= 0 {
		details["quantity"] = "must be positive"
	}
	switch req.Type {
	case domain.ProposalPurchase:
		if req.TotalPrice <= 0 {
			details["totalPrice"] = "must be positive"
		}
	case domain.ProposalExchange:
		if req.ExchangeInventoryItemID == "" {
			details["exchangeInventoryItemId"] = "required"
		}
		if req.ExchangeQuantity <= 0 {
			details["exchangeQuantity"] = "must be positive"
		}
	default:
		details["type"] = "must be purchase or exchange"
	}
	return details
}

func (s *proposalService) Create(ctx context.Context, actorID string, req domain.CreateProposalRequest) (*domain.Proposal, error) {
	if details := validateCreate(actorID, req); len(details) > 0 {
		return nil, domain.ErrValidation("invalid proposal request", details)
	}

	eligible, status, err := s.subscriptions.Eligible(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if !eligible {
		return nil, domain.ErrSubscriptionRequired(status)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	proposal := &domain.Proposal{
		ID:              uuid.NewString(),
		FromPharmacyID:  actorID,
		ToPharmacyID:    req.ToPharmacyID,
		InventoryItemID: req.InventoryItemID,
		Details: domain.ProposalDetails{
			Type:                    req.Type,
			Quantity:                req.Quantity,
			TotalPrice:              req.TotalPrice,
			Currency:                currency,
			ExchangeInventoryItemID: req.ExchangeInventoryItemID,
			ExchangeQuantity:        req.ExchangeQuantity,
			Notes:                   req.Notes,
		},
		Status:    domain.ProposalStatusPending,
		ExpiresAt: time.Now().Add(s.config.ProposalTTL),
	}

	err = s.runner.WithinTx(ctx, func(q database.Querier) error {
		target, err := s.inventoryRepo.GetForUpdate(ctx, q, req.InventoryItemID)
		if err != nil {
			return err
		}
		if target == nil || target.PharmacyID != req.ToPharmacyID {
			return domain.ErrInventoryNotFound(req.InventoryItemID)
		}
		if target.Expired(time.Now()) {
			return domain.ErrInventoryExpired(target.ID)
		}
		if target.AvailableQuantity < req.Quantity {
			return domain.ErrInsufficientQuantity(target.AvailableQuantity, req.Quantity)
		}

		switch req.Type {
		case domain.ProposalPurchase:
			wallet, err := s.walletRepo.GetForUpdate(ctx, q, actorID)
			if err != nil {
				return err
			}
			if wallet == nil {
				return domain.ErrWalletNotFound(actorID)
			}
			if wallet.Available < req.TotalPrice {
				return domain.ErrInsufficientFunds(fmt.Sprintf("pharmacy %s has %d available, proposal requires %d", actorID, wallet.Available, req.TotalPrice))
			}
			if err := s.walletRepo.Shift(ctx, q, actorID, domain.BalanceAvailable, domain.BalanceHeld, req.TotalPrice); err != nil {
				return err
			}
			reserved := req.TotalPrice
			proposal.Reservations.WalletReserved = &reserved

			entry := &domain.LedgerEntry{
				UserID:     actorID,
				Type:       domain.LedgerHold,
				Amount:     req.TotalPrice,
				Currency:   currency,
				From:       actorID,
				To:         escrowParty,
				ProposalID: proposal.ID,
				Reason:     "proposal_reserve",
			}
			if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
				return err
			}

		case domain.ProposalExchange:
			offered, err := s.inventoryRepo.GetForUpdate(ctx, q, req.ExchangeInventoryItemID)
			if err != nil {
				return err
			}
			if offered == nil || offered.PharmacyID != actorID {
				return domain.ErrInventoryNotFound(req.ExchangeInventoryItemID)
			}
			if offered.Expired(time.Now()) {
				return domain.ErrInventoryExpired(offered.ID)
			}
			if offered.AvailableQuantity < req.ExchangeQuantity {
				return domain.ErrInsufficientQuantity(offered.AvailableQuantity, req.ExchangeQuantity)
			}
			if err := s.inventoryRepo.Reserve(ctx, q, offered.ID, req.ExchangeQuantity); err != nil {
				return err
			}
			reserved := req.ExchangeQuantity
			proposal.Reservations.InventoryReserved = &reserved
		}

		return s.proposalRepo.Create(ctx, q, proposal)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.SubjectProposalCreated, proposal)
	s.logger.Info().Str("proposal_id", proposal.ID).Str("type", string(req.Type)).Msg("Proposal created")
	return proposal, nil
}

func (s *proposalService) Accept(ctx context.Context, proposalID, actorID, notes string) (*domain.Proposal, error) {
	var proposal *domain.Proposal
	err := s.runner.WithinTx(ctx, func(q database.Querier) error {
		p, err := s.proposalRepo.GetForUpdate(ctx, q, proposalID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProposalNotFound(proposalID)
		}
		if p.ToPharmacyID != actorID {
			return domain.ErrPermissionDenied("only the target pharmacy may accept a proposal")
		}
		if p.Status != domain.ProposalStatusPending {
			return domain.ErrProposalInvalidStatus(p.Status)
		}

		if p.Details.Type == domain.ProposalPurchase && p.Reservations.WalletReserved != nil {
			if err := s.walletRepo.Shift(ctx, q, p.FromPharmacyID, domain.BalanceHeld, domain.BalanceDeducted, *p.Reservations.WalletReserved); err != nil {
				return err
			}
		}

		delivery := &domain.Delivery{
			ID:             uuid.NewString(),
			ProposalID:     p.ID,
			FromPharmacyID: p.ToPharmacyID,
			ToPharmacyID:   p.FromPharmacyID,
			Status:         domain.DeliveryStatusPending,
			ProposalType:   p.Details.Type,
			TotalPrice:     p.Details.TotalPrice,
			Currency:       p.Details.Currency,
			PaymentStatus:  "pending",
			QRCodePickup:   uuid.NewString(),
			QRCodeDelivery: uuid.NewString(),
		}
		if err := s.deliveryRepo.Create(ctx, q, delivery); err != nil {
			return err
		}

		if err := s.proposalRepo.MarkAccepted(ctx, q, p.ID, delivery.ID, notes); err != nil {
			return err
		}
		p.Status = domain.ProposalStatusAccepted
		p.DeliveryID = delivery.ID
		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("proposal_id", proposalID).Str("delivery_id", proposal.DeliveryID).Msg("Proposal accepted")
	return proposal, nil
}

func (s *proposalService) Cancel(ctx context.Context, proposalID, actorID, reason string) (*domain.Proposal, error) {
	var proposal *domain.Proposal
	err := s.runner.WithinTx(ctx, func(q database.Querier) error {
		p, err := s.proposalRepo.GetForUpdate(ctx, q, proposalID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProposalNotFound(proposalID)
		}
		if actorID != p.FromPharmacyID && actorID != p.ToPharmacyID {
			return domain.ErrPermissionDenied("only the proposal parties may cancel it")
		}
		if p.Status != domain.ProposalStatusPending {
			return domain.ErrProposalInvalidStatus(p.Status)
		}

		if err := s.releaseReservations(ctx, q, p, reason); err != nil {
			return err
		}

		status := domain.ProposalStatusCancelled
		if actorID == p.ToPharmacyID {
			status = domain.ProposalStatusRejected
		}
		if err := s.proposalRepo.MarkClosed(ctx, q, p.ID, status, reason); err != nil {
			return err
		}
		p.Status = status
		p.Reservations = domain.Reservations{}
		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.SubjectProposalClosed, proposal)
	s.logger.Info().Str("proposal_id", proposalID).Str("status", string(proposal.Status)).Msg("Proposal closed")
	return proposal, nil
}

// releaseReservations undoes whichever reservation is still recorded. The
// terminal transition clears both fields, so a replay finds nothing here.
func (s *proposalService) releaseReservations(ctx context.Context, q database.Querier, p *domain.Proposal, reason string) error {
	if p.Reservations.WalletReserved != nil && *p.Reservations.WalletReserved > 0 {
		amount := *p.Reservations.WalletReserved
		if err := s.walletRepo.Shift(ctx, q, p.FromPharmacyID, domain.BalanceHeld, domain.BalanceAvailable, amount); err != nil {
			return err
		}
		entry := &domain.LedgerEntry{
			UserID:     p.FromPharmacyID,
			Type:       domain.LedgerHoldRelease,
			Amount:     amount,
			Currency:   p.Details.Currency,
			From:       escrowParty,
			To:         p.FromPharmacyID,
			ProposalID: p.ID,
			Reason:     reason,
		}
		if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
			return err
		}
	}
	if p.Reservations.InventoryReserved != nil && *p.Reservations.InventoryReserved > 0 {
		if err := s.inventoryRepo.Release(ctx, q, p.Details.ExchangeInventoryItemID, *p.Reservations.InventoryReserved); err != nil {
			return err
		}
	}
	return nil
}

func (s *proposalService) CompleteDelivery(ctx context.Context, deliveryID, courierID string, req domain.CompleteDeliveryRequest) (*domain.Delivery, error) {
	var delivery *domain.Delivery
	var proposal *domain.Proposal
	err := s.runner.WithinTx(ctx, func(q database.Querier) error {
		d, err := s.deliveryRepo.GetForUpdate(ctx, q, deliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrDeliveryNotFound(deliveryID)
		}
		if d.CourierID == "" || d.CourierID != courierID {
			return domain.ErrPermissionDenied("only the assigned courier may complete a delivery")
		}
		if !d.Status.CanComplete() {
			return domain.ErrDeliveryInvalidStatus(d.Status)
		}

		p, err := s.proposalRepo.GetForUpdate(ctx, q, d.ProposalID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProposalNotFound(d.ProposalID)
		}

		paymentStatus := "n/a"
		var courierFee int64
		switch d.ProposalType {
		case domain.ProposalPurchase:
			courierFee = domain.CourierFeeForPurchase(d.TotalPrice)
			sellerAmount := d.TotalPrice - courierFee

			if err := s.walletRepo.Debit(ctx, q, p.FromPharmacyID, domain.BalanceDeducted, d.TotalPrice); err != nil {
				return err
			}
			if err := s.walletRepo.Credit(ctx, q, p.ToPharmacyID, domain.BalanceAvailable, sellerAmount, d.Currency); err != nil {
				return err
			}
			if err := s.walletRepo.Credit(ctx, q, courierID, domain.BalanceAvailable, courierFee, d.Currency); err != nil {
				return err
			}

			entries := []*domain.LedgerEntry{
				{UserID: p.FromPharmacyID, Type: domain.LedgerPurchase, Amount: d.TotalPrice, Currency: d.Currency, From: p.FromPharmacyID, To: p.ToPharmacyID, ProposalID: p.ID},
				{UserID: p.ToPharmacyID, Type: domain.LedgerSale, Amount: sellerAmount, Currency: d.Currency, From: p.FromPharmacyID, To: p.ToPharmacyID, ProposalID: p.ID},
				{UserID: courierID, Type: domain.LedgerDeliveryPayment, Amount: courierFee, Currency: d.Currency, From: p.FromPharmacyID, To: courierID, ProposalID: p.ID},
			}
			for _, entry := range entries {
				if err := s.ledgerRepo.Append(ctx, q, entry); err != nil {
					return err
				}
			}
			paymentStatus = "paid"

		case domain.ProposalExchange:
			offered, err := s.inventoryRepo.GetForUpdate(ctx, q, p.Details.ExchangeInventoryItemID)
			if err != nil {
				return err
			}
			if offered == nil {
				return domain.ErrInventoryNotFound(p.Details.ExchangeInventoryItemID)
			}
			if err := s.inventoryRepo.ConsumeReserved(ctx, q, offered.ID, p.Details.ExchangeQuantity); err != nil {
				return err
			}
			received := &domain.InventoryItem{
				ID:                uuid.NewString(),
				PharmacyID:        p.ToPharmacyID,
				MedicineID:        offered.MedicineID,
				MedicineName:      offered.MedicineName,
				Dosage:            offered.Dosage,
				Form:              offered.Form,
				Packaging:         offered.Packaging,
				AvailableQuantity: p.Details.ExchangeQuantity,
			}
			if err := s.inventoryRepo.AddStock(ctx, q, received); err != nil {
				return err
			}
		}

		if err := s.deliveryRepo.MarkDelivered(ctx, q, d.ID, req.PhotoProofURL, req.Notes, paymentStatus, courierFee); err != nil {
			return err
		}
		if err := s.proposalRepo.MarkClosed(ctx, q, p.ID, domain.ProposalStatusCompleted, "delivered"); err != nil {
			return err
		}

		d.Status = domain.DeliveryStatusDelivered
		d.CourierFee = courierFee
		d.PaymentStatus = paymentStatus
		p.Status = domain.ProposalStatusCompleted
		delivery = d
		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.SubjectProposalClosed, proposal)
	s.logger.Info().Str("delivery_id", deliveryID).Str("proposal_id", proposal.ID).Msg("Delivery completed")
	return delivery, nil
}
