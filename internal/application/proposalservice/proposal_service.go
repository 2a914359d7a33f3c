package proposalservice

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
)

// IProposalService runs the two-phase reservation protocol for exchange and
// purchase proposals: reserve on creation, then either accept and finalize on
// delivery, or cancel/reject/expire and release.
type IProposalService interface {
	// Create validates stock and funds, applies the reservation, and writes
	// the proposal in one transaction.
	Create(ctx context.Context, actorID string, req domain.CreateProposalRequest) (*domain.Proposal, error)
	// Accept moves reserved purchase funds from held to deducted and creates
	// the delivery record. Only the target pharmacy may accept.
	Accept(ctx context.Context, proposalID, actorID, notes string) (*domain.Proposal, error)
	// Cancel releases the reservation and closes the proposal: cancelled when
	// the creator acts, rejected when the target does.
	Cancel(ctx context.Context, proposalID, actorID, reason string) (*domain.Proposal, error)
	// CompleteDelivery settles a delivery: purchase proposals pay out seller
	// and courier from deducted funds, exchange proposals transfer stock.
	CompleteDelivery(ctx context.Context, deliveryID, courierID string, req domain.CompleteDeliveryRequest) (*domain.Delivery, error)
}
