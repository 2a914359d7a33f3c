package proposalrepo

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type IProposalRepository interface {
	Create(ctx context.Context, q database.Querier, proposal *domain.Proposal) error
	GetForUpdate(ctx context.Context, q database.Querier, proposalID string) (*domain.Proposal, error)
	// MarkAccepted sets the accepted status and links the delivery.
	MarkAccepted(ctx context.Context, q database.Querier, proposalID, deliveryID, notes string) error
	// MarkClosed sets a terminal status and clears both reservation fields so
	// a replayed release finds nothing to release.
	MarkClosed(ctx context.Context, q database.Querier, proposalID string, status domain.ProposalStatus, reason string) error
}
