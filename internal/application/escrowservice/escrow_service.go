package escrowservice

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
)

// IEscrowService drives the courier-fee escrow state machine:
// hold_active, then completed or canceled, both terminal.
type IEscrowService interface {
	// CreateHold splits the courier fee 50/50 across both pharmacies and moves
	// each half from available to held. The bool reports whether the hold was
	// newly created; false means an idempotent replay.
	CreateHold(ctx context.Context, req domain.CreateHoldRequest) (*domain.Exchange, bool, error)
	// Capture pays the full held fee out to the courier and optionally settles
	// a sale leg between buyer and seller.
	Capture(ctx context.Context, req domain.CaptureRequest) (*domain.Exchange, error)
	// Cancel returns both holds to available. Canceling a terminal exchange is
	// a business-level no-op, not an error.
	Cancel(ctx context.Context, req domain.CancelRequest) (*domain.Exchange, error)
	// Expire cancels a stale hold on behalf of the sweeper under its own
	// idempotency key.
	Expire(ctx context.Context, exchangeID string) error
}
