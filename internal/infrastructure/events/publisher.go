package events

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects carried on the bus. Downstream consumers (notifications,
// reconciliation) subscribe to these.
const (
	SubjectHoldCreated     = "escrow.hold.created"
	SubjectCaptured        = "escrow.captured"
	SubjectCanceled        = "escrow.canceled"
	SubjectWalletCredited  = "wallet.credited"
	SubjectProposalCreated = "proposal.created"
	SubjectProposalClosed  = "proposal.closed"
)

// Publisher emits domain events after a transaction commits. Publishing is
// best effort: the money movement is already durable and the bus must not
// fail it.
type Publisher interface {
	Publish(subject string, event any)
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

func NewNATS(url string, logger zerolog.Logger) (Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("pharmapp-escrow"))
	if err != nil {
		return nil, err
	}
	return &natsPublisher{conn: conn, logger: logger}, nil
}

func (p *natsPublisher) Publish(subject string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("Failed to encode event")
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}

type nopPublisher struct{}

// NewNop returns a publisher that drops every event, used when NATS is not
// configured.
func NewNop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(string, any) {}
