package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/walletservice"
	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/metrics"
	"github.com/crepmaster/pharmapp/pkg/config"
)

// WebhookHandler receives provider payment callbacks. After authentication it
// always acknowledges with 200 so the provider stops redelivering; internal
// failures are logged, not surfaced.
type WebhookHandler struct {
	walletSvc walletservice.IWalletService
	config    config.WebhooksConfig
	logger    zerolog.Logger
}

func NewWebhookHandler(walletSvc walletservice.IWalletService, cfg config.WebhooksConfig, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		walletSvc: walletSvc,
		config:    cfg,
		logger:    logger,
	}
}

func (h *WebhookHandler) HandleMomo(c *gin.Context) {
	h.handle(c, domain.ProviderMomo, h.config.MomoToken, extractMomoNotice)
}

func (h *WebhookHandler) HandleOrange(c *gin.Context) {
	h.handle(c, domain.ProviderOrange, h.config.OrangeToken, extractOrangeNotice)
}

func (h *WebhookHandler) handle(c *gin.Context, provider domain.PaymentProvider, expectedToken string, extract func([]byte) (domain.WebhookNotice, error)) {
	if !authorized(c, expectedToken) {
		metrics.WebhooksTotal.WithLabelValues(string(provider), "unauthorized").Inc()
		respondError(c, h.logger, domain.ErrWebhookUnauthorized())
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		h.logger.Warn().Err(err).Str("provider", string(provider)).Msg("Failed to read webhook body")
		metrics.WebhooksTotal.WithLabelValues(string(provider), "unreadable").Inc()
		respondOK(c, nil)
		return
	}

	notice, err := extract(payload)
	if err != nil {
		h.logger.Warn().Err(err).Str("provider", string(provider)).Msg("Failed to extract webhook notice")
		metrics.WebhooksTotal.WithLabelValues(string(provider), "malformed").Inc()
		respondOK(c, nil)
		return
	}
	notice.Provider = provider

	headers, _ := json.Marshal(c.Request.Header)
	executed, err := h.walletSvc.ProcessWebhook(c.Request.Context(), notice, headers, payload)
	switch {
	case err != nil:
		h.logger.Error().Err(err).
			Str("provider", string(provider)).
			Str("provider_txn_id", notice.ProviderTxnID).
			Msg("Webhook processing failed")
		metrics.WebhooksTotal.WithLabelValues(string(provider), "failed").Inc()
	case !executed:
		metrics.WebhooksTotal.WithLabelValues(string(provider), "duplicate").Inc()
	default:
		metrics.WebhooksTotal.WithLabelValues(string(provider), "processed").Inc()
	}

	respondOK(c, nil)
}

// authorized compares the caller token, taken from the X-Callback-Token
// header or the token query parameter, against the configured shared secret.
// An unconfigured secret disables the endpoint.
func authorized(c *gin.Context, expectedToken string) bool {
	if expectedToken == "" {
		return false
	}
	token := c.GetHeader("X-Callback-Token")
	if token == "" {
		token = c.Query("token")
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
}

func extractMomoNotice(payload []byte) (domain.WebhookNotice, error) {
	var body struct {
		FinancialTransactionID string      `json:"financialTransactionId"`
		TransactionID          string      `json:"transactionId"`
		ExternalID             string      `json:"externalId"`
		Amount                 json.Number `json:"amount"`
		Currency               string      `json:"currency"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return domain.WebhookNotice{}, err
	}

	txnID := body.FinancialTransactionID
	if txnID == "" {
		txnID = body.TransactionID
	}
	amount, _ := body.Amount.Int64()
	return domain.WebhookNotice{
		ProviderTxnID: txnID,
		PaymentID:     body.ExternalID,
		Amount:        amount,
		Currency:      body.Currency,
	}, nil
}

func extractOrangeNotice(payload []byte) (domain.WebhookNotice, error) {
	var body struct {
		TxnID    string      `json:"txnid"`
		OrderID  string      `json:"order_id"`
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return domain.WebhookNotice{}, err
	}

	amount, _ := body.Amount.Int64()
	return domain.WebhookNotice{
		ProviderTxnID: body.TxnID,
		PaymentID:     body.OrderID,
		Amount:        amount,
		Currency:      body.Currency,
	}, nil
}
