package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/escrowservice"
	"github.com/crepmaster/pharmapp/internal/domain"
)

type EscrowHandler struct {
	escrowSvc escrowservice.IEscrowService
	logger    zerolog.Logger
}

func NewEscrowHandler(escrowSvc escrowservice.IEscrowService, logger zerolog.Logger) *EscrowHandler {
	return &EscrowHandler{
		escrowSvc: escrowSvc,
		logger:    logger,
	}
}

func (h *EscrowHandler) CreateHold(c *gin.Context) {
	var req domain.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	exchange, created, err := h.escrowSvc.CreateHold(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	body := gin.H{"created": created}
	if exchange != nil {
		body["exchangeId"] = exchange.ID
		body["status"] = exchange.Status
		body["holds"] = gin.H{"a": exchange.HoldA, "b": exchange.HoldB}
	} else {
		body["status"] = domain.ExchangeHoldActive
	}
	respondOK(c, body)
}

func (h *EscrowHandler) Capture(c *gin.Context) {
	var req domain.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	exchange, err := h.escrowSvc.Capture(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	body := gin.H{"exchangeId": req.ExchangeID}
	if exchange != nil {
		body["status"] = exchange.Status
	}
	respondOK(c, body)
}

func (h *EscrowHandler) Cancel(c *gin.Context) {
	var req domain.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	exchange, err := h.escrowSvc.Cancel(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	body := gin.H{"exchangeId": req.ExchangeID}
	if exchange != nil {
		body["status"] = exchange.Status
	}
	respondOK(c, body)
}
