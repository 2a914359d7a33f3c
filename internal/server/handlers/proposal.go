package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/proposalservice"
	"github.com/crepmaster/pharmapp/internal/domain"
)

type ProposalHandler struct {
	proposalSvc proposalservice.IProposalService
	logger      zerolog.Logger
}

func NewProposalHandler(proposalSvc proposalservice.IProposalService, logger zerolog.Logger) *ProposalHandler {
	return &ProposalHandler{
		proposalSvc: proposalSvc,
		logger:      logger,
	}
}

func (h *ProposalHandler) Create(c *gin.Context) {
	var req domain.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	proposal, err := h.proposalSvc.Create(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"proposalId": proposal.ID,
		"status":     proposal.Status,
		"expiresAt":  proposal.ExpiresAt,
	})
}

func (h *ProposalHandler) Accept(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	proposal, err := h.proposalSvc.Accept(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"proposalId": proposal.ID,
		"status":     proposal.Status,
		"deliveryId": proposal.DeliveryID,
	})
}

func (h *ProposalHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	proposal, err := h.proposalSvc.Cancel(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"proposalId": proposal.ID,
		"status":     proposal.Status,
	})
}

func (h *ProposalHandler) CompleteDelivery(c *gin.Context) {
	var req domain.CompleteDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	delivery, err := h.proposalSvc.CompleteDelivery(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"deliveryId": delivery.ID,
		"status":     delivery.Status,
		"courierFee": delivery.CourierFee,
	})
}
