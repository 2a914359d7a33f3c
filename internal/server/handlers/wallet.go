package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/walletservice"
	"github.com/crepmaster/pharmapp/internal/domain"
)

type WalletHandler struct {
	walletSvc walletservice.IWalletService
	logger    zerolog.Logger
}

func NewWalletHandler(walletSvc walletservice.IWalletService, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{
		walletSvc: walletSvc,
		logger:    logger,
	}
}

// canRead allows wallet owners to see their own balance and admins to see any.
func canRead(c *gin.Context, userID string) bool {
	return c.GetString("user_id") == userID || c.GetString("role") == string(domain.RoleAdmin)
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.Param("id")
	if !canRead(c, userID) {
		respondError(c, h.logger, domain.ErrPermissionDenied("wallets are only visible to their owner"))
		return
	}

	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{"wallet": wallet})
}

func (h *WalletHandler) ListLedger(c *gin.Context) {
	userID := c.Param("id")
	if !canRead(c, userID) {
		respondError(c, h.logger, domain.ErrPermissionDenied("ledger entries are only visible to their owner"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.walletSvc.ListLedger(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{"entries": entries})
}

func (h *WalletHandler) CreateTopup(c *gin.Context) {
	var req domain.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	payment, err := h.walletSvc.CreateTopupIntent(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"paymentId": payment.ID,
		"status":    payment.Status,
	})
}

func (h *WalletHandler) SandboxCredit(c *gin.Context) {
	var req domain.SandboxCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.ErrValidation("invalid request body", map[string]any{"body": err.Error()}))
		return
	}

	wallet, err := h.walletSvc.SandboxCredit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{"wallet": wallet})
}
