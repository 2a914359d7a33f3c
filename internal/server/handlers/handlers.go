package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/authservice"
	"github.com/crepmaster/pharmapp/internal/application/escrowservice"
	"github.com/crepmaster/pharmapp/internal/application/proposalservice"
	"github.com/crepmaster/pharmapp/internal/application/walletservice"
	"github.com/crepmaster/pharmapp/internal/server/middleware"
	"github.com/crepmaster/pharmapp/pkg/config"
)

type Handlers struct {
	EscrowSvc   escrowservice.IEscrowService
	ProposalSvc proposalservice.IProposalService
	WalletSvc   walletservice.IWalletService
	AuthSvc     authservice.IAuthService
	Logger      zerolog.Logger
	Config      *config.Config
}

func New(
	escrowSvc escrowservice.IEscrowService,
	proposalSvc proposalservice.IProposalService,
	walletSvc walletservice.IWalletService,
	authSvc authservice.IAuthService,
	logger zerolog.Logger,
	config *config.Config,
) *Handlers {
	return &Handlers{
		EscrowSvc:   escrowSvc,
		ProposalSvc: proposalSvc,
		WalletSvc:   walletSvc,
		AuthSvc:     authSvc,
		Logger:      logger,
		Config:      config,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	mw := middleware.NewMiddleware(h.AuthSvc, h.Logger)
	mw.SetupMiddleware(router)

	escrowHandler := NewEscrowHandler(h.EscrowSvc, h.Logger)
	proposalHandler := NewProposalHandler(h.ProposalSvc, h.Logger)
	walletHandler := NewWalletHandler(h.WalletSvc, h.Logger)
	webhookHandler := NewWebhookHandler(h.WalletSvc, h.Config.Webhooks, h.Logger)
	healthHandler := NewHealthHandler()

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/momo", webhookHandler.HandleMomo)
		webhooks.POST("/orange", webhookHandler.HandleOrange)
	}

	v1 := router.Group("/v1")
	{
		// Internal command surface, called by trusted backend services.
		escrow := v1.Group("/escrow", mw.APIKeyMiddleware())
		{
			escrow.POST("/holds", escrowHandler.CreateHold)
			escrow.POST("/capture", escrowHandler.Capture)
			escrow.POST("/cancel", escrowHandler.Cancel)
		}

		v1.POST("/topups", mw.APIKeyMiddleware(), walletHandler.CreateTopup)
		v1.POST("/sandbox/credit", mw.APIKeyMiddleware(), walletHandler.SandboxCredit)

		proposals := v1.Group("/proposals", mw.AuthMiddleware())
		{
			proposals.POST("", proposalHandler.Create)
			proposals.POST("/:id/accept", proposalHandler.Accept)
			proposals.POST("/:id/cancel", proposalHandler.Cancel)
		}

		deliveries := v1.Group("/deliveries", mw.AuthMiddleware())
		{
			deliveries.POST("/:id/complete", proposalHandler.CompleteDelivery)
		}

		wallets := v1.Group("/wallets", mw.AuthMiddleware())
		{
			wallets.GET("/:id", walletHandler.GetWallet)
			wallets.GET("/:id/ledger", walletHandler.ListLedger)
		}
	}
}
