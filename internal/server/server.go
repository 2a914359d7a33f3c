package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/application/authservice"
	"github.com/crepmaster/pharmapp/internal/application/escrowservice"
	"github.com/crepmaster/pharmapp/internal/application/proposalservice"
	"github.com/crepmaster/pharmapp/internal/application/walletservice"
	"github.com/crepmaster/pharmapp/internal/server/handlers"
	"github.com/crepmaster/pharmapp/pkg/config"
)

type Server struct {
	EscrowSvc   escrowservice.IEscrowService
	ProposalSvc proposalservice.IProposalService
	WalletSvc   walletservice.IWalletService
	AuthSvc     authservice.IAuthService
	Cfg         *config.Config
	Logger      zerolog.Logger
	Router      *gin.Engine
	httpServer  *http.Server
}

func New(
	cfg *config.Config,
	escrowSvc escrowservice.IEscrowService,
	proposalSvc proposalservice.IProposalService,
	walletSvc walletservice.IWalletService,
	authSvc authservice.IAuthService,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	return &Server{
		Cfg:         cfg,
		EscrowSvc:   escrowSvc,
		ProposalSvc: proposalSvc,
		WalletSvc:   walletSvc,
		AuthSvc:     authSvc,
		Logger:      logger,
		Router:      router,
	}
}

func (s *Server) SetupRouter() {
	handler := handlers.New(
		s.EscrowSvc,
		s.ProposalSvc,
		s.WalletSvc,
		s.AuthSvc,
		s.Logger,
		s.Cfg,
	)
	handler.SetupHandlers(s.Router)
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Start() {
	s.SetupRouter()

	s.httpServer = &http.Server{
		Addr:         s.Cfg.Server.Host + ":" + s.Cfg.Server.Port,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	s.Logger.Info().Msgf("Starting server on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stopChan
	s.Logger.Info().Msg("Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	s.Logger.Info().Msg("Server exited gracefully")
}
