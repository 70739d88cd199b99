package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"membify/internal/config"
)

// Server is the public HTTP ingress: Telegram updates, payment provider
// callbacks and the dashboard read API.
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	communities CommunityResolver
	reconciler  Reconciler
	directory   MemberDirectory
	payments    PaymentUpdater
	checkout    CheckoutStarter
	plans       PlanManager
	settings    SettingsManager
	stripe      StripeVerifier
	stats       StatsProvider
	notifier    Notifier
}

func NewServer(
	cfg config.WebhookHTTPConfig,
	communities CommunityResolver,
	reconciler Reconciler,
	directory MemberDirectory,
	payments PaymentUpdater,
	checkout CheckoutStarter,
	planManager PlanManager,
	settings SettingsManager,
	stripe StripeVerifier,
	stats StatsProvider,
	notifier Notifier,
	logger *slog.Logger,
) *Server {
	s := &Server{
		logger:      logger,
		communities: communities,
		reconciler:  reconciler,
		directory:   directory,
		payments:    payments,
		checkout:    checkout,
		plans:       planManager,
		settings:    settings,
		stripe:      stripe,
		stats:       stats,
		notifier:    notifier,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ADDR(),
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook/telegram", s.handleTelegramUpdate)
	mux.HandleFunc("POST /webhook/payments/stripe", s.handleStripeCallback)
	mux.HandleFunc("POST /webhook/payments/crypto", s.handleCryptoCallback)
	mux.HandleFunc("POST /checkout", s.handleCreateCheckout)
	mux.HandleFunc("GET /dashboard/communities/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /dashboard/communities/{id}/revenue", s.handleRevenue)
	mux.HandleFunc("GET /dashboard/communities/{id}/growth", s.handleGrowth)
	mux.HandleFunc("GET /dashboard/communities/{id}/plans", s.handleListPlans)
	mux.HandleFunc("POST /dashboard/communities/{id}/plans", s.handleCreatePlan)
	mux.HandleFunc("PUT /dashboard/plans/{id}", s.handleUpdatePlan)
	mux.HandleFunc("DELETE /dashboard/plans/{id}", s.handleArchivePlan)
	mux.HandleFunc("PUT /dashboard/communities/{id}/settings", s.handleUpdateSettings)

	return mux
}

func (s *Server) Start() error {
	s.logger.Info("webhook server starting", slog.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
