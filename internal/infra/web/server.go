package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"careerdev-subscription/internal/config"
	"careerdev-subscription/internal/domain/ports/adapter"
	"careerdev-subscription/internal/usecase"
)

// Server exposes the subscription and payment API. Payment callback
// routes sit outside the JWT middleware; the gateway hash is their
// authentication.
type Server struct {
	gateUC    *usecase.GateUseCase
	subUC     *usecase.SubscriptionUseCase
	planUC    *usecase.PlanUseCase
	payUC     *usecase.PaymentUseCase
	gen       adapter.ContentGenerator
	jwtSecret string
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(
	cfg *config.Config,
	gateUC *usecase.GateUseCase,
	subUC *usecase.SubscriptionUseCase,
	planUC *usecase.PlanUseCase,
	payUC *usecase.PaymentUseCase,
	gen adapter.ContentGenerator,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		gateUC:    gateUC,
		subUC:     subUC,
		planUC:    planUC,
		payUC:     payUC,
		gen:       gen,
		jwtSecret: cfg.Server.JWTSecret,
		log:       logger,
	}

	mux := http.NewServeMux()
	s.RegisterRoutes(mux, cfg.Server.MetricsPath)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: chain(mux, traceID, requestLog(logger), recoverPanic(logger), timeout(60*time.Second)),
	}
	return s
}

// RegisterRoutes sets up the routing for the API.
func (s *Server) RegisterRoutes(mux *http.ServeMux, metricsPath string) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle(metricsPath, promhttp.Handler())

	mux.HandleFunc("/api/v1/plans", s.handleListPlans)

	mux.Handle("/api/v1/subscription", s.authMiddleware(http.HandlerFunc(s.handleGetSubscription)))
	mux.Handle("/api/v1/features/", s.authMiddleware(http.HandlerFunc(s.handleFeatureUse)))
	mux.Handle("/api/v1/payments/initiate", s.authMiddleware(http.HandlerFunc(s.handlePaymentInitiate)))

	// Gateway-facing; authenticated by signature verification inside.
	mux.HandleFunc("/api/v1/payments/callback/", s.handlePaymentCallback)
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
