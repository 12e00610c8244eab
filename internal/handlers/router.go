package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/middleware"
	"github.com/Varun5711/easywedding/internal/service"
)

type RouterConfig struct {
	Auth           service.Authenticator
	Invitations    *service.InvitationService
	RateLimiter    *middleware.RateLimiter
	ClientIP       *middleware.ClientIPResolver
	HealthChecks   []HealthCheck
	ViewBacklog    func(ctx context.Context) (int64, error)
	RequestTimeout time.Duration
	Log            *logger.Logger
}

// NewRouter wires every API route behind recovery, request logging and the
// request timeout.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Log.With("auth"))
	invitationHandler := NewInvitationHandler(cfg.Invitations, cfg.ClientIP, cfg.Log.With("invitations"))
	authMW := middleware.NewAuthMiddleware(cfg.Auth, cfg.Log.With("auth-mw"))

	limit := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if cfg.RateLimiter != nil {
		limit = cfg.RateLimiter.Limit
	}

	mux := http.NewServeMux()

	mux.Handle("GET /health", NewHealthHandler(cfg.HealthChecks, cfg.ViewBacklog, cfg.Log.With("health")))

	mux.HandleFunc("POST /api/auth/register", limit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", limit(authHandler.Login))
	mux.HandleFunc("GET /api/auth/me", authMW.RequireAuth(authHandler.Me))

	mux.HandleFunc("POST /api/invitations", authMW.RequireAuth(invitationHandler.Create))
	mux.HandleFunc("GET /api/invitations", authMW.RequireAuth(invitationHandler.List))
	mux.HandleFunc("GET /api/invitations/{uuid}", invitationHandler.Get)
	mux.HandleFunc("GET /api/invitations/{uuid}/qr", invitationHandler.QRCode)
	mux.HandleFunc("GET /api/invitations/{uuid}/stats", authMW.RequireAuth(invitationHandler.Stats))

	return middleware.Chain(mux,
		middleware.Recovery(cfg.Log),
		middleware.RequestLogger(cfg.Log.With("http")),
		middleware.Timeout(cfg.RequestTimeout),
	)
}
