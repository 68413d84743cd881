// Package httpapi exposes the marketplace core over a JSON HTTP API.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskbay/taskbay/internal/auth"
	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/market"
	"github.com/taskbay/taskbay/internal/middleware"
)

// Server wires HTTP routes for the marketplace API.
type Server struct {
	market        *market.Marketplace
	funds         ledger.Ledger
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewServer creates an API server over the given collaborators.
func NewServer(m *market.Marketplace, funds ledger.Ledger, authenticator auth.Authenticator, jwtManager *auth.JWTManager) *Server {
	return &Server{
		market:        m,
		funds:         funds,
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// Register attaches all routes to mux. Marketplace and account routes are
// wrapped with the JWT middleware; auth, health and metrics endpoints are
// open.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/register", withMetrics("auth_register", s.handleRegister))
	mux.HandleFunc("POST /v1/auth/login", withMetrics("auth_login", s.handleLogin))

	requireAuth := middleware.RequireAuth(s.jwtManager)
	authed := func(endpoint string, h http.HandlerFunc) http.Handler {
		return requireAuth(withMetrics(endpoint, h))
	}

	mux.Handle("POST /v1/accounts/deposit", authed("accounts_deposit", s.handleDeposit))
	mux.Handle("GET /v1/accounts/balance", authed("accounts_balance", s.handleBalance))

	mux.Handle("POST /v1/workers", authed("workers_register", s.handleRegisterWorker))
	mux.Handle("GET /v1/workers/{id}/stats", authed("workers_stats", s.handleWorkerStats))
	mux.Handle("GET /v1/clients/{id}/stats", authed("clients_stats", s.handleClientStats))

	mux.Handle("POST /v1/jobs", authed("jobs_post", s.handlePostJob))
	mux.Handle("GET /v1/jobs/{id}", authed("jobs_get", s.handleGetJob))
	mux.Handle("GET /v1/jobs/{id}/events", authed("jobs_events", s.handleJobEvents))
	mux.Handle("POST /v1/jobs/{id}/apply", authed("jobs_apply", s.handleApply))
	mux.Handle("POST /v1/jobs/{id}/select", authed("jobs_select", s.handleSelect))
	mux.Handle("POST /v1/jobs/{id}/complete", authed("jobs_complete", s.handleComplete))
	mux.Handle("POST /v1/jobs/{id}/release", authed("jobs_release", s.handleRelease))
	mux.Handle("POST /v1/jobs/{id}/dispute", authed("jobs_dispute", s.handleDispute))
	mux.Handle("POST /v1/jobs/{id}/resolve", authed("jobs_resolve", s.handleResolve))
	mux.Handle("POST /v1/jobs/{id}/rate-worker", authed("jobs_rate_worker", s.handleRateWorker))
	mux.Handle("POST /v1/jobs/{id}/rate-client", authed("jobs_rate_client", s.handleRateClient))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jobIDFromPath parses the {id} path segment.
func jobIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
