// Package api exposes the points ledger over HTTP with chi.
//
// Every mutating route acts as the identity returned by the configured
// IdentityResolver. Errors are rendered as
//
//	{"error": {"code": "insufficient_points", "message": "...", "balance": "0", "requested": "1000"}}
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	points "github.com/xraph/points"
)

// Handler serves the points HTTP API.
type Handler struct {
	ledger   *points.Ledger
	identity IdentityResolver
	logger   *slog.Logger
	metrics  *requestMetrics

	serviceName string
	registerer  prometheus.Registerer
	gatherer    prometheus.Gatherer
	maxBody     int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithIdentityResolver sets how callers are identified. Defaults to
// HeaderResolver.
func WithIdentityResolver(r IdentityResolver) Option {
	return func(h *Handler) { h.identity = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithRegisterer registers request metrics into reg. Without it request
// metrics are collected but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(h *Handler) { h.registerer = reg }
}

// WithMetricsGatherer serves g in the Prometheus text format at GET /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// WithServiceName names the tracer. Defaults to "points-api".
func WithServiceName(name string) Option {
	return func(h *Handler) { h.serviceName = name }
}

// WithMaxBodyBytes caps request bodies. Defaults to 1 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// New creates a Handler for l.
func New(l *points.Ledger, opts ...Option) *Handler {
	h := &Handler{
		ledger:      l,
		identity:    HeaderResolver{},
		logger:      slog.Default(),
		serviceName: "points-api",
		maxBody:     1 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.metrics = newRequestMetrics(h.serviceName, h.registerer)
	return h
}

// Routes mounts the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.metrics.middleware)

	r.Get("/healthz", h.Health)
	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	// Membership
	r.Post("/members", h.JoinAsMember)
	r.Post("/bans", h.BanAccount)

	// Points
	r.Post("/points/earn", h.EarnPoints)
	r.Post("/points/assign", h.AssignPoints)
	r.Post("/points/transfer", h.TransferPoints)

	// Rewards
	r.Get("/rewards", h.ListRewards)
	r.Get("/rewards/{index}", h.GetReward)
	r.Post("/rewards/{index}/redeem", h.RedeemReward)

	// Balances and accounts
	r.Get("/me/balance", h.GetMyBalance)
	r.Get("/accounts", h.ListAccounts)
	r.Get("/accounts/{address}", h.GetAccount)
	r.Get("/accounts/{address}/balance", h.BalanceOf)

	// Journal
	r.Get("/events", h.ListEvents)

	// Inbound value
	r.Post("/receive", h.Receive)
	r.Post("/fallback", h.Fallback)
}

// Router returns a standalone chi router serving the API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}
