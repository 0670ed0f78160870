// Package httptransport maps the OpenID Connect endpoints and the
// interaction routes onto the provider and interaction services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oidcprovider/internal/client"
	"oidcprovider/internal/interaction"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/metrics"
	"oidcprovider/internal/platform/middleware"
	"oidcprovider/internal/provider"
)

type Provider interface {
	Features() provider.Features
	Discovery() provider.Discovery
	JWKS() jose.JSONWebKeySet
	Authorize(ctx context.Context, req provider.AuthorizeRequest) (*provider.AuthorizeResult, error)
	Token(ctx context.Context, req provider.TokenRequest) (*provider.TokenResponse, error)
	Introspect(ctx context.Context, creds provider.ClientCredentials, raw, hint string) (*provider.IntrospectionResponse, error)
	Revoke(ctx context.Context, creds provider.ClientCredentials, raw, hint string) error
	UserInfo(ctx context.Context, accessToken string) (map[string]any, error)
	Register(ctx context.Context, req client.RegistrationRequest) (*provider.RegistrationResponse, error)
	EndSession(ctx context.Context, req provider.EndSessionRequest) (string, error)
}

type Interactions interface {
	URL(id string) string
	Details(ctx context.Context, id string) (*interaction.View, error)
	SubmitLogin(ctx context.Context, id string, in interaction.LoginInput) (*models.Interaction, error)
	Confirm(ctx context.Context, id string) (*interaction.Completion, error)
	Abort(ctx context.Context, id string) (string, error)
}

type Handler struct {
	provider      Provider
	interactions  Interactions
	logger        *slog.Logger
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	secureCookies bool
	timeout       time.Duration
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.metrics = m
		h.gatherer = g
	}
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(h *Handler) {
		h.secureCookies = secure
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func New(p Provider, interactions Interactions, opts ...Option) *Handler {
	h := &Handler{
		provider:     p,
		interactions: interactions,
		logger:       slog.Default(),
		timeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires every route. Disabled features answer 404.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.SessionCookie)

	r.Get("/health", h.handleHealth)
	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	f := h.provider.Features()
	r.Group(func(r chi.Router) {
		r.Use(h.withTimeout)
		if f.Discovery {
			r.With(middleware.Latency(h.metrics, "discovery")).Get(provider.PathDiscovery, h.handleDiscovery)
		}
		r.With(middleware.Latency(h.metrics, "jwks")).Get(provider.PathJWKS, h.handleJWKS)

		r.With(middleware.Latency(h.metrics, "authorize")).Get(provider.PathAuthorization, h.handleAuthorize)
		r.With(middleware.Latency(h.metrics, "authorize")).Post(provider.PathAuthorization, h.handleAuthorize)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.With(middleware.Latency(h.metrics, "token")).Post(provider.PathToken, h.handleToken)
			if f.Introspection {
				r.With(middleware.Latency(h.metrics, "introspection")).Post(provider.PathIntrospection, h.handleIntrospection)
			}
			if f.Revocation {
				r.With(middleware.Latency(h.metrics, "revocation")).Post(provider.PathRevocation, h.handleRevocation)
			}
			if f.Registration {
				r.With(middleware.Latency(h.metrics, "registration")).Post(provider.PathRegistration, h.handleRegistration)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireBearer(h.logger))
			r.Get(provider.PathUserInfo, h.handleUserInfo)
			r.Post(provider.PathUserInfo, h.handleUserInfo)
		})

		if f.SessionManagement {
			r.Get(provider.PathEndSession, h.handleEndSession)
			r.Post(provider.PathEndSession, h.handleEndSession)
		}

		r.Route("/interaction/{uuid}", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/", h.handleInteractionDetails)
			r.Post("/login", h.handleInteractionLogin)
			r.Post("/confirm", h.handleInteractionConfirm)
			r.Get("/abort", h.handleInteractionAbort)
			r.Post("/abort", h.handleInteractionAbort)
		})
	})
	return r
}

func (h *Handler) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
