// Package provider implements the OpenID Connect protocol operations on
// top of the client registry, the interaction coordinator and the token
// issuer.
package provider

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/client"
	"oidcprovider/internal/interaction"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/metrics"
	"oidcprovider/internal/token"
)

const tracerName = "oidcprovider/provider"

type Clients interface {
	Lookup(ctx context.Context, clientID string) (*models.Client, error)
	Authenticate(ctx context.Context, clientID, secret string, method models.AuthMethod) (*models.Client, error)
	RegisterDynamic(ctx context.Context, req client.RegistrationRequest) (*models.Client, string, error)
}

type Coordinator interface {
	Start(ctx context.Context, p models.AuthorizationParams, sess *models.Session) (*interaction.Outcome, error)
}

type SessionStore interface {
	FindActive(ctx context.Context, id string, now time.Time) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type GrantStore interface {
	Save(ctx context.Context, g *models.Grant) (string, error)
	Find(ctx context.Context, id string, now time.Time) (*models.Grant, error)
	Delete(ctx context.Context, id string) error
}

type CodeStore interface {
	Consume(ctx context.Context, code, redirectURI string, now time.Time) (*models.AuthorizationCodeRecord, error)
}

type RefreshTokenStore interface {
	Create(ctx context.Context, record *models.RefreshTokenRecord) error
	Find(ctx context.Context, jti string) (*models.RefreshTokenRecord, error)
	Consume(ctx context.Context, jti string, now time.Time) (*models.RefreshTokenRecord, error)
	DeleteByGrant(ctx context.Context, grantID string) ([]string, error)
}

type RevocationList interface {
	RevokeToken(ctx context.Context, id string, ttl time.Duration) error
	RevokeMany(ctx context.Context, ids []string, ttl time.Duration) error
}

// ClaimsSource releases account claims for a grant.
type ClaimsSource interface {
	IDTokenClaims(ctx context.Context, g *models.Grant) (map[string]any, error)
	UserInfoClaims(ctx context.Context, g *models.Grant) (map[string]any, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event)
}

// Features toggles optional endpoints. Disabled endpoints answer 404 and
// are left out of discovery.
type Features struct {
	Discovery         bool
	Introspection     bool
	Revocation        bool
	Registration      bool
	ClientCredentials bool
	ClaimsParameter   bool
	SessionManagement bool
}

func AllFeatures() Features {
	return Features{
		Discovery:         true,
		Introspection:     true,
		Revocation:        true,
		Registration:      true,
		ClientCredentials: true,
		ClaimsParameter:   true,
		SessionManagement: true,
	}
}

type Service struct {
	clients     Clients
	coordinator Coordinator
	sessions    SessionStore
	grants      GrantStore
	codes       CodeStore
	refresh     RefreshTokenStore
	revocations RevocationList
	issuer      *token.Issuer
	claims      ClaimsSource

	features        Features
	claimsMapping   map[string][]string
	grantTTL        time.Duration
	scopesSupported []string

	logger  *slog.Logger
	audit   AuditPublisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
	clock   func() time.Time
}

// Deps groups the collaborators New wires together.
type Deps struct {
	Clients       Clients
	Coordinator   Coordinator
	Sessions      SessionStore
	Grants        GrantStore
	Codes         CodeStore
	RefreshTokens RefreshTokenStore
	Revocations   RevocationList
	Issuer        *token.Issuer
	Claims        ClaimsSource
}

type Option func(*Service)

func WithFeatures(f Features) Option {
	return func(s *Service) {
		s.features = f
	}
}

// WithClaimsMapping sets the scope to claim names mapping. Its scopes,
// together with openid and offline_access, are the supported scopes.
func WithClaimsMapping(m map[string][]string) Option {
	return func(s *Service) {
		s.claimsMapping = m
	}
}

func WithGrantTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.grantTTL = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		clients:     deps.Clients,
		coordinator: deps.Coordinator,
		sessions:    deps.Sessions,
		grants:      deps.Grants,
		codes:       deps.Codes,
		refresh:     deps.RefreshTokens,
		revocations: deps.Revocations,
		issuer:      deps.Issuer,
		claims:      deps.Claims,
		features:    AllFeatures(),
		grantTTL:    14 * 24 * time.Hour,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scopesSupported = supportedScopes(s.claimsMapping)
	return s
}

func (s *Service) Features() Features {
	return s.features
}

// observe opens a span and returns the func that ends it, recording err
// and the operation duration.
func (s *Service) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "provider."+op, trace.WithAttributes(attrs...))
	return ctx, func(err *error) {
		if err != nil && *err != nil {
			span.RecordError(*err)
			span.SetStatus(codes.Error, (*err).Error())
		}
		s.metrics.ObserveOperation(op, start)
		span.End()
	}
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, e)
	}
}
