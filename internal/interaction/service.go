// Package interaction coordinates the end-user login and consent steps an
// authorization request may need before a grant exists.
package interaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"oidcprovider/internal/account"
	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/metrics"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
)

// Store persists interactions and serializes their resolution.
type Store interface {
	Create(ctx context.Context, i *models.Interaction) error
	Get(ctx context.Context, id string, now time.Time) (*models.Interaction, error)
	Resolve(ctx context.Context, id string, res models.Resolution, now time.Time) (*models.Interaction, error)
	RecordLoginFailure(ctx context.Context, id string, now time.Time) error
	Abandon(ctx context.Context, id string, now time.Time) (*models.Interaction, error)
}

type GrantStore interface {
	Save(ctx context.Context, g *models.Grant) (string, error)
	FindLatest(ctx context.Context, accountID, clientID string, now time.Time) (*models.Grant, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	FindActive(ctx context.Context, id string, now time.Time) (*models.Session, error)
}

type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (*account.Account, error)
}

type Clients interface {
	Lookup(ctx context.Context, clientID string) (*models.Client, error)
}

// Responder turns a grant into the client redirect.
type Responder interface {
	Respond(ctx context.Context, g *models.Grant, p models.AuthorizationParams) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event)
}

// Config carries the lifetimes and URL template the coordinator uses.
type Config struct {
	InteractionTTL time.Duration
	SessionTTL     time.Duration
	GrantTTL       time.Duration
	// URLTemplate is the interaction URL; {uuid} is replaced by the id.
	URLTemplate string
	DefaultACR  string
}

func DefaultConfig() Config {
	return Config{
		InteractionTTL: 10 * time.Minute,
		SessionTTL:     14 * 24 * time.Hour,
		GrantTTL:       14 * 24 * time.Hour,
		URLTemplate:    "/interaction/{uuid}",
		DefaultACR:     "1",
	}
}

type Service struct {
	store     Store
	grants    GrantStore
	sessions  SessionStore
	accounts  Accounts
	clients   Clients
	responder Responder
	cfg       Config

	logger  *slog.Logger
	audit   AuditPublisher
	metrics *metrics.Metrics
	clock   func() time.Time
}

type Option func(*Service)

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

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(
	store Store,
	grants GrantStore,
	sessions SessionStore,
	accounts Accounts,
	clients Clients,
	responder Responder,
	cfg Config,
	opts ...Option,
) *Service {
	s := &Service{
		store:     store,
		grants:    grants,
		sessions:  sessions,
		accounts:  accounts,
		clients:   clients,
		responder: responder,
		cfg:       cfg,
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL renders the interaction URL for id.
func (s *Service) URL(id string) string {
	return strings.ReplaceAll(s.cfg.URLTemplate, "{uuid}", id)
}

// translate maps store sentinels onto domain errors.
func translate(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "interaction "+id+" not found")
	case errors.Is(err, sentinel.ErrExpired):
		return dErrors.New(dErrors.CodeExpired, "interaction "+id+" has expired")
	case errors.Is(err, sentinel.ErrAlreadyResolved):
		return dErrors.New(dErrors.CodeAlreadyResolved, "interaction "+id+" is already resolved")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidResolution, "interaction "+id+" cannot be resolved this way")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "interaction "+id+" was modified concurrently")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "interaction store failure")
	}
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, e)
	}
}
