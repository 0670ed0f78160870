// Package client is the provider's client registry.
package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/config"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
	"oidcprovider/pkg/scope"
	"oidcprovider/pkg/secrets"
)

type Store interface {
	Create(ctx context.Context, c *models.Client) error
	Update(ctx context.Context, c *models.Client) error
	FindByClientID(ctx context.Context, clientID string) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event)
}

// Service validates registrations and resolves client_id to a Client.
type Service struct {
	store  Store
	logger *slog.Logger
	audit  AuditPublisher
	clock  func() time.Time
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

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and stores a client. The client's secret, if any,
// must already be hashed.
func (s *Service) Register(ctx context.Context, c *models.Client) (string, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return "", err
	}
	now := s.clock()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.New(dErrors.CodeInvalidClientConfig, "client_id is already registered")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to register client")
	}
	s.logger.InfoContext(ctx, "client registered", "client_id", c.ClientID, "application_type", c.ApplicationType)
	s.emit(ctx, audit.Event{Action: audit.EventClientRegistered, ClientID: c.ClientID})
	return c.ClientID, nil
}

// Lookup resolves a client_id. Unknown ids yield CodeUnknownClient.
func (s *Service) Lookup(ctx context.Context, clientID string) (*models.Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeUnknownClient, "client_id is required")
	}
	c, err := s.store.FindByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnknownClient, "unknown client")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	return c, nil
}

// Update replaces a registered client after re-validating it. CreatedAt
// is preserved.
func (s *Service) Update(ctx context.Context, c *models.Client) error {
	existing, err := s.Lookup(ctx, c.ClientID)
	if err != nil {
		return err
	}
	if c.ClientSecretHash == "" {
		c.ClientSecretHash = existing.ClientSecretHash
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.clock()
	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnknownClient, "unknown client")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update client")
	}
	s.emit(ctx, audit.Event{Action: audit.EventClientUpdated, ClientID: c.ClientID})
	return nil
}

// RegistrationRequest is the dynamic registration document
// (OpenID Connect Dynamic Client Registration 1.0).
type RegistrationRequest struct {
	RedirectURIs            []string `json:"redirect_uris"`
	PostLogoutRedirectURIs  []string `json:"post_logout_redirect_uris,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ApplicationType         string   `json:"application_type,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
}

// RegisterDynamic generates a client_id (and a secret unless the client
// is public) and registers the client. The clear secret is returned once
// and never stored.
func (s *Service) RegisterDynamic(ctx context.Context, req RegistrationRequest) (*models.Client, string, error) {
	c := clientFromMetadata(uuid.NewString(), req.ClientName, req.RedirectURIs, req.PostLogoutRedirectURIs,
		req.ResponseTypes, req.GrantTypes, req.TokenEndpointAuthMethod, req.ApplicationType, req.Scope)
	c.ApplyDefaults()

	secret := ""
	if !c.IsPublic() {
		var err error
		secret, err = secrets.Generate()
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate client secret")
		}
		c.ClientSecretHash, err = secrets.Hash(secret)
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash client secret")
		}
	}
	if _, err := s.Register(ctx, c); err != nil {
		return nil, "", err
	}
	return c, secret, nil
}

// Authenticate checks the credentials presented at the token endpoint
// against the client's registered method.
func (s *Service) Authenticate(ctx context.Context, clientID, secret string, method models.AuthMethod) (*models.Client, error) {
	c, err := s.Lookup(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c.TokenEndpointAuthMethod != method {
		s.emit(ctx, audit.Event{Action: audit.EventClientAuthFailed, ClientID: clientID, Reason: "auth_method_mismatch"})
		return nil, dErrors.New(dErrors.CodeUnknownClient, "client authentication failed")
	}
	if method == models.AuthMethodNone {
		return c, nil
	}
	if err := secrets.Verify(secret, c.ClientSecretHash); err != nil {
		s.emit(ctx, audit.Event{Action: audit.EventClientAuthFailed, ClientID: clientID, Reason: "bad_secret"})
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeUnknownClient, "client authentication failed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify client secret")
	}
	return c, nil
}

// Seed registers statically configured clients, hashing clear secrets.
// Clients that already exist are left untouched.
func (s *Service) Seed(ctx context.Context, clients []config.ClientConfig) error {
	for _, cc := range clients {
		c := clientFromMetadata(cc.ClientID, cc.ClientName, cc.RedirectURIs, cc.PostLogoutRedirectURIs,
			cc.ResponseTypes, cc.GrantTypes, cc.TokenEndpointAuthMethod, cc.ApplicationType, cc.Scope)
		if cc.ClientSecret != "" {
			hash, err := secrets.Hash(cc.ClientSecret)
			if err != nil {
				return err
			}
			c.ClientSecretHash = hash
		}
		if _, err := s.Lookup(ctx, c.ClientID); err == nil {
			continue
		}
		if _, err := s.Register(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func clientFromMetadata(id, name string, redirects, postLogout, responseTypes, grantTypes []string, authMethod, appType, rawScope string) *models.Client {
	c := &models.Client{
		ClientID:                id,
		ClientName:              name,
		RedirectURIs:            redirects,
		PostLogoutRedirectURIs:  postLogout,
		TokenEndpointAuthMethod: models.AuthMethod(authMethod),
		ApplicationType:         models.ApplicationType(appType),
		Scope:                   scope.Parse(rawScope),
	}
	for _, rt := range responseTypes {
		c.ResponseTypes = append(c.ResponseTypes, models.ResponseType(rt))
	}
	for _, g := range grantTypes {
		c.GrantTypes = append(c.GrantTypes, models.GrantType(g))
	}
	return c
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, e)
	}
}
