// Package responder builds authorization responses: it mints whatever the
// response_type asks for and encodes it into the client's redirect.
package responder

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"oidcprovider/internal/account"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/token"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/secrets"
)

type CodeStore interface {
	Create(ctx context.Context, record *models.AuthorizationCodeRecord) error
}

type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*account.Account, error)
}

// Minter is the part of the token issuer the responder needs.
type Minter interface {
	IssueIDToken(ctx context.Context, g *models.Grant, in token.IDTokenInput) (*models.Token, error)
	IssueAccessToken(ctx context.Context, g *models.Grant) (*models.Token, error)
}

type Responder struct {
	minter          Minter
	codes           CodeStore
	accounts        AccountFinder
	claimsMapping   map[string][]string
	claimsParameter bool
	codeTTL         time.Duration
	clock           func() time.Time
}

type Option func(*Responder)

func WithCodeTTL(d time.Duration) Option {
	return func(r *Responder) {
		if d > 0 {
			r.codeTTL = d
		}
	}
}

// WithClaimsParameter enables honoring claims requested through the
// claims authorization parameter.
func WithClaimsParameter(enabled bool) Option {
	return func(r *Responder) {
		r.claimsParameter = enabled
	}
}

func WithClock(clock func() time.Time) Option {
	return func(r *Responder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func New(minter Minter, codes CodeStore, accounts AccountFinder, claimsMapping map[string][]string, opts ...Option) *Responder {
	r := &Responder{
		minter:        minter,
		codes:         codes,
		accounts:      accounts,
		claimsMapping: claimsMapping,
		codeTTL:       time.Minute,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond mints the artifacts the request's response_type names and
// returns the redirect back to the client.
func (r *Responder) Respond(ctx context.Context, g *models.Grant, p models.AuthorizationParams) (string, error) {
	values := url.Values{}
	rt := p.ResponseType
	now := r.clock()

	var code, accessToken string
	if rt.HasCode() {
		var err error
		code, err = secrets.Random(32)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate authorization code")
		}
		record := &models.AuthorizationCodeRecord{
			Code:                code,
			GrantID:             g.ID,
			ClientID:            g.ClientID,
			RedirectURI:         p.RedirectURI,
			Nonce:               p.Nonce,
			CodeChallenge:       p.CodeChallenge,
			CodeChallengeMethod: p.CodeChallengeMethod,
			CreatedAt:           now,
			ExpiresAt:           now.Add(r.codeTTL),
		}
		if err := r.codes.Create(ctx, record); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store authorization code")
		}
		values.Set("code", code)
	}
	if rt.HasToken() {
		at, err := r.minter.IssueAccessToken(ctx, g)
		if err != nil {
			return "", err
		}
		accessToken = at.Value
		values.Set("access_token", at.Value)
		values.Set("token_type", "Bearer")
		values.Set("expires_in", strconv.Itoa(at.ExpiresIn(now)))
	}
	if rt.HasIDToken() {
		claims, err := r.IDTokenClaims(ctx, g)
		if err != nil {
			return "", err
		}
		id, err := r.minter.IssueIDToken(ctx, g, token.IDTokenInput{
			Nonce:       p.Nonce,
			AccessToken: accessToken,
			Code:        code,
			Claims:      claims,
		})
		if err != nil {
			return "", err
		}
		values.Set("id_token", id.Value)
	}
	if p.State != "" {
		values.Set("state", p.State)
	}
	return encode(p.RedirectURI, responseMode(p), values), nil
}

// ErrorRedirect returns the redirect carrying an OAuth error for p.
func ErrorRedirect(p models.AuthorizationParams, code, description string) string {
	values := url.Values{}
	values.Set("error", code)
	if description != "" {
		values.Set("error_description", description)
	}
	if p.State != "" {
		values.Set("state", p.State)
	}
	return encode(p.RedirectURI, responseMode(p), values)
}

// IDTokenClaims releases account claims for the grant's scopes plus any
// claims the id_token section of the claims parameter asks for.
func (r *Responder) IDTokenClaims(ctx context.Context, g *models.Grant) (map[string]any, error) {
	var requested []string
	if r.claimsParameter {
		requested = g.Claims.IDTokenClaims()
	}
	return r.accountClaims(ctx, g, requested)
}

// UserInfoClaims is the userinfo counterpart of IDTokenClaims.
func (r *Responder) UserInfoClaims(ctx context.Context, g *models.Grant) (map[string]any, error) {
	var requested []string
	if r.claimsParameter {
		requested = g.Claims.UserInfoClaims()
	}
	return r.accountClaims(ctx, g, requested)
}

func (r *Responder) accountClaims(ctx context.Context, g *models.Grant, requested []string) (map[string]any, error) {
	if g.AccountID == "" {
		return map[string]any{}, nil
	}
	acct, err := r.accounts.FindByID(ctx, g.AccountID)
	if err != nil {
		if account.IsNotFound(err) {
			return nil, dErrors.New(dErrors.CodeInvalidGrant, "account no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	claims := acct.Claims(g.Scope, r.claimsMapping, requested...)
	delete(claims, "sub")
	return claims, nil
}

func responseMode(p models.AuthorizationParams) string {
	if p.ResponseMode != "" {
		return p.ResponseMode
	}
	return p.ResponseType.DefaultResponseMode()
}

func encode(redirectURI, mode string, values url.Values) string {
	if mode == models.ResponseModeFragment {
		return redirectURI + "#" + values.Encode()
	}
	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}
	return redirectURI + sep + values.Encode()
}
