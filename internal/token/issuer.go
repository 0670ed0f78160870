// Package token mints and verifies the provider's signed tokens.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/store/revocation"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/scope"
)

// Revocations answers whether a jti or grant entry has been revoked.
type Revocations interface {
	IsRevoked(ctx context.Context, id string) (bool, error)
}

type Lifetimes struct {
	IDToken      time.Duration
	AccessToken  time.Duration
	RefreshToken time.Duration
}

func DefaultLifetimes() Lifetimes {
	return Lifetimes{
		IDToken:      time.Hour,
		AccessToken:  time.Hour,
		RefreshToken: 14 * 24 * time.Hour,
	}
}

// Claims are the decoded claims of a verified token. Extra carries every
// non-registered claim (account claims on id_tokens).
type Claims struct {
	jwt.RegisteredClaims
	TokenUse models.TokenKind `json:"token_use"`
	GrantID  string           `json:"gid,omitempty"`
	ClientID string           `json:"client_id,omitempty"`
	Scope    string           `json:"scope,omitempty"`
	Nonce    string           `json:"nonce,omitempty"`
	AuthTime *jwt.NumericDate `json:"auth_time,omitempty"`
	ACR      string           `json:"acr,omitempty"`
	AtHash   string           `json:"at_hash,omitempty"`
	CHash    string           `json:"c_hash,omitempty"`
	Extra    map[string]any   `json:"-"`
}

func (c *Claims) UnmarshalJSON(data []byte) error {
	type plain Claims
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range registeredNames {
		delete(all, k)
	}
	*c = Claims(p)
	c.Extra = all
	return nil
}

var registeredNames = []string{
	"iss", "sub", "aud", "exp", "nbf", "iat", "jti",
	"token_use", "gid", "client_id", "scope", "nonce", "auth_time", "acr", "at_hash", "c_hash", "azp",
}

func (c *Claims) Scopes() []string {
	return scope.Parse(c.Scope)
}

// Issuer signs tokens with the key set's current key.
type Issuer struct {
	issuer    string
	keys      *KeySet
	lifetimes Lifetimes
	revoked   Revocations
	clock     func() time.Time
}

type Option func(*Issuer)

func WithLifetimes(l Lifetimes) Option {
	return func(i *Issuer) {
		i.lifetimes = l
	}
}

func WithRevocations(r Revocations) Option {
	return func(i *Issuer) {
		i.revoked = r
	}
}

func WithClock(clock func() time.Time) Option {
	return func(i *Issuer) {
		if clock != nil {
			i.clock = clock
		}
	}
}

func NewIssuer(issuer string, keys *KeySet, opts ...Option) *Issuer {
	i := &Issuer{
		issuer:    issuer,
		keys:      keys,
		lifetimes: DefaultLifetimes(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) Issuer() string { return i.issuer }

func (i *Issuer) Keys() *KeySet { return i.keys }

func (i *Issuer) Lifetimes() Lifetimes { return i.lifetimes }

// IDTokenInput carries what the id_token binds to besides the grant.
type IDTokenInput struct {
	Nonce       string
	AccessToken string
	Code        string
	// Claims are the account claims released for the granted scopes.
	Claims map[string]any
}

func (i *Issuer) IssueIDToken(ctx context.Context, g *models.Grant, in IDTokenInput) (*models.Token, error) {
	now := i.clock()
	claims := jwt.MapClaims{}
	for k, v := range in.Claims {
		claims[k] = v
	}
	i.registered(claims, g, models.TokenKindIDToken, now, i.lifetimes.IDToken)
	claims["azp"] = g.ClientID
	if !g.AuthTime.IsZero() {
		claims["auth_time"] = g.AuthTime.Unix()
	}
	if g.ACR != "" {
		claims["acr"] = g.ACR
	}
	if in.Nonce != "" {
		claims["nonce"] = in.Nonce
	}
	if in.AccessToken != "" {
		claims["at_hash"] = halfHash(in.AccessToken)
	}
	if in.Code != "" {
		claims["c_hash"] = halfHash(in.Code)
	}
	return i.sign(ctx, claims, g, models.TokenKindIDToken, now, i.lifetimes.IDToken)
}

func (i *Issuer) IssueAccessToken(ctx context.Context, g *models.Grant) (*models.Token, error) {
	now := i.clock()
	claims := jwt.MapClaims{}
	i.registered(claims, g, models.TokenKindAccessToken, now, i.lifetimes.AccessToken)
	claims["scope"] = scope.Join(g.Scope)
	return i.sign(ctx, claims, g, models.TokenKindAccessToken, now, i.lifetimes.AccessToken)
}

// IssueRefreshToken mints a refresh token. Callers check RefreshAllowed
// first.
func (i *Issuer) IssueRefreshToken(ctx context.Context, g *models.Grant) (*models.Token, error) {
	now := i.clock()
	claims := jwt.MapClaims{}
	i.registered(claims, g, models.TokenKindRefreshToken, now, i.lifetimes.RefreshToken)
	claims["scope"] = scope.Join(g.Scope)
	return i.sign(ctx, claims, g, models.TokenKindRefreshToken, now, i.lifetimes.RefreshToken)
}

// RefreshAllowed is true when offline_access was granted and the client
// registered the refresh_token grant.
func RefreshAllowed(g *models.Grant, c *models.Client) bool {
	return g.HasScope(scope.OfflineAccess) && c.CanUseGrant(models.GrantRefreshToken)
}

func (i *Issuer) registered(claims jwt.MapClaims, g *models.Grant, kind models.TokenKind, now time.Time, ttl time.Duration) {
	claims["iss"] = i.issuer
	claims["sub"] = g.Subject()
	claims["aud"] = g.ClientID
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	claims["jti"] = uuid.NewString()
	claims["gid"] = g.ID
	claims["client_id"] = g.ClientID
	claims["token_use"] = string(kind)
}

func (i *Issuer) sign(_ context.Context, claims jwt.MapClaims, g *models.Grant, kind models.TokenKind, now time.Time, ttl time.Duration) (*models.Token, error) {
	key, err := i.keys.signing(now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no signing key available")
	}
	t := jwt.NewWithClaims(key.method(), claims)
	t.Header["kid"] = key.ID
	signed, err := t.SignedString(key.Signer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return &models.Token{
		Kind:      kind,
		JTI:       claims["jti"].(string),
		Subject:   g.Subject(),
		Audience:  g.ClientID,
		GrantID:   g.ID,
		KeyID:     key.ID,
		IssuedAt:  time.Unix(now.Unix(), 0),
		ExpiresAt: time.Unix(now.Add(ttl).Unix(), 0),
		Value:     signed,
	}, nil
}

// Verify checks signature, issuer, expiry, kind and revocation. Errors
// carry CodeExpired, CodeBadSignature, CodeRevoked or CodeInvalidToken.
func (i *Issuer) Verify(ctx context.Context, raw string, kind models.TokenKind) (*Claims, error) {
	now := i.clock()
	claims, err := i.parse(raw, kind, now,
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if i.revoked != nil {
		for _, id := range []string{claims.ID, revocation.GrantEntry(claims.GrantID)} {
			revoked, err := i.revoked.IsRevoked(ctx, id)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check revocation")
			}
			if revoked {
				return nil, dErrors.New(dErrors.CodeRevoked, "token has been revoked")
			}
		}
	}
	return claims, nil
}

// VerifyHint checks signature, issuer and kind only. An expired token is
// accepted, as id_token_hint values usually are by logout time.
func (i *Issuer) VerifyHint(_ context.Context, raw string, kind models.TokenKind) (*Claims, error) {
	claims, err := i.parse(raw, kind, i.clock(), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.Issuer != i.issuer {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "token issuer mismatch")
	}
	return claims, nil
}

func (i *Issuer) parse(raw string, kind models.TokenKind, now time.Time, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	opts = append([]jwt.ParserOption{jwt.WithValidMethods(SupportedAlgorithms)}, opts...)
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := i.keys.verifying(kid, now)
		if !ok {
			return nil, errUnknownKey
		}
		if t.Method.Alg() != key.Algorithm {
			return nil, errUnknownKey
		}
		return key.Signer.Public(), nil
	}, opts...)
	if err != nil {
		return nil, verifyError(err)
	}
	if claims.TokenUse != kind {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "token is not a "+string(kind))
	}
	return claims, nil
}

var errUnknownKey = errors.New("signing key is unknown or retired")

func verifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return dErrors.New(dErrors.CodeExpired, "token has expired")
	case errors.Is(err, errUnknownKey),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return dErrors.New(dErrors.CodeBadSignature, "token signature is invalid")
	default:
		return dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}
}

// halfHash is the at_hash/c_hash value: base64url of the left half of the
// SHA-256 digest. Both supported algorithms use SHA-256.
func halfHash(v string) string {
	sum := sha256.Sum256([]byte(v))
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}
