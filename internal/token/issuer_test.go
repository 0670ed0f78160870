package token

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/store/revocation"
	dErrors "oidcprovider/pkg/domain-errors"
)

type IssuerSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	keys   *KeySet
	trl    *revocation.InMemoryTRL
	issuer *Issuer
	grant  *models.Grant
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	k, err := GenerateKey(AlgRS256, s.now)
	s.Require().NoError(err)
	s.keys = NewKeySet(k)
	s.trl = revocation.NewInMemoryTRL(revocation.WithClock(s.clock))
	s.issuer = NewIssuer("http://localhost:3000", s.keys, WithRevocations(s.trl), WithClock(s.clock))
	s.grant = &models.Grant{
		ID:        "g-1",
		AccountID: "acct-1",
		ClientID:  "foo",
		Scope:     []string{"openid", "email"},
		ACR:       "1",
		AuthTime:  s.now.Add(-time.Minute),
	}
}

func (s *IssuerSuite) clock() time.Time { return s.now }

func (s *IssuerSuite) TestIDTokenClaims() {
	at, err := s.issuer.IssueAccessToken(s.ctx, s.grant)
	s.Require().NoError(err)

	id, err := s.issuer.IssueIDToken(s.ctx, s.grant, IDTokenInput{
		Nonce:       "n-0S6",
		AccessToken: at.Value,
		Code:        "code-1",
		Claims:      map[string]any{"email": "user@example.com", "email_verified": true},
	})
	s.Require().NoError(err)
	s.Equal(s.keys.keys[0].ID, id.KeyID)
	s.Equal(3600, id.ExpiresIn(s.now))

	claims, err := s.issuer.Verify(s.ctx, id.Value, models.TokenKindIDToken)
	s.Require().NoError(err)
	s.Equal("acct-1", claims.Subject)
	s.Equal("n-0S6", claims.Nonce)
	s.Equal("1", claims.ACR)
	s.Equal(s.grant.AuthTime.Unix(), claims.AuthTime.Unix())
	s.Equal(expectedHalfHash(at.Value), claims.AtHash)
	s.Equal(expectedHalfHash("code-1"), claims.CHash)
	s.Equal("user@example.com", claims.Extra["email"])
	s.Equal(true, claims.Extra["email_verified"])
	s.NotContains(claims.Extra, "nonce")
}

func (s *IssuerSuite) TestVerifyFailures() {
	at, err := s.issuer.IssueAccessToken(s.ctx, s.grant)
	s.Require().NoError(err)

	s.Run("wrong kind", func() {
		_, err := s.issuer.Verify(s.ctx, at.Value, models.TokenKindRefreshToken)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("malformed", func() {
		_, err := s.issuer.Verify(s.ctx, "not.a.jwt", models.TokenKindAccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("tampered signature", func() {
		_, err := s.issuer.Verify(s.ctx, at.Value[:len(at.Value)-4]+"AAAA", models.TokenKindAccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeBadSignature))
	})

	s.Run("foreign key", func() {
		other, err := GenerateKey(AlgRS256, s.now)
		s.Require().NoError(err)
		foreign := NewIssuer("http://localhost:3000", NewKeySet(other), WithClock(s.clock))
		t, err := foreign.IssueAccessToken(s.ctx, s.grant)
		s.Require().NoError(err)
		_, err = s.issuer.Verify(s.ctx, t.Value, models.TokenKindAccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeBadSignature))
	})

	s.Run("expired", func() {
		s.now = s.now.Add(2 * time.Hour)
		defer func() { s.now = s.now.Add(-2 * time.Hour) }()
		_, err := s.issuer.Verify(s.ctx, at.Value, models.TokenKindAccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeExpired))
	})
}

func (s *IssuerSuite) TestVerifyHint() {
	id, err := s.issuer.IssueIDToken(s.ctx, s.grant, IDTokenInput{})
	s.Require().NoError(err)

	s.Run("expired id_token is accepted", func() {
		s.now = s.now.Add(48 * time.Hour)
		defer func() { s.now = s.now.Add(-48 * time.Hour) }()
		_, err := s.issuer.Verify(s.ctx, id.Value, models.TokenKindIDToken)
		s.True(dErrors.HasCode(err, dErrors.CodeExpired))
		claims, err := s.issuer.VerifyHint(s.ctx, id.Value, models.TokenKindIDToken)
		s.Require().NoError(err)
		s.Equal("foo", claims.ClientID)
	})

	s.Run("tampered signature is rejected", func() {
		_, err := s.issuer.VerifyHint(s.ctx, id.Value[:len(id.Value)-4]+"AAAA", models.TokenKindIDToken)
		s.True(dErrors.HasCode(err, dErrors.CodeBadSignature))
	})

	s.Run("foreign issuer is rejected", func() {
		other := NewIssuer("http://elsewhere", s.issuer.Keys(), WithClock(s.clock))
		t, err := other.IssueIDToken(s.ctx, s.grant, IDTokenInput{})
		s.Require().NoError(err)
		_, err = s.issuer.VerifyHint(s.ctx, t.Value, models.TokenKindIDToken)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("wrong kind is rejected", func() {
		at, err := s.issuer.IssueAccessToken(s.ctx, s.grant)
		s.Require().NoError(err)
		_, err = s.issuer.VerifyHint(s.ctx, at.Value, models.TokenKindIDToken)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})
}

func (s *IssuerSuite) TestRevocation() {
	a, err := s.issuer.IssueAccessToken(s.ctx, s.grant)
	s.Require().NoError(err)
	b, err := s.issuer.IssueAccessToken(s.ctx, s.grant)
	s.Require().NoError(err)

	s.Require().NoError(s.trl.RevokeToken(s.ctx, a.JTI, time.Hour))
	_, err = s.issuer.Verify(s.ctx, a.Value, models.TokenKindAccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeRevoked))
	_, err = s.issuer.Verify(s.ctx, b.Value, models.TokenKindAccessToken)
	s.NoError(err)

	s.Require().NoError(s.trl.RevokeToken(s.ctx, revocation.GrantEntry(s.grant.ID), time.Hour))
	_, err = s.issuer.Verify(s.ctx, b.Value, models.TokenKindAccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeRevoked))
}

func (s *IssuerSuite) TestRotation() {
	old, err := s.issuer.IssueAccessToken(s.ctx, s.grant)
	s.Require().NoError(err)

	next, err := GenerateKey(AlgES256, s.now)
	s.Require().NoError(err)
	s.keys.Rotate(next)

	fresh, err := s.issuer.IssueAccessToken(s.ctx, s.grant)
	s.Require().NoError(err)
	s.Equal(next.ID, fresh.KeyID)
	s.ElementsMatch([]string{AlgES256, AlgRS256}, s.keys.Algorithms(s.now))

	_, err = s.issuer.Verify(s.ctx, old.Value, models.TokenKindAccessToken)
	s.Require().NoError(err, "older active keys keep verifying")
	s.Len(s.keys.JWKS(s.now).Keys, 2)

	s.Require().NoError(s.keys.Retire(old.KeyID, s.now))
	_, err = s.issuer.Verify(s.ctx, old.Value, models.TokenKindAccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeBadSignature))

	jwks := s.keys.JWKS(s.now)
	s.Require().Len(jwks.Keys, 1)
	s.Equal(next.ID, jwks.Keys[0].KeyID)
	s.Equal("sig", jwks.Keys[0].Use)

	s.Error(s.keys.Retire(next.ID, s.now), "last active key stays")
	s.Error(s.keys.Retire("missing", s.now))
}

func (s *IssuerSuite) TestRefreshAllowed() {
	client := &models.Client{
		ClientID:                "rp",
		GrantTypes:              []models.GrantType{models.GrantAuthorizationCode, models.GrantRefreshToken},
		TokenEndpointAuthMethod: models.AuthMethodClientSecretBasic,
	}
	s.False(RefreshAllowed(s.grant, client))
	s.grant.Scope = append(s.grant.Scope, "offline_access")
	s.True(RefreshAllowed(s.grant, client))
	client.GrantTypes = client.GrantTypes[:1]
	s.False(RefreshAllowed(s.grant, client))
}

func TestLoadKeySet(t *testing.T) {
	now := time.Now()
	k, err := GenerateKey(AlgES256, now)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(k.Signer.(*ecdsa.PrivateKey))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "signing.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600))

	ks, err := LoadKeySet(AlgRS256, []string{path}, now)
	require.NoError(t, err)
	jwks := ks.JWKS(now)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, k.ID, jwks.Keys[0].KeyID, "kid is the key thumbprint")

	_, err = LoadKeySet(AlgRS256, []string{filepath.Join(t.TempDir(), "missing.pem")}, now)
	require.Error(t, err)

	generated, err := LoadKeySet(AlgRS256, nil, now)
	require.NoError(t, err)
	require.Equal(t, []string{AlgRS256}, generated.Algorithms(now))

	_, err = GenerateKey("HS256", now)
	require.Error(t, err)
}

func expectedHalfHash(v string) string {
	sum := sha256.Sum256([]byte(v))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}
