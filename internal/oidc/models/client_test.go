package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oidcprovider/pkg/domain-errors"
)

func fooClient() *Client {
	return &Client{
		ClientID:                "foo",
		RedirectURIs:            []string{"http://localhost:3002/callback"},
		ResponseTypes:           []ResponseType{"token id_token"},
		GrantTypes:              []GrantType{GrantImplicit},
		TokenEndpointAuthMethod: AuthMethodNone,
		ApplicationType:         ApplicationNative,
	}
}

func TestClientValidate(t *testing.T) {
	t.Run("native implicit public client is valid", func(t *testing.T) {
		c := fooClient()
		c.ApplyDefaults()
		require.NoError(t, c.Validate())
		assert.Equal(t, ResponseTypeIDTokenToken, c.ResponseTypes[0])
	})

	t.Run("web implicit public client is rejected", func(t *testing.T) {
		c := fooClient()
		c.ApplicationType = ApplicationWeb
		c.ApplyDefaults()
		err := c.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidClientConfig))
	})

	t.Run("redirect uri with fragment is rejected", func(t *testing.T) {
		c := fooClient()
		c.RedirectURIs = []string{"http://localhost:3002/callback#frag"}
		c.ApplyDefaults()
		assert.True(t, dErrors.HasCode(c.Validate(), dErrors.CodeInvalidClientConfig))
	})

	t.Run("relative redirect uri is rejected", func(t *testing.T) {
		c := fooClient()
		c.RedirectURIs = []string{"/callback"}
		c.ApplyDefaults()
		assert.True(t, dErrors.HasCode(c.Validate(), dErrors.CodeInvalidClientConfig))
	})

	t.Run("response type without its grant is rejected", func(t *testing.T) {
		c := fooClient()
		c.ResponseTypes = []ResponseType{ResponseTypeCode}
		c.ApplyDefaults()
		assert.True(t, dErrors.HasCode(c.Validate(), dErrors.CodeInvalidClientConfig))
	})

	t.Run("public client cannot use client_credentials", func(t *testing.T) {
		c := &Client{
			ClientID:                "svc",
			GrantTypes:              []GrantType{GrantClientCredentials},
			ResponseTypes:           []ResponseType{},
			TokenEndpointAuthMethod: AuthMethodNone,
		}
		c.ApplyDefaults()
		c.ResponseTypes = nil
		assert.True(t, dErrors.HasCode(c.Validate(), dErrors.CodeInvalidClientConfig))
	})

	t.Run("secret auth requires a secret hash", func(t *testing.T) {
		c := &Client{
			ClientID:     "web",
			RedirectURIs: []string{"https://rp.example.com/cb"},
		}
		c.ApplyDefaults()
		assert.True(t, dErrors.HasCode(c.Validate(), dErrors.CodeInvalidClientConfig))

		c.ClientSecretHash = "$2a$10$hash"
		assert.NoError(t, c.Validate())
	})
}

func TestClientRedirectMatching(t *testing.T) {
	c := fooClient()
	assert.True(t, c.HasRedirectURI("http://localhost:3002/callback"))
	assert.False(t, c.HasRedirectURI("http://localhost:3002/callback/"))
	assert.False(t, c.HasRedirectURI("http://LOCALHOST:3002/callback"))
}

func TestResponseTypeNormalization(t *testing.T) {
	assert.Equal(t, ResponseTypeCodeIDTokenToken, NormalizeResponseType("token code id_token"))
	assert.Equal(t, ResponseTypeCode, NormalizeResponseType(" code code "))
	assert.Equal(t, []GrantType{GrantAuthorizationCode, GrantImplicit}, ResponseTypeCodeIDToken.RequiredGrants())
	assert.Equal(t, ResponseModeQuery, ResponseTypeCode.DefaultResponseMode())
	assert.Equal(t, ResponseModeFragment, ResponseTypeIDTokenToken.DefaultResponseMode())
}
