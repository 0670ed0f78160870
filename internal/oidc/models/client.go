package models

import (
	"net/url"
	"strings"
	"time"

	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/scope"
)

// Client is the aggregate root for a relying-party registration.
//
// Invariants:
//   - ClientID is non-empty and unique within the registry
//   - RedirectURIs are absolute and carry no fragment
//   - GrantTypes and ResponseTypes are subsets of the supported sets
//   - every ResponseType has its grant type registered
//   - "none" auth is only used by clients that never rely on a secret:
//     no client_credentials, and each response type either returns a code
//     (PKCE enforced at authorize time) or the client is a native app
//   - secret based auth methods carry a ClientSecretHash
type Client struct {
	ClientID                string          `json:"client_id"`
	ClientSecretHash        string          `json:"-"`
	ClientName              string          `json:"client_name,omitempty"`
	RedirectURIs            []string        `json:"redirect_uris"`
	PostLogoutRedirectURIs  []string        `json:"post_logout_redirect_uris,omitempty"`
	GrantTypes              []GrantType     `json:"grant_types"`
	ResponseTypes           []ResponseType  `json:"response_types"`
	TokenEndpointAuthMethod AuthMethod      `json:"token_endpoint_auth_method"`
	ApplicationType         ApplicationType `json:"application_type"`
	Scope                   []string        `json:"scope,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// ApplyDefaults fills the registration defaults from OpenID Connect
// Dynamic Client Registration 1.0 section 2.
func (c *Client) ApplyDefaults() {
	if len(c.GrantTypes) == 0 {
		c.GrantTypes = []GrantType{GrantAuthorizationCode}
	}
	if len(c.ResponseTypes) == 0 {
		c.ResponseTypes = []ResponseType{ResponseTypeCode}
	}
	if c.TokenEndpointAuthMethod == "" {
		c.TokenEndpointAuthMethod = AuthMethodClientSecretBasic
	}
	if c.ApplicationType == "" {
		c.ApplicationType = ApplicationWeb
	}
	for i, rt := range c.ResponseTypes {
		c.ResponseTypes[i] = NormalizeResponseType(string(rt))
	}
	c.Scope = scope.Normalize(c.Scope)
}

// Validate checks the registration invariants. Every failure carries
// CodeInvalidClientConfig.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return invalidConfig("client_id cannot be empty")
	}
	if !c.ApplicationType.IsValid() {
		return invalidConfig("application_type must be web or native")
	}
	for _, g := range c.GrantTypes {
		if !g.IsValid() {
			return invalidConfig("unsupported grant_type " + string(g))
		}
	}
	for _, rt := range c.ResponseTypes {
		if !rt.IsValid() {
			return invalidConfig("unsupported response_type " + string(rt))
		}
		for _, required := range rt.RequiredGrants() {
			if !c.SupportsGrant(required) {
				return invalidConfig("response_type " + string(rt) + " requires grant_type " + string(required))
			}
		}
	}

	usesRedirects := c.SupportsGrant(GrantAuthorizationCode) || c.SupportsGrant(GrantImplicit)
	if usesRedirects && len(c.RedirectURIs) == 0 {
		return invalidConfig("redirect_uris cannot be empty")
	}
	for _, raw := range c.RedirectURIs {
		u, err := parseAbsoluteURI(raw)
		if err != nil {
			return invalidConfig("redirect_uri " + err.Error())
		}
		if c.ApplicationType == ApplicationWeb && c.SupportsGrant(GrantImplicit) {
			if u.Scheme != "https" || u.Hostname() == "localhost" {
				return invalidConfig("implicit web clients must use https redirect_uris not on localhost")
			}
		}
	}
	for _, raw := range c.PostLogoutRedirectURIs {
		if _, err := parseAbsoluteURI(raw); err != nil {
			return invalidConfig("post_logout_redirect_uri " + err.Error())
		}
	}

	if !c.TokenEndpointAuthMethod.IsValid() {
		return invalidConfig("unsupported token_endpoint_auth_method")
	}
	if c.TokenEndpointAuthMethod == AuthMethodNone {
		if c.SupportsGrant(GrantClientCredentials) {
			return invalidConfig("client_credentials requires a confidential client")
		}
		for _, rt := range c.ResponseTypes {
			if !rt.HasCode() && c.ApplicationType != ApplicationNative {
				return invalidConfig("token_endpoint_auth_method none with response_type " + string(rt) + " requires a native application")
			}
		}
	} else if c.ClientSecretHash == "" {
		return invalidConfig("token_endpoint_auth_method " + string(c.TokenEndpointAuthMethod) + " requires a client secret")
	}
	return nil
}

func parseAbsoluteURI(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidClientConfig, "is not a valid URI")
	}
	if !u.IsAbs() {
		return nil, dErrors.New(dErrors.CodeInvalidClientConfig, "must be absolute")
	}
	if u.Fragment != "" || strings.Contains(raw, "#") {
		return nil, dErrors.New(dErrors.CodeInvalidClientConfig, "must not contain a fragment")
	}
	return u, nil
}

func invalidConfig(msg string) error {
	return dErrors.New(dErrors.CodeInvalidClientConfig, msg)
}

// HasRedirectURI performs the exact string comparison required by
// OpenID Connect Core 3.1.2.1.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, r := range c.RedirectURIs {
		if r == uri {
			return true
		}
	}
	return false
}

func (c *Client) HasPostLogoutRedirectURI(uri string) bool {
	for _, r := range c.PostLogoutRedirectURIs {
		if r == uri {
			return true
		}
	}
	return false
}

func (c *Client) SupportsGrant(grant GrantType) bool {
	for _, g := range c.GrantTypes {
		if g == grant {
			return true
		}
	}
	return false
}

func (c *Client) SupportsResponseType(rt ResponseType) bool {
	for _, r := range c.ResponseTypes {
		if r == rt {
			return true
		}
	}
	return false
}

// IsPublic is true for clients that cannot authenticate at the token
// endpoint.
func (c *Client) IsPublic() bool {
	return c.TokenEndpointAuthMethod == AuthMethodNone
}

// CanUseGrant checks registration and confidentiality together.
func (c *Client) CanUseGrant(grant GrantType) bool {
	if !c.SupportsGrant(grant) {
		return false
	}
	if grant.RequiresConfidentialClient() && c.IsPublic() {
		return false
	}
	return true
}

// AllowedScopes filters requested down to the client's registered scope.
// A client without a registered scope may request any supported scope.
func (c *Client) AllowedScopes(requested []string) []string {
	if len(c.Scope) == 0 {
		return requested
	}
	return scope.Intersect(requested, c.Scope)
}
