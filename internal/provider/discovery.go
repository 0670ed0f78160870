package provider

import (
	"sort"
	"strings"

	"github.com/go-jose/go-jose/v4"

	"oidcprovider/internal/account"
	"oidcprovider/internal/oidc/models"
)

// Endpoint paths, relative to the issuer.
const (
	PathDiscovery     = "/.well-known/openid-configuration"
	PathJWKS          = "/jwks"
	PathAuthorization = "/auth"
	PathToken         = "/token"
	PathIntrospection = "/token/introspection"
	PathRevocation    = "/token/revocation"
	PathUserInfo      = "/me"
	PathRegistration  = "/reg"
	PathEndSession    = "/session/end"
)

// Discovery is the OpenID Provider Metadata document.
type Discovery struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	UserInfoEndpoint                  string   `json:"userinfo_endpoint"`
	IntrospectionEndpoint             string   `json:"introspection_endpoint,omitempty"`
	RevocationEndpoint                string   `json:"revocation_endpoint,omitempty"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	EndSessionEndpoint                string   `json:"end_session_endpoint,omitempty"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ClaimsParameterSupported          bool     `json:"claims_parameter_supported"`
	RequestParameterSupported         bool     `json:"request_parameter_supported"`
	RequestURIParameterSupported      bool     `json:"request_uri_parameter_supported"`
}

// Discovery builds the metadata document. Disabled features are omitted.
func (s *Service) Discovery() Discovery {
	base := strings.TrimSuffix(s.issuer.Issuer(), "/")
	d := Discovery{
		Issuer:                s.issuer.Issuer(),
		AuthorizationEndpoint: base + PathAuthorization,
		TokenEndpoint:         base + PathToken,
		JWKSURI:               base + PathJWKS,
		UserInfoEndpoint:      base + PathUserInfo,
		ScopesSupported:       s.scopesSupported,
		ResponseModesSupported: []string{
			models.ResponseModeQuery,
			models.ResponseModeFragment,
		},
		SubjectTypesSupported:         []string{"public"},
		ClaimsSupported:               account.SupportedClaims(s.claimsMapping),
		CodeChallengeMethodsSupported: []string{models.PKCEMethodS256, models.PKCEMethodPlain},
		ClaimsParameterSupported:      s.features.ClaimsParameter,
	}
	for _, rt := range models.SupportedResponseTypes {
		d.ResponseTypesSupported = append(d.ResponseTypesSupported, string(rt))
	}
	for _, g := range models.SupportedGrantTypes {
		if g == models.GrantClientCredentials && !s.features.ClientCredentials {
			continue
		}
		d.GrantTypesSupported = append(d.GrantTypesSupported, string(g))
	}
	for _, m := range models.SupportedAuthMethods {
		d.TokenEndpointAuthMethodsSupported = append(d.TokenEndpointAuthMethodsSupported, string(m))
	}
	d.IDTokenSigningAlgValuesSupported = s.issuer.Keys().Algorithms(s.clock())
	sort.Strings(d.IDTokenSigningAlgValuesSupported)

	if s.features.Introspection {
		d.IntrospectionEndpoint = base + PathIntrospection
	}
	if s.features.Revocation {
		d.RevocationEndpoint = base + PathRevocation
	}
	if s.features.Registration {
		d.RegistrationEndpoint = base + PathRegistration
	}
	if s.features.SessionManagement {
		d.EndSessionEndpoint = base + PathEndSession
	}
	return d
}

// JWKS is the public signing key set.
func (s *Service) JWKS() jose.JSONWebKeySet {
	return s.issuer.Keys().JWKS(s.clock())
}
