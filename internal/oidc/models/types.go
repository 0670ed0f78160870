package models

import (
	"sort"
	"strings"
)

type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantImplicit          GrantType = "implicit"
	GrantClientCredentials GrantType = "client_credentials"
	GrantRefreshToken      GrantType = "refresh_token"
)

// SupportedGrantTypes lists every grant the provider implements.
var SupportedGrantTypes = []GrantType{
	GrantAuthorizationCode,
	GrantImplicit,
	GrantClientCredentials,
	GrantRefreshToken,
}

func (g GrantType) IsValid() bool {
	for _, s := range SupportedGrantTypes {
		if g == s {
			return true
		}
	}
	return false
}

func (g GrantType) String() string { return string(g) }

// RequiresConfidentialClient is true for grants that authenticate the
// client alone; public clients cannot keep the secret they rely on.
func (g GrantType) RequiresConfidentialClient() bool {
	return g == GrantClientCredentials
}

type AuthMethod string

const (
	AuthMethodNone              AuthMethod = "none"
	AuthMethodClientSecretBasic AuthMethod = "client_secret_basic"
	AuthMethodClientSecretPost  AuthMethod = "client_secret_post"
)

var SupportedAuthMethods = []AuthMethod{
	AuthMethodNone,
	AuthMethodClientSecretBasic,
	AuthMethodClientSecretPost,
}

func (m AuthMethod) IsValid() bool {
	switch m {
	case AuthMethodNone, AuthMethodClientSecretBasic, AuthMethodClientSecretPost:
		return true
	}
	return false
}

type ApplicationType string

const (
	ApplicationWeb    ApplicationType = "web"
	ApplicationNative ApplicationType = "native"
)

func (a ApplicationType) IsValid() bool {
	return a == ApplicationWeb || a == ApplicationNative
}

// ResponseType is a normalized, space-separated set of response type
// values. Normalization sorts the parts so "token id_token" and
// "id_token token" compare equal.
type ResponseType string

const (
	ResponseTypeCode             ResponseType = "code"
	ResponseTypeIDToken          ResponseType = "id_token"
	ResponseTypeIDTokenToken     ResponseType = "id_token token"
	ResponseTypeCodeIDToken      ResponseType = "code id_token"
	ResponseTypeCodeToken        ResponseType = "code token"
	ResponseTypeCodeIDTokenToken ResponseType = "code id_token token"
)

const (
	responsePartCode    = "code"
	responsePartIDToken = "id_token"
	responsePartToken   = "token"
)

var SupportedResponseTypes = []ResponseType{
	ResponseTypeCode,
	ResponseTypeIDToken,
	ResponseTypeIDTokenToken,
	ResponseTypeCodeIDToken,
	ResponseTypeCodeToken,
	ResponseTypeCodeIDTokenToken,
}

// NormalizeResponseType sorts and dedupes the parts of raw.
func NormalizeResponseType(raw string) ResponseType {
	parts := strings.Fields(raw)
	sort.Strings(parts)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return ResponseType(strings.Join(out, " "))
}

func (r ResponseType) IsValid() bool {
	for _, s := range SupportedResponseTypes {
		if r == s {
			return true
		}
	}
	return false
}

func (r ResponseType) has(part string) bool {
	for _, p := range strings.Fields(string(r)) {
		if p == part {
			return true
		}
	}
	return false
}

func (r ResponseType) HasCode() bool    { return r.has(responsePartCode) }
func (r ResponseType) HasIDToken() bool { return r.has(responsePartIDToken) }
func (r ResponseType) HasToken() bool   { return r.has(responsePartToken) }

// IsImplicit is true when any token is returned from the authorization
// endpoint.
func (r ResponseType) IsImplicit() bool { return r.HasIDToken() || r.HasToken() }

// RequiredGrants lists the grant types a client must register to use r.
func (r ResponseType) RequiredGrants() []GrantType {
	var grants []GrantType
	if r.HasCode() {
		grants = append(grants, GrantAuthorizationCode)
	}
	if r.IsImplicit() {
		grants = append(grants, GrantImplicit)
	}
	return grants
}

// DefaultResponseMode is query for the pure code flow, fragment otherwise.
func (r ResponseType) DefaultResponseMode() string {
	if r == ResponseTypeCode {
		return ResponseModeQuery
	}
	return ResponseModeFragment
}

const (
	ResponseModeQuery    = "query"
	ResponseModeFragment = "fragment"
)

const (
	PKCEMethodS256  = "S256"
	PKCEMethodPlain = "plain"
)

const (
	PromptNone    = "none"
	PromptLogin   = "login"
	PromptConsent = "consent"
)
