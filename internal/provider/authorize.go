package provider

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/oidc/responder"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
	"oidcprovider/pkg/scope"
)

// AuthorizeRequest is the raw authorization request.
type AuthorizeRequest struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	ResponseMode        string
	Scope               string
	State               string
	Nonce               string
	Prompt              string
	MaxAge              string
	ACRValues           string
	CodeChallenge       string
	CodeChallengeMethod string
	Claims              string
	Request             string
	RequestURI          string
	// SessionID is the browser session cookie value, if any.
	SessionID string
}

// AuthorizeResult holds exactly one of RedirectURL and InteractionURL.
type AuthorizeResult struct {
	RedirectURL    string
	InteractionURL string
	InteractionID  string
}

// Authorize validates the request and either redirects back to the client
// or hands over to an interaction. Failures found before the redirect_uri
// is trusted are returned as errors; later ones become error redirects.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (res *AuthorizeResult, err error) {
	ctx, end := s.observe(ctx, "authorize", attribute.String("oidc.client_id", req.ClientID))
	defer end(&err)

	if req.ClientID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'client_id'")
	}
	c, err := s.clients.Lookup(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if req.RedirectURI == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'redirect_uri'")
	}
	if !c.HasRedirectURI(req.RedirectURI) {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "redirect_uri did not match any of the client's registered redirect_uris")
	}

	rt := models.NormalizeResponseType(req.ResponseType)
	p := models.AuthorizationParams{
		ClientID:     c.ClientID,
		RedirectURI:  req.RedirectURI,
		ResponseType: rt,
		State:        req.State,
	}
	if m := req.ResponseMode; m == models.ResponseModeQuery || m == models.ResponseModeFragment {
		p.ResponseMode = m
	}

	fail := func(code, description string) (*AuthorizeResult, error) {
		s.logger.InfoContext(ctx, "authorization request rejected",
			"client_id", c.ClientID,
			"error", code,
			"error_description", description,
		)
		return &AuthorizeResult{RedirectURL: responder.ErrorRedirect(p, code, description)}, nil
	}

	switch {
	case req.Request != "":
		return fail("request_not_supported", "request objects are not supported")
	case req.RequestURI != "":
		return fail("request_uri_not_supported", "request_uri is not supported")
	case req.ResponseType == "":
		return fail(string(dErrors.CodeInvalidRequest), "missing required parameter 'response_type'")
	case !rt.IsValid():
		return fail(string(dErrors.CodeUnsupportedResponseType), "unsupported response_type requested")
	case !c.SupportsResponseType(rt):
		return fail(string(dErrors.CodeUnauthorizedClient), "requested response_type is not allowed for this client")
	case req.ResponseMode != "" && p.ResponseMode == "":
		return fail(string(dErrors.CodeInvalidRequest), "unsupported response_mode requested")
	case p.ResponseMode == models.ResponseModeQuery && rt.IsImplicit():
		return fail(string(dErrors.CodeInvalidRequest), "response_mode not allowed for this response_type")
	}

	requested := scope.Parse(req.Scope)
	if !scope.Contains(requested, scope.OpenID) {
		return fail(string(dErrors.CodeInvalidScope), "openid scope must be requested")
	}
	p.Scope = s.filterScope(c, requested)

	if rt.HasIDToken() && req.Nonce == "" {
		return fail(string(dErrors.CodeInvalidRequest), "missing required parameter 'nonce'")
	}
	p.Nonce = req.Nonce

	if desc := applyPKCE(&p, c, req); desc != "" {
		return fail(string(dErrors.CodeInvalidRequest), desc)
	}

	prompts, desc := parsePrompt(req.Prompt)
	if desc != "" {
		return fail(string(dErrors.CodeInvalidRequest), desc)
	}
	p.Prompt = prompts

	if req.MaxAge != "" {
		n, err := strconv.Atoi(req.MaxAge)
		if err != nil || n < 0 {
			return fail(string(dErrors.CodeInvalidRequest), "invalid max_age parameter value")
		}
		p.MaxAge = &n
	}
	p.ACRValues = req.ACRValues

	if s.features.ClaimsParameter && req.Claims != "" {
		claims, err := models.ParseClaimsRequest(req.Claims)
		if err != nil {
			return fail(string(dErrors.CodeInvalidRequest), "could not parse the claims parameter JSON")
		}
		p.Claims = claims
	}

	sess, err := s.activeSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	out, err := s.coordinator.Start(ctx, p, sess)
	if err != nil {
		return nil, err
	}
	if out.Interaction != nil {
		return &AuthorizeResult{InteractionURL: out.InteractionURL, InteractionID: out.Interaction.UUID}, nil
	}
	return &AuthorizeResult{RedirectURL: out.RedirectURL}, nil
}

// filterScope drops scopes the provider does not support, scopes the
// client is not registered for, and offline_access for clients that cannot
// redeem refresh tokens.
func (s *Service) filterScope(c *models.Client, requested []string) []string {
	out := make([]string, 0, len(requested))
	for _, v := range c.AllowedScopes(scope.Intersect(requested, s.scopesSupported)) {
		if v == scope.OfflineAccess && !c.CanUseGrant(models.GrantRefreshToken) {
			continue
		}
		out = append(out, v)
	}
	if !scope.Contains(out, scope.OpenID) {
		out = append([]string{scope.OpenID}, out...)
	}
	return out
}

// applyPKCE copies the code challenge into p. Public clients must use PKCE
// for any response type that returns a code.
func applyPKCE(p *models.AuthorizationParams, c *models.Client, req AuthorizeRequest) string {
	if req.CodeChallenge == "" {
		if req.CodeChallengeMethod != "" {
			return "code_challenge_method requires code_challenge"
		}
		if p.ResponseType.HasCode() && c.IsPublic() {
			return "PKCE is required for public clients"
		}
		return ""
	}
	if !p.ResponseType.HasCode() {
		return ""
	}
	method := req.CodeChallengeMethod
	if method == "" {
		method = models.PKCEMethodPlain
	}
	if method != models.PKCEMethodS256 && method != models.PKCEMethodPlain {
		return "not supported value of code_challenge_method"
	}
	if n := len(req.CodeChallenge); n < 43 || n > 128 {
		return "code_challenge must be between 43 and 128 characters"
	}
	p.CodeChallenge = req.CodeChallenge
	p.CodeChallengeMethod = method
	return ""
}

func parsePrompt(raw string) ([]string, string) {
	values := strings.Fields(raw)
	for _, v := range values {
		switch v {
		case models.PromptNone, models.PromptLogin, models.PromptConsent:
		default:
			return nil, "unsupported prompt value requested"
		}
	}
	if len(values) > 1 {
		for _, v := range values {
			if v == models.PromptNone {
				return nil, "prompt none must only be used alone"
			}
		}
	}
	return values, ""
}

// activeSession resolves the session cookie. A missing or expired session
// is not an error.
func (s *Service) activeSession(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.sessions.FindActive(ctx, id, s.clock())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return sess, nil
}

func supportedScopes(mapping map[string][]string) []string {
	all := []string{scope.OpenID, scope.OfflineAccess}
	for s := range mapping {
		all = append(all, s)
	}
	all = scope.Normalize(all)
	sort.Strings(all)
	return all
}
