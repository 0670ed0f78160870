package provider

import (
	"context"

	"oidcprovider/internal/client"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/scope"
)

// RegistrationResponse echoes the registered metadata. ClientSecret is only
// ever returned here.
type RegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientSecretExpiresAt   *int64   `json:"client_secret_expires_at,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	PostLogoutRedirectURIs  []string `json:"post_logout_redirect_uris,omitempty"`
	ResponseTypes           []string `json:"response_types"`
	GrantTypes              []string `json:"grant_types"`
	ApplicationType         string   `json:"application_type"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	Scope                   string   `json:"scope,omitempty"`
}

func (s *Service) Register(ctx context.Context, req client.RegistrationRequest) (resp *RegistrationResponse, err error) {
	ctx, end := s.observe(ctx, "register")
	defer end(&err)

	if !s.features.Registration {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration is not enabled")
	}
	c, secret, err := s.clients.RegisterDynamic(ctx, req)
	if err != nil {
		return nil, err
	}
	resp = &RegistrationResponse{
		ClientID:                c.ClientID,
		ClientSecret:            secret,
		ClientIDIssuedAt:        c.CreatedAt.Unix(),
		ClientName:              c.ClientName,
		RedirectURIs:            c.RedirectURIs,
		PostLogoutRedirectURIs:  c.PostLogoutRedirectURIs,
		ApplicationType:         string(c.ApplicationType),
		TokenEndpointAuthMethod: string(c.TokenEndpointAuthMethod),
		Scope:                   scope.Join(c.Scope),
	}
	if secret != "" {
		never := int64(0)
		resp.ClientSecretExpiresAt = &never
	}
	for _, rt := range c.ResponseTypes {
		resp.ResponseTypes = append(resp.ResponseTypes, string(rt))
	}
	for _, g := range c.GrantTypes {
		resp.GrantTypes = append(resp.GrantTypes, string(g))
	}
	return resp, nil
}
