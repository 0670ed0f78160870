package models

import "encoding/json"

// ClaimRequest is an individual claim request from the claims parameter
// (OpenID Connect Core 5.5.1). A nil *ClaimRequest means "requested, no
// constraints".
type ClaimRequest struct {
	Essential bool  `json:"essential,omitempty"`
	Value     any   `json:"value,omitempty"`
	Values    []any `json:"values,omitempty"`
}

// ClaimsRequest is the decoded claims request parameter.
type ClaimsRequest struct {
	UserInfo map[string]*ClaimRequest `json:"userinfo,omitempty"`
	IDToken  map[string]*ClaimRequest `json:"id_token,omitempty"`
}

// ParseClaimsRequest decodes the JSON claims parameter. An empty string
// yields nil.
func ParseClaimsRequest(raw string) (*ClaimsRequest, error) {
	if raw == "" {
		return nil, nil
	}
	var req ClaimsRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// IDTokenClaims lists the claim names requested for the id_token.
func (c *ClaimsRequest) IDTokenClaims() []string {
	if c == nil {
		return nil
	}
	return keys(c.IDToken)
}

// UserInfoClaims lists the claim names requested for userinfo.
func (c *ClaimsRequest) UserInfoClaims() []string {
	if c == nil {
		return nil
	}
	return keys(c.UserInfo)
}

func keys(m map[string]*ClaimRequest) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
