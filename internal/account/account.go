// Package account is the end-user directory the provider authenticates
// against and reads claims from.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"oidcprovider/internal/platform/config"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
	"oidcprovider/pkg/scope"
	"oidcprovider/pkg/secrets"
)

// Account is an end-user known to the provider.
type Account struct {
	ID            string
	Email         string
	EmailVerified bool
	PasswordHash  string
	Name          string
	GivenName     string
	FamilyName    string
}

// Attributes lists every claim the account can release.
func (a *Account) Attributes() map[string]any {
	out := map[string]any{
		"sub":            a.ID,
		"email":          a.Email,
		"email_verified": a.EmailVerified,
	}
	if a.Name != "" {
		out["name"] = a.Name
	}
	if a.GivenName != "" {
		out["given_name"] = a.GivenName
	}
	if a.FamilyName != "" {
		out["family_name"] = a.FamilyName
	}
	return out
}

// Claims releases the attributes mapped to the granted scopes, plus any
// explicitly requested claim names the mapping knows about. sub is always
// present.
func (a *Account) Claims(granted []string, mapping map[string][]string, requested ...string) map[string]any {
	attrs := a.Attributes()
	out := map[string]any{"sub": a.ID}
	for _, s := range granted {
		for _, name := range mapping[s] {
			if v, ok := attrs[name]; ok {
				out[name] = v
			}
		}
	}
	supported := SupportedClaims(mapping)
	for _, name := range requested {
		if !scope.Contains(supported, name) {
			continue
		}
		if v, ok := attrs[name]; ok {
			out[name] = v
		}
	}
	return out
}

// SupportedClaims lists the claim names the mapping can release.
func SupportedClaims(mapping map[string][]string) []string {
	var all []string
	for _, names := range mapping {
		all = append(all, names...)
	}
	return scope.Normalize(append([]string{"sub"}, all...))
}

// Store is an in-memory account directory keyed by id and email.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]*Account
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]*Account),
	}
}

// NewStoreFromConfig hashes the configured passwords and loads the
// accounts.
func NewStoreFromConfig(accounts []config.AccountConfig) (*Store, error) {
	s := NewStore()
	for _, ac := range accounts {
		hash, err := secrets.Hash(ac.Password)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", ac.ID, err)
		}
		err = s.Add(&Account{
			ID:            ac.ID,
			Email:         ac.Email,
			EmailVerified: ac.EmailVerified,
			PasswordHash:  hash,
			Name:          ac.Name,
			GivenName:     ac.GivenName,
			FamilyName:    ac.FamilyName,
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Add(a *Account) error {
	if a.ID == "" || a.Email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "account requires id and email")
	}
	email := strings.ToLower(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[a.ID]; exists {
		return fmt.Errorf("account %s: %w", a.ID, sentinel.ErrConflict)
	}
	if _, exists := s.byEmail[email]; exists {
		return fmt.Errorf("account email %s: %w", email, sentinel.ErrConflict)
	}
	s.byID[a.ID] = a
	s.byEmail[email] = a
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return a, nil
}

// Authenticate checks the password. Unknown emails and wrong passwords
// produce the same InvalidCredentials error.
func (s *Store) Authenticate(_ context.Context, email, password string) (*Account, error) {
	s.mu.RLock()
	a, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok || password == "" {
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
	}
	if err := secrets.Verify(password, a.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	return a, nil
}

// IsNotFound reports whether err is the store's missing-account error.
func IsNotFound(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de) && de.Code == dErrors.CodeNotFound
}
