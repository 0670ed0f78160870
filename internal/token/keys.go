package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AlgRS256 = "RS256"
	AlgES256 = "ES256"
)

// SupportedAlgorithms are the id_token signing algorithms the provider
// can be configured with.
var SupportedAlgorithms = []string{AlgRS256, AlgES256}

// Key is one signing key. The zero RetiredAt means active.
type Key struct {
	ID        string
	Algorithm string
	Signer    crypto.Signer
	CreatedAt time.Time
	RetiredAt time.Time
}

func (k *Key) retired(now time.Time) bool {
	return !k.RetiredAt.IsZero() && !now.Before(k.RetiredAt)
}

func (k *Key) method() jwt.SigningMethod {
	if k.Algorithm == AlgES256 {
		return jwt.SigningMethodES256
	}
	return jwt.SigningMethodRS256
}

// NewKey wraps a signer, deriving the kid from the RFC 7638 thumbprint.
func NewKey(signer crypto.Signer, now time.Time) (*Key, error) {
	alg, err := algorithmFor(signer)
	if err != nil {
		return nil, err
	}
	jwk := jose.JSONWebKey{Key: signer.Public()}
	thumb, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("compute key thumbprint: %w", err)
	}
	return &Key{
		ID:        base64.RawURLEncoding.EncodeToString(thumb),
		Algorithm: alg,
		Signer:    signer,
		CreatedAt: now,
	}, nil
}

// GenerateKey creates a fresh key for alg.
func GenerateKey(alg string, now time.Time) (*Key, error) {
	var (
		signer crypto.Signer
		err    error
	)
	switch alg {
	case AlgRS256:
		signer, err = rsa.GenerateKey(rand.Reader, 2048)
	case AlgES256:
		signer, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s key: %w", alg, err)
	}
	return NewKey(signer, now)
}

// LoadKeyFile reads a PEM private key (PKCS1, SEC 1 or PKCS8).
func LoadKeyFile(path string, now time.Time) (*Key, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	signer, err := ParsePEM(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewKey(signer, now)
}

func ParsePEM(raw []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	signer, ok := k.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("private key of type %T cannot sign", k)
	}
	return signer, nil
}

func algorithmFor(signer crypto.Signer) (string, error) {
	switch k := signer.(type) {
	case *rsa.PrivateKey:
		if k.N.BitLen() < 2048 {
			return "", fmt.Errorf("rsa key must be at least 2048 bits")
		}
		return AlgRS256, nil
	case *ecdsa.PrivateKey:
		if k.Curve != elliptic.P256() {
			return "", fmt.Errorf("unsupported EC curve %s", k.Curve.Params().Name)
		}
		return AlgES256, nil
	default:
		return "", fmt.Errorf("unsupported key type %T", signer)
	}
}

// KeySet is the ordered signing key set. The newest active key signs;
// any active key verifies.
type KeySet struct {
	mu   sync.RWMutex
	keys []*Key
}

func NewKeySet(keys ...*Key) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		ks.keys = append([]*Key{k}, ks.keys...)
	}
	return ks
}

// LoadKeySet loads the configured PEM files, oldest first, or generates a
// single key when none are configured.
func LoadKeySet(alg string, files []string, now time.Time) (*KeySet, error) {
	if len(files) == 0 {
		k, err := GenerateKey(alg, now)
		if err != nil {
			return nil, err
		}
		return NewKeySet(k), nil
	}
	keys := make([]*Key, 0, len(files))
	for _, f := range files {
		k, err := LoadKeyFile(f, now)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return NewKeySet(keys...), nil
}

// Rotate makes k the signing key. Older keys keep verifying until retired.
func (ks *KeySet) Rotate(k *Key) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.keys = append([]*Key{k}, ks.keys...)
}

// Retire stops kid from verifying at the given time. The last active key
// cannot be retired.
func (ks *KeySet) Retire(kid string, at time.Time) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	var target *Key
	active := 0
	for _, k := range ks.keys {
		if !k.retired(at) {
			active++
		}
		if k.ID == kid {
			target = k
		}
	}
	if target == nil {
		return fmt.Errorf("unknown key %s", kid)
	}
	if !target.retired(at) && active == 1 {
		return fmt.Errorf("cannot retire the last active key")
	}
	target.RetiredAt = at
	return nil
}

func (ks *KeySet) signing(now time.Time) (*Key, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	for _, k := range ks.keys {
		if !k.retired(now) {
			return k, nil
		}
	}
	return nil, fmt.Errorf("no active signing key")
}

func (ks *KeySet) verifying(kid string, now time.Time) (*Key, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	for _, k := range ks.keys {
		if k.ID == kid {
			return k, !k.retired(now)
		}
	}
	return nil, false
}

// JWKS is the public key set: every key that still verifies.
func (ks *KeySet) JWKS(now time.Time) jose.JSONWebKeySet {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(ks.keys))}
	for _, k := range ks.keys {
		if k.retired(now) {
			continue
		}
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       k.Signer.Public(),
			KeyID:     k.ID,
			Algorithm: k.Algorithm,
			Use:       "sig",
		})
	}
	return set
}

// Algorithms lists the algorithms of the active keys.
func (ks *KeySet) Algorithms(now time.Time) []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, k := range ks.keys {
		if k.retired(now) || seen[k.Algorithm] {
			continue
		}
		seen[k.Algorithm] = true
		out = append(out, k.Algorithm)
	}
	return out
}
