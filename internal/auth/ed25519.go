package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/rs/zerolog"
)

// Ed25519AuthProvider implements AuthProvider for a single owner who proves
// possession of an Ed25519 key by signing a server challenge.
type Ed25519AuthProvider struct {
	publicKey  ed25519.PublicKey
	headerName string
	cookieName string
	owner      model.User

	mu        sync.RWMutex
	challenge []byte
}

var _ AuthProvider = (*Ed25519AuthProvider)(nil)

// NewEd25519AuthProvider creates a new Ed25519-based auth provider
func NewEd25519AuthProvider(publicKeyPEM string, headerName string, owner model.User) (*Ed25519AuthProvider, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	publicKey, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("key is not an Ed25519 public key")
	}

	challenge, err := newChallenge()
	if err != nil {
		return nil, err
	}

	return &Ed25519AuthProvider{
		publicKey:  publicKey,
		headerName: headerName,
		cookieName: config.CookieAuthToken,
		owner:      owner,
		challenge:  challenge,
	}, nil
}

func newChallenge() ([]byte, error) {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("failed to generate challenge: %w", err)
	}
	return challenge, nil
}

// Verify reports whether signature signs the current challenge.
func (p *Ed25519AuthProvider) Verify(signature []byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(signature) == ed25519.SignatureSize && ed25519.Verify(p.publicKey, p.challenge, signature)
}

// WithHeaderAuthorization returns middleware that validates Ed25519-signed messages
func (p *Ed25519AuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := zerolog.Ctx(r.Context())

			var signature []byte
			var err error

			// Try header first
			if authHeader := r.Header.Get(p.headerName); p.headerName != "" && authHeader != "" {
				signature, err = base64.StdEncoding.DecodeString(strings.TrimSpace(authHeader))
				if err != nil {
					l.Error().Err(err).Msg("Failed to decode signature from header")
				}
			}

			// If header auth failed, try cookie
			if len(signature) == 0 {
				if cookie, err := r.Cookie(p.cookieName); err == nil && cookie.Value != "" {
					signature, err = base64.StdEncoding.DecodeString(cookie.Value)
					if err != nil {
						l.Error().Err(err).Msg("Failed to decode signature from cookie")
					}
				}
			}

			if len(signature) > 0 && p.Verify(signature) {
				owner := p.owner
				syncSession(r, &owner)
				next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), &owner)))
				return
			}

			// No valid signature (or none provided), proceed without a user
			syncSession(r, nil)
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromSession returns the owner when the request carried a valid signature
func (p *Ed25519AuthProvider) GetUserFromSession(r *http.Request) (*model.User, error) {
	return userFromContext(r)
}

// HandleWebhookUser is a no-op for this simple provider
func (p *Ed25519AuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetChallenge returns the current challenge that needs to be signed
func (p *Ed25519AuthProvider) GetChallenge() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]byte(nil), p.challenge...)
}

// RefreshChallenge generates a new random challenge, invalidating every
// previously issued signature.
func (p *Ed25519AuthProvider) RefreshChallenge() error {
	challenge, err := newChallenge()
	if err != nil {
		authLogger.Error().Err(err).Msg("Failed to generate challenge")
		return err
	}

	p.mu.Lock()
	p.challenge = challenge
	p.mu.Unlock()
	return nil
}

// EnforceUserAndGetID enforces the user and returns the user ID
func (p *Ed25519AuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforceUser(p, w, r)
}
