package auth

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"sync"
	"testing"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/model"
)

const testUserID model.UserID = "test-user-123"

func init() {
	if config.AppConfig == nil {
		config.AppConfig = config.Default()
	}
}

func testOwner() model.User {
	return model.User{UID: testUserID, DisplayName: model.StringPtr("Ann")}
}

func newTestKeyPair(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("Failed to marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), priv
}

func newECDSAPublicKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("Failed to marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func newTestProvider(t *testing.T) (*Ed25519AuthProvider, ed25519.PrivateKey) {
	t.Helper()
	pubPEM, priv := newTestKeyPair(t)
	provider, err := NewEd25519AuthProvider(pubPEM, "Authorization", testOwner())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider, priv
}

func withSession(r *http.Request, sess *Session) *http.Request {
	return r.WithContext(ContextWithState(r.Context(), sess))
}

// recorder collects the users a session listener receives.
type recorder struct {
	mu    sync.Mutex
	users []*model.User
}

func (r *recorder) record(u *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
}

func (r *recorder) snapshot() []*model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.User(nil), r.users...)
}
