package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/model"
	svix "github.com/svix/svix-webhooks/go"
)

func strPtr(s string) *string { return &s }

func newTestWebhook(t *testing.T) *svix.Webhook {
	t.Helper()
	key := make([]byte, 24)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	wh, err := svix.NewWebhook("whsec_" + base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("Failed to create webhook: %v", err)
	}
	return wh
}

// signedWebhookRequest builds a webhook request carrying Svix signature headers.
func signedWebhookRequest(t *testing.T, wh *svix.Webhook, body string) *http.Request {
	t.Helper()
	now := time.Now()
	sig, err := wh.Sign("msg_1", now, []byte(body))
	if err != nil {
		t.Fatalf("Failed to sign payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/user", strings.NewReader(body))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("svix-signature", sig)
	return req
}

func newTestClerkProvider(t *testing.T) (*ClerkAuthProvider, db.DB) {
	t.Helper()
	database := db.NewSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err := database.InitDB(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return &ClerkAuthProvider{
		db:       database,
		sessions: NewSessions(scs.New()),
		users:    cache.NewCache[string, *model.User](),
		webhook:  newTestWebhook(t),
		getUser: func(ctx context.Context, id string) (*clerk.User, error) {
			return nil, errors.New("unexpected clerk call")
		},
	}, database
}

func TestClerkUserToModel(t *testing.T) {
	testCases := []struct {
		name      string
		user      clerk.User
		wantName  string
		wantPhoto string
	}{
		{
			name:      "First and last name",
			user:      clerk.User{ID: "user_1", FirstName: strPtr("Ann"), LastName: strPtr("Lee"), ImageURL: strPtr("https://img.clerk.com/a")},
			wantName:  "Ann Lee",
			wantPhoto: "https://img.clerk.com/a",
		},
		{name: "Username fallback", user: clerk.User{ID: "user_1", Username: strPtr("ann")}, wantName: "ann"},
		{name: "Nothing set", user: clerk.User{ID: "user_1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := clerkUserToModel(&tc.user)
			if got.UID != "user_1" {
				t.Errorf("Expected uid user_1, got %s", got.UID)
			}
			if name := (model.Identity{DisplayName: got.DisplayName}).Name(); name != tc.wantName {
				t.Errorf("Expected name %q, got %q", tc.wantName, name)
			}
			if tc.wantPhoto == "" && got.PhotoURL != nil {
				t.Errorf("Expected no photo, got %q", *got.PhotoURL)
			}
			if tc.wantPhoto != "" && (got.PhotoURL == nil || *got.PhotoURL != tc.wantPhoto) {
				t.Errorf("Expected photo %q, got %v", tc.wantPhoto, got.PhotoURL)
			}
		})
	}
}

func TestClerkAuthProvider_LookupUserCaches(t *testing.T) {
	provider, _ := newTestClerkProvider(t)
	calls := 0
	provider.getUser = func(ctx context.Context, id string) (*clerk.User, error) {
		calls++
		return &clerk.User{ID: id, FirstName: strPtr("Ann")}, nil
	}

	for i := 0; i < 3; i++ {
		u, err := provider.lookupUser(context.Background(), "user_1")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if u.UID != "user_1" {
			t.Errorf("Expected user_1, got %s", u.UID)
		}
	}
	if calls != 1 {
		t.Errorf("Expected one Clerk call, got %d", calls)
	}
}

func TestClerkAuthProvider_HandleWebhookUser(t *testing.T) {
	provider, database := newTestClerkProvider(t)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		provider.HandleWebhookUser(rec, signedWebhookRequest(t, provider.webhook.(*svix.Webhook), body))
		return rec
	}

	countUsers := func() int {
		var n int
		if err := database.Get().QueryRow("SELECT COUNT(*) FROM users WHERE id = 'user_1'").Scan(&n); err != nil {
			t.Fatalf("Failed to count users: %v", err)
		}
		return n
	}

	t.Run("Created", func(t *testing.T) {
		rec := post(`{"type":"user.created","data":{"id":"user_1","username":"ann","first_name":"Ann"}}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
		}
		if countUsers() != 1 {
			t.Error("Expected the user row to be stored")
		}
		if _, ok := provider.users.Get("user_1"); !ok {
			t.Error("Expected the profile to be cached")
		}
	})

	t.Run("Created twice conflicts", func(t *testing.T) {
		rec := post(`{"type":"user.created","data":{"id":"user_1","username":"ann"}}`)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
	})

	t.Run("Updated refreshes open sessions", func(t *testing.T) {
		sess := provider.sessions.Get("browser-1")
		sess.SignIn(&model.User{UID: "user_1", DisplayName: strPtr("Ann")})

		rec := post(`{"type":"user.updated","data":{"id":"user_1","first_name":"Annie","image_url":"https://img.clerk.com/b"}}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("Expected status %d, got %d", http.StatusNoContent, rec.Code)
		}

		u := sess.CurrentUser()
		if u == nil || u.DisplayName == nil || *u.DisplayName != "Annie" {
			t.Errorf("Expected refreshed display name, got %+v", u)
		}
		if u != nil && (u.PhotoURL == nil || *u.PhotoURL != "https://img.clerk.com/b") {
			t.Errorf("Expected refreshed photo, got %v", u.PhotoURL)
		}
	})

	t.Run("Deleted signs sessions out", func(t *testing.T) {
		sess := provider.sessions.Get("browser-1")

		rec := post(`{"type":"user.deleted","data":{"id":"user_1"}}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("Expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if countUsers() != 0 {
			t.Error("Expected the user row to be removed")
		}
		if sess.CurrentUser() != nil {
			t.Error("Expected the session to be signed out")
		}
		if _, ok := provider.users.Get("user_1"); ok {
			t.Error("Expected the cached profile to be dropped")
		}
	})

	t.Run("Bad requests", func(t *testing.T) {
		for _, body := range []string{
			`not json`,
			`{"type":"user.created","data":{}}`,
			`{"type":"session.created","data":{"id":"user_1"}}`,
		} {
			if rec := post(body); rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status %d for %s, got %d", http.StatusBadRequest, body, rec.Code)
			}
		}
	})
}

func TestClerkAuthProvider_WebhookRequiresSignature(t *testing.T) {
	provider, _ := newTestClerkProvider(t)
	sess := provider.sessions.Get("victim")
	sess.SignIn(&model.User{UID: "user_victim", DisplayName: strPtr("Victim")})

	body := `{"type":"user.updated","data":{"id":"user_victim","first_name":"Mallory","image_url":"https://evil/x.png"}}`

	unsigned := httptest.NewRequest(http.MethodPost, "/webhook/user", strings.NewReader(body))

	forged := signedWebhookRequest(t, newTestWebhook(t), body)

	tampered := signedWebhookRequest(t, provider.webhook.(*svix.Webhook), `{"type":"user.deleted","data":{"id":"other"}}`)
	tampered.Body = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)).Body

	testCases := []struct {
		name string
		req  *http.Request
	}{
		{"Unsigned", unsigned},
		{"Signed with another secret", forged},
		{"Body swapped after signing", tampered},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			provider.HandleWebhookUser(rec, tc.req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("Expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}

	if _, ok := provider.users.Get("user_victim"); ok {
		t.Error("Expected no cached profile from a rejected webhook")
	}
	if u := sess.CurrentUser(); u == nil || *u.DisplayName != "Victim" {
		t.Errorf("Expected the session to keep its identity, got %+v", u)
	}

	t.Run("No secret configured", func(t *testing.T) {
		provider.webhook = nil
		rec := httptest.NewRecorder()
		provider.HandleWebhookUser(rec, signedWebhookRequest(t, newTestWebhook(t), body))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})
}

func TestNewClerkAuthProvider_InvalidSecret(t *testing.T) {
	if _, err := NewClerkAuthProvider("sk_test", "whsec_%%%", nil, NewSessions(scs.New())); err == nil {
		t.Error("Expected an error for a malformed webhook secret")
	}
}

func TestClerkAuthProvider_WithoutClaims(t *testing.T) {
	provider, _ := newTestClerkProvider(t)
	sess := NewSession("s1")
	owner := testOwner()
	sess.SignIn(&owner)

	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = UserFromContext(r.Context())
	})

	provider.WithHeaderAuthorization()(next).ServeHTTP(httptest.NewRecorder(),
		withSession(httptest.NewRequest(http.MethodGet, "/", nil), sess))

	if found {
		t.Error("Expected no user without a Clerk session")
	}
	if sess.CurrentUser() != nil {
		t.Error("Expected the session to be signed out")
	}
}
