package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/rs/zerolog"
	svix "github.com/svix/svix-webhooks/go"
)

const ClerkSessionCookie = "__session"

const maxWebhookBody = 1 << 20

// WebhookVerifier checks the signature headers Clerk sends with every webhook.
// *svix.Webhook implements it.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// ClerkAuthProvider resolves users from Clerk session JWTs. Profiles are cached
// per user id and refreshed by the user webhook.
type ClerkAuthProvider struct {
	db       db.DB
	sessions *Sessions
	users    *cache.Cache[string, *model.User]

	// webhook is nil when no signing secret is configured; every webhook is
	// then rejected.
	webhook WebhookVerifier

	getUser         func(ctx context.Context, id string) (*clerk.User, error)
	cookieExtractor clerkhttp.AuthorizationOption
}

var _ AuthProvider = (*ClerkAuthProvider)(nil)

// NewClerkAuthProvider creates the provider. webhookSecret is the Svix signing
// secret ("whsec_...") of the user webhook endpoint.
func NewClerkAuthProvider(clerkKey, webhookSecret string, database db.DB, sessions *Sessions) (*ClerkAuthProvider, error) {
	clerk.SetKey(clerkKey)

	var webhook WebhookVerifier
	if webhookSecret != "" {
		wh, err := svix.NewWebhook(webhookSecret)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook secret: %w", err)
		}
		webhook = wh
	} else {
		authLogger.Warn().Msg("No Clerk webhook secret, user webhooks will be rejected")
	}

	return &ClerkAuthProvider{
		db:       database,
		sessions: sessions,
		users:    cache.NewCache[string, *model.User](),
		webhook:  webhook,
		getUser:  clerkuser.Get,
		cookieExtractor: clerkhttp.AuthorizationJWTExtractor(func(r *http.Request) string {
			cookie, err := r.Cookie(ClerkSessionCookie)
			if err != nil || cookie == nil {
				return ""
			}
			return cookie.Value
		}),
	}, nil
}

// clerkUserToModel maps a Clerk profile onto the editor's user shape.
func clerkUserToModel(u *clerk.User) *model.User {
	var parts []string
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}

	name := strings.Join(parts, " ")
	if name == "" && u.Username != nil {
		name = *u.Username
	}

	user := &model.User{
		UID:         model.UserID(u.ID),
		DisplayName: model.StringPtr(name),
	}
	if u.ImageURL != nil {
		user.PhotoURL = model.StringPtr(*u.ImageURL)
	}
	return user
}

func (c *ClerkAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		resolve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := c.GetUserFromSession(r)
			if err != nil {
				syncSession(r, nil)
				next.ServeHTTP(w, r)
				return
			}

			syncSession(r, user)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
		return clerkhttp.WithHeaderAuthorization(c.cookieExtractor)(resolve)
	}
}

func (c *ClerkAuthProvider) GetUserFromSession(r *http.Request) (*model.User, error) {
	if user, ok := UserFromContext(r.Context()); ok {
		return user, nil
	}

	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok {
		return nil, errors.New("failed to get session claims from context")
	}

	return c.lookupUser(r.Context(), claims.Subject)
}

func (c *ClerkAuthProvider) lookupUser(ctx context.Context, id string) (*model.User, error) {
	if user, ok := c.users.Get(id); ok {
		return user, nil
	}

	usr, err := c.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user := clerkUserToModel(usr)
	c.users.Set(id, user)
	return user, nil
}

func (c *ClerkAuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	type EventPayload struct {
		Data struct {
			clerk.User
		} `json:"data"`

		Type string `json:"type"`
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		l.Error().Err(err).Msg("Error reading event payload")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if c.webhook == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := c.webhook.Verify(body, r.Header); err != nil {
		l.Warn().Err(err).Msg("Rejected unsigned or forged webhook")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload EventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		l.Error().Err(err).Msg("Error decoding event payload")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	usr := payload.Data.User
	if usr.ID == "" {
		http.Error(w, "Missing user id", http.StatusBadRequest)
		return
	}
	el := l.With().Str("event", payload.Type).Str("user", usr.ID).Logger()

	switch payload.Type {
	case "user.created":
		user := clerkUserToModel(&usr)

		username := usr.ID
		if usr.Username != nil && *usr.Username != "" {
			username = *usr.Username
		}

		if _, err := c.db.Exec("INSERT INTO users (id, username) VALUES (?, ?)", usr.ID, username); err != nil {
			el.Error().Err(err).Msg("Error inserting user")
			http.Error(w, "Error saving user", http.StatusInternalServerError)
			return
		}

		c.users.Set(usr.ID, user)
		el.Info().Msg("User created")
		w.WriteHeader(http.StatusCreated)

	case "user.updated":
		user := clerkUserToModel(&usr)
		c.users.Set(usr.ID, user)

		sessions := c.sessions.ForUser(user.UID)
		for _, sess := range sessions {
			sess.SignIn(user)
		}

		el.Info().Int("sessions", len(sessions)).Msg("User updated")
		w.WriteHeader(http.StatusNoContent)

	case "user.deleted":
		if _, err := c.db.Exec("DELETE FROM users WHERE id = ?", usr.ID); err != nil {
			el.Error().Err(err).Msg("Error deleting user")
			http.Error(w, "Error deleting user", http.StatusInternalServerError)
			return
		}

		c.users.Delete(usr.ID)
		for _, sess := range c.sessions.ForUser(model.UserID(usr.ID)) {
			sess.SignOut()
		}

		el.Info().Msg("User deleted")
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Invalid event type", http.StatusBadRequest)
	}
}

func (c *ClerkAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforceUser(c, w, r)
}
