package auth

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// FirebaseSessionCookie is the cookie the page stores the Firebase ID token in.
const FirebaseSessionCookie = "__session"

// FirebaseAuthClient is the part of the Admin SDK auth client the provider uses.
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)
}

// FirebaseAuthProvider verifies Firebase ID tokens with the Admin SDK.
type FirebaseAuthProvider struct {
	client     FirebaseAuthClient
	cookieName string
}

var _ AuthProvider = (*FirebaseAuthProvider)(nil)

func NewFirebaseAuthProvider(ctx context.Context, projectID, credentialsFile string) (*FirebaseAuthProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase auth client: %w", err)
	}

	return NewFirebaseAuthProviderWithClient(client), nil
}

func NewFirebaseAuthProviderWithClient(client FirebaseAuthClient) *FirebaseAuthProvider {
	return &FirebaseAuthProvider{
		client:     client,
		cookieName: FirebaseSessionCookie,
	}
}

func (p *FirebaseAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := p.resolve(r)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("No firebase user")
				syncSession(r, nil)
				next.ServeHTTP(w, r)
				return
			}

			syncSession(r, user)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func (p *FirebaseAuthProvider) resolve(r *http.Request) (*model.User, error) {
	cookie, err := r.Cookie(p.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, fmt.Errorf("no %s cookie", p.cookieName)
	}

	token, err := p.client.VerifyIDToken(r.Context(), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("verifying id token: %w", err)
	}

	record, err := p.client.GetUser(r.Context(), token.UID)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", token.UID, err)
	}

	user := &model.User{UID: model.UserID(token.UID)}
	if record.UserInfo != nil {
		user.DisplayName = model.StringPtr(record.DisplayName)
		user.PhotoURL = model.StringPtr(record.PhotoURL)
	}
	return user, nil
}

func (p *FirebaseAuthProvider) GetUserFromSession(r *http.Request) (*model.User, error) {
	return userFromContext(r)
}

// HandleWebhookUser is a no-op; Firebase profiles are read on every request.
func (p *FirebaseAuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (p *FirebaseAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforceUser(p, w, r)
}
