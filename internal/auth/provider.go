package auth

import (
	"net/http"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/rs/zerolog"
)

// AuthProvider turns request credentials into a signed-in browser session.
type AuthProvider interface {
	// WithHeaderAuthorization resolves the request's credentials, puts the user
	// in the request context and syncs the browser session's State.
	WithHeaderAuthorization() func(http.Handler) http.Handler

	GetUserFromSession(r *http.Request) (*model.User, error)

	EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error)

	HandleWebhookUser(w http.ResponseWriter, r *http.Request)
}

// syncSession mirrors the credentials of this request onto the browser session.
// Listeners only hear about actual changes.
func syncSession(r *http.Request, user *model.User) {
	sess, ok := SessionFromRequest(r)
	if !ok {
		return
	}
	if user == nil {
		sess.SignOut()
		return
	}
	sess.SignIn(user)
}

// userFromContext is the GetUserFromSession shared by providers that put the
// user in the context during WithHeaderAuthorization.
func userFromContext(r *http.Request) (*model.User, error) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		zerolog.Ctx(r.Context()).Debug().Msg("No user found in context")
		return nil, errs.ErrNotAuthenticated
	}
	return user, nil
}

// enforceUser writes a 401 with an HX-Redirect to the login page when the
// request carries no user.
func enforceUser(p AuthProvider, w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	user, err := p.GetUserFromSession(r)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Unauthorized access attempt")

		w.Header().Add(config.HHxRedirect, routes.LoginRedirect(r.URL.Path))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", err
	}
	return user.UID, nil
}
