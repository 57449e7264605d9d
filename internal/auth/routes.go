package auth

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/rs/zerolog"
)

// RegisterEd25519AuthRoutes registers the challenge/verify login flow
func RegisterEd25519AuthRoutes(mux *http.ServeMux, provider *Ed25519AuthProvider, files fs.FS) error {
	tmpl, err := template.ParseFS(
		files,
		config.TemplatesLocalDir+"/"+config.TemplateLayout,
		config.TemplatesLocalDir+"/"+config.TemplateNameAuth,
	)
	if err != nil {
		return err
	}

	mux.HandleFunc(routes.AuthChallenge, Ed25519ChallengeHandler(provider))
	mux.HandleFunc(routes.AuthVerify, Ed25519VerifyHandler(provider))
	mux.HandleFunc("GET "+routes.AuthLogin, Ed25519AuthPageHandler(provider, tmpl))
	return nil
}

// RegisterLogoutRoute registers POST /auth/logout, which clears the given
// credential cookies and signs the browser session out.
func RegisterLogoutRoute(mux *http.ServeMux, cookieNames ...string) {
	mux.HandleFunc("POST "+routes.AuthLogout, LogoutHandler(cookieNames...))
}

func LogoutHandler(cookieNames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, name := range cookieNames {
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    "",
				Path:     "/",
				HttpOnly: true,
				MaxAge:   -1,
			})
		}

		if sess, ok := SessionFromRequest(r); ok {
			sess.SignOut()
		}
		zerolog.Ctx(r.Context()).Info().Msg("Signed out")

		w.Header().Set(config.HHxRedirect, routes.NewPostEdit)
		w.WriteHeader(http.StatusNoContent)
	}
}
