package auth

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/rs/zerolog"
)

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

func writeChallenge(w http.ResponseWriter, challenge []byte) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	json.NewEncoder(w).Encode(challengeResponse{
		Challenge: base64.StdEncoding.EncodeToString(challenge),
	})
}

// Ed25519ChallengeHandler creates an HTTP handler that serves the current challenge
func Ed25519ChallengeHandler(provider *Ed25519AuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		switch r.Method {
		case http.MethodGet:
			writeChallenge(w, provider.GetChallenge())

		case http.MethodPost:
			if err := provider.RefreshChallenge(); err != nil {
				l.Error().Err(err).Msg("Failed to refresh challenge")
				http.Error(w, config.ErrRefreshChallengeFmt, http.StatusInternalServerError)
				return
			}
			writeChallenge(w, provider.GetChallenge())

		default:
			http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		}
	}
}

// Ed25519VerifyHandler checks the signed challenge, stores it in the auth
// cookie and signs the browser session in.
func Ed25519VerifyHandler(provider *Ed25519AuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		if r.Method != http.MethodPost {
			http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		authHeader := r.Header.Get(provider.headerName)
		if authHeader == "" {
			http.Error(w, config.ErrAuthHeaderRequired, http.StatusUnauthorized)
			return
		}

		signature, err := base64.StdEncoding.DecodeString(strings.TrimSpace(authHeader))
		if err != nil {
			l.Error().Err(err).Msg("Failed to decode signature")
			http.Error(w, config.ErrInvalidSignatureFormat, http.StatusUnauthorized)
			return
		}

		if !provider.Verify(signature) {
			l.Warn().Int("signature_len", len(signature)).Msg("Signature verification failed")
			http.Error(w, config.ErrInvalidSignature, http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     provider.cookieName,
			Value:    base64.StdEncoding.EncodeToString(signature),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   r.TLS != nil,
			MaxAge:   3600 * 24, // 24 hours
		})

		owner := provider.owner
		syncSession(r, &owner)
		l.Info().Str("user", string(owner.UID)).Msg("Signed in")

		w.WriteHeader(http.StatusOK)
	}
}

// Ed25519AuthPageHandler serves the authentication page
func Ed25519AuthPageHandler(provider *Ed25519AuthProvider, tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		redirectURL := r.URL.Query().Get("redirect")
		if redirectURL == "" || !strings.HasPrefix(redirectURL, "/") || strings.HasPrefix(redirectURL, "//") {
			redirectURL = "/"
		}

		data := struct {
			SiteName    string
			RedirectURL string
			HeaderName  string
		}{
			SiteName:    config.AppConfig.Site.Name,
			RedirectURL: redirectURL,
			HeaderName:  provider.headerName,
		}

		w.Header().Set(config.HCType, config.CTypeHTML)

		if r.URL.Query().Get("refresh") == "true" {
			w.Header().Set(config.HHxRedirect, routes.AuthLogin)
		}

		if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
			l.Error().Err(err).Msg("Failed to render auth template")
			http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		}
	}
}
