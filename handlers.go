package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/debemdeboas/inkwell/internal/theme"
	"github.com/debemdeboas/inkwell/internal/util"
)

const robotsTxt = "User-agent: *\nDisallow: /\n"

// withLogger puts a request scoped logger into the context so handlers can
// use zerolog.Ctx.
func withLogger(l zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl := l.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		rl.Debug().Msg("Request")
		next.ServeHTTP(w, r.WithContext(rl.WithContext(r.Context())))
	})
}

func cacheIt(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")

		// Add etag header to response if it's a static file
		if hash, ok := cache.GetStaticHash(r.URL.Path); ok {
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
			w.Header().Set(config.HETag, hash)
		}

		next.ServeHTTP(w, r)
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routes.RobotsPath {
			w.Header().Set("X-Frame-Options", "deny")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
		}

		next.ServeHTTP(w, r)
	})
}

// registerThemeRoutes always serves the syntax stylesheets. The page theme
// toggle is only registered when switching is allowed.
func registerThemeRoutes(mux *http.ServeMux, allowSwitching bool) {
	if allowSwitching {
		mux.HandleFunc("POST "+routes.ThemeToggle, serveThemeToggle)
		mux.HandleFunc("GET "+routes.ThemeOppositeIcon, serveThemeOppositeIcon)
	}
	mux.HandleFunc("POST "+routes.SyntaxThemeSet, serveSyntaxThemeSet)
	mux.HandleFunc("GET "+routes.SyntaxThemeGet, serveSyntaxThemeGet)
}

func serveRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, "text/plain; charset=utf-8")
	w.Write([]byte(robotsTxt))
}

func serveThemeToggle(w http.ResponseWriter, r *http.Request) {
	newTheme := theme.Toggle(theme.GetThemeFromRequest(r))

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieTheme,
		Value:    newTheme,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	syntaxTheme := theme.GetDefaultSyntaxTheme(newTheme)
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && theme.IsSyntaxTheme(cookie.Value) {
		syntaxTheme = cookie.Value
	}

	trigger, err := json.Marshal(map[string]any{
		"themeChanged": map[string]string{
			"value":       newTheme,
			"syntaxTheme": syntaxTheme,
		},
	})
	if err != nil {
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Hx-Trigger", string(trigger))
	w.Header().Set(config.HCType, config.CTypeHTML)
	w.Write([]byte(theme.GetThemeIcon(newTheme)))
}

func serveThemeOppositeIcon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, config.CTypeHTML)
	w.Write([]byte(theme.GetThemeIcon(theme.GetThemeFromRequest(r))))
}

func serveSyntaxThemeSet(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("syntax-theme-select")
	if name == "" {
		http.Error(w, "theme required", http.StatusBadRequest)
		return
	}
	if !theme.IsSyntaxTheme(name) {
		http.Error(w, "unknown theme", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSyntaxTheme,
		Value:    name,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeSyntaxCSS(w, name)
}

func serveSyntaxThemeGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("theme")
	if !theme.IsSyntaxTheme(name) {
		http.NotFound(w, r)
		return
	}
	writeSyntaxCSS(w, name)
}

func writeSyntaxCSS(w http.ResponseWriter, name string) {
	css := []byte(theme.GenerateSyntaxCSS(name))
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(css))
	w.Write(css)
}
