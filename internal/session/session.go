// Package session configures the browser session manager. The session only
// carries an opaque id; auth state lives server side in auth.Sessions.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

const (
	CookieName      = "inkwell_session"
	DefaultLifetime = 24 * time.Hour
)

// New creates a session manager. With a nil db sessions are kept in memory.
func New(db *sql.DB, lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()

	if db != nil {
		sm.Store = sqlite3store.New(db)
	}

	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	sm.Lifetime = lifetime
	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure

	return sm
}
