package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const sessionKeyID = "auth_session_id"

// SessionStore is the slice of scs.SessionManager the registry needs.
type SessionStore interface {
	GetString(ctx context.Context, key string) string
	Put(ctx context.Context, key string, val interface{})
}

// Sessions maps browser sessions to their auth State. An entry is dropped once
// no request is using it and it has neither a user nor listeners; the browser
// keeps only the session id, so a returning browser gets a fresh signed out
// Session.
type Sessions struct {
	store    SessionStore
	sessions *cache.Cache[string, *Session]

	mu       sync.Mutex
	inFlight map[string]int
}

func NewSessions(store SessionStore) *Sessions {
	return &Sessions{
		store:    store,
		sessions: cache.NewCache[string, *Session](),
		inFlight: make(map[string]int),
	}
}

// Len returns the number of sessions held in memory.
func (s *Sessions) Len() int {
	return s.sessions.Len()
}

// Get returns the session for id, creating it on first use.
func (s *Sessions) Get(id string) *Session {
	sess, _ := s.sessions.GetOrSet(id, func() *Session {
		return NewSession(id)
	})
	return sess
}

func (s *Sessions) acquire(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[id]++
	return s.Get(id)
}

func (s *Sessions) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight[id]--
	if s.inFlight[id] > 0 {
		return
	}
	delete(s.inFlight, id)

	if sess, ok := s.sessions.Get(id); ok && sess.idle() {
		s.sessions.Delete(id)
	}
}

// ForUser returns every open session signed in as uid.
func (s *Sessions) ForUser(uid model.UserID) []*Session {
	var out []*Session
	s.sessions.Range(func(_ string, sess *Session) bool {
		if u := sess.CurrentUser(); u != nil && u.UID == uid {
			out = append(out, sess)
		}
		return true
	})
	return out
}

// Middleware attaches the browser's Session to the request context. It must
// run inside the session manager's LoadAndSave.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := s.store.GetString(ctx, sessionKeyID)
		if id == "" {
			id = uuid.NewString()
			s.store.Put(ctx, sessionKeyID, id)
			zerolog.Ctx(ctx).Debug().Str("session", id).Msg("New browser session")
		}

		sess := s.acquire(id)
		defer s.release(id)

		next.ServeHTTP(w, r.WithContext(ContextWithState(ctx, sess)))
	})
}

// SessionFromRequest returns the Session the middleware attached.
func SessionFromRequest(r *http.Request) (*Session, bool) {
	state, ok := StateFromContext(r.Context())
	if !ok {
		return nil, false
	}
	sess, ok := state.(*Session)
	return sess, ok
}
