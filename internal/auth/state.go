package auth

import (
	"sync"

	"github.com/debemdeboas/inkwell/internal/model"
)

// State is the auth capability the editor consumes. It is injected per browser
// session rather than read from a process-wide singleton.
type State interface {
	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *model.User

	// OnAuthStateChanged registers fn and immediately calls it with the current
	// user. The returned func unsubscribes and is safe to call more than once.
	OnAuthStateChanged(fn func(*model.User)) (unsubscribe func())
}

// Session is the auth state of one browser session. Notifications are delivered
// in emission order; listeners must not call back into the session.
type Session struct {
	id string

	deliver sync.Mutex // serializes notifications

	mu        sync.RWMutex
	user      *model.User
	listeners map[uint64]func(*model.User)
	nextID    uint64
}

var _ State = (*Session)(nil)

func NewSession(id string) *Session {
	return &Session{
		id:        id,
		listeners: make(map[uint64]func(*model.User)),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

func (s *Session) OnAuthStateChanged(fn func(*model.User)) func() {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := copyUser(s.user)
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// idle reports whether nothing observes the session and nobody is signed in.
func (s *Session) idle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user == nil && len(s.listeners) == 0
}

// SignIn records user as the session's identity. Listeners are notified only
// when the identity or its display metadata changed.
func (s *Session) SignIn(user *model.User) {
	s.set(copyUser(user))
}

func (s *Session) SignOut() {
	s.set(nil)
}

func (s *Session) set(user *model.User) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	if s.user.Equal(user) {
		s.mu.Unlock()
		return
	}
	s.user = user
	listeners := make([]func(*model.User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	authLogger.Debug().
		Str("session", s.id).
		Bool("signed_in", user != nil).
		Int("listeners", len(listeners)).
		Msg("Auth state changed")

	for _, fn := range listeners {
		fn(copyUser(user))
	}
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
