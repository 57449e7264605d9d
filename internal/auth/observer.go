package auth

import (
	"net/url"
	"strings"
	"sync"

	"github.com/debemdeboas/inkwell/internal/model"
)

const DefaultAvatarPath = "/static/img/default-avatar.svg"

// Observer follows an auth State for the lifetime of one editor view and
// reduces each notification to the Identity the view displays.
type Observer struct {
	defaultAvatar string
	onChange      func(model.Identity)

	mu          sync.Mutex
	closed      bool
	identity    model.Identity
	unsubscribe func()
}

// NewObserver subscribes to state once. onChange receives the current identity
// before NewObserver returns, then every change until Close.
func NewObserver(state State, defaultAvatar string, onChange func(model.Identity)) *Observer {
	if defaultAvatar == "" {
		defaultAvatar = DefaultAvatarPath
	}
	o := &Observer{
		defaultAvatar: defaultAvatar,
		onChange:      onChange,
	}
	o.unsubscribe = state.OnAuthStateChanged(o.notify)
	return o
}

func (o *Observer) notify(user *model.User) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	o.identity = ResolveIdentity(user, o.defaultAvatar)
	if o.onChange != nil {
		o.onChange(o.identity)
	}
}

// Identity returns the latest resolved identity.
func (o *Observer) Identity() model.Identity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.identity
}

// Close unsubscribes. No callback runs once Close has returned.
func (o *Observer) Close() {
	o.mu.Lock()
	o.closed = true
	unsubscribe := o.unsubscribe
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// ResolveIdentity builds the view identity for user. A missing or malformed
// photo URL falls back to defaultAvatar.
func ResolveIdentity(user *model.User, defaultAvatar string) model.Identity {
	if user == nil {
		return model.Identity{AvatarURL: defaultAvatar}
	}

	avatar := defaultAvatar
	if user.PhotoURL != nil && validAvatarURL(*user.PhotoURL) {
		avatar = *user.PhotoURL
	}

	return model.Identity{
		ID:          user.UID,
		DisplayName: user.DisplayName,
		AvatarURL:   avatar,
	}
}

// validAvatarURL accepts http(s) URLs, data:image URLs and relative paths.
func validAvatarURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "//") {
		return false
	}
	if strings.HasPrefix(strings.ToLower(raw), "data:image/") {
		return true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "":
		return u.Host == ""
	default:
		return false
	}
}
