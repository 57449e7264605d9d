// Package model defines core data structures and types for the post editor.
package model

import (
	"html/template"
	"strings"
)

type UserID string

// User is the shape an auth provider reports for a signed-in account.
type User struct {
	UID         UserID
	DisplayName *string
	PhotoURL    *string
}

// Identity is the snapshot the editor view works with.
type Identity struct {
	ID          UserID
	DisplayName *string
	AvatarURL   string
}

func (i Identity) SignedIn() bool {
	return i.ID != ""
}

// AvatarSrc is AvatarURL for an img src attribute. html/template rewrites
// data: URLs, so data:image ones are passed as trusted.
func (i Identity) AvatarSrc() any {
	if strings.HasPrefix(strings.ToLower(i.AvatarURL), "data:image/") {
		return template.URL(i.AvatarURL)
	}
	return i.AvatarURL
}

// Name returns the display name, or an empty string when the provider has none.
func (i Identity) Name() string {
	if i.DisplayName == nil {
		return ""
	}
	return *i.DisplayName
}

// Equal reports whether two users carry the same id and display metadata.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.UID == other.UID &&
		equalStringPtr(u.DisplayName, other.DisplayName) &&
		equalStringPtr(u.PhotoURL, other.PhotoURL)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StringPtr returns nil for empty strings so optional provider fields stay unset.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
