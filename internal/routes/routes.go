// Package routes defines HTTP route constants for the application.
package routes

import "net/url"

const (
	// Static and assets
	RobotsPath        = "/robots.txt"
	ThemeOppositeIcon = "/theme/opposite-icon"
	ThemeToggle       = "/theme/toggle"
	SyntaxThemeSet    = "/syntax-theme/set"
	SyntaxThemeGet    = "/syntax-theme/{theme}"

	// SSE
	SSEPath = "/sse"

	// Root
	RootPath = "/{$}"

	// Editor routes
	NewPost              = "/new/post"
	NewPostEdit          = "/new/post/edit"
	PartialsDraftChange  = "/partials/draft/change"
	PartialsDraftPreview = "/partials/draft/preview"

	// API
	APIDraftSave = "/api/drafts/{id}/save"

	// Auth routes
	AuthChallenge = "/auth/challenge"
	AuthVerify    = "/auth/verify"
	AuthLogin     = "/auth/login"
	AuthLogout    = "/auth/logout"

	// Webhooks
	WebhookUser = "/webhook/user"
)

// DraftSavePath is the save URL of one draft.
func DraftSavePath(id string) string {
	return "/api/drafts/" + id + "/save"
}

// LoginRedirect is the login page URL that returns to path after sign in.
func LoginRedirect(path string) string {
	return AuthLogin + "?redirect=" + url.QueryEscape(path)
}
