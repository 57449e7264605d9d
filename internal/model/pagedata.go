package model

import (
	"html/template"
	"net/http"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/theme"
)

// PageData carries what the layout template needs on every page.
type PageData struct {
	SiteName        string
	SiteDescription string

	PageURL string

	Theme          string
	ThemeSwitching bool

	SyntaxCSS    template.CSS
	SyntaxTheme  string
	SyntaxThemes []string

	Identity Identity
}

func NewPageData(r *http.Request, identity Identity) *PageData {
	syntaxTheme := theme.GetSyntaxThemeFromRequest(r)
	return &PageData{
		SiteName:        config.AppConfig.Site.Name,
		SiteDescription: config.AppConfig.Site.Description,
		PageURL:         r.URL.Path,
		Theme:           theme.GetThemeFromRequest(r),
		ThemeSwitching:  config.AppConfig.Theme.AllowSwitching,
		SyntaxTheme:     syntaxTheme,
		SyntaxThemes:    theme.GetSyntaxThemes(),
		SyntaxCSS:       theme.GenerateSyntaxCSS(syntaxTheme),
		Identity:        identity,
	}
}

// IsEditor reports whether the page hosts the post editor.
func (pd *PageData) IsEditor() bool {
	return pd.PageURL == "/new/post/edit"
}
