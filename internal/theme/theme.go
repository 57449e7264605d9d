// Package theme resolves the page and syntax themes of a request and
// generates the chroma stylesheet used by the preview.
package theme

import (
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
)

// Normalize maps the short config names ("light", "dark") and the cookie
// values onto the theme class names. Anything unknown is the default theme.
func Normalize(name string) string {
	switch strings.TrimSuffix(strings.ToLower(name), "-theme") {
	case "light":
		return config.LightTheme
	case "dark":
		return config.DarkTheme
	default:
		return config.DefaultTheme
	}
}

func GetThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieTheme); err == nil {
		return Normalize(cookie.Value)
	}
	return Normalize(config.AppConfig.Theme.Default)
}

// Toggle returns the opposite of theme.
func Toggle(theme string) string {
	if Normalize(theme) == config.DarkTheme {
		return config.LightTheme
	}
	return config.DarkTheme
}

func GetDefaultSyntaxTheme(theme string) string {
	if Normalize(theme) == config.LightTheme {
		return config.AppConfig.Theme.SyntaxHighlighting.DefaultLight
	}
	return config.AppConfig.Theme.SyntaxHighlighting.DefaultDark
}

// GetSyntaxThemeFromRequest ignores cookies naming a style chroma does not know.
func GetSyntaxThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && IsSyntaxTheme(cookie.Value) {
		return cookie.Value
	}
	return GetDefaultSyntaxTheme(GetThemeFromRequest(r))
}

func IsSyntaxTheme(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

func GetSyntaxThemes() []string {
	styleNames := styles.Names()
	slices.Sort(styleNames)
	return styleNames
}

func GetFormatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
}

func GenerateSyntaxCSS(theme string) template.CSS {
	return cache.GetOrSetSyntaxCSS(theme, func() template.CSS {
		var buf strings.Builder
		style := styles.Get(theme)

		bg := style.Get(chroma.Background)
		if !bg.Colour.IsSet() {
			// Light backgrounds without a text colour get a dark one
			luminance := (0.299*float64(bg.Background.Red()) +
				0.587*float64(bg.Background.Green()) +
				0.114*float64(bg.Background.Blue())) / 255
			if luminance > 0.5 {
				buf.WriteString(".chroma { color: #181818; }\n")
			}
		}

		if err := GetFormatter().WriteCSS(&buf, style); err != nil {
			return ""
		}
		return template.CSS(buf.String())
	})
}

func GetThemeIcon(theme string) string {
	if Normalize(theme) == config.LightTheme {
		return config.DarkThemeIcon
	}
	return config.LightThemeIcon
}
