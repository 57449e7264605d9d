package cache

import "html/template"

var syntaxCache = NewCache[string, template.CSS]()

func GetSyntaxCSS(theme string) (template.CSS, bool) {
	return syntaxCache.Get(theme)
}

func SetSyntaxCSS(theme string, css template.CSS) {
	syntaxCache.Set(theme, css)
}

// GetOrSetSyntaxCSS generates the stylesheet for theme at most once.
func GetOrSetSyntaxCSS(theme string, generate func() template.CSS) template.CSS {
	css, _ := syntaxCache.GetOrSet(theme, generate)
	return css
}
