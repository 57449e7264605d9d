package render

import (
	"html/template"

	"github.com/mmarkdown/mmark/v2/mast"
)

// Preview is what the editor shows next to the page: the Markdown a save
// would store, highlighted, and its rendering.
type Preview struct {
	Title    string
	Markdown string
	Source   template.HTML
	HTML     template.HTML
}

// NewPreview renders md for the given syntax theme. Rendering is cached per
// content, highlighting of the source is not.
func NewPreview(md string, syntaxTheme string) *Preview {
	out, extra := RenderMarkdownCached([]byte(md), syntaxTheme)

	p := &Preview{
		Markdown: md,
		HTML:     template.HTML(out),
	}
	if info, ok := extra.(*mast.TitleData); ok && info != nil {
		p.Title = info.Title
	}

	source, err := HighlightMarkdown(md, syntaxTheme)
	if err != nil {
		renderLogger.Warn().Err(err).Msg("Failed to highlight markdown source")
		source = template.HTMLEscapeString(md)
	}
	p.Source = template.HTML(source)

	return p
}
