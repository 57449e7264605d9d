package markdown

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Elements the editor toolbar can produce. Anything else is stripped on paste or save.
var allowedElements = []string{
	"p", "br",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"strong", "b", "em", "i", "u", "s", "strike", "del", "code",
	"blockquote", "pre",
	"ol", "ul", "li",
	"sub", "sup",
	"span", "a", "img", "iframe",
}

var (
	reEditorClass = regexp.MustCompile(`^((ql|language)-[a-zA-Z0-9+#-]+)( (ql|language)-[a-zA-Z0-9+#-]+)*$`)
	reColor       = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\([0-9., %]+\)|[a-z]+)$`)
)

// NewPolicy returns the sanitizer that restricts markup to the toolbar's capability set.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowDataURIImages()

	p.AllowElements(allowedElements...)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("src").OnElements("iframe")
	p.AllowAttrs("class").Matching(reEditorClass).Globally()
	p.AllowStyles("color", "background-color").Matching(reColor).OnElements("span")

	return p
}
