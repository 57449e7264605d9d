// Package markdown converts the editor's HTML markup to Markdown.
package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/microcosm-cc/bluemonday"
)

const DefaultCodeLanguage = "javascript"

var (
	reQuillCodeBlock = regexp.MustCompile(`(?s)<pre class="ql-syntax"[^>]*>(.*?)</pre>`)
	reQuillVideo     = regexp.MustCompile(`<iframe[^>]*class="ql-video"[^>]*src="([^"]*)"[^>]*>\s*(?:</iframe>)?`)
	reEmptyParagraph = regexp.MustCompile(`<p>\s*(?:<br\s*/?>)?\s*</p>`)
	reLanguage       = regexp.MustCompile(`^[a-zA-Z0-9+#-]+$`)
)

type Options struct {
	// CodeLanguage tags code blocks, which the editor emits without a language.
	CodeLanguage string
}

// Converter turns editor markup into Markdown. It holds no mutable state,
// so one instance can serve concurrent conversions.
type Converter struct {
	policy       *bluemonday.Policy
	conv         *converter.Converter
	codeLanguage string
}

func NewConverter(opts Options) *Converter {
	lang := opts.CodeLanguage
	if !reLanguage.MatchString(lang) {
		lang = DefaultCodeLanguage
	}

	return &Converter{
		policy: NewPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				strikethrough.NewStrikethroughPlugin(),
			),
		),
		codeLanguage: lang,
	}
}

// Sanitize strips everything outside the editor's capability set.
func (c *Converter) Sanitize(markup string) string {
	return c.policy.Sanitize(markup)
}

func (c *Converter) CodeLanguage() string {
	return c.codeLanguage
}

// Convert is deterministic: the same markup always yields the same Markdown.
func (c *Converter) Convert(markup string) (string, error) {
	prepared := c.Sanitize(c.rewriteQuill(markup))

	md, err := c.conv.ConvertString(prepared)
	if err != nil {
		return "", fmt.Errorf("converting markup to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// rewriteQuill maps Quill-specific constructs onto plain HTML the converter understands.
func (c *Converter) rewriteQuill(markup string) string {
	markup = reQuillCodeBlock.ReplaceAllStringFunc(markup, func(block string) string {
		code := reQuillCodeBlock.FindStringSubmatch(block)[1]
		return `<pre><code class="language-` + c.codeLanguage + `">` + code + `</code></pre>`
	})

	markup = reQuillVideo.ReplaceAllStringFunc(markup, func(frame string) string {
		src := reQuillVideo.FindStringSubmatch(frame)[1]
		return `<p><a href="` + src + `">` + html.EscapeString(html.UnescapeString(src)) + `</a></p>`
	})

	return reEmptyParagraph.ReplaceAllString(markup, "")
}
