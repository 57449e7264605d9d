// Package render turns converted Markdown into the editor's preview: rendered
// HTML plus the highlighted Markdown source.
package render

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/theme"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
)

const (
	RendererMmark   = "mmark"
	RendererClassic = "classic"
)

var regexCallout = regexp.MustCompile(`//\s*<<(\d+)>>`)

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	style := styles.Get(highlightTheme)
	formatter := theme.GetFormatter()
	err = formatter.Format(&buf, style, iterator)
	if err != nil {
		return code
	}

	res := html.UnescapeString(buf.String())
	res = regexCallout.ReplaceAllString(res, "<span class=\"callout\">$1</span>")
	return res
}

// renderer reads content.renderer, falling back to mmark before config is loaded.
func renderer() string {
	if config.AppConfig == nil {
		return RendererMmark
	}
	return config.AppConfig.Content.Renderer
}

// RenderMarkdown renders md with the configured renderer. The second value is
// the document's title block for mmark and nil otherwise.
func RenderMarkdown(md []byte, highlightTheme string) ([]byte, any) {
	switch renderer() {
	case RendererClassic:
		return RenderMarkdownClassic(md, highlightTheme), nil
	default:
		return RenderMarkdownMmark(md, highlightTheme)
	}
}

// RenderMarkdownCached renders md once per content and syntax theme.
func RenderMarkdownCached(md []byte, highlightTheme string) ([]byte, any) {
	contentHash := util.ContentHash(md)

	rendered, hit := cache.GetOrRenderMarkdown(contentHash, highlightTheme, func() *cache.RenderedContent {
		out, extra := RenderMarkdown(md, highlightTheme)
		return &cache.RenderedContent{HTML: out, Extra: extra}
	})
	renderLogger.Debug().
		Str("contentHash", contentHash).
		Str("highlightTheme", highlightTheme).
		Bool("hit", hit).
		Msg("Rendered markdown lookup")

	return rendered.HTML, rendered.Extra
}

// codeBlockHook highlights fenced code with chroma and reports whether it
// handled the node.
func codeBlockHook(highlightTheme string) func(w io.Writer, node ast.Node, entering bool) bool {
	return func(w io.Writer, node ast.Node, entering bool) bool {
		code, ok := node.(*ast.CodeBlock)
		if !ok || !entering {
			return false
		}
		var lang string
		if info := code.Info; info != nil {
			lang = string(info)
		}
		highlighted := HighlightCode(string(code.Literal), lang, highlightTheme)
		fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", highlighted)
		return true
	}
}

func RenderMarkdownClassic(md []byte, highlightTheme string) []byte {
	highlight := codeBlockHook(highlightTheme)

	opts := md_html.RendererOptions{
		Flags:    md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if highlight(w, node, entering) {
				return ast.GoToNext, true
			}

			if callout, ok := node.(*ast.Callout); ok && entering {
				fmt.Fprintf(w, "<span class=\"callout\">%s</span>", callout.ID)
				return ast.GoToNext, true
			}

			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.NonBlockingSpace,
	).Parse(md)

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func RenderMarkdownMmark(md []byte, highlightTheme string) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)

	init := mparser.NewInitial("")
	var info *mast.TitleData

	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		ReadIncludeFn: init.ReadInclude,
		Flags:         parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	// A post without a title block leaves info nil.
	if info == nil {
		info = &mast.TitleData{
			Title:    "Untitled",
			Language: "en",
		}
	}

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(info.Language),
	}

	highlight := codeBlockHook(highlightTheme)
	opts := md_html.RendererOptions{
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if highlight(w, node, entering) {
				return ast.GoToNext, true
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), info
}
