// Package editor holds the post editor: the toolbar the page builds Quill
// with, the per-draft controller that owns content and runs the save
// pipeline, and the HTTP handlers around them.
package editor

import (
	"encoding/json"
	"html/template"
)

// Formats is every format the toolbar can produce. Quill drops anything
// else, including on paste.
var Formats = []string{
	"header",
	"bold", "italic", "underline", "strike", "code",
	"blockquote", "code-block",
	"list", "bullet",
	"align",
	"color", "background",
	"link", "image", "video",
	"script",
	"indent",
	"direction",
	"size",
}

// SizePresets are the size picker values; false is Quill's normal size.
var SizePresets = []any{"small", false, "large", "huge"}

type ClipboardOptions struct {
	MatchVisual bool `json:"matchVisual"`
}

type Modules struct {
	Toolbar   [][]any          `json:"toolbar"`
	Syntax    bool             `json:"syntax"`
	Clipboard ClipboardOptions `json:"clipboard"`
}

// QuillOptions is handed to the Quill constructor as is.
type QuillOptions struct {
	Theme       string   `json:"theme"`
	Placeholder string   `json:"placeholder"`
	Formats     []string `json:"formats"`
	Modules     Modules  `json:"modules"`
}

type Toolbar struct {
	Placeholder string
	// CodeLanguage tags code blocks that carry no language of their own.
	CodeLanguage string
}

func (t Toolbar) groups() [][]any {
	return [][]any{
		{map[string]any{"header": []any{1, 2, 3, 4, 5, 6, false}}},
		{"bold", "italic", "underline", "strike", "code"},
		{"blockquote", "code-block"},
		{map[string]any{"list": "ordered"}, map[string]any{"list": "bullet"}},
		{map[string]any{"align": []any{}}},
		{map[string]any{"color": []any{}}, map[string]any{"background": []any{}}},
		{"link", "image", "video"},
		{map[string]any{"script": "sub"}, map[string]any{"script": "super"}},
		{map[string]any{"indent": "-1"}, map[string]any{"indent": "+1"}},
		{map[string]any{"direction": "rtl"}},
		{map[string]any{"size": SizePresets}},
		{"clean"},
	}
}

func (t Toolbar) Options() QuillOptions {
	return QuillOptions{
		Theme:       "snow",
		Placeholder: t.Placeholder,
		Formats:     Formats,
		Modules: Modules{
			Toolbar: t.groups(),
			Syntax:  true,
			// Pasted markup keeps its structure, not its rendered look.
			Clipboard: ClipboardOptions{MatchVisual: false},
		},
	}
}

// JS renders the options for a <script> block.
func (t Toolbar) JS() (template.JS, error) {
	raw, err := json.Marshal(t.Options())
	if err != nil {
		return "", err
	}
	return template.JS(raw), nil
}
