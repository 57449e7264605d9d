package editor

import (
	"strings"
	"testing"

	"github.com/debemdeboas/inkwell/internal/markdown"
)

func TestWordCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"  hello   world  ", 2},
		{"", 1},
		{"   \n\t ", 1},
		{"one", 1},
		{"<p>Hello there</p><p>general</p>", 2},
		{"a\nb\tc d", 4},
	}

	for _, tt := range tests {
		if got := WordCount(tt.content); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestAdapterNormalize(t *testing.T) {
	a := NewAdapter(markdown.NewConverter(markdown.Options{}))

	got := a.Normalize(`<p onclick="x()">Hi <strong>there</strong></p><script>alert(1)</script><table><tr><td>t</td></tr></table>`)
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") || strings.Contains(got, "<table") {
		t.Errorf("Normalize() kept unsupported markup: %q", got)
	}
	if !strings.Contains(got, "<strong>there</strong>") {
		t.Errorf("Normalize() dropped supported markup: %q", got)
	}

	if got := NewAdapter(nil).Normalize("<b>x</b>"); got != "<b>x</b>" {
		t.Errorf("Normalize() without a sanitizer = %q", got)
	}
}
