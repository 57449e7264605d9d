package model

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/debemdeboas/inkwell/internal/config"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestUserEqual(t *testing.T) {
	ann := StringPtr("Ann")
	tests := []struct {
		name string
		a, b *User
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", &User{UID: "u1"}, nil, false},
		{"same fields", &User{UID: "u1", DisplayName: ann}, &User{UID: "u1", DisplayName: StringPtr("Ann")}, true},
		{"different name", &User{UID: "u1", DisplayName: ann}, &User{UID: "u1"}, false},
		{"different photo", &User{UID: "u1", PhotoURL: StringPtr("a")}, &User{UID: "u1", PhotoURL: StringPtr("b")}, false},
		{"different uid", &User{UID: "u1"}, &User{UID: "u2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	var signedOut Identity
	if signedOut.SignedIn() || signedOut.Name() != "" {
		t.Errorf("unexpected signed out identity %+v", signedOut)
	}

	id := Identity{ID: "u1", DisplayName: StringPtr("Ann")}
	if !id.SignedIn() || id.Name() != "Ann" {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestIdentityAvatarSrc(t *testing.T) {
	tests := []struct {
		url  string
		want any
	}{
		{"https://x/p.png", "https://x/p.png"},
		{"/static/img/a.png", "/static/img/a.png"},
		{"data:image/png;base64,AAAA", template.URL("data:image/png;base64,AAAA")},
		{"DATA:IMAGE/gif;base64,R0", template.URL("DATA:IMAGE/gif;base64,R0")},
		{"data:text/html,<b>", "data:text/html,<b>"},
	}
	for _, tt := range tests {
		if got := (Identity{AvatarURL: tt.url}).AvatarSrc(); got != tt.want {
			t.Errorf("AvatarSrc(%q) = %#v, want %#v", tt.url, got, tt.want)
		}
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("expected nil for an empty string")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Errorf("StringPtr(\"x\") = %v", p)
	}
}

func TestNewPostRecord(t *testing.T) {
	p := NewPostRecord(&User{UID: "u1", DisplayName: StringPtr("Ann")}, "# Hi", fixedTime)
	if p.AuthorID != "u1" || *p.AuthorName != "Ann" || p.ContentType != ContentTypeBlogPost || p.Body != "# Hi" {
		t.Errorf("unexpected record %+v", p)
	}
	if !p.CreatedAtClient.Equal(fixedTime) || !p.CreatedAt.IsZero() {
		t.Errorf("unexpected times %v / %v", p.CreatedAtClient, p.CreatedAt)
	}
}

func TestPostRecordTitle(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"# Hello\n\nworld", "Hello"},
		{"\n\n  plain first line\nsecond", "plain first line"},
		{"", "Untitled"},
		{"#\n##   \n", "Untitled"},
	}

	for _, tt := range tests {
		p := &PostRecord{Body: tt.body}
		if got := p.Title(); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestNewPageData(t *testing.T) {
	prev := config.AppConfig
	config.AppConfig = config.Default()
	t.Cleanup(func() { config.AppConfig = prev })

	req := httptest.NewRequest(http.MethodGet, "/new/post/edit", nil)
	pd := NewPageData(req, Identity{ID: "u1"})

	if pd.SiteName != "Inkwell" {
		t.Errorf("SiteName = %q", pd.SiteName)
	}
	if !pd.IsEditor() {
		t.Error("expected the editor page")
	}
	if pd.SyntaxTheme != "gruvbox" || pd.SyntaxCSS == "" {
		t.Errorf("unexpected syntax theme %q", pd.SyntaxTheme)
	}
	if pd.Identity.ID != "u1" {
		t.Errorf("Identity = %+v", pd.Identity)
	}
}
