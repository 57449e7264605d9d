package editor

import (
	"context"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/markdown"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/post"
	"github.com/debemdeboas/inkwell/internal/sse"
	"github.com/debemdeboas/inkwell/internal/store"
)

func init() {
	config.AppConfig = config.Default()
}

var testTemplates = fstest.MapFS{
	"templates/layout.html": {Data: []byte(`<title>{{.SiteName}}</title><main>{{template "content" .}}</main>`)},
	"templates/editor.html": {Data: []byte(`{{define "content"}}<div id="editor" data-draft-id="{{.DraftID}}" data-save-url="{{.SaveURL}}">{{.Content}}</div>` +
		`<span id="word-count">{{.WordCount}}</span><img id="avatar" src="{{.Identity.AvatarSrc}}">` +
		`<script type="application/json" id="quill-options">{{.Quill}}</script>{{end}}`)},
	"templates/partials.html": {Data: []byte(`{{define "word-count"}}{{.}}{{end}}` +
		`{{define "preview"}}{{with .Preview}}<pre>{{.Markdown}}</pre>{{.HTML}}{{else}}{{.Empty}}{{end}}{{end}}` +
		`{{define "save-status"}}{{if .OK}}saved:{{.ID}}{{else}}{{.Message}}{{end}}{{end}}`)},
}

func signedIn(uid, name string) *auth.Session {
	sess := auth.NewSession("test-" + uid)
	sess.SignIn(&model.User{UID: model.UserID(uid), DisplayName: model.StringPtr(name)})
	return sess
}

type recordedSave struct {
	user     *model.User
	markdown string
}

// fakeSaver records saves. When gate is set every save blocks until it is closed.
type fakeSaver struct {
	mu      sync.Mutex
	saves   []recordedSave
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeSaver) Save(ctx context.Context, state auth.State, markdown string) (store.DocumentRef, error) {
	var user *model.User
	if state != nil {
		user = state.CurrentUser()
	}

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, recordedSave{user: user, markdown: markdown})
	if f.err != nil {
		return store.DocumentRef{}, f.err
	}
	if user == nil {
		return store.DocumentRef{}, nil
	}
	return store.DocumentRef{Collection: string(user.UID), ID: "doc"}, nil
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

type testEnv struct {
	handler *Handler
	repo    *MemoryRepository
	clients *sse.Clients
	store   *store.MemoryStore
}

// newTestEnv wires the handler to the real converter, gateway and memory store.
func newTestEnv(t *testing.T, policy SavePolicy) *testEnv {
	t.Helper()

	conv := markdown.NewConverter(markdown.Options{CodeLanguage: "javascript"})
	mem := store.NewMemoryStore()
	gateway := post.NewGateway(mem)

	repo := NewMemoryRepository(func(id model.DraftID) *Controller {
		return NewController(id, conv, gateway, WithSavePolicy(policy))
	})
	clients := sse.NewClients()

	h, err := NewHandler(repo, clients, NewAdapter(conv), conv, testTemplates, HandlerOptions{
		Toolbar:     Toolbar{Placeholder: "Write your content here...", CodeLanguage: "javascript"},
		LivePreview: true,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	return &testEnv{handler: h, repo: repo, clients: clients, store: mem}
}
