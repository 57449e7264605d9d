package editor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/debemdeboas/inkwell/internal/sse"
	"github.com/debemdeboas/inkwell/internal/store"
)

// withState serves h with state attached the way the session middleware does.
func withState(h http.Handler, state auth.State) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if state != nil {
			r = r.WithContext(auth.ContextWithState(r.Context(), state))
		}
		h.ServeHTTP(w, r)
	})
}

func (e *testEnv) mux(state auth.State) http.Handler {
	mux := http.NewServeMux()
	e.handler.Register(mux)
	return withState(mux, state)
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// saveForm posts to the save route of id from the browser that holds its cookie.
func saveForm(id model.DraftID, values url.Values) *http.Request {
	req := postForm(routes.DraftSavePath(string(id)), values)
	req.AddCookie(&http.Cookie{Name: config.CookieDraftID, Value: string(id)})
	return req
}

func draftCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.CookieDraftID {
			return c
		}
	}
	return nil
}

func TestServeEditorCreatesDraft(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	mux := env.mux(signedIn("u1", "Ann"))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routes.NewPostEdit, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	cookie := draftCookie(rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a draft cookie")
	}
	if _, err := env.repo.GetDraft(model.DraftID(cookie.Value)); err != nil {
		t.Errorf("draft not stored: %v", err)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`data-draft-id="` + cookie.Value + `"`,
		routes.DraftSavePath(cookie.Value),
		`<span id="word-count">1</span>`,
		`src="` + auth.DefaultAvatarPath + `"`,
		`"matchVisual":false`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("editor page missing %q", want)
		}
	}
}

func TestServeEditorInlineAvatar(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	sess := auth.NewSession("browser")
	sess.SignIn(&model.User{UID: "u1", PhotoURL: model.StringPtr("data:image/png;base64,AAAA")})

	rec := httptest.NewRecorder()
	env.mux(sess).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routes.NewPostEdit, nil))

	if !strings.Contains(rec.Body.String(), `src="data:image/png;base64,AAAA"`) {
		t.Errorf("expected the inline avatar, got %q", rec.Body.String())
	}
}

func TestServeEditorReusesDraft(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	ctrl, _ := env.repo.CreateDraft()
	ctrl.SetContent("<p>kept content</p>")

	req := httptest.NewRequest(http.MethodGet, routes.NewPostEdit, nil)
	req.AddCookie(&http.Cookie{Name: config.CookieDraftID, Value: string(ctrl.ID())})
	rec := httptest.NewRecorder()
	env.mux(nil).ServeHTTP(rec, req)

	if draftCookie(rec) != nil {
		t.Error("an existing draft should not get a new cookie")
	}
	if !strings.Contains(rec.Body.String(), "<p>kept content</p>") {
		t.Errorf("expected the draft content, got %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `<span id="word-count">2</span>`) {
		t.Errorf("expected word count 2, got %q", rec.Body.String())
	}
}

func TestServeNewPostDropsDraft(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	ctrl, _ := env.repo.CreateDraft()

	req := httptest.NewRequest(http.MethodGet, routes.NewPost, nil)
	req.AddCookie(&http.Cookie{Name: config.CookieDraftID, Value: string(ctrl.ID())})
	rec := httptest.NewRecorder()
	env.mux(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != routes.NewPostEdit {
		t.Errorf("unexpected redirect %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, err := env.repo.GetDraft(ctrl.ID()); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected the draft to be dropped, got %v", err)
	}
	if c := draftCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected the draft cookie to be cleared, got %+v", c)
	}
}

func TestRootRedirectsToEditor(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	rec := httptest.NewRecorder()
	env.mux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != routes.NewPostEdit {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestServeChange(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	ctrl, _ := env.repo.CreateDraft()

	rec := httptest.NewRecorder()
	env.mux(nil).ServeHTTP(rec, postForm(routes.PartialsDraftChange, url.Values{
		config.CookieDraftID: {string(ctrl.ID())},
		"content":            {`<p>hello   world</p><script>alert(1)</script>`},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "2" {
		t.Errorf("word count = %q, want 2", rec.Body.String())
	}
	if strings.Contains(ctrl.Content(), "script") {
		t.Errorf("content was not normalized: %q", ctrl.Content())
	}
}

func TestServeChangeUnknownDraft(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)

	rec := httptest.NewRecorder()
	env.mux(nil).ServeHTTP(rec, postForm(routes.PartialsDraftChange, url.Values{
		config.CookieDraftID: {"missing"},
		"content":            {"<p>x</p>"},
	}))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServePreview(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	ctrl, _ := env.repo.CreateDraft()

	t.Run("empty draft", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.mux(nil).ServeHTTP(rec, postForm(routes.PartialsDraftPreview, url.Values{
			config.CookieDraftID: {string(ctrl.ID())},
		}))
		if rec.Body.String() != emptyPreview {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("with content", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.mux(nil).ServeHTTP(rec, postForm(routes.PartialsDraftPreview, url.Values{
			config.CookieDraftID: {string(ctrl.ID())},
			"content":            {"<h2>Title</h2><p><strong>bold</strong></p>"},
		}))

		body := rec.Body.String()
		if !strings.Contains(body, "<pre>## Title\n\n**bold**</pre>") {
			t.Errorf("expected the markdown source, got %q", body)
		}
		if !strings.Contains(body, "<strong>bold</strong>") {
			t.Errorf("expected the rendered preview, got %q", body)
		}
	})
}

func TestServeSave(t *testing.T) {
	tests := []struct {
		name       string
		state      auth.State
		storeErr   bool
		wantStatus int
		wantBody   string
		wantDocs   int
	}{
		{
			name:       "signed in",
			state:      signedIn("u1", "Ann"),
			wantStatus: http.StatusOK,
			wantBody:   "saved:",
			wantDocs:   1,
		},
		{
			name:       "signed out",
			state:      auth.NewSession("anon"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   config.ErrNotSignedIn,
		},
		{
			name:       "no session",
			wantStatus: http.StatusUnauthorized,
			wantBody:   config.ErrNotSignedIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, SaveConcurrent)
			ctrl, _ := env.repo.CreateDraft()

			rec := httptest.NewRecorder()
			env.mux(tt.state).ServeHTTP(rec, saveForm(ctrl.ID(), url.Values{
				"content": {"<h1>Hi</h1>"},
			}))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want prefix %q", rec.Body.String(), tt.wantBody)
			}

			docs, _ := env.store.ListDocuments(context.Background(), "u1")
			if len(docs) != tt.wantDocs {
				t.Errorf("stored %d documents, want %d", len(docs), tt.wantDocs)
			}
			if tt.wantDocs == 1 && docs[0].Data["blogPost"] != "# Hi" {
				t.Errorf("unexpected document %v", docs[0].Data)
			}
		})
	}
}

func TestServeSaveUnknownDraft(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)

	rec := httptest.NewRecorder()
	env.mux(signedIn("u1", "Ann")).ServeHTTP(rec, saveForm("missing", url.Values{}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeSaveRequiresDraftCookie(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
	}{
		{"no cookie", ""},
		{"another draft", "someone-elses-draft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, SaveConcurrent)
			ctrl, _ := env.repo.CreateDraft()
			ctrl.SetContent("<p>victim</p>")
			victim := signedIn("victim", "Vic")
			ctrl.Bind(victim)

			req := postForm(routes.DraftSavePath(string(ctrl.ID())), url.Values{"content": {"<p>x</p>"}})
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: config.CookieDraftID, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			env.mux(signedIn("u1", "Ann")).ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			if ctrl.Content() != "<p>victim</p>" {
				t.Errorf("content changed to %q", ctrl.Content())
			}
			if ctrl.state != auth.State(victim) {
				t.Errorf("draft rebound to %v", ctrl.state)
			}
			docs, _ := env.store.ListDocuments(context.Background(), "u1")
			if len(docs) != 0 {
				t.Errorf("stored %d documents, want 0", len(docs))
			}
		})
	}
}

func TestSaveStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		res    SaveResult
		status int
		msg    string
	}{
		{"ok", SaveResult{Ref: store.DocumentRef{ID: "x"}}, http.StatusOK, "Saved"},
		{"not signed in", SaveResult{Err: errs.ErrNotAuthenticated}, http.StatusUnauthorized, config.ErrNotSignedIn},
		{"in flight", SaveResult{Err: errs.ErrSaveInFlight}, http.StatusConflict, config.ErrSaveInFlight},
		{"store failure", SaveResult{Err: &errs.PersistenceWriteError{Collection: "u1", Err: errors.New("down")}}, http.StatusBadGateway, config.ErrSaveFailed},
		{"conversion failure", SaveResult{Err: errors.New("bad")}, http.StatusInternalServerError, config.ErrSaveFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := saveStatusFor(tt.res)
			if status != tt.status || body.Message != tt.msg {
				t.Errorf("saveStatusFor() = %d %q, want %d %q", status, body.Message, tt.status, tt.msg)
			}
			if tt.status == http.StatusUnauthorized && body.LoginURL == "" {
				t.Error("expected a login link")
			}
		})
	}
}

func TestServeSaveBroadcastsSaved(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	ctrl, _ := env.repo.CreateDraft()

	client := sse.NewClient(ctrl.ID(), 1)
	env.clients.Add(client)
	defer env.clients.Delete(client)

	rec := httptest.NewRecorder()
	env.mux(signedIn("u1", "Ann")).ServeHTTP(rec, saveForm(ctrl.ID(), url.Values{
		"content": {"<p>x</p>"},
	}))

	select {
	case ev := <-client.Events:
		if ev.Name != eventSaved || ev.Data == "" {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Error("expected a saved event")
	}
}

func TestServeSaveSurvivesCancelledRequest(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	ctrl, _ := env.repo.CreateDraft()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := saveForm(ctrl.ID(), url.Values{"content": {"<p>x</p>"}}).WithContext(ctx)

	rec := httptest.NewRecorder()
	env.mux(signedIn("u1", "Ann")).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	docs, _ := env.store.ListDocuments(context.Background(), "u1")
	if len(docs) != 1 {
		t.Errorf("expected the write to land, got %d documents", len(docs))
	}
}

type sseReader struct {
	t       *testing.T
	scanner *bufio.Scanner
}

func (r *sseReader) next() sse.Event {
	r.t.Helper()
	var ev sse.Event
	for r.scanner.Scan() {
		line := r.scanner.Text()
		switch {
		case line == "":
			return ev
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
	r.t.Fatalf("stream ended: %v", r.scanner.Err())
	return ev
}

func TestServeEventsPushesIdentity(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)
	ctrl, _ := env.repo.CreateDraft()
	sess := auth.NewSession("browser")

	srv := httptest.NewServer(env.mux(sess))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+routes.SSEPath+"?draft="+string(ctrl.ID()), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /sse error = %v", err)
	}
	defer resp.Body.Close()

	events := &sseReader{t: t, scanner: bufio.NewScanner(resp.Body)}

	if ev := events.next(); ev.Name != "connected" {
		t.Fatalf("first event = %+v, want connected", ev)
	}

	var payload identityPayload
	ev := events.next()
	if ev.Name != eventIdentity {
		t.Fatalf("event = %+v, want identity", ev)
	}
	if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
		t.Fatalf("bad identity payload: %v", err)
	}
	if payload.SignedIn || payload.AvatarURL != auth.DefaultAvatarPath {
		t.Errorf("unexpected signed out identity %+v", payload)
	}

	sess.SignIn(&model.User{UID: "u1", DisplayName: model.StringPtr("Ann"), PhotoURL: model.StringPtr("https://x/y.png")})

	ev = events.next()
	if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
		t.Fatalf("bad identity payload: %v", err)
	}
	if !payload.SignedIn || payload.ID != "u1" || payload.Name != "Ann" || payload.AvatarURL != "https://x/y.png" {
		t.Errorf("unexpected identity %+v", payload)
	}
}

func TestServeEventsRequiresDraft(t *testing.T) {
	env := newTestEnv(t, SaveConcurrent)

	tests := []struct {
		target string
		status int
	}{
		{routes.SSEPath, http.StatusBadRequest},
		{routes.SSEPath + "?draft=missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		env.mux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != tt.status {
			t.Errorf("GET %s status = %d, want %d", tt.target, rec.Code, tt.status)
		}
	}
}
