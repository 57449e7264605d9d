package editor

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/debemdeboas/inkwell/internal/sse"
	"github.com/debemdeboas/inkwell/internal/theme"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/rs/zerolog"
)

const (
	templateWordCount  = "word-count"
	templatePreview    = "preview"
	templateSaveStatus = "save-status"

	eventIdentity = "identity"
	eventSaved    = "saved"

	sseBuffer = 8

	emptyPreview = "Start typing in the editor to see a preview here."
)

type HandlerOptions struct {
	Toolbar       Toolbar
	DefaultAvatar string
	LivePreview   bool
	SecureCookies bool
}

type Handler struct {
	repo      Repository
	clients   *sse.Clients
	adapter   *Adapter
	converter Converter
	opts      HandlerOptions

	tmpl *template.Template
}

// NewHandler parses the layout, editor and partial templates from files.
func NewHandler(repo Repository, clients *sse.Clients, adapter *Adapter, converter Converter, files fs.FS, opts HandlerOptions) (*Handler, error) {
	tmpl, err := template.ParseFS(
		files,
		config.TemplatesLocalDir+"/"+config.TemplateLayout,
		config.TemplatesLocalDir+"/"+config.TemplateEditor,
		config.TemplatesLocalDir+"/"+config.TemplatePartials,
	)
	if err != nil {
		return nil, err
	}

	if opts.DefaultAvatar == "" {
		opts.DefaultAvatar = auth.DefaultAvatarPath
	}

	return &Handler{
		repo:      repo,
		clients:   clients,
		adapter:   adapter,
		converter: converter,
		opts:      opts,
		tmpl:      tmpl,
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+routes.RootPath, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, routes.NewPostEdit, http.StatusFound)
	})
	mux.HandleFunc("GET "+routes.NewPost, h.ServeNewPost)
	mux.HandleFunc("GET "+routes.NewPostEdit, h.ServeEditor)
	mux.HandleFunc("POST "+routes.PartialsDraftChange, h.ServeChange)
	mux.HandleFunc("POST "+routes.PartialsDraftPreview, h.ServePreview)
	mux.HandleFunc("POST "+routes.APIDraftSave, h.ServeSave)
	mux.HandleFunc("GET "+routes.SSEPath, h.ServeEvents)
}

// stateFor binds ctrl to the browser session of r and returns that session's
// State. Requests without one get a signed-out State.
func stateFor(r *http.Request, ctrl *Controller) auth.State {
	var state auth.State
	if sess, ok := auth.SessionFromRequest(r); ok {
		state = sess
	} else {
		state = auth.NewSession("")
	}
	if ctrl != nil {
		ctrl.Bind(state)
	}
	return state
}

func (h *Handler) draftCookie(id model.DraftID) *http.Cookie {
	return &http.Cookie{
		Name:     config.CookieDraftID,
		Value:    string(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// ServeNewPost drops the current draft and starts over with an empty editor.
func (h *Handler) ServeNewPost(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(config.CookieDraftID); err == nil && cookie.Value != "" {
		if err := h.repo.DeleteDraft(model.DraftID(cookie.Value)); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("draft", cookie.Value).Msg("Failed to drop draft")
		}
	}

	c := h.draftCookie("")
	c.MaxAge = -1
	http.SetCookie(w, c)

	w.Header().Add(config.HHxRedirect, routes.NewPostEdit)
	http.Redirect(w, r, routes.NewPostEdit, http.StatusFound)
}

func (h *Handler) ServeEditor(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	var ctrl *Controller
	if cookie, err := r.Cookie(config.CookieDraftID); err == nil {
		ctrl, _ = h.repo.GetDraft(model.DraftID(cookie.Value))
	}

	if ctrl == nil {
		var err error
		ctrl, err = h.repo.CreateDraft()
		if err != nil {
			l.Error().Err(err).Msg("Failed to create draft")
			http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, h.draftCookie(ctrl.ID()))
		l.Debug().Str("draft", string(ctrl.ID())).Msg("Created draft")
	}

	state := stateFor(r, ctrl)

	quill, err := h.opts.Toolbar.JS()
	if err != nil {
		l.Error().Err(err).Msg("Failed to encode toolbar")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	content := ctrl.Content()
	data := struct {
		*model.PageData
		DraftID      model.DraftID
		Content      template.HTML
		WordCount    int
		Quill        template.JS
		CodeLanguage string
		LivePreview  bool
		SaveURL      string
	}{
		PageData:     model.NewPageData(r, auth.ResolveIdentity(state.CurrentUser(), h.opts.DefaultAvatar)),
		DraftID:      ctrl.ID(),
		Content:      template.HTML(content),
		WordCount:    WordCount(content),
		Quill:        quill,
		CodeLanguage: h.opts.Toolbar.CodeLanguage,
		LivePreview:  h.opts.LivePreview,
		SaveURL:      routes.DraftSavePath(string(ctrl.ID())),
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.Header().Set(config.HETag, util.ContentHashString(data.Theme+data.SyntaxTheme+string(data.DraftID)+content))
	if err := h.tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		l.Error().Err(err).Msg("Failed to render editor")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
	}
}

// draftFromRequest looks the draft up by the draft-id form value or cookie.
// It writes the error response itself when the draft is unknown.
func (h *Handler) draftFromRequest(w http.ResponseWriter, r *http.Request, id string) (*Controller, bool) {
	if id == "" {
		if cookie, err := r.Cookie(config.CookieDraftID); err == nil {
			id = cookie.Value
		}
	}

	ctrl, err := h.repo.GetDraft(model.DraftID(id))
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Unknown draft")
		http.Error(w, "Draft not found", http.StatusNotFound)
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render partial")
	}
}

// ServeChange receives the full markup after every editor change.
func (h *Handler) ServeChange(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.draftFromRequest(w, r, r.FormValue(config.CookieDraftID))
	if !ok {
		return
	}
	stateFor(r, ctrl)

	ctrl.SetContent(h.adapter.Normalize(r.FormValue("content")))
	h.render(w, r, http.StatusOK, templateWordCount, ctrl.WordCount())
}

func (h *Handler) ServePreview(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.draftFromRequest(w, r, r.FormValue(config.CookieDraftID))
	if !ok {
		return
	}
	if content, posted := r.Form["content"]; posted && len(content) > 0 {
		ctrl.SetContent(h.adapter.Normalize(content[0]))
	}

	markdown, err := h.converter.Convert(ctrl.Content())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to convert preview")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	data := struct {
		*render.Preview
		Empty string
	}{
		Empty: emptyPreview,
	}
	if markdown != "" {
		data.Preview = render.NewPreview(markdown, theme.GetSyntaxThemeFromRequest(r))
	}
	h.render(w, r, http.StatusOK, templatePreview, data)
}

type saveStatus struct {
	OK       bool
	Message  string
	ID       string
	LoginURL string
}

// saveStatusFor maps a save result onto the status code and fragment.
func saveStatusFor(res SaveResult) (int, saveStatus) {
	var werr *errs.PersistenceWriteError
	switch {
	case res.OK():
		return http.StatusOK, saveStatus{OK: true, Message: "Saved", ID: res.Ref.ID}
	case errors.Is(res.Err, errs.ErrNotAuthenticated):
		return http.StatusUnauthorized, saveStatus{
			Message:  config.ErrNotSignedIn,
			LoginURL: routes.LoginRedirect(routes.NewPostEdit),
		}
	case errors.Is(res.Err, errs.ErrSaveInFlight):
		return http.StatusConflict, saveStatus{Message: config.ErrSaveInFlight}
	case errors.As(res.Err, &werr):
		return http.StatusBadGateway, saveStatus{Message: config.ErrSaveFailed}
	default:
		return http.StatusInternalServerError, saveStatus{Message: config.ErrSaveFailed}
	}
}

// ServeSave runs the save pipeline. The save outlives the request: a browser
// that navigates away does not cancel the write.
func (h *Handler) ServeSave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// Only the browser holding the draft cookie may save the draft as itself.
	if cookie, err := r.Cookie(config.CookieDraftID); err != nil || cookie.Value != id {
		zerolog.Ctx(r.Context()).Warn().Str("draft", id).Msg("Save without the draft cookie")
		http.Error(w, "Draft not found", http.StatusNotFound)
		return
	}

	ctrl, ok := h.draftFromRequest(w, r, id)
	if !ok {
		return
	}
	stateFor(r, ctrl)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if content, posted := r.PostForm["content"]; posted && len(content) > 0 {
		ctrl.SetContent(h.adapter.Normalize(content[0]))
	}

	res := ctrl.Save(context.WithoutCancel(r.Context()))
	status, body := saveStatusFor(res)

	if res.OK() {
		h.clients.Broadcast(ctrl.ID(), sse.Event{Name: eventSaved, Data: res.Ref.ID})
	}
	h.render(w, r, status, templateSaveStatus, body)
}

type identityPayload struct {
	ID        model.UserID `json:"id"`
	Name      string       `json:"name"`
	AvatarURL string       `json:"avatarUrl"`
	SignedIn  bool         `json:"signedIn"`
}

func identityEvent(id model.Identity) sse.Event {
	raw, _ := json.Marshal(identityPayload{
		ID:        id.ID,
		Name:      id.Name(),
		AvatarURL: id.AvatarURL,
		SignedIn:  id.SignedIn(),
	})
	return sse.Event{Name: eventIdentity, Data: string(raw)}
}

// ServeEvents is the lifetime of one editor view. While it is connected an
// Observer follows the browser session and pushes identity changes.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	draftID := r.URL.Query().Get("draft")
	if draftID == "" {
		http.Error(w, "Draft parameter required", http.StatusBadRequest)
		return
	}
	ctrl, ok := h.draftFromRequest(w, r, draftID)
	if !ok {
		return
	}
	state := stateFor(r, ctrl)

	client := sse.NewClient(ctrl.ID(), sseBuffer)
	h.clients.Add(client)
	defer h.clients.Delete(client)

	observer := auth.NewObserver(state, h.opts.DefaultAvatar, func(id model.Identity) {
		h.clients.Send(client, identityEvent(id))
	})
	defer observer.Close()

	l.Debug().Str("draft", draftID).Msg("SSE client connected")
	if err := sse.Stream(w, r, client); err != nil {
		l.Warn().Err(err).Msg("SSE stream ended")
	}
	l.Debug().Str("draft", draftID).Msg("SSE client disconnected")
}
