package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

type State int

const (
	Editing State = iota
	Saving
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SavePolicy decides what happens to a save issued while another is running.
type SavePolicy int

const (
	// SaveConcurrent runs every save independently. Overlapping saves each
	// write their own record.
	SaveConcurrent SavePolicy = iota
	// SaveSingleFlight rejects a save with errs.ErrSaveInFlight while one
	// for the same draft is running.
	SaveSingleFlight
)

type Converter interface {
	Convert(markup string) (string, error)
}

type Saver interface {
	Save(ctx context.Context, state auth.State, markdown string) (store.DocumentRef, error)
}

// SaveResult is the outcome of one save. Err is nil on success.
type SaveResult struct {
	Ref      store.DocumentRef
	Markdown string
	Err      error
}

func (r SaveResult) OK() bool {
	return r.Err == nil
}

type ControllerOption func(*Controller)

func WithSavePolicy(p SavePolicy) ControllerOption {
	return func(c *Controller) {
		c.policy = p
	}
}

// Controller owns the content of one draft and runs its save pipeline:
// snapshot, convert, persist.
type Controller struct {
	id        model.DraftID
	converter Converter
	saver     Saver
	policy    SavePolicy
	flight    *semaphore.Weighted

	mu       sync.Mutex
	content  string
	state    auth.State
	inFlight int
}

func NewController(id model.DraftID, converter Converter, saver Saver, opts ...ControllerOption) *Controller {
	c := &Controller{
		id:        id,
		converter: converter,
		saver:     saver,
		flight:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) ID() model.DraftID {
	return c.id
}

// Bind sets the auth state saves read the user from.
func (c *Controller) Bind(state auth.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// SetContent replaces the content wholesale.
func (c *Controller) SetContent(markup string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = markup
}

func (c *Controller) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

func (c *Controller) WordCount() int {
	return WordCount(c.Content())
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		return Saving
	}
	return Editing
}

// Save converts a snapshot of the content and persists it. It never panics;
// every failure is logged and returned in the result.
func (c *Controller) Save(ctx context.Context) (res SaveResult) {
	l := editorLogger.With().Str("draft", string(c.id)).Logger()

	if c.policy == SaveSingleFlight {
		if !c.flight.TryAcquire(1) {
			l.Warn().Msg("Save rejected, another save is in flight")
			return SaveResult{Err: errs.ErrSaveInFlight}
		}
		defer c.flight.Release(1)
	}

	c.mu.Lock()
	snapshot := c.content
	state := c.state
	c.inFlight++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()

		if p := recover(); p != nil {
			res = SaveResult{Err: fmt.Errorf("save panicked: %v", p)}
		}
		logResult(l, res)
	}()

	markdown, err := c.converter.Convert(snapshot)
	if err != nil {
		return SaveResult{Err: err}
	}

	ref, err := c.saver.Save(ctx, state, markdown)
	if err != nil {
		return SaveResult{Markdown: markdown, Err: err}
	}
	return SaveResult{Ref: ref, Markdown: markdown}
}

func logResult(l zerolog.Logger, res SaveResult) {
	if res.OK() {
		l.Info().Str("id", res.Ref.ID).Msg("Post saved")
		return
	}
	l.Error().Err(res.Err).Msg("Error saving post")
}
