// Package post persists finished posts into the author's document collection.
package post

import (
	"context"
	"time"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/store"
	"github.com/rs/zerolog"
)

var postLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	postLogger = l
}

type Option func(*Gateway)

// WithClock sets the clock used for the client-side date field.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// Gateway writes one PostRecord per Save into the collection named after the
// signed-in user. It is safe for concurrent use if its store is.
type Gateway struct {
	store store.DocumentStore
	now   func() time.Time
}

func NewGateway(s store.DocumentStore, opts ...Option) *Gateway {
	g := &Gateway{
		store: s,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Save reads the current user once and writes markdown as a new post.
// Without a signed-in user it returns errs.ErrNotAuthenticated and writes
// nothing. Store failures come back as *errs.PersistenceWriteError.
func (g *Gateway) Save(ctx context.Context, state auth.State, markdown string) (store.DocumentRef, error) {
	var user *model.User
	if state != nil {
		user = state.CurrentUser()
	}
	if user == nil || user.UID == "" {
		postLogger.Warn().Msg("Save attempted without a signed-in user")
		return store.DocumentRef{}, errs.ErrNotAuthenticated
	}

	collection := string(user.UID)
	record := model.NewPostRecord(user, markdown, g.now())

	ref, err := g.store.AddDocument(ctx, collection, ToDocument(record))
	if err != nil {
		werr := &errs.PersistenceWriteError{Collection: collection, Err: err}
		postLogger.Error().Err(err).Str("collection", collection).Msg("Error adding document")
		return store.DocumentRef{}, werr
	}

	postLogger.Info().
		Str("collection", ref.Collection).
		Str("id", ref.ID).
		Int("bytes", len(markdown)).
		Msg("Document written")
	return ref, nil
}

// ToDocument maps a record onto its stored fields. The server timestamp is
// left for the store to fill in.
func ToDocument(p *model.PostRecord) store.Document {
	var name any
	if p.AuthorName != nil {
		name = *p.AuthorName
	}

	return store.Document{
		model.FieldUserID:      string(p.AuthorID),
		model.FieldName:        name,
		model.FieldContentType: p.ContentType,
		model.FieldBlogPost:    p.Body,
		model.FieldTimeStamp:   store.ServerTimestamp,
		model.FieldDate:        p.CreatedAtClient,
	}
}
