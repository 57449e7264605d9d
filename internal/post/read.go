package post

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/store"
)

// DecodePost rebuilds a PostRecord from whatever the backend returned. Times
// may come back as time.Time or as RFC 3339 strings depending on the store.
func DecodePost(ref store.DocumentRef, doc store.Document) (*model.PostRecord, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document %s: %w", ref.ID, err)
	}

	var p model.PostRecord
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", ref.ID, err)
	}
	p.ID = model.PostID(ref.ID)
	return &p, nil
}

// ListPosts returns the user's posts, oldest first.
func ListPosts(ctx context.Context, reader store.DocumentReader, uid model.UserID) ([]*model.PostRecord, error) {
	docs, err := reader.ListDocuments(ctx, string(uid))
	if err != nil {
		return nil, err
	}

	posts := make([]*model.PostRecord, 0, len(docs))
	for _, d := range docs {
		if ct, _ := d.Data[model.FieldContentType].(string); ct != model.ContentTypeBlogPost {
			continue
		}
		p, err := DecodePost(d.Ref, d.Data)
		if err != nil {
			postLogger.Warn().Err(err).Str("id", d.Ref.ID).Msg("Skipping undecodable document")
			continue
		}
		posts = append(posts, p)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}
