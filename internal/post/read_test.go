package post

import (
	"context"
	"testing"
	"time"

	"github.com/debemdeboas/inkwell/internal/store"
)

func TestDecodePost(t *testing.T) {
	ref := store.DocumentRef{Collection: "u1", ID: "abc"}

	tests := []struct {
		name string
		doc  store.Document
	}{
		{
			name: "times as values",
			doc: store.Document{
				"userId": "u1", "name": "Ann", "contentType": "blogPost", "blogPost": "# Hi",
				"timeStamp": fixedNow, "date": fixedNow,
			},
		},
		{
			name: "times as strings",
			doc: store.Document{
				"userId": "u1", "name": "Ann", "contentType": "blogPost", "blogPost": "# Hi",
				"timeStamp": fixedNow.Format(time.RFC3339Nano), "date": fixedNow.Format(time.RFC3339),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePost(ref, tt.doc)
			if err != nil {
				t.Fatalf("DecodePost() error = %v", err)
			}
			if p.ID != "abc" || p.AuthorID != "u1" || p.Body != "# Hi" || p.ContentType != "blogPost" {
				t.Errorf("unexpected post %+v", p)
			}
			if !p.CreatedAt.Equal(fixedNow) || !p.CreatedAtClient.Equal(fixedNow) {
				t.Errorf("unexpected times %v / %v", p.CreatedAt, p.CreatedAtClient)
			}
		})
	}

	t.Run("bad time", func(t *testing.T) {
		if _, err := DecodePost(ref, store.Document{"timeStamp": "yesterday"}); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestListPostsSkipsOtherContent(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	mem.AddDocument(ctx, "u1", store.Document{"contentType": "note", "blogPost": "ignored"})
	mem.AddDocument(ctx, "u1", store.Document{
		"userId": "u1", "contentType": "blogPost", "blogPost": "second",
		"timeStamp": store.ServerTimestamp, "date": fixedNow,
	})
	mem.AddDocument(ctx, "u1", store.Document{"contentType": "blogPost", "timeStamp": "garbage"})

	posts, err := ListPosts(ctx, mem, "u1")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 1 || posts[0].Body != "second" {
		t.Errorf("unexpected posts %+v", posts)
	}

	empty, err := ListPosts(ctx, mem, "nobody")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no posts, got %v, %v", empty, err)
	}
}
