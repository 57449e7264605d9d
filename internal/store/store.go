// Package store provides document stores: named collections of JSON-like records.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var storeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storeLogger = l
}

// Document is a JSON-like record. Values must be JSON-encodable,
// except for ServerTimestamp which the store replaces on write.
type Document map[string]any

type DocumentRef struct {
	Collection string
	ID         string
}

type StoredDocument struct {
	Ref  DocumentRef
	Data Document
}

type serverTimestamp struct{}

// ServerTimestamp marks a field that the store fills with its own write time.
var ServerTimestamp = serverTimestamp{}

type DocumentStore interface {
	// AddDocument writes doc under a new id in the collection. The write is atomic.
	AddDocument(ctx context.Context, collectionPath string, doc Document) (DocumentRef, error)
}

type DocumentReader interface {
	GetDocument(ctx context.Context, collectionPath, id string) (Document, error)

	// ListDocuments returns the collection's documents, oldest write first
	// where the backend tracks write order.
	ListDocuments(ctx context.Context, collectionPath string) ([]StoredDocument, error)
}

type Store interface {
	DocumentStore
	DocumentReader

	Close() error
}

// ValidateCollection rejects paths that would escape a single collection.
func ValidateCollection(collectionPath string) error {
	if strings.TrimSpace(collectionPath) == "" {
		return fmt.Errorf("collection path is empty")
	}
	if strings.ContainsAny(collectionPath, "/\\") || collectionPath == "." || collectionPath == ".." {
		return fmt.Errorf("invalid collection path %q", collectionPath)
	}
	return nil
}

// ResolveServerTimestamps returns a copy of doc with every ServerTimestamp replaced by now.
func ResolveServerTimestamps(doc Document, now time.Time) Document {
	resolved := make(Document, len(doc))
	for k, v := range doc {
		if _, ok := v.(serverTimestamp); ok {
			resolved[k] = now
			continue
		}
		resolved[k] = v
	}
	return resolved
}
