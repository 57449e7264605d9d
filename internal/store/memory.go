package store

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/google/uuid"
)

type MemoryStore struct { // implements Store
	mu          sync.RWMutex
	collections map[string][]StoredDocument

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]StoredDocument),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) AddDocument(ctx context.Context, collectionPath string, doc Document) (DocumentRef, error) {
	if err := ValidateCollection(collectionPath); err != nil {
		return DocumentRef{}, err
	}
	if err := ctx.Err(); err != nil {
		return DocumentRef{}, err
	}

	ref := DocumentRef{Collection: collectionPath, ID: uuid.NewString()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collectionPath] = append(m.collections[collectionPath], StoredDocument{
		Ref:  ref,
		Data: ResolveServerTimestamps(doc, m.now()),
	})

	return ref, nil
}

func (m *MemoryStore) GetDocument(ctx context.Context, collectionPath, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.collections[collectionPath] {
		if d.Ref.ID == id {
			return maps.Clone(d.Data), nil
		}
	}
	return nil, fmt.Errorf("document %s/%s: %w", collectionPath, id, errs.ErrNotFound)
}

func (m *MemoryStore) ListDocuments(ctx context.Context, collectionPath string) ([]StoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]StoredDocument, 0, len(m.collections[collectionPath]))
	for _, d := range m.collections[collectionPath] {
		docs = append(docs, StoredDocument{Ref: d.Ref, Data: maps.Clone(d.Data)})
	}
	return docs, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
