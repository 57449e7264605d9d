package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/debemdeboas/inkwell/internal/util/compression"
	"github.com/google/uuid"
)

type SQLiteStore struct { // implements Store
	db         db.DB
	compressor compression.Compressor

	now func() time.Time
}

func NewSQLiteStore(database db.DB) *SQLiteStore {
	return &SQLiteStore{
		db:         database,
		compressor: compression.ZstdCompressor{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *SQLiteStore) AddDocument(ctx context.Context, collectionPath string, doc Document) (DocumentRef, error) {
	if err := ValidateCollection(collectionPath); err != nil {
		return DocumentRef{}, err
	}

	serverTime := s.now()
	payload, err := json.Marshal(ResolveServerTimestamps(doc, serverTime))
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error encoding document: %w", err)
	}

	compressed, err := s.compressor.Compress(payload)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error compressing document: %w", err)
	}

	ref := DocumentRef{Collection: collectionPath, ID: uuid.NewString()}
	_, err = s.db.Get().ExecContext(ctx,
		`INSERT INTO documents (id, collection, data, content_hash, server_time) VALUES (?, ?, ?, ?, ?)`,
		ref.ID, ref.Collection, compressed, util.ContentHash(compressed), serverTime,
	)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error saving document: %w", err)
	}

	storeLogger.Debug().Str("collection", ref.Collection).Str("id", ref.ID).Msg("Document saved")
	return ref, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, collectionPath, id string) (Document, error) {
	var compressed []byte
	err := s.db.Get().QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collectionPath, id,
	).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s/%s: %w", collectionPath, id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading document: %w", err)
	}

	return s.decode(compressed)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, collectionPath string) ([]StoredDocument, error) {
	rows, err := s.db.Get().QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY server_time, created_at`, collectionPath,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]StoredDocument, 0)
	for rows.Next() {
		var id string
		var compressed []byte
		if err := rows.Scan(&id, &compressed); err != nil {
			return nil, fmt.Errorf("error scanning document: %w", err)
		}

		data, err := s.decode(compressed)
		if err != nil {
			return nil, err
		}
		docs = append(docs, StoredDocument{
			Ref:  DocumentRef{Collection: collectionPath, ID: id},
			Data: data,
		})
	}

	return docs, rows.Err()
}

func (s *SQLiteStore) decode(compressed []byte) (Document, error) {
	payload, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	return doc, nil
}

// Close is a no-op: the database connection is owned by the caller.
func (s *SQLiteStore) Close() error {
	return nil
}
