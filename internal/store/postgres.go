package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PgxPool is the subset of *pgxpool.Pool used by PostgresStore.
// It is also implemented by pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const (
	pgInsertDocument = `INSERT INTO documents (id, collection, data, server_time) VALUES ($1, $2, $3, $4)`
	pgSelectDocument = `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	pgListDocuments  = `SELECT id, data FROM documents WHERE collection = $1 ORDER BY server_time`
)

type PostgresStore struct { // implements Store
	pool PgxPool

	now func() time.Time
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// OpenPostgres applies pending migrations and connects a pool to dsn.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if err := MigratePostgres(ctx, dsn); err != nil {
		return nil, fmt.Errorf("error migrating postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}
	return NewPostgresStore(pool), nil
}

// MigratePostgres runs the embedded goose migrations.
func MigratePostgres(ctx context.Context, dsn string) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, conn, "migrations")
}

func (s *PostgresStore) AddDocument(ctx context.Context, collectionPath string, doc Document) (DocumentRef, error) {
	if err := ValidateCollection(collectionPath); err != nil {
		return DocumentRef{}, err
	}

	serverTime := s.now()
	payload, err := json.Marshal(ResolveServerTimestamps(doc, serverTime))
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error encoding document: %w", err)
	}

	ref := DocumentRef{Collection: collectionPath, ID: uuid.NewString()}
	if _, err := s.pool.Exec(ctx, pgInsertDocument, ref.ID, ref.Collection, payload, serverTime); err != nil {
		return DocumentRef{}, fmt.Errorf("error saving document: %w", err)
	}

	storeLogger.Debug().Str("collection", ref.Collection).Str("id", ref.ID).Msg("Document saved")
	return ref, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, collectionPath, id string) (Document, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, pgSelectDocument, collectionPath, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s/%s: %w", collectionPath, id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, collectionPath string) ([]StoredDocument, error) {
	rows, err := s.pool.Query(ctx, pgListDocuments, collectionPath)
	if err != nil {
		return nil, fmt.Errorf("error querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]StoredDocument, 0)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("error scanning document: %w", err)
		}

		var data Document
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("error decoding document: %w", err)
		}
		docs = append(docs, StoredDocument{
			Ref:  DocumentRef{Collection: collectionPath, ID: id},
			Data: data,
		})
	}

	return docs, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
