package store

import (
	"context"
	"fmt"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
)

// Open returns the store cfg.Store.Backend names. database is only used by
// the sqlite backend and must already be initialized.
func Open(ctx context.Context, cfg *config.Config, secrets config.Secrets, database db.DB) (Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		if database == nil {
			return nil, fmt.Errorf("store backend %q needs a database", config.StoreSQLite)
		}
		return NewSQLiteStore(database), nil
	case config.StorePostgres:
		return OpenPostgres(ctx, secrets.PostgresDSN)
	case config.StoreS3:
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.Store.S3Bucket,
			Endpoint:        cfg.Store.S3Endpoint,
			Region:          cfg.Store.S3Region,
			AccessKeyID:     secrets.S3AccessKeyID,
			AccessKeySecret: secrets.S3SecretAccessKey,
		})
	case config.StoreFirestore:
		project := cfg.Store.FirestoreProject
		if project == "" {
			project = secrets.FirebaseProjectID
		}
		return NewFirestoreStore(ctx, project, secrets.FirebaseCredentials)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
