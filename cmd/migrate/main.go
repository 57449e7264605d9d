// Command migrate prepares the configured document store and imports a
// directory of Markdown files as posts of one user.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/post"
	"github.com/debemdeboas/inkwell/internal/store"
)

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	ownerID := flag.String("owner-id", "", "User ID the posts are saved for")
	ownerName := flag.String("owner-name", "", "Display name stored with each post")
	schemaOnly := flag.Bool("schema", false, "Only run the postgres schema migrations")
	configPath := flag.String("config", config.DefaultConfigPath, "Path to config.yaml")
	flag.Parse()

	_ = godotenv.Load()
	l := logger.New("info")
	config.SetLogger(l)
	db.SetLogger(l)
	store.SetLogger(l)
	post.SetLogger(l)

	if err := config.LoadConfig(*configPath); err != nil {
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg := config.AppConfig

	secrets, err := config.LoadSecrets()
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load secrets")
	}

	ctx := context.Background()

	if cfg.Store.Backend == config.StorePostgres {
		if err := store.MigratePostgres(ctx, secrets.PostgresDSN); err != nil {
			l.Fatal().Err(err).Msg("Postgres migration failed")
		}
		l.Info().Msg("Postgres schema is up to date")
	}
	if *schemaOnly {
		return
	}

	if *path == "" || *ownerID == "" {
		l.Fatal().Msg("Both --path and --owner-id flags are required")
	}

	var database db.DB
	if cfg.Store.Backend == config.StoreSQLite {
		sqlite := db.NewSQLite(cfg.Store.SQLitePath)
		if err := sqlite.InitDB(); err != nil {
			l.Fatal().Err(err).Msg("Error initializing database")
		}
		defer sqlite.Close()
		database = sqlite
	}

	st, err := store.Open(ctx, cfg, secrets, database)
	if err != nil {
		l.Fatal().Err(err).Msg("Error opening store")
	}
	defer st.Close()

	session := auth.NewSession("migrate")
	session.SignIn(&model.User{
		UID:         model.UserID(*ownerID),
		DisplayName: model.StringPtr(*ownerName),
	})

	n, err := importDir(ctx, post.NewGateway(st), session, *path, l)
	if err != nil {
		l.Fatal().Err(err).Str("path", *path).Msg("Error reading directory")
	}
	l.Info().Int("posts", n).Str("collection", *ownerID).Msg("Import finished")
}

// importDir saves every .md file in dir and returns how many were written.
// A file that fails is logged and skipped.
func importDir(ctx context.Context, gateway *post.Gateway, state auth.State, dir string, l zerolog.Logger) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			l.Error().Err(err).Str("file", file.Name()).Msg("Error reading file")
			continue
		}

		ref, err := gateway.Save(ctx, state, string(content))
		if err != nil {
			l.Error().Err(err).Str("file", file.Name()).Msg("Error saving post")
			continue
		}
		written++
		l.Info().Str("file", file.Name()).Str("id", ref.ID).Msg("Saved post")
	}
	return written, nil
}
