package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/markdown"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/post"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/debemdeboas/inkwell/internal/session"
	"github.com/debemdeboas/inkwell/internal/sse"
	"github.com/debemdeboas/inkwell/internal/store"
	"github.com/debemdeboas/inkwell/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

// App is the assembled server: its handler and what must be closed on exit.
type App struct {
	Handler http.Handler

	store    store.Store
	database db.DB
}

func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.database != nil {
		errs = append(errs, a.database.Close())
	}
	return errors.Join(errs...)
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	store.SetLogger(l.With().Str("component", "store").Logger())
	auth.SetLogger(l.With().Str("component", "auth").Logger())
	post.SetLogger(l.With().Str("component", "post").Logger())
	editor.SetLogger(l.With().Str("component", "editor").Logger())
	render.SetLogger(l.With().Str("component", "render").Logger())
}

// needsSQLite reports whether any component keeps its data in the sqlite file.
func needsSQLite(cfg *config.Config) bool {
	return cfg.Store.Backend == config.StoreSQLite || cfg.Auth.Type == config.AuthClerk
}

// newAuthProvider builds the configured provider, registers its routes and
// returns the cookies logout must clear.
func newAuthProvider(ctx context.Context, mux *http.ServeMux, cfg *config.Config, secrets config.Secrets, database db.DB, sessions *auth.Sessions, files fs.FS) (auth.AuthProvider, []string, error) {
	switch cfg.Auth.Type {
	case config.AuthClerk:
		provider, err := auth.NewClerkAuthProvider(secrets.ClerkAPIKey, secrets.ClerkWebhookSecret, database, sessions)
		if err != nil {
			return nil, nil, fmt.Errorf(config.ErrCreateProviderFmt, err)
		}
		mux.HandleFunc("POST "+routes.WebhookUser, provider.HandleWebhookUser)
		return provider, []string{auth.ClerkSessionCookie}, nil

	case config.AuthFirebase:
		project := secrets.FirebaseProjectID
		if project == "" {
			project = cfg.Store.FirestoreProject
		}
		provider, err := auth.NewFirebaseAuthProvider(ctx, project, secrets.FirebaseCredentials)
		if err != nil {
			return nil, nil, err
		}
		return provider, []string{auth.FirebaseSessionCookie}, nil

	default:
		owner := model.User{
			UID:         model.UserID(cfg.Auth.Owner.UID),
			DisplayName: model.StringPtr(cfg.Auth.Owner.DisplayName),
			PhotoURL:    model.StringPtr(cfg.Auth.Owner.PhotoURL),
		}
		provider, err := auth.NewEd25519AuthProvider(secrets.Ed25519PubKey, "Authorization", owner)
		if err != nil {
			return nil, nil, fmt.Errorf(config.ErrCreateProviderFmt, err)
		}
		if err := auth.RegisterEd25519AuthRoutes(mux, provider, files); err != nil {
			return nil, nil, err
		}
		return provider, []string{config.CookieAuthToken}, nil
	}
}

// hashStatic records an ETag for every embedded static file.
func hashStatic(files fs.FS) (fs.FS, error) {
	static, err := fs.Sub(files, config.StaticLocalDir)
	if err != nil {
		return nil, err
	}

	err = fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			return err
		}
		cache.SetStaticHash(config.StaticUrlPath+path, util.ContentHash(data))
		return nil
	})
	return static, err
}

// NewApp wires every component for cfg. files must hold the static and
// templates directories.
func NewApp(ctx context.Context, cfg *config.Config, secrets config.Secrets, files fs.FS, l zerolog.Logger) (*App, error) {
	app := &App{}

	// Sessions fall back to memory when no sqlite file is open.
	var sqlDB *sql.DB
	if needsSQLite(cfg) {
		sqlite := db.NewSQLite(cfg.Store.SQLitePath)
		if err := sqlite.InitDB(); err != nil {
			return nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
		}
		app.database = sqlite
		sqlDB = sqlite.Get()
	}

	st, err := store.Open(ctx, cfg, secrets, app.database)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf(config.ErrOpenStoreFmt, cfg.Store.Backend, err)
	}
	app.store = st

	sessionManager := session.New(sqlDB, secrets.SessionLifetime, false)
	sessions := auth.NewSessions(sessionManager)

	mux := http.NewServeMux()

	provider, authCookies, err := newAuthProvider(ctx, mux, cfg, secrets, app.database, sessions, files)
	if err != nil {
		app.Close()
		return nil, err
	}
	auth.RegisterLogoutRoute(mux, authCookies...)

	converter := markdown.NewConverter(markdown.Options{CodeLanguage: cfg.Editor.CodeLanguage})
	gateway := post.NewGateway(st)

	policy := editor.SaveConcurrent
	if cfg.Editor.SingleFlight {
		policy = editor.SaveSingleFlight
	}
	drafts := editor.NewMemoryRepository(func(id model.DraftID) *editor.Controller {
		return editor.NewController(id, converter, gateway, editor.WithSavePolicy(policy))
	})

	editorHandler, err := editor.NewHandler(drafts, sse.NewClients(), editor.NewAdapter(converter), converter, files, editor.HandlerOptions{
		Toolbar: editor.Toolbar{
			Placeholder:  cfg.Editor.Placeholder,
			CodeLanguage: converter.CodeLanguage(),
		},
		DefaultAvatar: cfg.Auth.DefaultAvatar,
		LivePreview:   cfg.Editor.LivePreview,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	editorHandler.Register(mux)

	static, err := hashStatic(files)
	if err != nil {
		app.Close()
		return nil, err
	}
	mux.Handle(config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))
	registerThemeRoutes(mux, cfg.Theme.AllowSwitching)
	mux.HandleFunc(routes.RobotsPath, serveRobots)

	var h http.Handler = mux
	h = secureHeaders(h)
	h = provider.WithHeaderAuthorization()(h)
	h = sessions.Middleware(h)
	h = sessionManager.LoadAndSave(h)
	h = cacheIt(h)
	h = withLogger(l, h)

	app.Handler = h
	return app, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	boot := logger.New("info")
	config.SetLogger(boot)

	configPath := os.Getenv(config.EnvConfigPath)
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}
	if err := config.LoadConfig(configPath); err != nil {
		boot.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}
	cfg := config.AppConfig

	l := logger.New(cfg.Logging.Level)
	setLoggers(l)

	secrets, err := config.LoadSecrets()
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load secrets")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, secrets, content, l)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to start")
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	l.Info().
		Str("addr", srv.Addr).
		Str("store", cfg.Store.Backend).
		Str("auth", cfg.Auth.Type).
		Msg("Listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Fatal().Err(err).Msg("Server failed")
	}
	l.Info().Msg("Server stopped")
}
