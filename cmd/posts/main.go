// Command posts prints the posts one user has saved in the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/post"
	"github.com/debemdeboas/inkwell/internal/store"
)

const titleWidth = 48

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func main() {
	userID := flag.String("user", "", "User ID whose posts are listed")
	configPath := flag.String("config", config.DefaultConfigPath, "Path to config.yaml")
	flag.Parse()

	_ = godotenv.Load()
	l := logger.New("warn")
	config.SetLogger(l)
	db.SetLogger(l)
	store.SetLogger(l)
	post.SetLogger(l)

	if *userID == "" {
		l.Fatal().Msg("The --user flag is required")
	}
	if err := config.LoadConfig(*configPath); err != nil {
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg := config.AppConfig
	if cfg.Store.Backend == config.StoreMemory {
		l.Fatal().Msg("The memory store keeps nothing between runs")
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load secrets")
	}

	ctx := context.Background()

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

	if err := run(ctx, os.Stdout, st, model.UserID(*userID), l); err != nil {
		l.Fatal().Err(err).Msg("Error listing posts")
	}
}

func run(ctx context.Context, w io.Writer, reader store.DocumentReader, uid model.UserID, l zerolog.Logger) error {
	posts, err := post.ListPosts(ctx, reader, uid)
	if err != nil {
		return err
	}
	l.Debug().Int("posts", len(posts)).Str("user", string(uid)).Msg("Listed posts")

	if len(posts) == 0 {
		_, err := fmt.Fprintln(w, emptyStyle.Render("No posts for "+string(uid)))
		return err
	}
	_, err = fmt.Fprintln(w, renderTable(posts))
	return err
}

func renderTable(posts []*model.PostRecord) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "TITLE", "AUTHOR", "SAVED")

	for _, p := range posts {
		author := string(p.AuthorID)
		if p.AuthorName != nil {
			author = *p.AuthorName
		}
		t.Row(string(p.ID), truncate(p.Title(), titleWidth), author, savedAt(p))
	}
	return t.Render()
}

// savedAt prefers the store's timestamp and falls back to the client clock.
func savedAt(p *model.PostRecord) string {
	ts := p.CreatedAt
	if ts.IsZero() {
		ts = p.CreatedAtClient
	}
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(time.DateTime)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
