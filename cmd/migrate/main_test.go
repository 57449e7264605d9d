package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/post"
	"github.com/debemdeboas/inkwell/internal/store"
)

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"first.md":  "# First\n\nHello",
		"second.md": "Second post",
		"notes.txt": "not a post",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.md"), 0o755); err != nil {
		t.Fatal(err)
	}

	st := store.NewMemoryStore()
	session := auth.NewSession("test")
	session.SignIn(&model.User{UID: "u1"})

	n, err := importDir(context.Background(), post.NewGateway(st), session, dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported %d files, want 2", n)
	}

	posts, err := post.ListPosts(context.Background(), st, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("stored %d posts, want 2", len(posts))
	}
}

func TestImportDirSignedOut(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := importDir(context.Background(), post.NewGateway(store.NewMemoryStore()), auth.NewSession("test"), dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("imported %d files without a user", n)
	}
}

func TestImportDirMissing(t *testing.T) {
	_, err := importDir(context.Background(), post.NewGateway(store.NewMemoryStore()), auth.NewSession("test"), filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
