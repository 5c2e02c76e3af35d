package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/listenupapp/readlist/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestRecommendation creates a recommendation owned by ownerID and returns it.
func insertTestRecommendation(t *testing.T, s *Store, ownerID, title string) *domain.Recommendation {
	t.Helper()
	rec := &domain.Recommendation{
		OwnerID: ownerID,
		Book:    domain.Book{Title: title, Author: "Frank Herbert", ISBN: "9780441013593"},
		Note:    "You will love it",
	}
	if err := s.CreateRecommendation(context.Background(), rec); err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}
	return rec
}

// insertTestShareLink issues a link for rec with the given token.
func insertTestShareLink(t *testing.T, s *Store, rec *domain.Recommendation, token string) *domain.ShareLink {
	t.Helper()
	link := &domain.ShareLink{
		RecommendationID: rec.ID,
		Token:            token,
		RecommenderName:  "Ada",
	}
	if err := s.CreateShareLink(context.Background(), link); err != nil {
		t.Fatalf("CreateShareLink: %v", err)
	}
	return link
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	tables := []string{
		"users", "reading_list_entries", "user_books", "recommendations",
		"share_links", "received_recommendations", "rejection_signals",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reopen.db")
	logger := slog.New(slog.DiscardHandler)

	s, err := Open(path, logger)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s.Close()

	s, err = Open(path, logger)
	if err != nil {
		t.Fatalf("schema must be re-appliable: %v", err)
	}
	s.Close()
}
