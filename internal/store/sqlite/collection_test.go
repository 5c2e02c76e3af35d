package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/store"
)

func TestUserBooks_DedupByTitleAndAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &domain.UserBook{OwnerID: "user-1", Title: "Dune", Author: "Frank Herbert", Source: domain.SourceFinished}
	if err := s.CreateUserBook(ctx, b); err != nil {
		t.Fatalf("CreateUserBook: %v", err)
	}

	dup := &domain.UserBook{OwnerID: "user-1", Title: "DUNE", Author: "frank herbert", Source: domain.SourceImport}
	if err := s.CreateUserBook(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for case-variant duplicate, got %v", err)
	}

	got, err := s.GetUserBookByKey(ctx, "user-1", " dune ", "FRANK HERBERT")
	if err != nil {
		t.Fatalf("GetUserBookByKey: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("ID: got %q, want %q", got.ID, b.ID)
	}

	rating := 5
	got.Rating = &rating
	got.Review = "Spice must flow"
	if err := s.UpdateUserBook(ctx, got); err != nil {
		t.Fatalf("UpdateUserBook: %v", err)
	}

	books, err := s.ListUserBooks(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListUserBooks: %v", err)
	}
	if len(books) != 1 || books[0].Rating == nil || *books[0].Rating != 5 || books[0].Review != "Spice must flow" {
		t.Errorf("unexpected collection: %+v", books)
	}

	if _, err := s.GetUserBookByKey(ctx, "user-2", "Dune", "Frank Herbert"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other owner, got %v", err)
	}
}

func TestRejections_AppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, r := range []*domain.RejectionSignal{
		{UserID: "user-1", Title: "Foundation", Author: "Isaac Asimov", Reason: domain.RejectionNotForMe, CreatedAt: base},
		{UserID: "user-1", Title: "Foundation", Author: "Isaac Asimov", Reason: domain.RejectionDeclined, CreatedAt: base.Add(time.Second)},
		{UserID: "user-2", Title: "Dune", Reason: domain.RejectionRemoved},
	} {
		if err := s.AppendRejection(ctx, r); err != nil {
			t.Fatalf("AppendRejection: %v", err)
		}
	}

	got, err := s.ListRejections(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListRejections: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(got))
	}
	if got[0].Reason != domain.RejectionNotForMe || got[1].Reason != domain.RejectionDeclined {
		t.Errorf("unexpected order or reasons: %+v", got)
	}
}

func TestUsers_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, "user-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.UpsertUser(ctx, &domain.User{Syncable: domain.Syncable{ID: "user-1"}, DisplayName: "Ada"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := s.UpsertUser(ctx, &domain.User{Syncable: domain.Syncable{ID: "user-1"}, DisplayName: "Ada L."}); err != nil {
		t.Fatalf("UpsertUser again: %v", err)
	}

	u, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.DisplayName != "Ada L." {
		t.Errorf("DisplayName: got %q", u.DisplayName)
	}

	if err := s.UpsertUser(ctx, &domain.User{}); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
}
