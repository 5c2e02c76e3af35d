package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/store"
)

func TestCreateShareLink_OnePerRecommendation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := insertTestRecommendation(t, s, "user-1", "Dune")
	insertTestShareLink(t, s, rec, "token-a")

	dup := &domain.ShareLink{RecommendationID: rec.ID, Token: "token-b", RecommenderName: "Ada"}
	if err := s.CreateShareLink(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.GetShareLinkByRecommendation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetShareLinkByRecommendation: %v", err)
	}
	if got.Token != "token-a" {
		t.Errorf("Token: got %q, want token-a", got.Token)
	}

	withLink, err := s.GetRecommendation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if withLink.ShareLink == nil || withLink.ShareLink.Token != "token-a" {
		t.Errorf("expected recommendation to carry its link, got %+v", withLink.ShareLink)
	}
}

func TestGetRecommendation_WithoutLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := insertTestRecommendation(t, s, "user-1", "Dune")

	got, err := s.GetRecommendation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if got.ShareLink != nil {
		t.Errorf("expected no link, got %+v", got.ShareLink)
	}
	if got.Book.ISBN != "9780441013593" || got.Note != "You will love it" {
		t.Errorf("unexpected recommendation: %+v", got)
	}

	if _, err := s.GetShareLinkByRecommendation(ctx, rec.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveShareLink_CountsEveryCall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := insertTestRecommendation(t, s, "user-1", "Dune")
	insertTestShareLink(t, s, rec, "token-a")

	for want := 1; want <= 3; want++ {
		view, err := s.ResolveShareLink(ctx, "token-a", time.Now())
		if err != nil {
			t.Fatalf("ResolveShareLink: %v", err)
		}
		if view.ViewCount != want {
			t.Errorf("ViewCount: got %d, want %d", view.ViewCount, want)
		}
		if view.LastViewedAt == nil {
			t.Error("expected LastViewedAt to be set")
		}
		if view.Book.Title != "Dune" || view.RecommenderName != "Ada" || view.OwnerID != "user-1" {
			t.Errorf("unexpected view: %+v", view)
		}
	}

	peek, err := s.GetShareView(ctx, "token-a")
	if err != nil {
		t.Fatalf("GetShareView: %v", err)
	}
	if peek.ViewCount != 3 {
		t.Errorf("GetShareView must not count: got %d", peek.ViewCount)
	}
}

func TestResolveShareLink_UnknownToken(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ResolveShareLink(context.Background(), "nope", time.Now())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkShareLinkAccepted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := insertTestRecommendation(t, s, "user-1", "Dune")
	link := insertTestShareLink(t, s, rec, "token-a")

	if err := s.MarkShareLinkAccepted(ctx, link.ID, "user-2", time.Now()); err != nil {
		t.Fatalf("MarkShareLinkAccepted: %v", err)
	}

	got, err := s.GetShareLinkByRecommendation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetShareLinkByRecommendation: %v", err)
	}
	if got.AcceptedAt == nil || got.AcceptedBy != "user-2" {
		t.Errorf("acceptance not stamped: %+v", got)
	}
}

func TestListRecommendations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := insertTestRecommendation(t, s, "user-1", "Dune")
	insertTestRecommendation(t, s, "user-1", "Foundation")
	insertTestRecommendation(t, s, "user-2", "Hyperion")
	insertTestShareLink(t, s, a, "token-a")

	recs, err := s.ListRecommendations(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListRecommendations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}

	linked := 0
	for _, r := range recs {
		if r.ShareLink != nil {
			linked++
		}
	}
	if linked != 1 {
		t.Errorf("expected exactly one linked recommendation, got %d", linked)
	}
}
