package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/store"
)

func newReceived(recipientID string, link *domain.ShareLink) *domain.ReceivedRecommendation {
	return &domain.ReceivedRecommendation{
		RecipientID:     recipientID,
		ShareLinkID:     link.ID,
		Book:            domain.Book{Title: "Dune", Author: "Frank Herbert"},
		Note:            "You will love it",
		RecommenderName: link.RecommenderName,
		Status:          domain.ReceivedPending,
	}
}

func TestCreateReceived_UniquePerRecipientAndLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	link := insertTestShareLink(t, s, insertTestRecommendation(t, s, "user-1", "Dune"), "token-a")

	first := newReceived("user-2", link)
	if err := s.CreateReceived(ctx, first); err != nil {
		t.Fatalf("CreateReceived: %v", err)
	}
	if err := s.CreateReceived(ctx, newReceived("user-2", link)); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if err := s.CreateReceived(ctx, newReceived("user-3", link)); err != nil {
		t.Errorf("another recipient should be able to save the same link: %v", err)
	}

	got, err := s.GetReceivedByShareLink(ctx, "user-2", link.ID)
	if err != nil {
		t.Fatalf("GetReceivedByShareLink: %v", err)
	}
	if got.ID != first.ID || got.Status != domain.ReceivedPending {
		t.Errorf("unexpected received: %+v", got)
	}
}

func TestUpdateReceivedStatus_AndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	linkA := insertTestShareLink(t, s, insertTestRecommendation(t, s, "user-1", "Dune"), "token-a")
	linkB := insertTestShareLink(t, s, insertTestRecommendation(t, s, "user-1", "Foundation"), "token-b")

	a := newReceived("user-2", linkA)
	b := newReceived("user-2", linkB)
	for _, r := range []*domain.ReceivedRecommendation{a, b} {
		if err := s.CreateReceived(ctx, r); err != nil {
			t.Fatalf("CreateReceived: %v", err)
		}
	}

	at := time.Now().Add(time.Minute)
	if err := s.UpdateReceivedStatus(ctx, a.ID, domain.ReceivedDeclined, at); err != nil {
		t.Fatalf("UpdateReceivedStatus: %v", err)
	}

	got, err := s.GetReceived(ctx, "user-2", a.ID)
	if err != nil {
		t.Fatalf("GetReceived: %v", err)
	}
	if got.Status != domain.ReceivedDeclined || !got.StatusChangedAt.Equal(at.UTC()) {
		t.Errorf("status not updated: %+v", got)
	}

	all, err := s.ListReceived(ctx, "user-2", "")
	if err != nil {
		t.Fatalf("ListReceived: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2, got %d", len(all))
	}

	pending, err := s.ListReceived(ctx, "user-2", domain.ReceivedPending)
	if err != nil {
		t.Fatalf("ListReceived pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("expected only b pending, got %+v", pending)
	}

	if _, err := s.GetReceived(ctx, "user-3", a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("other recipients must not see the record, got %v", err)
	}
}
