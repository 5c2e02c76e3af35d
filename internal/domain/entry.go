// Package domain holds the reading-list and recommendation entities.
package domain

import "time"

// Status is the lifecycle position of a reading-list entry.
type Status string

const (
	// StatusWantToRead is the queue.
	StatusWantToRead Status = "want_to_read"
	// StatusReading covers both active reads and books on hold (see Entry.ActiveRead).
	StatusReading Status = "reading"
	// StatusFinished marks a completed book.
	StatusFinished Status = "finished"
	// StatusAlreadyRead is terminal and only produced by bulk imports.
	StatusAlreadyRead Status = "already_read"
)

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusWantToRead, StatusReading, StatusFinished, StatusAlreadyRead:
		return st, true
	default:
		return "", false
	}
}

// statusTransitions is the reading lifecycle. Finishing is allowed straight from the queue.
// already_read is only ever created by imports and never left.
var statusTransitions = map[Status][]Status{
	StatusWantToRead: {StatusReading, StatusFinished},
	StatusReading:    {StatusWantToRead, StatusFinished},
}

// CanTransitionTo reports whether an entry in s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is the import-only terminal status.
// Finished entries also have no outgoing status transitions, but they can
// still be removed ("not for me") and are not considered terminal.
func (s Status) IsTerminal() bool {
	return s == StatusAlreadyRead
}

// Book is the identity and descriptive payload shared by entries,
// recommendations and received recommendations.
type Book struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn,omitempty"`
	Description string `json:"description,omitempty"`
}

// Entry is one book tracked on a user's reading list. It has exactly one status.
type Entry struct {
	Syncable
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn,omitempty"`
	Status      Status    `json:"status"`
	AddedAt     time.Time `json:"added_at"`
	Rating      *int      `json:"rating,omitempty"` // 1-5
	Description string    `json:"description,omitempty"`
	Reputation  string    `json:"reputation,omitempty"`
	Owned       bool      `json:"owned"`
	ActiveRead  bool      `json:"active_read"`
}

// Book returns the entry's book identity.
func (e *Entry) Book() Book {
	return Book{Title: e.Title, Author: e.Author, ISBN: e.ISBN, Description: e.Description}
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Rating != nil {
		r := *e.Rating
		c.Rating = &r
	}
	return &c
}

// EntryInput describes a new entry.
type EntryInput struct {
	Title       string `json:"title" validate:"notblank,max=500"`
	Author      string `json:"author" validate:"max=500"`
	ISBN        string `json:"isbn,omitempty" validate:"omitempty,bookisbn"`
	Status      Status `json:"status,omitempty" validate:"omitempty,oneof=want_to_read reading finished already_read"`
	Rating      *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Description string `json:"description,omitempty"`
	Reputation  string `json:"reputation,omitempty"`
	Owned       bool   `json:"owned,omitempty"`
}

// EntryInputFromBook builds a queue entry for an accepted recommendation.
func EntryInputFromBook(b Book) EntryInput {
	return EntryInput{
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		Status:      StatusWantToRead,
		Description: b.Description,
	}
}

// EntryPatch is a partial update. Nil fields are left unchanged.
// Status is deliberately absent: status changes go through SetStatus.
type EntryPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=500"`
	Author      *string `json:"author,omitempty" validate:"omitempty,max=500"`
	ISBN        *string `json:"isbn,omitempty" validate:"omitempty,bookisbn"`
	Rating      *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	ClearRating bool    `json:"clear_rating,omitempty"`
	Description *string `json:"description,omitempty"`
	Reputation  *string `json:"reputation,omitempty"`
	Owned       *bool   `json:"owned,omitempty"`
	ActiveRead  *bool   `json:"active_read,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.ISBN == nil && p.Rating == nil &&
		!p.ClearRating && p.Description == nil && p.Reputation == nil &&
		p.Owned == nil && p.ActiveRead == nil
}

// ApplyTo writes the patch onto e.
func (p EntryPatch) ApplyTo(e *Entry) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Author != nil {
		e.Author = *p.Author
	}
	if p.ISBN != nil {
		e.ISBN = *p.ISBN
	}
	if p.ClearRating {
		e.Rating = nil
	}
	if p.Rating != nil {
		r := *p.Rating
		e.Rating = &r
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Reputation != nil {
		e.Reputation = *p.Reputation
	}
	if p.Owned != nil {
		e.Owned = *p.Owned
	}
	if p.ActiveRead != nil {
		e.ActiveRead = *p.ActiveRead
	}
}
