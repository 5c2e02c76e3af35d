package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/transition"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (s *Server) registerReadingListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReadingList",
		Method:      http.MethodGet,
		Path:        "/api/v1/reading-list",
		Summary:     "List reading list",
		Description: "Returns every entry, or only the ordered queue when view=queue",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleListEntries)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addReadingListEntry",
		Method:        http.MethodPost,
		Path:          "/api/v1/reading-list",
		Summary:       "Add entry",
		Description:   "Adds a book to the reading list (defaults to the queue)",
		Tags:          []string{"Reading List"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReadingListEntry",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reading-list/{id}",
		Summary:     "Update entry",
		Description: "Edits entry fields. Status changes go through the status and gesture endpoints",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleUpdateEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReadingListEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reading-list/{id}",
		Summary:     "Delete entry",
		Description: "Removes an entry and records a removal signal",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleDeleteEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "setReadingListStatus",
		Method:      http.MethodPut,
		Path:        "/api/v1/reading-list/{id}/status",
		Summary:     "Set status",
		Description: "Moves an entry along the reading lifecycle",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleSetStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderQueue",
		Method:      http.MethodPost,
		Path:        "/api/v1/reading-list/reorder",
		Summary:     "Reorder queue",
		Description: "Moves a queue item from one position to another and returns the new queue",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleReorder)

	huma.Register(s.api, huma.Operation{
		OperationID: "importAlreadyRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/reading-list/import",
		Summary:     "Import already-read books",
		Description: "Adds books as already read and keeps them in the collection",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleImport)

	s.registerGestureRoutes()
}

// === DTOs ===

// EntryRequest is the request body for adding an entry.
type EntryRequest struct {
	Title       string `json:"title" doc:"Book title"`
	Author      string `json:"author,omitempty" doc:"Author"`
	ISBN        string `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13"`
	Status      string `json:"status,omitempty" doc:"Initial status, want_to_read by default"`
	Rating      *int   `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	Description string `json:"description,omitempty" doc:"Description"`
	Reputation  string `json:"reputation,omitempty" doc:"Short reputation blurb"`
	Owned       bool   `json:"owned,omitempty" doc:"Whether the user owns a copy"`
}

func (r EntryRequest) toInput() domain.EntryInput {
	return domain.EntryInput{
		Title:       r.Title,
		Author:      r.Author,
		ISBN:        r.ISBN,
		Status:      domain.Status(r.Status),
		Rating:      r.Rating,
		Description: r.Description,
		Reputation:  r.Reputation,
		Owned:       r.Owned,
	}
}

// ListEntriesInput contains parameters for listing the reading list.
type ListEntriesInput struct {
	Authorization string `header:"Authorization"`
	View          string `query:"view" enum:"all,queue" default:"all" doc:"all entries or the ordered queue"`
}

// EntriesResponse contains a list of entries.
type EntriesResponse struct {
	Entries []*domain.Entry `json:"entries" doc:"Entries"`
}

// EntriesOutput wraps the entries response for Huma.
type EntriesOutput struct {
	Body EntriesResponse
}

// AddEntryInput wraps the add entry request for Huma.
type AddEntryInput struct {
	Authorization string `header:"Authorization"`
	Body          EntryRequest
}

// EntryOutput wraps an entry for Huma.
type EntryOutput struct {
	Body *domain.Entry
}

// EntryIDInput addresses one entry.
type EntryIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Entry ID"`
}

// UpdateEntryInput wraps the update entry request for Huma.
type UpdateEntryInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Entry ID"`
	Body          domain.EntryPatch
}

// SetStatusRequest is the request body for a status change.
type SetStatusRequest struct {
	Status string `json:"status" doc:"want_to_read, reading or finished"`
}

// SetStatusInput wraps the status request for Huma.
type SetStatusInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Entry ID"`
	Body          SetStatusRequest
}

// ReorderRequest moves a queue item.
type ReorderRequest struct {
	From int `json:"from" doc:"Current queue index"`
	To   int `json:"to" doc:"Target queue index"`
}

// ReorderInput wraps the reorder request for Huma.
type ReorderInput struct {
	Authorization string `header:"Authorization"`
	Body          ReorderRequest
}

// ImportRequest lists books to import as already read.
type ImportRequest struct {
	Books []EntryRequest `json:"books" doc:"Books to import"`
}

// ImportInput wraps the import request for Huma.
type ImportInput struct {
	Authorization string `header:"Authorization"`
	Body          ImportRequest
}

// === Handlers ===

func (s *Server) handleListEntries(ctx context.Context, input *ListEntriesInput) (*EntriesOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	entries := sess.List.List()
	if input.View == "queue" {
		entries = sess.List.Queue()
	}
	return &EntriesOutput{Body: EntriesResponse{Entries: nonNil(entries)}}, nil
}

func (s *Server) handleAddEntry(ctx context.Context, input *AddEntryInput) (*EntryOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	entry, err := sess.List.Add(ctx, input.Body.toInput())
	if err != nil {
		return nil, s.fail(err)
	}
	return &EntryOutput{Body: entry}, nil
}

func (s *Server) handleUpdateEntry(ctx context.Context, input *UpdateEntryInput) (*EntryOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	entry, err := sess.List.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, s.fail(err)
	}
	return &EntryOutput{Body: entry}, nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, input *EntryIDInput) (*struct{}, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	if err := sess.Transitions.Delete(ctx, input.ID); err != nil {
		return nil, s.fail(err)
	}
	return nil, nil
}

func (s *Server) handleSetStatus(ctx context.Context, input *SetStatusInput) (*EntryOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	status, ok := domain.ParseStatus(input.Body.Status)
	if !ok {
		return nil, s.fail(domainerrors.Validationf("unknown status %q", input.Body.Status))
	}
	entry, err := sess.List.SetStatus(ctx, input.ID, status)
	if err != nil {
		return nil, s.fail(err)
	}
	return &EntryOutput{Body: entry}, nil
}

func (s *Server) handleReorder(ctx context.Context, input *ReorderInput) (*EntriesOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	if err := sess.List.Reorder(input.Body.From, input.Body.To); err != nil {
		return nil, s.fail(err)
	}
	return &EntriesOutput{Body: EntriesResponse{Entries: nonNil(sess.List.Queue())}}, nil
}

func (s *Server) handleImport(ctx context.Context, input *ImportInput) (*EntriesOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	imported := make([]*domain.Entry, 0, len(input.Body.Books))
	for _, book := range input.Body.Books {
		entry, err := sess.Transitions.ImportAlreadyRead(ctx, book.toInput())
		if err != nil {
			return nil, s.fail(err)
		}
		imported = append(imported, entry)
	}
	return &EntriesOutput{Body: EntriesResponse{Entries: imported}}, nil
}

func nonNil(entries []*domain.Entry) []*domain.Entry {
	if entries == nil {
		return []*domain.Entry{}
	}
	return entries
}

// === Gestures ===

func (s *Server) registerGestureRoutes() {
	simple := []struct {
		id, path, summary, description string
		handler                        func(context.Context, *EntryIDInput) (*EntryOutput, error)
	}{
		{"startReading", "start", "Start reading", "Moves a queued book to reading", s.gesture((*transition.Engine).StartReading)},
		{"pauseReading", "pause", "Pause reading", "Puts a book in progress on hold", s.gesture((*transition.Engine).PauseReading)},
		{"resumeReading", "resume", "Resume reading", "Resumes a book on hold", s.gesture((*transition.Engine).ResumeReading)},
		{"returnToQueue", "return", "Return to queue", "Moves a book in progress back to the queue", s.gesture((*transition.Engine).ReturnToQueue)},
		{"finishDiscard", "finish-discard", "Finish and discard", "Finishes a book without keeping it", s.gesture((*transition.Engine).FinishDiscard)},
	}
	for _, g := range simple {
		huma.Register(s.api, huma.Operation{
			OperationID: g.id,
			Method:      http.MethodPost,
			Path:        "/api/v1/reading-list/{id}/" + g.path,
			Summary:     g.summary,
			Description: g.description,
			Tags:        []string{"Reading List"},
			Security:    bearer,
		}, g.handler)
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "finishKeep",
		Method:      http.MethodPost,
		Path:        "/api/v1/reading-list/{id}/finish-keep",
		Summary:     "Finish and keep",
		Description: "Finishes a book, keeps it in the collection and optionally recommends it",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleFinishKeep)

	huma.Register(s.api, huma.Operation{
		OperationID: "notForMe",
		Method:      http.MethodPost,
		Path:        "/api/v1/reading-list/{id}/not-for-me",
		Summary:     "Not for me",
		Description: "Removes a book and records that it should not be suggested again",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleNotForMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "dropEntry",
		Method:      http.MethodPost,
		Path:        "/api/v1/reading-list/{id}/drop",
		Summary:     "Drop on zone",
		Description: "Performs the gesture assigned to dropping an entry on a board zone",
		Tags:        []string{"Reading List"},
		Security:    bearer,
	}, s.handleDrop)
}

// gesture adapts a single-entry engine method to a handler.
func (s *Server) gesture(fn func(*transition.Engine, context.Context, string) (*domain.Entry, error)) func(context.Context, *EntryIDInput) (*EntryOutput, error) {
	return func(ctx context.Context, input *EntryIDInput) (*EntryOutput, error) {
		sess, err := s.RequireSession(ctx)
		if err != nil {
			return nil, s.fail(err)
		}
		entry, err := fn(sess.Transitions, ctx, input.ID)
		if err != nil {
			return nil, s.fail(err)
		}
		return &EntryOutput{Body: entry}, nil
	}
}

// FinishKeepRequest carries the finish dialog choices.
type FinishKeepRequest struct {
	Rating    *int   `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	Review    string `json:"review,omitempty" doc:"Review text"`
	Recommend bool   `json:"recommend,omitempty" doc:"Also author a recommendation"`
	Note      string `json:"note,omitempty" doc:"Recommendation note"`
}

// FinishKeepInput wraps the finish request for Huma.
type FinishKeepInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Entry ID"`
	Body          FinishKeepRequest
}

// FinishKeepOutput wraps the finish result for Huma.
type FinishKeepOutput struct {
	Body *transition.FinishResult
}

func (s *Server) handleFinishKeep(ctx context.Context, input *FinishKeepInput) (*FinishKeepOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	result, err := sess.Transitions.FinishKeep(ctx, input.ID, transition.FinishOptions{
		Rating:    input.Body.Rating,
		Review:    input.Body.Review,
		Recommend: input.Body.Recommend,
		Note:      input.Body.Note,
	})
	if err != nil {
		return nil, s.fail(err)
	}
	return &FinishKeepOutput{Body: result}, nil
}

func (s *Server) handleNotForMe(ctx context.Context, input *EntryIDInput) (*struct{}, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	if err := sess.Transitions.NotForMe(ctx, input.ID); err != nil {
		return nil, s.fail(err)
	}
	return nil, nil
}

// DropRequest names the zone an entry was dropped on.
type DropRequest struct {
	Zone       string `json:"zone" enum:"queue,reading,collection,not_for_me" doc:"Drop zone"`
	QueueIndex int    `json:"queue_index,omitempty" doc:"Target index for drops within the queue"`
}

// DropInput wraps the drop request for Huma.
type DropInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Entry ID"`
	Body          DropRequest
}

// DropResponse reports the gesture a drop performed.
type DropResponse struct {
	Gesture string        `json:"gesture" doc:"Gesture performed"`
	Entry   *domain.Entry `json:"entry,omitempty" doc:"Entry after the gesture, absent when it was removed"`
}

// DropOutput wraps the drop response for Huma.
type DropOutput struct {
	Body DropResponse
}

func (s *Server) handleDrop(ctx context.Context, input *DropInput) (*DropOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	gesture, err := sess.Transitions.Drop(ctx, input.ID, transition.Zone(input.Body.Zone), input.Body.QueueIndex)
	if err != nil {
		return nil, s.fail(err)
	}

	resp := DropResponse{Gesture: string(gesture)}
	if entry, ok := sess.List.Get(input.ID); ok {
		resp.Entry = entry
	}
	return &DropOutput{Body: resp}, nil
}
