package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/share"
)

func (s *Server) registerShareRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "resolveShare",
		Method:      http.MethodGet,
		Path:        "/api/v1/shares/{token}",
		Summary:     "Resolve share link",
		Description: "Public. Returns the shared recommendation and counts one view",
		Tags:        []string{"Shares"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleResolveShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "receiveShare",
		Method:      http.MethodPost,
		Path:        "/api/v1/shares/{token}/receive",
		Summary:     "Save share to inbox",
		Description: "Saves the shared recommendation to the caller's inbox without accepting it",
		Tags:        []string{"Shares"},
		Security:    bearer,
	}, s.handleReceiveShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "acceptShare",
		Method:      http.MethodPost,
		Path:        "/api/v1/shares/{token}/accept",
		Summary:     "Accept share",
		Description: "Adds the shared book to the caller's queue. Anonymous callers get a key " +
			"to present on their first session start",
		Tags:        []string{"Shares"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleAcceptShare)
}

func (s *Server) registerReceivedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReceived",
		Method:      http.MethodGet,
		Path:        "/api/v1/received",
		Summary:     "List received recommendations",
		Description: "Returns the caller's inbox, optionally filtered by status",
		Tags:        []string{"Received"},
		Security:    bearer,
	}, s.handleListReceived)

	huma.Register(s.api, huma.Operation{
		OperationID: "acceptReceived",
		Method:      http.MethodPost,
		Path:        "/api/v1/received/{id}/accept",
		Summary:     "Accept received recommendation",
		Description: "Adds the book to the queue, then marks the recommendation accepted",
		Tags:        []string{"Received"},
		Security:    bearer,
	}, s.handleAcceptReceived)

	huma.Register(s.api, huma.Operation{
		OperationID: "declineReceived",
		Method:      http.MethodPost,
		Path:        "/api/v1/received/{id}/decline",
		Summary:     "Decline received recommendation",
		Description: "Declines the recommendation. It can still be accepted later",
		Tags:        []string{"Received"},
		Security:    bearer,
	}, s.handleDeclineReceived)

	huma.Register(s.api, huma.Operation{
		OperationID: "archiveReceived",
		Method:      http.MethodPost,
		Path:        "/api/v1/received/{id}/archive",
		Summary:     "Archive received recommendation",
		Description: "Archives a pending recommendation",
		Tags:        []string{"Received"},
		Security:    bearer,
	}, s.handleArchiveReceived)
}

// === DTOs ===

// ShareTokenInput addresses a share link.
type ShareTokenInput struct {
	Authorization string `header:"Authorization"`
	Token         string `path:"token" doc:"Share token"`
}

// ShareViewOutput wraps the public view for Huma.
type ShareViewOutput struct {
	Body *domain.RecommendationView
}

// ReceivedOutput wraps a received recommendation for Huma.
type ReceivedOutput struct {
	Body *domain.ReceivedRecommendation
}

// AcceptOutput wraps an acceptance result for Huma.
type AcceptOutput struct {
	Body *share.AcceptResult
}

// ListReceivedInput contains parameters for listing the inbox.
type ListReceivedInput struct {
	Authorization string `header:"Authorization"`
	Status        string `query:"status" doc:"pending, accepted, declined or archived"`
}

// ReceivedListResponse contains received recommendations.
type ReceivedListResponse struct {
	Received []*domain.ReceivedRecommendation `json:"received" doc:"Received recommendations"`
}

// ReceivedListOutput wraps the inbox for Huma.
type ReceivedListOutput struct {
	Body ReceivedListResponse
}

// ReceivedIDInput addresses one received recommendation.
type ReceivedIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Received recommendation ID"`
}

// === Handlers ===

func (s *Server) handleResolveShare(ctx context.Context, input *ShareTokenInput) (*ShareViewOutput, error) {
	view, err := s.services.Share.Resolve(ctx, input.Token)
	if err != nil {
		return nil, s.fail(err)
	}
	return &ShareViewOutput{Body: view}, nil
}

func (s *Server) handleReceiveShare(ctx context.Context, input *ShareTokenInput) (*ReceivedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	r, err := s.services.Share.Receive(ctx, userID, input.Token)
	if err != nil {
		return nil, s.fail(err)
	}
	return &ReceivedOutput{Body: r}, nil
}

func (s *Server) handleAcceptShare(ctx context.Context, input *ShareTokenInput) (*AcceptOutput, error) {
	if optionalUserID(ctx) == "" {
		result, err := s.services.Share.AcceptFromLink(ctx, "", input.Token, nil)
		if err != nil {
			return nil, s.fail(err)
		}
		return &AcceptOutput{Body: result}, nil
	}

	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	result, err := sess.AcceptFromLink(ctx, input.Token)
	if err != nil {
		return nil, s.fail(err)
	}
	return &AcceptOutput{Body: result}, nil
}

func (s *Server) handleListReceived(ctx context.Context, input *ListReceivedInput) (*ReceivedListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	var status domain.ReceivedStatus
	if input.Status != "" {
		parsed, ok := domain.ParseReceivedStatus(input.Status)
		if !ok {
			return nil, s.fail(domainerrors.Validationf("unknown status %q", input.Status))
		}
		status = parsed
	}

	items, err := s.services.Share.ListInbox(ctx, userID, status)
	if err != nil {
		return nil, s.fail(err)
	}
	if items == nil {
		items = []*domain.ReceivedRecommendation{}
	}
	return &ReceivedListOutput{Body: ReceivedListResponse{Received: items}}, nil
}

func (s *Server) handleAcceptReceived(ctx context.Context, input *ReceivedIDInput) (*AcceptOutput, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	result, err := sess.Accept(ctx, input.ID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &AcceptOutput{Body: result}, nil
}

func (s *Server) handleDeclineReceived(ctx context.Context, input *ReceivedIDInput) (*ReceivedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	r, err := s.services.Share.Decline(ctx, userID, input.ID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &ReceivedOutput{Body: r}, nil
}

func (s *Server) handleArchiveReceived(ctx context.Context, input *ReceivedIDInput) (*ReceivedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	r, err := s.services.Share.Archive(ctx, userID, input.ID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &ReceivedOutput{Body: r}, nil
}
