package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/share"
	"github.com/listenupapp/readlist/internal/store"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/start",
		Summary:     "Start session",
		Description: "Loads the reading list and completes any acceptance parked before sign-in",
		Tags:        []string{"Session"},
		Security:    bearer,
	}, s.handleStartSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "endSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/session",
		Summary:     "End session",
		Description: "Drops the server-side reading list state for the caller",
		Tags:        []string{"Session"},
		Security:    bearer,
	}, s.handleEndSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPut,
		Path:        "/api/v1/me",
		Summary:     "Update profile",
		Description: "Sets the display name snapshotted onto new share links",
		Tags:        []string{"Session"},
		Security:    bearer,
	}, s.handleUpdateProfile)
}

// === DTOs ===

// StartSessionRequest is the request body for starting a session.
type StartSessionRequest struct {
	PendingKey string `json:"pending_key,omitempty" doc:"Key returned by an anonymous share acceptance"`
}

// StartSessionInput wraps the start request for Huma.
type StartSessionInput struct {
	Authorization string `header:"Authorization"`
	Body          StartSessionRequest
}

// StartSessionResponse contains the loaded list and the drained acceptance.
type StartSessionResponse struct {
	UserID     string              `json:"user_id" doc:"Authenticated user"`
	Entries    []*domain.Entry     `json:"entries" doc:"Reading list after the drain"`
	Drained    *share.AcceptResult `json:"drained,omitempty" doc:"Parked acceptance that was completed"`
	DrainError string              `json:"drain_error,omitempty" doc:"Why a parked acceptance could not be completed"`
}

// StartSessionOutput wraps the start response for Huma.
type StartSessionOutput struct {
	Body StartSessionResponse
}

// EndSessionInput contains parameters for ending a session.
type EndSessionInput struct {
	Authorization string `header:"Authorization"`
}

// UpdateProfileRequest is the request body for a profile update.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" maxLength:"100" doc:"Name shown on share links"`
}

// UpdateProfileInput wraps the profile request for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateProfileRequest
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

// === Handlers ===

func (s *Server) handleStartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	if name := displayName(ctx); name != "" {
		if err := s.ensureUser(ctx, userID, name); err != nil {
			s.logger.Warn("display name not recorded", "user_id", userID, "error", err)
		}
	}

	_, result, err := s.services.Sessions.Start(ctx, userID, input.Body.PendingKey)
	if result == nil {
		return nil, s.fail(err)
	}

	resp := StartSessionResponse{
		UserID:  userID,
		Entries: nonNil(result.Entries),
		Drained: result.Drained,
	}
	if err != nil {
		resp.DrainError = err.Error()
	}
	return &StartSessionOutput{Body: resp}, nil
}

// ensureUser records the token's display name the first time a user shows up.
func (s *Server) ensureUser(ctx context.Context, userID, name string) error {
	_, err := s.store.GetUser(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	user := &domain.User{Syncable: domain.Syncable{ID: userID}, DisplayName: name}
	return s.store.UpsertUser(ctx, user)
}

func (s *Server) handleEndSession(ctx context.Context, _ *EndSessionInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	s.services.Sessions.End(userID)
	return nil, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	user := &domain.User{Syncable: domain.Syncable{ID: userID}, DisplayName: input.Body.DisplayName}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, s.fail(domainerrors.RemoteFailure("save profile", err))
	}

	saved, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, s.fail(domainerrors.RemoteFailure("read profile", err))
	}
	return &UserOutput{Body: saved}, nil
}
