package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/recommend"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecommendation",
		Method:        http.MethodPost,
		Path:          "/api/v1/recommendations",
		Summary:       "Create recommendation",
		Description:   "Authors a recommendation. A note is required",
		Tags:          []string{"Recommendations"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecommendation)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecommendationFromCollection",
		Method:        http.MethodPost,
		Path:          "/api/v1/recommendations/from-collection",
		Summary:       "Recommend from collection",
		Description:   "Recommends a kept book. The note is optional",
		Tags:          []string{"Recommendations"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecommendationFromCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "List recommendations",
		Description: "Returns the caller's recommendations, newest first",
		Tags:        []string{"Recommendations"},
		Security:    bearer,
	}, s.handleListRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendation",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations/{id}",
		Summary:     "Get recommendation",
		Description: "Returns one of the caller's recommendations with its share link",
		Tags:        []string{"Recommendations"},
		Security:    bearer,
	}, s.handleGetRecommendation)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOrCreateShareLink",
		Method:      http.MethodPost,
		Path:        "/api/v1/recommendations/{id}/share-link",
		Summary:     "Get or create share link",
		Description: "Returns the recommendation's share link, issuing it on first call",
		Tags:        []string{"Recommendations"},
		Security:    bearer,
	}, s.handleShareLink)
}

// === DTOs ===

// RecommendationRequest is the request body for authoring a recommendation.
type RecommendationRequest struct {
	Title       string `json:"title" doc:"Book title"`
	Author      string `json:"author,omitempty" doc:"Author"`
	ISBN        string `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13"`
	Description string `json:"description,omitempty" doc:"Description, filled in when empty"`
	Note        string `json:"note,omitempty" doc:"Why the recommender liked it"`
}

func (r RecommendationRequest) toCreate() recommend.CreateRequest {
	return recommend.CreateRequest{
		Title:       r.Title,
		Author:      r.Author,
		ISBN:        r.ISBN,
		Description: r.Description,
		Note:        r.Note,
	}
}

// CreateRecommendationInput wraps the create request for Huma.
type CreateRecommendationInput struct {
	Authorization string `header:"Authorization"`
	Body          RecommendationRequest
}

// RecommendationOutput wraps a recommendation for Huma.
type RecommendationOutput struct {
	Body *domain.Recommendation
}

// ListRecommendationsInput contains parameters for listing recommendations.
type ListRecommendationsInput struct {
	Authorization string `header:"Authorization"`
}

// RecommendationsResponse contains a list of recommendations.
type RecommendationsResponse struct {
	Recommendations []*domain.Recommendation `json:"recommendations" doc:"Recommendations"`
}

// RecommendationsOutput wraps the list response for Huma.
type RecommendationsOutput struct {
	Body RecommendationsResponse
}

// RecommendationIDInput addresses one recommendation.
type RecommendationIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recommendation ID"`
}

// ShareLinkResponse contains share link data in API responses.
type ShareLinkResponse struct {
	ID               string     `json:"id" doc:"Share link ID"`
	RecommendationID string     `json:"recommendation_id" doc:"Recommendation ID"`
	Token            string     `json:"token" doc:"Public token"`
	URL              string     `json:"url" doc:"Public URL"`
	RecommenderName  string     `json:"recommender_name" doc:"Name shown to visitors"`
	ViewCount        int        `json:"view_count" doc:"Number of resolutions"`
	LastViewedAt     *time.Time `json:"last_viewed_at,omitempty" doc:"Last resolution time"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty" doc:"First acceptance time"`
	CreatedAt        time.Time  `json:"created_at" doc:"Issue time"`
}

// ShareLinkOutput wraps the share link response for Huma.
type ShareLinkOutput struct {
	Body ShareLinkResponse
}

// === Handlers ===

func (s *Server) handleCreateRecommendation(ctx context.Context, input *CreateRecommendationInput) (*RecommendationOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	rec, err := s.services.Recommend.Create(ctx, userID, input.Body.toCreate())
	if err != nil {
		return nil, s.fail(err)
	}
	return &RecommendationOutput{Body: rec}, nil
}

func (s *Server) handleCreateRecommendationFromCollection(ctx context.Context, input *CreateRecommendationInput) (*RecommendationOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	rec, err := s.services.Recommend.CreateFromCollection(ctx, userID, input.Body.toCreate())
	if err != nil {
		return nil, s.fail(err)
	}
	return &RecommendationOutput{Body: rec}, nil
}

func (s *Server) handleListRecommendations(ctx context.Context, _ *ListRecommendationsInput) (*RecommendationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	recs, err := s.services.Recommend.List(ctx, userID)
	if err != nil {
		return nil, s.fail(err)
	}
	if recs == nil {
		recs = []*domain.Recommendation{}
	}
	return &RecommendationsOutput{Body: RecommendationsResponse{Recommendations: recs}}, nil
}

func (s *Server) handleGetRecommendation(ctx context.Context, input *RecommendationIDInput) (*RecommendationOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	rec, err := s.services.Recommend.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &RecommendationOutput{Body: rec}, nil
}

func (s *Server) handleShareLink(ctx context.Context, input *RecommendationIDInput) (*ShareLinkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	link, err := s.services.Recommend.GetOrCreateShareLink(ctx, userID, input.ID)
	if err != nil {
		return nil, s.fail(err)
	}

	return &ShareLinkOutput{Body: ShareLinkResponse{
		ID:               link.ID,
		RecommendationID: link.RecommendationID,
		Token:            link.Token,
		URL:              link.URL,
		RecommenderName:  link.RecommenderName,
		ViewCount:        link.ViewCount,
		LastViewedAt:     link.LastViewedAt,
		AcceptedAt:       link.AcceptedAt,
		CreatedAt:        link.CreatedAt,
	}}, nil
}
