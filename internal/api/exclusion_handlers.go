package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readlist/internal/exclusion"
)

func (s *Server) registerExclusionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getExclusions",
		Method:      http.MethodGet,
		Path:        "/api/v1/exclusions",
		Summary:     "Get exclusion set",
		Description: "Returns the normalized titles and ISBNs that suggestions must skip",
		Tags:        []string{"Suggestions"},
		Security:    bearer,
	}, s.handleGetExclusions)
}

// ExclusionsInput contains parameters for computing the exclusion set.
type ExclusionsInput struct {
	Authorization     string `header:"Authorization"`
	IncludeCollection bool   `query:"include_collection" doc:"Also exclude books kept in the collection"`
}

// ExclusionsResponse lists the excluded keys, sorted.
type ExclusionsResponse struct {
	Titles []string `json:"titles" doc:"Normalized titles"`
	ISBNs  []string `json:"isbns" doc:"Normalized ISBNs"`
}

// ExclusionsOutput wraps the exclusions response for Huma.
type ExclusionsOutput struct {
	Body ExclusionsResponse
}

func (s *Server) handleGetExclusions(ctx context.Context, input *ExclusionsInput) (*ExclusionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	resolver := exclusion.NewResolver(s.store, s.store, s.store,
		exclusion.Options{IncludeCollection: input.IncludeCollection, Reads: s.reads}, s.logger)
	set, err := resolver.Compute(ctx, userID)
	if err != nil {
		return nil, s.fail(err)
	}

	return &ExclusionsOutput{Body: ExclusionsResponse{
		Titles: sortedKeys(set.Titles),
		ISBNs:  sortedKeys(set.ISBNs),
	}}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
