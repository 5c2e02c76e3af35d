package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/validation"
)

type bookRequest struct {
	Title  string `json:"title" validate:"notblank,max=500"`
	ISBN   string `json:"isbn,omitempty" validate:"omitempty,bookisbn"`
	Rating *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Note   string `json:"note" validate:"required"`
}

func intPtr(n int) *int { return &n }

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookRequest{Title: "Dune", ISBN: "978-0-441-17271-9", Rating: intPtr(5), Note: "Read it"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       bookRequest
		wantField string
		wantMsg   string
	}{
		{"blank title", bookRequest{Title: "   ", Note: "x"}, "title", "is required"},
		{"bad isbn", bookRequest{Title: "Dune", ISBN: "12345", Note: "x"}, "isbn", "must be a valid ISBN-10 or ISBN-13"},
		{"rating too high", bookRequest{Title: "Dune", Rating: intPtr(6), Note: "x"}, "rating", "must be less than or equal to 5"},
		{"missing note", bookRequest{Title: "Dune"}, "note", "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}
