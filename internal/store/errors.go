package store

import "net/http"

// Error classifies a backing-store failure. Implementations wrap the
// sentinels below; callers match them with errors.Is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Status, so a sentinel re-labelled with WithMessage still
// matches the original.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

// HTTPCode is the response status the API uses for this failure.
func (e *Error) HTTPCode() int { return e.Status }

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Status: e.Status, Message: msg}
}

var (
	// ErrNotFound means no row matched.
	ErrNotFound = &Error{Status: http.StatusNotFound, Message: "not found in store"}
	// ErrAlreadyExists means a unique constraint rejected the write.
	ErrAlreadyExists = &Error{Status: http.StatusConflict, Message: "already stored"}
	// ErrInvalidInput means the write was refused before reaching the database.
	ErrInvalidInput = &Error{Status: http.StatusBadRequest, Message: "invalid store input"}
)
