package api

import (
	"encoding/json"
	"net/http"

	"github.com/listenupapp/readlist/internal/sse"
)

// registerEventRoutes mounts the SSE stream directly on the router; huma
// operations are request/response only.
func (s *Server) registerEventRoutes() {
	if s.services.Events == nil {
		return
	}
	stream := sse.NewHandler(s.services.Events, s.logger.With("component", "sse"))

	s.router.Get("/api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		userID := optionalUserID(r.Context())
		if userID == "" {
			writeErrorEnvelope(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		stream.Stream(w, r, userID)
	})
}

// writeErrorEnvelope writes an error envelope outside huma.
func writeErrorEnvelope(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Version: envelopeVersion,
		Error:   message,
		Code:    code,
		Message: message,
	})
}
