package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// writeGrace is how long a single frame may take before the connection is
// considered dead. It is pushed forward after every frame so the server's
// WriteTimeout does not end a healthy stream.
const writeGrace = 60 * time.Second

// retryMillis is the reconnect delay suggested to browsers.
const retryMillis = 3000

// Handler serves change streams.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{manager: manager, logger: logger}
}

// Stream serves userID's changes until the client leaves or the manager
// shuts down. The caller has already authenticated the request.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	fw := &frameWriter{w: w, rc: http.NewResponseController(w)}
	if err := fw.rc.Flush(); err != nil {
		h.logger.Error("response does not support streaming", "error", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect(userID)
	if err != nil {
		h.logger.Error("open change stream", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client)

	log := h.logger.With("client_id", client.ID, "user_id", userID)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", retryMillis); err != nil {
		return
	}
	hello := map[string]string{"client_id": client.ID}
	if err := fw.write(client.NextID(), "connected", hello); err != nil {
		log.Debug("client left before hello", "error", err)
		return
	}

	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := fw.write(client.NextID(), string(event.Type), event); err != nil {
				log.Debug("client left mid-stream", "error", err)
				return
			}
		case <-client.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// frameWriter writes text/event-stream frames and flushes each one.
type frameWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (f *frameWriter) write(seq uint64, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", name, err)
	}
	if _, err := fmt.Fprintf(f.w, "id: %d\nevent: %s\ndata: %s\n\n", seq, name, data); err != nil {
		return err
	}
	if err := f.rc.Flush(); err != nil {
		return err
	}
	// Not every ResponseWriter supports deadlines; httptest's recorder does not.
	_ = f.rc.SetWriteDeadline(time.Now().Add(writeGrace))
	return nil
}
