package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readlist/internal/readinglist"
)

func TestHandler_StreamsUserEvents(t *testing.T) {
	m := startManager(t)
	h := NewHandler(m, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Stream(w, r, "user-ada")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "event: ") {
				return strings.TrimPrefix(line, "event: ")
			}
		}
		return ""
	}

	require.Equal(t, "connected", next())

	m.EmitterFor("user-bob").Emit(readinglist.Event{Type: readinglist.EventLoaded, Op: "load"})
	m.EmitterFor("user-ada").Emit(readinglist.Event{Type: readinglist.EventApplied, Op: "add"})

	assert.Equal(t, string(EventListApplied), next())
}
