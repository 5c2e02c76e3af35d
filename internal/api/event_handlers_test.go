package api

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
)

func TestEvents_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/events")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)
}

func TestEvents_StreamsListChanges(t *testing.T) {
	ts := setupTestServer(t)
	srv := httptest.NewServer(ts.Server)
	t.Cleanup(srv.Close)

	ada := ts.auth(t, "user-ada", "")
	resp := ts.api.Post("/api/v1/session/start", ada, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", strings.TrimPrefix(ada, "Authorization: "))

	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)

	lines := bufio.NewScanner(stream.Body)
	nextEvent := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "event: ") {
				return strings.TrimPrefix(line, "event: ")
			}
		}
		return ""
	}
	require.Equal(t, "connected", nextEvent())

	ts.addEntry(t, ada, "Dune")

	assert.Equal(t, "list.applied", nextEvent())
	assert.Equal(t, "list.committed", nextEvent())
}
