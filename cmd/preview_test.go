package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stylesync/internal/css"
	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/logging"
	"github.com/conneroisu/stylesync/internal/manager"
	"github.com/conneroisu/stylesync/internal/target"
	"github.com/conneroisu/stylesync/internal/websocket"
)

func get(t *testing.T, server *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestPreviewHandler(t *testing.T) {
	ctx := context.Background()
	doc := target.NewDocument()
	hub := websocket.NewHub(nil, logging.Nop())
	defer func() { _ = hub.Shutdown(ctx) }()

	mgr, err := manager.New(ctx, websocket.NewLiveTarget(doc, hub))
	require.NoError(t, err)
	mgr.Insert("habc", css.TierHigh, ".habc{color:red}")
	require.NoError(t, mgr.Flush(ctx))

	collector := serrors.NewCollector()
	server := httptest.NewServer(newPreviewHandler(doc, hub, collector))
	defer server.Close()

	status, body := get(t, server, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, ".habc{color:red}")
	assert.Contains(t, body, clientScriptPath)
	assert.NotContains(t, body, "stylesync-error-overlay")

	status, body = get(t, server, clientScriptPath)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "WebSocket")

	status, _ = get(t, server, "/missing")
	assert.Equal(t, http.StatusNotFound, status)

	collector.AddError("button", "styles/button.yml", errors.New("line 3: bad <value>"))
	_, body = get(t, server, overlayPath)
	assert.Contains(t, body, "styles/button.yml")
	assert.Contains(t, body, "bad &lt;value&gt;")

	_, body = get(t, server, "/")
	assert.Contains(t, body, "stylesync-error-overlay")
}
