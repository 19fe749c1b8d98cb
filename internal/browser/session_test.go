package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"session closed", ErrSessionClosed, true},
		{"wrapped session closed", fmt.Errorf("open: %w", ErrSessionClosed), true},
		{"cancelled", context.Canceled, true},
		{"timeout", ErrTimeout, false},
		{"not found", fmt.Errorf("click: %w", ErrNotFound), false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}

// TestChrome_Session drives a real headless Chrome. It only runs when
// FOODY_BROWSER_TESTS=1 and a Chrome binary is installed.
func TestChrome_Session(t *testing.T) {
	if os.Getenv("FOODY_BROWSER_TESTS") != "1" {
		t.Skip("set FOODY_BROWSER_TESTS=1 to run browser tests")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div id="list" style="height:3000px">items</div></body></html>`))
	}))
	defer server.Close()

	ctx := context.Background()
	session, err := Launch(ctx, Options{Headless: true, ActionTimeout: 10 * time.Second})
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Open(ctx, server.URL))
	require.NoError(t, session.WaitFor(ctx, "#list", 5*time.Second))

	err = session.WaitFor(ctx, "#missing", 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	err = session.Click(ctx, "#missing")
	assert.ErrorIs(t, err, ErrNotFound)

	html, err := session.Markup(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "items")

	height, err := session.ScrollHeight(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, height, int64(3000))
	require.NoError(t, session.ScrollBy(ctx, 500))

	require.NoError(t, session.Close())
	_, err = session.Markup(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
