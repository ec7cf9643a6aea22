package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/logger"
)

func TestAlertPostsPayload(t *testing.T) {
	var got alertPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(config.NotifierConfig{
		URL:     srv.URL,
		Timeout: time.Second,
		Enabled: true,
	}, logger.NewNopLogger())

	n.Alert(context.Background(), SeverityWarning, "broken link ratio above threshold")

	assert.Equal(t, SeverityWarning, got.Severity)
	assert.Equal(t, "broken link ratio above threshold", got.Message)
}

func TestAlertFailureIsSwallowed(t *testing.T) {
	n := NewHTTPNotifier(config.NotifierConfig{
		URL:     "http://127.0.0.1:1",
		Timeout: 100 * time.Millisecond,
		Enabled: true,
	}, logger.NewNopLogger())

	// Must not panic or block.
	n.Alert(context.Background(), SeverityError, "unreachable")
}

func TestDisabledNotifierIsNop(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(config.NotifierConfig{URL: srv.URL, Enabled: false}, logger.NewNopLogger())
	n.Alert(context.Background(), SeverityInfo, "ignored")

	assert.IsType(t, NopNotifier{}, n)
	assert.Zero(t, calls.Load())
}
