package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/logger"
)

type fakeStore struct {
	mu      sync.Mutex
	stale   []domain.ExternalLink
	totals  map[string]int
	results []domain.VerificationResult
}

func (f *fakeStore) ListStaleExternal(_ context.Context, _ time.Duration) ([]domain.ExternalLink, error) {
	return f.stale, nil
}

func (f *fakeStore) CountExternalBySource(_ context.Context) (map[string]int, error) {
	if f.totals != nil {
		return f.totals, nil
	}
	counts := make(map[string]int)
	for _, l := range f.stale {
		counts[l.SourceID]++
	}
	return counts, nil
}

func (f *fakeStore) MarkVerified(_ context.Context, r *domain.VerificationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, *r)
	return nil
}

func (f *fakeStore) resultFor(id uuid.UUID) (domain.VerificationResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.LinkID == id {
			return r, true
		}
	}
	return domain.VerificationResult{}, false
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Alert(_ context.Context, _, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func testVerificationConfig() config.VerificationConfig {
	return config.VerificationConfig{
		RecheckInterval:      72 * time.Hour,
		ConcurrentChecks:     4,
		RequestTimeout:       time.Second,
		RetryAttempts:        1,
		RetryDelay:           time.Millisecond,
		ValidStatuses:        []int{200, 301, 302, 308},
		BrokenAlertThreshold: 0.1,
	}
}

func link(sourceID, url string) domain.ExternalLink {
	return domain.ExternalLink{ID: uuid.New(), SourceID: sourceID, URL: url}
}

func TestRunMarksValidAndInvalidLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/moved":
			w.Header().Set("Location", "/ok")
			w.WriteHeader(http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ok := link("item-1", srv.URL+"/ok")
	moved := link("item-1", srv.URL+"/moved")
	gone := link("item-2", srv.URL+"/gone")

	store := &fakeStore{stale: []domain.ExternalLink{ok, moved, gone}}
	v := New(store, &fakeNotifier{}, testVerificationConfig(), logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Invalid)

	r, found := store.resultFor(ok.ID)
	require.True(t, found)
	assert.True(t, r.Valid)
	assert.Equal(t, http.StatusOK, r.StatusCode)

	r, found = store.resultFor(moved.ID)
	require.True(t, found)
	assert.True(t, r.Valid, "redirect status in the valid set counts as alive")
	assert.Equal(t, http.StatusMovedPermanently, r.StatusCode)

	r, found = store.resultFor(gone.ID)
	require.True(t, found)
	assert.False(t, r.Valid)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestRunFallsBackToGetOn405(t *testing.T) {
	var methods []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l := link("item-1", srv.URL)
	store := &fakeStore{stale: []domain.ExternalLink{l}}
	v := New(store, &fakeNotifier{}, testVerificationConfig(), logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Invalid)
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
}

func TestRunAlertsOncePerSourceItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Every link of item-1 is broken; well above the 10% threshold.
	store := &fakeStore{stale: []domain.ExternalLink{
		link("item-1", srv.URL+"/a"),
		link("item-1", srv.URL+"/b"),
		link("item-1", srv.URL+"/c"),
	}}
	notifier := &fakeNotifier{}
	v := New(store, notifier, testVerificationConfig(), logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"item-1"}, summary.Alerted)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "item-1")
	assert.Contains(t, notifier.messages[0], "3 of 3")
}

func TestRunBelowThresholdDoesNotAlert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// 1 of 20 broken is 5%, under the 10% threshold.
	links := make([]domain.ExternalLink, 0, 20)
	links = append(links, link("item-1", srv.URL+"/broken"))
	for _i := 0; _i < 19; _i++ {
		links = append(links, link("item-1", srv.URL+"/ok"))
	}

	notifier := &fakeNotifier{}
	v := New(&fakeStore{stale: links}, notifier, testVerificationConfig(), logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Invalid)
	assert.Empty(t, summary.Alerted)
	assert.Empty(t, notifier.messages)
}

func TestRunAlertRatioSpansFullLinkSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Only 2 of item-1's 30 links are stale this run. Both fail, but
	// 2 of 30 is under the 10% threshold.
	store := &fakeStore{
		stale: []domain.ExternalLink{
			link("item-1", srv.URL+"/a"),
			link("item-1", srv.URL+"/b"),
		},
		totals: map[string]int{"item-1": 30},
	}
	notifier := &fakeNotifier{}
	v := New(store, notifier, testVerificationConfig(), logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Invalid)
	assert.Empty(t, summary.Alerted)
	assert.Empty(t, notifier.messages)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// First attempt runs into the client timeout.
			time.Sleep(200 * time.Millisecond)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testVerificationConfig()
	cfg.RequestTimeout = 50 * time.Millisecond
	cfg.RetryAttempts = 2

	l := link("item-1", srv.URL)
	store := &fakeStore{stale: []domain.ExternalLink{l}}
	v := New(store, &fakeNotifier{}, cfg, logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Invalid)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))

	r, found := store.resultFor(l.ID)
	require.True(t, found)
	assert.True(t, r.Valid, "a single timeout must not condemn the link")
}

func TestRunCancelledCheckIsNotCommitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l := link("item-1", srv.URL)
	store := &fakeStore{stale: []domain.ExternalLink{l}}
	v := New(store, &fakeNotifier{}, testVerificationConfig(), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	summary, err := v.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	// The aborted probe never judged the link; it stays stale and uncounted.
	assert.Zero(t, summary.Checked)
	assert.Zero(t, summary.Invalid)
	_, found := store.resultFor(l.ID)
	assert.False(t, found)
}

func TestRunUnreachableHostIsInvalid(t *testing.T) {
	l := link("item-1", "http://127.0.0.1:1/")
	store := &fakeStore{stale: []domain.ExternalLink{l}}
	v := New(store, &fakeNotifier{}, testVerificationConfig(), logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Invalid)
}

func TestRunEmptyBacklog(t *testing.T) {
	v := New(&fakeStore{}, &fakeNotifier{}, testVerificationConfig(), logger.NewNopLogger())

	summary, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, summary.Checked)
}
