// Package verifier rechecks the liveness of external links on a schedule.
package verifier

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/logger"
	"github.com/jonesrussell/linkengine/internal/notify"
	"github.com/jonesrussell/linkengine/internal/retry"
)

// LinkStore is the persistence slice the verifier needs.
type LinkStore interface {
	ListStaleExternal(ctx context.Context, olderThan time.Duration) ([]domain.ExternalLink, error)
	CountExternalBySource(ctx context.Context) (map[string]int, error)
	MarkVerified(ctx context.Context, result *domain.VerificationResult) error
}

// Summary is the outcome of one verification run.
type Summary struct {
	Checked int
	Invalid int
	Alerted []string // source item IDs that crossed the broken threshold
}

// Verifier checks external links with a bounded worker pool and records the
// outcome per link. Each check result is committed as it lands, so a
// cancelled run keeps the progress it made.
type Verifier struct {
	store    LinkStore
	notifier notify.Notifier
	cfg      config.VerificationConfig
	log      logger.Logger

	httpClient *http.Client
	retryCfg   retry.Config
	valid      map[int]struct{}
}

// New creates a verifier.
func New(store LinkStore, notifier notify.Notifier, cfg config.VerificationConfig, log logger.Logger) *Verifier {
	valid := make(map[int]struct{}, len(cfg.ValidStatuses))
	for _, s := range cfg.ValidStatuses {
		valid[s] = struct{}{}
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.RetryAttempts
	retryCfg.InitialDelay = cfg.RetryDelay

	return &Verifier{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			// Redirect statuses are judged directly against the valid set.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		retryCfg: retryCfg,
		valid:    valid,
	}
}

type checkOutcome struct {
	sourceID string
	valid    bool
	skipped  bool
}

// Run verifies every external link whose last check is older than the
// recheck interval. Source items whose invalid ratio crosses the broken
// threshold trigger exactly one alert each.
func (v *Verifier) Run(ctx context.Context) (*Summary, error) {
	links, err := v.store.ListStaleExternal(ctx, v.cfg.RecheckInterval)
	if err != nil {
		return nil, fmt.Errorf("list stale links: %w", err)
	}
	if len(links) == 0 {
		return &Summary{}, nil
	}

	// The alert ratio is denominated over an item's full external-link set,
	// not just the stale slice checked this run.
	totals, err := v.store.CountExternalBySource(ctx)
	if err != nil {
		return nil, fmt.Errorf("count external links: %w", err)
	}

	jobs := make(chan domain.ExternalLink)
	outcomes := make(chan checkOutcome, len(links))

	var wg sync.WaitGroup
	for i := 0; i < v.cfg.ConcurrentChecks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range jobs {
				outcomes <- v.verifyOne(ctx, link)
			}
		}()
	}

feed:
	for _, link := range links {
		select {
		case jobs <- link:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	checkedBySource := make(map[string]int)
	invalidBySource := make(map[string]int)
	summary := &Summary{}
	for o := range outcomes {
		if o.skipped {
			continue
		}
		summary.Checked++
		checkedBySource[o.sourceID]++
		if !o.valid {
			summary.Invalid++
			invalidBySource[o.sourceID]++
		}
	}

	for sourceID, invalid := range invalidBySource {
		total := totals[sourceID]
		if total < checkedBySource[sourceID] {
			total = checkedBySource[sourceID]
		}
		ratio := float64(invalid) / float64(total)
		if ratio <= v.cfg.BrokenAlertThreshold {
			continue
		}
		summary.Alerted = append(summary.Alerted, sourceID)
		v.notifier.Alert(ctx, notify.SeverityWarning,
			fmt.Sprintf("content item %s has %d of %d external links broken",
				sourceID, invalid, total))
	}

	v.log.Info("verification run finished",
		logger.Int("checked", summary.Checked),
		logger.Int("invalid", summary.Invalid),
		logger.Int("alerted_items", len(summary.Alerted)))

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// verifyOne checks a single link and commits the result immediately.
func (v *Verifier) verifyOne(ctx context.Context, link domain.ExternalLink) checkOutcome {
	status, err := v.probe(ctx, link.URL)

	// A probe aborted by shutdown is not a verdict on the link. Leave it
	// stale so the next run picks it up again.
	if err != nil && ctx.Err() != nil {
		return checkOutcome{sourceID: link.SourceID, skipped: true}
	}

	valid := err == nil && v.isValidStatus(status)

	result := &domain.VerificationResult{
		LinkID:     link.ID,
		StatusCode: status,
		CheckedAt:  time.Now().UTC(),
		Valid:      valid,
	}
	if markErr := v.store.MarkVerified(ctx, result); markErr != nil {
		v.log.Warn("failed to record verification result",
			logger.String("url", link.URL),
			logger.Error(markErr))
	}

	if !valid {
		v.log.Debug("external link failed verification",
			logger.String("url", link.URL),
			logger.Int("status", status))
	}

	return checkOutcome{sourceID: link.SourceID, valid: valid}
}

// probe issues a HEAD request, falling back to GET for servers that reject
// HEAD outright. Transient transport failures are retried; the returned
// status is whatever the last attempt observed.
func (v *Verifier) probe(ctx context.Context, url string) (int, error) {
	var status int
	err := retry.Do(ctx, v.retryCfg, func() error {
		var probeErr error
		status, probeErr = v.probeOnce(ctx, url)
		return probeErr
	})
	if err != nil {
		return 0, err
	}
	return status, nil
}

func (v *Verifier) probeOnce(ctx context.Context, url string) (int, error) {
	status, err := v.request(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	if status == http.StatusMethodNotAllowed {
		return v.request(ctx, http.MethodGet, url)
	}
	return status, nil
}

func (v *Verifier) request(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return 0, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func (v *Verifier) isValidStatus(status int) bool {
	_, ok := v.valid[status]
	return ok
}
