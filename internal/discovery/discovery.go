// Package discovery finds authoritative external sources for a theme and
// country through the search service, with a cache in front of it.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/linkengine/internal/cache"
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/logger"
	"github.com/jonesrussell/linkengine/internal/retry"
	"github.com/jonesrussell/linkengine/internal/searchclient"
)

// Searcher is the slice of the search client discovery needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]searchclient.SearchResult, error)
}

// Service discovers external sources. Results are cached per
// (theme, country, pattern) so repeat relinks of a corpus segment do not
// burn search API quota.
type Service struct {
	search  Searcher
	store   cache.Store
	cfg     config.DiscoveryConfig
	limiter *rate.Limiter
	log     logger.Logger

	priority map[domain.SourceType]int
}

// NewService creates a discovery service.
func NewService(search Searcher, store cache.Store, cfg config.DiscoveryConfig, log logger.Logger) *Service {
	priority := make(map[domain.SourceType]int, len(cfg.SourcePriority))
	for i, st := range cfg.SourcePriority {
		priority[domain.SourceType(st)] = i
	}

	return &Service{
		search:   search,
		store:    store,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		log:      log,
		priority: priority,
	}
}

// Discover returns ranked external sources for a theme and country.
// Cache first; on a miss the search service is queried under the rate
// limit with retry. An unknown theme is an empty result; a failed query
// returns an error so callers can keep whatever they already have.
func (s *Service) Discover(ctx context.Context, theme, country string) ([]domain.DiscoveredSource, error) {
	pattern, ok := s.cfg.QueryTemplates[theme]
	if !ok {
		s.log.Debug("no discovery query template for theme",
			logger.String("theme", theme))
		return nil, nil
	}

	key := cacheKey(theme, country, pattern)

	var entry domain.DiscoveryCacheEntry
	err := s.store.Get(ctx, key, &entry)
	if err == nil {
		return entry.Sources, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("discovery cache read failed",
			logger.String("key", key),
			logger.Error(err))
	}

	sources, err := s.query(ctx, renderQuery(pattern, country))
	if err != nil {
		s.log.Warn("source discovery failed",
			logger.String("theme", theme),
			logger.String("country", country),
			logger.Error(err))
		return nil, fmt.Errorf("discover sources for %s/%s: %w", theme, country, err)
	}

	entry = domain.DiscoveryCacheEntry{
		Theme:     theme,
		Country:   country,
		Pattern:   pattern,
		Sources:   sources,
		ExpiresAt: time.Now().Add(s.cfg.CacheTTL),
	}
	if setErr := s.store.Set(ctx, key, entry, s.cfg.CacheTTL); setErr != nil {
		s.log.Warn("discovery cache write failed",
			logger.String("key", key),
			logger.Error(setErr))
	}

	return sources, nil
}

// Invalidate drops the cached sources for a theme and country so the next
// relink queries the search service again.
func (s *Service) Invalidate(ctx context.Context, theme, country string) error {
	pattern, ok := s.cfg.QueryTemplates[theme]
	if !ok {
		return nil
	}
	return s.store.Delete(ctx, cacheKey(theme, country, pattern))
}

// query runs one rate-limited search with retry, then classifies, filters
// and ranks the hits.
func (s *Service) query(ctx context.Context, q string) ([]domain.DiscoveredSource, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var results []searchclient.SearchResult
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = s.cfg.RetryAttempts
	retryCfg.InitialDelay = s.cfg.RetryDelay

	err := retry.Do(ctx, retryCfg, func() error {
		var searchErr error
		results, searchErr = s.search.Search(ctx, q, s.cfg.MaxResultsPerQuery)
		return searchErr
	})
	if err != nil {
		return nil, err
	}

	sources := make([]domain.DiscoveredSource, 0, len(results))
	for _, r := range results {
		sourceType, score := classifySource(r.URL)
		if score < s.cfg.MinAuthorityScore {
			continue
		}
		sources = append(sources, domain.DiscoveredSource{
			URL:            r.URL,
			Title:          r.Title,
			Domain:         hostOf(r.URL),
			SourceType:     sourceType,
			AuthorityScore: score,
		})
	}

	s.rank(sources)
	return sources, nil
}

// rank orders sources by configured type priority, then authority score
// descending, then URL for determinism.
func (s *Service) rank(sources []domain.DiscoveredSource) {
	sort.Slice(sources, func(i, j int) bool {
		pi, iKnown := s.priority[sources[i].SourceType]
		pj, jKnown := s.priority[sources[j].SourceType]
		if !iKnown {
			pi = len(s.priority)
		}
		if !jKnown {
			pj = len(s.priority)
		}
		if pi != pj {
			return pi < pj
		}
		if sources[i].AuthorityScore != sources[j].AuthorityScore {
			return sources[i].AuthorityScore > sources[j].AuthorityScore
		}
		return sources[i].URL < sources[j].URL
	})
}

// renderQuery substitutes the template placeholders.
func renderQuery(pattern, country string) string {
	q := strings.ReplaceAll(pattern, "{country}", country)
	return strings.ReplaceAll(q, "{year}", fmt.Sprintf("%d", time.Now().Year()))
}

func cacheKey(theme, country, pattern string) string {
	return fmt.Sprintf("linkengine:discovery:%s:%s:%s", theme, country, pattern)
}
