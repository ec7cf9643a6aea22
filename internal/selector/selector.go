// Package selector builds the candidate pool for a relink run.
package selector

import (
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
)

// Selector filters the raw corpus slice down to the pool the scorer ranks.
type Selector struct {
	cfg config.LinkingConfig
}

// New creates a selector with the given pool policy.
func New(cfg config.LinkingConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select builds the candidate pool for a source item. Pillar items for the
// source's country are seeded first and survive the pool cap; axis matches
// fill the remaining slots in corpus order. Excluded from the pool:
//   - the source itself
//   - targets already at their incoming link quota
//
// An empty pool is a valid outcome, not an error.
func (s *Selector) Select(source *domain.ContentItem, axisItems, pillars []domain.ContentItem, incoming map[string]int) []domain.ContentItem {
	seen := map[string]struct{}{source.ID: {}}
	pool := make([]domain.ContentItem, 0, s.cfg.CandidatePoolSize)

	for _, p := range pillars {
		if !s.admit(p.ID, seen, incoming) {
			continue
		}
		seen[p.ID] = struct{}{}
		pool = append(pool, p)
	}

	for _, item := range axisItems {
		if len(pool) >= s.cfg.CandidatePoolSize {
			break
		}
		if !s.admit(item.ID, seen, incoming) {
			continue
		}
		seen[item.ID] = struct{}{}
		pool = append(pool, item)
	}

	return pool
}

func (s *Selector) admit(id string, seen map[string]struct{}, incoming map[string]int) bool {
	if _, dup := seen[id]; dup {
		return false
	}
	// Targets at their incoming quota stop attracting new links so link
	// equity spreads across the corpus.
	if incoming[id] >= s.cfg.MaxLinks {
		return false
	}
	return true
}
