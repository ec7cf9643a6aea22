// Package anchor assigns anchor-text categories under a target distribution
// and renders the anchor text for each accepted link.
package anchor

import (
	"fmt"
	"sort"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/scorer"
)

// Assignment is one accepted link with its anchor category and text.
type Assignment struct {
	Target   *domain.ContentItem
	Score    float64
	Category domain.AnchorCategory
	Text     string
}

// Distributor allocates anchor categories across a source item's planned
// links so the realized mix stays within one link of the configured
// percentages.
type Distributor struct {
	distribution map[domain.AnchorCategory]int
}

// New creates a distributor from the validated anchor policy.
func New(cfg config.AnchorConfig) *Distributor {
	dist := make(map[domain.AnchorCategory]int, len(cfg.Distribution))
	for name, pct := range cfg.Distribution {
		dist[domain.AnchorCategory(name)] = pct
	}
	return &Distributor{distribution: dist}
}

// Assign gives every accepted candidate an anchor category and text.
// Candidates must arrive in relevance rank order; categories are handed out
// in the fixed category order so the whole assignment is deterministic.
func (d *Distributor) Assign(candidates []scorer.Scored) []Assignment {
	if len(candidates) == 0 {
		return nil
	}

	counts := d.allocate(len(candidates))

	assignments := make([]Assignment, 0, len(candidates))
	next := 0
	for _, category := range domain.AnchorCategories {
		for n := 0; n < counts[category]; n++ {
			cand := candidates[next]
			assignments = append(assignments, Assignment{
				Target:   cand.Item,
				Score:    cand.Score,
				Category: category,
				Text:     anchorText(category, cand.Item, cand.Vector),
			})
			next++
		}
	}
	return assignments
}

// allocate splits total links across categories by largest remainder.
func (d *Distributor) allocate(total int) map[domain.AnchorCategory]int {
	type share struct {
		category  domain.AnchorCategory
		remainder int // percentage points left after the floor allocation
	}

	counts := make(map[domain.AnchorCategory]int, len(d.distribution))
	shares := make([]share, 0, len(d.distribution))
	assigned := 0

	for _, category := range domain.AnchorCategories {
		pct, ok := d.distribution[category]
		if !ok {
			continue
		}
		exact := total * pct
		counts[category] = exact / 100
		assigned += exact / 100
		shares = append(shares, share{category: category, remainder: exact % 100})
	}

	// Hand the leftover links to the largest remainders; ties follow the
	// fixed category order, keeping the allocation stable.
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].remainder > shares[j].remainder
	})
	for i := 0; assigned < total; i++ {
		counts[shares[i%len(shares)].category]++
		assigned++
	}

	return counts
}

// anchorText renders the anchor for a category from the target's title and
// keyword vector. Pure function of its inputs.
func anchorText(category domain.AnchorCategory, target *domain.ContentItem, vector *domain.KeywordVector) string {
	tmpl := templatesFor(target.Language)

	switch category {
	case domain.AnchorExactMatch:
		if kw := topKeyword(vector); kw != "" {
			return kw
		}
		return target.Title
	case domain.AnchorLongTail:
		return target.Title
	case domain.AnchorGeneric:
		return tmpl.generic
	case domain.AnchorCTA:
		return fmt.Sprintf(tmpl.cta, target.Title)
	case domain.AnchorQuestion:
		return fmt.Sprintf(tmpl.question, target.Title)
	}
	return target.Title
}

// topKeyword returns the highest-weighted term, ties broken
// lexicographically for determinism.
func topKeyword(vector *domain.KeywordVector) string {
	if vector == nil {
		return ""
	}
	best := ""
	bestWeight := 0.0
	for term, w := range vector.Weights {
		if w > bestWeight || (w == bestWeight && (best == "" || term < best)) {
			best = term
			bestWeight = w
		}
	}
	return best
}
