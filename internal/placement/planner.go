// Package placement assigns accepted links to paragraph slots under the
// editorial placement constraints.
package placement

import (
	"github.com/jonesrussell/linkengine/internal/anchor"
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
)

// Placed is an anchor assignment bound to a paragraph slot.
type Placed struct {
	anchor.Assignment

	ParagraphIndex int
}

// Planner places links greedily, strongest candidate first, so that when the
// body cannot hold every accepted link the weakest ones are the ones dropped.
type Planner struct {
	cfg config.LinkingConfig
}

// New creates a planner with the given placement policy.
func New(cfg config.LinkingConfig) *Planner {
	return &Planner{cfg: cfg}
}

// Plan binds assignments to paragraph indices. Assignments must arrive in
// rank order. Constraints enforced:
//   - excluded zones (first and last paragraph, when configured) never host links
//   - at most MaxPerParagraph links share a paragraph
//   - distinct link-bearing paragraphs are at least MinParagraphGap apart
//
// Assignments that no slot can hold are dropped silently; dropping is
// policy, not an error.
func (p *Planner) Plan(item *domain.ContentItem, assignments []anchor.Assignment) []Placed {
	eligible := p.eligibleParagraphs(item)
	if len(eligible) == 0 {
		return nil
	}

	counts := make(map[int]int, len(eligible))
	placed := make([]Placed, 0, len(assignments))

	for _, a := range assignments {
		slot, ok := p.findSlot(eligible, counts)
		if !ok {
			continue
		}
		counts[slot]++
		placed = append(placed, Placed{Assignment: a, ParagraphIndex: slot})
	}

	return placed
}

// eligibleParagraphs returns the paragraph indices outside the excluded zones,
// in document order.
func (p *Planner) eligibleParagraphs(item *domain.ContentItem) []int {
	n := len(item.Paragraphs)
	if n == 0 {
		return nil
	}

	start := 0
	if p.cfg.ExcludeFirst() {
		start = 1
	}
	end := n
	if p.cfg.ExcludeLast() && n > 1 {
		end = n - 1
	}

	if start >= end {
		return nil
	}

	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}

// findSlot returns the earliest eligible paragraph that respects the
// per-paragraph cap and the gap to every other link-bearing paragraph.
func (p *Planner) findSlot(eligible []int, counts map[int]int) (int, bool) {
	for _, idx := range eligible {
		if counts[idx] >= p.cfg.MaxPerParagraph {
			continue
		}
		if counts[idx] > 0 {
			// Stacking into an already-used paragraph never widens the
			// footprint, so the gap constraint stays satisfied.
			return idx, true
		}
		if p.gapSatisfied(idx, counts) {
			return idx, true
		}
	}
	return 0, false
}

func (p *Planner) gapSatisfied(idx int, counts map[int]int) bool {
	for used, n := range counts {
		if n == 0 {
			continue
		}
		gap := idx - used
		if gap < 0 {
			gap = -gap
		}
		if gap < p.cfg.MinParagraphGap {
			return false
		}
	}
	return true
}
