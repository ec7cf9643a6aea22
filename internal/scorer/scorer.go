// Package scorer ranks link candidates by keyword similarity and axis boosts.
package scorer

import (
	"sort"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
)

// cosineScale maps raw cosine similarity [0,1] onto the 0-100 score scale
// the thresholds and boosts are expressed in.
const cosineScale = 100

// Candidate is one pool entry handed to the scorer.
type Candidate struct {
	Item   *domain.ContentItem
	Vector *domain.KeywordVector
}

// Scored is a candidate that passed the relevance threshold.
type Scored struct {
	Candidate

	// Score is the final relevance score (scaled cosine plus boosts).
	Score float64
	// Cosine is the raw similarity before boosts, kept for tie-breaking.
	Cosine float64
	// TargetAuthority is the candidate's last committed authority score.
	TargetAuthority float64
}

// AuthorityReader exposes the last committed authority snapshot.
// Reads never block an in-progress propagation pass.
type AuthorityReader interface {
	AuthorityOf(itemID string) float64
}

// Scorer applies the scoring policy to a candidate pool.
type Scorer struct {
	cfg       config.LinkingConfig
	authority AuthorityReader
}

// New creates a scorer with the given policy and authority snapshot reader.
func New(cfg config.LinkingConfig, authority AuthorityReader) *Scorer {
	return &Scorer{cfg: cfg, authority: authority}
}

// Score ranks the pool against the source item. Candidates below the
// relevance threshold are dropped; that is policy, not an error. The result
// is sorted best-first: score desc, then raw cosine desc, then target
// authority asc (favoring link equity toward weaker nodes), then item ID for
// determinism.
func (s *Scorer) Score(source *domain.ContentItem, sourceVec *domain.KeywordVector, pool []Candidate) []Scored {
	scored := make([]Scored, 0, len(pool))

	for _, cand := range pool {
		cosine := Cosine(sourceVec, cand.Vector)
		score := cosine * cosineScale

		if source.Country == cand.Item.Country {
			score += s.cfg.SameCountryBoost
		}
		if source.Theme == cand.Item.Theme {
			score += s.cfg.SameThemeBoost
		}
		if source.IsPillar || cand.Item.IsPillar {
			score += s.cfg.PillarBonus
		}

		if score < s.cfg.MinRelevanceScore {
			continue
		}

		scored = append(scored, Scored{
			Candidate:       cand,
			Score:           score,
			Cosine:          cosine,
			TargetAuthority: s.authority.AuthorityOf(cand.Item.ID),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Cosine != scored[j].Cosine {
			return scored[i].Cosine > scored[j].Cosine
		}
		if scored[i].TargetAuthority != scored[j].TargetAuthority {
			return scored[i].TargetAuthority < scored[j].TargetAuthority
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	return scored
}

// Cosine computes cosine similarity between two sparse keyword vectors.
// Empty vectors have zero similarity with everything.
func Cosine(a, b *domain.KeywordVector) float64 {
	if a == nil || b == nil || len(a.Weights) == 0 || len(b.Weights) == 0 {
		return 0
	}

	// Iterate the smaller map.
	small, large := a.Weights, b.Weights
	if len(large) < len(small) {
		small, large = large, small
	}

	var dot float64
	for term, w := range small {
		if other, ok := large[term]; ok {
			dot += w * other
		}
	}
	if dot == 0 {
		return 0
	}

	return dot / (a.Norm() * b.Norm())
}
