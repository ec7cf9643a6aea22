package anchor

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/scorer"
)

func defaultDistribution() config.AnchorConfig {
	return config.AnchorConfig{
		Distribution: map[string]int{
			"exact_match": 30,
			"long_tail":   25,
			"generic":     20,
			"cta":         15,
			"question":    10,
		},
	}
}

func makeCandidates(n int) []scorer.Scored {
	out := make([]scorer.Scored, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, scorer.Scored{
			Candidate: scorer.Candidate{
				Item: &domain.ContentItem{
					ID:       fmt.Sprintf("item-%d", i),
					Title:    fmt.Sprintf("Guide %d", i),
					Language: "en",
				},
				Vector: &domain.KeywordVector{
					Weights: map[string]float64{"guide": 3, "visa": 1},
				},
			},
			Score: float64(100 - i),
		})
	}
	return out
}

func TestAssignRealizedMixWithinOneLink(t *testing.T) {
	d := New(defaultDistribution())

	for _, total := range []int{1, 3, 5, 7, 10, 13, 20, 100} {
		t.Run(fmt.Sprintf("total=%d", total), func(t *testing.T) {
			assignments := d.Assign(makeCandidates(total))
			require.Len(t, assignments, total)

			counts := map[domain.AnchorCategory]int{}
			for _, a := range assignments {
				counts[a.Category]++
			}

			for name, pct := range defaultDistribution().Distribution {
				exact := float64(total) * float64(pct) / 100
				got := float64(counts[domain.AnchorCategory(name)])
				assert.LessOrEqualf(t, math.Abs(got-exact), 1.0,
					"category %s: got %v links, exact share %v", name, got, exact)
			}
		})
	}
}

func TestAssignDeterministic(t *testing.T) {
	d := New(defaultDistribution())
	first := d.Assign(makeCandidates(9))
	second := d.Assign(makeCandidates(9))
	assert.Equal(t, first, second)
}

func TestAssignCategoriesFollowRankOrder(t *testing.T) {
	d := New(defaultDistribution())
	assignments := d.Assign(makeCandidates(10))
	require.Len(t, assignments, 10)

	// 30% of 10 = 3 exact-match links, handed to the top-ranked candidates.
	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.AnchorExactMatch, assignments[i].Category)
	}
	assert.Equal(t, "item-0", assignments[0].Target.ID)
}

func TestAssignEmptyInput(t *testing.T) {
	d := New(defaultDistribution())
	assert.Nil(t, d.Assign(nil))
}

func TestAnchorTextPerCategory(t *testing.T) {
	d := New(config.AnchorConfig{Distribution: map[string]int{
		"exact_match": 20, "long_tail": 20, "generic": 20, "cta": 20, "question": 20,
	}})

	assignments := d.Assign(makeCandidates(5))
	require.Len(t, assignments, 5)

	byCategory := map[domain.AnchorCategory]Assignment{}
	for _, a := range assignments {
		byCategory[a.Category] = a
	}

	assert.Equal(t, "guide", byCategory[domain.AnchorExactMatch].Text)
	assert.Equal(t, byCategory[domain.AnchorLongTail].Target.Title, byCategory[domain.AnchorLongTail].Text)
	assert.Equal(t, "read more", byCategory[domain.AnchorGeneric].Text)
	assert.Contains(t, byCategory[domain.AnchorCTA].Text, "check our guide on")
	assert.Contains(t, byCategory[domain.AnchorQuestion].Text, "?")
}

func TestAnchorTextFallsBackToEnglish(t *testing.T) {
	d := New(config.AnchorConfig{Distribution: map[string]int{"generic": 100}})

	cands := makeCandidates(1)
	cands[0].Item.Language = "ja"

	assignments := d.Assign(cands)
	require.Len(t, assignments, 1)
	assert.Equal(t, "read more", assignments[0].Text)
}

func TestAnchorTextFrench(t *testing.T) {
	d := New(config.AnchorConfig{Distribution: map[string]int{"cta": 100}})

	cands := makeCandidates(1)
	cands[0].Item.Language = "fr"
	cands[0].Item.Title = "Visa Allemagne"

	assignments := d.Assign(cands)
	require.Len(t, assignments, 1)
	assert.Equal(t, "consultez notre guide sur Visa Allemagne", assignments[0].Text)
}
