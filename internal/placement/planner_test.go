package placement

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/linkengine/internal/anchor"
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
)

func testPolicy() config.LinkingConfig {
	return config.LinkingConfig{
		MinParagraphGap: 2,
		MaxPerParagraph: 1,
	}
}

func item(paragraphs int) *domain.ContentItem {
	ps := make([]string, paragraphs)
	for i := 0; i < len(ps); i++ {
		ps[i] = fmt.Sprintf("paragraph %d", i)
	}
	return &domain.ContentItem{ID: "src", Paragraphs: ps}
}

func assignments(n int) []anchor.Assignment {
	out := make([]anchor.Assignment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, anchor.Assignment{
			Target:   &domain.ContentItem{ID: fmt.Sprintf("t%d", i)},
			Score:    float64(100 - i),
			Category: domain.AnchorGeneric,
			Text:     "read more",
		})
	}
	return out
}

func TestPlanRespectsExcludedZonesAndGap(t *testing.T) {
	p := New(testPolicy())

	// Eight paragraphs, first and last excluded, gap of two: slots 1, 3, 5.
	placed := p.Plan(item(8), assignments(5))
	require.Len(t, placed, 3)

	assert.Equal(t, []int{1, 3, 5}, []int{
		placed[0].ParagraphIndex,
		placed[1].ParagraphIndex,
		placed[2].ParagraphIndex,
	})

	// Greedy by rank: the strongest candidates survive the drop.
	assert.Equal(t, "t0", placed[0].Target.ID)
	assert.Equal(t, "t1", placed[1].Target.ID)
	assert.Equal(t, "t2", placed[2].Target.ID)
}

func TestPlanDropsWeakestWhenBodyIsShort(t *testing.T) {
	p := New(testPolicy())

	// Three paragraphs leave a single eligible slot.
	placed := p.Plan(item(3), assignments(4))
	require.Len(t, placed, 1)
	assert.Equal(t, 1, placed[0].ParagraphIndex)
	assert.Equal(t, "t0", placed[0].Target.ID)
}

func TestPlanTooShortForAnyLink(t *testing.T) {
	p := New(testPolicy())

	assert.Empty(t, p.Plan(item(2), assignments(2)))
	assert.Empty(t, p.Plan(item(1), assignments(2)))
	assert.Empty(t, p.Plan(item(0), assignments(2)))
}

func TestPlanExclusionsDisabled(t *testing.T) {
	off := false
	cfg := testPolicy()
	cfg.ExcludeFirstParagraph = &off
	cfg.ExcludeLastParagraph = &off
	p := New(cfg)

	placed := p.Plan(item(3), assignments(3))
	require.Len(t, placed, 2)
	assert.Equal(t, 0, placed[0].ParagraphIndex)
	assert.Equal(t, 2, placed[1].ParagraphIndex)
}

func TestPlanMaxPerParagraphStacks(t *testing.T) {
	cfg := testPolicy()
	cfg.MaxPerParagraph = 2
	p := New(cfg)

	// Four paragraphs, eligible slots 1 and 2, gap of two blocks slot 2.
	// The second link stacks into paragraph 1 instead.
	placed := p.Plan(item(4), assignments(3))
	require.Len(t, placed, 2)
	assert.Equal(t, 1, placed[0].ParagraphIndex)
	assert.Equal(t, 1, placed[1].ParagraphIndex)
}

func TestPlanNoAssignments(t *testing.T) {
	p := New(testPolicy())
	assert.Empty(t, p.Plan(item(8), nil))
}
