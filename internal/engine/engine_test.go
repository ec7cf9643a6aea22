package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/linkengine/internal/anchor"
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/logger"
	"github.com/jonesrussell/linkengine/internal/metrics"
	"github.com/jonesrussell/linkengine/internal/placement"
	"github.com/jonesrussell/linkengine/internal/scorer"
	"github.com/jonesrussell/linkengine/internal/selector"
)

type fakeIndex struct {
	items map[string]*domain.ContentItem
}

func (f *fakeIndex) GetByID(_ context.Context, id string) (*domain.ContentItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (f *fakeIndex) ListByAxis(_ context.Context, country, theme, excludeID string, _ int) ([]domain.ContentItem, error) {
	var out []domain.ContentItem
	for _, item := range f.items {
		if item.ID == excludeID {
			continue
		}
		if item.Country == country || item.Theme == theme {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeIndex) ListPillars(_ context.Context, country string, _ int) ([]domain.ContentItem, error) {
	var out []domain.ContentItem
	for _, item := range f.items {
		if item.IsPillar && item.Country == country {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakeVectors struct {
	vectors map[string]*domain.KeywordVector
}

func (f *fakeVectors) Vector(_ context.Context, item *domain.ContentItem) (*domain.KeywordVector, error) {
	v, ok := f.vectors[item.ID]
	if !ok {
		return nil, fmt.Errorf("no vector for %s", item.ID)
	}
	return v, nil
}

type fakeLinkStore struct {
	internal         map[string][]domain.InternalLink
	external         map[string][]domain.ExternalLink
	incoming         map[string]int
	externalReplaced int
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{
		internal: map[string][]domain.InternalLink{},
		external: map[string][]domain.ExternalLink{},
		incoming: map[string]int{},
	}
}

func (f *fakeLinkStore) ReplaceInternal(_ context.Context, sourceID string, links []domain.InternalLink) error {
	f.internal[sourceID] = links
	return nil
}

func (f *fakeLinkStore) ReplaceExternal(_ context.Context, sourceID string, links []domain.ExternalLink) error {
	f.externalReplaced++
	f.external[sourceID] = links
	return nil
}

func (f *fakeLinkStore) IncomingCounts(_ context.Context) (map[string]int, error) {
	return f.incoming, nil
}

type fakeGraph struct {
	links map[string][]string
}

func (f *fakeGraph) SetLinks(sourceID string, targetIDs []string) {
	if f.links == nil {
		f.links = map[string][]string{}
	}
	f.links[sourceID] = targetIDs
}

type fakeDirty struct{ marked int }

func (f *fakeDirty) MarkDirty() { f.marked++ }

type fakeSources struct {
	sources []domain.DiscoveredSource
	err     error
}

func (f *fakeSources) Discover(_ context.Context, _, _ string) ([]domain.DiscoveredSource, error) {
	return f.sources, f.err
}

type zeroAuthority struct{}

func (zeroAuthority) AuthorityOf(string) float64 { return 0 }

func paragraphs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("paragraph %d", i)
	}
	return out
}

func linkingPolicy() config.LinkingConfig {
	return config.LinkingConfig{
		MinLinks:          2,
		MaxLinks:          8,
		MaxExternalLinks:  3,
		CandidatePoolSize: 50,
		MinRelevanceScore: 40,
		SameCountryBoost:  15,
		SameThemeBoost:    10,
		PillarBonus:       5,
		MinParagraphGap:   2,
		MaxPerParagraph:   1,
	}
}

func anchorPolicy() config.AnchorConfig {
	return config.AnchorConfig{Distribution: map[string]int{
		"exact_match": 30, "long_tail": 25, "generic": 20, "cta": 15, "question": 10,
	}}
}

func newTestEngine(index *fakeIndex, vectors *fakeVectors, links *fakeLinkStore,
	graph *fakeGraph, dirty *fakeDirty, sources *fakeSources) *Engine {
	linking := linkingPolicy()
	return New(Config{
		Index:       index,
		Vectors:     vectors,
		Selector:    selector.New(linking),
		Scorer:      scorer.New(linking, zeroAuthority{}),
		Distributor: anchor.New(anchorPolicy()),
		Planner:     placement.New(linking),
		Links:       links,
		Graph:       graph,
		Dirty:       dirty,
		Sources:     sources,
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Linking:     linking,
		Logger:      logger.NewNopLogger(),
	})
}

func TestOnContentChangedBuildsFullPlan(t *testing.T) {
	index := &fakeIndex{items: map[string]*domain.ContentItem{
		"src": {ID: "src", Title: "Germany visa guide", Paragraphs: paragraphs(10),
			Language: "en", Country: "DE", Theme: "visa"},
		"a": {ID: "a", Title: "Visa requirements Germany", Language: "en", Country: "DE", Theme: "visa"},
		"b": {ID: "b", Title: "Visa France", Language: "en", Country: "FR", Theme: "visa"},
		"c": {ID: "c", Title: "Housing Spain", Language: "en", Country: "ES", Theme: "housing"},
	}}
	vectors := &fakeVectors{vectors: map[string]*domain.KeywordVector{
		"src": {ItemID: "src", Weights: map[string]float64{"visa": 3, "germany": 2}},
		"a":   {ItemID: "a", Weights: map[string]float64{"visa": 3, "germany": 2}},
		"b":   {ItemID: "b", Weights: map[string]float64{"visa": 3, "france": 2}},
		"c":   {ItemID: "c", Weights: map[string]float64{"housing": 1}},
	}}
	links := newFakeLinkStore()
	graph := &fakeGraph{}
	dirty := &fakeDirty{}
	sources := &fakeSources{sources: []domain.DiscoveredSource{
		{URL: "https://www.bund.de/visa", Title: "Federal portal",
			Domain: "bund.de", SourceType: domain.SourceGovernment, AuthorityScore: 95},
	}}

	e := newTestEngine(index, vectors, links, graph, dirty, sources)
	result, err := e.OnContentChanged(context.Background(), "src")

	require.NoError(t, err)
	// a and b pass the threshold, c does not.
	require.Len(t, result.InternalLinks, 2)
	assert.Equal(t, "a", result.InternalLinks[0].TargetID)
	assert.Equal(t, "b", result.InternalLinks[1].TargetID)
	assert.False(t, result.BelowMinimum)

	// Persisted and mirrored into the graph, recompute scheduled.
	assert.Len(t, links.internal["src"], 2)
	assert.Equal(t, []string{"a", "b"}, graph.links["src"])
	assert.Equal(t, 1, dirty.marked)

	// Placement stays inside the body with the configured gap.
	assert.Equal(t, 1, result.InternalLinks[0].ParagraphIndex)
	assert.Equal(t, 3, result.InternalLinks[1].ParagraphIndex)

	// External links carry the safety attributes.
	require.Len(t, result.ExternalLinks, 1)
	assert.True(t, result.ExternalLinks[0].NoOpener)
	assert.True(t, result.ExternalLinks[0].TargetBlank)
	assert.Equal(t, domain.SourceGovernment, result.ExternalLinks[0].SourceType)
}

func TestOnContentChangedMissingItem(t *testing.T) {
	e := newTestEngine(&fakeIndex{items: map[string]*domain.ContentItem{}},
		&fakeVectors{}, newFakeLinkStore(), &fakeGraph{}, &fakeDirty{}, &fakeSources{})

	_, err := e.OnContentChanged(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOnContentChangedEmptyPoolIsNotAnError(t *testing.T) {
	index := &fakeIndex{items: map[string]*domain.ContentItem{
		"src": {ID: "src", Title: "Lonely item", Paragraphs: paragraphs(6),
			Language: "en", Country: "DE", Theme: "visa"},
	}}
	vectors := &fakeVectors{vectors: map[string]*domain.KeywordVector{
		"src": {ItemID: "src", Weights: map[string]float64{"visa": 1}},
	}}
	links := newFakeLinkStore()

	e := newTestEngine(index, vectors, links, &fakeGraph{}, &fakeDirty{}, &fakeSources{})
	result, err := e.OnContentChanged(context.Background(), "src")

	require.NoError(t, err)
	assert.Empty(t, result.InternalLinks)
	assert.True(t, result.BelowMinimum)
}

func TestOnContentChangedSkipsTargetsAtQuota(t *testing.T) {
	index := &fakeIndex{items: map[string]*domain.ContentItem{
		"src": {ID: "src", Title: "Source", Paragraphs: paragraphs(10),
			Language: "en", Country: "DE", Theme: "visa"},
		"full": {ID: "full", Title: "Saturated target", Language: "en", Country: "DE", Theme: "visa"},
	}}
	vectors := &fakeVectors{vectors: map[string]*domain.KeywordVector{
		"src":  {ItemID: "src", Weights: map[string]float64{"visa": 1}},
		"full": {ItemID: "full", Weights: map[string]float64{"visa": 1}},
	}}
	links := newFakeLinkStore()
	links.incoming["full"] = 8

	e := newTestEngine(index, vectors, links, &fakeGraph{}, &fakeDirty{}, &fakeSources{})
	result, err := e.OnContentChanged(context.Background(), "src")

	require.NoError(t, err)
	assert.Empty(t, result.InternalLinks)
}

func TestOnContentChangedKeepsExternalLinksWhenDiscoveryFails(t *testing.T) {
	index := &fakeIndex{items: map[string]*domain.ContentItem{
		"src": {ID: "src", Title: "Lonely item", Paragraphs: paragraphs(6),
			Language: "en", Country: "DE", Theme: "visa"},
	}}
	vectors := &fakeVectors{vectors: map[string]*domain.KeywordVector{
		"src": {ItemID: "src", Weights: map[string]float64{"visa": 1}},
	}}
	links := newFakeLinkStore()
	links.external["src"] = []domain.ExternalLink{
		{SourceID: "src", URL: "https://www.bund.de/visa", Valid: true},
	}
	sources := &fakeSources{err: errors.New("search service returned status 503")}

	e := newTestEngine(index, vectors, links, &fakeGraph{}, &fakeDirty{}, sources)
	result, err := e.OnContentChanged(context.Background(), "src")

	require.NoError(t, err)
	assert.Empty(t, result.ExternalLinks)

	// The stored links survive the outage; nothing was replaced.
	assert.Zero(t, links.externalReplaced)
	require.Len(t, links.external["src"], 1)
	assert.Equal(t, "https://www.bund.de/visa", links.external["src"][0].URL)
}

func TestOnContentChangedCapsExternalLinksPerConfig(t *testing.T) {
	index := &fakeIndex{items: map[string]*domain.ContentItem{
		"src": {ID: "src", Title: "Source", Paragraphs: paragraphs(6),
			Language: "en", Country: "DE", Theme: "visa"},
	}}
	vectors := &fakeVectors{vectors: map[string]*domain.KeywordVector{
		"src": {ItemID: "src", Weights: map[string]float64{"visa": 1}},
	}}
	links := newFakeLinkStore()
	sources := &fakeSources{sources: []domain.DiscoveredSource{
		{URL: "https://www.bund.de/visa", SourceType: domain.SourceGovernment, AuthorityScore: 95},
		{URL: "https://www.iom.org/migration", SourceType: domain.SourceOrganization, AuthorityScore: 80},
		{URL: "https://www.reuters.com/visa", SourceType: domain.SourceNews, AuthorityScore: 70},
	}}

	linking := linkingPolicy()
	linking.MaxExternalLinks = 1
	e := New(Config{
		Index:       index,
		Vectors:     vectors,
		Selector:    selector.New(linking),
		Scorer:      scorer.New(linking, zeroAuthority{}),
		Distributor: anchor.New(anchorPolicy()),
		Planner:     placement.New(linking),
		Links:       links,
		Graph:       &fakeGraph{},
		Dirty:       &fakeDirty{},
		Sources:     sources,
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Linking:     linking,
		Logger:      logger.NewNopLogger(),
	})
	result, err := e.OnContentChanged(context.Background(), "src")

	require.NoError(t, err)
	require.Len(t, result.ExternalLinks, 1)
	assert.Equal(t, "https://www.bund.de/visa", result.ExternalLinks[0].URL)
}
