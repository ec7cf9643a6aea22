// Package engine orchestrates the relink pipeline for one content item.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/linkengine/internal/anchor"
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/logger"
	"github.com/jonesrussell/linkengine/internal/metrics"
	"github.com/jonesrussell/linkengine/internal/placement"
	"github.com/jonesrussell/linkengine/internal/scorer"
	"github.com/jonesrussell/linkengine/internal/selector"
)

// ContentIndex is the corpus read port.
type ContentIndex interface {
	GetByID(ctx context.Context, id string) (*domain.ContentItem, error)
	ListByAxis(ctx context.Context, country, theme, excludeID string, limit int) ([]domain.ContentItem, error)
	ListPillars(ctx context.Context, country string, limit int) ([]domain.ContentItem, error)
}

// VectorProvider serves keyword vectors.
type VectorProvider interface {
	Vector(ctx context.Context, item *domain.ContentItem) (*domain.KeywordVector, error)
}

// LinkStore is the persistence slice the engine writes.
type LinkStore interface {
	ReplaceInternal(ctx context.Context, sourceID string, links []domain.InternalLink) error
	ReplaceExternal(ctx context.Context, sourceID string, links []domain.ExternalLink) error
	IncomingCounts(ctx context.Context) (map[string]int, error)
}

// GraphUpdater receives link graph mutations.
type GraphUpdater interface {
	SetLinks(sourceID string, targetIDs []string)
}

// DirtyMarker schedules an authority recompute after graph changes.
type DirtyMarker interface {
	MarkDirty()
}

// SourceFinder discovers external sources for an item's axis.
type SourceFinder interface {
	Discover(ctx context.Context, theme, country string) ([]domain.DiscoveredSource, error)
}

// Result summarizes one relink run.
type Result struct {
	ItemID        string                `json:"item_id"`
	InternalLinks []domain.InternalLink `json:"internal_links"`
	ExternalLinks []domain.ExternalLink `json:"external_links"`
	PoolSize      int                   `json:"pool_size"`
	ScoredCount   int                   `json:"scored_count"`
	BelowMinimum  bool                  `json:"below_minimum"`
}

// Engine runs the relink pipeline: pool, score, anchors, placement,
// persistence, graph update, external sources.
type Engine struct {
	index       ContentIndex
	vectors     VectorProvider
	selector    *selector.Selector
	scorer      *scorer.Scorer
	distributor *anchor.Distributor
	planner     *placement.Planner
	links       LinkStore
	graph       GraphUpdater
	dirty       DirtyMarker
	sources     SourceFinder
	metrics     *metrics.Metrics
	cfg         config.LinkingConfig
	log         logger.Logger
	tracer      trace.Tracer
}

// Config bundles the engine's collaborators.
type Config struct {
	Index       ContentIndex
	Vectors     VectorProvider
	Selector    *selector.Selector
	Scorer      *scorer.Scorer
	Distributor *anchor.Distributor
	Planner     *placement.Planner
	Links       LinkStore
	Graph       GraphUpdater
	Dirty       DirtyMarker
	Sources     SourceFinder
	Metrics     *metrics.Metrics
	Linking     config.LinkingConfig
	Logger      logger.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	return &Engine{
		index:       cfg.Index,
		vectors:     cfg.Vectors,
		selector:    cfg.Selector,
		scorer:      cfg.Scorer,
		distributor: cfg.Distributor,
		planner:     cfg.Planner,
		links:       cfg.Links,
		graph:       cfg.Graph,
		dirty:       cfg.Dirty,
		sources:     cfg.Sources,
		metrics:     cfg.Metrics,
		cfg:         cfg.Linking,
		log:         cfg.Logger,
		tracer:      otel.Tracer("linkengine/engine"),
	}
}

// OnContentChanged rebuilds the whole link plan of one item. Policy
// rejections (thin pools, dropped placements) are logged at low severity;
// only infrastructure failures return an error.
func (e *Engine) OnContentChanged(ctx context.Context, itemID string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.relink",
		trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	start := time.Now()
	defer func() {
		e.metrics.RelinkDuration.Observe(time.Since(start).Seconds())
	}()

	item, err := e.index.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item %s: %w", itemID, err)
	}

	scored, poolSize, err := e.rankCandidates(ctx, item)
	if err != nil {
		return nil, err
	}

	if len(scored) > e.cfg.MaxLinks {
		for n := 0; n < len(scored)-e.cfg.MaxLinks; n++ {
			e.metrics.LinksRejectedTotal.WithLabelValues("over_max_links").Inc()
		}
		scored = scored[:e.cfg.MaxLinks]
	}

	assignments := e.distributor.Assign(scored)
	placed := e.planner.Plan(item, assignments)
	for n := 0; n < len(assignments)-len(placed); n++ {
		e.metrics.LinksRejectedTotal.WithLabelValues("no_slot").Inc()
	}

	internal := e.buildInternalLinks(item, placed)
	if err = e.links.ReplaceInternal(ctx, item.ID, internal); err != nil {
		return nil, fmt.Errorf("persist links for %s: %w", item.ID, err)
	}
	for _, l := range internal {
		e.metrics.LinksCreatedTotal.WithLabelValues(string(l.AnchorCategory)).Inc()
	}

	targets := make([]string, 0, len(internal))
	for _, l := range internal {
		targets = append(targets, l.TargetID)
	}
	e.graph.SetLinks(item.ID, targets)
	e.dirty.MarkDirty()

	external, err := e.refreshExternalLinks(ctx, item)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ItemID:        item.ID,
		InternalLinks: internal,
		ExternalLinks: external,
		PoolSize:      poolSize,
		ScoredCount:   len(scored),
		BelowMinimum:  len(internal) < e.cfg.MinLinks,
	}

	if result.BelowMinimum {
		// Thin corpus segments legitimately yield few links.
		e.log.Debug("relink below minimum links",
			logger.String("item_id", item.ID),
			logger.Int("links", len(internal)),
			logger.Int("min_links", e.cfg.MinLinks))
	}

	e.log.Info("relink finished",
		logger.String("item_id", item.ID),
		logger.Int("pool", poolSize),
		logger.Int("internal_links", len(internal)),
		logger.Int("external_links", len(external)))

	return result, nil
}

// rankCandidates builds the pool and scores it.
func (e *Engine) rankCandidates(ctx context.Context, item *domain.ContentItem) ([]scorer.Scored, int, error) {
	ctx, span := e.tracer.Start(ctx, "engine.rank_candidates")
	defer span.End()

	sourceVec, err := e.vectors.Vector(ctx, item)
	if err != nil {
		return nil, 0, fmt.Errorf("vector for %s: %w", item.ID, err)
	}

	axisItems, err := e.index.ListByAxis(ctx, item.Country, item.Theme, item.ID, e.cfg.CandidatePoolSize*2)
	if err != nil {
		return nil, 0, fmt.Errorf("list axis candidates: %w", err)
	}
	pillars, err := e.index.ListPillars(ctx, item.Country, e.cfg.CandidatePoolSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list pillars: %w", err)
	}
	incoming, err := e.links.IncomingCounts(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("incoming counts: %w", err)
	}

	pool := e.selector.Select(item, axisItems, pillars, incoming)

	candidates := make([]scorer.Candidate, 0, len(pool))
	for i := range pool {
		vec, vecErr := e.vectors.Vector(ctx, &pool[i])
		if vecErr != nil {
			e.log.Warn("skipping candidate without vector",
				logger.String("item_id", pool[i].ID),
				logger.Error(vecErr))
			continue
		}
		candidates = append(candidates, scorer.Candidate{Item: &pool[i], Vector: vec})
	}

	scored := e.scorer.Score(item, sourceVec, candidates)
	for n := 0; n < len(candidates)-len(scored); n++ {
		e.metrics.LinksRejectedTotal.WithLabelValues("below_threshold").Inc()
	}
	span.SetAttributes(
		attribute.Int("pool.size", len(pool)),
		attribute.Int("scored.count", len(scored)),
	)

	return scored, len(pool), nil
}

// buildInternalLinks materializes placed assignments as persistable links.
func (e *Engine) buildInternalLinks(item *domain.ContentItem, placed []placement.Placed) []domain.InternalLink {
	now := time.Now().UTC()
	links := make([]domain.InternalLink, 0, len(placed))
	for _, p := range placed {
		links = append(links, domain.InternalLink{
			ID:             uuid.New(),
			SourceID:       item.ID,
			TargetID:       p.Target.ID,
			AnchorText:     p.Text,
			AnchorCategory: p.Category,
			ParagraphIndex: p.ParagraphIndex,
			RelevanceScore: p.Score,
			CreatedAt:      now,
		})
	}
	return links
}

// refreshExternalLinks replaces the item's external links from discovery.
// A failed discovery keeps the stored links untouched; only a successful
// query (including a genuinely empty one) rewrites the set.
func (e *Engine) refreshExternalLinks(ctx context.Context, item *domain.ContentItem) ([]domain.ExternalLink, error) {
	ctx, span := e.tracer.Start(ctx, "engine.external_links")
	defer span.End()

	discovered, err := e.sources.Discover(ctx, item.Theme, item.Country)
	if err != nil {
		e.log.Warn("source discovery failed, keeping stored external links",
			logger.String("item_id", item.ID),
			logger.Error(err))
		return nil, nil
	}
	if len(discovered) > e.cfg.MaxExternalLinks {
		discovered = discovered[:e.cfg.MaxExternalLinks]
	}

	now := time.Now().UTC()
	external := make([]domain.ExternalLink, 0, len(discovered))
	for _, src := range discovered {
		external = append(external, domain.ExternalLink{
			ID:             uuid.New(),
			SourceID:       item.ID,
			URL:            src.URL,
			Domain:         src.Domain,
			SourceType:     src.SourceType,
			AuthorityScore: src.AuthorityScore,
			AnchorText:     src.Title,
			NoOpener:       true,
			TargetBlank:    true,
			Valid:          true,
			CreatedAt:      now,
		})
	}

	if err = e.links.ReplaceExternal(ctx, item.ID, external); err != nil {
		return nil, fmt.Errorf("persist external links for %s: %w", item.ID, err)
	}
	return external, nil
}
