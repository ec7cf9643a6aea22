package keywords

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/linkengine/internal/cache"
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/logger"
)

const vectorKeyPrefix = "linkengine:kw"

// VectorProvider serves keyword vectors through the cache store. The cache
// key embeds a content fingerprint, so a changed title or body misses
// naturally and triggers recomputation. Cache failures degrade to a fresh
// extraction; the vector is a disposable derivative.
type VectorProvider struct {
	extractor *Extractor
	store     cache.Store
	cfg       config.KeywordConfig
	logger    logger.Logger
}

// NewVectorProvider creates a cache-aware keyword vector provider.
func NewVectorProvider(cfg config.KeywordConfig, store cache.Store, log logger.Logger) *VectorProvider {
	return &VectorProvider{
		extractor: NewExtractor(cfg),
		store:     store,
		cfg:       cfg,
		logger:    log,
	}
}

// Vector returns the keyword vector for item, from cache when fresh.
func (p *VectorProvider) Vector(ctx context.Context, item *domain.ContentItem) (*domain.KeywordVector, error) {
	key := vectorKey(item)

	var cached domain.KeywordVector
	err := p.store.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		p.logger.Warn("keyword cache read failed, recomputing",
			logger.String("item_id", item.ID),
			logger.Error(err))
	}

	vector := p.extractor.Extract(item)

	if setErr := p.store.Set(ctx, key, vector, p.cfg.CacheTTL); setErr != nil {
		p.logger.Warn("keyword cache write failed",
			logger.String("item_id", item.ID),
			logger.Error(setErr))
	}

	return vector, nil
}

func vectorKey(item *domain.ContentItem) string {
	return fmt.Sprintf("%s:%s:%s", vectorKeyPrefix, item.ID, Fingerprint(item))
}
