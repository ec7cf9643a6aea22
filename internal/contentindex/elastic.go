// Package contentindex reads content items from the Elasticsearch corpus.
// The index is owned by the publishing pipeline; this package only reads it.
package contentindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/logger"
)

// Index serves content item lookups against Elasticsearch.
type Index struct {
	esClient *elasticsearch.Client
	index    string
	log      logger.Logger
}

// NewIndex creates a content index reader.
func NewIndex(esClient *elasticsearch.Client, cfg config.ElasticsearchConfig, log logger.Logger) *Index {
	return &Index{esClient: esClient, index: cfg.Index, log: log}
}

// NewClient creates the Elasticsearch client from configuration.
func NewClient(cfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.URL},
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// GetByID fetches a single content item. Missing items return
// domain.ErrNotFound.
func (i *Index) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	res, err := i.esClient.Get(i.index, id,
		i.esClient.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, domain.ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var envelope struct {
		ID     string          `json:"_id"`
		Source json.RawMessage `json:"_source"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&envelope); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	var item domain.ContentItem
	if unmarshalErr := json.Unmarshal(envelope.Source, &item); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal item %s: %w", envelope.ID, unmarshalErr)
	}
	item.ID = envelope.ID
	return &item, nil
}

// ListByAxis returns items sharing a country or theme with the source,
// excluding the source itself. This is the raw pool the selector filters.
func (i *Index) ListByAxis(ctx context.Context, country, theme, excludeID string, limit int) ([]domain.ContentItem, error) {
	query := buildAxisQuery(country, theme, excludeID)

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := i.esClient.Search(
		i.esClient.Search.WithContext(ctx),
		i.esClient.Search.WithIndex(i.index),
		i.esClient.Search.WithBody(bytes.NewReader(queryJSON)),
		i.esClient.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&esResponse); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	items := make([]domain.ContentItem, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		var item domain.ContentItem
		if unmarshalErr := json.Unmarshal(hit.Source, &item); unmarshalErr != nil {
			i.log.Warn("skipping malformed content item",
				logger.String("id", hit.ID),
				logger.Error(unmarshalErr))
			continue
		}
		item.ID = hit.ID
		items = append(items, item)
	}

	return items, nil
}

// ListPillars returns the pillar items for a country.
func (i *Index) ListPillars(ctx context.Context, country string, limit int) ([]domain.ContentItem, error) {
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					{"term": map[string]any{"is_pillar": true}},
					{"term": map[string]any{"country": country}},
				},
			},
		},
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := i.esClient.Search(
		i.esClient.Search.WithContext(ctx),
		i.esClient.Search.WithIndex(i.index),
		i.esClient.Search.WithBody(bytes.NewReader(queryJSON)),
		i.esClient.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&esResponse); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	items := make([]domain.ContentItem, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		var item domain.ContentItem
		if unmarshalErr := json.Unmarshal(hit.Source, &item); unmarshalErr != nil {
			continue
		}
		item.ID = hit.ID
		items = append(items, item)
	}
	return items, nil
}

// buildAxisQuery matches items sharing the source's country or theme,
// excluding the source document itself.
func buildAxisQuery(country, theme, excludeID string) map[string]any {
	shouldClauses := []map[string]any{}
	if country != "" {
		shouldClauses = append(shouldClauses, map[string]any{
			"term": map[string]any{"country": country},
		})
	}
	if theme != "" {
		shouldClauses = append(shouldClauses, map[string]any{
			"term": map[string]any{"theme": theme},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should":               shouldClauses,
				"minimum_should_match": 1,
				"must_not": []map[string]any{
					{"ids": map[string]any{"values": []string{excludeID}}},
				},
			},
		},
	}
}
