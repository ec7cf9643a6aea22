// Package domain contains the core types owned by the linking engine.
package domain

import (
	"math"
	"time"
)

// ContentItem is a read-only snapshot of a content item as exposed by the
// content service. The engine never mutates content; it only derives links
// and authority scores from these snapshots.
type ContentItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Paragraphs []string  `json:"paragraphs"`
	Language   string    `json:"language"`
	Country    string    `json:"country"`
	Theme      string    `json:"theme"`
	IsPillar   bool      `json:"is_pillar"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Body returns the concatenated paragraph text.
func (c *ContentItem) Body() string {
	total := 0
	for _, p := range c.Paragraphs {
		total += len(p) + 1
	}
	buf := make([]byte, 0, total)
	for i, p := range c.Paragraphs {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, p...)
	}
	return string(buf)
}

// KeywordVector is a derived, disposable weighting of terms for one content
// item. Losing it costs recomputation, never correctness.
type KeywordVector struct {
	ItemID     string             `json:"item_id"`
	Weights    map[string]float64 `json:"weights"`
	ComputedAt time.Time          `json:"computed_at"`
}

// Norm returns the Euclidean norm of the weight vector.
func (v *KeywordVector) Norm() float64 {
	var sum float64
	for _, w := range v.Weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}
