// Package keywords computes weighted keyword vectors for content items.
// Weights combine title and body term frequency with configurable positional
// multipliers; there is no corpus-wide IDF term.
package keywords

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/domain"
)

// Extractor turns a content snapshot into a keyword vector.
// Extraction is a pure function of the content text; recomputation is
// idempotent.
type Extractor struct {
	cfg config.KeywordConfig
}

// NewExtractor creates an extractor with the given policy.
func NewExtractor(cfg config.KeywordConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract computes the keyword vector for one content item.
// Weight = title_tf x title_weight + body_tf x content_weight, capped at
// MaxKeywords highest-weighted terms.
func (e *Extractor) Extract(item *domain.ContentItem) *domain.KeywordVector {
	titleTF := e.termFrequencies(item.Title, item.Language)
	bodyTF := e.termFrequencies(item.Body(), item.Language)

	weights := make(map[string]float64, len(titleTF)+len(bodyTF))
	for term, tf := range titleTF {
		weights[term] += float64(tf) * e.cfg.TitleWeight
	}
	for term, tf := range bodyTF {
		weights[term] += float64(tf) * e.cfg.ContentWeight
	}

	if len(weights) > e.cfg.MaxKeywords {
		weights = capWeights(weights, e.cfg.MaxKeywords)
	}

	return &domain.KeywordVector{
		ItemID:     item.ID,
		Weights:    weights,
		ComputedAt: time.Now().UTC(),
	}
}

// termFrequencies tokenizes text and counts term occurrences, dropping
// stopwords and tokens shorter than MinWordLength.
func (e *Extractor) termFrequencies(text, language string) map[string]int {
	stop := stopwordsFor(language)
	tf := make(map[string]int)

	for _, token := range Tokenize(text) {
		if len([]rune(token)) < e.cfg.MinWordLength {
			continue
		}
		if _, isStop := stop[token]; isStop {
			continue
		}
		tf[token]++
	}
	return tf
}

// capWeights keeps the max highest-weighted terms. Ties are broken
// lexicographically so the cap is deterministic.
func capWeights(weights map[string]float64, max int) map[string]float64 {
	type entry struct {
		term   string
		weight float64
	}
	entries := make([]entry, 0, len(weights))
	for term, w := range weights {
		entries = append(entries, entry{term, w})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].term < entries[j].term
	})

	capped := make(map[string]float64, max)
	for _, en := range entries[:max] {
		capped[en.term] = en.weight
	}
	return capped
}

// Tokenize lowercases, folds diacritics and splits text into letter/digit
// runs. Shared with anchor-text generation so both sides agree on terms.
func Tokenize(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// diacriticsFold removes combining marks after NFD decomposition, so
// "visé" and "vise" count as the same term across languages.
var diacriticsFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and strips diacritics.
func Normalize(text string) string {
	folded, _, err := transform.String(diacriticsFold, strings.ToLower(text))
	if err != nil {
		// Fold failure leaves the lowercased input usable as-is.
		return strings.ToLower(text)
	}
	return folded
}

// Fingerprint returns a stable digest of the item's title and paragraphs.
// Cache entries keyed by it are invalidated for free when content changes.
func Fingerprint(item *domain.ContentItem) string {
	h := sha256.New()
	h.Write([]byte(item.Title))
	for _, p := range item.Paragraphs {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
