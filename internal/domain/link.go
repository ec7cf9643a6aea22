package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnchorCategory is the rhetorical style of a link's clickable text.
type AnchorCategory string

const (
	AnchorExactMatch AnchorCategory = "exact_match"
	AnchorLongTail   AnchorCategory = "long_tail"
	AnchorGeneric    AnchorCategory = "generic"
	AnchorCTA        AnchorCategory = "cta"
	AnchorQuestion   AnchorCategory = "question"
)

// AnchorCategories lists all categories in allocation order.
var AnchorCategories = []AnchorCategory{
	AnchorExactMatch,
	AnchorLongTail,
	AnchorGeneric,
	AnchorCTA,
	AnchorQuestion,
}

// Valid reports whether the category is one of the known anchor categories.
func (c AnchorCategory) Valid() bool {
	switch c {
	case AnchorExactMatch, AnchorLongTail, AnchorGeneric, AnchorCTA, AnchorQuestion:
		return true
	}
	return false
}

// InternalLink is an accepted link between two content items.
// Unique per (source, target, paragraph).
type InternalLink struct {
	ID             uuid.UUID      `db:"id"              json:"id"`
	SourceID       string         `db:"source_id"       json:"source_id"`
	TargetID       string         `db:"target_id"       json:"target_id"`
	AnchorText     string         `db:"anchor_text"     json:"anchor_text"`
	AnchorCategory AnchorCategory `db:"anchor_category" json:"anchor_category"`
	ParagraphIndex int            `db:"paragraph_index" json:"paragraph_index"`
	RelevanceScore float64        `db:"relevance_score" json:"relevance_score"`
	CreatedAt      time.Time      `db:"created_at"      json:"created_at"`
}

// SourceType classifies an external link's destination.
type SourceType string

const (
	SourceGovernment   SourceType = "government"
	SourceOrganization SourceType = "organization"
	SourceReference    SourceType = "reference"
	SourceNews         SourceType = "news"
	SourceAuthority    SourceType = "authority"
)

// ExternalLink is a link from a content item to an external URL.
type ExternalLink struct {
	ID             uuid.UUID  `db:"id"               json:"id"`
	SourceID       string     `db:"source_id"        json:"source_id"`
	URL            string     `db:"url"              json:"url"`
	Domain         string     `db:"domain"           json:"domain"`
	SourceType     SourceType `db:"source_type"      json:"source_type"`
	AuthorityScore int        `db:"authority_score"  json:"authority_score"`
	AnchorText     string     `db:"anchor_text"      json:"anchor_text"`
	Sponsored      bool       `db:"sponsored"        json:"sponsored"`
	NoFollow       bool       `db:"nofollow"         json:"nofollow"`
	NoOpener       bool       `db:"noopener"         json:"noopener"`
	TargetBlank    bool       `db:"target_blank"     json:"target_blank"`
	LastVerifiedAt *time.Time `db:"last_verified_at" json:"last_verified_at,omitempty"`
	Valid          bool       `db:"valid"            json:"valid"`
	CreatedAt      time.Time  `db:"created_at"       json:"created_at"`
}

// VerificationResult records the outcome of one liveness check.
type VerificationResult struct {
	LinkID     uuid.UUID `json:"link_id"`
	StatusCode int       `json:"status_code"`
	CheckedAt  time.Time `json:"checked_at"`
	Valid      bool      `json:"valid"`
}
