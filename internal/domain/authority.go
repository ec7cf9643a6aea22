package domain

import "time"

// AuthorityScore is the normalized authority of one content item after a
// propagation pass. Scores over the whole graph sum to 1.
type AuthorityScore struct {
	ItemID     string    `db:"item_id"     json:"item_id"`
	Score      float64   `db:"score"       json:"score"`
	Converged  bool      `db:"converged"   json:"converged"`
	Iterations int       `db:"iterations"  json:"iterations"`
	ComputedAt time.Time `db:"computed_at" json:"computed_at"`
}
