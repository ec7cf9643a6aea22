package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/linkengine/internal/domain"
)

// AuthorityRepository persists authority score snapshots so the graph can be
// warm-started after a restart.
type AuthorityRepository struct {
	db *sqlx.DB
}

// NewAuthorityRepository creates a new repository
func NewAuthorityRepository(db *sqlx.DB) *AuthorityRepository {
	return &AuthorityRepository{db: db}
}

// SaveSnapshot upserts a whole propagation result in one transaction.
// Readers never observe a half-written snapshot.
func (r *AuthorityRepository) SaveSnapshot(ctx context.Context, scores []domain.AuthorityScore) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO authority_scores (item_id, score, converged, iterations, computed_at)
		VALUES (:item_id, :score, :converged, :iterations, :computed_at)
		ON CONFLICT (item_id) DO UPDATE
		SET score = EXCLUDED.score,
		    converged = EXCLUDED.converged,
		    iterations = EXCLUDED.iterations,
		    computed_at = EXCLUDED.computed_at`

	for i := range scores {
		if _, err = tx.NamedExecContext(ctx, query, &scores[i]); err != nil {
			return fmt.Errorf("upsert score for %s: %w", scores[i].ItemID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save snapshot: %w", err)
	}
	return nil
}

// Get returns the persisted score for one item.
func (r *AuthorityRepository) Get(ctx context.Context, itemID string) (*domain.AuthorityScore, error) {
	var score domain.AuthorityScore
	err := r.db.GetContext(ctx, &score,
		`SELECT item_id, score, converged, iterations, computed_at
		 FROM authority_scores
		 WHERE item_id = $1`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get authority score: %w", err)
	}
	return &score, nil
}

// LoadAll returns the last persisted snapshot keyed by item ID.
func (r *AuthorityRepository) LoadAll(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, score FROM authority_scores`)
	if err != nil {
		return nil, fmt.Errorf("load authority snapshot: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var id string
		var s float64
		if err = rows.Scan(&id, &s); err != nil {
			return nil, fmt.Errorf("scan authority score: %w", err)
		}
		scores[id] = s
	}
	return scores, rows.Err()
}

// Delete removes the persisted score of a retired item.
func (r *AuthorityRepository) Delete(ctx context.Context, itemID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM authority_scores WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete authority score: %w", err)
	}
	return nil
}
