package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/linkengine/internal/domain"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pqUniqueViolation = "23505"

// internalLinkColumns is the column list for internal_links reads
// (single source for schema changes).
const internalLinkColumns = `id, source_id, target_id, anchor_text, anchor_category,
	paragraph_index, relevance_score, created_at`

// externalLinkColumns is the column list for external_links reads.
const externalLinkColumns = `id, source_id, url, domain, source_type, authority_score,
	anchor_text, sponsored, nofollow, noopener, target_blank,
	last_verified_at, valid, created_at`

// LinkRepository manages internal and external links in PostgreSQL.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository creates a new repository
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// InsertInternal stores one internal link. A duplicate
// (source, target, paragraph) returns domain.ErrAlreadyExists.
func (r *LinkRepository) InsertInternal(ctx context.Context, link *domain.InternalLink) error {
	query := `
		INSERT INTO internal_links (` + internalLinkColumns + `)
		VALUES (:id, :source_id, :target_id, :anchor_text, :anchor_category,
			:paragraph_index, :relevance_score, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert internal link: %w", err)
	}
	return nil
}

// ReplaceInternal atomically replaces every outgoing link of a source item.
// A relink run rewrites the whole plan, never patches individual links.
func (r *LinkRepository) ReplaceInternal(ctx context.Context, sourceID string, links []domain.InternalLink) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace links: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM internal_links WHERE source_id = $1`, sourceID); err != nil {
		return fmt.Errorf("delete old links: %w", err)
	}

	insert := `
		INSERT INTO internal_links (` + internalLinkColumns + `)
		VALUES (:id, :source_id, :target_id, :anchor_text, :anchor_category,
			:paragraph_index, :relevance_score, :created_at)`
	for i := range links {
		if _, err = tx.NamedExecContext(ctx, insert, &links[i]); err != nil {
			return fmt.Errorf("insert link to %s: %w", links[i].TargetID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace links: %w", err)
	}
	return nil
}

// ListBySource returns the outgoing internal links of a source item.
func (r *LinkRepository) ListBySource(ctx context.Context, sourceID string) ([]domain.InternalLink, error) {
	query := `SELECT ` + internalLinkColumns + `
		FROM internal_links
		WHERE source_id = $1
		ORDER BY paragraph_index`

	var links []domain.InternalLink
	if err := r.db.SelectContext(ctx, &links, query, sourceID); err != nil {
		return nil, fmt.Errorf("list links by source: %w", err)
	}
	return links, nil
}

// IncomingCounts returns the number of incoming internal links per target.
// Feeds the per-target quota during candidate selection.
func (r *LinkRepository) IncomingCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT target_id, COUNT(*) FROM internal_links GROUP BY target_id`)
	if err != nil {
		return nil, fmt.Errorf("count incoming links: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var target string
		var n int
		if err = rows.Scan(&target, &n); err != nil {
			return nil, fmt.Errorf("scan incoming count: %w", err)
		}
		counts[target] = n
	}
	return counts, rows.Err()
}

// AllInternal returns every internal link, used to rebuild the link graph
// at startup.
func (r *LinkRepository) AllInternal(ctx context.Context) ([]domain.InternalLink, error) {
	var links []domain.InternalLink
	query := `SELECT ` + internalLinkColumns + ` FROM internal_links`
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("load all internal links: %w", err)
	}
	return links, nil
}

// ReplaceExternal atomically replaces the external links of a source item.
func (r *LinkRepository) ReplaceExternal(ctx context.Context, sourceID string, links []domain.ExternalLink) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace external links: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM external_links WHERE source_id = $1`, sourceID); err != nil {
		return fmt.Errorf("delete old external links: %w", err)
	}

	insert := `
		INSERT INTO external_links (` + externalLinkColumns + `)
		VALUES (:id, :source_id, :url, :domain, :source_type, :authority_score,
			:anchor_text, :sponsored, :nofollow, :noopener, :target_blank,
			:last_verified_at, :valid, :created_at)`
	for i := range links {
		if _, err = tx.NamedExecContext(ctx, insert, &links[i]); err != nil {
			return fmt.Errorf("insert external link %s: %w", links[i].URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace external links: %w", err)
	}
	return nil
}

// ListExternalBySource returns the external links of a source item.
func (r *LinkRepository) ListExternalBySource(ctx context.Context, sourceID string) ([]domain.ExternalLink, error) {
	query := `SELECT ` + externalLinkColumns + `
		FROM external_links
		WHERE source_id = $1
		ORDER BY created_at`

	var links []domain.ExternalLink
	if err := r.db.SelectContext(ctx, &links, query, sourceID); err != nil {
		return nil, fmt.Errorf("list external links: %w", err)
	}
	return links, nil
}

// ListStaleExternal returns external links whose last check is older than the
// recheck interval, never-checked links first.
func (r *LinkRepository) ListStaleExternal(ctx context.Context, olderThan time.Duration) ([]domain.ExternalLink, error) {
	query := `SELECT ` + externalLinkColumns + `
		FROM external_links
		WHERE last_verified_at IS NULL
		   OR last_verified_at < NOW() - $1::interval
		ORDER BY last_verified_at ASC NULLS FIRST`

	var links []domain.ExternalLink
	if err := r.db.SelectContext(ctx, &links, query, olderThan.String()); err != nil {
		return nil, fmt.Errorf("list stale external links: %w", err)
	}
	return links, nil
}

// MarkVerified records a liveness check outcome on an external link.
func (r *LinkRepository) MarkVerified(ctx context.Context, result *domain.VerificationResult) error {
	query := `
		UPDATE external_links
		SET valid = $2, last_verified_at = $3
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, result.LinkID, result.Valid, result.CheckedAt)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountExternalBySource returns the number of stored external links per
// source item. Denominates the verifier's broken-link ratio.
func (r *LinkRepository) CountExternalBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT source_id, COUNT(*) FROM external_links GROUP BY source_id`)
	if err != nil {
		return nil, fmt.Errorf("count external links: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err = rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan external count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}
