package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
)

type pgxSeenEventRepository struct {
	db *pgxpool.Pool
}

// NewPgxSeenEventRepository creates the postgres-backed seen-event store.
func NewPgxSeenEventRepository(db *pgxpool.Pool) repository.SeenEventRepository {
	return &pgxSeenEventRepository{db: db}
}

// Ack inserts or touches the row; acknowledging the same id twice leaves
// exactly one row and is never an error.
func (r *pgxSeenEventRepository) Ack(ctx context.Context, event *models.SeenEvent) error {
	query := `
		INSERT INTO ss_instagram_event_seen (external_id, user_id, user_persona_num)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_id) DO UPDATE SET updated_at = now()`
	_, err := r.db.Exec(ctx, query, event.ExternalID, event.UserID, event.PersonaNum)
	if err != nil {
		return fmt.Errorf("failed to ack event %s: %w", event.ExternalID, err)
	}
	return nil
}

func (r *pgxSeenEventRepository) FilterSeen(ctx context.Context, externalIDs []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(externalIDs))
	if len(externalIDs) == 0 {
		return seen, nil
	}
	query := `SELECT external_id FROM ss_instagram_event_seen WHERE external_id = ANY($1)`
	rows, err := r.db.Query(ctx, query, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to filter seen events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan seen event id: %w", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating seen events: %w", err)
	}
	return seen, nil
}

func (r *pgxSeenEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM ss_instagram_event_seen WHERE updated_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune seen events: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.SeenEventRepository = (*pgxSeenEventRepository)(nil)
