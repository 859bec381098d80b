package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
)

type pgxSnapshotRepository struct {
	db *pgxpool.Pool
}

// NewPgxSnapshotRepository creates the postgres-backed daily snapshot store.
func NewPgxSnapshotRepository(db *pgxpool.Pool) repository.SnapshotRepository {
	return &pgxSnapshotRepository{db: db}
}

// Upsert overwrites same-day values so re-running a snapshot is safe, and
// a scheduler tick racing an interactive force-snapshot on the same
// (user, persona, date) key resolves on the constraint.
func (r *pgxSnapshotRepository) Upsert(ctx context.Context, s *models.DailySnapshot) error {
	query := `
		INSERT INTO ss_dashboard
			(user_id, user_persona_num, ig_user_id, date, followers_count, total_likes, profile_views, reach, impressions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, user_persona_num, date) DO UPDATE SET
			ig_user_id = EXCLUDED.ig_user_id,
			followers_count = EXCLUDED.followers_count,
			total_likes = EXCLUDED.total_likes,
			profile_views = EXCLUDED.profile_views,
			reach = EXCLUDED.reach,
			impressions = EXCLUDED.impressions,
			updated_at = now()`
	_, err := r.db.Exec(ctx, query,
		s.UserID, s.PersonaNum, s.IGUserID, s.Date,
		s.FollowersCount, s.TotalLikes, s.ProfileViews, s.Reach, s.Impressions,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily snapshot: %w", err)
	}
	return nil
}

func (r *pgxSnapshotRepository) ListSince(ctx context.Context, userID int64, personaNum int, since time.Time) ([]*models.DailySnapshot, error) {
	query := `
		SELECT user_id, user_persona_num, ig_user_id, date, followers_count, total_likes,
		       profile_views, reach, impressions, created_at, updated_at
		FROM ss_dashboard
		WHERE user_id = $1 AND user_persona_num = $2 AND date >= $3
		ORDER BY date ASC`
	rows, err := r.db.Query(ctx, query, userID, personaNum, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.DailySnapshot
	for rows.Next() {
		s := &models.DailySnapshot{}
		if err := rows.Scan(
			&s.UserID, &s.PersonaNum, &s.IGUserID, &s.Date, &s.FollowersCount, &s.TotalLikes,
			&s.ProfileViews, &s.Reach, &s.Impressions, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating daily snapshots: %w", err)
	}
	return snapshots, nil
}

var _ repository.SnapshotRepository = (*pgxSnapshotRepository)(nil)
