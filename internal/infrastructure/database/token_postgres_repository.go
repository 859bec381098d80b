package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
)

type pgxTokenRepository struct {
	db *pgxpool.Pool
}

// NewPgxTokenRepository creates the postgres-backed token store.
func NewPgxTokenRepository(db *pgxpool.Pool) repository.TokenRepository {
	return &pgxTokenRepository{db: db}
}

// The unique index covers (user_id, COALESCE(user_persona_num, -1)) so a
// user-scoped row (NULL persona) and persona rows share one upsert path. A
// background tick and an interactive relink racing on the same scope both
// land on the constraint instead of read-then-write.
func (r *pgxTokenRepository) Upsert(ctx context.Context, token *models.UserToken) error {
	query := `
		INSERT INTO ss_instagram_connector (user_id, user_persona_num, long_lived_user_token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, COALESCE(user_persona_num, -1)) DO UPDATE SET
			long_lived_user_token = EXCLUDED.long_lived_user_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`
	_, err := r.db.Exec(ctx, query, token.UserID, token.PersonaNum, token.Token, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user token: %w", err)
	}
	return nil
}

func (r *pgxTokenRepository) Find(ctx context.Context, scope models.Scope) (*models.UserToken, error) {
	query := `
		SELECT user_id, user_persona_num, long_lived_user_token, expires_at, created_at, updated_at
		FROM ss_instagram_connector
		WHERE user_id = $1 AND user_persona_num IS NOT DISTINCT FROM $2`
	token := &models.UserToken{}
	err := r.db.QueryRow(ctx, query, scope.UserID, scope.PersonaNum).Scan(
		&token.UserID, &token.PersonaNum, &token.Token, &token.ExpiresAt,
		&token.CreatedAt, &token.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user token: %w", err)
	}
	return token, nil
}

func (r *pgxTokenRepository) Delete(ctx context.Context, scope models.Scope) error {
	query := `
		DELETE FROM ss_instagram_connector
		WHERE user_id = $1 AND user_persona_num IS NOT DISTINCT FROM $2`
	_, err := r.db.Exec(ctx, query, scope.UserID, scope.PersonaNum)
	if err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}
	return nil
}

var _ repository.TokenRepository = (*pgxTokenRepository)(nil)
