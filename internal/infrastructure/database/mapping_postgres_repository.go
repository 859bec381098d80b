package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
)

type pgxMappingRepository struct {
	db *pgxpool.Pool
}

// NewPgxMappingRepository creates the postgres-backed account mapping store.
//
// The denormalized columns are authoritative. A legacy JSON document under
// the reserved "instagram" key in persona_doc is kept in sync on every
// write, because pre-migration readers still consume it, and pre-migration
// rows may carry the document without populated columns.
func NewPgxMappingRepository(db *pgxpool.Pool) repository.MappingRepository {
	return &pgxMappingRepository{db: db}
}

func (r *pgxMappingRepository) Upsert(ctx context.Context, m *models.PersonaMapping) error {
	doc, err := json.Marshal(models.LegacyMappingDoc{
		IGUserID:   m.IGUserID,
		IGUsername: m.IGUsername,
		FBPageID:   m.FBPageID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal legacy mapping doc: %w", err)
	}

	query := `
		INSERT INTO ss_persona_instagram
			(user_id, user_persona_num, ig_user_id, ig_username, fb_page_id, persona_doc)
		VALUES ($1, $2, $3, $4, $5, jsonb_build_object('instagram', $6::jsonb))
		ON CONFLICT (user_id, user_persona_num) DO UPDATE SET
			ig_user_id = EXCLUDED.ig_user_id,
			ig_username = EXCLUDED.ig_username,
			fb_page_id = EXCLUDED.fb_page_id,
			persona_doc = jsonb_set(COALESCE(ss_persona_instagram.persona_doc, '{}'::jsonb), '{instagram}', $6::jsonb),
			updated_at = now()`
	_, err = r.db.Exec(ctx, query, m.UserID, m.PersonaNum, m.IGUserID, m.IGUsername, m.FBPageID, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert persona mapping: %w", err)
	}
	return nil
}

func (r *pgxMappingRepository) Find(ctx context.Context, userID int64, personaNum int) (*models.PersonaMapping, error) {
	query := `
		SELECT user_id, user_persona_num, ig_user_id, ig_username, fb_page_id,
		       persona_doc->'instagram', created_at, updated_at
		FROM ss_persona_instagram
		WHERE user_id = $1 AND user_persona_num = $2`
	m := &models.PersonaMapping{}
	var legacy []byte
	err := r.db.QueryRow(ctx, query, userID, personaNum).Scan(
		&m.UserID, &m.PersonaNum, &m.IGUserID, &m.IGUsername, &m.FBPageID,
		&legacy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find persona mapping: %w", err)
	}

	// Pre-migration rows carry only the document.
	if m.IGUserID == "" && len(legacy) > 0 {
		var doc models.LegacyMappingDoc
		if err := json.Unmarshal(legacy, &doc); err == nil && doc.IGUserID != "" {
			m.IGUserID = doc.IGUserID
			m.IGUsername = doc.IGUsername
			m.FBPageID = doc.FBPageID
		}
	}
	if m.IGUserID == "" {
		return nil, domainErrors.ErrNotFound
	}
	return m, nil
}

func (r *pgxMappingRepository) Delete(ctx context.Context, userID int64, personaNum int) error {
	query := `DELETE FROM ss_persona_instagram WHERE user_id = $1 AND user_persona_num = $2`
	_, err := r.db.Exec(ctx, query, userID, personaNum)
	if err != nil {
		return fmt.Errorf("failed to delete persona mapping: %w", err)
	}
	return nil
}

func (r *pgxMappingRepository) ListLinked(ctx context.Context) ([]*models.PersonaMapping, error) {
	query := `
		SELECT user_id, user_persona_num, ig_user_id, ig_username, fb_page_id,
		       persona_doc->'instagram', created_at, updated_at
		FROM ss_persona_instagram
		ORDER BY user_id, user_persona_num`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list persona mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.PersonaMapping
	for rows.Next() {
		m := &models.PersonaMapping{}
		var legacy []byte
		if err := rows.Scan(
			&m.UserID, &m.PersonaNum, &m.IGUserID, &m.IGUsername, &m.FBPageID,
			&legacy, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan persona mapping: %w", err)
		}
		if m.IGUserID == "" && len(legacy) > 0 {
			var doc models.LegacyMappingDoc
			if err := json.Unmarshal(legacy, &doc); err == nil && doc.IGUserID != "" {
				m.IGUserID = doc.IGUserID
				m.IGUsername = doc.IGUsername
				m.FBPageID = doc.FBPageID
			}
		}
		if m.IGUserID == "" {
			continue
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating persona mappings: %w", err)
	}
	return mappings, nil
}

var _ repository.MappingRepository = (*pgxMappingRepository)(nil)
