package repository

import (
	"context"
	"time"

	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

// TokenRepository persists long-lived Graph user tokens per scope.
type TokenRepository interface {
	// Upsert inserts or replaces the token row for the scope.
	Upsert(ctx context.Context, token *models.UserToken) error
	// Find returns the token for the exact scope, ErrNotFound otherwise.
	Find(ctx context.Context, scope models.Scope) (*models.UserToken, error)
	// Delete removes the token row for the exact scope. Deleting a missing
	// row is not an error; unlink must be idempotent.
	Delete(ctx context.Context, scope models.Scope) error
}

// MappingRepository persists persona↔Instagram account bindings.
type MappingRepository interface {
	// Upsert writes the denormalized mapping columns and merges the legacy
	// JSON document in the same statement.
	Upsert(ctx context.Context, m *models.PersonaMapping) error
	// Find resolves the mapping, preferring columns and falling back to the
	// legacy JSON document for pre-migration rows. ErrNotFound when neither
	// representation holds an account id.
	Find(ctx context.Context, userID int64, personaNum int) (*models.PersonaMapping, error)
	// Delete clears both the columns and the legacy document.
	Delete(ctx context.Context, userID int64, personaNum int) error
	// ListLinked enumerates every (user, persona) with a mapping.
	ListLinked(ctx context.Context) ([]*models.PersonaMapping, error)
}

// SnapshotRepository persists the append-mostly daily analytics series.
type SnapshotRepository interface {
	// Upsert writes one row keyed (user, persona, date), overwriting
	// same-day values.
	Upsert(ctx context.Context, s *models.DailySnapshot) error
	// ListSince returns rows for the scope on or after the date, ordered by
	// date ascending.
	ListSince(ctx context.Context, userID int64, personaNum int, since time.Time) ([]*models.DailySnapshot, error)
}

// SeenEventRepository records handled engagement event ids.
type SeenEventRepository interface {
	// Ack inserts the id or touches the existing row. Duplicate acks are
	// not errors.
	Ack(ctx context.Context, event *models.SeenEvent) error
	// FilterSeen returns the subset of ids that are already recorded.
	FilterSeen(ctx context.Context, externalIDs []string) (map[string]bool, error)
	// DeleteOlderThan prunes rows last touched before the cutoff and
	// returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
