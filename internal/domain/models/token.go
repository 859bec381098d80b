package models

import "time"

// UserToken is a long-lived Graph user token stored for a scope. Expiry is
// advisory metadata: actual invalidity is detected reactively from the
// Graph auth-error code.
type UserToken struct {
	UserID     int64      `json:"user_id" db:"user_id"`
	PersonaNum *int       `json:"persona_num,omitempty" db:"user_persona_num"`
	Token      string     `json:"-" db:"long_lived_user_token"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Scope returns the owner scope of the token row.
func (t *UserToken) Scope() Scope {
	return Scope{UserID: t.UserID, PersonaNum: t.PersonaNum}
}

// Expired reports whether the advisory expiry has passed. A token without
// expiry metadata never reads as expired.
func (t *UserToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
