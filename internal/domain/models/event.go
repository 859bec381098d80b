package models

import "time"

// SeenEvent records an externally-sourced engagement event id that has
// already been shown or handled. Existence means "do not resurface".
// user/persona are informational; filtering is by external id alone.
type SeenEvent struct {
	ExternalID string    `json:"external_id" db:"external_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	PersonaNum *int      `json:"persona_num,omitempty" db:"user_persona_num"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
