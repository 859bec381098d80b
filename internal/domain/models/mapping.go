package models

import "time"

// PersonaMapping binds a persona to exactly one Instagram business account
// and its parent Facebook page. One row per (user, persona).
type PersonaMapping struct {
	UserID     int64     `json:"user_id" db:"user_id"`
	PersonaNum int       `json:"persona_num" db:"user_persona_num"`
	IGUserID   string    `json:"ig_user_id" db:"ig_user_id"`
	IGUsername *string   `json:"ig_username,omitempty" db:"ig_username"`
	FBPageID   string    `json:"fb_page_id" db:"fb_page_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// LegacyMappingDoc is the shape of the mapping embedded in the persona's
// JSON parameters under the reserved "instagram" key. Pre-migration readers
// still consume it, and pre-migration rows may carry it without the
// denormalized columns.
type LegacyMappingDoc struct {
	IGUserID   string  `json:"ig_user_id"`
	IGUsername *string `json:"ig_username,omitempty"`
	FBPageID   string  `json:"fb_page_id"`
}

// AccountCandidate is one linkable Instagram business account discovered
// through the user's Facebook pages.
type AccountCandidate struct {
	PageID     string  `json:"page_id"`
	PageName   string  `json:"page_name"`
	IGUserID   string  `json:"ig_user_id"`
	IGUsername *string `json:"ig_username,omitempty"`
}
