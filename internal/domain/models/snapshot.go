package models

import "time"

// DailySnapshot is one day's harvested analytics row for a persona, unique
// on (user, persona, date). Rows are upserted by the snapshot engine and
// never deleted.
type DailySnapshot struct {
	UserID         int64     `json:"user_id" db:"user_id"`
	PersonaNum     int       `json:"persona_num" db:"user_persona_num"`
	IGUserID       string    `json:"ig_user_id" db:"ig_user_id"`
	Date           time.Time `json:"date" db:"date"`
	FollowersCount int       `json:"followers_count" db:"followers_count"`
	TotalLikes     int       `json:"total_likes" db:"total_likes"`
	ProfileViews   int       `json:"profile_views" db:"profile_views"`
	Reach          int       `json:"reach" db:"reach"`
	Impressions    int       `json:"impressions" db:"impressions"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// SeriesPoint is one day of a metric series.
type SeriesPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// DailyDeltas holds day-over-day differences derived from snapshots.
type DailyDeltas struct {
	Days           int           `json:"days"`
	FollowersDelta []SeriesPoint `json:"followers_delta"`
	LikesDelta     []SeriesPoint `json:"likes_delta"`
}
