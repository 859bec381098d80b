package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
)

// overviewMetrics are the day series shown on the insights overview.
var overviewMetrics = []string{"follows", "unfollows", "reach", "impressions", "views", "profile_views", "follower_count"}

// InsightsOverview is the dashboard payload for one persona.
type InsightsOverview struct {
	Username       string                          `json:"username"`
	FollowersCount int                             `json:"followers_count"`
	Series         map[string][]models.SeriesPoint `json:"series"`
	LikesByDay     []models.SeriesPoint            `json:"likes_by_day"`
	RecentMedia    []graph.Media                   `json:"recent_media"`
	FollowerDelta  int                             `json:"follower_delta_today"`
}

// InsightsService reads stored snapshots and live Graph series into
// dashboard shapes.
type InsightsService struct {
	snapshots repository.SnapshotRepository
	accounts  *AccountService
	tokens    *TokenService
	graph     GraphAPI
	logger    *zap.Logger
}

func NewInsightsService(snapshots repository.SnapshotRepository, accounts *AccountService, tokens *TokenService, graphAPI GraphAPI, logger *zap.Logger) *InsightsService {
	return &InsightsService{
		snapshots: snapshots,
		accounts:  accounts,
		tokens:    tokens,
		graph:     graphAPI,
		logger:    logger.Named("insights_service"),
	}
}

// DailyDeltas derives day-over-day follower and like differences from the
// stored snapshot series. With fewer than two rows there is nothing to
// difference locally, so it falls back to the Graph follower_count day
// series for the same window.
func (s *InsightsService) DailyDeltas(ctx context.Context, userID int64, personaNum, days int) (*models.DailyDeltas, error) {
	if days <= 0 {
		days = 7
	}
	since := utcDate(time.Now()).AddDate(0, 0, -days)
	rows, err := s.snapshots.ListSince(ctx, userID, personaNum, since)
	if err != nil {
		return nil, err
	}

	deltas := &models.DailyDeltas{Days: days}
	if len(rows) >= 2 {
		for i := 1; i < len(rows); i++ {
			date := rows[i].Date.Format("2006-01-02")
			deltas.FollowersDelta = append(deltas.FollowersDelta, models.SeriesPoint{
				Date:  date,
				Value: rows[i].FollowersCount - rows[i-1].FollowersCount,
			})
			deltas.LikesDelta = append(deltas.LikesDelta, models.SeriesPoint{
				Date:  date,
				Value: rows[i].TotalLikes - rows[i-1].TotalLikes,
			})
		}
		return deltas, nil
	}

	followers, err := s.remoteFollowerDeltas(ctx, userID, personaNum, since)
	if err != nil {
		return nil, err
	}
	deltas.FollowersDelta = followers
	return deltas, nil
}

// remoteFollowerDeltas differences consecutive points of the follower_count
// day series. N points yield N-1 deltas, each dated by the later point.
func (s *InsightsService) remoteFollowerDeltas(ctx context.Context, userID int64, personaNum int, since time.Time) ([]models.SeriesPoint, error) {
	mapping, err := s.accounts.Mapping(ctx, userID, personaNum)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Resolve(ctx, models.PersonaScope(userID, personaNum))
	if err != nil {
		return nil, err
	}
	series, err := s.graph.DailyInsights(ctx, token, mapping.IGUserID, []string{"follower_count"}, since, time.Time{})
	if err != nil {
		return nil, err
	}
	points := series["follower_count"]
	deltas := make([]models.SeriesPoint, 0, len(points))
	for i := 1; i < len(points); i++ {
		deltas = append(deltas, models.SeriesPoint{
			Date:  points[i].Date,
			Value: points[i].Value - points[i-1].Value,
		})
	}
	return deltas, nil
}

// Overview assembles the live dashboard: profile, metric day series, an
// approximate likes-by-post-day series and recent media.
func (s *InsightsService) Overview(ctx context.Context, userID int64, personaNum, days int) (*InsightsOverview, error) {
	if days <= 0 {
		days = 7
	}
	mapping, err := s.accounts.Mapping(ctx, userID, personaNum)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Resolve(ctx, models.PersonaScope(userID, personaNum))
	if err != nil {
		return nil, err
	}

	profile, err := s.graph.AccountProfile(ctx, token, mapping.IGUserID)
	if err != nil {
		return nil, err
	}

	overview := &InsightsOverview{
		Username:       profile.Username,
		FollowersCount: profile.FollowersCount,
		Series:         map[string][]models.SeriesPoint{},
	}

	since := utcDate(time.Now()).AddDate(0, 0, -days)
	series, err := s.graph.DailyInsights(ctx, token, mapping.IGUserID, overviewMetrics, since, time.Time{})
	if err != nil {
		s.logger.Warn("Overview insights unavailable",
			zap.Int64("user_id", userID), zap.Int("persona_num", personaNum), zap.Error(err))
		series = map[string][]graph.InsightPoint{}
	}
	for _, name := range []string{"follows", "unfollows", "reach", "profile_views"} {
		overview.Series[name] = toSeriesPoints(series[name])
	}
	impressions := series["impressions"]
	if len(impressions) == 0 {
		impressions = series["views"]
	}
	overview.Series["impressions"] = toSeriesPoints(impressions)
	if points := series["follower_count"]; len(points) > 0 {
		overview.FollowerDelta = points[len(points)-1].Value
	}

	media, err := s.graph.ListMedia(ctx, token, mapping.IGUserID, graph.MediaFields, 50, since)
	if err != nil {
		return nil, err
	}
	overview.RecentMedia = media.Data
	overview.LikesByDay = likesByPostDay(media.Data)
	return overview, nil
}

// toSeriesPoints converts client points to the stable response shape. An
// absent series yields an empty slice rather than null in JSON.
func toSeriesPoints(points []graph.InsightPoint) []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, models.SeriesPoint{Date: p.Date, Value: p.Value})
	}
	return out
}

// likesByPostDay buckets current like counts by each media item's post
// date. It approximates when likes arrived; the platform does not expose
// per-day like history.
func likesByPostDay(media []graph.Media) []models.SeriesPoint {
	byDay := map[string]int{}
	var order []string
	for _, m := range media {
		if len(m.Timestamp) < 10 {
			continue
		}
		day := m.Timestamp[:10]
		if _, ok := byDay[day]; !ok {
			order = append(order, day)
		}
		byDay[day] += m.LikeCount
	}
	points := make([]models.SeriesPoint, 0, len(order))
	for _, day := range order {
		points = append(points, models.SeriesPoint{Date: day, Value: byDay[day]})
	}
	return points
}
