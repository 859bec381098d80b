package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
	"github.com/ldgsmhrd/selfstar/internal/events/kafka"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
	"github.com/ldgsmhrd/selfstar/internal/utils/metrics"
)

// accountInsightMetrics are the day-period metrics harvested per snapshot.
// "views" replaced "impressions" upstream; both are requested and whichever
// comes back fills the impressions column.
var accountInsightMetrics = []string{"profile_views", "reach", "impressions", "views"}

// SnapshotService harvests one analytics row per linked persona per day.
type SnapshotService struct {
	mappings  repository.MappingRepository
	snapshots repository.SnapshotRepository
	tokens    *TokenService
	graph     GraphAPI
	publisher EventPublisher
	cfg       config.SnapshotsConfig
	logger    *zap.Logger
}

func NewSnapshotService(
	mappings repository.MappingRepository,
	snapshots repository.SnapshotRepository,
	tokens *TokenService,
	graphAPI GraphAPI,
	publisher EventPublisher,
	cfg config.SnapshotsConfig,
	logger *zap.Logger,
) *SnapshotService {
	if cfg.MediaPageSize <= 0 {
		cfg.MediaPageSize = 50
	}
	if cfg.MediaTotalCap <= 0 {
		cfg.MediaTotalCap = 200
	}
	return &SnapshotService{
		mappings:  mappings,
		snapshots: snapshots,
		tokens:    tokens,
		graph:     graphAPI,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("snapshot_service"),
	}
}

// SnapshotPersona harvests and upserts today's row for one persona. Running
// it twice on the same UTC day overwrites the same row.
func (s *SnapshotService) SnapshotPersona(ctx context.Context, m *models.PersonaMapping) (*models.DailySnapshot, error) {
	token, err := s.tokens.Resolve(ctx, models.PersonaScope(m.UserID, m.PersonaNum))
	if err != nil {
		return nil, err
	}

	profile, err := s.graph.AccountProfile(ctx, token, m.IGUserID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.DailySnapshot{
		UserID:         m.UserID,
		PersonaNum:     m.PersonaNum,
		IGUserID:       m.IGUserID,
		Date:           utcDate(time.Now()),
		FollowersCount: profile.FollowersCount,
	}
	s.fillInsights(ctx, token, m, snapshot)

	totalLikes, err := s.sumLikes(ctx, token, m.IGUserID)
	if err != nil {
		return nil, err
	}
	snapshot.TotalLikes = totalLikes

	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}
	s.logger.Info("Stored daily snapshot",
		zap.Int64("user_id", m.UserID), zap.Int("persona_num", m.PersonaNum),
		zap.String("date", snapshot.Date.Format("2006-01-02")),
		zap.Int("followers", snapshot.FollowersCount), zap.Int("total_likes", snapshot.TotalLikes))

	s.publishStored(ctx, snapshot)
	return snapshot, nil
}

// fillInsights reads the trailing-day account insights. Insight metrics
// come and go upstream, so any rejected insights call, stale token
// included, degrades to zeros instead of failing the snapshot. A stale
// token still surfaces through the profile fetch before this runs.
func (s *SnapshotService) fillInsights(ctx context.Context, token string, m *models.PersonaMapping, snapshot *models.DailySnapshot) {
	since := time.Now().UTC().AddDate(0, 0, -1)
	series, err := s.graph.DailyInsights(ctx, token, m.IGUserID, accountInsightMetrics, since, time.Time{})
	if err != nil {
		s.logger.Warn("Account insights unavailable, keeping zeros",
			zap.Int64("user_id", m.UserID), zap.Int("persona_num", m.PersonaNum), zap.Error(err))
		return
	}
	snapshot.ProfileViews = latestValue(series["profile_views"])
	snapshot.Reach = latestValue(series["reach"])
	snapshot.Impressions = latestValue(series["impressions"])
	if len(series["impressions"]) == 0 {
		snapshot.Impressions = latestValue(series["views"])
	}
}

// sumLikes totals like_count over the account's media, following
// paging.next in pages of the configured size up to the configured cap.
func (s *SnapshotService) sumLikes(ctx context.Context, token, igUserID string) (int, error) {
	page, err := s.graph.ListMedia(ctx, token, igUserID, "id,like_count", s.cfg.MediaPageSize, time.Time{})
	if err != nil {
		return 0, err
	}
	total := 0
	counted := 0
	for {
		for _, media := range page.Data {
			total += media.LikeCount
			counted++
			if counted >= s.cfg.MediaTotalCap {
				return total, nil
			}
		}
		if page.NextURL == "" {
			return total, nil
		}
		page, err = s.graph.NextMediaPage(ctx, page.NextURL)
		if err != nil {
			return 0, err
		}
	}
}

// RunTick snapshots every linked persona. One persona failing is logged
// and skipped; a tick never aborts part-way because of a single account.
func (s *SnapshotService) RunTick(ctx context.Context) error {
	metrics.SnapshotTicksTotal.Inc()
	linked, err := s.mappings.ListLinked(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate linked personas: %w", err)
	}
	s.logger.Info("Snapshot tick started", zap.Int("linked_personas", len(linked)))

	for _, m := range linked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.SnapshotPersona(ctx, m); err != nil {
			outcome := "failure"
			if domainErrors.IsAuthRequired(err) {
				outcome = "auth_required"
			}
			metrics.SnapshotPersonasTotal.WithLabelValues(outcome).Inc()
			s.logger.Warn("Persona snapshot failed",
				zap.Int64("user_id", m.UserID), zap.Int("persona_num", m.PersonaNum), zap.Error(err))
			continue
		}
		metrics.SnapshotPersonasTotal.WithLabelValues("success").Inc()
	}
	return nil
}

func (s *SnapshotService) publishStored(ctx context.Context, snapshot *models.DailySnapshot) {
	if s.publisher == nil {
		return
	}
	event := kafka.SnapshotStoredEvent{
		UserID:         snapshot.UserID,
		PersonaNum:     snapshot.PersonaNum,
		IGUserID:       snapshot.IGUserID,
		Date:           snapshot.Date.Format("2006-01-02"),
		FollowersCount: snapshot.FollowersCount,
		TotalLikes:     snapshot.TotalLikes,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.publisher.PublishSnapshotStored(ctx, event); err != nil {
		s.logger.Warn("Failed to publish snapshot stored event", zap.Error(err))
	}
}

// latestValue takes the most recent point of a day series; an absent or
// empty series reads as zero.
func latestValue(points []graph.InsightPoint) int {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Value
}

// utcDate truncates to the UTC calendar day the row is keyed by.
func utcDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
