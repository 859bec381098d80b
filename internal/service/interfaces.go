package service

import (
	"context"
	"time"

	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/events/kafka"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
)

// GraphAPI is the surface of the Meta Graph client the services consume.
// Tests point the real client at an httptest server or substitute a mock.
type GraphAPI interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*graph.ShortLivedToken, error)
	ExchangeLongLived(ctx context.Context, shortToken string) (*graph.ShortLivedToken, error)
	AccountProfile(ctx context.Context, token, igUserID string) (*graph.AccountProfile, error)
	ListAccounts(ctx context.Context, token string) ([]models.AccountCandidate, error)
	DailyInsights(ctx context.Context, token, igUserID string, metricNames []string, since, until time.Time) (map[string][]graph.InsightPoint, error)
	ListMedia(ctx context.Context, token, igUserID, fields string, limit int, since time.Time) (*graph.MediaPage, error)
	NextMediaPage(ctx context.Context, nextURL string) (*graph.MediaPage, error)
	MediaComments(ctx context.Context, token, mediaID string, limit int) ([]graph.Comment, error)
	ReplyToComment(ctx context.Context, token, commentID, message string) (string, error)
	CreateMediaContainer(ctx context.Context, token, igUserID, imageURL, caption string) (string, error)
	PublishMedia(ctx context.Context, token, igUserID, creationID string) (string, error)
}

// TokenCache caches resolved effective tokens per scope. Implementations
// must treat errors as misses; the cache never decides nonexistence.
type TokenCache interface {
	Get(ctx context.Context, scope models.Scope) *models.UserToken
	Set(ctx context.Context, scope models.Scope, token *models.UserToken)
	Invalidate(ctx context.Context, scope models.Scope)
}

// EventPublisher publishes service events. Publishing is non-critical:
// services log failures and proceed.
type EventPublisher interface {
	PublishAccountLinked(ctx context.Context, event kafka.AccountLinkedEvent) error
	PublishAccountUnlinked(ctx context.Context, event kafka.AccountUnlinkedEvent) error
	PublishSnapshotStored(ctx context.Context, event kafka.SnapshotStoredEvent) error
}

// ReplyDrafter produces reply text for a comment when the caller supplies
// none. Drafting happens outside this service.
type ReplyDrafter interface {
	Draft(ctx context.Context, comment graph.Comment) (string, error)
}
