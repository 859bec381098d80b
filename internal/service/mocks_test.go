package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Upsert(ctx context.Context, token *models.UserToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) Find(ctx context.Context, scope models.Scope) (*models.UserToken, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserToken), args.Error(1)
}

func (m *MockTokenRepository) Delete(ctx context.Context, scope models.Scope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) Upsert(ctx context.Context, mapping *models.PersonaMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockMappingRepository) Find(ctx context.Context, userID int64, personaNum int) (*models.PersonaMapping, error) {
	args := m.Called(ctx, userID, personaNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PersonaMapping), args.Error(1)
}

func (m *MockMappingRepository) Delete(ctx context.Context, userID int64, personaNum int) error {
	args := m.Called(ctx, userID, personaNum)
	return args.Error(0)
}

func (m *MockMappingRepository) ListLinked(ctx context.Context) ([]*models.PersonaMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PersonaMapping), args.Error(1)
}

type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, s *models.DailySnapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSnapshotRepository) ListSince(ctx context.Context, userID int64, personaNum int, since time.Time) ([]*models.DailySnapshot, error) {
	args := m.Called(ctx, userID, personaNum, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailySnapshot), args.Error(1)
}

type MockSeenEventRepository struct {
	mock.Mock
}

func (m *MockSeenEventRepository) Ack(ctx context.Context, event *models.SeenEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSeenEventRepository) FilterSeen(ctx context.Context, externalIDs []string) (map[string]bool, error) {
	args := m.Called(ctx, externalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockSeenEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockReplyDrafter struct {
	mock.Mock
}

func (m *MockReplyDrafter) Draft(ctx context.Context, comment graph.Comment) (string, error) {
	args := m.Called(ctx, comment)
	return args.String(0), args.Error(1)
}

// testGraphClient points a real Graph client at a local test server.
func testGraphClient(serverURL string) *graph.Client {
	return graph.NewClient(config.MetaConfig{
		AppID:          "app-id",
		AppSecret:      "app-secret",
		RedirectURL:    "http://localhost/instagram/oauth/callback",
		GraphURL:       serverURL,
		DialogURL:      serverURL,
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
}
