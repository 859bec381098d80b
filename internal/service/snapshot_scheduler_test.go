package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

func TestSnapshotScheduler_RunOnce(t *testing.T) {
	mappings := new(MockMappingRepository)
	snapshots := new(MockSnapshotRepository)
	tokenRepo := new(MockTokenRepository)
	seen := new(MockSeenEventRepository)

	mappings.On("ListLinked", mock.Anything).Return([]*models.PersonaMapping{}, nil)
	seen.On("DeleteOlderThan", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	tokens := NewTokenService(tokenRepo, nil, "", zap.NewNop())
	cfg := config.SnapshotsConfig{Interval: time.Hour, SeenEventRetention: 30 * 24 * time.Hour}
	svc := NewSnapshotService(mappings, snapshots, tokens, testGraphClient("http://unused"), nil, cfg, zap.NewNop())
	scheduler := NewSnapshotScheduler(svc, seen, cfg, zap.NewNop())

	scheduler.RunOnce(context.Background())
	mappings.AssertExpectations(t)
	seen.AssertExpectations(t)
}

func TestSnapshotScheduler_RetentionDisabledByDefault(t *testing.T) {
	mappings := new(MockMappingRepository)
	snapshots := new(MockSnapshotRepository)
	tokenRepo := new(MockTokenRepository)
	seen := new(MockSeenEventRepository)

	mappings.On("ListLinked", mock.Anything).Return([]*models.PersonaMapping{}, nil)

	tokens := NewTokenService(tokenRepo, nil, "", zap.NewNop())
	cfg := config.SnapshotsConfig{Interval: time.Hour}
	svc := NewSnapshotService(mappings, snapshots, tokens, testGraphClient("http://unused"), nil, cfg, zap.NewNop())
	scheduler := NewSnapshotScheduler(svc, seen, cfg, zap.NewNop())

	scheduler.RunOnce(context.Background())
	seen.AssertNotCalled(t, "DeleteOlderThan", mock.Anything, mock.Anything)
}

func TestSnapshotScheduler_StartStop(t *testing.T) {
	mappings := new(MockMappingRepository)
	snapshots := new(MockSnapshotRepository)
	tokenRepo := new(MockTokenRepository)

	tokens := NewTokenService(tokenRepo, nil, "", zap.NewNop())
	cfg := config.SnapshotsConfig{Interval: time.Hour}
	svc := NewSnapshotService(mappings, snapshots, tokens, testGraphClient("http://unused"), nil, cfg, zap.NewNop())
	scheduler := NewSnapshotScheduler(svc, nil, cfg, zap.NewNop())

	scheduler.Start(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "scheduler did not stop")
	}
}
