package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

func snapshotGraphServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig-1":
			fmt.Fprint(w, `{"username":"brand","followers_count":150}`)
		case "/ig-1/insights":
			fmt.Fprint(w, `{"data":[
				{"name":"profile_views","values":[{"value":9,"end_time":"2026-08-31T07:00:00+0000"}]},
				{"name":"reach","values":[{"value":40,"end_time":"2026-08-31T07:00:00+0000"}]},
				{"name":"views","values":[{"value":80,"end_time":"2026-08-31T07:00:00+0000"}]}
			]}`)
		case "/ig-1/media":
			fmt.Fprintf(w, `{"data":[{"id":"m1","like_count":10},{"id":"m2","like_count":3}],"paging":{"next":"%s/media-page-2"}}`, srvURL)
		case "/media-page-2":
			fmt.Fprint(w, `{"data":[{"id":"m3","like_count":7}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	srvURL = srv.URL
	return srv
}

func newSnapshotFixture(t *testing.T, serverURL string, cfg config.SnapshotsConfig) (*SnapshotService, *MockMappingRepository, *MockSnapshotRepository, *MockTokenRepository) {
	t.Helper()
	mappings := new(MockMappingRepository)
	snapshots := new(MockSnapshotRepository)
	tokenRepo := new(MockTokenRepository)
	tokens := NewTokenService(tokenRepo, nil, "", zap.NewNop())
	svc := NewSnapshotService(mappings, snapshots, tokens, testGraphClient(serverURL), nil, cfg, zap.NewNop())
	return svc, mappings, snapshots, tokenRepo
}

func TestSnapshotService_SnapshotPersona(t *testing.T) {
	srv := snapshotGraphServer(t)
	defer srv.Close()

	svc, _, snapshots, tokenRepo := newSnapshotFixture(t, srv.URL, config.SnapshotsConfig{})
	n := 2
	tokenRepo.On("Find", mock.Anything, models.PersonaScope(7, 2)).
		Return(&models.UserToken{UserID: 7, PersonaNum: &n, Token: "tok"}, nil)

	var stored *models.DailySnapshot
	snapshots.On("Upsert", mock.Anything, mock.AnythingOfType("*models.DailySnapshot")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.DailySnapshot) }).
		Return(nil)

	mapping := &models.PersonaMapping{UserID: 7, PersonaNum: 2, IGUserID: "ig-1"}
	snapshot, err := svc.SnapshotPersona(context.Background(), mapping)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, 150, snapshot.FollowersCount)
	assert.Equal(t, 9, snapshot.ProfileViews)
	assert.Equal(t, 40, snapshot.Reach)
	// The platform renamed impressions to views; the renamed metric fills
	// the impressions column.
	assert.Equal(t, 80, snapshot.Impressions)
	assert.Equal(t, 20, snapshot.TotalLikes)

	now := time.Now().UTC()
	wantDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assert.Equal(t, wantDate, snapshot.Date)
}

func TestSnapshotService_LikeSumHonorsCap(t *testing.T) {
	srv := snapshotGraphServer(t)
	defer srv.Close()

	cfg := config.SnapshotsConfig{MediaPageSize: 50, MediaTotalCap: 2}
	svc, _, snapshots, tokenRepo := newSnapshotFixture(t, srv.URL, cfg)
	n := 2
	tokenRepo.On("Find", mock.Anything, mock.Anything).
		Return(&models.UserToken{UserID: 7, PersonaNum: &n, Token: "tok"}, nil)
	snapshots.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	snapshot, err := svc.SnapshotPersona(context.Background(), &models.PersonaMapping{UserID: 7, PersonaNum: 2, IGUserID: "ig-1"})
	require.NoError(t, err)
	// The cap stops counting after two items; the second page is never
	// fetched.
	assert.Equal(t, 13, snapshot.TotalLikes)
}

func TestSnapshotService_InsightsFailureDegradesToZeros(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig-1":
			fmt.Fprint(w, `{"username":"brand","followers_count":150}`)
		case "/ig-1/insights":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"metric retired","code":100}}`)
		case "/ig-1/media":
			fmt.Fprint(w, `{"data":[{"id":"m1","like_count":10}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc, _, snapshots, tokenRepo := newSnapshotFixture(t, srv.URL, config.SnapshotsConfig{})
	n := 2
	tokenRepo.On("Find", mock.Anything, mock.Anything).
		Return(&models.UserToken{UserID: 7, PersonaNum: &n, Token: "tok"}, nil)
	snapshots.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	snapshot, err := svc.SnapshotPersona(context.Background(), &models.PersonaMapping{UserID: 7, PersonaNum: 2, IGUserID: "ig-1"})
	require.NoError(t, err)
	assert.Equal(t, 150, snapshot.FollowersCount)
	assert.Zero(t, snapshot.ProfileViews)
	assert.Zero(t, snapshot.Reach)
	assert.Zero(t, snapshot.Impressions)
}

func TestSnapshotService_RunTickIsolatesFailures(t *testing.T) {
	srv := snapshotGraphServer(t)
	defer srv.Close()

	svc, mappings, snapshots, tokenRepo := newSnapshotFixture(t, srv.URL, config.SnapshotsConfig{})
	mappings.On("ListLinked", mock.Anything).Return([]*models.PersonaMapping{
		{UserID: 1, PersonaNum: 1, IGUserID: "ig-broken"},
		{UserID: 7, PersonaNum: 2, IGUserID: "ig-1"},
	}, nil)

	// The first persona has no token anywhere; the second resolves.
	tokenRepo.On("Find", mock.Anything, models.PersonaScope(1, 1)).Return(nil, domainErrors.ErrNotFound)
	tokenRepo.On("Find", mock.Anything, models.UserScope(1)).Return(nil, domainErrors.ErrNotFound)
	n := 2
	tokenRepo.On("Find", mock.Anything, models.PersonaScope(7, 2)).
		Return(&models.UserToken{UserID: 7, PersonaNum: &n, Token: "tok"}, nil)

	snapshots.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.RunTick(context.Background()))
	snapshots.AssertNumberOfCalls(t, "Upsert", 1)
}
