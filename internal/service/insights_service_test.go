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

	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

func newInsightsFixture(t *testing.T, serverURL string) (*InsightsService, *MockSnapshotRepository, *MockMappingRepository, *MockTokenRepository) {
	t.Helper()
	snapshots := new(MockSnapshotRepository)
	mappings := new(MockMappingRepository)
	tokenRepo := new(MockTokenRepository)
	tokens := NewTokenService(tokenRepo, nil, "", zap.NewNop())
	client := testGraphClient(serverURL)
	accounts := NewAccountService(mappings, tokens, client, nil, zap.NewNop())
	svc := NewInsightsService(snapshots, accounts, tokens, client, zap.NewNop())
	return svc, snapshots, mappings, tokenRepo
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestInsightsService_DailyDeltas(t *testing.T) {
	svc, snapshots, _, _ := newInsightsFixture(t, "http://unused")

	rows := []*models.DailySnapshot{
		{UserID: 7, PersonaNum: 2, Date: day("2026-08-28"), FollowersCount: 100, TotalLikes: 300},
		{UserID: 7, PersonaNum: 2, Date: day("2026-08-29"), FollowersCount: 107, TotalLikes: 315},
		{UserID: 7, PersonaNum: 2, Date: day("2026-08-30"), FollowersCount: 103, TotalLikes: 320},
	}
	snapshots.On("ListSince", mock.Anything, int64(7), 2, mock.Anything).Return(rows, nil)

	deltas, err := svc.DailyDeltas(context.Background(), 7, 2, 7)
	require.NoError(t, err)
	require.Len(t, deltas.FollowersDelta, 2)
	assert.Equal(t, models.SeriesPoint{Date: "2026-08-29", Value: 7}, deltas.FollowersDelta[0])
	assert.Equal(t, models.SeriesPoint{Date: "2026-08-30", Value: -4}, deltas.FollowersDelta[1])
	require.Len(t, deltas.LikesDelta, 2)
	assert.Equal(t, 15, deltas.LikesDelta[0].Value)
	assert.Equal(t, 5, deltas.LikesDelta[1].Value)
}

func TestInsightsService_DailyDeltas_FallsBackToRemoteSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ig-1/insights", r.URL.Path)
		assert.Equal(t, "follower_count", r.URL.Query().Get("metric"))
		fmt.Fprint(w, `{"data":[{"name":"follower_count","values":[
			{"value":100,"end_time":"2026-08-28T07:00:00+0000"},
			{"value":107,"end_time":"2026-08-29T07:00:00+0000"},
			{"value":103,"end_time":"2026-08-30T07:00:00+0000"}
		]}]}`)
	}))
	defer srv.Close()

	svc, snapshots, mappings, tokenRepo := newInsightsFixture(t, srv.URL)
	snapshots.On("ListSince", mock.Anything, int64(7), 2, mock.Anything).
		Return([]*models.DailySnapshot{{UserID: 7, PersonaNum: 2, Date: day("2026-08-30")}}, nil)
	mappings.On("Find", mock.Anything, int64(7), 2).
		Return(&models.PersonaMapping{UserID: 7, PersonaNum: 2, IGUserID: "ig-1"}, nil)
	n := 2
	tokenRepo.On("Find", mock.Anything, models.PersonaScope(7, 2)).
		Return(&models.UserToken{UserID: 7, PersonaNum: &n, Token: "tok"}, nil)

	deltas, err := svc.DailyDeltas(context.Background(), 7, 2, 7)
	require.NoError(t, err)
	require.Len(t, deltas.FollowersDelta, 2)
	assert.Equal(t, models.SeriesPoint{Date: "2026-08-29", Value: 7}, deltas.FollowersDelta[0])
	assert.Equal(t, models.SeriesPoint{Date: "2026-08-30", Value: -4}, deltas.FollowersDelta[1])
	assert.Empty(t, deltas.LikesDelta)
}

func TestInsightsService_Overview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig-1":
			fmt.Fprint(w, `{"username":"brand","followers_count":200}`)
		case "/ig-1/insights":
			fmt.Fprint(w, `{"data":[
				{"name":"reach","values":[{"value":50,"end_time":"2026-08-30T07:00:00+0000"}]},
				{"name":"views","values":[{"value":90,"end_time":"2026-08-30T07:00:00+0000"}]},
				{"name":"follower_count","values":[{"value":4,"end_time":"2026-08-30T07:00:00+0000"}]}
			]}`)
		case "/ig-1/media":
			fmt.Fprint(w, `{"data":[
				{"id":"m1","timestamp":"2026-08-29T10:00:00+0000","like_count":6},
				{"id":"m2","timestamp":"2026-08-29T18:00:00+0000","like_count":4},
				{"id":"m3","timestamp":"2026-08-30T09:00:00+0000","like_count":2}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc, _, mappings, tokenRepo := newInsightsFixture(t, srv.URL)
	mappings.On("Find", mock.Anything, int64(7), 2).
		Return(&models.PersonaMapping{UserID: 7, PersonaNum: 2, IGUserID: "ig-1"}, nil)
	n := 2
	tokenRepo.On("Find", mock.Anything, models.PersonaScope(7, 2)).
		Return(&models.UserToken{UserID: 7, PersonaNum: &n, Token: "tok"}, nil)

	overview, err := svc.Overview(context.Background(), 7, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, "brand", overview.Username)
	assert.Equal(t, 200, overview.FollowersCount)
	assert.Equal(t, 4, overview.FollowerDelta)

	require.Len(t, overview.Series["reach"], 1)
	assert.Equal(t, 50, overview.Series["reach"][0].Value)
	// views stands in for the retired impressions metric
	require.Len(t, overview.Series["impressions"], 1)
	assert.Equal(t, 90, overview.Series["impressions"][0].Value)

	require.Len(t, overview.LikesByDay, 2)
	assert.Equal(t, models.SeriesPoint{Date: "2026-08-29", Value: 10}, overview.LikesByDay[0])
	assert.Equal(t, models.SeriesPoint{Date: "2026-08-30", Value: 2}, overview.LikesByDay[1])
	assert.Len(t, overview.RecentMedia, 3)
}
