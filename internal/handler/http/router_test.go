package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/security"
	"github.com/ldgsmhrd/selfstar/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSessionChecker accepts one fixed credential.
type stubSessionChecker struct {
	credential string
	userID     int64
}

func (s *stubSessionChecker) Check(_ context.Context, credential string) (int64, error) {
	if credential != s.credential {
		return 0, fmt.Errorf("unknown session")
	}
	return s.userID, nil
}

// memTokenRepo is an in-memory token store for flow tests.
type memTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*models.UserToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{rows: map[string]*models.UserToken{}}
}

func (r *memTokenRepo) Upsert(_ context.Context, token *models.UserToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[token.Scope().CacheKey()] = token
	return nil
}

func (r *memTokenRepo) Find(_ context.Context, scope models.Scope) (*models.UserToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.rows[scope.CacheKey()]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return token, nil
}

func (r *memTokenRepo) Delete(_ context.Context, scope models.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, scope.CacheKey())
	return nil
}

func newFlowRouter(t *testing.T, graphURL string, tokenRepo *memTokenRepo) *gin.Engine {
	t.Helper()
	metaCfg := config.MetaConfig{
		AppID:              "app-id",
		AppSecret:          "app-secret",
		RedirectURL:        "http://localhost/api/v1/instagram/oauth/callback",
		GraphURL:           graphURL,
		DialogURL:          graphURL,
		StateSecret:        "test-secret",
		StateTTL:           time.Minute,
		WebhookVerifyToken: "verify-tok",
		RequestTimeout:     5 * time.Second,
		SuccessRedirectURL: "http://frontend/linked",
		ErrorRedirectURL:   "http://frontend/link-error",
	}
	cfg := &config.Config{Meta: metaCfg}

	logger := zap.NewNop()
	client := graph.NewClient(metaCfg, logger)
	codec, err := security.NewStateCodec(metaCfg.StateSecret, metaCfg.StateTTL)
	require.NoError(t, err)

	tokens := service.NewTokenService(tokenRepo, nil, "", logger)
	oauth := service.NewOAuthService(client, codec, tokens, logger)

	return SetupRouter(RouterDeps{
		OAuth:    oauth,
		Accounts: service.NewAccountService(nil, tokens, client, nil, logger),
		Insights: nil,
		Snapshot: nil,
		Comments: nil,
		Publish:  nil,
		Sessions: &stubSessionChecker{credential: "session-1", userID: 42},
		Config:   cfg,
		Logger:   logger,
	})
}

func TestLinkFlow_StartThroughCallbackStoresToken(t *testing.T) {
	graphSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/access_token", r.URL.Path)
		if r.Method == http.MethodPost {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"short-tok","token_type":"bearer","expires_in":3600}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"long-tok","expires_in":5184000}`)
	}))
	defer graphSrv.Close()

	tokenRepo := newMemTokenRepo()
	router := newFlowRouter(t, graphSrv.URL, tokenRepo)

	// Start: authenticated request redirects to the authorize dialog.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/instagram/oauth/start?persona_num=2", nil)
	req.Header.Set("Authorization", "Bearer session-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	authURL, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	// Callback: the browser returns with code and state, no session.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/instagram/oauth/callback?code=auth-code&state="+url.QueryEscape(state), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "frontend", loc.Host)
	assert.Equal(t, "/linked", loc.Path)
	assert.Equal(t, "2", loc.Query().Get("persona_num"))

	stored, err := tokenRepo.Find(context.Background(), models.PersonaScope(42, 2))
	require.NoError(t, err)
	assert.Equal(t, "long-tok", stored.Token)
}

func TestLinkFlow_TamperedStateRedirectsToErrorURL(t *testing.T) {
	tokenRepo := newMemTokenRepo()
	router := newFlowRouter(t, "http://unused", tokenRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instagram/oauth/callback?code=auth-code&state=forged", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/link-error", loc.Path)
	assert.Equal(t, "oauth_failed", loc.Query().Get("reason"))
	assert.Empty(t, tokenRepo.rows)
}

func TestLinkFlow_StartWithoutSessionIsUnauthorized(t *testing.T) {
	router := newFlowRouter(t, "http://unused", newMemTokenRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instagram/oauth/start?persona_num=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLinkFlow_StartWithoutPersonaRejected(t *testing.T) {
	router := newFlowRouter(t, "http://unused", newMemTokenRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instagram/oauth/start", nil)
	req.Header.Set("Authorization", "Bearer session-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "persona_required")
}

func TestWebhook_VerifyHandshake(t *testing.T) {
	router := newFlowRouter(t, "http://unused", newMemTokenRepo())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/webhooks/instagram?hub.mode=subscribe&hub.verify_token=verify-tok&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestWebhook_VerifyRejectsWrongToken(t *testing.T) {
	router := newFlowRouter(t, "http://unused", newMemTokenRepo())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/webhooks/instagram?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
