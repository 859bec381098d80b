package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

func TestTokenService_Resolve_PersonaWinsOverUser(t *testing.T) {
	repo := new(MockTokenRepository)
	svc := NewTokenService(repo, nil, "static-tok", zap.NewNop())

	persona := models.PersonaScope(7, 2)
	n := 2
	repo.On("Find", mock.Anything, persona).
		Return(&models.UserToken{UserID: 7, PersonaNum: &n, Token: "persona-tok"}, nil)

	token, err := svc.Resolve(context.Background(), persona)
	require.NoError(t, err)
	assert.Equal(t, "persona-tok", token)
	repo.AssertNotCalled(t, "Find", mock.Anything, models.UserScope(7))
}

func TestTokenService_Resolve_FallsBackToUserThenStatic(t *testing.T) {
	repo := new(MockTokenRepository)
	svc := NewTokenService(repo, nil, "static-tok", zap.NewNop())

	persona := models.PersonaScope(7, 2)
	repo.On("Find", mock.Anything, persona).Return(nil, domainErrors.ErrNotFound)
	repo.On("Find", mock.Anything, models.UserScope(7)).
		Return(&models.UserToken{UserID: 7, Token: "user-tok"}, nil)

	token, err := svc.Resolve(context.Background(), persona)
	require.NoError(t, err)
	assert.Equal(t, "user-tok", token)

	repo2 := new(MockTokenRepository)
	svc2 := NewTokenService(repo2, nil, "static-tok", zap.NewNop())
	repo2.On("Find", mock.Anything, mock.Anything).Return(nil, domainErrors.ErrNotFound)

	token, err = svc2.Resolve(context.Background(), persona)
	require.NoError(t, err)
	assert.Equal(t, "static-tok", token)
}

func TestTokenService_Resolve_MissIsAuthRequired(t *testing.T) {
	repo := new(MockTokenRepository)
	svc := NewTokenService(repo, nil, "", zap.NewNop())
	repo.On("Find", mock.Anything, mock.Anything).Return(nil, domainErrors.ErrNotFound)

	_, err := svc.Resolve(context.Background(), models.PersonaScope(7, 2))
	assert.ErrorIs(t, err, domainErrors.ErrAuthRequired)
}

func TestTokenService_Resolve_RequirePersonaBlocksFallback(t *testing.T) {
	repo := new(MockTokenRepository)
	svc := NewTokenService(repo, nil, "static-tok", zap.NewNop())

	persona := models.PersonaScope(7, 2)
	repo.On("Find", mock.Anything, persona).Return(nil, domainErrors.ErrNotFound)

	_, err := svc.Resolve(context.Background(), persona, RequirePersona())
	assert.ErrorIs(t, err, domainErrors.ErrAuthRequired)
	repo.AssertNotCalled(t, "Find", mock.Anything, models.UserScope(7))
}

func TestTokenService_Resolve_ExpiredTokenStillReturned(t *testing.T) {
	repo := new(MockTokenRepository)
	svc := NewTokenService(repo, nil, "", zap.NewNop())

	past := time.Now().Add(-time.Hour)
	repo.On("Find", mock.Anything, models.UserScope(7)).
		Return(&models.UserToken{UserID: 7, Token: "stale-tok", ExpiresAt: &past}, nil)

	token, err := svc.Resolve(context.Background(), models.UserScope(7))
	require.NoError(t, err)
	assert.Equal(t, "stale-tok", token)
}

func TestTokenService_Store_SetsAdvisoryExpiry(t *testing.T) {
	repo := new(MockTokenRepository)
	svc := NewTokenService(repo, nil, "", zap.NewNop())

	var stored *models.UserToken
	repo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.UserToken")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.UserToken) }).
		Return(nil)

	_, err := svc.Store(context.Background(), models.PersonaScope(7, 2), "tok", 3600)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.ExpiresAt, time.Minute)

	_, err = svc.Store(context.Background(), models.PersonaScope(7, 3), "tok", 0)
	require.NoError(t, err)
	assert.Nil(t, stored.ExpiresAt)
}

func TestTokenService_Store_RejectsEmptyToken(t *testing.T) {
	repo := new(MockTokenRepository)
	svc := NewTokenService(repo, nil, "", zap.NewNop())

	_, err := svc.Store(context.Background(), models.UserScope(7), "", 0)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
