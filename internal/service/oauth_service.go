package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/security"
)

// OAuthService drives the account-linking flow: it issues the authorize
// URL with a signed state and turns the callback into a stored long-lived
// persona-scoped token.
type OAuthService struct {
	graph  GraphAPI
	codec  *security.StateCodec
	tokens *TokenService
	logger *zap.Logger
}

func NewOAuthService(graphAPI GraphAPI, codec *security.StateCodec, tokens *TokenService, logger *zap.Logger) *OAuthService {
	return &OAuthService{
		graph:  graphAPI,
		codec:  codec,
		tokens: tokens,
		logger: logger.Named("oauth_service"),
	}
}

// StartLink builds the authorize dialog URL for the persona. Tokens are
// always persona-scoped, so a request without a persona is rejected before
// anything leaves the service.
func (s *OAuthService) StartLink(ctx context.Context, userID int64, personaNum *int) (string, error) {
	if personaNum == nil {
		return "", domainErrors.ErrPersonaRequired
	}
	state := models.LinkState{
		UserID:     userID,
		PersonaNum: *personaNum,
		Nonce:      uuid.NewString(),
		IssuedAt:   time.Now().Unix(),
	}
	signed, err := s.codec.Encode(state)
	if err != nil {
		return "", fmt.Errorf("failed to sign link state: %w", err)
	}
	s.logger.Info("Starting account link", zap.Int64("user_id", userID), zap.Int("persona_num", *personaNum))
	return s.graph.AuthCodeURL(signed), nil
}

// HandleCallback verifies the returned state, exchanges the code and stores
// the resulting token under the persona scope. The code exchange is
// one-shot: codes are single-use upstream, so no step here retries. When
// the short-to-long upgrade fails the short token is still persisted so the
// persona is not left without credentials, but the failure is reported.
func (s *OAuthService) HandleCallback(ctx context.Context, code, state string) (models.Scope, error) {
	st, err := s.codec.Decode(state)
	if err != nil {
		return models.Scope{}, err
	}
	scope := models.PersonaScope(st.UserID, st.PersonaNum)
	if code == "" {
		return scope, fmt.Errorf("%w: callback carried no authorization code", domainErrors.ErrStateInvalid)
	}

	short, err := s.graph.ExchangeCode(ctx, code)
	if err != nil {
		return scope, fmt.Errorf("code exchange failed: %w", err)
	}

	long, err := s.graph.ExchangeLongLived(ctx, short.AccessToken)
	if err != nil {
		s.logger.Warn("Long-lived exchange failed, storing short-lived token",
			zap.Stringer("scope", scope), zap.Error(err))
		if _, storeErr := s.tokens.Store(ctx, scope, short.AccessToken, short.ExpiresIn); storeErr != nil {
			return scope, storeErr
		}
		return scope, fmt.Errorf("long-lived exchange failed: %w", err)
	}

	if _, err := s.tokens.Store(ctx, scope, long.AccessToken, long.ExpiresIn); err != nil {
		return scope, err
	}
	s.logger.Info("Completed account link callback", zap.Stringer("scope", scope))
	return scope, nil
}
