package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
)

type resolveOptions struct {
	requirePersona bool
}

// ResolveOption adjusts how the resolver chain is walked.
type ResolveOption func(*resolveOptions)

// RequirePersona restricts resolution to the persona row alone. Callers
// acting as an unlinked persona must not silently pick up the user-wide or
// static token.
func RequirePersona() ResolveOption {
	return func(o *resolveOptions) {
		o.requirePersona = true
	}
}

// TokenService stores and resolves long-lived Graph user tokens. Resolution
// walks an ordered chain: persona row, then user row, then the static token
// from config. A full miss is ErrAuthRequired.
type TokenService struct {
	tokens      repository.TokenRepository
	cache       TokenCache
	staticToken string
	logger      *zap.Logger
}

func NewTokenService(tokens repository.TokenRepository, cache TokenCache, staticToken string, logger *zap.Logger) *TokenService {
	if cache == nil {
		cache = noopTokenCache{}
	}
	return &TokenService{
		tokens:      tokens,
		cache:       cache,
		staticToken: staticToken,
		logger:      logger.Named("token_service"),
	}
}

// Store upserts the token row for the scope. expiresIn is seconds from now;
// zero or negative means the remote reported no expiry.
func (s *TokenService) Store(ctx context.Context, scope models.Scope, token string, expiresIn int) (*models.UserToken, error) {
	if token == "" {
		return nil, fmt.Errorf("refusing to store an empty token for %s", scope)
	}
	row := &models.UserToken{
		UserID:     scope.UserID,
		PersonaNum: scope.PersonaNum,
		Token:      token,
	}
	if expiresIn > 0 {
		t := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
		row.ExpiresAt = &t
	}
	if err := s.tokens.Upsert(ctx, row); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, scope)
	s.logger.Info("Stored token", zap.Stringer("scope", scope), zap.Bool("has_expiry", row.ExpiresAt != nil))
	return row, nil
}

// Resolve returns the effective token for the scope. The persona row wins
// over the user row, which wins over the static config token. Expiry on a
// stored row is advisory: an expired row is still returned, with a warning,
// because only the remote API knows whether it actually stopped working.
func (s *TokenService) Resolve(ctx context.Context, scope models.Scope, opts ...ResolveOption) (string, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	chain := []models.Scope{scope}
	if scope.IsPersona() && !o.requirePersona {
		chain = append(chain, models.UserScope(scope.UserID))
	}

	for _, candidate := range chain {
		if cached := s.cache.Get(ctx, candidate); cached != nil {
			return cached.Token, nil
		}
		row, err := s.tokens.Find(ctx, candidate)
		if errors.Is(err, domainErrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if row.Expired(time.Now()) {
			s.logger.Warn("Resolved token is past its advisory expiry", zap.Stringer("scope", candidate))
		}
		s.cache.Set(ctx, candidate, row)
		return row.Token, nil
	}

	if s.staticToken != "" && !o.requirePersona {
		return s.staticToken, nil
	}
	return "", fmt.Errorf("%w: no token for %s", domainErrors.ErrAuthRequired, scope)
}

// Delete removes the token row for the exact scope. Missing rows are fine.
func (s *TokenService) Delete(ctx context.Context, scope models.Scope) error {
	if err := s.tokens.Delete(ctx, scope); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, scope)
	return nil
}

// noopTokenCache stands in when redis is disabled.
type noopTokenCache struct{}

func (noopTokenCache) Get(context.Context, models.Scope) *models.UserToken  { return nil }
func (noopTokenCache) Set(context.Context, models.Scope, *models.UserToken) {}
func (noopTokenCache) Invalidate(context.Context, models.Scope)             {}
