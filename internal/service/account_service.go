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
	"github.com/ldgsmhrd/selfstar/internal/events/kafka"
)

// AccountService manages the persona to Instagram account mapping: listing
// linkable accounts, binding one to a persona and unlinking it again.
type AccountService struct {
	mappings  repository.MappingRepository
	tokens    *TokenService
	graph     GraphAPI
	publisher EventPublisher
	logger    *zap.Logger
}

func NewAccountService(mappings repository.MappingRepository, tokens *TokenService, graphAPI GraphAPI, publisher EventPublisher, logger *zap.Logger) *AccountService {
	return &AccountService{
		mappings:  mappings,
		tokens:    tokens,
		graph:     graphAPI,
		publisher: publisher,
		logger:    logger.Named("account_service"),
	}
}

// ListAccounts enumerates the Instagram business accounts reachable through
// the caller's token. Pages without an Instagram account are already
// filtered out by the client.
func (s *AccountService) ListAccounts(ctx context.Context, userID int64, personaNum *int) ([]models.AccountCandidate, error) {
	scope := models.UserScope(userID)
	if personaNum != nil {
		scope = models.PersonaScope(userID, *personaNum)
	}
	token, err := s.tokens.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	return s.graph.ListAccounts(ctx, token)
}

// Link binds the persona to the chosen Instagram account. The account must
// be among those the persona's token can actually see, so a stale or
// spoofed id cannot be bound. Linking demands a token stored for this
// persona; the user-wide and static fallbacks are not enough to create a
// mapping.
func (s *AccountService) Link(ctx context.Context, userID int64, personaNum int, igUserID string) (*models.PersonaMapping, error) {
	scope := models.PersonaScope(userID, personaNum)
	token, err := s.tokens.Resolve(ctx, scope, RequirePersona())
	if err != nil {
		return nil, err
	}
	candidates, err := s.graph.ListAccounts(ctx, token)
	if err != nil {
		return nil, err
	}
	var chosen *models.AccountCandidate
	for i := range candidates {
		if candidates[i].IGUserID == igUserID {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: account %s is not reachable with this token", domainErrors.ErrNotFound, igUserID)
	}

	mapping := &models.PersonaMapping{
		UserID:     userID,
		PersonaNum: personaNum,
		IGUserID:   chosen.IGUserID,
		IGUsername: chosen.IGUsername,
		FBPageID:   chosen.PageID,
	}
	if err := s.mappings.Upsert(ctx, mapping); err != nil {
		return nil, err
	}
	s.logger.Info("Linked persona to account",
		zap.Int64("user_id", userID), zap.Int("persona_num", personaNum), zap.String("ig_user_id", chosen.IGUserID))

	s.publishLinked(ctx, mapping)
	return mapping, nil
}

// Unlink removes the mapping and the persona-scoped token together. Leaving
// the token behind would let a supposedly detached persona keep acting on
// the account. Unlinking an unlinked persona is a no-op.
func (s *AccountService) Unlink(ctx context.Context, userID int64, personaNum int) error {
	if err := s.mappings.Delete(ctx, userID, personaNum); err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, models.PersonaScope(userID, personaNum)); err != nil {
		return err
	}
	s.logger.Info("Unlinked persona", zap.Int64("user_id", userID), zap.Int("persona_num", personaNum))

	if s.publisher != nil {
		event := kafka.AccountUnlinkedEvent{UserID: userID, PersonaNum: personaNum, Timestamp: time.Now().UTC()}
		if err := s.publisher.PublishAccountUnlinked(ctx, event); err != nil {
			s.logger.Warn("Failed to publish account unlinked event", zap.Error(err))
		}
	}
	return nil
}

// Mapping returns the persona's current mapping, ErrLinkageMissing when the
// persona is not linked.
func (s *AccountService) Mapping(ctx context.Context, userID int64, personaNum int) (*models.PersonaMapping, error) {
	m, err := s.mappings.Find(ctx, userID, personaNum)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrLinkageMissing
		}
		return nil, err
	}
	return m, nil
}

func (s *AccountService) publishLinked(ctx context.Context, m *models.PersonaMapping) {
	if s.publisher == nil {
		return
	}
	event := kafka.AccountLinkedEvent{
		UserID:     m.UserID,
		PersonaNum: m.PersonaNum,
		IGUserID:   m.IGUserID,
		Timestamp:  time.Now().UTC(),
	}
	if m.IGUsername != nil {
		event.IGUsername = *m.IGUsername
	}
	if err := s.publisher.PublishAccountLinked(ctx, event); err != nil {
		s.logger.Warn("Failed to publish account linked event", zap.Error(err))
	}
}
