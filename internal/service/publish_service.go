package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

// PublishService posts a single image to the persona's account through the
// two-step container flow.
type PublishService struct {
	accounts *AccountService
	tokens   *TokenService
	graph    GraphAPI
	logger   *zap.Logger
}

func NewPublishService(accounts *AccountService, tokens *TokenService, graphAPI GraphAPI, logger *zap.Logger) *PublishService {
	return &PublishService{
		accounts: accounts,
		tokens:   tokens,
		graph:    graphAPI,
		logger:   logger.Named("publish_service"),
	}
}

// Publish creates a media container for the image and publishes it,
// returning the published media id. The image URL must be publicly
// fetchable by the platform.
func (s *PublishService) Publish(ctx context.Context, userID int64, personaNum int, imageURL, caption string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("image url must not be empty")
	}
	mapping, err := s.accounts.Mapping(ctx, userID, personaNum)
	if err != nil {
		return "", err
	}
	// Publishing acts as the persona; no fallback past the persona token.
	token, err := s.tokens.Resolve(ctx, models.PersonaScope(userID, personaNum), RequirePersona())
	if err != nil {
		return "", err
	}

	creationID, err := s.graph.CreateMediaContainer(ctx, token, mapping.IGUserID, imageURL, caption)
	if err != nil {
		return "", err
	}
	mediaID, err := s.graph.PublishMedia(ctx, token, mapping.IGUserID, creationID)
	if err != nil {
		return "", err
	}
	s.logger.Info("Published media",
		zap.Int64("user_id", userID), zap.Int("persona_num", personaNum), zap.String("media_id", mediaID))
	return mediaID, nil
}
