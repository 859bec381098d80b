package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
	"github.com/ldgsmhrd/selfstar/internal/utils/metrics"
)

const (
	commentMediaPages   = 3
	commentsPerMedia    = 25
	defaultCommentLimit = 20
)

// PendingComment is an unhandled comment with its media context.
type PendingComment struct {
	MediaID        string `json:"media_id"`
	MediaPermalink string `json:"media_permalink"`
	MediaCaption   string `json:"media_caption"`
	CommentID      string `json:"comment_id"`
	Text           string `json:"text"`
	Username       string `json:"username"`
	Timestamp      string `json:"timestamp"`
}

// ReplyResult reports one posted reply.
type ReplyResult struct {
	CommentID string `json:"comment_id"`
	ReplyID   string `json:"reply_id"`
	Message   string `json:"message"`
}

// CommentService surfaces unhandled comments, acknowledges handled ones and
// posts replies. An acknowledged id never resurfaces; a reply acks its
// comment only after the platform confirmed the post.
type CommentService struct {
	seen     repository.SeenEventRepository
	accounts *AccountService
	tokens   *TokenService
	graph    GraphAPI
	drafter  ReplyDrafter
	logger   *zap.Logger
}

func NewCommentService(seen repository.SeenEventRepository, accounts *AccountService, tokens *TokenService, graphAPI GraphAPI, drafter ReplyDrafter, logger *zap.Logger) *CommentService {
	return &CommentService{
		seen:     seen,
		accounts: accounts,
		tokens:   tokens,
		graph:    graphAPI,
		drafter:  drafter,
		logger:   logger.Named("comment_service"),
	}
}

// Pending lists recent comments on the persona's media that have not been
// acknowledged yet, newest media first.
func (s *CommentService) Pending(ctx context.Context, userID int64, personaNum, limit int) ([]PendingComment, error) {
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	mapping, err := s.accounts.Mapping(ctx, userID, personaNum)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Resolve(ctx, models.PersonaScope(userID, personaNum))
	if err != nil {
		return nil, err
	}

	candidates, err := s.collectComments(ctx, token, mapping.IGUserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.CommentID)
	}
	seen, err := s.seen.FilterSeen(ctx, ids)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingComment, 0, limit)
	for _, c := range candidates {
		if seen[c.CommentID] {
			continue
		}
		pending = append(pending, c)
		if len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

// collectComments walks a few pages of recent media and pulls each item's
// recent comments.
func (s *CommentService) collectComments(ctx context.Context, token, igUserID string) ([]PendingComment, error) {
	var out []PendingComment
	page, err := s.graph.ListMedia(ctx, token, igUserID, "id,caption,permalink,comments_count", 50, time.Time{})
	if err != nil {
		return nil, err
	}
	for pages := 0; ; pages++ {
		for _, media := range page.Data {
			if media.CommentsCount == 0 {
				continue
			}
			comments, err := s.graph.MediaComments(ctx, token, media.ID, commentsPerMedia)
			if err != nil {
				return nil, err
			}
			for _, c := range comments {
				out = append(out, PendingComment{
					MediaID:        media.ID,
					MediaPermalink: media.Permalink,
					MediaCaption:   media.Caption,
					CommentID:      c.ID,
					Text:           c.Text,
					Username:       c.Username,
					Timestamp:      c.Timestamp,
				})
			}
		}
		if page.NextURL == "" || pages+1 >= commentMediaPages {
			return out, nil
		}
		page, err = s.graph.NextMediaPage(ctx, page.NextURL)
		if err != nil {
			return nil, err
		}
	}
}

// Ack marks the ids as handled and returns how many were recorded. Acking
// an already-acked id is a no-op, so retried batches are safe.
func (s *CommentService) Ack(ctx context.Context, userID int64, personaNum *int, externalIDs []string) (int, error) {
	count := 0
	for _, id := range externalIDs {
		if id == "" {
			continue
		}
		event := &models.SeenEvent{ExternalID: id, UserID: userID, PersonaNum: personaNum}
		if err := s.seen.Ack(ctx, event); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Reply posts a reply under the comment and acknowledges the comment only
// after the platform confirmed the post. A failed post leaves the comment
// unacknowledged so it surfaces again.
func (s *CommentService) Reply(ctx context.Context, userID int64, personaNum int, commentID, message string) (*ReplyResult, error) {
	if message == "" {
		return nil, fmt.Errorf("reply message must not be empty")
	}
	// Replies act as the persona; an unlinked persona must not fall back
	// to the user-wide or static token.
	token, err := s.tokens.Resolve(ctx, models.PersonaScope(userID, personaNum), RequirePersona())
	if err != nil {
		return nil, err
	}

	replyID, err := s.graph.ReplyToComment(ctx, token, commentID, message)
	if err != nil {
		outcome := "failure"
		if domainErrors.IsAuthRequired(err) {
			outcome = "auth_required"
		}
		metrics.RepliesPostedTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}
	metrics.RepliesPostedTotal.WithLabelValues("success").Inc()

	n := personaNum
	if err := s.seen.Ack(ctx, &models.SeenEvent{ExternalID: commentID, UserID: userID, PersonaNum: &n}); err != nil {
		// The reply is out; an ack failure must not look like a reply
		// failure. The comment will resurface once and be re-acked.
		s.logger.Warn("Reply posted but ack failed",
			zap.String("comment_id", commentID), zap.Error(err))
	}
	s.logger.Info("Posted reply",
		zap.Int64("user_id", userID), zap.Int("persona_num", personaNum),
		zap.String("comment_id", commentID), zap.String("reply_id", replyID))
	return &ReplyResult{CommentID: commentID, ReplyID: replyID, Message: message}, nil
}

// AutoReply answers one comment, drafting the text when none is supplied.
// commentCtx carries the comment's text and author for the drafter; the
// returned result includes the text that was posted.
func (s *CommentService) AutoReply(ctx context.Context, userID int64, personaNum int, commentID, text string, commentCtx graph.Comment) (*ReplyResult, error) {
	message := text
	if message == "" {
		if s.drafter == nil {
			return nil, fmt.Errorf("no reply text supplied and no drafter configured")
		}
		commentCtx.ID = commentID
		drafted, err := s.drafter.Draft(ctx, commentCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to draft reply for comment %s: %w", commentID, err)
		}
		message = drafted
	}
	return s.Reply(ctx, userID, personaNum, commentID, message)
}
