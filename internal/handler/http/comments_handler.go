package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/handler/http/middleware"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
	"github.com/ldgsmhrd/selfstar/internal/service"
)

// CommentsHandler exposes pending comments, acks and replies.
type CommentsHandler struct {
	comments *service.CommentService
	logger   *zap.Logger
}

func NewCommentsHandler(comments *service.CommentService, logger *zap.Logger) *CommentsHandler {
	return &CommentsHandler{comments: comments, logger: logger.Named("comments_handler")}
}

// Pending lists comments that have not been acknowledged yet.
func (h *CommentsHandler) Pending(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	personaNum, ok := requiredIntQuery(c, "persona_num")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "persona_num must be an integer", "invalid_request", h.logger)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	pending, err := h.comments.Pending(c.Request.Context(), userID, personaNum, limit)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{"comments": pending})
}

type ackRequest struct {
	PersonaNum *int     `json:"persona_num"`
	IDs        []string `json:"ids" binding:"required"`
}

// Ack marks comment ids as handled.
func (h *CommentsHandler) Ack(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req ackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "ids are required", "invalid_request", h.logger)
		return
	}

	count, err := h.comments.Ack(c.Request.Context(), userID, req.PersonaNum, req.IDs)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{"acknowledged": count})
}

type replyRequest struct {
	PersonaNum *int   `json:"persona_num" binding:"required"`
	CommentID  string `json:"comment_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

// Reply posts one reply and acknowledges the comment on success.
func (h *CommentsHandler) Reply(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "persona_num, comment_id and message are required", "invalid_request", h.logger)
		return
	}

	result, err := h.comments.Reply(c.Request.Context(), userID, *req.PersonaNum, req.CommentID, req.Message)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, result)
}

type autoReplyRequest struct {
	PersonaNum  *int   `json:"persona_num" binding:"required"`
	CommentID   string `json:"comment_id" binding:"required"`
	Text        string `json:"text"`
	CommentText string `json:"comment_text"`
	Username    string `json:"username"`
}

// AutoReply replies to one comment, drafting text when none is given.
// comment_text and username give the drafter the comment's context.
func (h *CommentsHandler) AutoReply(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req autoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "persona_num and comment_id are required", "invalid_request", h.logger)
		return
	}

	result, err := h.comments.AutoReply(c.Request.Context(), userID, *req.PersonaNum, req.CommentID, req.Text,
		graph.Comment{Text: req.CommentText, Username: req.Username})
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, result)
}
