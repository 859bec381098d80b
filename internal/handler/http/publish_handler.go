package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/handler/http/middleware"
	"github.com/ldgsmhrd/selfstar/internal/service"
)

// PublishHandler exposes single-image publishing.
type PublishHandler struct {
	publish *service.PublishService
	logger  *zap.Logger
}

func NewPublishHandler(publish *service.PublishService, logger *zap.Logger) *PublishHandler {
	return &PublishHandler{publish: publish, logger: logger.Named("publish_handler")}
}

type publishRequest struct {
	PersonaNum *int   `json:"persona_num" binding:"required"`
	ImageURL   string `json:"image_url" binding:"required"`
	Caption    string `json:"caption"`
}

// Publish posts an image to the persona's account.
func (h *PublishHandler) Publish(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "persona_num and image_url are required", "invalid_request", h.logger)
		return
	}

	mediaID, err := h.publish.Publish(c.Request.Context(), userID, *req.PersonaNum, req.ImageURL, req.Caption)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{"media_id": mediaID})
}
