package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
)

// ResponseError is the error shape every endpoint returns.
type ResponseError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RespondWithError sends an error response and logs it.
func RespondWithError(c *gin.Context, statusCode int, message string, errorCode string, logger *zap.Logger) {
	logger.Error("API error response",
		zap.Int("status_code", statusCode),
		zap.String("error_message", message),
		zap.String("error_code", errorCode),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ResponseError{Error: message, Code: errorCode})
}

// RespondWithData sends a success response carrying only data.
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondWithMessage sends a success response carrying only a message.
func RespondWithMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// RespondWithDomainError maps the service error taxonomy onto HTTP. Auth
// and linkage conditions carry their stable codes so the frontend can
// distinguish "redo OAuth" from "pick an account".
func RespondWithDomainError(c *gin.Context, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, domainErrors.ErrPersonaRequired):
		RespondWithError(c, http.StatusBadRequest, "persona reference is required", "persona_required", logger)
	case errors.Is(err, domainErrors.ErrAuthRequired):
		RespondWithError(c, http.StatusUnauthorized, "instagram authorization required", "persona_oauth_required", logger)
	case errors.Is(err, domainErrors.ErrLinkageMissing):
		RespondWithError(c, http.StatusConflict, "persona has no linked instagram account", "persona_instagram_not_linked", logger)
	case errors.Is(err, domainErrors.ErrStateInvalid):
		RespondWithError(c, http.StatusBadRequest, "invalid oauth state", "state_invalid", logger)
	case errors.Is(err, domainErrors.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, "resource not found", "not_found", logger)
	case errors.Is(err, domainErrors.ErrConflict):
		RespondWithError(c, http.StatusConflict, "resource already exists", "conflict", logger)
	case domainErrors.IsRemoteTransient(err):
		RespondWithError(c, http.StatusBadGateway, "upstream platform unavailable", "graph_unavailable", logger)
	default:
		var remote *domainErrors.RemoteError
		if errors.As(err, &remote) {
			RespondWithError(c, http.StatusBadGateway, "upstream platform rejected the request", "graph_rejected", logger)
			return
		}
		RespondWithError(c, http.StatusInternalServerError, "internal server error", "internal_error", logger)
	}
}
