package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/handler/http/middleware"
	"github.com/ldgsmhrd/selfstar/internal/service"
)

// OAuthHandler exposes the account-linking flow.
type OAuthHandler struct {
	oauth  *service.OAuthService
	cfg    config.MetaConfig
	logger *zap.Logger
}

func NewOAuthHandler(oauth *service.OAuthService, cfg config.MetaConfig, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, cfg: cfg, logger: logger.Named("oauth_handler")}
}

// StartLink redirects the browser to the platform's authorize dialog.
func (h *OAuthHandler) StartLink(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "authentication required", "unauthorized", h.logger)
		return
	}
	personaNum, err := optionalIntQuery(c, "persona_num")
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "persona_num must be an integer", "invalid_request", h.logger)
		return
	}

	authURL, err := h.oauth.StartLink(c.Request.Context(), userID, personaNum)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// HandleCallback finishes the flow. Identity comes from the signed state,
// not the session: the browser returns here straight from the platform.
func (h *OAuthHandler) HandleCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	scope, err := h.oauth.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		h.logger.Warn("OAuth callback failed", zap.Error(err))
		h.redirectOrRespond(c, h.cfg.ErrorRedirectURL, url.Values{"reason": {callbackFailureReason(err)}}, func() {
			RespondWithDomainError(c, err, h.logger)
		})
		return
	}

	params := url.Values{}
	if scope.PersonaNum != nil {
		params.Set("persona_num", strconv.Itoa(*scope.PersonaNum))
	}
	h.redirectOrRespond(c, h.cfg.SuccessRedirectURL, params, func() {
		RespondWithMessage(c, http.StatusOK, "instagram account authorized")
	})
}

// redirectOrRespond redirects to the configured frontend URL when one is
// set, otherwise falls back to a JSON response.
func (h *OAuthHandler) redirectOrRespond(c *gin.Context, target string, params url.Values, fallback func()) {
	if target == "" {
		fallback()
		return
	}
	if len(params) > 0 {
		sep := "?"
		if u, err := url.Parse(target); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target = target + sep + params.Encode()
	}
	c.Redirect(http.StatusFound, target)
}

func callbackFailureReason(err error) string {
	switch {
	case domainErrors.IsAuthRequired(err):
		return "persona_oauth_required"
	case domainErrors.IsRemoteTransient(err):
		return "graph_unavailable"
	default:
		return "oauth_failed"
	}
}

// optionalIntQuery parses an optional integer query parameter.
func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// requiredIntQuery parses a required integer query parameter.
func requiredIntQuery(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0, false
	}
	return n, true
}
