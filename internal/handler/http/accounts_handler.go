package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/handler/http/middleware"
	"github.com/ldgsmhrd/selfstar/internal/service"
)

// AccountsHandler exposes account discovery, linking and unlinking.
type AccountsHandler struct {
	accounts *service.AccountService
	logger   *zap.Logger
}

func NewAccountsHandler(accounts *service.AccountService, logger *zap.Logger) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, logger: logger.Named("accounts_handler")}
}

// ListAccounts returns the linkable Instagram business accounts.
func (h *AccountsHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	personaNum, err := optionalIntQuery(c, "persona_num")
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "persona_num must be an integer", "invalid_request", h.logger)
		return
	}

	candidates, err := h.accounts.ListAccounts(c.Request.Context(), userID, personaNum)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{"accounts": candidates})
}

type linkRequest struct {
	PersonaNum *int   `json:"persona_num" binding:"required"`
	IGUserID   string `json:"ig_user_id" binding:"required"`
}

// Link binds a persona to the chosen account.
func (h *AccountsHandler) Link(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "persona_num and ig_user_id are required", "invalid_request", h.logger)
		return
	}

	mapping, err := h.accounts.Link(c.Request.Context(), userID, *req.PersonaNum, req.IGUserID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, mapping)
}

type unlinkRequest struct {
	PersonaNum *int `json:"persona_num" binding:"required"`
}

// Unlink removes the persona's mapping and its token.
func (h *AccountsHandler) Unlink(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req unlinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "persona_num is required", "invalid_request", h.logger)
		return
	}

	if err := h.accounts.Unlink(c.Request.Context(), userID, *req.PersonaNum); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "instagram account unlinked")
}

// Status reports whether the persona is linked and to which account.
func (h *AccountsHandler) Status(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	personaNum, ok := requiredIntQuery(c, "persona_num")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "persona_num must be an integer", "invalid_request", h.logger)
		return
	}

	mapping, err := h.accounts.Mapping(c.Request.Context(), userID, personaNum)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, mapping)
}
