package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/handler/http/middleware"
	"github.com/ldgsmhrd/selfstar/internal/service"
)

// InsightsHandler exposes snapshots, deltas and the live overview.
type InsightsHandler struct {
	insights  *service.InsightsService
	accounts  *service.AccountService
	snapshots *service.SnapshotService
	logger    *zap.Logger
}

func NewInsightsHandler(insights *service.InsightsService, accounts *service.AccountService, snapshots *service.SnapshotService, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		insights:  insights,
		accounts:  accounts,
		snapshots: snapshots,
		logger:    logger.Named("insights_handler"),
	}
}

// DailyDeltas returns day-over-day follower and like differences.
func (h *InsightsHandler) DailyDeltas(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	personaNum, ok := requiredIntQuery(c, "persona_num")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "persona_num must be an integer", "invalid_request", h.logger)
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	deltas, err := h.insights.DailyDeltas(c.Request.Context(), userID, personaNum, days)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, deltas)
}

// Overview returns the live dashboard payload.
func (h *InsightsHandler) Overview(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	personaNum, ok := requiredIntQuery(c, "persona_num")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "persona_num must be an integer", "invalid_request", h.logger)
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	overview, err := h.insights.Overview(c.Request.Context(), userID, personaNum, days)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, overview)
}

// SnapshotNow harvests today's snapshot for one persona on demand.
func (h *InsightsHandler) SnapshotNow(c *gin.Context) {
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
	snapshot, err := h.snapshots.SnapshotPersona(c.Request.Context(), mapping)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, snapshot)
}
