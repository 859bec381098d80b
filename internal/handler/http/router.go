package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	"github.com/ldgsmhrd/selfstar/internal/handler/http/middleware"
	"github.com/ldgsmhrd/selfstar/internal/service"
)

// RouterDeps bundles everything the router wires up.
type RouterDeps struct {
	OAuth    *service.OAuthService
	Accounts *service.AccountService
	Insights *service.InsightsService
	Snapshot *service.SnapshotService
	Comments *service.CommentService
	Publish  *service.PublishService
	Sessions middleware.SessionChecker
	Config   *config.Config
	Logger   *zap.Logger
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.CorsMiddleware())
	if deps.Config.Metrics.Enabled {
		router.Use(middleware.MetricsMiddleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/readiness", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	oauthHandler := NewOAuthHandler(deps.OAuth, deps.Config.Meta, deps.Logger)
	accountsHandler := NewAccountsHandler(deps.Accounts, deps.Logger)
	insightsHandler := NewInsightsHandler(deps.Insights, deps.Accounts, deps.Snapshot, deps.Logger)
	commentsHandler := NewCommentsHandler(deps.Comments, deps.Logger)
	publishHandler := NewPublishHandler(deps.Publish, deps.Logger)
	webhookHandler := NewWebhookHandler(deps.Config.Meta.WebhookVerifyToken, deps.Logger)

	api := router.Group("/api/v1")

	// The callback and the webhook handshake arrive without a session:
	// the callback authenticates through the signed state, the webhook
	// through the verify token.
	api.GET("/instagram/oauth/callback", oauthHandler.HandleCallback)
	api.GET("/webhooks/instagram", webhookHandler.Verify)
	api.POST("/webhooks/instagram", webhookHandler.Receive)

	protected := api.Group("/instagram")
	protected.Use(middleware.SessionMiddleware(deps.Sessions, deps.Logger))
	{
		protected.GET("/oauth/start", oauthHandler.StartLink)

		protected.GET("/accounts", accountsHandler.ListAccounts)
		protected.GET("/accounts/status", accountsHandler.Status)
		protected.POST("/accounts/link", accountsHandler.Link)
		protected.POST("/accounts/unlink", accountsHandler.Unlink)

		protected.GET("/insights/overview", insightsHandler.Overview)
		protected.GET("/insights/deltas", insightsHandler.DailyDeltas)
		protected.POST("/insights/snapshot", insightsHandler.SnapshotNow)

		protected.GET("/comments", commentsHandler.Pending)
		protected.POST("/comments/ack", commentsHandler.Ack)
		protected.POST("/comments/reply", commentsHandler.Reply)
		protected.POST("/comments/auto-reply", commentsHandler.AutoReply)

		protected.POST("/publish", publishHandler.Publish)
	}

	return router
}
