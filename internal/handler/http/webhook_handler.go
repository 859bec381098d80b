package http

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler answers the platform's webhook verification handshake and
// acknowledges deliveries. Payloads are not ingested; engagement data is
// pulled, not pushed.
type WebhookHandler struct {
	verifyToken string
	logger      *zap.Logger
}

func NewWebhookHandler(verifyToken string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifyToken: verifyToken, logger: logger.Named("webhook_handler")}
}

// Verify echoes hub.challenge when the verify token matches.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		h.logger.Warn("Webhook verification rejected", zap.String("mode", mode))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive drains and acknowledges a delivery so the platform does not
// retry it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	n, _ := io.Copy(io.Discard, c.Request.Body)
	h.logger.Debug("Webhook delivery acknowledged", zap.Int64("bytes", n))
	c.String(http.StatusOK, "ok")
}
