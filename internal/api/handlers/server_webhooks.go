package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/pkg/logger"
)

// Signature headers sent by each provider alongside webhook payloads.
const (
	twilioSignatureHeader  = "X-Twilio-Signature"
	telegramSecretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	maxWebhookPayloadBytes = 1 << 20
)

// ReceiveWebhook handles POST /webhooks/:channel. It always acknowledges
// payloads that pass verification so providers do not retry; processing
// errors are logged, not surfaced.
func (s *Server) ReceiveWebhook(c *gin.Context) {
	ch, signature, ok := webhookChannel(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Unknown channel",
		})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadBytes))
	if err != nil {
		logger.Warn("Failed to read webhook body", zap.Error(err), zap.String("channel", string(ch)))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Unreadable payload",
		})
		return
	}

	result := s.webhooks.ProcessWebhook(c.Request.Context(), ch, payload, signature)
	if !result.Success {
		c.JSON(webhookFailureStatus(result.Error), gin.H{
			"success": false,
			"error":   result.Error,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// webhookChannel maps the :channel path segment to a channel and picks the
// provider's signature header.
func webhookChannel(c *gin.Context) (models.NotificationChannel, string, bool) {
	switch strings.ToLower(c.Param("channel")) {
	case "whatsapp":
		return models.ChannelWhatsApp, c.GetHeader(twilioSignatureHeader), true
	case "telegram":
		return models.ChannelTelegram, c.GetHeader(telegramSecretHeader), true
	default:
		return "", "", false
	}
}

func webhookFailureStatus(errMsg string) int {
	switch errMsg {
	case "Webhook verification failed":
		return http.StatusUnauthorized
	case "Channel not configured":
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
