package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
	"armonia.dev/intercom/internal/service"
)

// GetSettings handles GET /settings/intercom.
func (s *Server) GetSettings(c *gin.Context) {
	settings, err := s.settings.GetSettings(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, redactSettings(settings))
}

// UpdateSettings handles PUT /settings/intercom.
func (s *Server) UpdateSettings(c *gin.Context) {
	var update models.ChannelSettings
	if err := c.ShouldBindJSON(&update); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "Invalid request body").WithParams(map[string]interface{}{"detail": err.Error()}))
		return
	}

	saved, err := s.settings.UpdateSettings(c.Request.Context(), &update)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, redactSettings(saved))
}

// GetStats handles GET /stats/intercom.
func (s *Server) GetStats(c *gin.Context) {
	window := service.StatsRange{
		From: timeQuery(c, "from"),
		To:   timeQuery(c, "to"),
	}

	stats, err := s.stats.GetStats(c.Request.Context(), window)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// redactSettings masks provider credentials in API responses. Callers update
// credentials by sending fresh values, never by reading them back.
func redactSettings(settings *models.ChannelSettings) *models.ChannelSettings {
	out := *settings

	if out.TelegramBotToken != "" {
		out.TelegramBotToken = "********"
	}
	if len(out.WhatsappConfig) > 0 {
		redacted := make(models.JSON, len(out.WhatsappConfig))
		for k, v := range out.WhatsappConfig {
			redacted[k] = v
		}
		if _, ok := redacted["auth_token"]; ok {
			redacted["auth_token"] = "********"
		}
		out.WhatsappConfig = redacted
	}

	return &out
}
