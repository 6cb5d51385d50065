package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

// GetPreferences handles GET /residents/:id/preferences.
func (s *Server) GetPreferences(c *gin.Context) {
	residentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "Resident id must be an integer"))
		return
	}

	pref, err := s.preferences.GetPreferences(c.Request.Context(), residentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pref)
}

// UpdatePreferences handles PUT /residents/:id/preferences. The resident id
// in the path wins over any id in the body.
func (s *Server) UpdatePreferences(c *gin.Context) {
	residentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "Resident id must be an integer"))
		return
	}

	var pref models.ResidentPreference
	if err := c.ShouldBindJSON(&pref); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "Invalid request body").WithParams(map[string]interface{}{"detail": err.Error()}))
		return
	}
	pref.ResidentID = residentID

	saved, err := s.preferences.UpdatePreferences(c.Request.Context(), &pref)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, saved)
}
