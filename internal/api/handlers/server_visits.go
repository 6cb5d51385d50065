package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
	"armonia.dev/intercom/internal/service"
)

// registerVisitRequest is the POST /visits payload.
type registerVisitRequest struct {
	Visitor service.VisitorInfo `json:"visitor" binding:"required"`
	UnitID  int                 `json:"unit_id" binding:"required"`
	Purpose string              `json:"purpose"`
}

// decisionRequest carries the resident making an approve/reject decision.
type decisionRequest struct {
	ResidentID int `json:"resident_id" binding:"required"`
}

// RegisterVisit handles POST /visits.
func (s *Server) RegisterVisit(c *gin.Context) {
	var req registerVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "Invalid request body").WithParams(map[string]interface{}{"detail": err.Error()}))
		return
	}

	visit, err := s.visits.RegisterVisit(c.Request.Context(), req.Visitor, req.UnitID, req.Purpose)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, visit)
}

// GetVisit handles GET /visits/:id.
func (s *Server) GetVisit(c *gin.Context) {
	visit, err := s.visits.GetVisit(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, visit)
}

// ApproveVisit handles POST /visits/:id/approve.
func (s *Server) ApproveVisit(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "resident_id is required"))
		return
	}

	visit, err := s.visits.ApproveVisit(c.Request.Context(), c.Param("id"), req.ResidentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, visit)
}

// RejectVisit handles POST /visits/:id/reject.
func (s *Server) RejectVisit(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "resident_id is required"))
		return
	}

	visit, err := s.visits.RejectVisit(c.Request.Context(), c.Param("id"), req.ResidentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, visit)
}

// RegisterEntry handles POST /visits/:id/entry.
func (s *Server) RegisterEntry(c *gin.Context) {
	visit, err := s.visits.RegisterEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, visit)
}

// RegisterExit handles POST /visits/:id/exit.
func (s *Server) RegisterExit(c *gin.Context) {
	visit, err := s.visits.RegisterExit(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, visit)
}

// CancelVisit handles POST /visits/:id/cancel.
func (s *Server) CancelVisit(c *gin.Context) {
	visit, err := s.visits.CancelVisit(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, visit)
}

// GetUnitVisits handles GET /units/:id/visits.
func (s *Server) GetUnitVisits(c *gin.Context) {
	unitID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "Unit id must be an integer"))
		return
	}

	filter := service.VisitHistoryFilter{
		Status:   models.VisitStatus(c.Query("status")),
		From:     timeQuery(c, "from"),
		To:       timeQuery(c, "to"),
		Page:     intQuery(c, "page"),
		PageSize: intQuery(c, "page_size"),
	}

	visits, err := s.visits.GetVisitHistory(c.Request.Context(), unitID, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, visits)
}

// intQuery parses a query param as int, 0 when absent or malformed.
func intQuery(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// timeQuery parses an RFC 3339 query param, nil when absent or malformed.
func timeQuery(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &v
}
