package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches all intercom endpoints under /api/v1 plus the
// health probes.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)

	v1 := r.Group("/api/v1")

	visits := v1.Group("/visits")
	visits.POST("", s.RegisterVisit)
	visits.GET("/:id", s.GetVisit)
	visits.POST("/:id/approve", s.ApproveVisit)
	visits.POST("/:id/reject", s.RejectVisit)
	visits.POST("/:id/entry", s.RegisterEntry)
	visits.POST("/:id/exit", s.RegisterExit)
	visits.POST("/:id/cancel", s.CancelVisit)

	v1.GET("/units/:id/visits", s.GetUnitVisits)

	v1.POST("/webhooks/:channel", s.ReceiveWebhook)

	v1.GET("/residents/:id/preferences", s.GetPreferences)
	v1.PUT("/residents/:id/preferences", s.UpdatePreferences)

	v1.GET("/settings/intercom", s.GetSettings)
	v1.PUT("/settings/intercom", s.UpdateSettings)
	v1.GET("/stats/intercom", s.GetStats)
}
