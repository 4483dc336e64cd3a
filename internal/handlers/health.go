package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/monitoring"
)

// HealthHandler renders liveness and readiness reports.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

// NewHealthHandler returns nil when no manager is configured so callers can
// fall back to Disabled.
func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	if manager == nil {
		return nil
	}
	return &HealthHandler{manager: manager}
}

// Summary reports the combined liveness and readiness status without
// per-check detail.
func (h *HealthHandler) Summary(c *gin.Context) {
	report := h.manager.Evaluate(requestContext(c))
	c.JSON(statusFor(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checked_at": time.Now().UTC(),
	})
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateLiveness(requestContext(c)))
}

// Ready reports whether dependencies are ready to serve traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateReadiness(requestContext(c)))
}

// DisabledHealth answers health routes when monitoring is switched off.
func DisabledHealth(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	c.JSON(statusFor(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checks":     report.Checks,
		"checked_at": time.Now().UTC(),
	})
}

func statusFor(report monitoring.HealthReport) int {
	if !report.Success {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
