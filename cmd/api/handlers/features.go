package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
)

// Features reports capability flags clients can use to toggle features.
func Features(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"archive":                  a.Archive != nil,
			"jobs":                     a.Q != nil,
			"tenant_rate_limit":        a.EvalLimiter != nil,
			"substitute_missing_dates": a.Cfg.SLA.SubstituteMissingDates,
			"consistency_tolerance":    a.Cfg.SLA.Tolerance.String(),
		})
	}
}
