package slas

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	slapkg "github.com/mark3748/helpdesk-sla/internal/sla"
)

type ruleView struct {
	slapkg.Rule
	AcknowledgeWithin string `json:"acknowledge_within"`
	ResolveWithin     string `json:"resolve_within"`
}

// List returns the tenant's SLA rules in match order, with thresholds
// converted using the tenant's standard working day.
func List(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := a.Tenants.Snapshot(c.Request.Context(), c.Param("tenant"))
		if err != nil {
			apppkg.AbortTenant(c, err)
			return
		}
		eval := slapkg.NewEvaluator(snap.Calendar, a.Cfg.SLA.FallbackDay)
		rules := snap.Rules.Rules()
		out := make([]ruleView, 0, len(rules))
		for _, r := range rules {
			out = append(out, ruleView{
				Rule:              r,
				AcknowledgeWithin: slapkg.FormatDuration(r.Acknowledge.Duration(eval.StandardDay)),
				ResolveWithin:     slapkg.FormatDuration(r.Resolve.Duration(eval.StandardDay)),
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"tenant":       snap.Tenant,
			"standard_day": slapkg.FormatDuration(eval.StandardDay),
			"rules":        out,
		})
	}
}

// Resolve shows which rule, if any, a priority label maps to.
func Resolve(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		label := c.Query("priority")
		if label == "" {
			apppkg.AbortError(c, http.StatusBadRequest, "invalid_request", "priority is required", map[string]string{"priority": "required"})
			return
		}
		snap, err := a.Tenants.Snapshot(c.Request.Context(), c.Param("tenant"))
		if err != nil {
			apppkg.AbortTenant(c, err)
			return
		}
		m, ok := slapkg.NewResolver(snap.Rules).Resolve(label)
		if !ok {
			apppkg.AbortError(c, http.StatusNotFound, "rule_not_found", slapkg.MissingRule(label), nil)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}
