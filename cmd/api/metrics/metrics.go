package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
)

const slaSQL = `select count(*),
    count(*) filter (where acknowledge_violation like '+%'),
    count(*) filter (where resolve_violation like '+%'),
    count(*) filter (where error is not null),
    max(computed_at)
from ticket_sla_results where tenant=$1`

type SLAStats struct {
	Tenant                string     `json:"tenant"`
	Tickets               int        `json:"tickets"`
	AcknowledgeViolations int        `json:"acknowledge_violations"`
	ResolveViolations     int        `json:"resolve_violations"`
	Errors                int        `json:"errors"`
	ComputedAt            *time.Time `json:"computed_at,omitempty"`
}

// SLA summarises the outcomes the worker last stored for the tenant.
func SLA(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.DB == nil {
			app.AbortError(c, http.StatusServiceUnavailable, "db_unavailable", "stored results need a database", nil)
			return
		}
		s := SLAStats{Tenant: c.Param("tenant")}
		err := a.DB.QueryRow(c.Request.Context(), slaSQL, s.Tenant).
			Scan(&s.Tickets, &s.AcknowledgeViolations, &s.ResolveViolations, &s.Errors, &s.ComputedAt)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			app.AbortError(c, http.StatusInternalServerError, "db_error", err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
