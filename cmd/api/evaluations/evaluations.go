package evaluations

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/internal/batch"
	"github.com/mark3748/helpdesk-sla/internal/jobs"
	"github.com/mark3748/helpdesk-sla/internal/s3"
)

type Request struct {
	Tickets []batch.Ticket `json:"tickets" binding:"required,min=1,max=10000,dive"`
	// Overrides SLA_SUBSTITUTE_MISSING_DATES for this request.
	SubstituteMissingDates *bool `json:"substitute_missing_dates"`
	// Reference time for substitution; defaults to the server clock.
	Now *time.Time `json:"now"`
}

type Response struct {
	BatchID    uuid.UUID       `json:"batch_id"`
	Tenant     string          `json:"tenant"`
	Summary    batch.Summary   `json:"summary"`
	Outcomes   []batch.Outcome `json:"outcomes"`
	ArchiveKey string          `json:"archive_key,omitempty"`
}

// Create evaluates the tickets in the request body against the tenant's
// calendar and rules. Outcomes are returned in request order.
func Create(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in Request
		if err := c.ShouldBindJSON(&in); err != nil {
			app.AbortBind(c, err)
			return
		}
		ctx := c.Request.Context()
		snap, err := a.Tenants.Snapshot(ctx, c.Param("tenant"))
		if err != nil {
			app.AbortTenant(c, err)
			return
		}
		cfg := a.Cfg.SLA.BatchConfig(snap)
		if in.SubstituteMissingDates != nil {
			cfg.SubstituteMissingDates = *in.SubstituteMissingDates
		}
		if in.Now != nil {
			now := *in.Now
			cfg.Now = func() time.Time { return now }
		}

		out, err := batch.New(cfg).Process(ctx, in.Tickets)
		if err != nil {
			app.AbortError(c, http.StatusServiceUnavailable, "evaluation_cancelled", err.Error(), nil)
			return
		}
		report := batch.NewReport(snap.Tenant, out, time.Now().UTC())
		resp := Response{BatchID: report.BatchID, Tenant: snap.Tenant, Summary: report.Summary, Outcomes: out}
		if a.Archive != nil {
			key := s3.ObjectKey(snap.Tenant, report.BatchID)
			if err := a.Archive.PutJSON(ctx, key, report); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("archive batch")
			} else {
				resp.ArchiveKey = key
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

type JobRequest struct {
	SubstituteMissingDates *bool `json:"substitute_missing_dates"`
}

// Enqueue schedules a tenant-wide evaluation on the worker.
func Enqueue(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in JobRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&in); err != nil {
				app.AbortBind(c, err)
				return
			}
		}
		ctx := c.Request.Context()
		snap, err := a.Tenants.Snapshot(ctx, c.Param("tenant"))
		if err != nil {
			app.AbortTenant(c, err)
			return
		}
		job := jobs.EvaluateTenant{
			JobID:                  uuid.New(),
			Tenant:                 snap.Tenant,
			SubstituteMissingDates: in.SubstituteMissingDates,
			RequestedBy:            c.GetString("user_id"),
		}
		qctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := jobs.Enqueue(qctx, a.Q, jobs.TypeEvaluateTenant, job); err != nil {
			app.AbortError(c, http.StatusServiceUnavailable, "queue_unavailable", err.Error(), nil)
			return
		}
		log.Ctx(ctx).Info().Str("tenant", snap.Tenant).Str("job_id", job.JobID.String()).Msg("evaluation enqueued")
		c.JSON(http.StatusAccepted, gin.H{"job_id": job.JobID, "tenant": snap.Tenant})
	}
}
