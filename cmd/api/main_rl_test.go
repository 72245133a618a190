package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/cmd/api/evaluations"
	"github.com/mark3748/helpdesk-sla/internal/batch"
	"github.com/mark3748/helpdesk-sla/internal/metrics"
)

// Evaluations are throttled per tenant and rejections are counted.
func TestEvaluationRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	orig := metrics.RateLimitRejectionsTotal
	metrics.RateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Number of requests rejected by rate limiting.",
		},
		[]string{"route"},
	)
	reg.MustRegister(metrics.RateLimitRejectionsTotal)
	defer func() { metrics.RateLimitRejectionsTotal = orig }()

	env := newTestEnv(t, app.Config{EvalRateLimit: 1})
	req := evaluations.Request{Tickets: []batch.Ticket{{ID: "A", Priority: "Alta", OpenedAt: time.Now()}}}

	if rr := env.do(t, http.MethodPost, "/tenants/acme/evaluations", req); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/tenants/acme/evaluations", req); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/tenants/beta/evaluations", req); rr.Code != http.StatusOK {
		t.Fatalf("other tenants keep their budget, got %d", rr.Code)
	}
	got := testutil.ToFloat64(metrics.RateLimitRejectionsTotal.WithLabelValues("/tenants/:tenant/evaluations"))
	if got != 1 {
		t.Fatalf("expected one rejection, got %v", got)
	}
}
