package batch

import (
	"time"

	"github.com/google/uuid"

	"github.com/mark3748/helpdesk-sla/internal/sla"
)

// PhaseSummary counts verdict kinds for one phase.
type PhaseSummary struct {
	WithinSLA            int `json:"within_sla"`
	Violations           int `json:"violations"`
	NotApplicable        int `json:"not_applicable"`
	ConfigurationMissing int `json:"configuration_missing"`
}

func (s *PhaseSummary) add(v *sla.Verdict) {
	if v == nil {
		return
	}
	switch v.Kind {
	case sla.KindWithinSLA:
		s.WithinSLA++
	case sla.KindViolation:
		s.Violations++
	case sla.KindNotApplicable:
		s.NotApplicable++
	case sla.KindConfigurationMissing:
		s.ConfigurationMissing++
	}
}

type Summary struct {
	Tickets     int          `json:"tickets"`
	Errors      int          `json:"errors"`
	NoClient    int          `json:"no_client"`
	Acknowledge PhaseSummary `json:"acknowledge"`
	Resolve     PhaseSummary `json:"resolve"`
}

func Summarize(out []Outcome) Summary {
	s := Summary{Tickets: len(out)}
	for i := range out {
		o := &out[i]
		switch {
		case o.Err != nil:
			s.Errors++
		case o.TMC == MarkerNoClient:
			s.NoClient++
		default:
			s.Acknowledge.add(o.AckVerdict)
			s.Resolve.add(o.ResolveVerdict)
		}
	}
	return s
}

// Report is the archived record of one processed batch.
type Report struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Tenant    string    `json:"tenant"`
	CreatedAt time.Time `json:"created_at"`
	Summary   Summary   `json:"summary"`
	Outcomes  []Outcome `json:"outcomes"`
}

func NewReport(tenant string, out []Outcome, at time.Time) Report {
	return Report{BatchID: uuid.New(), Tenant: tenant, CreatedAt: at, Summary: Summarize(out), Outcomes: out}
}
