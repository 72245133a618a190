// Package batch evaluates SLA compliance for a collection of tickets.
package batch

import (
	"time"

	"github.com/mark3748/helpdesk-sla/internal/sla"
)

// Markers written in place of durations when a ticket cannot be measured.
const (
	MarkerError    = "Error"
	MarkerNoClient = "Not Available - No Client"
	MarkerNoSetup  = "Not Available - No Setup"
)

// Ticket is the input record of one ticket. It is never modified by the
// processor; computed values live in Outcome.
type Ticket struct {
	ID             string     `json:"id" binding:"required"`
	Priority       string     `json:"priority"`
	OpenedAt       time.Time  `json:"opened_at" binding:"required"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	SuspendedAt    *time.Time `json:"suspended_at,omitempty"`
	ResumedAt      *time.Time `json:"resumed_at,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// Clone returns a copy that shares no pointers with t.
func (t Ticket) Clone() Ticket {
	c := t
	c.AcknowledgedAt = cloneTime(t.AcknowledgedAt)
	c.SuspendedAt = cloneTime(t.SuspendedAt)
	c.ResumedAt = cloneTime(t.ResumedAt)
	c.ClosedAt = cloneTime(t.ClosedAt)
	return c
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAll(in []Ticket) []Ticket {
	out := make([]Ticket, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// Outcome is the computed SLA status of one ticket. Every string field is
// always set: a duration, "N/D", a verdict or one of the markers.
type Outcome struct {
	TicketID string `json:"ticket_id"`

	TMC   string `json:"tmc"`
	TMS   string `json:"tms"`
	TSOSP string `json:"tsosp"`
	TEFF  string `json:"teff"`

	AcknowledgeViolation string `json:"acknowledge_violation"`
	ResolveViolation     string `json:"resolve_violation"`

	Effective time.Duration `json:"effective"`

	Acknowledgement *sla.Result  `json:"acknowledgement,omitempty"`
	Resolution      *sla.Result  `json:"resolution,omitempty"`
	Suspension      *sla.Result  `json:"suspension,omitempty"`
	Rule            *sla.Match   `json:"rule,omitempty"`
	AckVerdict      *sla.Verdict `json:"acknowledge_verdict,omitempty"`
	ResolveVerdict  *sla.Verdict `json:"resolve_verdict,omitempty"`

	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

func failed(id string, err error) Outcome {
	return Outcome{
		TicketID:             id,
		TMC:                  MarkerError,
		TMS:                  MarkerError,
		TSOSP:                MarkerError,
		TEFF:                 MarkerError,
		AcknowledgeViolation: MarkerError,
		ResolveViolation:     MarkerError,
		Error:                err.Error(),
		Err:                  err,
	}
}

func noClient(id string) Outcome {
	return Outcome{
		TicketID:             id,
		TMC:                  MarkerNoClient,
		TMS:                  MarkerNoClient,
		TSOSP:                MarkerNoClient,
		TEFF:                 MarkerNoClient,
		AcknowledgeViolation: MarkerNoSetup,
		ResolveViolation:     MarkerNoSetup,
	}
}
