package sla

import (
	"fmt"
	"time"

	"github.com/mark3748/helpdesk-sla/internal/calendar"
)

// Kind is the outcome class of a verdict.
type Kind int

const (
	KindWithinSLA Kind = iota
	KindViolation
	KindNotApplicable
	KindConfigurationMissing
)

var kindNames = [...]string{"within_sla", "violation", "not_applicable", "configuration_missing"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown verdict kind %q", b)
}

// Verdict is the compliance judgement of one phase of one ticket.
type Verdict struct {
	Kind      Kind          `json:"kind"`
	Actual    time.Duration `json:"actual"`
	Threshold time.Duration `json:"threshold"`
	Delta     time.Duration `json:"delta"`
	Formatted string        `json:"formatted"`
}

// Evaluator converts thresholds with a standard working-day length and
// compares measured durations against them.
type Evaluator struct {
	StandardDay time.Duration
}

// NewEvaluator takes the standard day from cal, falling back to fallback (or
// FallbackDay when fallback is zero) without a usable calendar.
func NewEvaluator(cal *calendar.Calendar, fallback time.Duration) Evaluator {
	if fallback <= 0 {
		fallback = FallbackDay
	}
	day := fallback
	if cal != nil {
		if d := cal.StandardDay(); d > 0 {
			day = d
		}
	}
	return Evaluator{StandardDay: day}
}

// MissingRule formats the marker written when no rule matches a priority.
func MissingRule(priority string) string {
	return fmt.Sprintf("N/D - no SLA rule for priority %q", priority)
}

// Evaluate judges actual against the rule's threshold for phase. measured is
// false when the ticket has not reached the phase yet. A missing rule is
// reported before a missing measurement.
func (e Evaluator) Evaluate(actual time.Duration, measured bool, rule *Rule, phase Phase, priority string) Verdict {
	if rule == nil {
		return Verdict{Kind: KindConfigurationMissing, Actual: actual, Formatted: MissingRule(priority)}
	}
	threshold := rule.Threshold(phase).Duration(e.StandardDay)
	if !measured {
		return Verdict{Kind: KindNotApplicable, Threshold: threshold, Formatted: NotAvailable}
	}
	if actual <= threshold {
		return Verdict{
			Kind:      KindWithinSLA,
			Actual:    actual,
			Threshold: threshold,
			Delta:     threshold - actual,
			Formatted: WithinSLA,
		}
	}
	delta := actual - threshold
	return Verdict{
		Kind:      KindViolation,
		Actual:    actual,
		Threshold: threshold,
		Delta:     delta,
		Formatted: FormatOverage(delta),
	}
}
