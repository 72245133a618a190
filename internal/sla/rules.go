package sla

import "time"

// FallbackDay is the working-day length used to convert thresholds when no
// calendar, or a calendar without working days, is available.
const FallbackDay = 8 * time.Hour

// Threshold is an SLA target expressed in working days plus hours.
type Threshold struct {
	Days  int `json:"days" yaml:"days"`
	Hours int `json:"hours" yaml:"hours"`
}

// Duration converts the threshold using standardDay as the length of one
// working day.
func (t Threshold) Duration(standardDay time.Duration) time.Duration {
	return time.Duration(t.Days)*standardDay + time.Duration(t.Hours)*time.Hour
}

// Phase selects which threshold of a rule applies.
type Phase int

const (
	Acknowledge Phase = iota
	Resolve
)

func (p Phase) String() string {
	if p == Resolve {
		return "resolve"
	}
	return "acknowledge"
}

// Rule holds the targets for one priority.
type Rule struct {
	Priority    string    `json:"priority" yaml:"priority"`
	Acknowledge Threshold `json:"acknowledge" yaml:"acknowledge"`
	Resolve     Threshold `json:"resolve" yaml:"resolve"`
}

// Threshold returns the target for phase.
func (r Rule) Threshold(p Phase) Threshold {
	if p == Resolve {
		return r.Resolve
	}
	return r.Acknowledge
}

// RuleSet groups a tenant's rules in load order. Priorities are unique.
type RuleSet struct {
	Tenant string `json:"tenant"`
	rules  []Rule
}

// NewRuleSet builds a set, applying Add to every rule in order.
func NewRuleSet(tenant string, rules ...Rule) *RuleSet {
	s := &RuleSet{Tenant: tenant}
	for _, r := range rules {
		s.Add(r)
	}
	return s
}

// Add appends r, or replaces in place an existing rule with the same priority.
func (s *RuleSet) Add(r Rule) {
	for i := range s.rules {
		if s.rules[i].Priority == r.Priority {
			s.rules[i] = r
			return
		}
	}
	s.rules = append(s.rules, r)
}

// Rules returns a copy of the rules in load order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Lookup returns the rule whose priority is exactly p.
func (s *RuleSet) Lookup(p string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	for _, r := range s.rules {
		if r.Priority == p {
			return r, true
		}
	}
	return Rule{}, false
}
