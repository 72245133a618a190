package sla

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var markup = bluemonday.StrictPolicy()

// Label is a priority string prepared for matching.
type Label struct {
	Raw string
	// Folded is the trimmed, case-folded text with markup removed.
	Folded string
	// Clean is Folded with symbols and emoji replaced by spaces and runs of
	// whitespace collapsed.
	Clean  string
	Tokens []string
}

// PrepareLabel normalises raw for comparison.
func PrepareLabel(raw string) Label {
	s := html.UnescapeString(markup.Sanitize(raw))
	s = norm.NFC.String(s)
	// Casers keep state and must not be shared between goroutines.
	s = strings.TrimSpace(cases.Fold().String(s))
	clean := strings.Join(strings.FieldsFunc(s, isDecoration), " ")
	return Label{Raw: raw, Folded: s, Clean: clean, Tokens: strings.Fields(clean)}
}

func isDecoration(r rune) bool {
	if unicode.Is(unicode.Variation_Selector, r) {
		return true
	}
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r))
}

// Strategy is one matching rule of the resolver.
type Strategy struct {
	Name  string
	Match func(input, priority Label) bool
}

// DefaultStrategies are tried in order; the first strategy that matches any
// rule wins.
var DefaultStrategies = []Strategy{
	{Name: "exact", Match: matchExact},
	{Name: "contains", Match: matchContains},
	{Name: "token", Match: matchToken},
}

func matchExact(in, p Label) bool {
	return p.Clean != "" && (in.Folded == p.Folded || in.Clean == p.Clean)
}

func matchContains(in, p Label) bool {
	if in.Clean == "" || p.Clean == "" {
		return false
	}
	return strings.Contains(in.Clean, p.Clean) || strings.Contains(p.Clean, in.Clean)
}

// matchToken compares every input token with the priority, in both
// directions. Any token counts, so "Priority 1" reaches "P1".
func matchToken(in, p Label) bool {
	if p.Clean == "" {
		return false
	}
	for _, tok := range in.Tokens {
		if tok == p.Clean || strings.Contains(p.Clean, tok) || strings.Contains(tok, p.Clean) {
			return true
		}
	}
	return false
}

// Match is a resolved rule and the strategy that found it.
type Match struct {
	Rule     Rule   `json:"rule"`
	Strategy string `json:"strategy"`
}

// Resolver maps free-text priority labels to rules. It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	rules      []Rule
	prepared   []Label
	strategies []Strategy
}

// NewResolver prepares the rules of set. With no strategies given the
// DefaultStrategies apply.
func NewResolver(set *RuleSet, strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	r := &Resolver{rules: set.Rules(), strategies: strategies}
	r.prepared = make([]Label, len(r.rules))
	for i, rule := range r.rules {
		r.prepared[i] = PrepareLabel(rule.Priority)
	}
	return r
}

// Resolve returns the first rule matched by the strategies in precedence
// order, rules being scanned in load order within each strategy.
func (r *Resolver) Resolve(label string) (Match, bool) {
	in := PrepareLabel(label)
	for _, st := range r.strategies {
		for i := range r.rules {
			if st.Match(in, r.prepared[i]) {
				return Match{Rule: r.rules[i], Strategy: st.Name}, true
			}
		}
	}
	return Match{}, false
}
