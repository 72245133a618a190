package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mark3748/helpdesk-sla/internal/calendar"
	"github.com/mark3748/helpdesk-sla/internal/metrics"
	"github.com/mark3748/helpdesk-sla/internal/sla"
)

// Resolver maps a ticket's priority label to a rule.
type Resolver interface {
	Resolve(label string) (sla.Match, bool)
}

// PanicError wraps a panic recovered while evaluating one ticket.
type PanicError struct {
	TicketID string
	Value    any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("ticket %s: evaluation panicked: %v", e.TicketID, e.Value)
}

// Config is the read-only input shared by every ticket of a batch.
type Config struct {
	Tenant   string
	Calendar *calendar.Calendar
	Rules    *sla.RuleSet
	// Resolver overrides the default resolver built from Rules.
	Resolver Resolver
	// Workers bounds parallel evaluations; zero means GOMAXPROCS.
	Workers int
	// Tolerance of the phase/total consistency check.
	Tolerance time.Duration
	// FallbackDay converts thresholds when the calendar has no working day.
	FallbackDay time.Duration
	// SubstituteMissingDates evaluates open phases as if they ended now.
	SubstituteMissingDates bool
	Now                    func() time.Time
}

// Processor evaluates tickets against one tenant's calendar and rules.
type Processor struct {
	cfg      Config
	calc     sla.Calculator
	eval     sla.Evaluator
	resolver Resolver
}

// New prepares a processor. The calendar and rule set must not change while
// it is in use.
func New(cfg Config) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	p := &Processor{
		cfg:      cfg,
		calc:     sla.Calculator{Tolerance: cfg.Tolerance},
		eval:     sla.NewEvaluator(cfg.Calendar, cfg.FallbackDay),
		resolver: cfg.Resolver,
	}
	if p.resolver == nil {
		p.resolver = sla.NewResolver(cfg.Rules)
	}
	return p
}

// Process evaluates every ticket and returns one outcome per ticket in input
// order. A failing ticket is marked with MarkerError and does not stop the
// others. If ctx ends early the tickets not yet started are marked with the
// context error, which is also returned. tickets are never modified.
func (p *Processor) Process(ctx context.Context, tickets []Ticket) ([]Outcome, error) {
	return p.ProcessBatch(ctx, NewBatch(tickets))
}

// ProcessBatch evaluates the tickets of b like Process. With
// SubstituteMissingDates set, and b not already substituted, missing dates are
// filled with Config.Now for the evaluation and restored before returning; a
// failed restore is reported as ErrRestoreFailed alongside the outcomes.
func (p *Processor) ProcessBatch(ctx context.Context, b *Batch) (out []Outcome, err error) {
	started := time.Now()
	logger := loggerFrom(ctx)

	if p.cfg.SubstituteMissingDates && !b.Substituted() {
		if err := b.SetSubstituteMissingDates(true, p.cfg.Now()); err != nil {
			return nil, err
		}
		defer func() {
			if rerr := b.SetSubstituteMissingDates(false, p.cfg.Now()); rerr != nil {
				logger.Error().Err(rerr).Str("tenant", p.cfg.Tenant).Msg("restore original ticket dates")
				err = errors.Join(err, rerr)
			}
		}()
	}
	input := b.Tickets()
	out = make([]Outcome, len(input))

	if p.cfg.Calendar == nil {
		for i, t := range input {
			out[i] = noClient(t.ID)
		}
		logger.Warn().Str("tenant", p.cfg.Tenant).Int("tickets", len(input)).Msg("no calendar configured")
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i := range input {
		if err := ctx.Err(); err != nil {
			out[i] = failed(input[i].ID, err)
			continue
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = failed(input[i].ID, err)
				return nil
			}
			out[i] = p.evaluateSafe(input[i], logger)
			return nil
		})
	}
	_ = g.Wait()

	s := Summarize(out)
	record(p.cfg.Tenant, out, time.Since(started))
	logger.Info().
		Str("tenant", p.cfg.Tenant).
		Int("tickets", s.Tickets).
		Int("errors", s.Errors).
		Dur("duration", time.Since(started)).
		Msg("sla batch evaluated")
	return out, ctx.Err()
}

func (p *Processor) evaluateSafe(t Ticket, logger *zerolog.Logger) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := &PanicError{TicketID: t.ID, Value: r}
			logger.Error().Str("ticket", t.ID).Err(err).Msg("ticket evaluation failed")
			o = failed(t.ID, err)
		}
	}()
	return p.Evaluate(t)
}

// Evaluate computes the outcome of a single ticket without recovering panics.
func (p *Processor) Evaluate(t Ticket) Outcome {
	o := Outcome{TicketID: t.ID}

	var rule *sla.Rule
	if m, ok := p.resolver.Resolve(t.Priority); ok {
		o.Rule = &m
		rule = &m.Rule
	}

	ack, ackOK := p.measure(t.OpenedAt, t.AcknowledgedAt)
	o.Acknowledgement = ack
	o.TMC = display(ack)

	res, resOK := p.measure(t.OpenedAt, t.ClosedAt)
	o.Resolution = res
	o.TMS = display(res)

	var suspended time.Duration
	if t.SuspendedAt == nil {
		o.TSOSP = sla.FormatDuration(0)
	} else {
		susp, ok := p.measure(*t.SuspendedAt, t.ResumedAt)
		o.Suspension = susp
		o.TSOSP = display(susp)
		if ok {
			suspended = susp.Total
		}
	}

	if resOK {
		o.Effective = max(0, res.Total-suspended)
		o.TEFF = sla.FormatDuration(o.Effective)
	} else {
		o.TEFF = sla.NotAvailable
	}

	var ackTotal time.Duration
	if ackOK {
		ackTotal = ack.Total
	}
	av := p.eval.Evaluate(ackTotal, ackOK, rule, sla.Acknowledge, t.Priority)
	rv := p.eval.Evaluate(o.Effective, resOK, rule, sla.Resolve, t.Priority)
	o.AckVerdict, o.ResolveVerdict = &av, &rv
	o.AcknowledgeViolation = av.Formatted
	o.ResolveViolation = rv.Formatted
	return o
}

// measure returns nil when the phase has no end yet.
func (p *Processor) measure(start time.Time, end *time.Time) (*sla.Result, bool) {
	if start.IsZero() || end == nil {
		return nil, false
	}
	r := p.calc.Elapsed(start, *end, p.cfg.Calendar)
	return &r, r.Valid
}

func display(r *sla.Result) string {
	if r == nil {
		return sla.NotAvailable
	}
	return r.Formatted()
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

func record(tenant string, out []Outcome, d time.Duration) {
	metrics.BatchDuration.WithLabelValues(tenant).Observe(d.Seconds())
	for _, o := range out {
		if o.Err != nil {
			metrics.TicketErrors.Inc()
			continue
		}
		if o.AckVerdict != nil {
			metrics.Verdicts.WithLabelValues(sla.Acknowledge.String(), o.AckVerdict.Kind.String()).Inc()
		}
		if o.ResolveVerdict != nil {
			metrics.Verdicts.WithLabelValues(sla.Resolve.String(), o.ResolveVerdict.Kind.String()).Inc()
		}
		for _, r := range []*sla.Result{o.Acknowledgement, o.Resolution, o.Suspension} {
			if r != nil && r.Valid && !r.Consistent {
				metrics.ConsistencyMismatches.Inc()
			}
		}
	}
}
