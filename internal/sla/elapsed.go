// Package sla measures working time between ticket timestamps and judges the
// result against per-priority SLA rules.
package sla

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3748/helpdesk-sla/internal/calendar"
)

var (
	ErrInvalidInterval = errors.New("end must be after start")
	ErrNoCalendar      = errors.New("no client calendar configured")
)

// DefaultTolerance bounds the gap allowed between the phase sum and the total.
const DefaultTolerance = time.Minute

// Result is the working time elapsed between two timestamps, split into the
// partial first day, the full middle days and the partial last day.
type Result struct {
	Start                  time.Time     `json:"start"`
	End                    time.Time     `json:"end"`
	FirstDay               time.Duration `json:"first_day"`
	MiddleDays             time.Duration `json:"middle_days"`
	LastDay                time.Duration `json:"last_day"`
	MiddleDayCount         int           `json:"middle_day_count"`
	Total                  time.Duration `json:"total"`
	ExcludedNonWorkingDays int           `json:"excluded_non_working_days"`
	ExcludedHolidays       int           `json:"excluded_holidays"`
	CalendarDays           int           `json:"calendar_days"`
	Valid                  bool          `json:"valid"`
	Error                  string        `json:"error,omitempty"`
	Tolerance              time.Duration `json:"tolerance"`
	// Consistent and Diagnostic are filled by Calculator.Elapsed from
	// CheckConsistency and Describe.
	Consistent bool   `json:"consistent"`
	Diagnostic string `json:"diagnostic"`

	Err error `json:"-"`
}

func (r *Result) fail(err error) {
	r.Valid = false
	r.Err = err
	r.Error = err.Error()
	r.Diagnostic = r.Describe()
}

// PhaseSum is FirstDay + MiddleDays + LastDay.
func (r Result) PhaseSum() time.Duration { return r.FirstDay + r.MiddleDays + r.LastDay }

// CheckConsistency reports whether the phase sum matches Total within
// Tolerance. A mismatch never invalidates the result.
func (r Result) CheckConsistency() bool {
	diff := r.PhaseSum() - r.Total
	if diff < 0 {
		diff = -diff
	}
	return diff <= r.Tolerance
}

// Formatted renders Total as HH:MM:SS, or "N/D" for an invalid result.
func (r Result) Formatted() string {
	if !r.Valid {
		return NotAvailable
	}
	return FormatDuration(r.Total)
}

// Describe renders the breakdown shown in the detail view.
func (r Result) Describe() string {
	if !r.Valid {
		return "invalid: " + r.Error
	}
	var b strings.Builder
	fmt.Fprintf(&b, "first day %s + %d middle days %s + last day %s = %s",
		FormatDuration(r.FirstDay), r.MiddleDayCount, FormatDuration(r.MiddleDays),
		FormatDuration(r.LastDay), FormatDuration(r.Total))
	fmt.Fprintf(&b, "; %d calendar days, %d non-working, %d holidays",
		r.CalendarDays, r.ExcludedNonWorkingDays, r.ExcludedHolidays)
	if !r.CheckConsistency() {
		fmt.Fprintf(&b, "; MISMATCH phases %s vs total %s (tolerance %s)",
			FormatDuration(r.PhaseSum()), FormatDuration(r.Total), r.Tolerance)
	}
	return b.String()
}

// Calculator computes working time against a calendar.
type Calculator struct {
	// Tolerance for Result.CheckConsistency; zero means DefaultTolerance.
	Tolerance time.Duration
}

// Elapsed uses a Calculator with the default tolerance.
func Elapsed(start, end time.Time, cal *calendar.Calendar) Result {
	return Calculator{}.Elapsed(start, end, cal)
}

// Elapsed measures the working time in [start, end). The first and last
// calendar days contribute only the part of their windows inside the
// interval, every day in between contributes its full working length.
// Total is computed by a separate day-by-day sweep so that CheckConsistency
// can cross-check the two derivations.
func (c Calculator) Elapsed(start, end time.Time, cal *calendar.Calendar) Result {
	res := Result{Start: start, End: end, Tolerance: c.Tolerance}
	if res.Tolerance <= 0 {
		res.Tolerance = DefaultTolerance
	}
	if cal == nil {
		res.fail(ErrNoCalendar)
		return res
	}
	if !end.After(start) {
		res.fail(ErrInvalidInterval)
		return res
	}

	s := cal.Local(start)
	e := cal.Local(end).In(s.Location())
	span := daysBetween(s, e)
	res.CalendarDays = span + 1
	from, to := calendar.ClockOf(s), calendar.ClockOf(e)

	if cal.IsWorkingDay(s) {
		upper := calendar.EndOfDay
		if span == 0 {
			upper = to
		}
		res.FirstDay = cal.Day(s).Overlap(from, upper)
	}

	if span > 0 {
		for i := 1; i < span; i++ {
			d := dayAt(s, i)
			switch cal.Classify(d) {
			case calendar.Working:
				res.MiddleDays += max(0, cal.DailyWorkingHours(d))
				res.MiddleDayCount++
			case calendar.HolidayDay:
				res.ExcludedHolidays++
			default:
				res.ExcludedNonWorkingDays++
			}
		}
		if cal.IsWorkingDay(e) {
			res.LastDay = cal.Day(e).Overlap(0, to)
		}
	}

	res.Total = sweep(cal, s, span, from, to)
	res.Valid = true
	res.Consistent = res.CheckConsistency()
	res.Diagnostic = res.Describe()
	return res
}

// sweep walks every calendar day of the span and clamps each one against its
// working windows.
func sweep(cal *calendar.Calendar, s time.Time, span int, from, to calendar.TimeOfDay) time.Duration {
	var total time.Duration
	for i := 0; i <= span; i++ {
		d := dayAt(s, i)
		if !cal.IsWorkingDay(d) {
			continue
		}
		lo, hi := calendar.TimeOfDay(0), calendar.EndOfDay
		if i == 0 {
			lo = from
		}
		if i == span {
			hi = to
		}
		total += cal.Day(d).Overlap(lo, hi)
	}
	return total
}

// dayAt returns noon of the i-th calendar day after t's date. Noon keeps the
// date stable across DST transitions.
func dayAt(t time.Time, i int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+i, 12, 0, 0, 0, t.Location())
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / (24 * time.Hour))
}
