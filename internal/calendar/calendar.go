// Package calendar describes a client's working pattern: per-weekday hours
// (continuous or split shifts) plus recurring holidays.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
)

// TimeOfDay is an offset from local midnight. It carries no date.
type TimeOfDay time.Duration

// EndOfDay is the exclusive upper bound of any day.
const EndOfDay = TimeOfDay(24 * time.Hour)

// Clock builds a TimeOfDay from hours and minutes.
func Clock(hour, min int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

// ClockOf returns the wall-clock time of day of t in t's location.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

// ParseTimeOfDay accepts "15:04", "15:04:05" and the special value "24:00".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if s == "24:00" || s == "24:00:00" {
		return EndOfDay, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Window is a half-open working interval [Start, End) within a day.
type Window struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Length is End-Start and may be negative for a malformed window.
func (w Window) Length() time.Duration { return time.Duration(w.End - w.Start) }

// Overlap returns the part of [from, to) that falls inside the window,
// clamped to zero.
func (w Window) Overlap(from, to TimeOfDay) time.Duration {
	lo := max(from, w.Start)
	hi := min(to, w.End)
	if hi <= lo {
		return 0
	}
	return time.Duration(hi - lo)
}

// WorkDay is the schedule of one weekday.
type WorkDay struct {
	Working        bool      `json:"working"`
	Continuous     bool      `json:"continuous"`
	DayStart       TimeOfDay `json:"day_start"`
	DayEnd         TimeOfDay `json:"day_end"`
	MorningStart   TimeOfDay `json:"morning_start"`
	MorningEnd     TimeOfDay `json:"morning_end"`
	AfternoonStart TimeOfDay `json:"afternoon_start"`
	AfternoonEnd   TimeOfDay `json:"afternoon_end"`
}

// Continuous returns a working day with a single shift.
func Continuous(start, end TimeOfDay) WorkDay {
	return WorkDay{Working: true, Continuous: true, DayStart: start, DayEnd: end}
}

// Split returns a working day with a morning and an afternoon shift.
func Split(morningStart, morningEnd, afternoonStart, afternoonEnd TimeOfDay) WorkDay {
	return WorkDay{
		Working:        true,
		MorningStart:   morningStart,
		MorningEnd:     morningEnd,
		AfternoonStart: afternoonStart,
		AfternoonEnd:   afternoonEnd,
	}
}

// Windows lists the configured working windows; nil for a non-working day.
func (d WorkDay) Windows() []Window {
	if !d.Working {
		return nil
	}
	if d.Continuous {
		return []Window{{d.DayStart, d.DayEnd}}
	}
	return []Window{{d.MorningStart, d.MorningEnd}, {d.AfternoonStart, d.AfternoonEnd}}
}

// Hours is the configured length of the day. Malformed ranges yield zero or
// negative values; callers clamp.
func (d WorkDay) Hours() time.Duration {
	var total time.Duration
	for _, w := range d.Windows() {
		total += w.Length()
	}
	return total
}

// Overlap sums the clamped overlap of [from, to) with every window of the day.
// Each window is clamped on its own, so a gap between shifts never counts.
func (d WorkDay) Overlap(from, to TimeOfDay) time.Duration {
	var total time.Duration
	for _, w := range d.Windows() {
		total += w.Overlap(from, to)
	}
	return total
}

func (d WorkDay) validate() error {
	if !d.Working {
		return nil
	}
	if d.Continuous {
		if d.DayStart >= d.DayEnd {
			return fmt.Errorf("day start %s not before end %s", d.DayStart, d.DayEnd)
		}
		return nil
	}
	if !(d.MorningStart < d.MorningEnd && d.MorningEnd <= d.AfternoonStart && d.AfternoonStart < d.AfternoonEnd) {
		return fmt.Errorf("split shift %s-%s / %s-%s out of order",
			d.MorningStart, d.MorningEnd, d.AfternoonStart, d.AfternoonEnd)
	}
	return nil
}

// Holiday recurs every year on the same day and month.
type Holiday struct {
	Day   int        `json:"day" yaml:"day"`
	Month time.Month `json:"month" yaml:"month"`
	Name  string     `json:"name" yaml:"name"`
}

// DayKind classifies a calendar date.
type DayKind int

const (
	Working DayKind = iota
	NonWorking
	HolidayDay
)

func (k DayKind) String() string {
	switch k {
	case NonWorking:
		return "non_working"
	case HolidayDay:
		return "holiday"
	}
	return "working"
}

func (k DayKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Calendar is one client's working pattern. It is built once before a batch
// and only read afterwards, so it can be shared between goroutines.
type Calendar struct {
	Client          string
	Days            [7]WorkDay // indexed by time.Weekday
	ObserveHolidays bool
	// Location, when set, is the zone calendar dates are taken in.
	Location *time.Location

	holidays []Holiday
	index    *cal.Calendar
}

// New builds a calendar. days is indexed by time.Weekday.
func New(client string, days [7]WorkDay, observeHolidays bool, holidays ...Holiday) *Calendar {
	c := &Calendar{
		Client:          client,
		Days:            days,
		ObserveHolidays: observeHolidays,
		index:           &cal.Calendar{},
	}
	for _, h := range holidays {
		if h.Month < time.January || h.Month > time.December || h.Day < 1 || h.Day > 31 {
			continue
		}
		c.holidays = append(c.holidays, h)
		c.index.AddHoliday(&cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: h.Month,
			Day:   h.Day,
			Func:  dayOfMonth,
		})
	}
	return c
}

// dayOfMonth is cal.CalcDayOfMonth without normalisation: a date that does
// not exist in year (29 February outside leap years) has no occurrence.
func dayOfMonth(h *cal.Holiday, year int) time.Time {
	d := cal.CalcDayOfMonth(h, year)
	if d.Month() != h.Month {
		return time.Time{}
	}
	return d
}

// Holidays returns the configured holidays.
func (c *Calendar) Holidays() []Holiday {
	out := make([]Holiday, len(c.holidays))
	copy(out, c.holidays)
	return out
}

// Local converts t into the calendar's location, if any.
func (c *Calendar) Local(t time.Time) time.Time {
	if c.Location != nil {
		return t.In(c.Location)
	}
	return t
}

// Day returns the schedule for date's weekday.
func (c *Calendar) Day(date time.Time) WorkDay {
	return c.Days[c.Local(date).Weekday()]
}

// HolidayName reports whether date matches a configured holiday, ignoring
// the year and whether holidays are observed.
func (c *Calendar) HolidayName(date time.Time) (string, bool) {
	if c.index == nil {
		return "", false
	}
	if actual, _, h := c.index.IsHoliday(c.Local(date)); actual && h != nil {
		return h.Name, true
	}
	return "", false
}

// Classify tells whether date is a working day, a non-working weekday or an
// observed holiday falling on an otherwise working weekday.
func (c *Calendar) Classify(date time.Time) DayKind {
	if !c.Day(date).Working {
		return NonWorking
	}
	if c.ObserveHolidays {
		if _, ok := c.HolidayName(date); ok {
			return HolidayDay
		}
	}
	return Working
}

// IsWorkingDay is false for non-working weekdays and observed holidays.
func (c *Calendar) IsWorkingDay(date time.Time) bool {
	return c.Classify(date) == Working
}

// DailyWorkingHours is the configured working length of date, zero on a
// non-working day. Malformed ranges may produce a negative value.
func (c *Calendar) DailyWorkingHours(date time.Time) time.Duration {
	if !c.IsWorkingDay(date) {
		return 0
	}
	return c.Day(date).Hours()
}

// StandardDay is the working length of the first working weekday, Monday
// through Sunday. Zero when no weekday is configured as working.
func (c *Calendar) StandardDay() time.Duration {
	for i := 0; i < 7; i++ {
		d := c.Days[(int(time.Monday)+i)%7]
		if d.Working {
			if h := d.Hours(); h > 0 {
				return h
			}
		}
	}
	return 0
}

// Validate reports every weekday whose ranges break the ordering rules.
// The calculator tolerates such days; callers usually only log the error.
func (c *Calendar) Validate() error {
	var errs []error
	for wd, d := range c.Days {
		if err := d.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", time.Weekday(wd), err))
		}
	}
	return errors.Join(errs...)
}
