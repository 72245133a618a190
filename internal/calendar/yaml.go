package calendar

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Spec is the file representation of a calendar.
//
//	observe_holidays: true
//	timezone: Europe/Rome
//	days:
//	  monday: {start: "09:00", end: "18:00"}
//	  friday: {morning_start: "09:00", morning_end: "13:00", afternoon_start: "14:00", afternoon_end: "17:00"}
//	holidays:
//	  - {day: 25, month: 12, name: Christmas}
type Spec struct {
	ObserveHolidays bool               `yaml:"observe_holidays"`
	Timezone        string             `yaml:"timezone"`
	Days            map[string]DaySpec `yaml:"days"`
	Holidays        []Holiday          `yaml:"holidays"`
}

// DaySpec describes one weekday. A day listed with a start/end pair is
// continuous, one listed with morning/afternoon pairs is split. Days absent
// from the map, or with working: false, are non-working.
type DaySpec struct {
	Working        *bool     `yaml:"working"`
	Start          TimeOfDay `yaml:"start"`
	End            TimeOfDay `yaml:"end"`
	MorningStart   TimeOfDay `yaml:"morning_start"`
	MorningEnd     TimeOfDay `yaml:"morning_end"`
	AfternoonStart TimeOfDay `yaml:"afternoon_start"`
	AfternoonEnd   TimeOfDay `yaml:"afternoon_end"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func (d DaySpec) workDay() WorkDay {
	if d.Working != nil && !*d.Working {
		return WorkDay{}
	}
	if d.MorningStart != 0 || d.MorningEnd != 0 || d.AfternoonStart != 0 || d.AfternoonEnd != 0 {
		return Split(d.MorningStart, d.MorningEnd, d.AfternoonStart, d.AfternoonEnd)
	}
	return Continuous(d.Start, d.End)
}

// Build turns s into a calendar for client.
func (s Spec) Build(client string) (*Calendar, error) {
	var days [7]WorkDay
	for name, d := range s.Days {
		wd, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		days[wd] = d.workDay()
	}
	c := New(client, days, s.ObserveHolidays, s.Holidays...)
	if s.Timezone != "" {
		loc, err := time.LoadLocation(s.Timezone)
		if err != nil {
			return nil, err
		}
		c.Location = loc
	}
	return c, nil
}

// ParseYAML decodes a single calendar document.
func ParseYAML(client string, b []byte) (*Calendar, error) {
	var s Spec
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode calendar %s: %w", client, err)
	}
	return s.Build(client)
}
