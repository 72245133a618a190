package calendar

import (
	"testing"
	"time"
)

func officeCalendar(holidays ...Holiday) *Calendar {
	var days [7]WorkDay
	for wd := time.Monday; wd <= time.Friday; wd++ {
		days[wd] = Continuous(Clock(9, 0), Clock(18, 0))
	}
	return New("acme", days, true, holidays...)
}

func TestIsWorkingDay(t *testing.T) {
	cal := officeCalendar(Holiday{Day: 25, Month: time.December, Name: "Christmas"})
	cases := []struct {
		name string
		date time.Time
		want bool
	}{
		{"weekday", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"saturday", time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC), false},
		{"holiday on weekday", time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC), false},
		{"holiday other year", time.Date(2030, 12, 25, 0, 0, 0, 0, time.UTC), false},
		{"day after holiday", time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.IsWorkingDay(tt.date); got != tt.want {
				t.Fatalf("IsWorkingDay(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestHolidaysIgnoredWhenNotObserved(t *testing.T) {
	cal := officeCalendar(Holiday{Day: 25, Month: time.December})
	cal.ObserveHolidays = false
	if !cal.IsWorkingDay(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("holiday should count as working when not observed")
	}
}

func TestClassify(t *testing.T) {
	cal := officeCalendar(Holiday{Day: 6, Month: time.July}, Holiday{Day: 4, Month: time.July})
	if k := cal.Classify(time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC)); k != NonWorking {
		t.Fatalf("holiday on saturday: got %v, want NonWorking", k)
	}
	if k := cal.Classify(time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)); k != HolidayDay {
		t.Fatalf("holiday on thursday: got %v, want HolidayDay", k)
	}
}

func TestLeapDayHolidayDoesNotShiftToMarch(t *testing.T) {
	cal := officeCalendar(Holiday{Day: 29, Month: time.February, Name: "Leap"})
	if !cal.IsWorkingDay(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("1 March 2023 must stay a working day")
	}
	if cal.IsWorkingDay(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("29 February 2024 is a holiday")
	}
}

func TestHolidayName(t *testing.T) {
	cal := officeCalendar(
		Holiday{Day: 29, Month: time.February, Name: "Leap"},
		Holiday{Day: 1, Month: time.March, Name: "Primo marzo"},
		Holiday{Day: 31, Month: time.April, Name: "Never"},
	)
	tests := []struct {
		date time.Time
		want string
		ok   bool
	}{
		{time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), "Leap", true},
		{time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC), "Primo marzo", true},
		{time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), "Primo marzo", true},
		{time.Date(2023, 2, 28, 10, 0, 0, 0, time.UTC), "", false},
		{time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), "", false},
	}
	for _, tt := range tests {
		got, ok := cal.HolidayName(tt.date)
		if got != tt.want || ok != tt.ok {
			t.Errorf("HolidayName(%s) = %q, %v; want %q, %v", tt.date.Format("2006-01-02"), got, ok, tt.want, tt.ok)
		}
	}
}

func TestDailyWorkingHours(t *testing.T) {
	var days [7]WorkDay
	days[time.Monday] = Continuous(Clock(9, 0), Clock(18, 0))
	days[time.Tuesday] = Split(Clock(9, 0), Clock(13, 0), Clock(14, 0), Clock(18, 0))
	days[time.Wednesday] = Continuous(Clock(18, 0), Clock(9, 0))
	cal := New("acme", days, false)

	mon := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := cal.DailyWorkingHours(mon); got != 9*time.Hour {
		t.Fatalf("monday: got %v", got)
	}
	if got := cal.DailyWorkingHours(mon.AddDate(0, 0, 1)); got != 8*time.Hour {
		t.Fatalf("tuesday: got %v", got)
	}
	if got := cal.DailyWorkingHours(mon.AddDate(0, 0, 2)); got >= 0 {
		t.Fatalf("malformed wednesday should be negative, got %v", got)
	}
	if got := cal.DailyWorkingHours(mon.AddDate(0, 0, 5)); got != 0 {
		t.Fatalf("saturday: got %v", got)
	}
	if err := cal.Validate(); err == nil {
		t.Fatal("expected validation error for wednesday")
	}
}

func TestStandardDay(t *testing.T) {
	var days [7]WorkDay
	days[time.Sunday] = Continuous(Clock(10, 0), Clock(12, 0))
	days[time.Tuesday] = Split(Clock(8, 0), Clock(12, 0), Clock(13, 0), Clock(16, 0))
	if got := New("x", days, false).StandardDay(); got != 7*time.Hour {
		t.Fatalf("got %v, want 7h", got)
	}
	if got := New("x", [7]WorkDay{}, false).StandardDay(); got != 0 {
		t.Fatalf("empty calendar: got %v", got)
	}
}

func TestLocationDecidesCalendarDate(t *testing.T) {
	cal := officeCalendar()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	cal.Location = loc
	// Friday 20:00 UTC is Saturday in Tokyo.
	if cal.IsWorkingDay(time.Date(2024, 7, 5, 20, 0, 0, 0, time.UTC)) {
		t.Fatal("expected saturday in Tokyo")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"09:00":    Clock(9, 0),
		"13:30":    Clock(13, 30),
		"07:05:09": Clock(7, 5) + TimeOfDay(9*time.Second),
		"24:00":    EndOfDay,
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
	if _, err := ParseTimeOfDay("9am"); err == nil {
		t.Fatal("expected error")
	}
	if s := Clock(9, 5).String(); s != "09:05" {
		t.Fatalf("String() = %q", s)
	}
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
observe_holidays: true
days:
  monday: {start: "09:00", end: "18:00"}
  tuesday:
    morning_start: "09:00"
    morning_end: "13:00"
    afternoon_start: "14:00"
    afternoon_end: "18:00"
  wednesday: {working: false, start: "09:00", end: "18:00"}
holidays:
  - {day: 1, month: 5, name: Labour Day}
`)
	cal, err := ParseYAML("acme", doc)
	if err != nil {
		t.Fatal(err)
	}
	if d := cal.Days[time.Monday]; !d.Continuous || d.Hours() != 9*time.Hour {
		t.Fatalf("monday: %+v", d)
	}
	if d := cal.Days[time.Tuesday]; d.Continuous || d.Hours() != 8*time.Hour {
		t.Fatalf("tuesday: %+v", d)
	}
	if cal.Days[time.Wednesday].Working || cal.Days[time.Sunday].Working {
		t.Fatal("wednesday and sunday must be off")
	}
	if name, ok := cal.HolidayName(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)); !ok || name != "Labour Day" {
		t.Fatalf("holiday lookup: %q %v", name, ok)
	}
	if _, err := ParseYAML("acme", []byte("days: {funday: {start: \"09:00\", end: \"10:00\"}}")); err == nil {
		t.Fatal("expected unknown weekday error")
	}
}
