package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when no calendar is configured for a client.
var ErrNotFound = errors.New("calendar not found")

type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	calendarSQL = "select observe_holidays, tz from work_calendars where client=$1"
	daysSQL     = "select dow, working, continuous, day_start_sec, day_end_sec, morning_start_sec, morning_end_sec, afternoon_start_sec, afternoon_end_sec from work_days where client=$1"
	holidaysSQL = "select day, month, name from holidays where client=$1 order by month, day"
)

// Load reads the calendar of one client. Times of day are stored as seconds
// after midnight.
func Load(ctx context.Context, db DB, client string) (*Calendar, error) {
	var observe bool
	var tz string
	if err := db.QueryRow(ctx, calendarSQL, client).Scan(&observe, &tz); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, client)
		}
		return nil, err
	}
	var loc *time.Location
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
		loc = l
	}

	var days [7]WorkDay
	rows, err := db.Query(ctx, daysSQL, client)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dow int
		var working, continuous bool
		var ds, de, ms, me, as, ae int
		if err := rows.Scan(&dow, &working, &continuous, &ds, &de, &ms, &me, &as, &ae); err != nil {
			return nil, err
		}
		if dow < 0 || dow > 6 {
			continue
		}
		days[dow] = WorkDay{
			Working:        working,
			Continuous:     continuous,
			DayStart:       seconds(ds),
			DayEnd:         seconds(de),
			MorningStart:   seconds(ms),
			MorningEnd:     seconds(me),
			AfternoonStart: seconds(as),
			AfternoonEnd:   seconds(ae),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var holidays []Holiday
	hrows, err := db.Query(ctx, holidaysSQL, client)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var h Holiday
		var month int
		if err := hrows.Scan(&h.Day, &month, &h.Name); err != nil {
			return nil, err
		}
		h.Month = time.Month(month)
		holidays = append(holidays, h)
	}
	if err := hrows.Err(); err != nil {
		return nil, err
	}

	c := New(client, days, observe, holidays...)
	c.Location = loc
	return c, nil
}

func seconds(n int) TimeOfDay { return TimeOfDay(time.Duration(n) * time.Second) }
