package calendars

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/internal/calendar"
	"github.com/mark3748/helpdesk-sla/internal/sla"
)

const maxRangeDays = 366

type Day struct {
	Weekday string            `json:"weekday"`
	Working bool              `json:"working"`
	Windows []calendar.Window `json:"windows,omitempty"`
	Hours   string            `json:"hours"`
}

type Date struct {
	Date    string           `json:"date"`
	Kind    calendar.DayKind `json:"kind"`
	Holiday string           `json:"holiday,omitempty"`
	Hours   string           `json:"hours"`
}

type Response struct {
	Tenant          string             `json:"tenant"`
	ObserveHolidays bool               `json:"observe_holidays"`
	Timezone        string             `json:"timezone,omitempty"`
	StandardDay     string             `json:"standard_day"`
	Days            []Day              `json:"days"`
	Holidays        []calendar.Holiday `json:"holidays"`
	Dates           []Date             `json:"dates,omitempty"`
}

type rangeQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// Get returns the tenant's weekly schedule and holidays. With from and to
// (YYYY-MM-DD) it also classifies every date in the range.
func Get(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q rangeQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			app.AbortBind(c, err)
			return
		}
		if (q.From == "") != (q.To == "") {
			app.AbortError(c, http.StatusBadRequest, "invalid_range", "from and to must be given together", nil)
			return
		}
		snap, err := a.Tenants.Snapshot(c.Request.Context(), c.Param("tenant"))
		if err != nil {
			app.AbortTenant(c, err)
			return
		}
		cal := snap.Calendar
		if cal == nil {
			app.AbortError(c, http.StatusNotFound, "calendar_not_found", "no calendar configured for tenant", nil)
			return
		}

		resp := Response{
			Tenant:          snap.Tenant,
			ObserveHolidays: cal.ObserveHolidays,
			StandardDay:     sla.FormatDuration(cal.StandardDay()),
			Holidays:        cal.Holidays(),
		}
		if cal.Location != nil {
			resp.Timezone = cal.Location.String()
		}
		for i := 0; i < 7; i++ {
			wd := time.Weekday((int(time.Monday) + i) % 7)
			d := cal.Days[wd]
			resp.Days = append(resp.Days, Day{
				Weekday: wd.String(),
				Working: d.Working,
				Windows: d.Windows(),
				Hours:   sla.FormatDuration(max(0, d.Hours())),
			})
		}

		if q.From != "" {
			from, _ := time.Parse(time.DateOnly, q.From)
			to, _ := time.Parse(time.DateOnly, q.To)
			if to.Before(from) || to.Sub(from) > maxRangeDays*24*time.Hour {
				app.AbortError(c, http.StatusBadRequest, "invalid_range", "range must be ordered and at most a year", nil)
				return
			}
			for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
				// Noon keeps the date stable when the calendar has a location.
				noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, locationOf(cal))
				entry := Date{
					Date:  d.Format(time.DateOnly),
					Kind:  cal.Classify(noon),
					Hours: sla.FormatDuration(max(0, cal.DailyWorkingHours(noon))),
				}
				if name, ok := cal.HolidayName(noon); ok {
					entry.Holiday = name
				}
				resp.Dates = append(resp.Dates, entry)
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func locationOf(cal *calendar.Calendar) *time.Location {
	if cal.Location != nil {
		return cal.Location
	}
	return time.UTC
}
