package sla

import (
	"fmt"
	"time"
)

// Display markers shared with the ticket grid and exporters.
const (
	WithinSLA    = "Entro SLA"
	NotAvailable = "N/D"
)

// FormatDuration renders d as HH:MM:SS rounded to the minute: more than 30
// seconds rounds the minute up, 30 or less truncates. Hours are not wrapped
// at 24.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int64(d / time.Second)
	mins := secs / 60
	if secs%60 > 30 {
		mins++
	}
	return fmt.Sprintf("%s%02d:%02d:00", sign, mins/60, mins%60)
}

// FormatOverage renders a violation delta as "+HH:MM:SS".
func FormatOverage(d time.Duration) string {
	return "+" + FormatDuration(d)
}
