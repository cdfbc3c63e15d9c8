package birthday

import (
	"fmt"
	"time"
)

// FormatDurationISO renders a duration in the ISO-8601 style used by the
// calendar pages: P{days}DT{hours}H{minutes}M{seconds}S.
func FormatDurationISO(d time.Duration) string {
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	return fmt.Sprintf("P%dDT%dH%dM%dS", days, hours, minutes, seconds)
}

// FormatDurationRounded renders a duration rounded to its largest whole
// unit, e.g. "23d", "5h", "42m" or "30s".
func FormatDurationRounded(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int((d+12*time.Hour)/(24*time.Hour)))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int((d+30*time.Minute)/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int((d+30*time.Second)/time.Minute))
	default:
		return fmt.Sprintf("%ds", int((d+500*time.Millisecond)/time.Second))
	}
}
