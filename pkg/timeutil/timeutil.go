// Package timeutil provides timezone utilities anchored to the school
// timezone (America/Toronto). Exam dates and daily maintenance align with the
// school day there, wherever the bot itself is hosted.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// SchoolTZ is the school timezone. America/Toronto observes DST, so this is
// loaded from the zone database; if the host has no tzdata the offset falls
// back to EST.
var SchoolTZ = loadSchoolTZ()

func loadSchoolTZ() *time.Location {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// ToSchool converts a time to the school timezone.
func ToSchool(t time.Time) time.Time {
	return t.In(SchoolTZ)
}

// FormatDateTimeStr formats as "2006-01-02 15:04" in the school timezone.
func FormatDateTimeStr(t time.Time) string {
	return ToSchool(t).Format("2006-01-02 15:04")
}

// FormatRelative renders a future time as a rough human distance
// ("in 3 days", "in 2 hours").
func FormatRelative(t time.Time) string {
	d := time.Until(t)
	switch {
	case d < 0:
		return "already passed"
	case d < time.Minute:
		return "in under a minute"
	case d < time.Hour:
		return fmt.Sprintf("in %d minutes", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("in %d days", int(d.Hours()/24))
	}
}
