// Package ics renders a character collection as an iCalendar document of
// annually recurring all-day birthday events.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"bdaycal/internal/birthday"
)

const productID = "-//bdaycal//bdaycal//EN"

// BuildCalendar returns an ICS document with one all-day event per
// character, placed on the next occurrence of their birthday relative to
// now and repeating yearly via RRULE. Consuming calendars handle the
// February 29 skip in non-leap years themselves (RFC 5545 recurrence
// semantics).
func BuildCalendar(chars birthday.Collection, now time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	for _, ch := range chars {
		next := ch.Birthday.NextOccurrence(now)

		rule, err := yearlyRule(ch.Birthday)
		if err != nil {
			return "", fmt.Errorf("building recurrence for %q: %w", ch.Name, err)
		}

		uid, err := uuid.NewV7()
		if err != nil {
			return "", err
		}

		event := cal.AddEvent(uid.String())
		event.SetDtStampTime(now.UTC())
		event.SetAllDayStartAt(next)
		event.SetAllDayEndAt(next.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s's Birthday", ch.Name))
		event.AddRrule(rule)
		if ch.URL != "" {
			event.SetURL(ch.URL)
		}
	}

	return cal.Serialize(), nil
}

// yearlyRule builds the RRULE value for a birthday, pinned to its month
// and day so the event repeats on the calendar date rather than on the
// first instance's offset.
func yearlyRule(b birthday.Birthday) (string, error) {
	opt := rrule.ROption{
		Freq:       rrule.YEARLY,
		Bymonth:    []int{int(b.Month())},
		Bymonthday: []int{b.Day()},
	}
	// Validate the option set before serializing it.
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}
