package birthday

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when a birthday cannot be materialized as a
// calendar date in a particular year (February 29 outside a leap year).
var ErrInvalidDate = errors.New("invalid calendar date")

// leapSearchLimit bounds the forward search for the next leap year.
// Gregorian leap years are at most eight years apart (2096 -> 2104).
const leapSearchLimit = 8

// Birthday is a month and day pair describing an annual recurring date.
// It is immutable once constructed; New rejects day values that no year
// of the given month can hold.
type Birthday struct {
	month time.Month
	day   int
}

// New builds a Birthday for the given month and day.
//
// The day is validated against the month's maximum day count. February 29
// is accepted even though it only materializes in leap years.
func New(month time.Month, day int) (Birthday, error) {
	if month < time.January || month > time.December {
		return Birthday{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}
	if day < 1 || day > maxDaysIn(month) {
		return Birthday{}, fmt.Errorf("%w: %s has no day %d", ErrInvalidDate, month, day)
	}
	return Birthday{month: month, day: day}, nil
}

// FromDate builds the Birthday that occurs on the given date.
func FromDate(d time.Time) Birthday {
	dd := DateOf(d)
	return Birthday{month: dd.Month(), day: dd.Day()}
}

// Month returns the month this birthday occurs in.
func (b Birthday) Month() time.Month { return b.month }

// Day returns the day of the month this birthday occurs on.
func (b Birthday) Day() int { return b.day }

// OccurrenceInYear materializes the birthday as a UTC midnight date in the
// given year. It fails with ErrInvalidDate for a February 29 birthday in a
// non-leap year; callers that need the nearest real occurrence should use
// NextOccurrence instead, which never surfaces this error.
func (b Birthday) OccurrenceInYear(year int) (time.Time, error) {
	if b.isLeapDay() && !isLeapYear(year) {
		return time.Time{}, fmt.Errorf("%w: no February 29 in %d", ErrInvalidDate, year)
	}
	return time.Date(year, b.month, b.day, 0, 0, 0, 0, time.UTC), nil
}

// NextOccurrence returns the earliest date on or after ref that this
// birthday occurs on, as UTC midnight. A birthday occurring on ref itself
// counts as the next occurrence.
func (b Birthday) NextOccurrence(ref time.Time) time.Time {
	refDate := DateOf(ref)
	year := refDate.Year()

	// Compare day-of-year ordinals within the reference year so that
	// cross-year wraparound is handled uniformly. time.Date normalizes
	// Feb 29 to Mar 1 in non-leap years, which keeps the ordinal
	// comparison consistent; the leap search below picks the real year.
	candidate := time.Date(year, b.month, b.day, 0, 0, 0, 0, time.UTC)
	if candidate.YearDay() < refDate.YearDay() {
		year++
	}

	if b.isLeapDay() {
		steps := 0
		for !isLeapYear(year) {
			year++
			steps++
			if steps > leapSearchLimit {
				panic(fmt.Sprintf("birthday: no leap year found within %d years of %d", leapSearchLimit, refDate.Year()))
			}
		}
	}

	next := time.Date(year, b.month, b.day, 0, 0, 0, 0, time.UTC)
	if next.Before(refDate) {
		panic(fmt.Sprintf("birthday: next occurrence %s is before reference date %s",
			next.Format(time.DateOnly), refDate.Format(time.DateOnly)))
	}
	return next
}

// IsOccurringOn reports whether the birthday occurs on the given date.
// A February 29 birthday never matches a date in a non-leap year, since
// that date does not exist there.
func (b Birthday) IsOccurringOn(d time.Time) bool {
	dd := DateOf(d)
	return dd.Month() == b.month && dd.Day() == b.day
}

// TimeUntilNext returns the duration from now until UTC midnight of the
// next occurrence. It is non-negative, and exactly zero when now is the
// midnight that starts the birthday.
func (b Birthday) TimeUntilNext(now time.Time) time.Duration {
	next := b.NextOccurrence(now)
	return next.Sub(now.UTC())
}

// String renders the birthday as "<MonthName> <day>", e.g. "January 13".
func (b Birthday) String() string {
	return fmt.Sprintf("%s %d", b.month, b.day)
}

// ISOString renders the birthday as a zero-padded "MM-DD" string.
func (b Birthday) ISOString() string {
	return fmt.Sprintf("%02d-%02d", int(b.month), b.day)
}

// DateOf truncates an instant to its UTC calendar date at midnight.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (b Birthday) isLeapDay() bool {
	return b.month == time.February && b.day == 29
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// maxDaysIn returns the month's day count in a leap year, i.e. the largest
// day the month can hold in any year.
func maxDaysIn(month time.Month) int {
	// Day 0 of the following month is the last day of this one; 2000 is a
	// leap year, so February yields 29.
	return time.Date(2000, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
