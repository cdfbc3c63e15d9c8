package birthday

import (
	"sort"
	"time"
)

// DefaultWindowDays is the size of the "upcoming" window used when
// categorizing a collection.
const DefaultWindowDays = 30

// Collection is a list of characters with sort and categorize operations.
type Collection []Character

// Categories is a projection of a collection relative to a reference
// instant: birthdays occurring today, within the upcoming window, and
// beyond it. It is computed fresh per request and never stored.
type Categories struct {
	Today        Collection
	WithinWindow Collection
	Future       Collection
}

// SortByUpcoming sorts the collection in place, soonest birthday first.
// Characters with identical remaining time keep their relative order.
func (c Collection) SortByUpcoming(now time.Time) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Birthday.TimeUntilNext(now) < c[j].Birthday.TimeUntilNext(now)
	})
}

// Categorize splits the collection into today / within-window / future
// buckets relative to now. The window end is inclusive: a birthday falling
// exactly windowDays ahead still counts as upcoming. Every comparison uses
// the same reference date derived once from now, so a request spanning
// midnight cannot see inconsistent boundaries. Input order is preserved
// within each bucket; if windowDays is not positive, DefaultWindowDays is
// used.
func (c Collection) Categorize(now time.Time, windowDays int) Categories {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	refDate := DateOf(now)
	windowEnd := refDate.AddDate(0, 0, windowDays)

	var cats Categories
	for _, ch := range c {
		switch {
		case ch.Birthday.IsOccurringOn(refDate):
			cats.Today = append(cats.Today, ch)
		case !ch.Birthday.NextOccurrence(refDate).After(windowEnd):
			cats.WithinWindow = append(cats.WithinWindow, ch)
		default:
			cats.Future = append(cats.Future, ch)
		}
	}
	return cats
}
