package birthday

import (
	"testing"
	"time"
)

func char(t *testing.T, name string, m time.Month, d int) Character {
	t.Helper()
	return Character{Name: name, Birthday: mustBirthday(t, m, d)}
}

func names(c Collection) []string {
	out := make([]string, len(c))
	for i, ch := range c {
		out[i] = ch.Name
	}
	return out
}

func equalNames(got Collection, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, n := range names(got) {
		if n != want[i] {
			return false
		}
	}
	return true
}

func TestSortByUpcoming(t *testing.T) {
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	c := Collection{
		char(t, "december", time.December, 25),
		char(t, "june", time.June, 10),
		char(t, "may", time.May, 1), // already passed: wraps to next year
		char(t, "tomorrow", time.June, 2),
	}

	c.SortByUpcoming(now)

	if !equalNames(c, "tomorrow", "june", "december", "may") {
		t.Fatalf("order = %v", names(c))
	}
}

func TestSortByUpcomingStableOnTies(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	c := Collection{
		char(t, "first", time.June, 10),
		char(t, "second", time.June, 10),
		char(t, "third", time.June, 10),
	}

	c.SortByUpcoming(now)

	if !equalNames(c, "first", "second", "third") {
		t.Fatalf("tie order not preserved: %v", names(c))
	}
}

func TestCategorize(t *testing.T) {
	now := time.Date(2024, time.June, 1, 15, 30, 0, 0, time.UTC)
	c := Collection{
		char(t, "today", time.June, 1),
		char(t, "in-window", time.June, 20),
		char(t, "boundary", time.July, 1), // exactly 30 days out: inclusive
		char(t, "beyond", time.July, 2),
		char(t, "wrapped", time.May, 31), // next May is far in the future
	}

	cats := c.Categorize(now, 30)

	if !equalNames(cats.Today, "today") {
		t.Errorf("Today = %v", names(cats.Today))
	}
	if !equalNames(cats.WithinWindow, "in-window", "boundary") {
		t.Errorf("WithinWindow = %v", names(cats.WithinWindow))
	}
	if !equalNames(cats.Future, "beyond", "wrapped") {
		t.Errorf("Future = %v", names(cats.Future))
	}
}

// Every input character lands in exactly one bucket.
func TestCategorizeExhaustiveAndDisjoint(t *testing.T) {
	now := time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC)
	var c Collection
	for m := time.January; m <= time.December; m++ {
		c = append(c, char(t, m.String(), m, 15))
	}
	c = append(c, char(t, "leap", time.February, 29))

	cats := c.Categorize(now, 30)

	total := len(cats.Today) + len(cats.WithinWindow) + len(cats.Future)
	if total != len(c) {
		t.Fatalf("bucket sizes sum to %d, want %d", total, len(c))
	}
	seen := make(map[string]int)
	for _, bucket := range []Collection{cats.Today, cats.WithinWindow, cats.Future} {
		for _, ch := range bucket {
			seen[ch.Name]++
		}
	}
	for name, n := range seen {
		if n != 1 {
			t.Errorf("%s appears %d times", name, n)
		}
	}
}

// Sorting then categorizing leaves each bucket internally ordered by
// ascending remaining time.
func TestSortThenCategorizeKeepsBucketOrder(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	c := Collection{
		char(t, "a", time.November, 5),
		char(t, "b", time.June, 25),
		char(t, "c", time.June, 3),
		char(t, "d", time.August, 1),
		char(t, "e", time.June, 1),
	}

	c.SortByUpcoming(now)
	cats := c.Categorize(now, 30)

	for _, bucket := range []Collection{cats.Today, cats.WithinWindow, cats.Future} {
		for i := 1; i < len(bucket); i++ {
			prev := bucket[i-1].Birthday.TimeUntilNext(now)
			cur := bucket[i].Birthday.TimeUntilNext(now)
			if cur < prev {
				t.Fatalf("bucket out of order: %v", names(bucket))
			}
		}
	}
}

func TestCategorizeDefaultWindow(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	c := Collection{char(t, "boundary", time.July, 1)}

	cats := c.Categorize(now, 0)

	if !equalNames(cats.WithinWindow, "boundary") {
		t.Fatalf("default window should be %d days", DefaultWindowDays)
	}
}
