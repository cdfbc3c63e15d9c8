package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bdaycal/internal/birthday"
)

var getCmd = &cobra.Command{
	Use:   "get <username>",
	Short: "Print upcoming birthdays for an AniList user",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	username := args[0]

	fmt.Printf("Fetching favorite character birthdays for username %s\n", username)

	chars, err := newAniListClient(cfg).FavoriteBirthdays(cmd.Context(), username)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	chars.SortByUpcoming(now)
	cats := chars.Categorize(now, cfg.WindowDays)

	if len(cats.Today) > 0 {
		fmt.Printf("Birthdays TODAY (%s):\n\n", birthday.DateOf(now).Format(time.DateOnly))
		for _, ch := range cats.Today {
			fmt.Printf("\t%s\n", ch.Name)
		}
	}

	if len(cats.WithinWindow) > 0 {
		fmt.Printf("\nUpcoming birthdays (next %d days):\n\n", cfg.WindowDays)
		for _, ch := range cats.WithinWindow {
			fmt.Println(characterRow(ch, now))
		}
	}

	if len(cats.Future) > 0 {
		fmt.Printf("\nFuture birthdays:\n\n")
		for _, ch := range cats.Future {
			fmt.Println(characterRow(ch, now))
		}
	}

	return nil
}

// characterRow formats one aligned table row: name, time remaining,
// birthday and the concrete date it next falls on.
func characterRow(ch birthday.Character, now time.Time) string {
	til := ch.Birthday.TimeUntilNext(now)
	next := ch.Birthday.NextOccurrence(now)
	return fmt.Sprintf("\t%-20s %6s %-15s %s",
		ch.Name,
		birthday.FormatDurationRounded(til),
		ch.Birthday.String(),
		next.Format(time.DateOnly),
	)
}
