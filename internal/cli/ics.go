package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bdaycal/internal/ics"
)

var icsOut string

var icsCmd = &cobra.Command{
	Use:   "ics <username>",
	Short: "Write an iCalendar file with yearly birthday events",
	Args:  cobra.ExactArgs(1),
	RunE:  runICS,
}

func init() {
	icsCmd.Flags().StringVarP(&icsOut, "out", "o", "birthdays.ics", "output file path")
}

func runICS(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	username := args[0]

	chars, err := newAniListClient(cfg).FavoriteBirthdays(cmd.Context(), username)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	chars.SortByUpcoming(now)

	cal, err := ics.BuildCalendar(chars, now)
	if err != nil {
		return err
	}
	if err := os.WriteFile(icsOut, []byte(cal), 0o644); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}

	fmt.Printf("Wrote %d birthday events to %s\n", len(chars), icsOut)
	return nil
}
