// Package cli implements the bdaycal command tree.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"bdaycal/internal/anilist"
	"bdaycal/internal/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "bdaycal",
	Short: "Character birthday calendar",
	Long:  `bdaycal tracks your favorite AniList characters' birthdays and serves them as web pages, tables and ICS calendars.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		initLogging(isDebug)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(icsCmd)
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "config_path", cfgPath)
		return nil, err
	}
	return cfg, nil
}

func newAniListClient(cfg *config.Config) *anilist.Client {
	return anilist.NewClient(anilist.Config{
		Endpoint:  cfg.AniList.Endpoint,
		UserAgent: cfg.AniList.UserAgent,
		PerPage:   cfg.AniList.PerPage,
		Timeout:   time.Duration(cfg.AniList.TimeoutSeconds) * time.Second,
	})
}
