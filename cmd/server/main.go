package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/ramadan-assistant/internal/app"
	"github.com/vovakirdan/ramadan-assistant/internal/config"
	"github.com/vovakirdan/ramadan-assistant/internal/log"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
	"github.com/vovakirdan/ramadan-assistant/internal/qa"
)

type rootFlags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ramadan-assistant: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "ramadan-assistant",
		Short:         "Ramadan companion: supplications, reminders, prayer times and a Q&A chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config.yaml (created with defaults if missing)")
	pf.StringVar(&flags.overrides.Addr, "addr", "", "HTTP listen address")
	pf.StringVar(&flags.overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.overrides.LogFormat, "log-format", "", "log format: console or json")
	pf.DurationVar(&flags.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newTimesCmd(flags))

	return cmd
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Print the canned answer to a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), qa.Answer(strings.Join(args, " ")))
			return err
		},
	}
}

func newTimesCmd(flags *rootFlags) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "times",
		Short: "Fetch and print the five daily prayer times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date := time.Now()
			if dateStr != "" {
				d, err := time.Parse(prayer.DateLayout, dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date value: %w", err)
				}
				date = d
			}

			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, redisCache := app.NewPrayerClient(ctx, &cfg, logger)
			if redisCache != nil {
				defer redisCache.Close()
			}

			timings, err := client.Fetch(ctx, date)
			if err != nil {
				return fmt.Errorf("fetch prayer times: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s prayer times, %s\n", cfg.PrayerTimes.City, date.Format(prayer.DateLayout))
			for _, p := range timings.Ordered() {
				fmt.Fprintf(out, "%-8s %s\n", p.Name, p.Time)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "day to fetch as DD-MM-YYYY (default today)")
	return cmd
}

func runServe(ctx context.Context, flags *rootFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting ramadan assistant")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func loadConfig(flags *rootFlags) (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("info", "console")

	cfg, path, err := config.Load(bootstrap, flags.configPath)
	if err != nil {
		return cfg, nil, err
	}
	cfg.UpdateFrom(flags.overrides)

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}
