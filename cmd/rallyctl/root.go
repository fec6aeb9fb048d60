package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/rallylog/internal/app"
	"github.com/okian/rallylog/internal/config"
	"github.com/okian/rallylog/pkg/logger"
)

// globalFlags override the loaded configuration when set.
type globalFlags struct {
	driver   string
	dsn      string
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "rallyctl",
		Short: "Badminton match log maintenance tool",
		Long: "Query matches, print analysis tables, export CSV and repair rally sequences.\n" +
			"Configuration comes from RALLYLOG_* variables, a .env file or RALLYLOG_CONFIG.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.driver, "driver", "", "database driver (sqlite, postgres, mysql)")
	root.PersistentFlags().StringVar(&g.dsn, "dsn", "", "database DSN or sqlite path")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMatchesCmd(g),
		newShowCmd(g),
		newAnalysisCmd(g),
		newExportCmd(g),
		newReplayCmd(g),
	)
	return root
}

// withService opens the store described by config plus flags and runs fn.
func withService(ctx context.Context, g *globalFlags, fn func(*service.Service) error) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if g.driver != "" {
		cfg.DBDriver = g.driver
	}
	if g.dsn != "" {
		cfg.DBDSN = g.dsn
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	store, err := service.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	return fn(service.New(append(service.OptionsFromConfig(cfg), service.WithStore(store))...))
}
