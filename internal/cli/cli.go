// Package cli wires the indy-events commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mutiny19/indy-events/internal/calendar"
	"github.com/mutiny19/indy-events/internal/config"
	"github.com/mutiny19/indy-events/internal/logger"
	"github.com/mutiny19/indy-events/internal/pipeline"
	"github.com/mutiny19/indy-events/internal/publish"
	"github.com/mutiny19/indy-events/internal/source"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagSources string
	flagConfig  string
	flagOutput  string
	flagVerbose bool
)

// NewRootCmd creates the root command. Running it with no subcommand
// executes one full aggregation run.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indy-events",
		Short: "Aggregate Indiana event listings into a published dataset",
		Long: `Fetches every enabled source in the registry, normalizes and
deduplicates the listings, and atomically replaces the published
events.json consumed by the front end.

Exits 0 when at least one source succeeded and the dataset was written,
non-zero on total failure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPipeline,
	}

	cmd.PersistentFlags().StringVar(&flagSources, "sources", "sources.json", "Path to the source registry")
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "Path to the pipeline configuration")
	cmd.PersistentFlags().StringVar(&flagOutput, "output", "", "Override the published dataset path")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newExportCmd())
	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, reg, err := loadInputs()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, reg)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	if _, err := p.Run(cmd.Context()); err != nil {
		return err
	}
	return nil
}

func newExportCmd() *cobra.Command {
	var exportOut string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the published dataset as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadInputs()
			if err != nil {
				return err
			}

			ds, err := publish.LoadPrevious(cfg.Output)
			if err != nil {
				return err
			}
			if len(ds.Events) == 0 {
				return fmt.Errorf("no published events to export (looked at %s)", cfg.Output)
			}

			ics := calendar.GenerateCalendarICS(ds.Events)
			if exportOut == "" {
				fmt.Fprint(cmd.OutOrStdout(), ics)
				return nil
			}
			if err := os.WriteFile(exportOut, []byte(ics), 0644); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			logger.Info("exported calendar", logger.Fields{
				"path":   exportOut,
				"events": len(ds.Events),
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "Write the calendar here instead of stdout")
	return cmd
}

// loadInputs reads the configuration and registry, applying flag overrides.
func loadInputs() (*config.Config, *source.Registry, error) {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if flagOutput != "" {
		cfg.Output = flagOutput
	}

	reg, err := source.Load(flagSources)
	if err != nil {
		return nil, nil, fmt.Errorf("loading source registry: %w", err)
	}
	return cfg, reg, nil
}

// Execute runs the root command and maps the outcome to an exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
