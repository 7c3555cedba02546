// Command consolidator merges the treasury reports dropped in the input
// directory into a single spreadsheet.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/app"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/operations"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "consolidator",
		Short: "Consolidate treasury fixed-income reports",
		Long: `consolidator reads every bank report in the input directory, extracts the
applications and redemptions sections and writes them to one spreadsheet
in the output directory. Configuration comes from config.yaml, .env and
TESOURARIA_* environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newStartCmd(),
		newExtractCmd(),
		newProbeCmd(),
		newVersionCmd(),
	)
	return root
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run one consolidation batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup(os.Stdout)
			if err != nil {
				return err
			}
			defer cleanup()
			return a.Run(cmd.Context())
		},
	}
}

func newExtractCmd() *cobra.Command {
	var file, period string

	cmd := &cobra.Command{
		Use:    operations.ExtractCommand,
		Short:  "Extract a single report and print it as JSON (worker mode)",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the result, logs go to stderr
			a, cleanup, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			defer cleanup()
			return a.ExtractOne(cmd.Context(), file, period, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Report to extract")
	cmd.Flags().StringVar(&period, "period", "", "Reporting period (DD/MM/YYYY)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}

// setup loads configuration and builds the application with console logs on console
func setup(console io.Writer) (*app.Application, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := infrastructure.InitializeLoggerTo(cfg.Logging, console)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.NewApplication(cfg, paths, logger)
	if err != nil {
		logger.Error("failed to initialize application", slog.String("error", err.Error()))
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
		_ = infrastructure.CloseLogFile()
	}
	return a, cleanup, nil
}
