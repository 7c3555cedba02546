package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/browser"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
)

// newProbeCmd checks that a bank portal page loads and exposes an element,
// using the same locator the report download tooling relies on.
func newProbeCmd() *cobra.Command {
	var (
		url      string
		selector string
		timeout  int
		headless bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that a page loads and contains an element",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := infrastructure.NewLogger(os.Stderr, "info")

			ctx, cancel, err := browser.NewBrowser(cmd.Context(), headless)
			if err != nil {
				return err
			}
			defer cancel()

			locator := browser.NewLocator(logger)
			if err := locator.Navigate(ctx, url); err != nil {
				return err
			}

			nodes, err := locator.FindAll(ctx, selector, timeout, force)
			if err != nil {
				return err
			}

			logger.Info("probe finished", slog.String("url", url), slog.Int("matches", len(nodes)))
			fmt.Fprintf(cmd.OutOrStdout(), "%d element(s) match %q\n", len(nodes), selector)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Page to load")
	cmd.Flags().StringVar(&selector, "selector", "body", "CSS selector to look for")
	cmd.Flags().IntVar(&timeout, "timeout", 10, "Seconds to wait for the element")
	cmd.Flags().BoolVar(&headless, "headless", true, "Run Chrome without a window")
	cmd.Flags().BoolVar(&force, "force", false, "Report zero matches instead of failing")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
