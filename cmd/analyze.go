// File: cmd/analyze.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/internal/observability"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Detect the questions on a form and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyBrowserFlags(cmd, cfg)
			logger := observability.GetLogger()

			s, err := openPage(ctx, cfg, logger, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			gen, err := buildGenerator(cfg, logger)
			if err != nil {
				return err
			}
			o, err := buildOrchestrator(cfg, logger, s, gen)
			if err != nil {
				return err
			}
			snap, err := o.Analyze(ctx)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			logger.Info("Analysis complete.",
				zap.Int("questions", len(snap.Questions)),
				zap.Int("unanswered", len(snap.Unanswered())),
				zap.Bool("degraded", snap.Degraded))
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}
	addBrowserFlags(cmd)
	return cmd
}
