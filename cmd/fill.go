// File: cmd/fill.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formpilot-cli/internal/observability"
)

func newFillCmd() *cobra.Command {
	var (
		onlyUnanswered bool
		maxRetries     int
	)
	cmd := &cobra.Command{
		Use:   "fill <url>",
		Short: "Analyze a form, generate answers and fill them in",
		Long: `Fill opens the form in a browser, detects every question, asks the model for an
answer to each one and types or clicks it in, verifying every field. The browser
stays open afterwards so the form can be reviewed and submitted by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyBrowserFlags(cmd, cfg)
			if cmd.Flags().Changed("max-retries") {
				cfg.SetFillerMaxRetries(maxRetries)
			}
			logger := observability.GetLogger()

			gen, err := buildGenerator(cfg, logger)
			if err != nil {
				return err
			}
			s, err := openPage(ctx, cfg, logger, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			o, err := buildOrchestrator(cfg, logger, s, gen)
			if err != nil {
				return err
			}
			if _, err := runFill(ctx, o, cmd.OutOrStdout(), onlyUnanswered); err != nil {
				return err
			}
			if cfg.Browser().Headless {
				return nil
			}
			cmd.Println("Review the form in the browser. Press Ctrl+C to close it.")
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&onlyUnanswered, "only-unanswered", false, "skip questions that already have a value")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "fill attempts per question")
	addBrowserFlags(cmd)
	return cmd
}
