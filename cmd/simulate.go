// File: cmd/simulate.go
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formpilot-cli/internal/browser/sim"
	"github.com/xkilldash9x/formpilot-cli/internal/observability"
)

func newSimulateCmd() *cobra.Command {
	var (
		demo           bool
		native         bool
		onlyUnanswered bool
		out            string
	)
	cmd := &cobra.Command{
		Use:   "simulate [file.html]",
		Short: "Run the full pipeline against a local HTML file without a browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			var page *sim.Page
			switch {
			case len(args) == 1:
				page, err = sim.Load(args[0], sim.WithLogger(logger))
			case demo:
				page, err = sim.New(sim.DemoForm, sim.WithURL("https://docs.google.com/forms/d/e/demo/viewform"), sim.WithLogger(logger))
			case native:
				page, err = sim.New(sim.NativeForm, sim.WithURL("file://native.html"), sim.WithLogger(logger))
			default:
				return errors.New("provide an HTML file, --demo or --native")
			}
			if err != nil {
				return err
			}

			gen, err := buildGenerator(cfg, logger)
			if err != nil {
				return err
			}
			o, err := buildOrchestrator(cfg, logger, page, gen)
			if err != nil {
				return err
			}
			if _, err := runFill(ctx, o, cmd.OutOrStdout(), onlyUnanswered); err != nil {
				return err
			}
			if out != "" {
				if err := os.WriteFile(out, []byte(page.HTML()), 0o644); err != nil {
					return err
				}
				cmd.Printf("Filled page written to %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "use the built-in Google Forms style demo page")
	cmd.Flags().BoolVar(&native, "native", false, "use the built-in plain HTML demo page")
	cmd.Flags().BoolVar(&onlyUnanswered, "only-unanswered", false, "skip questions that already have a value")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the filled HTML to this file")
	return cmd
}
