// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formpilot-cli/internal/control"
	"github.com/xkilldash9x/formpilot-cli/internal/observability"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve <url>",
		Short: "Open a form and expose the local control API for it",
		Long: `Serve opens the form in a browser and listens on a loopback address for
commands (analyze, form_data, fill, ping) and a WebSocket progress stream. The
form is re-analyzed whenever new questions appear on the page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyBrowserFlags(cmd, cfg)
			controlCfg := cfg.Control()
			if cmd.Flags().Changed("listen") {
				controlCfg.ListenAddr = listen
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
			if _, err := o.Analyze(ctx); err != nil {
				return err
			}
			srv, err := control.NewServer(controlCfg, logger, o, control.WithMutations(s.Mutations()))
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address for the control API (default from config)")
	addBrowserFlags(cmd)
	return cmd
}
