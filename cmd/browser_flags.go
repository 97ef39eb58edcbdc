package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// addBrowserFlags registers the flags shared by the commands that drive a
// real browser.
func addBrowserFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("headless", false, "run the browser without a window")
	cmd.Flags().String("remote-url", "", "attach to a running browser at this DevTools URL instead of launching one")
}

// applyBrowserFlags copies explicitly set browser flags onto cfg.
func applyBrowserFlags(cmd *cobra.Command, cfg config.Interface) {
	if cmd.Flags().Changed("headless") {
		headless, _ := cmd.Flags().GetBool("headless")
		cfg.SetBrowserHeadless(headless)
	}
	if cmd.Flags().Changed("remote-url") {
		remote, _ := cmd.Flags().GetString("remote-url")
		cfg.SetBrowserRemoteURL(remote)
	}
}
