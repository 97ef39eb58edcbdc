// File: cmd/keys.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formpilot-cli/internal/credentials"
	"github.com/xkilldash9x/formpilot-cli/internal/llmclient"
	"github.com/xkilldash9x/formpilot-cli/internal/observability"
)

const keyTestTimeout = 20 * time.Second

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage Gemini API keys",
	}
	cmd.AddCommand(newKeysAddCmd(), newKeysListCmd(), newKeysClearCmd(), newKeysTestCmd())
	return cmd
}

func openStore(cmd *cobra.Command) (*credentials.Store, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	return credentials.NewStore(cfg.Credentials().Path, observability.GetLogger())
}

func newKeysAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <key>...",
		Short: "Store one or more API keys; extra keys are used when one runs out of quota",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			for _, key := range args {
				if err := store.Add(key); err != nil {
					if errors.Is(err, credentials.ErrInvalidKey) {
						return fmt.Errorf("%s: key should start with 'AIza'", credentials.Mask(key))
					}
					return err
				}
				cmd.Printf("Added %s\n", credentials.Mask(key))
			}
			return nil
		},
	}
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured keys, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			keys, err := store.Credentials()
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				cmd.Println("No API keys configured.")
				return nil
			}
			for i, key := range keys {
				cmd.Printf("%d. %s\n", i+1, credentials.Mask(key))
			}
			return nil
		},
	}
}

func newKeysClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			cmd.Printf("Removed %s\n", store.Path())
			return nil
		},
	}
}

func newKeysTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test prompt with every configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			keys, err := store.Credentials()
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return errors.New("no API keys configured; add one with 'formpilot keys add'")
			}
			client := llmclient.NewGeminiClient(cfg.LLM(), observability.GetLogger())
			failed := 0
			for _, key := range keys {
				ctx, cancel := context.WithTimeout(cmd.Context(), keyTestTimeout)
				err := client.Ping(ctx, key)
				cancel()
				if err != nil {
					failed++
					cmd.Printf("%s  %s: %v\n", credentials.Mask(key), llmclient.Classify(err), err)
					continue
				}
				cmd.Printf("%s  ok\n", credentials.Mask(key))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d keys failed", failed, len(keys))
			}
			return nil
		},
	}
}
