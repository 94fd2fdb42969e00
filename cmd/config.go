package cmd

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"gpai/cli/internal/config"
	apperrors "gpai/cli/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Show or change CLI settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective settings, environment included",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "set <key> <value>",
		Short:       "Save one setting to config.json",
		Long:        "Keys: " + strings.Join(config.Keys, ", ") + ".\nSecrets such as Redis and keyring passwords are read from the environment only.",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadFile()
			if err != nil {
				return err
			}
			if err := c.Set(args[0], args[1]); err != nil {
				return apperrors.Wrap(apperrors.InvalidInput, "config set", err)
			}
			if err := config.Save(c); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved %s\n", args[0])
			return nil
		},
	}
}
