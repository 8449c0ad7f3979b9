package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postfinance/propeller/internal/config"
	"github.com/postfinance/propeller/internal/vault"
)

func newInitVaultCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init-vault",
		Short: "Initialize a Vault path with the necessary structure for secret management.",
		Long: `Initialize a Vault path with the necessary structure for secret management.

This command prepares the Vault backend for subsequent secret rotation operations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store, err := vault.NewClient(cfg.Vault)
			if err != nil {
				return err
			}

			if err := store.Init(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Successfully initialized Vault path '%s'\n", cfg.Vault.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config-path", "c", "config.yml",
		"Path to the configuration file")

	return cmd
}
