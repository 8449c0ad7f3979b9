// Package cmd wires the propeller commands: configuration, gateways, and the
// rotation workflow are composed here and nowhere else.
package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/postfinance/propeller/internal/pkg/logger"
)

// version is injected at build time via -ldflags.
var version = "dev"

// NewRootCmd builds the propeller command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "propeller",
		Short: "propeller - Automated database secret rotation",
		Long: `propeller - Automated database secret rotation.

This tool simplifies the process of managing and rotating secrets for
PostgreSQL databases, leveraging Vault as a secure backend.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return logger.Init(logger.LevelFromEnv(), "console")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errors.New("a subcommand is required")
		},
	}

	root.AddCommand(newInitVaultCmd())
	root.AddCommand(newRotateCmd())

	return root
}
