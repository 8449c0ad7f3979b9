package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postfinance/propeller/internal/argocd"
	"github.com/postfinance/propeller/internal/config"
	"github.com/postfinance/propeller/internal/database"
	apperrors "github.com/postfinance/propeller/internal/pkg/errors"
	"github.com/postfinance/propeller/internal/vault"
	"github.com/postfinance/propeller/internal/workflow"
)

func newRotateCmd() *cobra.Command {
	var (
		configPath     string
		passwordLength int
	)

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate PostgreSQL database secrets.",
		Long: `Rotate PostgreSQL database secrets.

This command orchestrates the process of generating new secrets, updating the
database, and storing the new secrets in Vault.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordLength < 1 {
				return apperrors.New(apperrors.CodeConfigInvalid,
					fmt.Sprintf("password length must be at least 1, got %d", passwordLength))
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store, err := vault.NewClient(cfg.Vault)
			if err != nil {
				return err
			}
			deployer := argocd.NewClient(cfg.ArgoCD)
			db := pgDatabase{client: database.NewClient(cfg.Postgres)}

			rotator := workflow.NewRotator(store, db, deployer, passwordLength)
			if err := rotator.Rotate(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Successfully rotated all secrets")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config-path", "c", "config.yml",
		"Path to the configuration file")
	cmd.Flags().IntVarP(&passwordLength, "password-length", "p", 20,
		"The length of the randomly generated alphanumeric password")

	return cmd
}

// pgDatabase adapts the concrete PostgreSQL client to the workflow's
// database capability.
type pgDatabase struct {
	client *database.Client
}

func (d pgDatabase) Connect(ctx context.Context, user, password string) (workflow.DatabaseSession, error) {
	session, err := d.client.Connect(ctx, user, password)
	if err != nil {
		return nil, err
	}
	return session, nil
}
