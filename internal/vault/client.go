// Package vault is the secret store gateway: it reads and writes the
// rotation document at a single KV v2 path.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/postfinance/propeller/internal/config"
	apperrors "github.com/postfinance/propeller/internal/pkg/errors"
	"github.com/postfinance/propeller/internal/pkg/logger"
)

// TokenEnvVar holds the Vault bearer token. Absence is fatal at startup.
const TokenEnvVar = "VAULT_TOKEN"

// mountPath is the KV v2 engine mount; fixed to "secret" by convention.
const mountPath = "secret"

// Client accesses the rotation document at a fixed KV v2 path.
type Client struct {
	kv   *api.KVv2
	path string
}

// NewClient builds a gateway for the configured Vault endpoint. The token is
// taken from the VAULT_TOKEN environment variable.
func NewClient(cfg config.VaultConfig) (*Client, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return nil, apperrors.New(apperrors.CodeConfigInvalid,
			"Missing VAULT_TOKEN environment variable")
	}

	logger.Debug("Connecting to Vault", zap.String("base_url", cfg.BaseURL))

	apiConfig := api.DefaultConfig()
	apiConfig.Address = cfg.BaseURL

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSecretStoreFailed,
			"failed to build Vault client")
	}
	client.SetToken(token)

	return &Client{
		kv:   client.KVv2(mountPath),
		path: cfg.Path,
	}, nil
}

// Path returns the configured document path.
func (c *Client) Path() string {
	return c.path
}

// Read loads the rotation document. A missing path is reported with
// SECRET_NOT_FOUND, distinct from transport failures.
func (c *Client) Read(ctx context.Context) (*Credentials, error) {
	logger.Info("Reading secret", zap.String("path", c.path))

	secret, err := c.kv.Get(ctx, c.path)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return nil, apperrors.Wrap(err, apperrors.CodeSecretNotFound,
				fmt.Sprintf("no secret at path '%s'", c.path))
		}
		return nil, apperrors.Wrap(err, apperrors.CodeSecretStoreFailed,
			fmt.Sprintf("failed to read secret at path '%s'", c.path))
	}
	if secret == nil || secret.Data == nil {
		return nil, apperrors.New(apperrors.CodeSecretNotFound,
			fmt.Sprintf("no secret data at path '%s'", c.path))
	}

	creds, err := credentialsFromMap(secret.Data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSecretStoreFailed,
			fmt.Sprintf("malformed secret at path '%s'", c.path))
	}
	return creds, nil
}

// Write overwrites the whole rotation document. Last-writer-wins; the
// rotation assumes it is the sole writer.
func (c *Client) Write(ctx context.Context, creds *Credentials) error {
	logger.Info("Writing secret", zap.String("path", c.path))

	if _, err := c.kv.Put(ctx, c.path, creds.toMap()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeSecretStoreFailed,
			fmt.Sprintf("failed to write secret at path '%s'", c.path))
	}
	return nil
}

// Init writes the placeholder template. It refuses to overwrite an existing
// document: bootstrap only provisions a path with the right shape.
func (c *Client) Init(ctx context.Context) error {
	logger.Info("Initializing secret path", zap.String("path", c.path))

	_, err := c.kv.Get(ctx, c.path)
	switch {
	case err == nil:
		return apperrors.New(apperrors.CodeSecretAlreadyInitialized,
			fmt.Sprintf("secret path '%s' is already initialized - refusing to overwrite", c.path))
	case !errors.Is(err, api.ErrSecretNotFound):
		return apperrors.Wrap(err, apperrors.CodeSecretStoreFailed,
			fmt.Sprintf("failed to check secret path '%s'", c.path))
	}

	if _, err := c.kv.Put(ctx, c.path, placeholderCredentials().toMap()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeSecretStoreFailed,
			fmt.Sprintf("failed to create initial Vault structure at path '%s'", c.path))
	}
	return nil
}
