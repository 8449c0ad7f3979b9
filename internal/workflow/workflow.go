// Package workflow implements the rotation state machine. It drives the
// secret store, the database, and the deployment gateway in a fixed order so
// that the application can authenticate at every observable moment.
package workflow

import (
	"context"

	"github.com/postfinance/propeller/internal/vault"
)

// SecretStore reads and writes the rotation document.
type SecretStore interface {
	Read(ctx context.Context) (*vault.Credentials, error)
	Write(ctx context.Context, creds *vault.Credentials) error
	Path() string
}

// Database opens authenticated sessions against PostgreSQL.
type Database interface {
	Connect(ctx context.Context, user, password string) (DatabaseSession, error)
}

// DatabaseSession is a single authenticated connection.
type DatabaseSession interface {
	AlterPassword(ctx context.Context, role, newPassword string) error
	Close(ctx context.Context) error
}

// Deployer triggers a reconciliation of the deployed application and waits
// for it to settle.
type Deployer interface {
	Sync(ctx context.Context) error
	WaitForRollout(ctx context.Context) error
}

// PasswordGenerator produces a fresh password of the given length.
type PasswordGenerator func(length int) (string, error)
