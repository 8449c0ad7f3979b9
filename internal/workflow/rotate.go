package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/postfinance/propeller/internal/pkg/errors"
	"github.com/postfinance/propeller/internal/pkg/logger"
	"github.com/postfinance/propeller/internal/pkg/random"
	"github.com/postfinance/propeller/internal/vault"
)

// Rotator performs a switch rotation: the passive slot gets a new password,
// active and passive swap, the deployment is reconciled, then the newly
// passive slot is rotated as well.
type Rotator struct {
	store          SecretStore
	db             Database
	deployer       Deployer
	generate       PasswordGenerator
	passwordLength int
}

// NewRotator wires the three gateways into a rotation state machine.
func NewRotator(store SecretStore, db Database, deployer Deployer, passwordLength int) *Rotator {
	return &Rotator{
		store:          store,
		db:             db,
		deployer:       deployer,
		generate:       random.GeneratePassword,
		passwordLength: passwordLength,
	}
}

// Rotate runs the switch rotation once. Any error leaves a recoverable
// forward state: the document always points at credentials the application
// can use.
func (r *Rotator) Rotate(ctx context.Context) error {
	logger.Debug("Starting 'switch' workflow")

	creds, err := r.store.Read(ctx)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeSecretNotFound) {
			return apperrors.Wrap(err, apperrors.CodeSecretNotFound,
				fmt.Sprintf("Failed to read path '%s' - did you init Vault?", r.store.Path()))
		}
		return apperrors.Wrap(err, apperrors.CodeSecretStoreFailed,
			fmt.Sprintf("Failed to read path '%s'", r.store.Path()))
	}

	// The passive slot is only well-defined when the active user matches
	// exactly one of two distinct slot users. Refuse to touch anything
	// otherwise; the operator has to repair the document first.
	if !creds.HasActiveUser() || creds.User1 == creds.User2 {
		return apperrors.New(apperrors.CodeActiveUserMismatch,
			"Failed to detect active user - did neither match user 1 nor 2")
	}

	if err := r.rotatePassivePassword(ctx, creds); err != nil {
		return err
	}

	creds.SwitchActiveUser()

	// Hand-off moment: after this write, readers of the document see the
	// new active user while the deployment still runs with the old one.
	// The rollout wait below closes that window.
	if err := r.store.Write(ctx, creds); err != nil {
		return apperrors.Wrap(err, apperrors.CodeVaultStateInvalid,
			"Failed to kick-off rotation workflow by switching active user - Vault is in an invalid state")
	}

	logger.Debug("Active and passive users switched and synchronized into Vault")

	if err := r.deployer.Sync(ctx); err != nil {
		return err
	}
	if err := r.deployer.WaitForRollout(ctx); err != nil {
		return err
	}

	if err := r.rotatePassivePassword(ctx, creds); err != nil {
		return err
	}

	if err := r.store.Write(ctx, creds); err != nil {
		return apperrors.Wrap(err, apperrors.CodeVaultStateInvalid,
			"Failed to update passive user password after sync - Vault is in an invalid state")
	}

	return nil
}

// rotatePassivePassword changes the passive slot's database password to a
// fresh value and records it in the in-memory document. The connection
// authenticates with the passive slot's current credentials: PostgreSQL
// grants every role the right to change its own password.
func (r *Rotator) rotatePassivePassword(ctx context.Context, creds *vault.Credentials) error {
	user, currentPassword := creds.PassiveUser()

	newPassword, err := r.generate(r.passwordLength)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseFailed,
			"failed to generate a new password")
	}

	session, err := r.db.Connect(ctx, user, currentPassword)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseFailed,
			fmt.Sprintf("failed to connect to PostgreSQL as passive user '%s'", user))
	}
	defer func() { _ = session.Close(ctx) }()

	if err := session.AlterPassword(ctx, user, newPassword); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseFailed,
			fmt.Sprintf("Failed to update password of '%s'", user))
	}

	creds.SetPassivePassword(newPassword)

	logger.Debug("Successfully rotated PostgreSQL password of passive user",
		zap.String("user", user))
	return nil
}
