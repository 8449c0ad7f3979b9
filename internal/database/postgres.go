// Package database is the PostgreSQL gateway. Each workflow step opens a
// fresh session as the (user, password) pair it needs; no pooling.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/postfinance/propeller/internal/config"
	apperrors "github.com/postfinance/propeller/internal/pkg/errors"
	"github.com/postfinance/propeller/internal/pkg/logger"
)

// Client opens sessions against the configured PostgreSQL target.
type Client struct {
	cfg config.PostgresConfig
}

// NewClient creates a database gateway for the configured target.
func NewClient(cfg config.PostgresConfig) *Client {
	return &Client{cfg: cfg}
}

// Connect opens a session authenticated as the given user.
func (c *Client) Connect(ctx context.Context, user, password string) (*Session, error) {
	logger.Debug("Connecting to PostgreSQL",
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port),
		zap.String("database", c.cfg.Database),
		zap.String("user", user),
	)

	conn, err := pgx.Connect(ctx, c.cfg.DSN(user, password))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseFailed,
			fmt.Sprintf("failed to connect to PostgreSQL as '%s'", user))
	}

	return &Session{conn: conn, user: user}, nil
}

// Session is a single authenticated connection.
type Session struct {
	conn *pgx.Conn
	user string
}

// AlterPassword changes the password of role. PostgreSQL lets a role change
// its own password without extra grants, so role must equal the connected
// user.
func (s *Session) AlterPassword(ctx context.Context, role, newPassword string) error {
	if role != s.user {
		return apperrors.New(apperrors.CodeDatabaseFailed,
			fmt.Sprintf("session user '%s' cannot change password of role '%s'", s.user, role))
	}

	// ALTER ROLE does not accept a bind parameter in the password clause;
	// the literal is escaped instead. The default generator emits only
	// alphanumerics, so escaping never changes it.
	query := fmt.Sprintf("ALTER ROLE %s WITH PASSWORD '%s'",
		pgx.Identifier{role}.Sanitize(), escapeLiteral(newPassword))

	if _, err := s.conn.Exec(ctx, query); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseFailed,
			fmt.Sprintf("failed to update password of '%s'", role))
	}

	logger.Debug("Rotated PostgreSQL password", zap.String("role", role))
	return nil
}

// Close releases the connection.
func (s *Session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
