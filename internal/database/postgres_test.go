package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/postfinance/propeller/internal/pkg/errors"
)

func TestEscapeLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plainAlphanumeric42", "plainAlphanumeric42"},
		{"with'quote", "with''quote"},
		{"''", "''''"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLiteral(tt.in))
	}
}

func TestAlterPassword_RejectsForeignRole(t *testing.T) {
	// The role check fires before the connection is used, so a nil conn is
	// safe here.
	session := &Session{user: "user1"}

	err := session.AlterPassword(context.Background(), "user2", "newpw")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseFailed))
	assert.Contains(t, err.Error(), "user2")
}
