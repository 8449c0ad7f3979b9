package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(CodeSecretNotFound, "no secret at path 'a/b'"),
			want: "no secret at path 'a/b'",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("connection refused"), CodeDatabaseFailed, "failed to connect to PostgreSQL"),
			want: "failed to connect to PostgreSQL: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, CodeSecretStoreFailed, "msg")

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := New(CodeSecretNotFound, "resource not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != CodeSecretNotFound {
		t.Errorf("Code = %q, want %s", got.Code, CodeSecretNotFound)
	}
}

func TestIsAppError_PlainError(t *testing.T) {
	if _, ok := IsAppError(fmt.Errorf("plain")); ok {
		t.Error("IsAppError should return false for plain errors")
	}
}

func TestHasCode(t *testing.T) {
	inner := New(CodeSecretNotFound, "no secret")
	outer := Wrap(inner, CodeSecretStoreFailed, "read failed")

	if !HasCode(outer, CodeSecretStoreFailed) {
		t.Error("HasCode should match the outermost code")
	}
	if !HasCode(outer, CodeSecretNotFound) {
		t.Error("HasCode should match a code deeper in the chain")
	}
	if HasCode(outer, CodeDatabaseFailed) {
		t.Error("HasCode should not match an absent code")
	}
	if HasCode(fmt.Errorf("plain"), CodeDatabaseFailed) {
		t.Error("HasCode should not match plain errors")
	}
}
