package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("relation \"t\" does not exist")

	assert.Equal(t, "[query_failed] list_schema failed: relation \"t\" does not exist",
		Wrap(ErrKindQueryFailed, "list_schema failed", cause).Error())
	assert.Equal(t, "[missing_column] column required for level=column",
		New(ErrKindMissingColumn, "column required for level=column").Error())
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := Newf(ErrKindUnsafeIdentifier, "unsafe identifier: %q", "bad id")
	wrapped := fmt.Errorf("update_metadata: %w", base)

	assert.Equal(t, ErrKindUnsafeIdentifier, KindOf(wrapped))
	assert.True(t, IsUnsafeIdentifier(wrapped))
	assert.False(t, IsInvalidInput(wrapped))
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
}

func TestUnwrap_PreservesCause(t *testing.T) {
	cause := errors.New("driver detail")
	err := Wrap(ErrKindConnectionFailed, "connect failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsConnectionFailed(err))
}

func TestIsTemplateDefect(t *testing.T) {
	tests := []struct {
		kind ErrKind
		want bool
	}{
		{ErrKindTemplateFileNotFound, true},
		{ErrKindQueryNotFound, true},
		{ErrKindInvalidTemplateFormat, true},
		{ErrKindUnresolvedPlaceholder, true},
		{ErrKindQueryFailed, false},
		{ErrKindInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, IsTemplateDefect(New(tt.kind, "x")))
		})
	}
}
