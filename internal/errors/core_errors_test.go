package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewInputError("portfolio", "add_position", "quantity must be positive")
	assert.Equal(t, "[INPUT:portfolio] add_position: quantity must be positive", err.Error())
}

func TestWrapPreservesUnderlying(t *testing.T) {
	underlying := fs.ErrNotExist
	err := Wrap(underlying, ErrorCategoryStorage, "state", "load")

	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "STORAGE")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorCategoryStorage, "state", "load"))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		fatal    bool
	}{
		{ErrorCategoryInput, true},
		{ErrorCategoryState, true},
		{ErrorCategoryConfig, false},
		{ErrorCategoryStorage, false},
	}

	for _, tt := range tests {
		err := New(tt.category, "c", "op", "m")
		assert.Equal(t, tt.fatal, err.IsFatal(), "category %s", tt.category)
	}
}

func TestErrorAsThroughWrapping(t *testing.T) {
	var core *CoreError
	wrapped := Newf(ErrorCategoryState, "safety", "reset", "cooldown active for another %s", "3h")

	require.ErrorAs(t, error(wrapped), &core)
	assert.Equal(t, "safety", core.Component)
	assert.Equal(t, "reset", core.Operation)
}
