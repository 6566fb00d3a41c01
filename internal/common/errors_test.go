package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewAppError("CHECKPOINT_ERROR", "write checkpoint", cause)
	assert.Equal(t, "CHECKPOINT_ERROR: write checkpoint: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewAppError("CONFIG_ERROR", "bad value", nil)
	assert.Equal(t, "CONFIG_ERROR: bad value", bare.Error())
}

func TestSystemic(t *testing.T) {
	err := Systemic(errors.New("disk full"), "append results log")
	require.Error(t, err)
	assert.True(t, IsSystemic(err))
	assert.Contains(t, err.Error(), "append results log")
	assert.Contains(t, err.Error(), "disk full")

	assert.NoError(t, Systemic(nil, "ignored"))
	assert.False(t, IsSystemic(errors.New("plain")))
	assert.False(t, IsSystemic(nil))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ignored"))
	err := WrapError(ErrServiceUnavailable, "connection refused")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
