package vybiumwasmcircuits

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCircuitError(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &CircuitError{Code: ErrCapacityExceeded, Message: "too big", Cause: cause})

	require.ErrorIs(t, err, ErrCapacity)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrInput)
	require.Contains(t, err.Error(), "too big (caused by: boom)")

	var ce *CircuitError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, ErrCapacityExceeded, ce.Code)
}

func TestCircuitErrorMessage(t *testing.T) {
	err := &CircuitError{Code: ErrInvalidInput, Message: "bad"}
	require.Equal(t, "vybium-wasm-circuits error [2]: bad", err.Error())
	require.Nil(t, err.Unwrap())
}
