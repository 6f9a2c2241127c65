package vybiumwasmcircuits

import "fmt"

// ErrorCode represents a circuit checker error code
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrInvalidInput represents malformed or unrepresentable tables
	ErrInvalidInput

	// ErrTraceExecution represents a failure while tracing a program
	ErrTraceExecution

	// ErrCapacityExceeded represents a trace that does not fit the circuit
	ErrCapacityExceeded

	// ErrDigestMismatch represents a program that does not hash to the
	// expected digest
	ErrDigestMismatch

	// ErrSynthesis represents a failure while assigning the circuit
	ErrSynthesis
)

// CircuitError represents a circuit checker error
type CircuitError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *CircuitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-wasm-circuits error [%d]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-wasm-circuits error [%d]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *CircuitError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *CircuitError) Is(target error) bool {
	t, ok := target.(*CircuitError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// errorOf returns a sentinel that matches every error of the given code
func errorOf(code ErrorCode) error {
	return &CircuitError{Code: code}
}

var (
	// ErrConfig matches configuration errors under errors.Is
	ErrConfig = errorOf(ErrInvalidConfig)

	// ErrInput matches input errors under errors.Is
	ErrInput = errorOf(ErrInvalidInput)

	// ErrTrace matches tracing errors under errors.Is
	ErrTrace = errorOf(ErrTraceExecution)

	// ErrCapacity matches capacity errors under errors.Is
	ErrCapacity = errorOf(ErrCapacityExceeded)

	// ErrDigest matches digest mismatches under errors.Is
	ErrDigest = errorOf(ErrDigestMismatch)
)
