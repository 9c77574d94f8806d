package executor

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejection causes.
var (
	// ErrObjectNotFound indicates a referenced object doesn't exist, was
	// already consumed, or isn't the declared kind of reference.
	ErrObjectNotFound = errors.New("executor: object not found")

	// ErrVersionMismatch indicates an owned object exists at a different
	// version than the transaction declared.
	ErrVersionMismatch = errors.New("executor: object version mismatch")

	// ErrWrongObjectKind indicates an object of the wrong kind was
	// passed to an operation.
	ErrWrongObjectKind = errors.New("executor: object kind mismatch")

	// ErrSelfJoin indicates an attempt to join an object with itself.
	ErrSelfJoin = errors.New("executor: cannot join object with itself")

	// ErrMalformedLiteral indicates a pure argument that doesn't decode
	// to the expected value shape.
	ErrMalformedLiteral = errors.New("executor: malformed literal argument")

	// ErrInsufficientBalance indicates a split amount exceeding the
	// available balance.
	ErrInsufficientBalance = errors.New("executor: insufficient balance")

	// ErrUnauthorized indicates the gated call's requirement was not
	// met.
	ErrUnauthorized = errors.New("executor: gated call requirement not met")

	// ErrUnknownFunction indicates a command naming an operation the
	// ledger doesn't implement.
	ErrUnknownFunction = errors.New("executor: unknown function")

	// ErrMalformedCommand indicates a command whose argument list does
	// not match the operation's shape. The builder never produces one,
	// but decoded wire forms can carry anything.
	ErrMalformedCommand = errors.New("executor: malformed command")

	// ErrLimitExceeded indicates the transaction exceeds the ledger's
	// command limit.
	ErrLimitExceeded = errors.New("executor: command limit exceeded")

	// ErrFaultInjected is returned from a configured failpoint.
	ErrFaultInjected = errors.New("executor: fault injected")
)

// RejectionError is the remote-side failure surface: the whole transaction
// was rejected and zero effects were applied. Command is the index of the
// failing command, or -1 for transaction-level rejections.
type RejectionError struct {
	Command  int
	Function string
	Err      error
}

func (e *RejectionError) Error() string {
	if e.Command < 0 {
		return fmt.Sprintf("executor: transaction rejected: %v", e.Err)
	}
	return fmt.Sprintf("executor: command %d (%s) rejected: %v", e.Command, e.Function, e.Err)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}
