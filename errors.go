package ptb

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for common failure conditions.
var (
	// ErrInvalidInputKind indicates a malformed input descriptor.
	ErrInvalidInputKind = errors.New("ptb: invalid input kind")

	// ErrUnresolvedReference indicates an argument handle that was not
	// declared earlier on this builder.
	ErrUnresolvedReference = errors.New("ptb: reference to undeclared handle")

	// ErrSignatureMismatch indicates arguments that don't match the
	// operation's declared signature.
	ErrSignatureMismatch = errors.New("ptb: arguments do not match operation signature")

	// ErrAlreadyFinalized indicates a builder reused after Finalize.
	ErrAlreadyFinalized = errors.New("ptb: builder already finalized")

	// ErrTransactionTooLarge indicates a transaction exceeding a size
	// limit: the finalize-time command ceiling, or the 16-bit handle
	// space at declaration time.
	ErrTransactionTooLarge = errors.New("ptb: transaction exceeds size limit")
)

// FunctionNotFoundError indicates the package doesn't declare the requested
// function.
type FunctionNotFoundError struct {
	Package  common.Hash
	Function string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("ptb: function %q not found in package %s", e.Function, e.Package.Hex())
}

// ArgumentError indicates an issue with one call argument.
type ArgumentError struct {
	Function string
	Index    int
	Err      error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("ptb: argument %d for %q: %v", e.Index, e.Function, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// CommandError wraps errors raised while declaring or finalizing a command.
type CommandError struct {
	Index    int
	Function string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("ptb: command %d (%s): %v", e.Index, e.Function, e.Err)
	}
	return fmt.Sprintf("ptb: command %d: %v", e.Index, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// EncodingError indicates a failure while encoding a literal value or
// decoding a serialized transaction.
type EncodingError struct {
	Value any
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ptb: encoding error for value %T: %v", e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
