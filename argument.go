package ptb

import "fmt"

// Operand is anything that can appear in a call's argument list: an Input
// or Result handle already bound to a builder, or a CallArg descriptor that
// the builder declares as a fresh input when the command is added.
// This is a sealed interface.
type Operand interface {
	isOperand()
}

// Input is a handle to a declared transaction input. Handles are dense,
// zero-based, and only valid on the builder that issued them.
type Input struct {
	owner *Builder
	index uint16
}

func (Input) isOperand() {}

// Index returns the positional input handle.
func (in Input) Index() uint16 { return in.index }

// String implements fmt.Stringer.
func (in Input) String() string { return fmt.Sprintf("input(%d)", in.index) }

// Result is a handle to one output of a previously declared command.
// Results are only usable by commands declared after the producing one.
type Result struct {
	owner   *Builder
	command uint16
	index   uint16
}

func (Result) isOperand() {}

// Command returns the index of the producing command.
func (r Result) Command() uint16 { return r.command }

// Index returns the output position within the producing command.
func (r Result) Index() uint16 { return r.index }

// String implements fmt.Stringer.
func (r Result) String() string { return fmt.Sprintf("result(%d,%d)", r.command, r.index) }

// toOperand converts a raw call argument to an Operand, wrapping plain Go
// values as Pure literals.
func toOperand(v any) (Operand, error) {
	switch val := v.(type) {
	case Operand:
		return val, nil
	case uint64:
		return PureUint64(val), nil
	case int:
		if val < 0 {
			return nil, ErrInvalidInputKind
		}
		return PureUint64(uint64(val)), nil
	case bool:
		return PureBool(val), nil
	case string:
		return PureString(val), nil
	case []byte:
		return PureBytes(val), nil
	default:
		return nil, ErrInvalidInputKind
	}
}
