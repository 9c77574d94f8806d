package ptb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// RefKind distinguishes the two reference namespaces an argument can point
// into.
type RefKind uint8

const (
	// RefInput references a declared input by handle.
	RefInput RefKind = iota

	// RefResult references one output of an earlier command.
	RefResult
)

// ArgRef is a resolved argument reference within a finalized transaction.
type ArgRef struct {
	Kind    RefKind
	Command uint16 // producing command, RefResult only
	Index   uint16 // input handle, or output position within Command
}

// String implements fmt.Stringer.
func (r ArgRef) String() string {
	if r.Kind == RefResult {
		return fmt.Sprintf("result(%d,%d)", r.Command, r.Index)
	}
	return fmt.Sprintf("input(%d)", r.Index)
}

// CommandSpec is the serializable description of one command: the target
// operation and its argument references by handle.
type CommandSpec struct {
	Package  common.Hash
	Module   string
	Function string
	TypeArgs []string
	Args     []ArgRef
	Results  uint16
}

// Qualified returns the module-qualified function name.
func (c CommandSpec) Qualified() string {
	return c.Module + "::" + c.Function
}

// Transaction is the finalized, immutable pair of input and command lists.
// It is the unit of atomic submission: an executor applies every command in
// declaration order or none of them.
type Transaction struct {
	inputs   []CallArg
	commands []CommandSpec
}

// Inputs returns the declared inputs in handle order.
func (t *Transaction) Inputs() []CallArg {
	out := make([]CallArg, len(t.inputs))
	copy(out, t.inputs)
	return out
}

// InputAt returns the input at the given handle.
func (t *Transaction) InputAt(i int) CallArg {
	if i < 0 || i >= len(t.inputs) {
		return nil
	}
	return t.inputs[i]
}

// Commands returns the command descriptors in declaration order.
func (t *Transaction) Commands() []CommandSpec {
	out := make([]CommandSpec, len(t.commands))
	copy(out, t.commands)
	return out
}

// CommandAt returns the command descriptor at the given index.
func (t *Transaction) CommandAt(i int) (CommandSpec, bool) {
	if i < 0 || i >= len(t.commands) {
		return CommandSpec{}, false
	}
	return t.commands[i], true
}

// InputCount returns the number of declared inputs.
func (t *Transaction) InputCount() int {
	return len(t.inputs)
}

// CommandCount returns the number of commands.
func (t *Transaction) CommandCount() int {
	return len(t.commands)
}
