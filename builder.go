package ptb

import (
	"math"

	"github.com/ethereum/go-ethereum/common"
)

// MaxCommands is the default finalize-time ceiling on commands per
// transaction, matching the executor's documented protocol limit.
const MaxCommands = 1024

// Command is one declared operation invocation, with its argument
// references already resolved to handles.
type Command struct {
	call *Call
	args []ArgRef
}

// Call returns the underlying operation call.
func (c *Command) Call() *Call {
	return c.call
}

// Args returns the resolved argument references.
func (c *Command) Args() []ArgRef {
	return c.args
}

// Builder accumulates the inputs and commands of one transaction and
// finalizes them into an immutable Transaction.
//
// A Builder is a short-lived, exclusively-owned accumulator: it is not safe
// for concurrent use and each instance builds exactly one transaction.
type Builder struct {
	inputs    []CallArg
	commands  []*Command
	finalized bool
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{
		inputs:   make([]CallArg, 0, 8),
		commands: make([]*Command, 0, 8),
	}
}

// Input declares a transaction input and returns its handle. Handles are
// assigned densely in declaration order and never reused; every call mints
// a fresh handle even for an identical descriptor. Handles are 16-bit, so
// a declaration past 65535 fails with ErrTransactionTooLarge rather than
// wrapping around.
func (b *Builder) Input(arg CallArg) (Input, error) {
	if b.finalized {
		return Input{}, ErrAlreadyFinalized
	}
	if arg == nil {
		return Input{}, ErrInvalidInputKind
	}
	if err := arg.validate(); err != nil {
		return Input{}, err
	}
	if len(b.inputs) > math.MaxUint16 {
		return Input{}, ErrTransactionTooLarge
	}

	b.inputs = append(b.inputs, arg)
	return Input{owner: b, index: uint16(len(b.inputs) - 1)}, nil
}

// MustInput is like Input but panics on error.
func (b *Builder) MustInput(arg CallArg) Input {
	in, err := b.Input(arg)
	if err != nil {
		panic(err)
	}
	return in
}

// Object declares an owned-object input.
func (b *Builder) Object(id common.Hash, version uint64, digest common.Hash) (Input, error) {
	return b.Input(OwnedObject{ID: id, Version: version, Digest: digest})
}

// Shared declares a shared-object input.
func (b *Builder) Shared(id common.Hash, initialVersion uint64, mutable bool) (Input, error) {
	return b.Input(SharedObject{ID: id, InitialVersion: initialVersion, Mutable: mutable})
}

// Pure declares a literal input from a plain Go value.
func (b *Builder) Pure(v any) (Input, error) {
	op, err := toOperand(v)
	if err != nil {
		return Input{}, err
	}
	arg, ok := op.(CallArg)
	if !ok || arg.Kind() != KindPure {
		return Input{}, ErrInvalidInputKind
	}
	return b.Input(arg)
}

// Command declares an operation invocation and returns one fresh Result
// handle per output the operation is declared to produce (possibly none).
//
// Every operand must resolve to a handle declared strictly earlier on this
// builder; CallArg operands are declared as fresh inputs on the spot.
// Operand kinds are checked against the function signature. Inputs
// auto-declared for earlier operands stay declared when a later operand
// fails; they surface through the unreferenced-input warning at finalize.
func (b *Builder) Command(call *Call) ([]Result, error) {
	if b.finalized {
		return nil, ErrAlreadyFinalized
	}
	idx := len(b.commands)
	if call == nil {
		return nil, &CommandError{Index: idx, Err: ErrSignatureMismatch}
	}
	if idx > math.MaxUint16 {
		return nil, &CommandError{Index: idx, Err: ErrTransactionTooLarge}
	}

	fn := call.fn
	args := make([]ArgRef, len(call.operands))
	for i, op := range call.operands {
		ref, kind, err := b.resolveOperand(op)
		if err != nil {
			return nil, &CommandError{
				Index:    idx,
				Function: fn.Qualified(),
				Err:      &ArgumentError{Function: fn.Qualified(), Index: i, Err: err},
			}
		}
		if kind != fn.Params[i] {
			return nil, &CommandError{
				Index:    idx,
				Function: fn.Qualified(),
				Err:      &ArgumentError{Function: fn.Qualified(), Index: i, Err: ErrSignatureMismatch},
			}
		}
		args[i] = ref
	}

	b.commands = append(b.commands, &Command{call: call, args: args})

	results := make([]Result, fn.Results)
	for j := range results {
		results[j] = Result{owner: b, command: uint16(idx), index: uint16(j)}
	}
	return results, nil
}

// MustCommand is like Command but panics on error.
func (b *Builder) MustCommand(call *Call) []Result {
	results, err := b.Command(call)
	if err != nil {
		panic(err)
	}
	return results
}

// resolveOperand maps an operand to its argument reference and coarse kind.
// Handle validity reduces to a bounds-and-ownership check: handles are only
// ever issued by this builder's declare calls, so any reference at or past
// the current counter (or bound to another builder) is unresolved.
func (b *Builder) resolveOperand(op Operand) (ArgRef, ArgKind, error) {
	switch v := op.(type) {
	case Input:
		if v.owner != b || int(v.index) >= len(b.inputs) {
			return ArgRef{}, 0, ErrUnresolvedReference
		}
		return ArgRef{Kind: RefInput, Index: v.index}, argKindOf(b.inputs[v.index]), nil

	case Result:
		if v.owner != b || int(v.command) >= len(b.commands) {
			return ArgRef{}, 0, ErrUnresolvedReference
		}
		if int(v.index) >= b.commands[v.command].call.fn.Results {
			return ArgRef{}, 0, ErrUnresolvedReference
		}
		return ArgRef{Kind: RefResult, Command: v.command, Index: v.index}, ArgObject, nil

	case CallArg:
		in, err := b.Input(v)
		if err != nil {
			return ArgRef{}, 0, err
		}
		return ArgRef{Kind: RefInput, Index: in.index}, argKindOf(v), nil

	default:
		return ArgRef{}, 0, ErrUnresolvedReference
	}
}

// InputCount returns the number of declared inputs.
func (b *Builder) InputCount() int {
	return len(b.inputs)
}

// CommandCount returns the number of declared commands.
func (b *Builder) CommandCount() int {
	return len(b.commands)
}

// CommandAt returns the command at the given index.
func (b *Builder) CommandAt(i int) *Command {
	if i < 0 || i >= len(b.commands) {
		return nil
	}
	return b.commands[i]
}

// Finalize consumes the builder and produces an immutable Transaction
// snapshot. It can succeed at most once; later calls (and any further
// declarations) fail with ErrAlreadyFinalized.
//
// Finalize re-verifies global well-formedness, enforces the command-count
// ceiling, and logs a warning for inputs no command references (legal, but
// usually a caller oversight).
func (b *Builder) Finalize(opts ...FinalizeOption) (*Transaction, error) {
	if b.finalized {
		return nil, ErrAlreadyFinalized
	}

	cfg := defaultFinalizeConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if len(b.commands) > cfg.maxCommands {
		return nil, ErrTransactionTooLarge
	}

	referenced := make([]bool, len(b.inputs))
	for i, cmd := range b.commands {
		for _, ref := range cmd.args {
			switch ref.Kind {
			case RefInput:
				if int(ref.Index) >= len(b.inputs) {
					return nil, &CommandError{Index: i, Function: cmd.call.fn.Qualified(), Err: ErrUnresolvedReference}
				}
				referenced[ref.Index] = true
			case RefResult:
				if int(ref.Command) >= i {
					return nil, &CommandError{Index: i, Function: cmd.call.fn.Qualified(), Err: ErrUnresolvedReference}
				}
			}
		}
	}
	for idx, used := range referenced {
		if !used {
			cfg.logger.Warn("input declared but never referenced",
				"input", idx,
				"kind", b.inputs[idx].Kind().String())
		}
	}

	b.finalized = true

	inputs := make([]CallArg, len(b.inputs))
	copy(inputs, b.inputs)

	commands := make([]CommandSpec, len(b.commands))
	for i, cmd := range b.commands {
		args := make([]ArgRef, len(cmd.args))
		copy(args, cmd.args)
		typeArgs := make([]string, len(cmd.call.typeArgs))
		copy(typeArgs, cmd.call.typeArgs)
		commands[i] = CommandSpec{
			Package:  cmd.call.pkg,
			Module:   cmd.call.fn.Module,
			Function: cmd.call.fn.Name,
			TypeArgs: typeArgs,
			Args:     args,
			Results:  uint16(cmd.call.fn.Results),
		}
	}

	return &Transaction{inputs: inputs, commands: commands}, nil
}
