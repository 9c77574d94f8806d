package ptb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ArgKind is the coarse value kind an operation parameter accepts.
type ArgKind uint8

const (
	// ArgPure accepts a literal input.
	ArgPure ArgKind = iota

	// ArgObject accepts an object input or a command output.
	ArgObject
)

// String returns a human-readable kind name.
func (k ArgKind) String() string {
	switch k {
	case ArgPure:
		return "pure"
	case ArgObject:
		return "object"
	default:
		return fmt.Sprintf("arg-kind(%d)", uint8(k))
	}
}

// Function declares the call shape of one primitive operation: its
// qualified name, the ordered parameter kinds, and how many output values
// it produces.
type Function struct {
	Module  string
	Name    string
	Params  []ArgKind
	Results int
}

// Qualified returns the module-qualified function name.
func (f Function) Qualified() string {
	return f.Module + "::" + f.Name
}

// Package wraps an on-chain package and its declared functions for use with
// the Builder. The package defines call shapes only; the operations'
// internal logic lives with the executor.
type Package struct {
	id        common.Hash
	functions map[string]Function
}

// NewPackage creates a Package wrapper from a set of function declarations.
// Functions are looked up by bare name, so names must be unique across the
// package's modules.
func NewPackage(id common.Hash, functions ...Function) *Package {
	p := &Package{
		id:        id,
		functions: make(map[string]Function, len(functions)),
	}
	for _, fn := range functions {
		p.functions[fn.Name] = fn
	}
	return p
}

// ID returns the package identity.
func (p *Package) ID() common.Hash {
	return p.id
}

// Function returns the declared function with the given name.
func (p *Package) Function(name string) (Function, bool) {
	fn, ok := p.functions[name]
	return fn, ok
}

// HasFunction returns true if the package declares the named function.
func (p *Package) HasFunction(name string) bool {
	_, ok := p.functions[name]
	return ok
}

// FunctionNames returns all declared function names.
func (p *Package) FunctionNames() []string {
	names := make([]string, 0, len(p.functions))
	for name := range p.functions {
		names = append(names, name)
	}
	return names
}

// Invoke creates a Call for the named function with the given arguments.
// Arguments can be Input/Result handles, CallArg descriptors, or plain Go
// values (converted to Pure literals). The argument count must match the
// declared signature; kind checking happens when the call is added to a
// builder.
func (p *Package) Invoke(name string, args ...any) (*Call, error) {
	fn, ok := p.functions[name]
	if !ok {
		return nil, &FunctionNotFoundError{Package: p.id, Function: name}
	}

	if len(args) != len(fn.Params) {
		return nil, &ArgumentError{
			Function: fn.Qualified(),
			Index:    len(args),
			Err:      ErrSignatureMismatch,
		}
	}

	operands := make([]Operand, len(args))
	for i, arg := range args {
		op, err := toOperand(arg)
		if err != nil {
			return nil, &ArgumentError{
				Function: fn.Qualified(),
				Index:    i,
				Err:      err,
			}
		}
		operands[i] = op
	}

	return &Call{
		pkg:      p.id,
		fn:       fn,
		operands: operands,
	}, nil
}

// MustInvoke is like Invoke but panics on error.
func (p *Package) MustInvoke(name string, args ...any) *Call {
	call, err := p.Invoke(name, args...)
	if err != nil {
		panic(err)
	}
	return call
}

// Call represents a pending operation invocation that can be added to a
// Builder. Call is immutable - modifier methods return new instances.
type Call struct {
	pkg      common.Hash
	fn       Function
	typeArgs []string
	operands []Operand
}

// Package returns the target package identity.
func (c *Call) Package() common.Hash {
	return c.pkg
}

// Function returns the declared function signature for this call.
func (c *Call) Function() Function {
	return c.fn
}

// TypeArgs returns the type arguments, if any.
func (c *Call) TypeArgs() []string {
	return c.typeArgs
}

// Operands returns the argument operands for this call.
func (c *Call) Operands() []Operand {
	return c.operands
}

// WithTypeArgs attaches type arguments to the call.
//
// Returns a new Call with the type arguments set.
func (c *Call) WithTypeArgs(tags ...string) *Call {
	clone := c.clone()
	clone.typeArgs = make([]string, len(tags))
	copy(clone.typeArgs, tags)
	return clone
}

// clone creates a shallow copy of the Call.
func (c *Call) clone() *Call {
	clone := *c
	clone.operands = make([]Operand, len(c.operands))
	copy(clone.operands, c.operands)
	return &clone
}

// FrameworkPackageID is the well-known package hosting the framework's
// value-bearing object operations.
var FrameworkPackageID = common.HexToHash("0x2")

// Framework returns a Package wrapper for the framework operations:
//
//   - join(target, victim): absorbs victim's value into target. Produces no
//     output; the first argument continues as the surviving object.
//   - split(source, amount): carves amount off source, producing one fresh
//     value-bearing object.
func Framework() *Package {
	return NewPackage(FrameworkPackageID,
		Function{
			Module: "coin",
			Name:   "join",
			Params: []ArgKind{ArgObject, ArgObject},
		},
		Function{
			Module:  "coin",
			Name:    "split",
			Params:  []ArgKind{ArgObject, ArgPure},
			Results: 1,
		},
	)
}
