package ptb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// InputKind identifies the kind of a declared transaction input.
type InputKind uint8

const (
	// KindPure is a literal value known at build time.
	KindPure InputKind = iota

	// KindOwnedObject references an exclusively-owned object at a
	// specific version.
	KindOwnedObject

	// KindSharedObject references a shared object by identity.
	KindSharedObject
)

// String returns a human-readable kind name.
func (k InputKind) String() string {
	switch k {
	case KindPure:
		return "pure"
	case KindOwnedObject:
		return "owned-object"
	case KindSharedObject:
		return "shared-object"
	default:
		return fmt.Sprintf("input-kind(%d)", uint8(k))
	}
}

// CallArg describes one transaction input: a literal value or an object
// reference. This is a sealed interface - only types within this package
// can implement it.
type CallArg interface {
	isCallArg()
	isOperand()

	// Kind returns the input kind of this descriptor.
	Kind() InputKind

	// validate performs the basic shape check done at declaration time.
	validate() error
}

// Pure is a literal input carrying canonically encoded bytes.
// Construct with PureUint64, PureBool, PureBytes, PureString, PureAddress,
// or NewPure for pre-encoded data.
type Pure struct {
	data []byte
}

func (Pure) isCallArg() {}
func (Pure) isOperand() {}

// Kind returns KindPure.
func (Pure) Kind() InputKind { return KindPure }

// Data returns the encoded literal bytes.
func (p Pure) Data() []byte { return p.data }

func (p Pure) validate() error {
	if p.data == nil {
		return ErrInvalidInputKind
	}
	return nil
}

// NewPure creates a literal input from pre-encoded bytes.
// The slice is copied so the input stays immutable after declaration.
func NewPure(data []byte) Pure {
	return Pure{data: bytes.Clone(data)}
}

// PureUint64 encodes v as 8 little-endian bytes.
func PureUint64(v uint64) Pure {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, v)
	return Pure{data: data}
}

// PureBool encodes v as a single 0x00 or 0x01 byte.
func PureBool(v bool) Pure {
	if v {
		return Pure{data: []byte{1}}
	}
	return Pure{data: []byte{0}}
}

// PureBytes encodes v as a ULEB128 length prefix followed by the raw bytes.
func PureBytes(v []byte) Pure {
	data := appendULEB128(make([]byte, 0, len(v)+2), uint64(len(v)))
	return Pure{data: append(data, v...)}
}

// PureString encodes v like PureBytes over its UTF-8 bytes.
func PureString(v string) Pure {
	return PureBytes([]byte(v))
}

// PureAddress encodes a 32-byte object or account identity.
func PureAddress(v common.Hash) Pure {
	return Pure{data: bytes.Clone(v[:])}
}

// appendULEB128 appends the unsigned LEB128 encoding of v to data.
func appendULEB128(data []byte, v uint64) []byte {
	for v >= 0x80 {
		data = append(data, byte(v)|0x80)
		v >>= 7
	}
	return append(data, byte(v))
}

// OwnedObject references an exclusively-owned object by identity and
// version. The digest pins the exact object state the transaction was
// built against.
type OwnedObject struct {
	ID      common.Hash
	Version uint64
	Digest  common.Hash
}

func (OwnedObject) isCallArg() {}
func (OwnedObject) isOperand() {}

// Kind returns KindOwnedObject.
func (OwnedObject) Kind() InputKind { return KindOwnedObject }

func (o OwnedObject) validate() error {
	if o.ID == (common.Hash{}) {
		return ErrInvalidInputKind
	}
	return nil
}

// SharedObject references a shared object by identity. InitialVersion is
// the version at which the object became shared; Mutable declares whether
// the transaction intends to mutate it.
type SharedObject struct {
	ID             common.Hash
	InitialVersion uint64
	Mutable        bool
}

func (SharedObject) isCallArg() {}
func (SharedObject) isOperand() {}

// Kind returns KindSharedObject.
func (SharedObject) Kind() InputKind { return KindSharedObject }

func (s SharedObject) validate() error {
	if s.ID == (common.Hash{}) {
		return ErrInvalidInputKind
	}
	return nil
}

// argKindOf maps a declared input to the coarse argument kind used for
// signature checking.
func argKindOf(arg CallArg) ArgKind {
	if arg.Kind() == KindPure {
		return ArgPure
	}
	return ArgObject
}
