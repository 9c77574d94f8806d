package ptb

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TransactionVersion is the wire-format version tag.
const TransactionVersion = 1

// Wire structs mirror the transaction shape with only RLP-friendly field
// types. One input struct covers all three kinds; unused fields stay zero.
type wireInput struct {
	Kind    uint8
	ID      common.Hash
	Version uint64
	Mutable bool
	Data    []byte
}

type wireRef struct {
	Kind    uint8
	Command uint16
	Index   uint16
}

type wireCommand struct {
	Package  common.Hash
	Module   string
	Function string
	TypeArgs []string
	Args     []wireRef
	Results  uint16
}

type wireTransaction struct {
	Version  uint8
	Inputs   []wireInput
	Commands []wireCommand
}

// Encode serializes the transaction to its deterministic RLP wire form.
// The same sequence of builder calls always yields identical bytes.
func (t *Transaction) Encode() ([]byte, error) {
	wire := wireTransaction{
		Version:  TransactionVersion,
		Inputs:   make([]wireInput, len(t.inputs)),
		Commands: make([]wireCommand, len(t.commands)),
	}

	for i, in := range t.inputs {
		switch arg := in.(type) {
		case Pure:
			wire.Inputs[i] = wireInput{Kind: uint8(KindPure), Data: arg.data}
		case OwnedObject:
			wire.Inputs[i] = wireInput{Kind: uint8(KindOwnedObject), ID: arg.ID, Version: arg.Version, Data: arg.Digest.Bytes()}
		case SharedObject:
			wire.Inputs[i] = wireInput{Kind: uint8(KindSharedObject), ID: arg.ID, Version: arg.InitialVersion, Mutable: arg.Mutable}
		default:
			return nil, &EncodingError{Value: in, Err: ErrInvalidInputKind}
		}
	}

	for i, cmd := range t.commands {
		args := make([]wireRef, len(cmd.Args))
		for j, ref := range cmd.Args {
			args[j] = wireRef{Kind: uint8(ref.Kind), Command: ref.Command, Index: ref.Index}
		}
		wire.Commands[i] = wireCommand{
			Package:  cmd.Package,
			Module:   cmd.Module,
			Function: cmd.Function,
			TypeArgs: cmd.TypeArgs,
			Args:     args,
			Results:  cmd.Results,
		}
	}

	encoded, err := rlp.EncodeToBytes(&wire)
	if err != nil {
		return nil, &EncodingError{Value: t, Err: err}
	}
	return encoded, nil
}

// Digest returns the keccak256 hash of the wire form, identifying the
// transaction.
func (t *Transaction) Digest() (common.Hash, error) {
	encoded, err := t.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// Decode parses a serialized transaction back into its structural form.
// Decoding a transaction produced by Encode yields a structurally identical
// input and command list.
func Decode(data []byte) (*Transaction, error) {
	var wire wireTransaction
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, &EncodingError{Value: data, Err: err}
	}
	if wire.Version != TransactionVersion {
		return nil, &EncodingError{
			Value: data,
			Err:   fmt.Errorf("unsupported transaction version %d", wire.Version),
		}
	}

	tx := &Transaction{
		inputs:   make([]CallArg, len(wire.Inputs)),
		commands: make([]CommandSpec, len(wire.Commands)),
	}

	for i, in := range wire.Inputs {
		switch InputKind(in.Kind) {
		case KindPure:
			pureData := in.Data
			if pureData == nil {
				pureData = []byte{}
			}
			tx.inputs[i] = Pure{data: pureData}
		case KindOwnedObject:
			tx.inputs[i] = OwnedObject{ID: in.ID, Version: in.Version, Digest: common.BytesToHash(in.Data)}
		case KindSharedObject:
			tx.inputs[i] = SharedObject{ID: in.ID, InitialVersion: in.Version, Mutable: in.Mutable}
		default:
			return nil, &EncodingError{Value: data, Err: ErrInvalidInputKind}
		}
	}

	for i, cmd := range wire.Commands {
		args := make([]ArgRef, len(cmd.Args))
		for j, ref := range cmd.Args {
			if RefKind(ref.Kind) != RefInput && RefKind(ref.Kind) != RefResult {
				return nil, &EncodingError{Value: data, Err: ErrUnresolvedReference}
			}
			args[j] = ArgRef{Kind: RefKind(ref.Kind), Command: ref.Command, Index: ref.Index}
		}
		tx.commands[i] = CommandSpec{
			Package:  cmd.Package,
			Module:   cmd.Module,
			Function: cmd.Function,
			TypeArgs: cmd.TypeArgs,
			Args:     args,
			Results:  cmd.Results,
		}
	}

	return tx, nil
}

// Equal reports whether two transactions have identical wire forms.
func (t *Transaction) Equal(other *Transaction) bool {
	if other == nil {
		return false
	}
	a, err := t.Encode()
	if err != nil {
		return false
	}
	b, err := other.Encode()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}
