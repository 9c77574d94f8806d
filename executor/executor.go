// Package executor provides the atomic-submission side of the programmable
// transaction model: the Executor contract consumed by builders, and a
// SQLite-backed reference Ledger implementing the primitive operations.
//
// An Executor applies a finalized transaction as a single atomic unit. It
// executes commands strictly in declaration order; if any command's
// preconditions fail, no command in the transaction takes effect, including
// earlier ones that succeeded in isolation. On success every declared
// output resolves to a concrete object and all mutations are durably
// applied together.
package executor

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	ptb "github.com/branched-services/go-ptb"
)

// Executor applies finalized transactions to an object store with
// all-or-nothing semantics.
type Executor interface {
	// Execute applies the transaction atomically. On rejection it
	// returns a *RejectionError and the store is unchanged.
	Execute(ctx context.Context, tx *ptb.Transaction) (*Effects, error)
}

// ObjectRef identifies an object at a specific version.
type ObjectRef struct {
	ID      common.Hash
	Version uint64
}

// Event is an observation emitted by a command during execution.
type Event struct {
	Function string
	Message  string
}

// Effects describes the materialized outcome of a committed transaction.
type Effects struct {
	// Digest identifies the executed transaction.
	Digest common.Hash

	// Created, Mutated, and Deleted list the object changes the commit
	// applied.
	Created []ObjectRef
	Mutated []ObjectRef
	Deleted []common.Hash

	// Results holds, per command, the objects its output handles
	// resolved to. Commands with no outputs have a nil entry.
	Results [][]ObjectRef

	// Events are the observations emitted during execution, in order.
	Events []Event
}

// Object is one row of the ledger's object store.
type Object struct {
	ID      common.Hash
	Version uint64
	Kind    string
	Balance uint64
	Shared  bool
}

// Object kinds understood by the reference ledger.
const (
	// KindCoin is a fungible value-bearing object.
	KindCoin = "coin"

	// KindTreasury is the minting authority; its balance is the fixed
	// denomination each mint produces.
	KindTreasury = "treasury"

	// KindCounter is the shared counter bumped by successful gated
	// calls; its balance counts them.
	KindCounter = "counter"
)
