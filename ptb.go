// Package ptb provides a programmable transaction builder for composing
// atomic multi-command transactions against a Move-style object ledger.
//
// A transaction is assembled from two ordered lists: inputs (literal values
// and object references) and commands (invocations of named primitive
// operations). Commands reference inputs or the outputs of earlier commands
// by positional handle, forming a value-flow DAG whose topological order is
// the declaration order. The finished transaction executes as a single
// atomic unit: either every command takes effect or none do.
//
// # Basic Usage
//
// Create a builder, declare inputs, chain commands, and finalize:
//
//	coins := ptb.NewPackage(packageID,
//	    ptb.Function{Module: "mintcoin", Name: "mint_coin",
//	        Params: []ptb.ArgKind{ptb.ArgObject}, Results: 1},
//	)
//
//	b := ptb.New()
//	treasury, _ := b.Shared(treasuryID, 1, true)
//	coin, _ := b.Command(coins.MustInvoke("mint_coin", treasury))
//	b.MustCommand(ptb.Framework().MustInvoke("split", coin[0], uint64(5)))
//
//	tx, err := b.Finalize()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The builder is a short-lived, single-threaded accumulator: it is owned by
// one goroutine for the duration of one transaction's construction and is
// consumed by Finalize.
//
// # Handles
//
// Input and output handles are dense, zero-based, and assigned in
// declaration order. A handle is only usable on the builder that issued it,
// and only by commands declared after it exists. Violations surface as
// ErrUnresolvedReference at declaration time, before anything reaches an
// executor.
//
// # Wire Form
//
// Finalized transactions encode to a deterministic RLP byte form with a
// keccak digest, so the same sequence of builder calls always produces the
// same artifact. See Transaction.Encode and Decode.
package ptb
