package ptb

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testPackageID  = common.HexToHash("0xc6")
	testTreasuryID = common.HexToHash("0x11")
	testCounterID  = common.HexToHash("0xc3")
	testCoinID     = common.HexToHash("0x77")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testMintPackage declares the challenge operations used across the tests.
func testMintPackage() *Package {
	return NewPackage(testPackageID,
		Function{Module: "mintcoin", Name: "mint_coin", Params: []ArgKind{ArgObject}, Results: 1},
		Function{Module: "mintcoin", Name: "get_flag", Params: []ArgKind{ArgObject, ArgObject}},
	)
}

func TestBuilderInput(t *testing.T) {
	t.Run("handles are dense and strictly increasing", func(t *testing.T) {
		b := New()

		in0, err := b.Shared(testTreasuryID, 1, true)
		if err != nil {
			t.Fatalf("Shared failed: %v", err)
		}
		in1, err := b.Object(testCoinID, 3, common.Hash{})
		if err != nil {
			t.Fatalf("Object failed: %v", err)
		}
		in2, err := b.Pure(uint64(5))
		if err != nil {
			t.Fatalf("Pure failed: %v", err)
		}

		for i, in := range []Input{in0, in1, in2} {
			if int(in.Index()) != i {
				t.Errorf("Expected handle %d, got %d", i, in.Index())
			}
		}
		if b.InputCount() != 3 {
			t.Errorf("Expected 3 inputs, got %d", b.InputCount())
		}
	})

	t.Run("identical descriptors still mint fresh handles", func(t *testing.T) {
		b := New()
		first := b.MustInput(PureUint64(5))
		second := b.MustInput(PureUint64(5))

		if first.Index() == second.Index() {
			t.Error("Expected distinct handles for repeated declarations")
		}
	})

	t.Run("nil input is rejected", func(t *testing.T) {
		b := New()
		if _, err := b.Input(nil); !errors.Is(err, ErrInvalidInputKind) {
			t.Errorf("Expected ErrInvalidInputKind, got %v", err)
		}
	})

	t.Run("zero-identity owned object is rejected", func(t *testing.T) {
		b := New()
		if _, err := b.Object(common.Hash{}, 1, common.Hash{}); !errors.Is(err, ErrInvalidInputKind) {
			t.Errorf("Expected ErrInvalidInputKind, got %v", err)
		}
	})

	t.Run("zero-identity shared object is rejected", func(t *testing.T) {
		b := New()
		if _, err := b.Shared(common.Hash{}, 1, true); !errors.Is(err, ErrInvalidInputKind) {
			t.Errorf("Expected ErrInvalidInputKind, got %v", err)
		}
	})

	t.Run("unsupported literal type is rejected", func(t *testing.T) {
		b := New()
		if _, err := b.Pure(3.14); !errors.Is(err, ErrInvalidInputKind) {
			t.Errorf("Expected ErrInvalidInputKind, got %v", err)
		}
	})

	t.Run("failed declaration does not consume a handle", func(t *testing.T) {
		b := New()
		b.MustInput(PureUint64(1))
		if _, err := b.Input(nil); err == nil {
			t.Fatal("Expected error")
		}
		in := b.MustInput(PureUint64(2))
		if in.Index() != 1 {
			t.Errorf("Expected handle 1, got %d", in.Index())
		}
	})

	t.Run("declarations past the handle space are rejected, never reused", func(t *testing.T) {
		b := New()
		var last Input
		for i := 0; i <= math.MaxUint16; i++ {
			in, err := b.Input(PureUint64(uint64(i)))
			if err != nil {
				t.Fatalf("Input %d failed: %v", i, err)
			}
			last = in
		}
		if int(last.Index()) != math.MaxUint16 {
			t.Fatalf("Expected final handle %d, got %d", math.MaxUint16, last.Index())
		}

		if _, err := b.Input(PureUint64(0)); !errors.Is(err, ErrTransactionTooLarge) {
			t.Errorf("Expected ErrTransactionTooLarge, got %v", err)
		}
		if b.InputCount() != math.MaxUint16+1 {
			t.Errorf("Expected the rejected declaration to leave %d inputs, got %d", math.MaxUint16+1, b.InputCount())
		}
	})
}

func TestBuilderCommand(t *testing.T) {
	mint := testMintPackage()
	fw := Framework()

	t.Run("results match the declared output count", func(t *testing.T) {
		b := New()
		treasury := b.MustInput(SharedObject{ID: testTreasuryID, InitialVersion: 1, Mutable: true})

		coin, err := b.Command(mint.MustInvoke("mint_coin", treasury))
		if err != nil {
			t.Fatalf("Command failed: %v", err)
		}
		if len(coin) != 1 {
			t.Fatalf("Expected 1 result, got %d", len(coin))
		}
		if coin[0].Command() != 0 || coin[0].Index() != 0 {
			t.Errorf("Expected result(0,0), got %s", coin[0])
		}
	})

	t.Run("no results for zero-output operations", func(t *testing.T) {
		b := New()
		a := b.MustInput(OwnedObject{ID: testCoinID, Version: 1})
		c := b.MustInput(OwnedObject{ID: testCounterID, Version: 1})

		results, err := b.Command(fw.MustInvoke("join", a, c))
		if err != nil {
			t.Fatalf("Command failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected no results, got %d", len(results))
		}
	})

	t.Run("later command consumes earlier output", func(t *testing.T) {
		b := New()
		treasury := b.MustInput(SharedObject{ID: testTreasuryID, InitialVersion: 1, Mutable: true})
		coin := b.MustCommand(mint.MustInvoke("mint_coin", treasury))

		carved, err := b.Command(fw.MustInvoke("split", coin[0], uint64(5)))
		if err != nil {
			t.Fatalf("Command failed: %v", err)
		}
		if carved[0].Command() != 1 {
			t.Errorf("Expected result from command 1, got %d", carved[0].Command())
		}
	})

	t.Run("reference before any declaration fails", func(t *testing.T) {
		// An empty builder given a handle from an unrelated builder:
		// the very first command must already fail.
		other := New()
		foreign := other.MustInput(OwnedObject{ID: testCoinID, Version: 1})

		b := New()
		_, err := b.Command(fw.MustInvoke("split", foreign, uint64(5)))
		if !errors.Is(err, ErrUnresolvedReference) {
			t.Fatalf("Expected ErrUnresolvedReference, got %v", err)
		}

		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatal("Expected a *CommandError")
		}
		if cmdErr.Index != 0 {
			t.Errorf("Expected failure at command 0, got %d", cmdErr.Index)
		}
	})

	t.Run("zero-value handle fails", func(t *testing.T) {
		b := New()
		b.MustInput(OwnedObject{ID: testCoinID, Version: 1})

		_, err := b.Command(fw.MustInvoke("split", Input{}, uint64(5)))
		if !errors.Is(err, ErrUnresolvedReference) {
			t.Errorf("Expected ErrUnresolvedReference, got %v", err)
		}
	})

	t.Run("foreign result handle fails", func(t *testing.T) {
		other := New()
		treasury := other.MustInput(SharedObject{ID: testTreasuryID, InitialVersion: 1, Mutable: true})
		coin := other.MustCommand(mint.MustInvoke("mint_coin", treasury))

		b := New()
		a := b.MustInput(OwnedObject{ID: testCoinID, Version: 1})
		_, err := b.Command(fw.MustInvoke("join", a, coin[0]))
		if !errors.Is(err, ErrUnresolvedReference) {
			t.Errorf("Expected ErrUnresolvedReference, got %v", err)
		}
	})

	t.Run("kind mismatch fails", func(t *testing.T) {
		b := New()
		amount := b.MustInput(PureUint64(5))

		// split expects an object first, a literal second.
		_, err := b.Command(fw.MustInvoke("split", amount, uint64(5)))
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Errorf("Expected ErrSignatureMismatch, got %v", err)
		}
	})

	t.Run("arity mismatch fails at invoke time", func(t *testing.T) {
		_, err := fw.Invoke("join", PureUint64(1))
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Errorf("Expected ErrSignatureMismatch, got %v", err)
		}
	})

	t.Run("unknown function fails at invoke time", func(t *testing.T) {
		_, err := fw.Invoke("burn", PureUint64(1))
		var nfErr *FunctionNotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("Expected *FunctionNotFoundError, got %v", err)
		}
		if nfErr.Function != "burn" {
			t.Errorf("Expected function name burn, got %q", nfErr.Function)
		}
	})

	t.Run("literal operands are declared as fresh inputs", func(t *testing.T) {
		b := New()
		a := b.MustInput(OwnedObject{ID: testCoinID, Version: 1})
		if b.InputCount() != 1 {
			t.Fatalf("Expected 1 input, got %d", b.InputCount())
		}

		b.MustCommand(fw.MustInvoke("split", a, uint64(5)))
		if b.InputCount() != 2 {
			t.Errorf("Expected literal to be auto-declared, have %d inputs", b.InputCount())
		}
	})

	t.Run("auto-declared literal survives a later failing operand", func(t *testing.T) {
		pkg := NewPackage(testPackageID,
			Function{Module: "mintcoin", Name: "tagged_mint", Params: []ArgKind{ArgPure, ArgObject}, Results: 1},
		)

		b := New()
		_, err := b.Command(pkg.MustInvoke("tagged_mint", uint64(7), Input{}))
		if !errors.Is(err, ErrUnresolvedReference) {
			t.Fatalf("Expected ErrUnresolvedReference, got %v", err)
		}
		if b.CommandCount() != 0 {
			t.Errorf("Expected no command to be declared, got %d", b.CommandCount())
		}
		// The literal declared for the first operand stays; finalize
		// flags it as unreferenced rather than rejecting.
		if b.InputCount() != 1 {
			t.Fatalf("Expected the auto-declared literal to survive, got %d inputs", b.InputCount())
		}
		tx, err := b.Finalize(WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if tx.InputCount() != 1 {
			t.Errorf("Expected 1 input in the snapshot, got %d", tx.InputCount())
		}
	})

	t.Run("commands past the handle space are rejected", func(t *testing.T) {
		b := New()
		a := b.MustInput(OwnedObject{ID: testCoinID, Version: 1})
		amount := b.MustInput(PureUint64(1))

		for i := 0; i <= math.MaxUint16; i++ {
			if _, err := b.Command(fw.MustInvoke("split", a, amount)); err != nil {
				t.Fatalf("Command %d failed: %v", i, err)
			}
		}
		if _, err := b.Command(fw.MustInvoke("split", a, amount)); !errors.Is(err, ErrTransactionTooLarge) {
			t.Errorf("Expected ErrTransactionTooLarge, got %v", err)
		}
		if b.CommandCount() != math.MaxUint16+1 {
			t.Errorf("Expected %d commands, got %d", math.MaxUint16+1, b.CommandCount())
		}
	})
}

func TestBuilderFinalize(t *testing.T) {
	fw := Framework()

	t.Run("second finalize fails", func(t *testing.T) {
		b := New()
		if _, err := b.Finalize(); err != nil {
			t.Fatalf("First finalize failed: %v", err)
		}
		if _, err := b.Finalize(); !errors.Is(err, ErrAlreadyFinalized) {
			t.Errorf("Expected ErrAlreadyFinalized, got %v", err)
		}
	})

	t.Run("declarations after finalize fail", func(t *testing.T) {
		b := New()
		if _, err := b.Finalize(); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if _, err := b.Input(PureUint64(1)); !errors.Is(err, ErrAlreadyFinalized) {
			t.Errorf("Expected ErrAlreadyFinalized on Input, got %v", err)
		}
		if _, err := b.Command(fw.MustInvoke("split", Input{}, uint64(1))); !errors.Is(err, ErrAlreadyFinalized) {
			t.Errorf("Expected ErrAlreadyFinalized on Command, got %v", err)
		}
	})

	t.Run("command limit is enforced", func(t *testing.T) {
		b := New()
		a := b.MustInput(OwnedObject{ID: testCoinID, Version: 1})
		b.MustCommand(fw.MustInvoke("split", a, uint64(1)))
		b.MustCommand(fw.MustInvoke("split", a, uint64(1)))

		if _, err := b.Finalize(WithMaxCommands(1)); !errors.Is(err, ErrTransactionTooLarge) {
			t.Errorf("Expected ErrTransactionTooLarge, got %v", err)
		}
	})

	t.Run("unreferenced inputs are logged, not rejected", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		b := New()
		b.MustInput(PureUint64(7))

		tx, err := b.Finalize(WithLogger(logger))
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if tx.InputCount() != 1 {
			t.Errorf("Expected the unused input to survive, got %d inputs", tx.InputCount())
		}
		if !strings.Contains(buf.String(), "never referenced") {
			t.Errorf("Expected a warning about the unused input, log was: %s", buf.String())
		}
	})

	t.Run("snapshot preserves declaration order", func(t *testing.T) {
		mint := testMintPackage()

		b := New()
		coins := make([]Input, 3)
		for i := range coins {
			coins[i] = b.MustInput(OwnedObject{ID: common.BytesToHash([]byte{byte(i + 1)}), Version: 1})
		}
		counter := b.MustInput(SharedObject{ID: testCounterID, InitialVersion: 1, Mutable: true})

		b.MustCommand(fw.MustInvoke("join", coins[0], coins[1]))
		b.MustCommand(fw.MustInvoke("join", coins[0], coins[2]))
		carved := b.MustCommand(fw.MustInvoke("split", coins[0], uint64(5)))
		b.MustCommand(mint.MustInvoke("get_flag", counter, carved[0]))

		tx, err := b.Finalize()
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}

		// 3 coins + counter + the auto-declared split amount.
		if tx.InputCount() != 5 {
			t.Fatalf("Expected 5 inputs, got %d", tx.InputCount())
		}
		if tx.CommandCount() != 4 {
			t.Fatalf("Expected 4 commands, got %d", tx.CommandCount())
		}

		split, _ := tx.CommandAt(2)
		if split.Qualified() != "coin::split" {
			t.Errorf("Expected coin::split at index 2, got %s", split.Qualified())
		}
		if split.Args[0] != (ArgRef{Kind: RefInput, Index: 0}) {
			t.Errorf("Expected split source input(0), got %s", split.Args[0])
		}
		if split.Args[1] != (ArgRef{Kind: RefInput, Index: 4}) {
			t.Errorf("Expected split amount input(4), got %s", split.Args[1])
		}

		gated, _ := tx.CommandAt(3)
		if gated.Args[1] != (ArgRef{Kind: RefResult, Command: 2, Index: 0}) {
			t.Errorf("Expected gated call to consume result(2,0), got %s", gated.Args[1])
		}
	})
}
