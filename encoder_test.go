package ptb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// buildChallengeTx assembles the merge/merge/split/gated-call transaction
// used by the wire-format tests.
func buildChallengeTx(t *testing.T) *Transaction {
	t.Helper()

	mint := testMintPackage()
	fw := Framework()
	coinType := testPackageID.Hex() + "::mintcoin::MINTCOIN"

	b := New()
	coins := make([]Input, 3)
	for i := range coins {
		coins[i] = b.MustInput(OwnedObject{ID: common.BytesToHash([]byte{byte(i + 1)}), Version: 1})
	}
	counter := b.MustInput(SharedObject{ID: testCounterID, InitialVersion: 1, Mutable: true})

	b.MustCommand(fw.MustInvoke("join", coins[0], coins[1]).WithTypeArgs(coinType))
	b.MustCommand(fw.MustInvoke("join", coins[0], coins[2]).WithTypeArgs(coinType))
	carved := b.MustCommand(fw.MustInvoke("split", coins[0], uint64(5)).WithTypeArgs(coinType))
	b.MustCommand(mint.MustInvoke("get_flag", counter, carved[0]))

	tx, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	return tx
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := buildChallengeTx(t)

	encoded, err := tx.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !tx.Equal(decoded) {
		t.Fatal("Expected decoded transaction to equal the original")
	}

	if decoded.InputCount() != tx.InputCount() {
		t.Errorf("Expected %d inputs, got %d", tx.InputCount(), decoded.InputCount())
	}
	if decoded.CommandCount() != tx.CommandCount() {
		t.Errorf("Expected %d commands, got %d", tx.CommandCount(), decoded.CommandCount())
	}

	for i := 0; i < tx.InputCount(); i++ {
		if decoded.InputAt(i).Kind() != tx.InputAt(i).Kind() {
			t.Errorf("Input %d: expected kind %v, got %v", i, tx.InputAt(i).Kind(), decoded.InputAt(i).Kind())
		}
	}

	for i := 0; i < tx.CommandCount(); i++ {
		want, _ := tx.CommandAt(i)
		got, _ := decoded.CommandAt(i)
		if got.Qualified() != want.Qualified() {
			t.Errorf("Command %d: expected %s, got %s", i, want.Qualified(), got.Qualified())
		}
		if got.Package != want.Package {
			t.Errorf("Command %d: package mismatch", i)
		}
		if got.Results != want.Results {
			t.Errorf("Command %d: expected %d results, got %d", i, want.Results, got.Results)
		}
		if len(got.Args) != len(want.Args) {
			t.Fatalf("Command %d: expected %d args, got %d", i, len(want.Args), len(got.Args))
		}
		for j := range want.Args {
			if got.Args[j] != want.Args[j] {
				t.Errorf("Command %d arg %d: expected %s, got %s", i, j, want.Args[j], got.Args[j])
			}
		}
	}

	// Pure data survives the trip byte-for-byte.
	amount, ok := decoded.InputAt(4).(Pure)
	if !ok {
		t.Fatalf("Expected input 4 to be pure, got %T", decoded.InputAt(4))
	}
	if !bytes.Equal(amount.Data(), PureUint64(5).Data()) {
		t.Errorf("Expected amount bytes %v, got %v", PureUint64(5).Data(), amount.Data())
	}
}

func TestTransactionDeterminism(t *testing.T) {
	t.Run("same call sequence yields the same digest", func(t *testing.T) {
		first := buildChallengeTx(t)
		second := buildChallengeTx(t)

		d1, err := first.Digest()
		if err != nil {
			t.Fatalf("Digest failed: %v", err)
		}
		d2, err := second.Digest()
		if err != nil {
			t.Fatalf("Digest failed: %v", err)
		}
		if d1 != d2 {
			t.Errorf("Expected identical digests, got %s and %s", d1.Hex(), d2.Hex())
		}
	})

	t.Run("different sequences diverge", func(t *testing.T) {
		first := buildChallengeTx(t)

		b := New()
		b.MustInput(PureUint64(1))
		other, err := b.Finalize(WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}

		d1, _ := first.Digest()
		d2, _ := other.Digest()
		if d1 == d2 {
			t.Error("Expected different digests for different transactions")
		}
	})
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", []byte{0xc1}},
		{"not rlp", []byte("hello world")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if err == nil {
				t.Fatal("Expected decode error")
			}
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Errorf("Expected *EncodingError, got %T", err)
			}
		})
	}
}

func TestTransactionEqual(t *testing.T) {
	tx := buildChallengeTx(t)

	if tx.Equal(nil) {
		t.Error("Expected Equal(nil) to be false")
	}
	if !tx.Equal(tx) {
		t.Error("Expected a transaction to equal itself")
	}
}
