package executor

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// GenesisObject is one bootstrap object declaration.
type GenesisObject struct {
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind"`
	Balance uint64 `yaml:"balance"`
	Shared  bool   `yaml:"shared"`
}

// Genesis is the ledger's bootstrap state: the objects that exist before
// any transaction runs, such as the treasury cap and the shared counter.
type Genesis struct {
	Objects []GenesisObject `yaml:"objects"`
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}
	return ParseGenesis(data)
}

// ParseGenesis parses and validates genesis YAML.
func ParseGenesis(data []byte) (*Genesis, error) {
	var g Genesis
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse genesis: %w", err)
	}
	for i, obj := range g.Objects {
		if _, err := parseGenesisID(obj.ID); err != nil {
			return nil, fmt.Errorf("genesis object %d: %w", i, err)
		}
		switch obj.Kind {
		case KindCoin, KindTreasury, KindCounter:
		default:
			return nil, fmt.Errorf("genesis object %d: unknown kind %q", i, obj.Kind)
		}
	}
	return &g, nil
}

// Bootstrap inserts the genesis objects into the ledger at version 1.
func (l *Ledger) Bootstrap(ctx context.Context, g *Genesis) error {
	for i, decl := range g.Objects {
		id, err := parseGenesisID(decl.ID)
		if err != nil {
			return fmt.Errorf("genesis object %d: %w", i, err)
		}
		obj := Object{
			ID:      id,
			Version: 1,
			Kind:    decl.Kind,
			Balance: decl.Balance,
			Shared:  decl.Shared,
		}
		if err := l.CreateObject(ctx, obj); err != nil {
			return fmt.Errorf("genesis object %d: %w", i, err)
		}
	}
	l.log.Info("genesis applied", "objects", len(g.Objects))
	return nil
}

func parseGenesisID(s string) (common.Hash, error) {
	if s == "" {
		return common.Hash{}, fmt.Errorf("object id is required")
	}
	h := strings.TrimPrefix(s, "0x")
	if len(h)%2 == 1 {
		h = "0" + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return common.Hash{}, fmt.Errorf("object id %q is not hex: %w", s, err)
	}
	if len(raw) > common.HashLength {
		return common.Hash{}, fmt.Errorf("object id %q is longer than 32 bytes", s)
	}
	id := common.BytesToHash(raw)
	if id == (common.Hash{}) {
		return common.Hash{}, fmt.Errorf("object id %q is zero", s)
	}
	return id, nil
}
