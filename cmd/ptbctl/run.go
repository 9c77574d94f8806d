package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	ptb "github.com/branched-services/go-ptb"
	"github.com/branched-services/go-ptb/executor"
)

func newRunCommand(cfg *config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the mint, merge, split, gated-call flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, cfg, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the chained transaction's wire form (hex) to a file")

	return cmd
}

func runFlow(cmd *cobra.Command, cfg *config, outPath string) error {
	ctx := cmd.Context()

	packageID := common.HexToHash(cfg.PackageID)
	treasuryID := common.HexToHash(cfg.TreasuryID)
	counterID := common.HexToHash(cfg.CounterID)

	ledger, err := executor.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	// Bootstrap on first use only.
	if _, err := ledger.GetObject(ctx, treasuryID); errors.Is(err, executor.ErrObjectNotFound) {
		genesis, err := executor.LoadGenesis(cfg.GenesisPath)
		if err != nil {
			return err
		}
		if err := ledger.Bootstrap(ctx, genesis); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	mintPkg := ptb.NewPackage(packageID,
		ptb.Function{Module: "mintcoin", Name: "mint_coin", Params: []ptb.ArgKind{ptb.ArgObject}, Results: 1},
		ptb.Function{Module: "mintcoin", Name: "get_flag", Params: []ptb.ArgKind{ptb.ArgObject, ptb.ArgObject}},
	)
	coinType := cfg.PackageID + "::mintcoin::MINTCOIN"

	// Transaction 1: mint the raw coins.
	b := ptb.New()
	treasury, err := b.Shared(treasuryID, 1, true)
	if err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if _, err := b.Command(mintPkg.MustInvoke("mint_coin", treasury)); err != nil {
			return err
		}
	}
	mintTx, err := b.Finalize()
	if err != nil {
		return err
	}
	mintEffects, err := ledger.Execute(ctx, mintTx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "mint transaction committed: %s (%d coins)\n",
		mintEffects.Digest.Hex(), len(mintEffects.Created))

	// Transaction 2: merge, split, gated call, chained through result
	// handles.
	b = ptb.New()
	coins := make([]ptb.Input, 3)
	for i := 0; i < 3; i++ {
		ref := mintEffects.Results[i][0]
		coins[i], err = b.Object(ref.ID, ref.Version, common.Hash{})
		if err != nil {
			return err
		}
	}
	counter, err := b.Shared(counterID, 1, true)
	if err != nil {
		return err
	}

	fw := ptb.Framework()
	if _, err := b.Command(fw.MustInvoke("join", coins[0], coins[1]).WithTypeArgs(coinType)); err != nil {
		return err
	}
	if _, err := b.Command(fw.MustInvoke("join", coins[0], coins[2]).WithTypeArgs(coinType)); err != nil {
		return err
	}
	carved, err := b.Command(fw.MustInvoke("split", coins[0], uint64(executor.DefaultGatePrice)).WithTypeArgs(coinType))
	if err != nil {
		return err
	}
	if _, err := b.Command(mintPkg.MustInvoke("get_flag", counter, carved[0])); err != nil {
		return err
	}

	chainTx, err := b.Finalize()
	if err != nil {
		return err
	}

	if outPath != "" {
		encoded, err := chainTx.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, []byte(hex.EncodeToString(encoded)), 0o644); err != nil {
			return fmt.Errorf("write transaction: %w", err)
		}
	}

	effects, err := ledger.Execute(ctx, chainTx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "chained transaction committed: %s\n", effects.Digest.Hex())
	for _, ev := range effects.Events {
		fmt.Fprintf(cmd.OutOrStdout(), "event %s: %s\n", ev.Function, ev.Message)
	}
	return nil
}
