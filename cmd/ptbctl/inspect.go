package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	ptb "github.com/branched-services/go-ptb"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode a serialized transaction and print its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			encoded, err := hex.DecodeString(strings.TrimSpace(strings.TrimPrefix(string(raw), "0x")))
			if err != nil {
				return fmt.Errorf("decode hex: %w", err)
			}
			tx, err := ptb.Decode(encoded)
			if err != nil {
				return err
			}

			digest, err := tx.Digest()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "digest: %s\n", digest.Hex())

			fmt.Fprintf(out, "inputs (%d):\n", tx.InputCount())
			for i, in := range tx.Inputs() {
				switch arg := in.(type) {
				case ptb.Pure:
					fmt.Fprintf(out, "  %3d  pure           0x%s\n", i, hex.EncodeToString(arg.Data()))
				case ptb.OwnedObject:
					fmt.Fprintf(out, "  %3d  owned-object   %s v%d\n", i, arg.ID.Hex(), arg.Version)
				case ptb.SharedObject:
					fmt.Fprintf(out, "  %3d  shared-object  %s mutable=%v\n", i, arg.ID.Hex(), arg.Mutable)
				}
			}

			fmt.Fprintf(out, "commands (%d):\n", tx.CommandCount())
			for i, spec := range tx.Commands() {
				refs := make([]string, len(spec.Args))
				for j, ref := range spec.Args {
					refs[j] = ref.String()
				}
				fmt.Fprintf(out, "  %3d  %s(%s) -> %d\n", i, spec.Qualified(), strings.Join(refs, ", "), spec.Results)
			}
			return nil
		},
	}
}
