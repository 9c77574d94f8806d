// Command ptbctl builds and executes programmable transactions against a
// local reference ledger. Its run subcommand drives the full two-step flow:
// one transaction minting three coins, then a chained transaction that
// merges them, splits off the gate price, and makes the gated call.
package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// config is read from the environment.
type config struct {
	LedgerPath  string `env:"PTB_LEDGER_PATH" envDefault:"ptb.db"`
	GenesisPath string `env:"PTB_GENESIS_PATH" envDefault:"genesis.yaml"`
	PackageID   string `env:"PTB_PACKAGE_ID" envDefault:"0xc6f00a2b5ec2d161442b305dcb307ba914e20c5268ec931bd14d7ea3454b262b"`
	TreasuryID  string `env:"PTB_TREASURY_ID" envDefault:"0x11d7aacb27eb65063dbb6ce0fa07f7807316c5e77763c6f2356d1bd3a34a2741"`
	CounterID   string `env:"PTB_COUNTER_ID" envDefault:"0xc3716689fa16bd8d8bf33ce1036b00740c8818ab9826dba846ef736501fd34b7"`
}

func newRootCommand() *cobra.Command {
	cfg := &config{}

	cmd := &cobra.Command{
		Use:   "ptbctl",
		Short: "Build and execute programmable transactions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Parse(cfg); err != nil {
				return fmt.Errorf("parse env: %w", err)
			}
			return nil
		},
	}

	cmd.AddCommand(newRunCommand(cfg))
	cmd.AddCommand(newInspectCommand())

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
