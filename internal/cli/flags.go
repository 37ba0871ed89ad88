package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/mangonel/internal/config"
)

// Flag defaults only show in help. Values reach the runtime config through
// viper, which binds changed flags on top of env and mangonel.toml.

func addGasFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("gas", config.DefaultGas, "Gas limit per transaction")
	cmd.Flags().String("gas-price", config.DefaultGasPrice, "Gas price in wei (0 asks the node)")
}

func addSigningFlags(cmd *cobra.Command) {
	cmd.Flags().String("private-key", "", "Sign locally with this hex key instead of the node's coinbase")
}

func addReceiptFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("poll-interval", 0, "Interval between receipt polls (default 5s)")
	cmd.Flags().Float64("poll-backoff", 1, "Multiplier applied to the poll interval after each poll")
	cmd.Flags().Duration("max-poll-interval", 0, "Upper bound for the poll interval (0 is unbounded)")
	cmd.Flags().Duration("receipt-timeout", 0, "Give up waiting for a receipt after this long (0 waits forever)")
}

func addRegistryFlags(cmd *cobra.Command) {
	cmd.Flags().String("registry", "json", "Registry backend: json, bolt or memory")
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("contract-dir", config.DefaultContractDir, "Directory containing contract sources")
}
