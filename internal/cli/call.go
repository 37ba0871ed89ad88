package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/mangonel/internal/cli/render"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// NewCallCmd creates the guarded call command
func NewCallCmd() *cobra.Command {
	var (
		abiFile  string
		function string
	)

	cmd := &cobra.Command{
		Use:   "call <contract> [args...]",
		Short: "Send a call only when a dry run of it returns true",
		Long: `Dry-run a bool-returning function with eth_call and send it as a
transaction only when the dry run returns true.

The contract is a registered name or, together with --abi, a plain address.

Examples:
  # Trigger the emergency path of a registered contract if it is armed
  mangonel call Crowdfunding

  # Call an unregistered contract
  mangonel call 0xcfeb869f69431e42cdb54a4f4f105c19c080a601 --abi Crowdfunding.abi --function refund`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.GuardedCallParams{
				Contract: args[0],
				Function: function,
			}
			for _, arg := range args[1:] {
				params.Args = append(params.Args, arg)
			}
			if abiFile != "" {
				raw, err := os.ReadFile(abiFile)
				if err != nil {
					return fmt.Errorf("failed to read ABI: %w", err)
				}
				if !json.Valid(raw) {
					return fmt.Errorf("%s does not contain valid JSON", abiFile)
				}
				params.ABI = json.RawMessage(raw)
			}

			result, err := app.GuardedCall.Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			return render.NewGuardedCallRenderer(os.Stdout).Render(result)
		},
	}

	cmd.Flags().StringVar(&abiFile, "abi", "", "ABI file for a contract that is not registered")
	cmd.Flags().StringVar(&function, "function", "emergencyCall", "Function to dry-run and send")
	addGasFlags(cmd)
	addSigningFlags(cmd)
	addReceiptFlags(cmd)
	addRegistryFlags(cmd)

	return cmd
}
