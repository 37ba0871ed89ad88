package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/mangonel/internal/cli/render"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "run [instructions-file]",
		Short: "Deploy contracts and send transactions from an instruction file",
		Long: `Run an instruction file against the configured node.

Instructions execute in order and the run stops at the first failure:
- deployment: compile a source file, link libraries and deploy it
- transaction: call a function on a registered contract
- assertion: call a read-only function and compare the result

Contracts already present in the registry for the chain are skipped, so
a failed run can be fixed and started again.

Instruction file (YAML or JSON):
  - type: deployment
    file: Token.sol
    constructorParams: [1000000]
  - type: transaction
    contract: Token
    name: transfer
    params: [Crowdfunding, 500]
  - type: assertion
    contract: Token
    name: balanceOf
    params: [Crowdfunding]
    return: 500

Examples:
  # Run against a local node using its coinbase
  mangonel run -f deploy.yaml

  # Run against a named network with a local key
  mangonel run -f deploy.yaml -n sepolia --private-key $DEPLOYER_KEY

  # Strict verification with bounded receipt waits
  mangonel run -f deploy.yaml --verify strict --receipt-timeout 5m --poll-backoff 1.5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if file != "" && file != args[0] {
					return fmt.Errorf("instruction file given twice: %s and %s", file, args[0])
				}
				file = args[0]
			}
			if file == "" {
				return fmt.Errorf("an instruction file is required (use -f or pass it as an argument)")
			}

			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.RunInstructions.Run(cmd.Context(), usecase.RunInstructionsParams{File: file})
			if errors.Is(err, usecase.ErrAborted) {
				fmt.Fprintln(os.Stderr, render.FormatWarning("Aborted, nothing was sent"))
				return nil
			}
			if result != nil && len(result.Outcomes) > 0 {
				if renderErr := render.NewRunRenderer(os.Stdout).Render(result); renderErr != nil {
					return renderErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Instruction file (YAML or JSON)")
	addSourceFlags(cmd)
	cmd.Flags().Bool("add-dev-code", false, "Keep @dev blocks in sources")
	addGasFlags(cmd)
	addSigningFlags(cmd)
	cmd.Flags().String("verify", "minimal", "Deployment verification: minimal or strict (replays the constructor locally as the sender)")
	cmd.Flags().Int("max-attempts", 3, "Deployment attempts before giving up")
	cmd.Flags().Duration("retry-backoff", 0, "Pause between deployment attempts")
	addReceiptFlags(cmd)
	addRegistryFlags(cmd)
	cmd.Flags().Bool("allow-overwrite", false, "Let a later deployment replace a registered name")

	return cmd
}
