package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/mangonel/internal/cli/render"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// NewABICmd creates the abi command
func NewABICmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "abi <source-file>...",
		Short: "Compile sources offline and write their ABIs",
		Long: `Preprocess and compile source files without a node and write the ABI of
the compiled contract to <out>/<Contract>.json. Address macros that have no
deployed value compile against the zero address.

Examples:
  mangonel abi Token.sol Crowdfunding.sol
  mangonel abi Token.sol --out build/abi`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			generated, err := app.GenerateABI.Run(cmd.Context(), usecase.GenerateABIParams{
				Files:  args,
				OutDir: outDir,
			})
			if err != nil {
				return err
			}
			return render.NewGenerateABIRenderer(os.Stdout).Render(generated)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "abi", "Output directory, relative to the project root")
	addSourceFlags(cmd)

	return cmd
}
