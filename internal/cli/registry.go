package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/mangonel/internal/cli/render"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// NewRegistryCmd creates the registry command
func NewRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registry [name]",
		Aliases: []string{"ls"},
		Short:   "List registered contracts",
		Long: `List the contracts recorded for a chain. The chain comes from --chain-id
or, when unset, from the connected node.

Examples:
  mangonel registry
  mangonel registry Token --chain-id 11155111`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ListRegistryParams{}
			if app.Config.Network != nil {
				params.ChainID = app.Config.Network.ChainID
			}
			if len(args) == 1 {
				params.Name = args[0]
			}

			result, err := app.ListRegistry.Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			return render.NewRegistryRenderer(os.Stdout).Render(result)
		},
	}

	addRegistryFlags(cmd)

	return cmd
}
