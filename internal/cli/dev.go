package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/mangonel/internal/adapters/devnode"
	"github.com/trebuchet-org/mangonel/internal/cli/render"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// NewDevCmd creates the dev command with subcommands
func NewDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Manage a local development node",
		Long: `Start, stop and inspect a local anvil node for running instruction files
against. The node listens on --host and --port and uses --chain-id when set.`,
	}

	for _, operation := range []struct{ use, short string }{
		{"start", "Start the local node. Fails if already running."},
		{"stop", "Stop the local node if running"},
		{"restart", "Restart the local node"},
		{"status", "Show status of the local node"},
	} {
		cmd.AddCommand(newDevOperationCmd(operation.use, operation.short))
	}

	return cmd
}

// newDevOperationCmd creates one dev node subcommand
func newDevOperationCmd(operation, short string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   operation,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := devNodeParams(cmd, operation, name)
			if err != nil {
				return err
			}
			return runDevCommand(cmd, params)
		},
	}

	cmd.Flags().StringVar(&name, "name", devnode.DefaultName, "Instance name (e.g. anvil, anvil1)")
	return cmd
}

// devNodeParams reads the node endpoint from the global connection flags
func devNodeParams(cmd *cobra.Command, operation, name string) (usecase.ManageDevNodeParams, error) {
	params := usecase.ManageDevNodeParams{Operation: operation, Name: name}

	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return params, err
	}
	if host != "localhost" {
		params.Host = host
	}
	if params.Port, err = cmd.Flags().GetString("port"); err != nil {
		return params, err
	}
	chainID, err := cmd.Flags().GetUint64("chain-id")
	if err != nil {
		return params, err
	}
	if chainID != 0 {
		params.ChainID = strconv.FormatUint(chainID, 10)
	}
	return params, nil
}

// runDevCommand executes a dev node operation and renders the result
func runDevCommand(cmd *cobra.Command, params usecase.ManageDevNodeParams) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}

	result, err := app.ManageDevNode.Execute(cmd.Context(), params)
	if err != nil {
		return err
	}
	return render.NewDevNodeRenderer(os.Stdout).Render(result)
}
