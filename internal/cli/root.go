package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/mangonel/internal/adapters/progress"
	"github.com/trebuchet-org/mangonel/internal/app"
	"github.com/trebuchet-org/mangonel/internal/config"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// appState holds what PersistentPreRunE creates and Execute tears down
type appState struct {
	cleanup func()
	spinner *progress.SpinnerProgressReporter
}

func (s *appState) close() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd, state := newRootCmd()
	defer state.close()

	return rootCmd.ExecuteContext(ctx)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd, _ := newRootCmd()
	return rootCmd
}

func newRootCmd() (*cobra.Command, *appState) {
	state := &appState{}

	rootCmd := &cobra.Command{
		Use:   "mangonel",
		Short: "Contract deployment and transaction orchestrator",
		Long: `Mangonel compiles contracts, deploys them to an Ethereum node and runs
follow-up transactions and read-only assertions from an instruction file.

Deployed contracts are kept in a per-chain registry so later instructions can
refer to them by name and re-runs skip what is already deployed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if !needsApp(cmd) {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)
			sink := newProgressSink(v.GetBool("non-interactive"), state)

			appInstance, cleanup, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			state.cleanup = cleanup

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey, appInstance))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts and spinners")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network from mangonel.toml to use")
	rootCmd.PersistentFlags().String("rpc-url", "", "Node RPC URL (overrides --network, --host and --port)")
	rootCmd.PersistentFlags().String("host", config.DefaultHost, "Node host")
	rootCmd.PersistentFlags().String("port", config.DefaultPort, "Node port")
	rootCmd.PersistentFlags().Uint64("chain-id", 0, "Expected chain ID (0 accepts any)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{NewRunCmd(), NewCallCmd(), NewABICmd()} {
		cmd.GroupID = "main"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{NewRegistryCmd(), NewDevCmd()} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd, state
}

// needsApp reports whether cmd runs against a wired App
func needsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return cmd.Runnable()
}

// newProgressSink picks a spinner for terminals and plain lines otherwise
func newProgressSink(nonInteractive bool, state *appState) usecase.ProgressSink {
	if nonInteractive {
		return progress.NewLineProgressReporter(os.Stderr)
	}
	state.spinner = progress.NewSpinnerProgressReporter()
	return state.spinner
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
