package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/wire"
	"github.com/trebuchet-org/mangonel/internal/adapters/abi"
	"github.com/trebuchet-org/mangonel/internal/adapters/blockchain"
	"github.com/trebuchet-org/mangonel/internal/adapters/bolt"
	"github.com/trebuchet-org/mangonel/internal/adapters/compiler"
	"github.com/trebuchet-org/mangonel/internal/adapters/devnode"
	"github.com/trebuchet-org/mangonel/internal/adapters/evm"
	"github.com/trebuchet-org/mangonel/internal/adapters/fs"
	"github.com/trebuchet-org/mangonel/internal/adapters/instructions"
	"github.com/trebuchet-org/mangonel/internal/adapters/interactive"
	"github.com/trebuchet-org/mangonel/internal/adapters/linker"
	"github.com/trebuchet-org/mangonel/internal/adapters/preprocessor"
	"github.com/trebuchet-org/mangonel/internal/adapters/senders"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// ProvideNode connects to the configured node. The chain ID check happens when
// a session opens so offline commands never touch the network.
func ProvideNode(cfg *config.RuntimeConfig) (*blockchain.NodeAdapter, func(), error) {
	node, err := blockchain.Dial(context.Background(), cfg.Network.RPCURL)
	if err != nil {
		return nil, nil, err
	}
	return node, node.Close, nil
}

// ProvideSubmitterFactory selects node-custodied or local-key signing
func ProvideSubmitterFactory(node usecase.NodeClient, cfg *config.RuntimeConfig, log *slog.Logger) *senders.Factory {
	return senders.NewFactory(node, cfg.PrivateKey, log)
}

// ProvideTracker creates a receipt tracker from the receipt settings
func ProvideTracker(node usecase.NodeClient, cfg *config.RuntimeConfig, progress usecase.ProgressSink, log *slog.Logger) *blockchain.Tracker {
	return blockchain.NewTracker(node, blockchain.TrackerOptions{
		PollInterval: cfg.Receipt.PollInterval,
		Backoff:      cfg.Receipt.Backoff,
		MaxInterval:  cfg.Receipt.MaxInterval,
		Timeout:      cfg.Receipt.Timeout,
	}, progress, log)
}

// ProvideVerifier creates a deployment verifier for the configured strategy
func ProvideVerifier(node usecase.NodeClient, cfg *config.RuntimeConfig, log *slog.Logger) *blockchain.Verifier {
	return blockchain.NewVerifier(node, evm.NewReference(), cfg.Deploy.Verify, log)
}

// ProvideCompiler uses solc and serpent from PATH
func ProvideCompiler(log *slog.Logger) *compiler.Compiler {
	return compiler.NewCompiler("", "", compiler.ExecRunner, log)
}

// ProvideRegistryStore opens the configured registry backend
func ProvideRegistryStore(cfg *config.RuntimeConfig) (usecase.RegistryStore, func(), error) {
	switch cfg.Registry.Backend {
	case config.RegistryBolt:
		store, err := bolt.Open(filepath.Join(cfg.DataDir, "registry.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.RegistryMemory:
		return fs.NewMemoryStore(), func() {}, nil
	case config.RegistryJSON, "":
		return fs.NewRegistryStore(cfg.ProjectRoot), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported registry backend %q", cfg.Registry.Backend)
	}
}

// ProvideABIWriter writes ABIs relative to the project root
func ProvideABIWriter(cfg *config.RuntimeConfig) *fs.ABIWriter {
	return fs.NewABIWriter(cfg.ProjectRoot)
}

// ProvideDevNodeManager keeps dev node state under the data directory
func ProvideDevNodeManager(cfg *config.RuntimeConfig, log *slog.Logger) *devnode.Manager {
	return devnode.NewManager(devnode.DefaultBinary, cfg.DataDir, log)
}

// BlockchainSet provides node-facing implementations
var BlockchainSet = wire.NewSet(
	ProvideNode,
	wire.Bind(new(usecase.NodeClient), new(*blockchain.NodeAdapter)),

	ProvideSubmitterFactory,
	wire.Bind(new(usecase.SubmitterFactory), new(*senders.Factory)),
	wire.Bind(new(usecase.SigningContextResolver), new(*senders.Factory)),

	ProvideTracker,
	wire.Bind(new(usecase.ReceiptTracker), new(*blockchain.Tracker)),

	ProvideVerifier,
	wire.Bind(new(usecase.DeploymentVerifier), new(*blockchain.Verifier)),
)

// SourceSet provides preprocessing, compilation and encoding
var SourceSet = wire.NewSet(
	preprocessor.NewPreprocessor,
	wire.Bind(new(usecase.SourceProcessor), new(*preprocessor.Preprocessor)),

	ProvideCompiler,
	wire.Bind(new(usecase.Compiler), new(*compiler.Compiler)),

	linker.NewLinker,
	wire.Bind(new(usecase.BytecodeLinker), new(*linker.Linker)),

	abi.NewEncoder,
	wire.Bind(new(usecase.CallEncoder), new(*abi.Encoder)),

	instructions.NewParser,
	wire.Bind(new(usecase.InstructionLoader), new(*instructions.Parser)),
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	ProvideRegistryStore,

	ProvideABIWriter,
	wire.Bind(new(usecase.ABIWriter), new(*fs.ABIWriter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),
)

// DevNodeSet provides the local dev node manager
var DevNodeSet = wire.NewSet(
	ProvideDevNodeManager,
	wire.Bind(new(usecase.DevNodeManager), new(*devnode.Manager)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	BlockchainSet,
	SourceSet,
	FSSet,
	InteractiveSet,
	DevNodeSet,
)
