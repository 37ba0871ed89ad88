package usecase

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
)

// NodeClient is the node RPC surface the engine consumes
type NodeClient interface {
	Coinbase(ctx context.Context) (common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	// SendTransaction asks the node to sign and send with one of its own accounts.
	SendTransaction(ctx context.Context, args TransactionArgs) (common.Hash, error)
	SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	// TransactionReceipt returns nil, nil while the transaction is pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// TransactionArgs are the eth_sendTransaction parameters
type TransactionArgs struct {
	From     common.Address
	To       *common.Address // nil for contract creation
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
}

// GasParams are applied to each submitted transaction
type GasParams struct {
	Limit uint64
	Price *big.Int // nil or zero asks the node
}

// TransactionSubmitter sends transactions under one signing context
type TransactionSubmitter interface {
	Sender() common.Address
	SubmitCreate(ctx context.Context, code []byte, gas GasParams) (common.Hash, error)
	SubmitCall(ctx context.Context, to common.Address, payload []byte, value *big.Int, gas GasParams) (common.Hash, error)
}

// SubmitterFactory builds the submitter for a signing context
type SubmitterFactory interface {
	ForContext(ctx context.Context, signing domain.SigningContext) (TransactionSubmitter, error)
}

// SigningContextResolver chooses the signing context for a run
type SigningContextResolver interface {
	Resolve(ctx context.Context) (domain.SigningContext, error)
}

// ReceiptTracker waits for transactions to be mined
type ReceiptTracker interface {
	AwaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// DeploymentVerifier checks that a creation receipt left the expected code behind.
// deployer is the account that sent the creation transaction.
type DeploymentVerifier interface {
	VerifyDeployment(ctx context.Context, receipt *types.Receipt, deployer common.Address, creationCode []byte) error
}

// ProcessRequest describes one preprocessing job
type ProcessRequest struct {
	File                    string
	SourceDir               string
	AddDevCode              bool
	Addresses               map[string]string
	ReplaceUnknownAddresses bool
}

// SourceProcessor expands imports, dev blocks and address macros into final source text
type SourceProcessor interface {
	Process(ctx context.Context, req ProcessRequest) (string, error)
}

// CompiledContract is the compiler output for the last contract in a source
type CompiledContract struct {
	Name     string
	Bytecode string // hex without 0x, may contain library placeholders
	ABI      json.RawMessage
}

// Compiler turns source text into bytecode and an ABI
type Compiler interface {
	Compile(ctx context.Context, language domain.Language, source string) (*CompiledContract, error)
}

// BytecodeLinker patches library placeholders
type BytecodeLinker interface {
	Link(bytecodeHex string, libraries map[string]string) string
	Unlinked(bytecodeHex string) []string
}

// CallEncoder packs arguments and unpacks return data
type CallEncoder interface {
	EncodeConstructor(contract abi.ABI, args []any) ([]byte, error)
	EncodeCall(contract abi.ABI, function string, args []any) ([]byte, error)
	DecodeReturn(contract abi.ABI, function string, arity int, data []byte) (any, error)
	Equal(contract abi.ABI, function string, arity int, expected, actual any) (bool, error)
}

// RegistryStore persists confirmed deployments per chain
type RegistryStore interface {
	Load(ctx context.Context, chainID uint64) ([]models.ContractRecord, error)
	Save(ctx context.Context, chainID uint64, record models.ContractRecord) error
}

// InstructionLoader reads and validates an instruction file
type InstructionLoader interface {
	Load(path string) ([]domain.Instruction, error)
}

// Confirmer asks the operator before anything is broadcast
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// ABIWriter writes generated interface descriptors
type ABIWriter interface {
	WriteABI(dir, name string, abi json.RawMessage) (string, error)
}

// DevNodeManager controls local development nodes
type DevNodeManager interface {
	Start(ctx context.Context, instance *domain.DevNodeInstance) error
	Stop(ctx context.Context, instance *domain.DevNodeInstance) error
	GetStatus(ctx context.Context, instance *domain.DevNodeInstance) (*domain.DevNodeStatus, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
