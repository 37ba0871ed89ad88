package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentCall struct {
	To      common.Address
	Payload []byte
	Value   *big.Int
}

// fakeChain plays node, submitter, tracker and verifier at once. Contracts get
// sequential addresses starting at 0x...1000.
type fakeChain struct {
	sender  common.Address
	chainID int64

	creates  [][]byte
	calls    []sentCall
	receipts map[common.Hash]*types.Receipt

	// popped per submission / verification, nil entries succeed
	submitErrs []error
	verifyErrs []error
	// deployer passed to each verification
	verifiedBy []common.Address

	callStatus uint64
	callResult func(to common.Address, data []byte) ([]byte, error)
	nextIndex  int64
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		sender:     common.HexToAddress("0x00000000000000000000000000000000000000c0"),
		chainID:    1337,
		receipts:   make(map[common.Hash]*types.Receipt),
		callStatus: types.ReceiptStatusSuccessful,
	}
}

func addressAt(i int64) common.Address {
	return common.BigToAddress(big.NewInt(0x1000 + i))
}

func (c *fakeChain) pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (c *fakeChain) hash() common.Hash {
	c.nextIndex++
	return common.BigToHash(big.NewInt(c.nextIndex))
}

// SigningContextResolver and SubmitterFactory

func (c *fakeChain) Resolve(ctx context.Context) (domain.SigningContext, error) {
	return domain.NodeCustodied{Coinbase: c.sender}, nil
}

func (c *fakeChain) ForContext(ctx context.Context, signing domain.SigningContext) (usecase.TransactionSubmitter, error) {
	return c, nil
}

// TransactionSubmitter

func (c *fakeChain) Sender() common.Address { return c.sender }

func (c *fakeChain) SubmitCreate(ctx context.Context, code []byte, gas usecase.GasParams) (common.Hash, error) {
	if err := c.pop(&c.submitErrs); err != nil {
		return common.Hash{}, err
	}
	hash := c.hash()
	c.creates = append(c.creates, code)
	c.receipts[hash] = &types.Receipt{
		Status:          types.ReceiptStatusSuccessful,
		TxHash:          hash,
		ContractAddress: addressAt(int64(len(c.creates) - 1)),
		GasUsed:         21000,
	}
	return hash, nil
}

func (c *fakeChain) SubmitCall(ctx context.Context, to common.Address, payload []byte, value *big.Int, gas usecase.GasParams) (common.Hash, error) {
	if err := c.pop(&c.submitErrs); err != nil {
		return common.Hash{}, err
	}
	hash := c.hash()
	c.calls = append(c.calls, sentCall{To: to, Payload: payload, Value: value})
	c.receipts[hash] = &types.Receipt{Status: c.callStatus, TxHash: hash, GasUsed: 30000}
	return hash, nil
}

// ReceiptTracker and DeploymentVerifier

func (c *fakeChain) AwaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, &domain.ReceiptTimeoutError{TxHash: hash}
	}
	return receipt, nil
}

func (c *fakeChain) VerifyDeployment(ctx context.Context, receipt *types.Receipt, deployer common.Address, creationCode []byte) error {
	c.verifiedBy = append(c.verifiedBy, deployer)
	return c.pop(&c.verifyErrs)
}

// NodeClient

func (c *fakeChain) Coinbase(ctx context.Context) (common.Address, error) { return c.sender, nil }
func (c *fakeChain) ChainID(ctx context.Context) (*big.Int, error)        { return big.NewInt(c.chainID), nil }
func (c *fakeChain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return big.NewInt(1_000_000_000_000_000_000), nil
}
func (c *fakeChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return uint64(len(c.creates) + len(c.calls)), nil
}
func (c *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (c *fakeChain) SendTransaction(ctx context.Context, args usecase.TransactionArgs) (common.Hash, error) {
	return common.Hash{}, errors.New("not used")
}
func (c *fakeChain) SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	return common.Hash{}, errors.New("not used")
}
func (c *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.receipts[hash], nil
}
func (c *fakeChain) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}
func (c *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	if c.callResult == nil {
		return nil, errors.New("no call result configured")
	}
	return c.callResult(*msg.To, msg.Data)
}

// fakeProcessor returns the file name as the source text and records requests
type fakeProcessor struct {
	requests []usecase.ProcessRequest
	err      error
}

func (p *fakeProcessor) Process(ctx context.Context, req usecase.ProcessRequest) (string, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return "", p.err
	}
	return req.File, nil
}

// fakeCompiler looks up compiled contracts by source text
type fakeCompiler struct {
	contracts map[string]*usecase.CompiledContract
}

func (c *fakeCompiler) Compile(ctx context.Context, language domain.Language, source string) (*usecase.CompiledContract, error) {
	compiled, ok := c.contracts[source]
	if !ok {
		return nil, errors.New("solc: " + source + ": syntax error")
	}
	return compiled, nil
}

type fakeConfirmer struct {
	answer   bool
	messages []string
}

func (c *fakeConfirmer) Confirm(message string) (bool, error) {
	c.messages = append(c.messages, message)
	return c.answer, nil
}

// recordingSink keeps every info line
type recordingSink struct {
	events []usecase.ProgressEvent
	infos  []string
}

func (s *recordingSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	s.events = append(s.events, event)
}
func (s *recordingSink) Info(message string)  { s.infos = append(s.infos, message) }
func (s *recordingSink) Error(message string) {}

func (s *recordingSink) contains(fragment string) bool {
	for _, line := range s.infos {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

type fakeABIWriter struct {
	written map[string]json.RawMessage
}

func (w *fakeABIWriter) WriteABI(dir, name string, abi json.RawMessage) (string, error) {
	if w.written == nil {
		w.written = make(map[string]json.RawMessage)
	}
	w.written[name] = abi
	return dir + "/" + name + ".json", nil
}

// MockDevNodeManager is a mock implementation of DevNodeManager
type MockDevNodeManager struct {
	mock.Mock
}

func (m *MockDevNodeManager) Start(ctx context.Context, instance *domain.DevNodeInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *MockDevNodeManager) Stop(ctx context.Context, instance *domain.DevNodeInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *MockDevNodeManager) GetStatus(ctx context.Context, instance *domain.DevNodeInstance) (*domain.DevNodeStatus, error) {
	args := m.Called(ctx, instance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DevNodeStatus), args.Error(1)
}
