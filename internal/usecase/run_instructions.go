package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
)

// ErrAborted is returned when the operator declines to broadcast
var ErrAborted = errors.New("run aborted by operator")

// OutcomeStatus describes what happened to one instruction
type OutcomeStatus string

const (
	OutcomeDeployed OutcomeStatus = "deployed"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeSent     OutcomeStatus = "sent"
	OutcomeAsserted OutcomeStatus = "asserted"
)

// RunInstructionsParams contains parameters for a run. Instructions take
// precedence over File when both are set.
type RunInstructionsParams struct {
	File         string
	Instructions []domain.Instruction
}

// InstructionOutcome is the result of one executed instruction
type InstructionOutcome struct {
	Index       int
	Kind        domain.InstructionKind
	Description string
	Status      OutcomeStatus
	Address     common.Address
	TxHash      common.Hash
	GasUsed     uint64
	Attempts    int
	Value       any // decoded assertion result
}

// RunResult contains the result of a run
type RunResult struct {
	ChainID     uint64
	Sender      common.Address
	SigningMode string
	Outcomes    []InstructionOutcome
	Addresses   map[string]string
	Duration    time.Duration
}

// RunInstructions executes an instruction list in order against one node
type RunInstructions struct {
	config    *config.RuntimeConfig
	sessions  *SessionFactory
	node      NodeClient
	tracker   ReceiptTracker
	verifier  DeploymentVerifier
	processor SourceProcessor
	compiler  Compiler
	linker    BytecodeLinker
	encoder   CallEncoder
	store     RegistryStore
	loader    InstructionLoader
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewRunInstructions creates a new RunInstructions use case
func NewRunInstructions(
	cfg *config.RuntimeConfig,
	sessions *SessionFactory,
	node NodeClient,
	tracker ReceiptTracker,
	verifier DeploymentVerifier,
	processor SourceProcessor,
	compiler Compiler,
	linker BytecodeLinker,
	encoder CallEncoder,
	store RegistryStore,
	loader InstructionLoader,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *RunInstructions {
	if progress == nil {
		progress = NopProgress{}
	}
	return &RunInstructions{
		config:    cfg,
		sessions:  sessions,
		node:      node,
		tracker:   tracker,
		verifier:  verifier,
		processor: processor,
		compiler:  compiler,
		linker:    linker,
		encoder:   encoder,
		store:     store,
		loader:    loader,
		confirmer: confirmer,
		progress:  progress,
		log:       log.With("component", "RunInstructions"),
	}
}

// Run executes every instruction and stops at the first failure. The partial
// result is returned alongside the error.
func (uc *RunInstructions) Run(ctx context.Context, params RunInstructionsParams) (*RunResult, error) {
	start := time.Now()

	instructions := params.Instructions
	if instructions == nil {
		loaded, err := uc.loader.Load(params.File)
		if err != nil {
			return nil, err
		}
		instructions = loaded
	}

	session, err := uc.sessions.Open(ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		ChainID:     session.ChainID,
		Sender:      session.Signing.Sender(),
		SigningMode: session.Signing.Mode(),
	}
	defer func() {
		result.Addresses = session.Registry.Addresses()
		result.Duration = time.Since(start)
	}()

	switch session.Signing.(type) {
	case domain.LocalKey:
		uc.progress.Info(fmt.Sprintf("Your address for your private key: %s", result.Sender.Hex()))
	default:
		uc.progress.Info(fmt.Sprintf("Your coinbase: %s", result.Sender.Hex()))
	}

	ok, err := uc.confirmer.Confirm(fmt.Sprintf("Execute %d instructions on chain %d as %s", len(instructions), session.ChainID, result.Sender.Hex()))
	if err != nil {
		return result, err
	}
	if !ok {
		return result, ErrAborted
	}

	for i, instruction := range instructions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		uc.reportBalance(ctx, session)
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   string(instruction.Kind()),
			Current: i + 1,
			Total:   len(instructions),
			Message: fmt.Sprintf("%s %s", instruction.Kind(), instruction.Describe()),
		})

		var outcome *InstructionOutcome
		switch inst := instruction.(type) {
		case domain.Deployment:
			outcome, err = uc.deploy(ctx, session, inst)
		case domain.Transaction:
			outcome, err = uc.transact(ctx, session, inst)
		case domain.Assertion:
			outcome, err = uc.assert(ctx, session, inst)
		default:
			err = fmt.Errorf("unsupported instruction %T", instruction)
		}
		if err != nil {
			uc.log.Debug("instruction failed", "index", i, "instruction", instruction.Describe(), "error", err)
			return result, fmt.Errorf("instruction %d (%s %s): %w", i, instruction.Kind(), instruction.Describe(), err)
		}

		outcome.Index = i
		outcome.Kind = instruction.Kind()
		outcome.Description = instruction.Describe()
		result.Outcomes = append(result.Outcomes, *outcome)
	}

	for _, record := range session.Registry.Records() {
		uc.progress.Info(fmt.Sprintf("Contract %s was created at address %s.", record.Name, record.Address.Hex()))
	}

	return result, nil
}

func (uc *RunInstructions) reportBalance(ctx context.Context, session *Session) {
	balance, err := uc.node.BalanceAt(ctx, session.Signing.Sender())
	if err != nil {
		uc.log.Warn("failed to fetch balance", "error", err)
		return
	}
	uc.progress.Info(fmt.Sprintf("Your balance: %s Wei", balance))
}

// deploy compiles, links and deploys one source file, retrying transient failures
func (uc *RunInstructions) deploy(ctx context.Context, session *Session, d domain.Deployment) (*InstructionOutcome, error) {
	name := d.ContractName()
	if session.Registry.Has(name) {
		record, _ := session.Registry.Lookup(name)
		uc.progress.Info(fmt.Sprintf("Contract %s already deployed at %s, skipping.", name, record.Address.Hex()))
		return &InstructionOutcome{Status: OutcomeSkipped, Address: record.Address, TxHash: record.TxHash}, nil
	}

	creation, compiled, err := uc.build(ctx, session, d)
	if err != nil {
		return nil, err
	}

	uc.progress.Info(fmt.Sprintf("Try to create contract with length %d based on code in file: %s", len(creation), d.File))

	maxAttempts := uc.config.Deploy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			uc.progress.Info(fmt.Sprintf("Deploy of %s failed. Retry!", d.File))
			if err := sleep(ctx, uc.config.Deploy.RetryBackoff); err != nil {
				return nil, err
			}
		}

		receipt, err := uc.attemptDeploy(ctx, session, creation)
		if err != nil {
			if !domain.IsRetryable(err) {
				return nil, err
			}
			uc.log.Debug("deployment attempt failed", "file", d.File, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		record, err := models.NewContractRecord(name, receipt.ContractAddress, compiled.ABI)
		if err != nil {
			return nil, err
		}
		record.TxHash = receipt.TxHash
		record.DeployedAt = time.Now().UTC()

		if err := session.Registry.Register(record); err != nil {
			return nil, err
		}
		if err := uc.store.Save(ctx, session.ChainID, record); err != nil {
			return nil, fmt.Errorf("failed to persist %s: %w", name, err)
		}

		uc.progress.Info(fmt.Sprintf("Contract %s was created at address %s.", d.File, record.Address.Hex()))
		return &InstructionOutcome{
			Status:   OutcomeDeployed,
			Address:  record.Address,
			TxHash:   receipt.TxHash,
			GasUsed:  receipt.GasUsed,
			Attempts: attempt,
		}, nil
	}

	return nil, &domain.DeploymentExhaustedError{File: d.File, Attempts: maxAttempts, Err: lastErr}
}

// build produces the creation code: linked bytecode followed by encoded constructor arguments
func (uc *RunInstructions) build(ctx context.Context, session *Session, d domain.Deployment) ([]byte, *CompiledContract, error) {
	addresses := session.Registry.MergeAddresses(d.Addresses)

	source, err := uc.processor.Process(ctx, ProcessRequest{
		File:       d.File,
		SourceDir:  uc.config.ContractDir,
		AddDevCode: uc.config.AddDevCode,
		Addresses:  addresses,
	})
	if err != nil {
		return nil, nil, asCompilationError(d.File, err)
	}

	compiled, err := uc.compiler.Compile(ctx, d.Language(), source)
	if err != nil {
		return nil, nil, asCompilationError(d.File, err)
	}

	linked := uc.linker.Link(compiled.Bytecode, addresses)
	if missing := uc.linker.Unlinked(linked); len(missing) > 0 {
		return nil, nil, &domain.UnlinkedLibraryError{File: d.File, Libraries: missing}
	}

	code, err := hex.DecodeString(strings.TrimPrefix(linked, "0x"))
	if err != nil {
		return nil, nil, &domain.CompilationError{File: d.File, Err: fmt.Errorf("invalid bytecode: %w", err)}
	}

	contractABI, err := models.ParseABI(compiled.ABI)
	if err != nil {
		return nil, nil, &domain.CompilationError{File: d.File, Err: fmt.Errorf("invalid abi: %w", err)}
	}

	encoded, err := uc.encoder.EncodeConstructor(contractABI, session.Registry.ResolveArgs(d.ConstructorArgs))
	if err != nil {
		return nil, nil, err
	}

	return append(code, encoded...), compiled, nil
}

func (uc *RunInstructions) attemptDeploy(ctx context.Context, session *Session, creation []byte) (*types.Receipt, error) {
	hash, err := session.Submitter.SubmitCreate(ctx, creation, session.gas(uc.config))
	if err != nil {
		return nil, err
	}
	receipt, err := uc.tracker.AwaitReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if err := uc.verifier.VerifyDeployment(ctx, receipt, session.Signing.Sender(), creation); err != nil {
		return nil, err
	}
	return receipt, nil
}

// transact sends a state-changing call and waits for it to be mined
func (uc *RunInstructions) transact(ctx context.Context, session *Session, t domain.Transaction) (*InstructionOutcome, error) {
	record, err := session.Registry.Lookup(t.Contract)
	if err != nil {
		return nil, err
	}

	payload, err := uc.encoder.EncodeCall(record.ABI, t.Function, session.Registry.ResolveArgs(t.Args))
	if err != nil {
		return nil, err
	}

	uc.progress.Info(fmt.Sprintf("Try to send %s transaction to contract %s.", t.Function, t.Contract))

	receipt, err := sendAndAwait(ctx, session, uc.tracker, record.Address, payload, t.Value, session.gas(uc.config))
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &domain.TransactionRevertedError{Contract: t.Contract, Function: t.Function, TxHash: receipt.TxHash}
	}

	uc.progress.Info(fmt.Sprintf("Transaction %s for contract %s completed.", t.Function, t.Contract))
	return &InstructionOutcome{
		Status:  OutcomeSent,
		Address: record.Address,
		TxHash:  receipt.TxHash,
		GasUsed: receipt.GasUsed,
	}, nil
}

// assert performs a read-only call and compares the decoded result
func (uc *RunInstructions) assert(ctx context.Context, session *Session, a domain.Assertion) (*InstructionOutcome, error) {
	record, err := session.Registry.Lookup(a.Contract)
	if err != nil {
		return nil, err
	}

	actual, err := readCall(ctx, uc.node, uc.encoder, session, record, a.Function, session.Registry.ResolveArgs(a.Args))
	if err != nil {
		return nil, err
	}

	expected := session.Registry.ResolveValue(a.Expected)
	equal, err := uc.encoder.Equal(record.ABI, a.Function, len(a.Args), expected, actual)
	if err != nil {
		return nil, err
	}
	if !equal {
		return nil, &domain.AssertionFailure{Contract: a.Contract, Function: a.Function, Expected: expected, Actual: actual}
	}

	uc.progress.Info(fmt.Sprintf("Assertion %s.%s holds.", a.Contract, a.Function))
	return &InstructionOutcome{Status: OutcomeAsserted, Address: record.Address, Value: actual}, nil
}

// readCall runs eth_call from the session sender and decodes the result
func readCall(ctx context.Context, node NodeClient, encoder CallEncoder, session *Session, record models.ContractRecord, function string, args []any) (any, error) {
	payload, err := encoder.EncodeCall(record.ABI, function, args)
	if err != nil {
		return nil, err
	}
	to := record.Address
	out, err := node.CallContract(ctx, ethereum.CallMsg{
		From: session.Signing.Sender(),
		To:   &to,
		Data: payload,
	})
	if err != nil {
		return nil, &domain.SubmissionError{Op: "eth_call", Err: err}
	}
	return encoder.DecodeReturn(record.ABI, function, len(args), out)
}

// sendAndAwait submits a call transaction and waits for its receipt
func sendAndAwait(ctx context.Context, session *Session, tracker ReceiptTracker, to common.Address, payload []byte, value *big.Int, gas GasParams) (*types.Receipt, error) {
	hash, err := session.Submitter.SubmitCall(ctx, to, payload, value, gas)
	if err != nil {
		return nil, err
	}
	return tracker.AwaitReceipt(ctx, hash)
}

func asCompilationError(file string, err error) error {
	var compilation *domain.CompilationError
	if errors.As(err, &compilation) {
		return err
	}
	return &domain.CompilationError{File: file, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
