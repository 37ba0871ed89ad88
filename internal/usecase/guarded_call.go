package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
)

// GuardedCallParams contains parameters for a guarded call. ABI may be empty when
// Contract names a registered contract.
type GuardedCallParams struct {
	Contract string
	ABI      json.RawMessage
	Function string
	Args     []any
}

// GuardedCallResult contains the result of a guarded call
type GuardedCallResult struct {
	Contract  common.Address
	Sender    common.Address
	Triggered bool
	TxHash    common.Hash
	GasUsed   uint64
}

// GuardedCall dry-runs a bool-returning function and only sends it as a
// transaction when the dry run returns true
type GuardedCall struct {
	config   *config.RuntimeConfig
	sessions *SessionFactory
	node     NodeClient
	tracker  ReceiptTracker
	encoder  CallEncoder
	progress ProgressSink
	log      *slog.Logger
}

// NewGuardedCall creates a new GuardedCall use case
func NewGuardedCall(
	cfg *config.RuntimeConfig,
	sessions *SessionFactory,
	node NodeClient,
	tracker ReceiptTracker,
	encoder CallEncoder,
	progress ProgressSink,
	log *slog.Logger,
) *GuardedCall {
	if progress == nil {
		progress = NopProgress{}
	}
	return &GuardedCall{
		config:   cfg,
		sessions: sessions,
		node:     node,
		tracker:  tracker,
		encoder:  encoder,
		progress: progress,
		log:      log.With("component", "GuardedCall"),
	}
}

// Run executes the guarded call
func (uc *GuardedCall) Run(ctx context.Context, params GuardedCallParams) (*GuardedCallResult, error) {
	session, err := uc.sessions.Open(ctx)
	if err != nil {
		return nil, err
	}

	record, err := uc.target(session, params)
	if err != nil {
		return nil, err
	}

	result := &GuardedCallResult{Contract: record.Address, Sender: session.Signing.Sender()}
	args := session.Registry.ResolveArgs(params.Args)

	value, err := readCall(ctx, uc.node, uc.encoder, session, record, params.Function, args)
	if err != nil {
		return nil, err
	}
	guard, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("%s must return a single bool, got %T", params.Function, value)
	}
	if !guard {
		uc.progress.Info(fmt.Sprintf("%s returned false, nothing sent.", params.Function))
		return result, nil
	}

	payload, err := uc.encoder.EncodeCall(record.ABI, params.Function, args)
	if err != nil {
		return nil, err
	}
	receipt, err := sendAndAwait(ctx, session, uc.tracker, record.Address, payload, nil, session.gas(uc.config))
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &domain.TransactionRevertedError{Contract: params.Contract, Function: params.Function, TxHash: receipt.TxHash}
	}

	uc.progress.Info(fmt.Sprintf("Transaction %s for contract %s completed.", params.Function, params.Contract))
	result.Triggered = true
	result.TxHash = receipt.TxHash
	result.GasUsed = receipt.GasUsed
	return result, nil
}

// target builds the record to call from the explicit ABI or the registry
func (uc *GuardedCall) target(session *Session, params GuardedCallParams) (models.ContractRecord, error) {
	if len(params.ABI) == 0 {
		return session.Registry.Lookup(params.Contract)
	}
	address, err := session.Registry.AddressOf(params.Contract)
	if err != nil {
		return models.ContractRecord{}, err
	}
	return models.NewContractRecord(params.Contract, address, params.ABI)
}
