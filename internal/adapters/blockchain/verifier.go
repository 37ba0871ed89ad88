package blockchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// nonceSearchDepth bounds how far back from the pending nonce the deployment nonce is searched
const nonceSearchDepth = 256

// ReferenceEVM computes the runtime code creation code should deploy when sent
// from deployer at nonce
type ReferenceEVM interface {
	RuntimeCode(creationCode []byte, deployer common.Address, nonce uint64) ([]byte, common.Address, error)
}

// Verifier checks deployments against on-chain code
type Verifier struct {
	node      usecase.NodeClient
	reference ReferenceEVM
	strategy  config.VerifyStrategy
	log       *slog.Logger
}

// NewVerifier creates a deployment verifier. reference is only consulted by the strict strategy.
func NewVerifier(node usecase.NodeClient, reference ReferenceEVM, strategy config.VerifyStrategy, log *slog.Logger) *Verifier {
	if strategy == "" {
		strategy = config.VerifyMinimal
	}
	return &Verifier{
		node:      node,
		reference: reference,
		strategy:  strategy,
		log:       log.With("component", "Verifier"),
	}
}

// VerifyDeployment fails with a VerificationError unless the receipt succeeded and
// left code at its contract address. Under the strict strategy the code must also
// equal what the reference EVM derives from creationCode run by deployer.
func (v *Verifier) VerifyDeployment(ctx context.Context, receipt *types.Receipt, deployer common.Address, creationCode []byte) error {
	fail := func(err error) error {
		return &domain.VerificationError{Address: receipt.ContractAddress, TxHash: receipt.TxHash, Err: err}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return fail(domain.ErrReceiptFailed)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return fail(errors.New("receipt has no contract address"))
	}

	code, err := v.node.CodeAt(ctx, receipt.ContractAddress)
	if err != nil {
		return fail(fmt.Errorf("eth_getCode: %w", err))
	}
	if len(code) == 0 {
		return fail(domain.ErrEmptyCode)
	}

	if v.strategy != config.VerifyStrict {
		return nil
	}
	if v.reference == nil {
		return fmt.Errorf("strict verification requires a reference EVM")
	}
	nonce, err := v.deploymentNonce(ctx, deployer, receipt.ContractAddress)
	if err != nil {
		return fail(err)
	}
	expected, _, err := v.reference.RuntimeCode(creationCode, deployer, nonce)
	if err != nil {
		return fail(err)
	}
	if !bytes.Equal(expected, code) {
		v.log.Debug("code mismatch", "address", receipt.ContractAddress, "expected", len(expected), "actual", len(code))
		return fail(domain.ErrCodeMismatch)
	}
	return nil
}

// deploymentNonce finds the nonce deployer created contract at, walking back
// from the pending nonce since the deployment is usually the latest transaction
func (v *Verifier) deploymentNonce(ctx context.Context, deployer, contract common.Address) (uint64, error) {
	pending, err := v.node.PendingNonceAt(ctx, deployer)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	for n := pending; n > 0 && pending-n < nonceSearchDepth; n-- {
		if crypto.CreateAddress(deployer, n-1) == contract {
			return n - 1, nil
		}
	}
	return 0, fmt.Errorf("%s was not created by %s in its last %d transactions", contract.Hex(), deployer.Hex(), nonceSearchDepth)
}

var _ usecase.DeploymentVerifier = (*Verifier)(nil)
