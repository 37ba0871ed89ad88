package senders

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// LocalKeySubmitter signs legacy transactions in-process and sends them raw.
// It owns the nonce of its key for the lifetime of a run.
type LocalKeySubmitter struct {
	node   usecase.NodeClient
	key    *ecdsa.PrivateKey
	from   common.Address
	signer types.Signer
	log    *slog.Logger

	mu        sync.Mutex
	nextNonce uint64
	synced    bool
}

// NewLocalKeySubmitter creates a submitter for key, signing for the node's chain.
func NewLocalKeySubmitter(ctx context.Context, node usecase.NodeClient, signing domain.LocalKey, log *slog.Logger) (*LocalKeySubmitter, error) {
	chainID, err := node.ChainID(ctx)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "eth_chainId", Err: err}
	}
	return &LocalKeySubmitter{
		node:   node,
		key:    signing.PrivateKey,
		from:   signing.Sender(),
		signer: types.LatestSignerForChainID(chainID),
		log:    log.With("component", "LocalKeySubmitter"),
	}, nil
}

func (s *LocalKeySubmitter) Sender() common.Address { return s.from }

func (s *LocalKeySubmitter) SubmitCreate(ctx context.Context, code []byte, gas usecase.GasParams) (common.Hash, error) {
	return s.send(ctx, nil, code, nil, gas)
}

func (s *LocalKeySubmitter) SubmitCall(ctx context.Context, to common.Address, payload []byte, value *big.Int, gas usecase.GasParams) (common.Hash, error) {
	return s.send(ctx, &to, payload, value, gas)
}

func (s *LocalKeySubmitter) send(ctx context.Context, to *common.Address, data []byte, value *big.Int, gas usecase.GasParams) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := s.reserveNonce(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	price := gas.Price
	if price == nil || price.Sign() == 0 {
		if price, err = s.node.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, &domain.SubmissionError{Op: "eth_gasPrice", Err: err}
		}
	}
	if value == nil {
		value = new(big.Int)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: price,
		Gas:      gas.Limit,
		To:       to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	hash, err := s.node.SendRawTransaction(ctx, signed)
	if err != nil {
		// the node may or may not have seen it; ask again next time
		s.synced = false
		return common.Hash{}, &domain.SubmissionError{Op: "eth_sendRawTransaction", Err: err}
	}

	s.nextNonce = nonce + 1
	s.log.Debug("raw transaction sent", "hash", hash, "nonce", nonce, "to", to, "size", len(data))
	return hash, nil
}

// reserveNonce returns the nonce for the next transaction. The node's pending
// count is consulted on first use and after a failed send; the larger of it and
// the local counter wins, so a lagging node never causes a repeat.
func (s *LocalKeySubmitter) reserveNonce(ctx context.Context) (uint64, error) {
	if s.synced {
		return s.nextNonce, nil
	}
	pending, err := s.node.PendingNonceAt(ctx, s.from)
	if err != nil {
		return 0, &domain.SubmissionError{Op: "eth_getTransactionCount", Err: err}
	}
	s.nextNonce = max(s.nextNonce, pending)
	s.synced = true
	return s.nextNonce, nil
}

var _ usecase.TransactionSubmitter = (*LocalKeySubmitter)(nil)
