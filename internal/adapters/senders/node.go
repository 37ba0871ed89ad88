package senders

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// NodeSubmitter delegates signing and nonce assignment to the node
type NodeSubmitter struct {
	node usecase.NodeClient
	from common.Address
	log  *slog.Logger
}

// NewNodeSubmitter creates a submitter sending from the node's coinbase
func NewNodeSubmitter(node usecase.NodeClient, signing domain.NodeCustodied, log *slog.Logger) *NodeSubmitter {
	return &NodeSubmitter{
		node: node,
		from: signing.Coinbase,
		log:  log.With("component", "NodeSubmitter"),
	}
}

func (s *NodeSubmitter) Sender() common.Address { return s.from }

func (s *NodeSubmitter) SubmitCreate(ctx context.Context, code []byte, gas usecase.GasParams) (common.Hash, error) {
	return s.send(ctx, nil, code, nil, gas)
}

func (s *NodeSubmitter) SubmitCall(ctx context.Context, to common.Address, payload []byte, value *big.Int, gas usecase.GasParams) (common.Hash, error) {
	return s.send(ctx, &to, payload, value, gas)
}

func (s *NodeSubmitter) send(ctx context.Context, to *common.Address, data []byte, value *big.Int, gas usecase.GasParams) (common.Hash, error) {
	args := usecase.TransactionArgs{
		From:  s.from,
		To:    to,
		Data:  data,
		Gas:   gas.Limit,
		Value: value,
	}
	// zero price lets the node choose
	if gas.Price != nil && gas.Price.Sign() > 0 {
		args.GasPrice = gas.Price
	}

	hash, err := s.node.SendTransaction(ctx, args)
	if err != nil {
		return common.Hash{}, &domain.SubmissionError{Op: "eth_sendTransaction", Err: err}
	}
	s.log.Debug("transaction sent", "hash", hash, "from", s.from, "to", to, "size", len(data))
	return hash, nil
}

var _ usecase.TransactionSubmitter = (*NodeSubmitter)(nil)
