package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// NodeAdapter implements usecase.NodeClient over JSON-RPC
type NodeAdapter struct {
	rpc    *rpc.Client
	client *ethclient.Client
}

// Dial connects to the node at rpcURL. Sessions check the chain ID when they open.
func Dial(ctx context.Context, rpcURL string) (*NodeAdapter, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return &NodeAdapter{
		rpc:    rpcClient,
		client: ethclient.NewClient(rpcClient),
	}, nil
}

// Close releases the underlying connection
func (n *NodeAdapter) Close() {
	n.rpc.Close()
}

func (n *NodeAdapter) Coinbase(ctx context.Context) (common.Address, error) {
	var coinbase common.Address
	if err := n.rpc.CallContext(ctx, &coinbase, "eth_coinbase"); err != nil {
		return common.Address{}, fmt.Errorf("eth_coinbase: %w", err)
	}
	return coinbase, nil
}

func (n *NodeAdapter) ChainID(ctx context.Context) (*big.Int, error) {
	return n.client.ChainID(ctx)
}

func (n *NodeAdapter) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return n.client.BalanceAt(ctx, account, nil)
}

func (n *NodeAdapter) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return n.client.PendingNonceAt(ctx, account)
}

func (n *NodeAdapter) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return n.client.SuggestGasPrice(ctx)
}

// sendTxArgs is the JSON shape of eth_sendTransaction parameters
type sendTxArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Data     hexutil.Bytes   `json:"data"`
	Gas      hexutil.Uint64  `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
}

func (n *NodeAdapter) SendTransaction(ctx context.Context, args usecase.TransactionArgs) (common.Hash, error) {
	params := sendTxArgs{
		From: args.From,
		To:   args.To,
		Data: args.Data,
		Gas:  hexutil.Uint64(args.Gas),
	}
	if args.GasPrice != nil {
		params.GasPrice = (*hexutil.Big)(args.GasPrice)
	}
	if args.Value != nil && args.Value.Sign() > 0 {
		params.Value = (*hexutil.Big)(args.Value)
	}

	var hash common.Hash
	if err := n.rpc.CallContext(ctx, &hash, "eth_sendTransaction", params); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (n *NodeAdapter) SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := n.client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

func (n *NodeAdapter) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := n.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	return receipt, err
}

func (n *NodeAdapter) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return n.client.CodeAt(ctx, account, nil)
}

func (n *NodeAdapter) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return n.client.CallContract(ctx, msg, nil)
}

// Ensure the adapter implements the interface
var _ usecase.NodeClient = (*NodeAdapter)(nil)
