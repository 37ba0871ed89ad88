package senders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// MockNode is a mock implementation of usecase.NodeClient
type MockNode struct {
	mock.Mock
}

func (m *MockNode) Coinbase(ctx context.Context) (common.Address, error) {
	args := m.Called(ctx)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockNode) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockNode) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockNode) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockNode) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockNode) SendTransaction(ctx context.Context, txArgs usecase.TransactionArgs) (common.Hash, error) {
	args := m.Called(ctx, txArgs)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *MockNode) SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *MockNode) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *MockNode) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	args := m.Called(ctx, account)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNode) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).([]byte), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocalKey(t *testing.T) domain.LocalKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return domain.LocalKey{PrivateKey: key}
}

func TestNodeSubmitter(t *testing.T) {
	ctx := context.Background()
	coinbase := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	target := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	hash := common.HexToHash("0x01")

	t.Run("create omits recipient and passes gas", func(t *testing.T) {
		node := new(MockNode)
		node.On("SendTransaction", ctx, usecase.TransactionArgs{
			From:     coinbase,
			Data:     []byte{0x60, 0x00},
			Gas:      4712388,
			GasPrice: big.NewInt(50000000000),
		}).Return(hash, nil)

		s := NewNodeSubmitter(node, domain.NodeCustodied{Coinbase: coinbase}, discardLogger())
		got, err := s.SubmitCreate(ctx, []byte{0x60, 0x00}, usecase.GasParams{Limit: 4712388, Price: big.NewInt(50000000000)})
		require.NoError(t, err)
		assert.Equal(t, hash, got)
		assert.Equal(t, coinbase, s.Sender())
		node.AssertExpectations(t)
	})

	t.Run("call with zero price leaves pricing to the node", func(t *testing.T) {
		node := new(MockNode)
		node.On("SendTransaction", ctx, mock.MatchedBy(func(a usecase.TransactionArgs) bool {
			return a.To != nil && *a.To == target && a.GasPrice == nil && a.Value.Cmp(big.NewInt(7)) == 0
		})).Return(hash, nil)

		s := NewNodeSubmitter(node, domain.NodeCustodied{Coinbase: coinbase}, discardLogger())
		_, err := s.SubmitCall(ctx, target, []byte{0x01}, big.NewInt(7), usecase.GasParams{Limit: 21000, Price: new(big.Int)})
		require.NoError(t, err)
		node.AssertExpectations(t)
	})

	t.Run("transport failures become SubmissionError", func(t *testing.T) {
		node := new(MockNode)
		node.On("SendTransaction", ctx, mock.Anything).Return(common.Hash{}, errors.New("connection refused"))

		s := NewNodeSubmitter(node, domain.NodeCustodied{Coinbase: coinbase}, discardLogger())
		_, err := s.SubmitCreate(ctx, []byte{0x00}, usecase.GasParams{})
		var subErr *domain.SubmissionError
		require.ErrorAs(t, err, &subErr)
		assert.True(t, domain.IsRetryable(err))
	})
}

func TestLocalKeySubmitter_NonceMonotonicity(t *testing.T) {
	ctx := context.Background()
	signing := newLocalKey(t)
	from := signing.Sender()
	target := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	node := new(MockNode)
	node.On("ChainID", ctx).Return(big.NewInt(1337), nil)
	// the node never catches up with what was sent
	node.On("PendingNonceAt", ctx, from).Return(uint64(5), nil).Once()

	var sent []*types.Transaction
	node.On("SendRawTransaction", ctx, mock.Anything).Run(func(args mock.Arguments) {
		sent = append(sent, args.Get(1).(*types.Transaction))
	}).Return(common.HexToHash("0x02"), nil)

	s, err := NewLocalKeySubmitter(ctx, node, signing, discardLogger())
	require.NoError(t, err)

	gas := usecase.GasParams{Limit: 100000, Price: big.NewInt(1)}
	const n = 4
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			_, err = s.SubmitCreate(ctx, []byte{0x60, 0x00}, gas)
		} else {
			_, err = s.SubmitCall(ctx, target, []byte{0x01}, nil, gas)
		}
		require.NoError(t, err)
	}

	require.Len(t, sent, n)
	signer := types.LatestSignerForChainID(big.NewInt(1337))
	for i, tx := range sent {
		assert.Equal(t, uint64(5+i), tx.Nonce())
		sender, err := types.Sender(signer, tx)
		require.NoError(t, err)
		assert.Equal(t, from, sender)
	}
	assert.Nil(t, sent[0].To())
	assert.Equal(t, target, *sent[1].To())
	node.AssertNumberOfCalls(t, "PendingNonceAt", 1)
}

func TestLocalKeySubmitter_FailedSendKeepsNonce(t *testing.T) {
	ctx := context.Background()
	signing := newLocalKey(t)
	from := signing.Sender()

	node := new(MockNode)
	node.On("ChainID", ctx).Return(big.NewInt(1), nil)
	node.On("PendingNonceAt", ctx, from).Return(uint64(0), nil)
	node.On("SuggestGasPrice", ctx).Return(big.NewInt(3), nil)

	var nonces []uint64
	record := func(args mock.Arguments) {
		nonces = append(nonces, args.Get(1).(*types.Transaction).Nonce())
	}
	node.On("SendRawTransaction", ctx, mock.Anything).Run(record).Return(common.HexToHash("0x1"), nil).Once()
	node.On("SendRawTransaction", ctx, mock.Anything).Run(record).Return(common.Hash{}, errors.New("timeout")).Once()
	node.On("SendRawTransaction", ctx, mock.Anything).Run(record).Return(common.HexToHash("0x3"), nil)

	s, err := NewLocalKeySubmitter(ctx, node, signing, discardLogger())
	require.NoError(t, err)

	_, err = s.SubmitCreate(ctx, []byte{0x00}, usecase.GasParams{Limit: 50000})
	require.NoError(t, err)
	_, err = s.SubmitCreate(ctx, []byte{0x00}, usecase.GasParams{Limit: 50000})
	var subErr *domain.SubmissionError
	require.ErrorAs(t, err, &subErr)
	_, err = s.SubmitCreate(ctx, []byte{0x00}, usecase.GasParams{Limit: 50000})
	require.NoError(t, err)

	// a lagging node (still reporting 0) must not cause a repeat
	assert.Equal(t, []uint64{0, 1, 1}, nonces)
	node.AssertNumberOfCalls(t, "PendingNonceAt", 2)
}

func TestFactory_ForContext(t *testing.T) {
	ctx := context.Background()
	node := new(MockNode)
	node.On("ChainID", ctx).Return(big.NewInt(1), nil)
	f := NewFactory(node, "", discardLogger())

	coinbase := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	s, err := f.ForContext(ctx, domain.NodeCustodied{Coinbase: coinbase})
	require.NoError(t, err)
	assert.IsType(t, &NodeSubmitter{}, s)
	assert.Equal(t, coinbase, s.Sender())

	key := newLocalKey(t)
	s, err = f.ForContext(ctx, key)
	require.NoError(t, err)
	assert.IsType(t, &LocalKeySubmitter{}, s)
	assert.Equal(t, key.Sender(), s.Sender())
}

func TestResolveSigningContext(t *testing.T) {
	ctx := context.Background()
	coinbase := common.HexToAddress("0x00000000000000000000000000000000000000c0")

	node := new(MockNode)
	node.On("Coinbase", ctx).Return(coinbase, nil)

	signing, err := ResolveSigningContext(ctx, node, "")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeCustodied{Coinbase: coinbase}, signing)

	// well-known anvil development key
	signing, err = ResolveSigningContext(ctx, node, "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	assert.Equal(t, "local-key", signing.Mode())
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), signing.Sender())

	_, err = ResolveSigningContext(ctx, node, "not-a-key")
	assert.Error(t, err)
	node.AssertNumberOfCalls(t, "Coinbase", 1)

	signing, err = NewFactory(node, "", discardLogger()).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "node", signing.Mode())
}
