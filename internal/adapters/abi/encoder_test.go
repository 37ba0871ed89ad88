package abi

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
)

const crowdfundABI = `[
	{"type":"constructor","inputs":[{"name":"fund","type":"address"},{"name":"cap","type":"uint256"}]},
	{"type":"function","name":"setup","inputs":[{"name":"fund","type":"address"},{"name":"token","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"stage","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"fundBalance","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"info","inputs":[],"outputs":[{"name":"stage","type":"uint8"},{"name":"tag","type":"bytes32"}]},
	{"type":"function","name":"allocate","inputs":[{"name":"to","type":"address[]"},{"name":"amounts","type":"uint64[2]"},{"name":"memo","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"}],"outputs":[]},
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var (
	fundAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func parsed(t *testing.T) abi.ABI {
	t.Helper()
	a, err := abi.JSON(strings.NewReader(crowdfundABI))
	require.NoError(t, err)
	return a
}

func TestEncoder_EncodeConstructor(t *testing.T) {
	a := parsed(t)
	e := NewEncoder()

	got, err := e.EncodeConstructor(a, []any{fundAddr.Hex(), json.Number("1000000000000000000000")})
	require.NoError(t, err)

	limit, _ := new(big.Int).SetString("1000000000000000000000", 10)
	want, err := a.Constructor.Inputs.Pack(fundAddr, limit)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = e.EncodeConstructor(a, []any{fundAddr.Hex()})
	var mismatch *domain.AbiMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, -1, mismatch.Index)
	assert.Empty(t, mismatch.Function)
}

func TestEncoder_EncodeCall(t *testing.T) {
	a := parsed(t)
	e := NewEncoder()

	t.Run("addresses", func(t *testing.T) {
		got, err := e.EncodeCall(a, "setup", []any{fundAddr.Hex(), tokenAddr.Hex()})
		require.NoError(t, err)

		want, err := a.Pack("setup", fundAddr, tokenAddr)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("lists, fixed arrays and bytes", func(t *testing.T) {
		got, err := e.EncodeCall(a, "allocate", []any{
			[]any{fundAddr.Hex(), tokenAddr.Hex()},
			[]any{json.Number("1"), "0x10"},
			"0xdeadbeef",
		})
		require.NoError(t, err)

		want, err := a.Pack("allocate", []common.Address{fundAddr, tokenAddr}, [2]uint64{1, 16}, []byte{0xde, 0xad, 0xbe, 0xef})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("overloads are chosen by argument count", func(t *testing.T) {
		one, err := e.EncodeCall(a, "transfer", []any{fundAddr.Hex()})
		require.NoError(t, err)
		two, err := e.EncodeCall(a, "transfer", []any{fundAddr.Hex(), "5"})
		require.NoError(t, err)
		assert.NotEqual(t, one[:4], two[:4])
	})

	tests := []struct {
		name  string
		fn    string
		args  []any
		index int
	}{
		{"wrong count", "setup", []any{fundAddr.Hex()}, -1},
		{"unresolved name", "setup", []any{fundAddr.Hex(), "Token"}, 1},
		{"bad bytes", "allocate", []any{[]any{}, []any{"1", "2"}, "zz"}, 2},
		{"array length", "allocate", []any{[]any{}, []any{"1"}, "0x"}, 1},
		{"unknown function", "missing", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EncodeCall(a, tt.fn, tt.args)
			var mismatch *domain.AbiMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.index, mismatch.Index)
		})
	}
}

func TestEncoder_SymbolicResolution(t *testing.T) {
	a := parsed(t)
	e := NewEncoder()

	reg := domain.NewRegistry(domain.RegistryPolicy{})
	rec, err := models.NewContractRecord("Fund", fundAddr, json.RawMessage(crowdfundABI))
	require.NoError(t, err)
	require.NoError(t, reg.Register(rec))

	got, err := e.EncodeCall(a, "setup", reg.ResolveArgs([]any{"Fund", tokenAddr.Hex()}))
	require.NoError(t, err)

	want, err := a.Pack("setup", fundAddr, tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncoder_DecodeReturnAndEqual(t *testing.T) {
	a := parsed(t)
	e := NewEncoder()

	t.Run("single output", func(t *testing.T) {
		data, err := a.Methods["fundBalance"].Outputs.Pack(big.NewInt(42))
		require.NoError(t, err)

		got, err := e.DecodeReturn(a, "fundBalance", 0, data)
		require.NoError(t, err)
		assert.Equal(t, 0, got.(*big.Int).Cmp(big.NewInt(42)))

		ok, err := e.Equal(a, "fundBalance", 0, json.Number("42"), got)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = e.Equal(a, "fundBalance", 0, "43", got)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("small integers and addresses", func(t *testing.T) {
		data, _ := a.Methods["stage"].Outputs.Pack(uint8(2))
		got, err := e.DecodeReturn(a, "stage", 0, data)
		require.NoError(t, err)
		ok, err := e.Equal(a, "stage", 0, json.Number("2"), got)
		require.NoError(t, err)
		assert.True(t, ok)

		data, _ = a.Methods["owner"].Outputs.Pack(fundAddr)
		got, err = e.DecodeReturn(a, "owner", 0, data)
		require.NoError(t, err)
		ok, err = e.Equal(a, "owner", 0, strings.ToLower(fundAddr.Hex()), got)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("multiple outputs", func(t *testing.T) {
		var tag [32]byte
		tag[0] = 0xab
		data, err := a.Methods["info"].Outputs.Pack(uint8(1), tag)
		require.NoError(t, err)

		got, err := e.DecodeReturn(a, "info", 0, data)
		require.NoError(t, err)
		require.Len(t, got, 2)

		ok, err := e.Equal(a, "info", 0, []any{"1", "0xab"}, got)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = e.Equal(a, "info", 0, "1", got)
		var mismatch *domain.AbiMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})
}

func TestEncoder_OverloadedReadAndCompare(t *testing.T) {
	a, err := abi.JSON(strings.NewReader(`[
		{"type":"function","name":"get","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"get","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
	]`))
	require.NoError(t, err)
	e := NewEncoder()

	input, err := e.EncodeCall(a, "get", []any{"1"})
	require.NoError(t, err)
	assert.Equal(t, a.Methods["get0"].ID, input[:4])

	data, err := a.Methods["get0"].Outputs.Pack(true)
	require.NoError(t, err)

	got, err := e.DecodeReturn(a, "get", 1, data)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	ok, err := e.Equal(a, "get", 1, true, got)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err = a.Methods["get"].Outputs.Pack(big.NewInt(7))
	require.NoError(t, err)
	got, err = e.DecodeReturn(a, "get", 0, data)
	require.NoError(t, err)
	ok, err = e.Equal(a, "get", 0, "7", got)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCoerceInteger_Range(t *testing.T) {
	uint8Type, _ := abi.NewType("uint8", "", nil)
	int16Type, _ := abi.NewType("int16", "", nil)

	v, err := coerce(uint8Type, json.Number("255"))
	require.NoError(t, err)
	assert.Equal(t, uint8(255), v)

	_, err = coerce(uint8Type, json.Number("256"))
	assert.Error(t, err)
	_, err = coerce(uint8Type, "-1")
	assert.Error(t, err)

	v, err = coerce(int16Type, "-32768")
	require.NoError(t, err)
	assert.Equal(t, int16(-32768), v)
	_, err = coerce(int16Type, "32768")
	assert.Error(t, err)
}
