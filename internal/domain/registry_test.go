package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
)

const tokenABI = `[{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}]`

var (
	addrA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	addrB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func record(t *testing.T, name string, address common.Address) models.ContractRecord {
	t.Helper()
	rec, err := models.NewContractRecord(name, address, json.RawMessage(tokenABI))
	require.NoError(t, err)
	return rec
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry(RegistryPolicy{})
	require.NoError(t, reg.Register(record(t, "Token", addrA)))

	assert.True(t, reg.Has("Token"))
	assert.False(t, reg.Has("Fund"))
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Lookup("Token")
	require.NoError(t, err)
	assert.Equal(t, addrA, got.Address)

	parsed, err := reg.ABIOf("Token")
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "balanceOf")
}

func TestRegistry_DuplicatePolicy(t *testing.T) {
	t.Run("same address is a no-op", func(t *testing.T) {
		reg := NewRegistry(RegistryPolicy{})
		require.NoError(t, reg.Register(record(t, "Token", addrA)))
		require.NoError(t, reg.Register(record(t, "Token", addrA)))
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("different address fails under strict policy", func(t *testing.T) {
		reg := NewRegistry(RegistryPolicy{})
		require.NoError(t, reg.Register(record(t, "Token", addrA)))

		err := reg.Register(record(t, "Token", addrB))
		var dup *DuplicateNameError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, addrA, dup.Existing)
		assert.Equal(t, addrB, dup.New)

		got, _ := reg.Lookup("Token")
		assert.Equal(t, addrA, got.Address)
	})

	t.Run("overwrite policy keeps the last write", func(t *testing.T) {
		reg := NewRegistry(RegistryPolicy{AllowOverwrite: true})
		require.NoError(t, reg.Register(record(t, "Token", addrA)))
		require.NoError(t, reg.Register(record(t, "Token", addrB)))

		got, _ := reg.Lookup("Token")
		assert.Equal(t, addrB, got.Address)
	})
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry(RegistryPolicy{})
	require.NoError(t, reg.Register(record(t, "Token", addrA)))

	tests := []struct {
		token string
		want  string
	}{
		{"Token", addrA.Hex()},
		{"Unknown", "Unknown"},
		{"0x3333333333333333333333333333333333333333", "0x3333333333333333333333333333333333333333"},
		{"42", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.Resolve(tt.token))
		})
	}
}

func TestRegistry_AddressOf(t *testing.T) {
	reg := NewRegistry(RegistryPolicy{})
	require.NoError(t, reg.Register(record(t, "Token", addrA)))

	got, err := reg.AddressOf("Token")
	require.NoError(t, err)
	assert.Equal(t, addrA, got)

	got, err = reg.AddressOf(addrB.Hex())
	require.NoError(t, err)
	assert.Equal(t, addrB, got)

	_, err = reg.AddressOf("Tokn")
	var unknown *UnknownContractError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"Token"}, unknown.Suggestions)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_MergeAddresses(t *testing.T) {
	reg := NewRegistry(RegistryPolicy{})
	require.NoError(t, reg.Register(record(t, "Token", addrA)))
	require.NoError(t, reg.Register(record(t, "Fund", addrB)))

	merged := reg.MergeAddresses(map[string]string{
		"Fund":   "0x4444444444444444444444444444444444444444",
		"Wallet": "Token",
	})

	assert.Equal(t, map[string]string{
		"Token":  addrA.Hex(),
		"Fund":   "0x4444444444444444444444444444444444444444",
		"Wallet": addrA.Hex(),
	}, merged)

	// the registry itself is untouched
	assert.Equal(t, addrB.Hex(), reg.Resolve("Fund"))
}

func TestRegistry_RecordsSorted(t *testing.T) {
	reg := NewRegistry(RegistryPolicy{})
	require.NoError(t, reg.Register(record(t, "Zeta", addrA)))
	require.NoError(t, reg.Register(record(t, "Alpha", addrB)))

	records := reg.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Alpha", records[0].Name)
	assert.Equal(t, "Zeta", records[1].Name)
}

func TestContractRecord_JSONRoundTrip(t *testing.T) {
	rec := record(t, "Token", addrA)
	rec.TxHash = common.HexToHash("0xabc")

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var restored models.ContractRecord
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, rec.Name, restored.Name)
	assert.Equal(t, rec.Address, restored.Address)
	assert.Equal(t, rec.TxHash, restored.TxHash)
	assert.Contains(t, restored.ABI.Methods, "balanceOf")
}

func TestDeployment_ContractName(t *testing.T) {
	assert.Equal(t, "SingularDTVFund", Deployment{File: "contracts/SingularDTVFund.sol"}.ContractName())
	assert.Equal(t, LanguageSolidity, Deployment{File: "Token.sol"}.Language())
	assert.Equal(t, LanguageSerpent, Deployment{File: "market.se"}.Language())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&SubmissionError{Op: "send", Err: errors.New("eof")}))
	assert.True(t, IsRetryable(&VerificationError{Err: ErrEmptyCode}))
	assert.True(t, IsRetryable(&ReceiptTimeoutError{}))
	assert.False(t, IsRetryable(&CompilationError{File: "A.sol", Err: errors.New("boom")}))
	assert.False(t, IsRetryable(&AbiMismatchError{Index: -1}))
}

func TestRegistry_ResolveArgs(t *testing.T) {
	reg := NewRegistry(RegistryPolicy{})
	require.NoError(t, reg.Register(record(t, "Token", addrA)))

	args := []any{"Token", "literal", json.Number("7"), true, []any{"Token", addrB.Hex()}}
	got := reg.ResolveArgs(args)

	assert.Equal(t, []any{addrA.Hex(), "literal", json.Number("7"), true, []any{addrA.Hex(), addrB.Hex()}}, got)
	assert.Equal(t, "Token", args[0], "input is not mutated")
	assert.Nil(t, reg.ResolveArgs(nil))
}
