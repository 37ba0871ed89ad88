package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

const testABI = `[{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}]}]`

func testRecord(t *testing.T, name, address string) models.ContractRecord {
	t.Helper()
	rec, err := models.NewContractRecord(name, common.HexToAddress(address), json.RawMessage(testABI))
	require.NoError(t, err)
	return rec
}

func exerciseStore(t *testing.T, store usecase.RegistryStore) {
	ctx := context.Background()

	records, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, store.Save(ctx, 1, testRecord(t, "Token", "0x1111111111111111111111111111111111111111")))
	require.NoError(t, store.Save(ctx, 1, testRecord(t, "Fund", "0x2222222222222222222222222222222222222222")))
	require.NoError(t, store.Save(ctx, 5, testRecord(t, "Token", "0x3333333333333333333333333333333333333333")))

	records, err = store.Load(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Fund", records[0].Name)
	assert.Equal(t, "Token", records[1].Name)
	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), records[1].Address)
	assert.Contains(t, records[1].ABI.Methods, "owner")

	records, err = store.Load(ctx, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, common.HexToAddress("0x3333333333333333333333333333333333333333"), records[0].Address)
}

func TestRegistryStore(t *testing.T) {
	root := t.TempDir()
	exerciseStore(t, NewRegistryStore(root))

	_, err := os.Stat(filepath.Join(root, MangonelDir, RegistryDir, "1.json"))
	assert.NoError(t, err)

	// a second store over the same directory sees the saved records
	records, err := NewRegistryStore(root).Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRegistryStore_Corrupt(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, MangonelDir, RegistryDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.json"), []byte("{"), 0644))

	_, err := NewRegistryStore(root).Load(context.Background(), 1)
	assert.ErrorContains(t, err, "failed to parse registry")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestABIWriter(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abi")
	w := NewABIWriter(root)

	path, err := w.WriteABI("abi", "Token", json.RawMessage("[\n  {\"type\": \"fallback\"}\n]"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Token.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"fallback"}]`, string(data))

	_, err = w.WriteABI(dir, "Bad", json.RawMessage("{"))
	assert.Error(t, err)
}
