package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm/runtime"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/triedb"
)

// defaultGasLimit bounds a reference constructor run
const defaultGasLimit = 30_000_000

// Reference executes creation code in a throwaway in-memory EVM to learn the
// runtime code a correct node would store.
type Reference struct {
	gasLimit uint64
}

// NewReference creates a reference EVM with the default gas limit
func NewReference() *Reference {
	return &Reference{gasLimit: defaultGasLimit}
}

// RuntimeCode runs creationCode (with any constructor arguments appended) as a
// transaction from deployer at the given account nonce, so CALLER, ORIGIN and
// ADDRESS match the real deployment. It returns the deployed code and the
// address it was created at.
func (r *Reference) RuntimeCode(creationCode []byte, deployer common.Address, nonce uint64) ([]byte, common.Address, error) {
	db, err := state.New(types.EmptyRootHash, state.NewDatabase(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil), nil))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("reference state: %w", err)
	}
	db.SetNonce(deployer, nonce, tracing.NonceChangeUnspecified)

	cfg := &runtime.Config{
		Origin:      deployer,
		GasLimit:    r.gasLimit,
		Value:       new(big.Int),
		BlockNumber: new(big.Int),
		State:       db,
	}
	code, address, _, err := runtime.Create(creationCode, cfg)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("reference execution failed: %w", err)
	}
	if len(code) > params.MaxCodeSize {
		return nil, common.Address{}, fmt.Errorf("reference execution produced %d bytes of code, above the %d byte limit", len(code), params.MaxCodeSize)
	}
	return code, address, nil
}
