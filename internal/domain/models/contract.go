package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractRecord is a confirmed deployment: a logical contract name bound to its
// on-chain address and interface descriptor.
type ContractRecord struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
	RawABI  json.RawMessage

	// Provenance, informational only
	TxHash     common.Hash
	DeployedAt time.Time
}

// NewContractRecord parses rawABI and builds a record for name at address.
func NewContractRecord(name string, address common.Address, rawABI json.RawMessage) (ContractRecord, error) {
	parsed, err := ParseABI(rawABI)
	if err != nil {
		return ContractRecord{}, fmt.Errorf("invalid ABI for %s: %w", name, err)
	}
	return ContractRecord{
		Name:    name,
		Address: address,
		ABI:     parsed,
		RawABI:  rawABI,
	}, nil
}

// ParseABI parses a JSON interface descriptor. An empty descriptor yields an empty ABI.
func ParseABI(raw json.RawMessage) (abi.ABI, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return abi.ABI{}, nil
	}
	return abi.JSON(strings.NewReader(string(raw)))
}

// storedRecord is the persisted shape of a ContractRecord
type storedRecord struct {
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	ABI        json.RawMessage `json:"abi"`
	TxHash     string          `json:"txHash,omitempty"`
	DeployedAt time.Time       `json:"deployedAt"`
}

// MarshalJSON stores the raw ABI so that the record can be parsed back later.
func (r ContractRecord) MarshalJSON() ([]byte, error) {
	stored := storedRecord{
		Name:       r.Name,
		Address:    r.Address.Hex(),
		ABI:        r.RawABI,
		DeployedAt: r.DeployedAt,
	}
	if r.TxHash != (common.Hash{}) {
		stored.TxHash = r.TxHash.Hex()
	}
	if len(stored.ABI) == 0 {
		stored.ABI = json.RawMessage("[]")
	}
	return json.Marshal(stored)
}

// UnmarshalJSON restores a record and re-parses its ABI.
func (r *ContractRecord) UnmarshalJSON(data []byte) error {
	var stored storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	if !common.IsHexAddress(stored.Address) {
		return fmt.Errorf("record %s: invalid address %q", stored.Name, stored.Address)
	}
	record, err := NewContractRecord(stored.Name, common.HexToAddress(stored.Address), stored.ABI)
	if err != nil {
		return err
	}
	if stored.TxHash != "" {
		record.TxHash = common.HexToHash(stored.TxHash)
	}
	record.DeployedAt = stored.DeployedAt
	*r = record
	return nil
}
