package domain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SigningContext selects who signs transactions for a run. It is either
// NodeCustodied or LocalKey and is chosen once, before the first instruction.
type SigningContext interface {
	Sender() common.Address
	Mode() string
	signingContext()
}

// NodeCustodied delegates signing and nonce assignment to the connected node.
type NodeCustodied struct {
	Coinbase common.Address
}

// LocalKey signs raw transactions in-process with a private key.
type LocalKey struct {
	PrivateKey *ecdsa.PrivateKey
}

func (n NodeCustodied) Sender() common.Address { return n.Coinbase }
func (n NodeCustodied) Mode() string            { return "node" }
func (NodeCustodied) signingContext()           {}

func (l LocalKey) Sender() common.Address { return crypto.PubkeyToAddress(l.PrivateKey.PublicKey) }
func (l LocalKey) Mode() string            { return "local-key" }
func (LocalKey) signingContext()           {}

// ParseLocalKey builds a LocalKey from a hex private key, with or without 0x prefix.
func ParseLocalKey(hexKey string) (LocalKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return LocalKey{}, fmt.Errorf("invalid private key: %w", err)
	}
	return LocalKey{PrivateKey: key}, nil
}
