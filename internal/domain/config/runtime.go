package config

import (
	"math/big"
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Node connection
	Network *Network

	// Execution settings
	Debug          bool
	NonInteractive bool

	// Signing: empty selects the node-custodied path
	PrivateKey string

	// Compilation
	ContractDir string
	AddDevCode  bool

	Gas      GasConfig
	Receipt  ReceiptConfig
	Deploy   DeployConfig
	Registry RegistryConfig

	// Config source tracking
	ConfigFile string // path of mangonel.toml, empty when absent
}

// Network represents network configuration
type Network struct {
	ChainID uint64 `json:"chainId"`
	Name    string `json:"name"`
	RPCURL  string `json:"rpcUrl"`
}

// GasConfig holds gas parameters applied to every transaction
type GasConfig struct {
	Limit uint64
	Price *big.Int // nil or zero asks the node
}

// ReceiptConfig controls receipt polling
type ReceiptConfig struct {
	PollInterval time.Duration
	Backoff      float64
	MaxInterval  time.Duration
	Timeout      time.Duration // 0 waits forever
}

// VerifyStrategy selects how deployments are checked
type VerifyStrategy string

const (
	VerifyMinimal VerifyStrategy = "minimal"
	VerifyStrict  VerifyStrategy = "strict"
)

// DeployConfig controls deployment attempts
type DeployConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
	Verify       VerifyStrategy
}

// RegistryBackend names a registry persistence backend
type RegistryBackend string

const (
	RegistryJSON   RegistryBackend = "json"
	RegistryBolt   RegistryBackend = "bolt"
	RegistryMemory RegistryBackend = "memory"
)

// RegistryConfig controls registry persistence and duplicate handling
type RegistryConfig struct {
	Backend        RegistryBackend
	AllowOverwrite bool
}
