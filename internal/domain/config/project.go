package config

// ProjectFile represents the mangonel.toml configuration file
type ProjectFile struct {
	Networks map[string]NetworkConfig `toml:"networks"`
	Deploy   DeploySection            `toml:"deploy"`
	Receipt  ReceiptSection           `toml:"receipt"`
	Registry RegistrySection          `toml:"registry"`
}

// NetworkConfig represents a [networks.<name>] section
type NetworkConfig struct {
	RPCURL     string `toml:"rpc_url"`
	ChainID    uint64 `toml:"chain_id,omitempty"`
	PrivateKey string `toml:"private_key,omitempty"`
}

// DeploySection represents the [deploy] section
type DeploySection struct {
	ContractDir  string `toml:"contract_dir,omitempty"`
	AddDevCode   *bool  `toml:"add_dev_code,omitempty"`
	Gas          uint64 `toml:"gas,omitempty"`
	GasPrice     string `toml:"gas_price,omitempty"`
	Verify       string `toml:"verify,omitempty"`
	MaxAttempts  int    `toml:"max_attempts,omitempty"`
	RetryBackoff string `toml:"retry_backoff,omitempty"`
}

// ReceiptSection represents the [receipt] section
type ReceiptSection struct {
	PollInterval string  `toml:"poll_interval,omitempty"`
	Backoff      float64 `toml:"backoff,omitempty"`
	MaxInterval  string  `toml:"max_interval,omitempty"`
	Timeout      string  `toml:"timeout,omitempty"`
}

// RegistrySection represents the [registry] section
type RegistrySection struct {
	Backend        string `toml:"backend,omitempty"`
	AllowOverwrite bool   `toml:"allow_overwrite,omitempty"`
}
