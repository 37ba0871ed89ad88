package config

import (
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
)

// Default values
const (
	DefaultGas         = 4712388
	DefaultGasPrice    = "50000000000"
	DefaultContractDir = "contracts/"
	DefaultHost        = "localhost"
	DefaultPort        = "8545"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	// Get project root from viper
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	project, configFile, err := LoadProjectFile(projectRoot)
	if err != nil {
		return nil, err
	}
	applyProjectDefaults(v, project)

	gasPrice, ok := new(big.Int).SetString(v.GetString("gas-price"), 0)
	if !ok || gasPrice.Sign() < 0 {
		return nil, fmt.Errorf("invalid gas price %q", v.GetString("gas-price"))
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, ".mangonel"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non-interactive"),
		PrivateKey:     v.GetString("private-key"),
		ContractDir:    resolveDir(projectRoot, v.GetString("contract-dir")),
		AddDevCode:     v.GetBool("add-dev-code"),
		Gas: config.GasConfig{
			Limit: v.GetUint64("gas"),
			Price: gasPrice,
		},
		Receipt: config.ReceiptConfig{
			PollInterval: v.GetDuration("poll-interval"),
			Backoff:      v.GetFloat64("poll-backoff"),
			MaxInterval:  v.GetDuration("max-poll-interval"),
			Timeout:      v.GetDuration("receipt-timeout"),
		},
		Deploy: config.DeployConfig{
			MaxAttempts:  v.GetInt("max-attempts"),
			RetryBackoff: v.GetDuration("retry-backoff"),
			Verify:       config.VerifyStrategy(strings.ToLower(v.GetString("verify"))),
		},
		Registry: config.RegistryConfig{
			Backend:        config.RegistryBackend(strings.ToLower(v.GetString("registry"))),
			AllowOverwrite: v.GetBool("allow-overwrite"),
		},
		ConfigFile: configFile,
	}

	network, err := resolveNetwork(v, project)
	if err != nil {
		return nil, err
	}
	cfg.Network = network
	if cfg.PrivateKey == "" {
		if nc, ok := project.Networks[network.Name]; ok {
			cfg.PrivateKey = nc.PrivateKey
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveNetwork picks the node endpoint: an explicit --rpc-url, then a named
// network from mangonel.toml, then host and port.
func resolveNetwork(v *viper.Viper, project *config.ProjectFile) (*config.Network, error) {
	name := v.GetString("network")

	if rpcURL := v.GetString("rpc-url"); rpcURL != "" {
		if name == "" {
			name = "custom"
		}
		return &config.Network{Name: name, RPCURL: rpcURL, ChainID: v.GetUint64("chain-id")}, nil
	}

	if name != "" {
		nc, ok := project.Networks[name]
		if !ok {
			return nil, fmt.Errorf("network '%s' not found in %s [networks]", name, ProjectFileName)
		}
		if nc.RPCURL == "" {
			return nil, fmt.Errorf("network '%s' has no rpc_url", name)
		}
		chainID := nc.ChainID
		if id := v.GetUint64("chain-id"); id != 0 {
			chainID = id
		}
		return &config.Network{Name: name, RPCURL: nc.RPCURL, ChainID: chainID}, nil
	}

	host := v.GetString("host")
	port := v.GetString("port")
	return &config.Network{
		Name:    "local",
		RPCURL:  "http://" + net.JoinHostPort(host, port),
		ChainID: v.GetUint64("chain-id"),
	}, nil
}

// applyProjectDefaults layers mangonel.toml values under flags and environment
func applyProjectDefaults(v *viper.Viper, project *config.ProjectFile) {
	d := project.Deploy
	if d.ContractDir != "" {
		v.SetDefault("contract-dir", d.ContractDir)
	}
	if d.AddDevCode != nil {
		v.SetDefault("add-dev-code", *d.AddDevCode)
	}
	if d.Gas != 0 {
		v.SetDefault("gas", d.Gas)
	}
	if d.GasPrice != "" {
		v.SetDefault("gas-price", d.GasPrice)
	}
	if d.Verify != "" {
		v.SetDefault("verify", d.Verify)
	}
	if d.MaxAttempts != 0 {
		v.SetDefault("max-attempts", d.MaxAttempts)
	}
	if d.RetryBackoff != "" {
		v.SetDefault("retry-backoff", d.RetryBackoff)
	}

	r := project.Receipt
	if r.PollInterval != "" {
		v.SetDefault("poll-interval", r.PollInterval)
	}
	if r.Backoff != 0 {
		v.SetDefault("poll-backoff", r.Backoff)
	}
	if r.MaxInterval != "" {
		v.SetDefault("max-poll-interval", r.MaxInterval)
	}
	if r.Timeout != "" {
		v.SetDefault("receipt-timeout", r.Timeout)
	}

	if project.Registry.Backend != "" {
		v.SetDefault("registry", project.Registry.Backend)
	}
	if project.Registry.AllowOverwrite {
		v.SetDefault("allow-overwrite", true)
	}
}

func validate(cfg *config.RuntimeConfig) error {
	switch cfg.Deploy.Verify {
	case config.VerifyMinimal, config.VerifyStrict:
	default:
		return fmt.Errorf("invalid verify strategy %q (want minimal or strict)", cfg.Deploy.Verify)
	}
	switch cfg.Registry.Backend {
	case config.RegistryJSON, config.RegistryBolt, config.RegistryMemory:
	default:
		return fmt.Errorf("invalid registry backend %q (want json, bolt or memory)", cfg.Registry.Backend)
	}
	if cfg.Deploy.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", cfg.Deploy.MaxAttempts)
	}
	if cfg.Receipt.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", cfg.Receipt.PollInterval)
	}
	if cfg.Receipt.Backoff < 1 {
		return fmt.Errorf("poll backoff must be at least 1, got %g", cfg.Receipt.Backoff)
	}
	if cfg.Gas.Limit == 0 {
		return fmt.Errorf("gas limit must be positive")
	}
	return nil
}

func resolveDir(root, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// FindProjectRoot walks up from the current directory to find mangonel.toml.
// Without one the current directory is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("MANGONEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("project_root", projectRoot)
	v.SetDefault("debug", false)
	v.SetDefault("non-interactive", false)
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("gas", DefaultGas)
	v.SetDefault("gas-price", DefaultGasPrice)
	v.SetDefault("contract-dir", DefaultContractDir)
	v.SetDefault("add-dev-code", false)
	v.SetDefault("verify", string(config.VerifyMinimal))
	v.SetDefault("max-attempts", 3)
	v.SetDefault("retry-backoff", "0s")
	v.SetDefault("poll-interval", "5s")
	v.SetDefault("poll-backoff", 1.0)
	v.SetDefault("max-poll-interval", "0s")
	v.SetDefault("receipt-timeout", "0s")
	v.SetDefault("registry", string(config.RegistryJSON))
	v.SetDefault("allow-overwrite", false)

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			// Only changed flags override env and mangonel.toml
			if !f.Changed {
				return
			}
			if err := v.BindPFlag(f.Name, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}
