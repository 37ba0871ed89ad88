package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
)

// ProjectFileName is the optional per-project configuration file
const ProjectFileName = "mangonel.toml"

// loadEnvFiles loads .env and .env.local from the project root. Variables that
// are already set in the environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// LoadProjectFile reads mangonel.toml from projectRoot and expands ${VAR}
// references. A missing file yields an empty configuration and an empty path.
func LoadProjectFile(projectRoot string) (*config.ProjectFile, string, error) {
	loadEnvFiles(projectRoot)

	path := filepath.Join(projectRoot, ProjectFileName)
	project := &config.ProjectFile{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return project, "", nil
	}

	if _, err := toml.DecodeFile(path, project); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}

	for name, network := range project.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		network.PrivateKey = os.ExpandEnv(network.PrivateKey)
		project.Networks[name] = network
	}
	project.Deploy.ContractDir = os.ExpandEnv(project.Deploy.ContractDir)

	return project, path, nil
}
