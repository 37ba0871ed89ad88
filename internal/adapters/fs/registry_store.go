package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/samber/lo"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

const (
	MangonelDir = ".mangonel"
	RegistryDir = "registry"
)

// registryFile is the on-disk layout of one chain's registry
type registryFile struct {
	ChainID   uint64                           `json:"chainId"`
	Contracts map[string]models.ContractRecord `json:"contracts"`
}

// RegistryStore keeps one JSON file per chain under .mangonel/registry
type RegistryStore struct {
	dir string
	mu  sync.Mutex
}

// NewRegistryStore creates a JSON registry store rooted at projectRoot
func NewRegistryStore(projectRoot string) *RegistryStore {
	return &RegistryStore{dir: filepath.Join(projectRoot, MangonelDir, RegistryDir)}
}

// Load returns the records saved for chainID, sorted by name
func (s *RegistryStore) Load(ctx context.Context, chainID uint64) ([]models.ContractRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read(chainID)
	if err != nil {
		return nil, err
	}
	records := lo.Values(file.Contracts)
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// Save adds or replaces a record
func (s *RegistryStore) Save(ctx context.Context, chainID uint64, record models.ContractRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read(chainID)
	if err != nil {
		return err
	}
	file.Contracts[record.Name] = record
	return s.write(chainID, file)
}

func (s *RegistryStore) path(chainID uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(chainID, 10)+".json")
}

func (s *RegistryStore) read(chainID uint64) (*registryFile, error) {
	file := &registryFile{ChainID: chainID, Contracts: make(map[string]models.ContractRecord)}

	data, err := os.ReadFile(s.path(chainID))
	if os.IsNotExist(err) {
		return file, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", s.path(chainID), err)
	}
	if file.Contracts == nil {
		file.Contracts = make(map[string]models.ContractRecord)
	}
	return file, nil
}

func (s *RegistryStore) write(chainID uint64, file *registryFile) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	path := s.path(chainID)
	// Write to temp file first
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	// Atomic rename
	return os.Rename(tmpPath, path)
}

// MemoryStore keeps records for the lifetime of the process only
type MemoryStore struct {
	mu      sync.Mutex
	records map[uint64]map[string]models.ContractRecord
}

// NewMemoryStore creates an empty in-memory registry store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uint64]map[string]models.ContractRecord)}
}

func (m *MemoryStore) Load(ctx context.Context, chainID uint64) ([]models.ContractRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := lo.Values(m.records[chainID])
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func (m *MemoryStore) Save(ctx context.Context, chainID uint64, record models.ContractRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[chainID] == nil {
		m.records[chainID] = make(map[string]models.ContractRecord)
	}
	m.records[chainID][record.Name] = record
	return nil
}

// Ensure the adapters implement the interface
var (
	_ usecase.RegistryStore = (*RegistryStore)(nil)
	_ usecase.RegistryStore = (*MemoryStore)(nil)
)
