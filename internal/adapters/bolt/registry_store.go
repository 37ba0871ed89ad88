package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/trebuchet-org/mangonel/internal/domain/models"
	"github.com/trebuchet-org/mangonel/internal/usecase"
	"go.etcd.io/bbolt"
)

// DBFile is the database file name under .mangonel
const DBFile = "registry.db"

// RegistryStore keeps registries in a bbolt database, one bucket per chain
// keyed by contract name.
type RegistryStore struct {
	db *bbolt.DB
}

// Open opens (or creates) the database at path
func Open(path string) (*RegistryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create dir for registry db: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry db %s: %w", path, err)
	}
	return &RegistryStore{db: db}, nil
}

// Close releases the database file lock
func (s *RegistryStore) Close() error {
	return s.db.Close()
}

func bucketName(chainID uint64) []byte {
	return []byte("chain-" + strconv.FormatUint(chainID, 10))
}

// Load returns the records saved for chainID in name order
func (s *RegistryStore) Load(ctx context.Context, chainID uint64) ([]models.ContractRecord, error) {
	var records []models.ContractRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(chainID))
		if b == nil {
			return nil
		}
		// bolt iterates keys in byte order
		return b.ForEach(func(k, v []byte) error {
			var record models.ContractRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("record %s: %w", k, err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return records, nil
}

// Save adds or replaces a record
func (s *RegistryStore) Save(ctx context.Context, chainID uint64, record models.ContractRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(chainID))
		if err != nil {
			return fmt.Errorf("could not create bucket: %w", err)
		}
		return b.Put([]byte(record.Name), value)
	})
}

// Ensure the adapter implements the interface
var _ usecase.RegistryStore = (*RegistryStore)(nil)
