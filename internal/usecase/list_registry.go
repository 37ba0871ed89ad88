package usecase

import (
	"context"

	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
)

// ListRegistryParams contains parameters for listing the registry. A zero
// ChainID asks the node.
type ListRegistryParams struct {
	ChainID uint64
	Name    string // optional exact name
}

// ListRegistryResult contains the persisted registry for one chain
type ListRegistryResult struct {
	ChainID uint64
	Records []models.ContractRecord
}

// ListRegistry reads the persisted registry
type ListRegistry struct {
	node  NodeClient
	store RegistryStore
}

// NewListRegistry creates a new ListRegistry use case
func NewListRegistry(node NodeClient, store RegistryStore) *ListRegistry {
	return &ListRegistry{node: node, store: store}
}

// Run lists the registered contracts
func (uc *ListRegistry) Run(ctx context.Context, params ListRegistryParams) (*ListRegistryResult, error) {
	chainID := params.ChainID
	if chainID == 0 {
		id, err := uc.node.ChainID(ctx)
		if err != nil {
			return nil, &domain.SubmissionError{Op: "eth_chainId", Err: err}
		}
		chainID = id.Uint64()
	}

	records, err := uc.store.Load(ctx, chainID)
	if err != nil {
		return nil, err
	}

	if params.Name != "" {
		registry := domain.NewRegistry(domain.RegistryPolicy{AllowOverwrite: true})
		for _, record := range records {
			_ = registry.Register(record)
		}
		record, err := registry.Lookup(params.Name)
		if err != nil {
			return nil, err
		}
		records = []models.ContractRecord{record}
	}

	return &ListRegistryResult{ChainID: chainID, Records: records}, nil
}
