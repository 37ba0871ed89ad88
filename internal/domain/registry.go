package domain

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/mangonel/internal/domain/models"
)

// RegistryPolicy controls what happens when a name is registered twice
type RegistryPolicy struct {
	// AllowOverwrite rebinds a name to a new address instead of failing.
	AllowOverwrite bool
}

// Registry maps logical contract names to their deployed address and ABI for one run.
// It is not safe for concurrent use; a run owns exactly one registry.
type Registry struct {
	policy  RegistryPolicy
	records map[string]models.ContractRecord
}

// NewRegistry creates an empty registry
func NewRegistry(policy RegistryPolicy) *Registry {
	return &Registry{
		policy:  policy,
		records: make(map[string]models.ContractRecord),
	}
}

// Register stores a record. Registering the same name at the same address is a no-op.
func (r *Registry) Register(record models.ContractRecord) error {
	if existing, ok := r.records[record.Name]; ok && !r.policy.AllowOverwrite {
		if existing.Address == record.Address {
			return nil
		}
		return &DuplicateNameError{Name: record.Name, Existing: existing.Address, New: record.Address}
	}
	r.records[record.Name] = record
	return nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.records[name]
	return ok
}

// Lookup returns the record registered under name.
func (r *Registry) Lookup(name string) (models.ContractRecord, error) {
	record, ok := r.records[name]
	if !ok {
		return models.ContractRecord{}, r.unknown(name)
	}
	return record, nil
}

// Resolve returns the hex address for a registered name, or token unchanged.
func (r *Registry) Resolve(token string) string {
	if record, ok := r.records[token]; ok {
		return record.Address.Hex()
	}
	return token
}

// AddressOf resolves a contract reference that must denote an address: either a
// registered name or a literal hex address.
func (r *Registry) AddressOf(ref string) (common.Address, error) {
	if record, ok := r.records[ref]; ok {
		return record.Address, nil
	}
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}
	return common.Address{}, r.unknown(ref)
}

// ABIOf returns the interface descriptor registered under name.
func (r *Registry) ABIOf(name string) (abi.ABI, error) {
	record, err := r.Lookup(name)
	if err != nil {
		return abi.ABI{}, err
	}
	return record.ABI, nil
}

// Addresses returns a name -> hex address view of the registry.
func (r *Registry) Addresses() map[string]string {
	return lo.MapValues(r.records, func(record models.ContractRecord, _ string) string {
		return record.Address.Hex()
	})
}

// Records returns all records sorted by name
func (r *Registry) Records() []models.ContractRecord {
	records := lo.Values(r.records)
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

// Len returns the number of registered contracts
func (r *Registry) Len() int {
	return len(r.records)
}

// MergeAddresses overlays overrides on the registry's address view. Override values
// naming a registered contract are resolved to its address first.
func (r *Registry) MergeAddresses(overrides map[string]string) map[string]string {
	resolved := lo.MapValues(overrides, func(value string, _ string) string {
		return r.Resolve(value)
	})
	return lo.Assign(r.Addresses(), resolved)
}

func (r *Registry) unknown(name string) error {
	names := lo.Keys(r.records)
	sort.Strings(names)
	matches := fuzzy.Find(strings.ToLower(name), lo.Map(names, func(n string, _ int) string {
		return strings.ToLower(n)
	}))
	var suggestions []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		suggestions = append(suggestions, names[m.Index])
	}
	return &UnknownContractError{Name: name, Suggestions: suggestions}
}

// ResolveArgs resolves every string argument naming a registered contract, including
// strings nested in lists. Everything else passes through unchanged.
func (r *Registry) ResolveArgs(args []any) []any {
	if args == nil {
		return nil
	}
	return lo.Map(args, func(arg any, _ int) any {
		return r.ResolveValue(arg)
	})
}

// ResolveValue is ResolveArgs for a single value.
func (r *Registry) ResolveValue(value any) any {
	switch v := value.(type) {
	case string:
		return r.Resolve(v)
	case []any:
		return r.ResolveArgs(v)
	default:
		return value
	}
}
