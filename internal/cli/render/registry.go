package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// RegistryRenderer renders the persisted registry of one chain
type RegistryRenderer struct {
	out io.Writer
}

// NewRegistryRenderer creates a new registry renderer
func NewRegistryRenderer(out io.Writer) *RegistryRenderer {
	return &RegistryRenderer{out: out}
}

// Render prints registered contracts in registration order
func (r *RegistryRenderer) Render(result *usecase.ListRegistryResult) error {
	if len(result.Records) == 0 {
		fmt.Fprintf(r.out, "No contracts registered on chain %d\n", result.ChainID)
		return nil
	}

	headerStyle.Fprintf(r.out, "Chain %d: %d contract(s)\n", result.ChainID, len(result.Records))

	t := newTable()
	t.AppendHeader(table.Row{"NAME", "ADDRESS", "TX", "DEPLOYED"})
	for _, record := range result.Records {
		tx, deployed := "-", "-"
		if record.TxHash != (common.Hash{}) {
			tx = hashStyle.Sprint(record.TxHash.Hex())
		}
		if !record.DeployedAt.IsZero() {
			deployed = record.DeployedAt.Local().Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{record.Name, addressStyle.Sprint(record.Address.Hex()), tx, deployed})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}
