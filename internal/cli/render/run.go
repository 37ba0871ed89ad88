package render

import (
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

var statusStyles = map[usecase.OutcomeStatus]*color.Color{
	usecase.OutcomeDeployed: color.New(color.FgGreen),
	usecase.OutcomeSent:     color.New(color.FgBlue),
	usecase.OutcomeAsserted: color.New(color.FgGreen),
	usecase.OutcomeSkipped:  color.New(color.FgYellow),
}

// RunRenderer renders the summary of an instruction run
type RunRenderer struct {
	out io.Writer
}

// NewRunRenderer creates a new run renderer
func NewRunRenderer(out io.Writer) *RunRenderer {
	return &RunRenderer{out: out}
}

// Render prints one row per executed instruction followed by a footer
func (r *RunRenderer) Render(result *usecase.RunResult) error {
	if result == nil {
		return nil
	}

	fmt.Fprintln(r.out)
	headerStyle.Fprintf(r.out, "Run summary (chain %d, %s signing as %s)\n",
		result.ChainID, result.SigningMode, result.Sender.Hex())

	if len(result.Outcomes) == 0 {
		mutedStyle.Fprintln(r.out, "No instructions executed")
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"#", "KIND", "TARGET", "STATUS", "RESULT", "GAS"})
	for _, o := range result.Outcomes {
		t.AppendRow(table.Row{
			o.Index + 1,
			title(string(o.Kind)),
			o.Description,
			r.status(o),
			r.detail(o),
			r.gas(o),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%d instruction(s) completed in %s",
		len(result.Outcomes), result.Duration.Round(time.Millisecond))))
	return nil
}

func (r *RunRenderer) status(o usecase.InstructionOutcome) string {
	label := title(string(o.Status))
	if o.Attempts > 1 {
		label = fmt.Sprintf("%s (%d attempts)", label, o.Attempts)
	}
	if style, ok := statusStyles[o.Status]; ok {
		return style.Sprint(label)
	}
	return label
}

func (r *RunRenderer) detail(o usecase.InstructionOutcome) string {
	switch o.Status {
	case usecase.OutcomeDeployed, usecase.OutcomeSkipped:
		return addressStyle.Sprint(o.Address.Hex())
	case usecase.OutcomeAsserted:
		return fmt.Sprintf("%v", o.Value)
	default:
		if o.TxHash != (common.Hash{}) {
			return hashStyle.Sprint(o.TxHash.Hex())
		}
		return ""
	}
}

func (r *RunRenderer) gas(o usecase.InstructionOutcome) string {
	if o.GasUsed == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", o.GasUsed)
}
