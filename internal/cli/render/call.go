package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// GuardedCallRenderer renders the result of a guarded call
type GuardedCallRenderer struct {
	out io.Writer
}

// NewGuardedCallRenderer creates a new guarded call renderer
func NewGuardedCallRenderer(out io.Writer) *GuardedCallRenderer {
	return &GuardedCallRenderer{out: out}
}

// Render prints whether the call went out
func (r *GuardedCallRenderer) Render(result *usecase.GuardedCallResult) error {
	if !result.Triggered {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Guard returned false, nothing sent to %s", result.Contract.Hex())))
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Call sent to %s", result.Contract.Hex())))
	fmt.Fprintf(r.out, "  Tx:       %s\n", hashStyle.Sprint(result.TxHash.Hex()))
	fmt.Fprintf(r.out, "  Gas used: %d\n", result.GasUsed)
	return nil
}
