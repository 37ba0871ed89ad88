package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// GenerateABIRenderer lists written ABI files
type GenerateABIRenderer struct {
	out io.Writer
}

// NewGenerateABIRenderer creates a new ABI generation renderer
func NewGenerateABIRenderer(out io.Writer) *GenerateABIRenderer {
	return &GenerateABIRenderer{out: out}
}

// Render prints one line per written file
func (r *GenerateABIRenderer) Render(generated []usecase.GeneratedABI) error {
	for _, g := range generated {
		fmt.Fprintf(r.out, "%s  %s %s %s\n", FormatSuccess(g.Contract), mutedStyle.Sprint(g.File), mutedStyle.Sprint("→"), g.Path)
	}
	return nil
}
