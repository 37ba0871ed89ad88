package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// ABIWriter writes interface descriptors as <dir>/<Name>.json. Relative
// directories are taken from the project root.
type ABIWriter struct {
	projectRoot string
}

// NewABIWriter creates a writer rooted at projectRoot
func NewABIWriter(projectRoot string) *ABIWriter {
	return &ABIWriter{projectRoot: projectRoot}
}

// WriteABI writes abi for name and returns the file path
func (w *ABIWriter) WriteABI(dir, name string, abi json.RawMessage) (string, error) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(w.projectRoot, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create abi directory: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, abi); err != nil {
		return "", fmt.Errorf("invalid abi for %s: %w", name, err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Ensure the adapter implements the interface
var _ usecase.ABIWriter = (*ABIWriter)(nil)
