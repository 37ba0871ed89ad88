package linker

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// placeholderWidth is the hex width of an address field in bytecode
const placeholderWidth = 40

// Linker patches library placeholders in compiled bytecode
type Linker struct{}

// NewLinker creates a new linker
func NewLinker() *Linker {
	return &Linker{}
}

// Placeholder returns the fixed-width token solc emits for a library reference:
// "__" followed by the name padded with underscores to 40 characters.
// Names longer than 38 characters are truncated the same way solc does.
func Placeholder(name string) string {
	if len(name) > placeholderWidth-2 {
		name = name[:placeholderWidth-2]
	}
	return "__" + name + strings.Repeat("_", placeholderWidth-2-len(name))
}

// Link replaces every placeholder whose name has an address in libraries.
// Placeholders without a matching entry are left intact, and entries that are
// not addresses are ignored.
func (l *Linker) Link(bytecodeHex string, libraries map[string]string) string {
	linked := bytecodeHex
	for name, address := range libraries {
		if !common.IsHexAddress(address) {
			continue
		}
		digits := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(address), "0x"), "0X")
		linked = strings.ReplaceAll(linked, Placeholder(name), digits)
	}
	return linked
}

// Unlinked lists the library names whose placeholders remain in bytecodeHex.
// Hex bytecode never contains underscores, so any "__" starts a placeholder.
func (l *Linker) Unlinked(bytecodeHex string) []string {
	var names []string
	rest := bytecodeHex
	for {
		idx := strings.Index(rest, "__")
		if idx < 0 {
			break
		}
		end := min(idx+placeholderWidth, len(rest))
		token := rest[idx:end]
		if name := strings.Trim(token, "_"); name != "" {
			names = append(names, name)
		}
		rest = rest[end:]
	}
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}
