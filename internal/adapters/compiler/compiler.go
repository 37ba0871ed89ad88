package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// Runner executes an external command with stdin and returns its stdout
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w\n%s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// Compiler shells out to solc and serpent
type Compiler struct {
	solc    string
	serpent string
	run     Runner
	log     *slog.Logger
}

// NewCompiler creates a compiler using the given binaries
func NewCompiler(solc, serpent string, run Runner, log *slog.Logger) *Compiler {
	if solc == "" {
		solc = "solc"
	}
	if serpent == "" {
		serpent = "serpent"
	}
	if run == nil {
		run = ExecRunner
	}
	return &Compiler{
		solc:    solc,
		serpent: serpent,
		run:     run,
		log:     log.With("component", "Compiler"),
	}
}

// Compile implements usecase.Compiler
func (c *Compiler) Compile(ctx context.Context, language domain.Language, source string) (*usecase.CompiledContract, error) {
	start := time.Now()
	var (
		compiled *usecase.CompiledContract
		err      error
	)
	switch language {
	case domain.LanguageSolidity:
		compiled, err = c.compileSolidity(ctx, source)
	case domain.LanguageSerpent:
		compiled, err = c.compileSerpent(ctx, source)
	default:
		err = fmt.Errorf("unsupported language %q", language)
	}
	if err != nil {
		c.log.Error("compilation failed", "language", language, "error", err, "duration", time.Since(start))
		return nil, err
	}
	c.log.Debug("compiled", "language", language, "contract", compiled.Name, "size", len(compiled.Bytecode)/2, "duration", time.Since(start))
	return compiled, nil
}

func (c *Compiler) compileSolidity(ctx context.Context, source string) (*usecase.CompiledContract, error) {
	out, err := c.run(ctx, []byte(source), c.solc, "--combined-json", "abi,bin", "-")
	if err != nil {
		return nil, err
	}
	return ParseCombinedJSON(out, source)
}

func (c *Compiler) compileSerpent(ctx context.Context, source string) (*usecase.CompiledContract, error) {
	// serpent only reads from files
	dir, err := os.MkdirTemp("", "mangonel-serpent-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "contract.se")
	if err := os.WriteFile(path, []byte(source), 0600); err != nil {
		return nil, fmt.Errorf("failed to write serpent source: %w", err)
	}

	bin, err := c.run(ctx, nil, c.serpent, "compile", path)
	if err != nil {
		return nil, err
	}
	abiJSON, err := c.run(ctx, nil, c.serpent, "mk_full_signature", path)
	if err != nil {
		return nil, err
	}

	abi := json.RawMessage(bytes.TrimSpace(abiJSON))
	if !json.Valid(abi) {
		return nil, fmt.Errorf("serpent produced an invalid abi")
	}
	return &usecase.CompiledContract{
		Bytecode: strings.TrimPrefix(strings.TrimSpace(string(bin)), "0x"),
		ABI:      abi,
	}, nil
}

// combinedOutput is the solc --combined-json document
type combinedOutput struct {
	Contracts map[string]struct {
		ABI json.RawMessage `json:"abi"`
		Bin string          `json:"bin"`
	} `json:"contracts"`
}

// ParseCombinedJSON picks the contract declared last in source from solc's
// combined JSON output.
func ParseCombinedJSON(output []byte, source string) (*usecase.CompiledContract, error) {
	var combined combinedOutput
	if err := json.Unmarshal(output, &combined); err != nil {
		return nil, fmt.Errorf("failed to parse solc output: %w", err)
	}
	if len(combined.Contracts) == 0 {
		return nil, fmt.Errorf("solc produced no contracts")
	}

	keys := make([]string, 0, len(combined.Contracts))
	for key := range combined.Contracts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	last, lastPos := keys[len(keys)-1], -1
	for _, key := range keys {
		if pos := declarationOffset(source, contractName(key)); pos > lastPos {
			last, lastPos = key, pos
		}
	}

	entry := combined.Contracts[last]
	abi, err := normalizeABI(entry.ABI)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", last, err)
	}
	return &usecase.CompiledContract{
		Name:     contractName(last),
		Bytecode: strings.TrimPrefix(entry.Bin, "0x"),
		ABI:      abi,
	}, nil
}

// contractName strips the "<source>:" prefix solc puts on keys
func contractName(key string) string {
	if idx := strings.LastIndex(key, ":"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

func declarationOffset(source, name string) int {
	re := regexp.MustCompile(`\b(?:contract|library)\s+` + regexp.QuoteMeta(name) + `\b`)
	locs := re.FindAllStringIndex(source, -1)
	if len(locs) == 0 {
		return -1
	}
	return locs[len(locs)-1][0]
}

// normalizeABI accepts both the array form and the string-encoded form older
// solc releases emit.
func normalizeABI(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("invalid abi: %w", err)
		}
		raw = json.RawMessage(text)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid abi")
	}
	return raw, nil
}

var _ usecase.Compiler = (*Compiler)(nil)
