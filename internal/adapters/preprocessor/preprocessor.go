package preprocessor

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

var (
	importPattern = regexp.MustCompile(`^\s*import\s+"([^"]+)"\s*;\s*$`)
	pragmaPattern = regexp.MustCompile(`^\s*pragma\s+solidity\b`)
	macroPattern  = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
)

const (
	devBegin = "// @dev-begin"
	devEnd   = "// @dev-end"
)

// Preprocessor expands a source file into the text handed to the compiler.
// Imports are inlined once per run of Process, dev-only blocks are kept or
// dropped, and {{Name}} macros become addresses.
type Preprocessor struct {
	log *slog.Logger
}

// NewPreprocessor creates a new source preprocessor
func NewPreprocessor(log *slog.Logger) *Preprocessor {
	return &Preprocessor{log: log.With("component", "Preprocessor")}
}

// Process implements usecase.SourceProcessor
func (p *Preprocessor) Process(ctx context.Context, req usecase.ProcessRequest) (string, error) {
	state := &expansion{
		req:  req,
		seen: make(map[string]bool),
	}

	var out strings.Builder
	if err := state.expand(ctx, resolvePath(req.SourceDir, "", req.File), &out); err != nil {
		return "", &domain.CompilationError{File: req.File, Err: err}
	}

	source, err := substituteMacros(out.String(), req.Addresses, req.ReplaceUnknownAddresses)
	if err != nil {
		return "", &domain.CompilationError{File: req.File, Err: err}
	}

	p.log.Debug("source preprocessed", "file", req.File, "imports", len(state.seen)-1, "bytes", len(source))
	return source, nil
}

type expansion struct {
	req        usecase.ProcessRequest
	seen       map[string]bool
	seenPragma bool
}

func (e *expansion) expand(ctx context.Context, path string, out *strings.Builder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if e.seen[abs] {
		return nil
	}
	e.seen[abs] = true

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	inDev := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == devBegin:
			if inDev {
				return fmt.Errorf("%s:%d: nested %s", abs, lineNo, devBegin)
			}
			inDev = true
			continue
		case trimmed == devEnd:
			if !inDev {
				return fmt.Errorf("%s:%d: %s without %s", abs, lineNo, devEnd, devBegin)
			}
			inDev = false
			continue
		}
		if inDev && !e.req.AddDevCode {
			continue
		}

		if m := importPattern.FindStringSubmatch(line); m != nil {
			if err := e.expand(ctx, resolvePath(e.req.SourceDir, filepath.Dir(abs), m[1]), out); err != nil {
				return err
			}
			continue
		}
		if pragmaPattern.MatchString(line) {
			if e.seenPragma {
				continue
			}
			e.seenPragma = true
		}

		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", abs, err)
	}
	if inDev {
		return fmt.Errorf("%s: unterminated %s", abs, devBegin)
	}
	return nil
}

// resolvePath looks a file up in sourceDir first, then next to the importing file.
func resolvePath(sourceDir, importerDir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	candidates := []string{filepath.Join(sourceDir, name)}
	if importerDir != "" {
		candidates = append(candidates, filepath.Join(importerDir, name))
	}
	candidates = append(candidates, name)
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return candidates[0]
}

func substituteMacros(source string, addresses map[string]string, replaceUnknown bool) (string, error) {
	var missing []string
	result := macroPattern.ReplaceAllStringFunc(source, func(match string) string {
		name := macroPattern.FindStringSubmatch(match)[1]
		if address, ok := addresses[name]; ok {
			return address
		}
		if replaceUnknown {
			return zeroAddress
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		missing = lo.Uniq(missing)
		sort.Strings(missing)
		return "", fmt.Errorf("unknown address macros: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

var _ usecase.SourceProcessor = (*Preprocessor)(nil)
