package compiler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/mangonel/internal/domain"
)

const fundSource = `
library Math {}
contract AbstractToken {}
contract Fund {}
`

// keys come back sorted, so the last key is not the last declaration
const combinedJSON = `{
	"contracts": {
		"<stdin>:AbstractToken": {"abi": "[]", "bin": "6060"},
		"<stdin>:Fund": {"abi": "[{\"type\":\"function\",\"name\":\"fund\",\"inputs\":[],\"outputs\":[]}]", "bin": "60606040"},
		"<stdin>:Math": {"abi": [], "bin": "6001"}
	},
	"version": "0.4.4"
}`

func TestParseCombinedJSON(t *testing.T) {
	got, err := ParseCombinedJSON([]byte(combinedJSON), fundSource)
	require.NoError(t, err)
	assert.Equal(t, "Fund", got.Name)
	assert.Equal(t, "60606040", got.Bytecode)
	assert.JSONEq(t, `[{"type":"function","name":"fund","inputs":[],"outputs":[]}]`, string(got.ABI))
}

func TestParseCombinedJSON_ArrayABI(t *testing.T) {
	got, err := ParseCombinedJSON([]byte(combinedJSON), "contract Fund {}\nlibrary Math {}\n")
	require.NoError(t, err)
	assert.Equal(t, "Math", got.Name)
	assert.JSONEq(t, `[]`, string(got.ABI))
}

func TestParseCombinedJSON_Errors(t *testing.T) {
	_, err := ParseCombinedJSON([]byte(`{"contracts": {}}`), "")
	assert.Error(t, err)
	_, err = ParseCombinedJSON([]byte(`not json`), "")
	assert.Error(t, err)
}

func TestCompiler_Solidity(t *testing.T) {
	var gotArgs []string
	var gotStdin []byte
	run := func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		gotStdin = stdin
		return []byte(combinedJSON), nil
	}

	c := NewCompiler("", "", run, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got, err := c.Compile(context.Background(), domain.LanguageSolidity, fundSource)
	require.NoError(t, err)
	assert.Equal(t, "Fund", got.Name)
	assert.Equal(t, []string{"solc", "--combined-json", "abi,bin", "-"}, gotArgs)
	assert.Equal(t, fundSource, string(gotStdin))
}

func TestCompiler_Serpent(t *testing.T) {
	var calls [][]string
	run := func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		source, err := os.ReadFile(args[1])
		require.NoError(t, err)
		assert.Equal(t, "def foo(): return(1)", string(source))
		switch args[0] {
		case "compile":
			return []byte("0x6001\n"), nil
		case "mk_full_signature":
			return []byte(`[{"type":"function","name":"foo","inputs":[],"outputs":[{"name":"","type":"int256"}]}]` + "\n"), nil
		}
		return nil, errors.New("unexpected command")
	}

	c := NewCompiler("", "/opt/serpent", run, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got, err := c.Compile(context.Background(), domain.LanguageSerpent, "def foo(): return(1)")
	require.NoError(t, err)
	assert.Equal(t, "6001", got.Bytecode)
	assert.Contains(t, string(got.ABI), `"foo"`)
	require.Len(t, calls, 2)
	assert.Equal(t, "/opt/serpent", calls[0][0])
}

func TestCompiler_Failure(t *testing.T) {
	run := func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		return nil, errors.New("solc failed: exit status 1")
	}
	c := NewCompiler("", "", run, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.Compile(context.Background(), domain.LanguageSolidity, "contract {")
	assert.ErrorContains(t, err, "exit status 1")

	_, err = c.Compile(context.Background(), domain.Language("vyper"), "")
	assert.ErrorContains(t, err, "unsupported language")
}
