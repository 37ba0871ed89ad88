package instructions

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/mangonel/internal/domain"
	"gopkg.in/yaml.v3"
)

// Parser turns instruction files into validated instructions. JSON and YAML
// arrays of records are accepted, as well as the legacy line format of
// "create <file>" entries.
type Parser struct{}

// NewParser creates a new instruction parser
func NewParser() *Parser {
	return &Parser{}
}

// record is one entry of a JSON or YAML instruction file
type record struct {
	Type              string            `yaml:"type"`
	File              string            `yaml:"file"`
	ConstructorParams yaml.Node         `yaml:"constructorParams"`
	Addresses         map[string]string `yaml:"addresses"`
	Contract          string            `yaml:"contract"`
	Name              string            `yaml:"name"`
	Params            yaml.Node         `yaml:"params"`
	Return            yaml.Node         `yaml:"return"`
	Value             yaml.Node         `yaml:"value"`
}

// Load reads and parses an instruction file
func (p *Parser) Load(path string) ([]domain.Instruction, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("instruction file not found: %s", absPath)
		}
		return nil, fmt.Errorf("failed to read instruction file: %w", err)
	}
	return p.Parse(data)
}

// Parse parses instruction file contents. Every record is validated before any
// instruction is returned.
func (p *Parser) Parse(data []byte) ([]domain.Instruction, error) {
	if isLegacy(data) {
		return p.parseLegacy(data)
	}

	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse instruction file: %w", err)
	}

	instructions := make([]domain.Instruction, 0, len(nodes))
	for i := range nodes {
		r, err := decodeRecord(i, &nodes[i])
		if err != nil {
			return nil, err
		}
		inst, err := r.toInstruction(i)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, inst)
	}
	return instructions, nil
}

var knownFields = map[string]bool{
	"type": true, "file": true, "constructorParams": true, "addresses": true,
	"contract": true, "name": true, "params": true, "return": true, "value": true,
}

// decodeRecord rejects anything but a mapping with known keys before decoding it.
func decodeRecord(index int, n *yaml.Node) (record, error) {
	var r record
	if n.Kind != yaml.MappingNode {
		return r, &domain.InstructionError{Index: index, Reason: fmt.Sprintf("line %d: expected an object", n.Line)}
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if key := n.Content[i].Value; !knownFields[key] {
			return r, &domain.InstructionError{Index: index, Reason: fmt.Sprintf("line %d: unknown field %q", n.Content[i].Line, key)}
		}
	}
	if err := n.Decode(&r); err != nil {
		return r, &domain.InstructionError{Index: index, Reason: err.Error()}
	}
	return r, nil
}

func (r record) toInstruction(index int) (domain.Instruction, error) {
	invalid := func(format string, args ...any) error {
		return &domain.InstructionError{Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	switch domain.InstructionKind(r.Type) {
	case domain.KindDeployment:
		if r.File == "" {
			return nil, invalid("deployment requires a file")
		}
		if err := r.forbid(invalid, "contract", r.Contract != "", "name", r.Name != "", "params", present(r.Params), "return", present(r.Return), "value", present(r.Value)); err != nil {
			return nil, err
		}
		args, err := argumentList(r.ConstructorParams)
		if err != nil {
			return nil, invalid("constructorParams: %v", err)
		}
		return domain.Deployment{File: r.File, ConstructorArgs: args, Addresses: r.Addresses}, nil

	case domain.KindTransaction:
		if err := r.requireCall(invalid); err != nil {
			return nil, err
		}
		if err := r.forbid(invalid, "return", present(r.Return)); err != nil {
			return nil, err
		}
		args, err := argumentList(r.Params)
		if err != nil {
			return nil, invalid("params: %v", err)
		}
		value, err := weiValue(r.Value)
		if err != nil {
			return nil, invalid("value: %v", err)
		}
		return domain.Transaction{Contract: r.Contract, Function: r.Name, Args: args, Value: value}, nil

	case domain.KindAssertion:
		if err := r.requireCall(invalid); err != nil {
			return nil, err
		}
		if !present(r.Return) {
			return nil, invalid("assertion requires a return value")
		}
		if err := r.forbid(invalid, "value", present(r.Value)); err != nil {
			return nil, err
		}
		args, err := argumentList(r.Params)
		if err != nil {
			return nil, invalid("params: %v", err)
		}
		expected, err := nodeValue(&r.Return)
		if err != nil {
			return nil, invalid("return: %v", err)
		}
		return domain.Assertion{Contract: r.Contract, Function: r.Name, Args: args, Expected: expected}, nil

	case "":
		return nil, invalid("missing type")
	default:
		return nil, invalid("unknown type %q", r.Type)
	}
}

func (r record) requireCall(invalid func(string, ...any) error) error {
	if r.Contract == "" {
		return invalid("%s requires a contract", r.Type)
	}
	if r.Name == "" {
		return invalid("%s requires a function name", r.Type)
	}
	return r.forbid(invalid, "file", r.File != "", "constructorParams", present(r.ConstructorParams), "addresses", r.Addresses != nil)
}

// forbid takes (field, set) pairs and rejects the first field that is set.
func (r record) forbid(invalid func(string, ...any) error, pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if set, _ := pairs[i+1].(bool); set {
			return invalid("field %s is not allowed for %s", pairs[i], r.Type)
		}
	}
	return nil
}

func present(n yaml.Node) bool {
	return n.Kind != 0
}

func argumentList(n yaml.Node) ([]any, error) {
	if !present(n) || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list")
	}
	value, err := nodeValue(&n)
	if err != nil {
		return nil, err
	}
	return value.([]any), nil
}

// nodeValue converts a YAML node into an instruction value. Numbers keep their
// source text as json.Number so large integers survive.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		case "!!int", "!!float":
			return json.Number(n.Value), nil
		default:
			return n.Value, nil
		}
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := nodeValue(child)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	default:
		return nil, fmt.Errorf("line %d: objects are not supported as values", n.Line)
	}
}

func weiValue(n yaml.Node) (*big.Int, error) {
	if !present(n) || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected an integer")
	}
	v, ok := new(big.Int).SetString(strings.TrimSpace(n.Value), 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", n.Value)
	}
	return v, nil
}

// isLegacy reports whether the first meaningful line is a "create" entry.
func isLegacy(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		return len(fields) > 0 && fields[0] == "create"
	}
	return false
}

func (p *Parser) parseLegacy(data []byte) ([]domain.Instruction, error) {
	var instructions []domain.Instruction
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] != "create" || len(fields) != 2 {
			return nil, &domain.InstructionError{
				Index:  len(instructions),
				Reason: fmt.Sprintf("line %d: expected \"create <file>\", got %q", lineNo, line),
			}
		}
		instructions = append(instructions, domain.Deployment{File: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read instruction file: %w", err)
	}
	return instructions, nil
}
