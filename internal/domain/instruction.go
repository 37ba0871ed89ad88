package domain

import (
	"math/big"
	"path/filepath"
	"strings"
)

// InstructionKind names an instruction variant
type InstructionKind string

const (
	KindDeployment  InstructionKind = "deployment"
	KindTransaction InstructionKind = "transaction"
	KindAssertion   InstructionKind = "assertion"
)

// Instruction is one step of a run. The variants are Deployment, Transaction and Assertion.
//
// Argument values are kept loose as parsed from the instruction file: string,
// json.Number, bool, nil or []any. They are coerced against the ABI at encode time.
type Instruction interface {
	Kind() InstructionKind
	Describe() string
	instruction()
}

// Deployment compiles and deploys a source file.
type Deployment struct {
	File            string
	ConstructorArgs []any
	Addresses       map[string]string
}

// Transaction sends a state-changing call to a registered contract.
type Transaction struct {
	Contract string
	Function string
	Args     []any
	Value    *big.Int // wei, nil for none
}

// Assertion performs a read-only call and compares the decoded result.
type Assertion struct {
	Contract string
	Function string
	Args     []any
	Expected any
}

func (Deployment) Kind() InstructionKind  { return KindDeployment }
func (Transaction) Kind() InstructionKind { return KindTransaction }
func (Assertion) Kind() InstructionKind   { return KindAssertion }

func (d Deployment) Describe() string  { return d.File }
func (t Transaction) Describe() string { return t.Contract + "." + t.Function }
func (a Assertion) Describe() string   { return a.Contract + "." + a.Function }

func (Deployment) instruction()  {}
func (Transaction) instruction() {}
func (Assertion) instruction()   {}

// ContractName derives the logical contract name from the deployment's source file:
// the base name without extension, e.g. "contracts/Token.sol" -> "Token".
func (d Deployment) ContractName() string {
	return ContractNameFromPath(d.File)
}

// Language returns the compiler language for the source file.
func (d Deployment) Language() Language {
	if strings.EqualFold(filepath.Ext(d.File), ".sol") {
		return LanguageSolidity
	}
	return LanguageSerpent
}

// ContractNameFromPath returns the file base name without its extension.
func ContractNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Language is a source language understood by the compiler port
type Language string

const (
	LanguageSolidity Language = "solidity"
	LanguageSerpent  Language = "serpent"
)
