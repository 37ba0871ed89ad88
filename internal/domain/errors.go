package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrEmptyCode is returned when a deployment left no code behind
	ErrEmptyCode = errors.New("no code at contract address")

	// ErrCodeMismatch is returned when on-chain code differs from the reference execution
	ErrCodeMismatch = errors.New("deployed code does not match reference execution")

	// ErrReceiptFailed is returned when a mined receipt carries a failed status
	ErrReceiptFailed = errors.New("transaction receipt reports failure")
)

// CompilationError is returned when preprocessing or compiling a source fails.
type CompilationError struct {
	File string
	Err  error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compilation of %s failed: %v", e.File, e.Err)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// AbiMismatchError reports arguments that disagree with the interface descriptor.
type AbiMismatchError struct {
	Function string // empty for the constructor
	Index    int    // -1 when the argument count is wrong
	Reason   string
}

func (e *AbiMismatchError) Error() string {
	target := e.Function
	if target == "" {
		target = "constructor"
	}
	if e.Index < 0 {
		return fmt.Sprintf("abi mismatch for %s: %s", target, e.Reason)
	}
	return fmt.Sprintf("abi mismatch for %s argument %d: %s", target, e.Index, e.Reason)
}

// SubmissionError wraps transport failures while sending a transaction.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed (%s): %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// VerificationError reports a deployment whose resulting code is missing or wrong.
type VerificationError struct {
	Address common.Address
	TxHash  common.Hash
	Err     error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification of %s (tx %s) failed: %v", e.Address.Hex(), e.TxHash.Hex(), e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// AssertionFailure reports a decoded return value that differs from the expected one.
type AssertionFailure struct {
	Contract string
	Function string
	Expected any
	Actual   any
}

func (e *AssertionFailure) Error() string {
	return fmt.Sprintf("assertion %s.%s failed: expected %v, got %v", e.Contract, e.Function, e.Expected, e.Actual)
}

// UnknownContractError is returned when a name must resolve to a registered contract but doesn't.
type UnknownContractError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownContractError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown contract %q", e.Name)
	}
	return fmt.Sprintf("unknown contract %q (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *UnknownContractError) Is(target error) bool { return target == ErrNotFound }

// DuplicateNameError is returned when a registered name would be rebound to another address.
type DuplicateNameError struct {
	Name     string
	Existing common.Address
	New      common.Address
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("contract %q already registered at %s, refusing %s", e.Name, e.Existing.Hex(), e.New.Hex())
}

// UnlinkedLibraryError lists library placeholders still present after linking.
type UnlinkedLibraryError struct {
	File      string
	Libraries []string
}

func (e *UnlinkedLibraryError) Error() string {
	return fmt.Sprintf("%s references undeployed libraries: %s", e.File, strings.Join(e.Libraries, ", "))
}

// ReceiptTimeoutError is returned when a transaction is not mined in time.
type ReceiptTimeoutError struct {
	TxHash  common.Hash
	Waited  time.Duration
	Attempt int
}

func (e *ReceiptTimeoutError) Error() string {
	return fmt.Sprintf("no receipt for %s after %s (%d polls)", e.TxHash.Hex(), e.Waited.Round(time.Millisecond), e.Attempt)
}

// DeploymentExhaustedError is returned after the last failed deployment attempt.
type DeploymentExhaustedError struct {
	File     string
	Attempts int
	Err      error
}

func (e *DeploymentExhaustedError) Error() string {
	return fmt.Sprintf("deployment of %s failed after %d attempts: %v", e.File, e.Attempts, e.Err)
}

func (e *DeploymentExhaustedError) Unwrap() error { return e.Err }

// TransactionRevertedError is returned when a call transaction was mined with a failed status.
type TransactionRevertedError struct {
	Contract string
	Function string
	TxHash   common.Hash
}

func (e *TransactionRevertedError) Error() string {
	return fmt.Sprintf("transaction %s.%s (%s) reverted", e.Contract, e.Function, e.TxHash.Hex())
}

func (e *TransactionRevertedError) Unwrap() error { return ErrReceiptFailed }

// InstructionError reports a malformed instruction record.
type InstructionError struct {
	Index  int
	Reason string
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %s", e.Index, e.Reason)
}

// IsRetryable reports whether a failed deployment attempt may be repeated.
func IsRetryable(err error) bool {
	var (
		submission   *SubmissionError
		verification *VerificationError
		timeout      *ReceiptTimeoutError
	)
	return errors.As(err, &submission) || errors.As(err, &verification) || errors.As(err, &timeout)
}
