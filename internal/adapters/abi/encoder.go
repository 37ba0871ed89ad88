package abi

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/trebuchet-org/mangonel/internal/domain"
)

// Encoder packs constructor and function arguments and unpacks return data.
// Arguments must already be resolved through the registry; Encoder only coerces
// them against the interface descriptor.
type Encoder struct{}

// NewEncoder creates a new call encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeConstructor packs constructor arguments, ready to be appended to creation code.
func (e *Encoder) EncodeConstructor(contract abi.ABI, args []any) ([]byte, error) {
	values, err := coerceArguments("", contract.Constructor.Inputs, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	packed, err := contract.Constructor.Inputs.Pack(values...)
	if err != nil {
		return nil, &domain.AbiMismatchError{Index: -1, Reason: err.Error()}
	}
	return packed, nil
}

// EncodeCall returns selector and packed arguments for a message call.
func (e *Encoder) EncodeCall(contract abi.ABI, function string, args []any) ([]byte, error) {
	method, err := findMethod(contract, function, len(args))
	if err != nil {
		return nil, err
	}
	values, err := coerceArguments(function, method.Inputs, args)
	if err != nil {
		return nil, err
	}
	packed, err := method.Inputs.Pack(values...)
	if err != nil {
		return nil, &domain.AbiMismatchError{Function: function, Index: -1, Reason: err.Error()}
	}
	return append(append([]byte{}, method.ID...), packed...), nil
}

// DecodeReturn unpacks return data of the overload taking arity arguments. A
// function with one output yields that value, otherwise the outputs come back as
// []any in declaration order.
func (e *Encoder) DecodeReturn(contract abi.ABI, function string, arity int, data []byte) (any, error) {
	method, err := findMethod(contract, function, arity)
	if err != nil {
		return nil, err
	}
	values, err := method.Outputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s return data: %w", function, err)
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}

// Equal coerces expected against the outputs of the overload taking arity
// arguments and compares it with a value returned by DecodeReturn.
func (e *Encoder) Equal(contract abi.ABI, function string, arity int, expected, actual any) (bool, error) {
	method, err := findMethod(contract, function, arity)
	if err != nil {
		return false, err
	}

	switch len(method.Outputs) {
	case 0:
		return expected == nil, nil
	case 1:
		want, err := coerce(method.Outputs[0].Type, expected)
		if err != nil {
			return false, &domain.AbiMismatchError{Function: function, Index: 0, Reason: "expected value: " + err.Error()}
		}
		return valuesEqual(want, actual), nil
	}

	items, ok := expected.([]any)
	if !ok {
		return false, &domain.AbiMismatchError{Function: function, Index: -1, Reason: fmt.Sprintf("expected a list of %d return values", len(method.Outputs))}
	}
	want, err := coerceArguments(function, method.Outputs, items)
	if err != nil {
		return false, err
	}
	got, ok := actual.([]any)
	if !ok || len(got) != len(want) {
		return false, nil
	}
	for i := range want {
		if !valuesEqual(want[i], got[i]) {
			return false, nil
		}
	}
	return true, nil
}

func coerceArguments(function string, inputs abi.Arguments, args []any) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, &domain.AbiMismatchError{
			Function: function,
			Index:    -1,
			Reason:   fmt.Sprintf("expected %d arguments, got %d", len(inputs), len(args)),
		}
	}
	values := make([]any, len(args))
	for i, input := range inputs {
		v, err := coerce(input.Type, args[i])
		if err != nil {
			return nil, &domain.AbiMismatchError{Function: function, Index: i, Reason: err.Error()}
		}
		values[i] = v
	}
	return values, nil
}

// findMethod looks a function up by name. Overloaded functions are matched by
// their source name and argument count; arity < 0 accepts a unique overload only.
func findMethod(contract abi.ABI, name string, arity int) (abi.Method, error) {
	if method, ok := contract.Methods[name]; ok && (arity < 0 || len(method.Inputs) == arity) {
		return method, nil
	}

	var candidates []abi.Method
	for _, method := range contract.Methods {
		if method.RawName == name && (arity < 0 || len(method.Inputs) == arity) {
			candidates = append(candidates, method)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		if method, ok := contract.Methods[name]; ok {
			return method, nil
		}
		return abi.Method{}, &domain.AbiMismatchError{Function: name, Index: -1, Reason: "function not found in abi"}
	default:
		sigs := make([]string, len(candidates))
		for i, c := range candidates {
			sigs[i] = c.Sig
		}
		sort.Strings(sigs)
		return abi.Method{}, &domain.AbiMismatchError{Function: name, Index: -1, Reason: fmt.Sprintf("ambiguous overloads %v", sigs)}
	}
}
