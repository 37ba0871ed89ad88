package abi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// coerce converts a loosely typed instruction value into the Go value go-ethereum
// packs for typ. Values that already have the target type are returned unchanged.
func coerce(typ abi.Type, value any) (any, error) {
	if value != nil && reflect.TypeOf(value) == typ.GetType() {
		return value, nil
	}

	switch typ.T {
	case abi.IntTy, abi.UintTy:
		return coerceInteger(typ, value)
	case abi.BoolTy:
		return coerceBool(value)
	case abi.StringTy:
		return coerceString(value)
	case abi.AddressTy:
		s, err := coerceString(value)
		if err != nil {
			return nil, err
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%q is not an address or a known contract", s)
		}
		return common.HexToAddress(s), nil
	case abi.BytesTy:
		return coerceBytes(value)
	case abi.FixedBytesTy:
		raw, err := coerceBytes(value)
		if err != nil {
			return nil, err
		}
		if len(raw) > typ.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(raw), typ.Size)
		}
		out := reflect.New(typ.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(raw))
		return out.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return coerceList(typ, value)
	default:
		return nil, fmt.Errorf("unsupported argument type %s", typ.String())
	}
}

func coerceList(typ abi.Type, value any) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list for %s, got %T", typ.String(), value)
	}
	var out reflect.Value
	if typ.T == abi.ArrayTy {
		if len(items) != typ.Size {
			return nil, fmt.Errorf("expected %d elements for %s, got %d", typ.Size, typ.String(), len(items))
		}
		out = reflect.New(typ.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(typ.GetType(), len(items), len(items))
	}
	for i, item := range items {
		elem, err := coerce(*typ.Elem, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

func coerceInteger(typ abi.Type, value any) (any, error) {
	n, err := toBigInt(value)
	if err != nil {
		return nil, err
	}

	if typ.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > typ.Size {
			return nil, fmt.Errorf("%s out of range for %s", n, typ.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
		lowest := new(big.Int).Neg(limit)
		if n.Cmp(lowest) < 0 || n.Cmp(limit) >= 0 {
			return nil, fmt.Errorf("%s out of range for %s", n, typ.String())
		}
	}

	goType := typ.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return n, nil
	}
	out := reflect.New(goType).Elem()
	if typ.T == abi.UintTy {
		out.SetUint(n.Uint64())
	} else {
		out.SetInt(n.Int64())
	}
	return out.Interface(), nil
}

func toBigInt(value any) (*big.Int, error) {
	var text string
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		return big.NewInt(int64(v)), nil
	default:
		return nil, fmt.Errorf("expected an integer, got %T", value)
	}
	n, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", text)
	}
	return n, nil
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%q is not a bool", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a bool, got %T", value)
	}
}

func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case common.Address:
		return v.Hex(), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", value)
	}
}

func coerceBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
			s = "0x" + s
		}
		raw, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not hex data: %w", v, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("expected hex data, got %T", value)
	}
}

// valuesEqual compares two packed values. Big integers compare numerically,
// containers element-wise.
func valuesEqual(a, b any) bool {
	return equalValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func equalValue(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if x, ok := a.Interface().(*big.Int); ok {
		y, ok := b.Interface().(*big.Int)
		return ok && x != nil && y != nil && x.Cmp(y) == 0
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Slice, reflect.Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !equalValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
}
