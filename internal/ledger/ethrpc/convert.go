package ethrpc

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// convertArgs shapes ledger tuple values into the exact Go types the ABI
// encoder expects for each method input.
func convertArgs(method abi.Method, args []any) ([]any, error) {
	if len(args) != len(method.Inputs) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", method.Name, len(method.Inputs), len(args))
	}
	out := make([]any, len(args))
	for i, input := range method.Inputs {
		v, err := convertArg(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("%s argument %d (%s): %w", method.Name, i, input.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func convertArg(typ abi.Type, v any) (any, error) {
	switch typ.T {
	case abi.IntTy, abi.UintTy:
		return convertInt(typ, v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		return b, nil
	case abi.AddressTy:
		switch a := v.(type) {
		case common.Address:
			return a, nil
		case string:
			if !common.IsHexAddress(a) {
				return nil, fmt.Errorf("invalid address %q", a)
			}
			return common.HexToAddress(a), nil
		}
		return nil, fmt.Errorf("want address, got %T", v)
	case abi.FixedBytesTy:
		raw, err := rawBytes(v)
		if err != nil {
			return nil, err
		}
		if len(raw) > typ.Size {
			return nil, fmt.Errorf("value of %d bytes overflows bytes%d", len(raw), typ.Size)
		}
		arr := reflect.New(typ.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil
	case abi.BytesTy:
		return rawBytes(v)
	case abi.SliceTy, abi.ArrayTy:
		return convertList(typ, v)
	}
	return nil, fmt.Errorf("unsupported abi type %s", typ.String())
}

func convertInt(typ abi.Type, v any) (any, error) {
	n, err := toBig(v)
	if err != nil {
		return nil, err
	}
	target := typ.GetType()
	if target == bigIntType {
		if typ.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for %s", n, typ.String())
		}
		return n, nil
	}
	rv := reflect.New(target).Elem()
	if typ.T == abi.UintTy {
		if n.Sign() < 0 || !n.IsUint64() || rv.OverflowUint(n.Uint64()) {
			return nil, fmt.Errorf("value %s overflows %s", n, typ.String())
		}
		rv.SetUint(n.Uint64())
		return rv.Interface(), nil
	}
	if !n.IsInt64() || rv.OverflowInt(n.Int64()) {
		return nil, fmt.Errorf("value %s overflows %s", n, typ.String())
	}
	rv.SetInt(n.Int64())
	return rv.Interface(), nil
}

func convertList(typ abi.Type, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("want list, got %T", v)
	}
	var out reflect.Value
	if typ.T == abi.ArrayTy {
		if rv.Len() != typ.Size {
			return nil, fmt.Errorf("want %d elements, got %d", typ.Size, rv.Len())
		}
		out = reflect.New(typ.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(typ.GetType(), rv.Len(), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		elem, err := convertArg(*typ.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

func toBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return new(big.Int), nil
		}
		return new(big.Int).Set(n), nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		s := strings.TrimSpace(n)
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		out, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("want number, got %T", v)
}

func rawBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("want bytes, got %T", v)
}
