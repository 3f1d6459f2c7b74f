package ledger

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// coerce converts a transport value to the Row form of kind. Zero, empty
// string and empty list return nil (absent).
func coerce(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindNumber:
		n, err := toInt64(v)
		if err != nil || n == 0 {
			return nil, err
		}
		return n, nil
	case KindString:
		s, err := toString(v)
		if err != nil || s == "" {
			return nil, err
		}
		return s, nil
	case KindNumberList:
		list, err := toInt64List(v)
		if err != nil || len(list) == 0 {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case *big.Int:
		if n == nil {
			return 0, nil
		}
		if !n.IsInt64() {
			return 0, fmt.Errorf("value %s overflows int64", n.String())
		}
		return n.Int64(), nil
	case big.Int:
		return toInt64(&n)
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("value %v is not an integer", n)
		}
		return int64(n), nil
	case string:
		return parseIntString(n)
	case []byte:
		return parseIntString(string(n))
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	}
	return 0, fmt.Errorf("cannot read %T as number", v)
}

func parseIntString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return 0, fmt.Errorf("invalid hex number %q", s)
		}
		return toInt64(n)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(bytes.TrimRight(s, "\x00")), nil
	case *big.Int:
		if s == nil {
			return "", nil
		}
		return s.String(), nil
	case interface{ Hex() string }:
		return s.Hex(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return string(bytes.TrimRight(buf, "\x00")), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return "", fmt.Errorf("cannot read %T as string", v)
}

func toInt64List(v any) ([]int64, error) {
	switch list := v.(type) {
	case []int64:
		return append([]int64(nil), list...), nil
	case string:
		return parseListString(list)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot read %T as number list", v)
	}
	out := make([]int64, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		n, err := toInt64(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseListString accepts the comma separated form some nodes return for
// dynamic arrays.
func parseListString(s string) ([]int64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := parseIntString(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
