package jwtclaims

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"
)

// Kind identifies which member of the Value union is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "integer",
	KindFloat:  "number",
	KindBool:   "boolean",
	KindArray:  "array",
	KindObject: "object",
}

// String returns the JSON type name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a JSON-compatible claim value. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bl   bool
	arr  []Value
	obj  *ClaimSet
}

// Null returns the explicit null value.
func Null() Value { return Value{} }

// String returns a text value. Invalid UTF-8 is rejected when the value is
// stored or converted by ValueOf.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Float returns a floating point value. NaN and infinities have no JSON form
// and are rejected when the value is stored.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, bl: b} }

// Array returns an ordered sequence of values. The slice is copied.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: append([]Value(nil), items...)}
}

// Object returns a nested object value holding a copy of cs.
func Object(cs *ClaimSet) Value {
	return Value{kind: KindObject, obj: cs.Clone()}
}

// ValueOf converts a plain Go value into a Value. Maps and slices are
// deep-copied. []byte becomes a standard base64 string, as encoding/json
// renders it.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		if err := x.validate(); err != nil {
			return Value{}, err
		}
		return x.clone(), nil
	case *ClaimSet:
		if x == nil {
			return Null(), nil
		}
		return Object(x), nil
	case string:
		return textValue(x)
	case []byte:
		return String(base64.StdEncoding.EncodeToString(x)), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return uintValue(x)
	case float32:
		return floatValue(float64(x))
	case float64:
		return floatValue(x)
	case json.Number:
		return numberValue(x)
	case NumericDate:
		return Int(int64(x)), nil
	case time.Time:
		return Int(x.Unix()), nil
	case []Value:
		out := Value{kind: KindArray, arr: make([]Value, len(x))}
		for i, item := range x {
			out.arr[i] = item.clone()
		}
		if err := out.validate(); err != nil {
			return Value{}, err
		}
		return out, nil
	case []string:
		out := make([]Value, len(x))
		for i, s := range x {
			sv, err := textValue(s)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = sv
		}
		return Value{kind: KindArray, arr: out}, nil
	case []any:
		out := make([]Value, len(x))
		for i, item := range x {
			cv, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = cv
		}
		return Value{kind: KindArray, arr: out}, nil
	case map[string]any:
		cs, err := NewClaimSetFrom(x)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindObject, obj: cs}, nil
	}
	return reflectValue(reflect.ValueOf(v))
}

// reflectValue handles named types such as jwa.SignatureAlgorithm and typed
// containers such as map[string]string.
func reflectValue(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.String:
		return textValue(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return floatValue(rv.Float())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return String(base64.StdEncoding.EncodeToString(rv.Bytes())), nil
		}
		out := make([]Value, rv.Len())
		for i := range out {
			cv, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = cv
		}
		return Value{kind: KindArray, arr: out}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return Null(), nil
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		cs := NewClaimSet()
		for _, key := range keys {
			if err := cs.Set(key.String(), rv.MapIndex(key).Interface()); err != nil {
				return Value{}, err
			}
		}
		return Value{kind: KindObject, obj: cs}, nil
	}
	return Value{}, newError(ErrCodeUnsupportedValue, fmt.Errorf("%w: %T", ErrUnsupportedValue, rv.Interface()))
}

func textValue(s string) (Value, error) {
	if !utf8.ValidString(s) {
		return Value{}, newError(ErrCodeUnsupportedValue, fmt.Errorf("%w: invalid UTF-8 in %q", ErrUnsupportedValue, s))
	}
	return String(s), nil
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, newError(ErrCodeUnsupportedValue, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u))
	}
	return Int(int64(u)), nil
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, newError(ErrCodeUnsupportedValue, fmt.Errorf("%w: %v", ErrUnsupportedValue, f))
	}
	return Float(f), nil
}

func numberValue(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, newError(ErrCodeUnsupportedValue, fmt.Errorf("%w: number %q", ErrUnsupportedValue, n.String()))
	}
	return floatValue(f)
}

// Kind reports the populated member.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the explicit null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string member.
func (v Value) Text() (string, error) {
	if v.kind != KindString {
		return "", mismatch(KindString, v.kind)
	}
	return v.str, nil
}

// Int64 returns the value as a signed 64-bit integer. Floats convert only when
// they carry no fractional part and fit in range.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.num, nil
	case KindFloat:
		if i, ok := exactInt(v.flt); ok {
			return i, nil
		}
		return 0, fmt.Errorf("%w: %v is not an exact int64", ErrTypeMismatch, v.flt)
	}
	return 0, mismatch(KindInt, v.kind)
}

// Float64 returns numeric values as float64.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindInt:
		return float64(v.num), nil
	case KindFloat:
		return v.flt, nil
	}
	return 0, mismatch(KindFloat, v.kind)
}

// Boolean returns the bool member.
func (v Value) Boolean() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(KindBool, v.kind)
	}
	return v.bl, nil
}

// Items returns a copy of the array members.
func (v Value) Items() ([]Value, error) {
	if v.kind != KindArray {
		return nil, mismatch(KindArray, v.kind)
	}
	out := make([]Value, len(v.arr))
	for i, item := range v.arr {
		out[i] = item.clone()
	}
	return out, nil
}

// Object returns a copy of the nested object.
func (v Value) Object() (*ClaimSet, error) {
	if v.kind != KindObject {
		return nil, mismatch(KindObject, v.kind)
	}
	return v.obj.Clone(), nil
}

// Interface converts v back into plain Go values: nil, string, int64, float64,
// bool, []any or map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.bl
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.obj.Map()
	}
	return nil
}

// Equal compares two values structurally. An integer and a float are equal
// when they denote the same number; object member order is ignored.
func (v Value) Equal(o Value) bool {
	if v.isNumber() && o.isNumber() {
		vi, vok := v.exactInt()
		oi, ook := o.exactInt()
		if vok || ook {
			return vok && ook && vi == oi
		}
		return v.flt == o.flt
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.bl == o.bl
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	}
	return false
}

// String returns the JSON encoding of v.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + v.kind.String() + ">"
	}
	return string(b)
}

// validate rejects content with no faithful JSON form: non-finite floats and
// strings that are not valid UTF-8.
func (v Value) validate() error {
	switch v.kind {
	case KindString:
		_, err := textValue(v.str)
		return err
	case KindFloat:
		_, err := floatValue(v.flt)
		return err
	case KindArray:
		for i, item := range v.arr {
			if err := item.validate(); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
	case KindObject:
		for name, item := range v.obj.All() {
			if err := item.validate(); err != nil {
				return fmt.Errorf("member %q: %w", name, err)
			}
		}
	}
	return nil
}

func (v Value) isNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) exactInt() (int64, bool) {
	if v.kind == KindInt {
		return v.num, true
	}
	return exactInt(v.flt)
}

func (v Value) clone() Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.clone()
		}
		v.arr = out
	case KindObject:
		v.obj = v.obj.Clone()
	}
	return v
}

// exactInt reports whether f is integral and inside the int64 range.
func exactInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// 2^63 is exactly representable; anything at or above it overflows.
	if f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
		return 0, false
	}
	return int64(f), true
}

func mismatch(want, got Kind) error {
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, got)
}
