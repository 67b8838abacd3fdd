package jwtclaims

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// maxNestingDepth bounds how deeply objects and arrays may nest in decoded
// input, matching the limit encoding/json applies in Unmarshal.
const maxNestingDepth = 10000

// MarshalJSON writes the members in insertion order.
func (cs *ClaimSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := cs.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the contents of cs with the object in data, keeping
// member order. Integers decode as KindInt, other numbers as KindFloat.
// Duplicate member names are rejected.
func (cs *ClaimSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode claim set: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode claim set: expected object, got %v", tok)
	}
	parsed, err := decodeObject(dec, 1)
	if err != nil {
		return fmt.Errorf("decode claim set: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decode claim set: trailing data after object")
	}
	*cs = *parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec, 0)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (cs *ClaimSet) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, name := range cs.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(buf, name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := cs.entries[name].writeJSON(buf); err != nil {
			return fmt.Errorf("member %q: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		return writeJSONString(buf, v.str)
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.num, 10))
	case KindFloat:
		b, err := json.Marshal(v.flt)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.bl))
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		return v.obj.writeJSON(buf)
	default:
		return fmt.Errorf("%w: kind %s", ErrUnsupportedValue, v.kind)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// decodeObject reads members up to and including the closing brace. depth
// counts the containers already open.
func decodeObject(dec *json.Decoder, depth int) (*ClaimSet, error) {
	cs := NewClaimSet()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected member name, got %v", tok)
		}
		if cs.Has(name) {
			return nil, fmt.Errorf("duplicate member %q", name)
		}
		v, err := decodeValue(dec, depth)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		if err := cs.SetValue(name, v); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return cs, nil
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch x := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		return numberValue(x)
	case json.Delim:
		if (x == '{' || x == '[') && depth >= maxNestingDepth {
			return Value{}, newError(ErrCodeMalformed, fmt.Errorf("nesting exceeds %d levels", maxNestingDepth))
		}
		switch x {
		case '{':
			cs, err := decodeObject(dec, depth+1)
			if err != nil {
				return Value{}, err
			}
			return Value{kind: KindObject, obj: cs}, nil
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindArray, arr: items}, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}
