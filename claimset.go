package jwtclaims

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"unicode/utf8"
)

// ClaimSet is an insertion-ordered mapping from claim name to Value.
//
// Order only affects serialization; Equal and Hash ignore it. A ClaimSet is
// not safe for concurrent mutation. Read methods accept a nil receiver and
// treat it as empty.
type ClaimSet struct {
	names   []string
	entries map[string]Value
}

// NewClaimSet returns an empty claim set.
func NewClaimSet() *ClaimSet {
	return &ClaimSet{entries: make(map[string]Value)}
}

// NewClaimSetFrom deep-copies src into a new claim set. Later changes to src
// are not visible through the result. Because Go maps are unordered, the
// copied entries are inserted in lexical key order.
func NewClaimSetFrom(src map[string]any) (*ClaimSet, error) {
	cs := &ClaimSet{entries: make(map[string]Value, len(src))}
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cs.Set(name, src[name]); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// SetValue inserts or overwrites the entry for name. Overwriting keeps the
// original position. Values without a faithful JSON form, such as NaN or
// invalid UTF-8, are rejected with ErrCodeUnsupportedValue.
func (cs *ClaimSet) SetValue(name string, v Value) error {
	if name == "" {
		return newError(ErrCodeEmptyClaimName, ErrEmptyClaimName)
	}
	if !utf8.ValidString(name) {
		return newError(ErrCodeUnsupportedValue, fmt.Errorf("%w: invalid UTF-8 in claim name %q", ErrUnsupportedValue, name))
	}
	if err := v.validate(); err != nil {
		return fmt.Errorf("claim %q: %w", name, err)
	}
	if cs.entries == nil {
		cs.entries = make(map[string]Value)
	}
	if _, exists := cs.entries[name]; !exists {
		cs.names = append(cs.names, name)
	}
	cs.entries[name] = v.clone()
	return nil
}

// Set converts v with ValueOf and stores it under name.
func (cs *ClaimSet) Set(name string, v any) error {
	if name == "" {
		return newError(ErrCodeEmptyClaimName, ErrEmptyClaimName)
	}
	cv, err := ValueOf(v)
	if err != nil {
		return fmt.Errorf("claim %q: %w", name, err)
	}
	return cs.SetValue(name, cv)
}

// Value returns the stored value; ok is false when name was never set.
func (cs *ClaimSet) Value(name string) (Value, bool) {
	if cs == nil {
		return Value{}, false
	}
	v, ok := cs.entries[name]
	if !ok {
		return Value{}, false
	}
	return v.clone(), true
}

// Get is Value followed by Value.Interface.
func (cs *ClaimSet) Get(name string) (any, bool) {
	v, ok := cs.Value(name)
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// Has reports whether name is set, including when set to null.
func (cs *ClaimSet) Has(name string) bool {
	if cs == nil {
		return false
	}
	_, ok := cs.entries[name]
	return ok
}

// Delete removes name and reports whether it was present.
func (cs *ClaimSet) Delete(name string) bool {
	if cs == nil {
		return false
	}
	if _, ok := cs.entries[name]; !ok {
		return false
	}
	delete(cs.entries, name)
	cs.names = slices.DeleteFunc(cs.names, func(n string) bool { return n == name })
	return true
}

// Len returns the number of entries.
func (cs *ClaimSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.names)
}

// Names returns the claim names in insertion order.
func (cs *ClaimSet) Names() []string {
	if cs == nil {
		return nil
	}
	return append([]string(nil), cs.names...)
}

// All iterates over the entries in insertion order.
func (cs *ClaimSet) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range cs.Names() {
			if !yield(name, cs.entries[name].clone()) {
				return
			}
		}
	}
}

// Clone returns a deep copy. Cloning nil yields an empty set.
func (cs *ClaimSet) Clone() *ClaimSet {
	out := &ClaimSet{entries: make(map[string]Value, cs.Len())}
	if cs == nil {
		return out
	}
	out.names = append([]string(nil), cs.names...)
	for name, v := range cs.entries {
		out.entries[name] = v.clone()
	}
	return out
}

// Map returns the entries as plain Go values.
func (cs *ClaimSet) Map() map[string]any {
	out := make(map[string]any, cs.Len())
	if cs == nil {
		return out
	}
	for name, v := range cs.entries {
		out[name] = v.Interface()
	}
	return out
}

// Equal reports whether both sets hold the same names with equal values.
func (cs *ClaimSet) Equal(other *ClaimSet) bool {
	if cs.Len() != other.Len() {
		return false
	}
	if cs.Len() == 0 {
		return true
	}
	for name, v := range cs.entries {
		ov, ok := other.entries[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Hash returns a digest consistent with Equal.
func (cs *ClaimSet) Hash() uint64 {
	if cs == nil {
		return hashEntries(nil)
	}
	return hashEntries(cs.entries)
}

// String returns the JSON encoding of cs.
func (cs *ClaimSet) String() string {
	b, err := cs.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
