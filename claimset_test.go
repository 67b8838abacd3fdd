package jwtclaims

import (
	"errors"
	"slices"
	"testing"
)

func TestClaimSetSetThenGet(t *testing.T) {
	cs := NewClaimSet()
	values := map[string]any{
		"text":   "hello",
		"int":    int64(42),
		"float":  2.5,
		"bool":   false,
		"null":   nil,
		"list":   []any{"a", int64(1)},
		"nested": map[string]any{"k": "v"},
	}
	for name, v := range values {
		if err := cs.Set(name, v); err != nil {
			t.Fatalf("Set(%q): %v", name, err)
		}
	}
	for name, want := range values {
		got, ok := cs.Value(name)
		if !ok {
			t.Fatalf("Value(%q) absent", name)
		}
		wantValue, err := ValueOf(want)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(wantValue) {
			t.Fatalf("Value(%q) = %s, want %s", name, got, wantValue)
		}
	}
}

func TestClaimSetAbsence(t *testing.T) {
	cs := NewClaimSet()
	for _, name := range []string{"iss", "exp", "anything"} {
		if _, ok := cs.Value(name); ok {
			t.Fatalf("fresh set reports %q present", name)
		}
		if v, ok := cs.Get(name); ok || v != nil {
			t.Fatalf("Get(%q) = %v, %v", name, v, ok)
		}
	}

	if err := cs.SetValue("null", Null()); err != nil {
		t.Fatal(err)
	}
	v, ok := cs.Value("null")
	if !ok || !v.IsNull() {
		t.Fatalf("explicit null should be present: %v %v", v, ok)
	}
	if !cs.Has("null") || cs.Has("missing") {
		t.Fatal("Has disagrees with Value")
	}

	var nilSet *ClaimSet
	if _, ok := nilSet.Value("x"); ok || nilSet.Len() != 0 {
		t.Fatal("nil set should read as empty")
	}
}

func TestClaimSetEmptyName(t *testing.T) {
	cs := NewClaimSet()
	err := cs.Set("", "v")
	if !errors.Is(err, ErrEmptyClaimName) {
		t.Fatalf("Set(\"\") error = %v", err)
	}
	if !HasCode(err, ErrCodeEmptyClaimName) {
		t.Fatalf("missing code: %v", err)
	}
	if cs.Len() != 0 {
		t.Fatal("empty name must not be stored")
	}
}

func TestClaimSetOrder(t *testing.T) {
	cs := NewClaimSet()
	for _, name := range []string{"z", "a", "m"} {
		if err := cs.Set(name, name); err != nil {
			t.Fatal(err)
		}
	}
	_ = cs.Set("a", "overwritten")
	if got := cs.Names(); !slices.Equal(got, []string{"z", "a", "m"}) {
		t.Fatalf("Names = %v", got)
	}

	var seen []string
	for name := range cs.All() {
		seen = append(seen, name)
	}
	if !slices.Equal(seen, []string{"z", "a", "m"}) {
		t.Fatalf("All order = %v", seen)
	}

	if !cs.Delete("a") || cs.Delete("a") {
		t.Fatal("Delete should report presence once")
	}
	if got := cs.Names(); !slices.Equal(got, []string{"z", "m"}) {
		t.Fatalf("Names after delete = %v", got)
	}
}

func TestClaimSetEqualityIgnoresOrder(t *testing.T) {
	a := NewClaimSet()
	_ = a.Set("iss", "x")
	_ = a.Set("sub", "y")
	b := NewClaimSet()
	_ = b.Set("sub", "y")
	_ = b.Set("iss", "x")

	if !a.Equal(b) || !b.Equal(a) {
		t.Fatal("order must not affect equality")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("equal sets must hash equally")
	}

	_ = b.Set("sub", "z")
	if a.Equal(b) {
		t.Fatal("different values must not be equal")
	}

	c := a.Clone()
	_ = c.Set("extra", true)
	if a.Equal(c) {
		t.Fatal("extra key must not be equal")
	}
	if !NewClaimSet().Equal(nil) {
		t.Fatal("empty set equals nil set")
	}
}

func TestNewClaimSetFromCopies(t *testing.T) {
	nested := map[string]any{"role": "admin"}
	src := map[string]any{"iss": "x", "meta": nested, "list": []any{"a"}}
	cs, err := NewClaimSetFrom(src)
	if err != nil {
		t.Fatalf("NewClaimSetFrom: %v", err)
	}

	src["iss"] = "changed"
	src["added"] = 1
	nested["role"] = "changed"
	src["list"].([]any)[0] = "changed"

	if v, _ := cs.Get("iss"); v != "x" {
		t.Fatalf("iss = %v", v)
	}
	if cs.Has("added") {
		t.Fatal("key added to source leaked into claim set")
	}
	meta, _ := cs.Get("meta")
	if meta.(map[string]any)["role"] != "admin" {
		t.Fatalf("nested map aliased: %v", meta)
	}
	list, _ := cs.Get("list")
	if list.([]any)[0] != "a" {
		t.Fatalf("nested slice aliased: %v", list)
	}
	if got := cs.Names(); !slices.Equal(got, []string{"iss", "list", "meta"}) {
		t.Fatalf("Names = %v, want lexical order", got)
	}
}

func TestNewClaimSetFromRejectsBadValues(t *testing.T) {
	_, err := NewClaimSetFrom(map[string]any{"bad": make(chan int)})
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("error = %v", err)
	}
}

func TestClaimSetReadsDoNotAlias(t *testing.T) {
	cs := NewClaimSet()
	_ = cs.Set("list", []string{"a"})
	got, _ := cs.Get("list")
	got.([]any)[0] = "changed"
	again, _ := cs.Get("list")
	if again.([]any)[0] != "a" {
		t.Fatal("Get returned shared storage")
	}

	m := cs.Map()
	m["list"] = "replaced"
	if v, _ := cs.Get("list"); v == "replaced" {
		t.Fatal("Map returned shared storage")
	}
}

func TestClaimSetJSON(t *testing.T) {
	cs := NewClaimSet()
	_ = cs.Set("sub", "user-42")
	_ = cs.Set("exp", 1700003600)
	_ = cs.Set("nested", map[string]any{"b": 1, "a": "<x>"})
	_ = cs.Set("ratio", 0.5)

	b, err := cs.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"sub":"user-42","exp":1700003600,"nested":{"a":"<x>","b":1},"ratio":0.5}`
	if string(b) != want {
		t.Fatalf("MarshalJSON = %s, want %s", b, want)
	}

	back := NewClaimSet()
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !back.Equal(cs) {
		t.Fatalf("round trip mismatch: %s vs %s", back, cs)
	}
	if !slices.Equal(back.Names(), cs.Names()) {
		t.Fatalf("order lost: %v", back.Names())
	}
	v, _ := back.Value("exp")
	if v.Kind() != KindInt {
		t.Fatalf("exp decoded as %s", v.Kind())
	}
}

func TestClaimSetUnmarshalErrors(t *testing.T) {
	for _, in := range []string{`[]`, `{"a":1,"a":2}`, `{"a":1} {}`, `{"a":`, `"x"`} {
		if err := NewClaimSet().UnmarshalJSON([]byte(in)); err == nil {
			t.Fatalf("UnmarshalJSON(%s) expected error", in)
		}
	}
}
