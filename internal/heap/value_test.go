package heap

import "testing"

func TestValueConstructorsAndPredicates(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() should be true")
	}
	if !Bool(true).IsBool() || !Bool(true).AsBool() {
		t.Error("Bool(true) should be a true bool")
	}
	if !Number(3.5).IsNumber() || Number(3.5).AsNumber() != 3.5 {
		t.Error("Number(3.5) round-trip failed")
	}
}

func TestIsFalsey(t *testing.T) {
	tests := []struct {
		v       Value
		falsey bool
	}{
		{Nil, true},
		{Bool(false), true},
		{Bool(true), false},
		{Number(0), false},
		{Number(1), false},
	}
	for _, tt := range tests {
		if got := tt.v.IsFalsey(); got != tt.falsey {
			t.Errorf("IsFalsey(%+v) = %v, want %v", tt.v, got, tt.falsey)
		}
	}
}

func TestEqual(t *testing.T) {
	h := New()
	s1 := h.NewString("txeu")
	s2 := h.NewString("txeu")
	s3 := h.NewString("otu")

	tests := []struct {
		name     string
		a, b     Value
		expected bool
	}{
		{"nil==nil", Nil, Nil, true},
		{"numbers equal", Number(1), Number(1), true},
		{"numbers differ", Number(1), Number(2), false},
		{"bools equal", Bool(true), Bool(true), true},
		{"bools differ", Bool(true), Bool(false), false},
		{"different kinds", Number(0), Bool(false), false},
		{"interned strings are identical objects", FromObject(s1), FromObject(s2), true},
		{"distinct strings differ", FromObject(s1), FromObject(s3), false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.expected {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestTypeName(t *testing.T) {
	h := New()
	s := h.NewString("dja")
	tests := []struct {
		v    Value
		want string
	}{
		{Nil, "nulo"},
		{Bool(true), "boolean"},
		{Number(1), "number"},
		{FromObject(s), "string"},
	}
	for _, tt := range tests {
		if got := tt.v.TypeName(); got != tt.want {
			t.Errorf("TypeName() = %q, want %q", got, tt.want)
		}
	}
}
