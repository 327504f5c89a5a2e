package vm

import "testing"

func TestIsFalsey(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{NilValue(), true},
		{BoolValue(false), true},
		{BoolValue(true), false},
		{NumberValue(0), false},
		{NumberValue(1), false},
	}
	for _, c := range cases {
		if got := c.v.IsFalsey(); got != c.want {
			t.Errorf("IsFalsey(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqualNumbers(t *testing.T) {
	if !Equal(NumberValue(3), NumberValue(3)) {
		t.Error("expected 3 == 3")
	}
	if Equal(NumberValue(3), NumberValue(4)) {
		t.Error("expected 3 != 4")
	}
}

func TestEqualAcrossKinds(t *testing.T) {
	if Equal(NilValue(), BoolValue(false)) {
		t.Error("nil and false must not be equal")
	}
	if Equal(NumberValue(0), BoolValue(false)) {
		t.Error("0 and false must not be equal")
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NilValue(), "nil"},
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
		{NumberValue(1.5), "1.5"},
		{NumberValue(3), "3"},
	}
	for _, c := range cases {
		if got := FormatValue(c.v); got != c.want {
			t.Errorf("FormatValue(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestFormatString(t *testing.T) {
	vmInstance := NewVM()
	s := vmInstance.NewString("hi")
	if got := FormatValue(ObjValue(s)); got != "hi" {
		t.Errorf("expected raw string contents, got %q", got)
	}
}
