package vm

import "testing"

func internFor(t *testing.T, name string) *ObjString {
	t.Helper()
	return NewVM().NewString(name)
}

func TestTableSetGet(t *testing.T) {
	table := NewTable()
	key := internFor(t, "answer")
	table.Set(key, NumberValue(42))

	v, ok := table.Get(key)
	if !ok {
		t.Fatal("expected key to be present")
	}
	if v.Num != 42 {
		t.Errorf("expected 42, got %v", v.Num)
	}
}

func TestTableOverwrite(t *testing.T) {
	table := NewTable()
	key := internFor(t, "answer")
	table.Set(key, NumberValue(1))
	table.Set(key, NumberValue(2))

	v, _ := table.Get(key)
	if v.Num != 2 {
		t.Errorf("expected overwritten value 2, got %v", v.Num)
	}
}

func TestTableDelete(t *testing.T) {
	table := NewTable()
	key := internFor(t, "gone")
	table.Set(key, BoolValue(true))
	table.Delete(key)

	if _, ok := table.Get(key); ok {
		t.Error("expected key to be absent after delete")
	}
}

func TestTableDeleteThenReinsert(t *testing.T) {
	table := NewTable()
	key := internFor(t, "k")
	table.Set(key, NumberValue(1))
	table.Delete(key)
	table.Set(key, NumberValue(2))

	v, ok := table.Get(key)
	if !ok || v.Num != 2 {
		t.Errorf("expected reinserted value 2, got %v ok=%v", v, ok)
	}
}

func TestTableGrowthKeepsAllKeysRetrievable(t *testing.T) {
	machine := NewVM()
	table := NewTable()

	const n = 200
	keys := make([]*ObjString, n)
	for i := 0; i < n; i++ {
		keys[i] = machine.NewString(string(rune('a' + i%26)) + string(rune('A'+i%26)) + string(rune(i)))
		table.Set(keys[i], NumberValue(float64(i)))
	}

	for i, k := range keys {
		v, ok := table.Get(k)
		if !ok {
			t.Fatalf("key %d missing after growth", i)
		}
		if v.Num != float64(i) {
			t.Errorf("key %d: expected %d, got %v", i, i, v.Num)
		}
	}
}

func TestFindStringReturnsInternedInstance(t *testing.T) {
	machine := NewVM()
	s1 := machine.NewString("shared")
	s2 := machine.NewString("shared")
	if s1 != s2 {
		t.Error("expected interning to return the same *ObjString")
	}
	if machine.strings.FindString("shared", fnv1a32("shared")) != s1 {
		t.Error("FindString did not locate the interned string")
	}
}
