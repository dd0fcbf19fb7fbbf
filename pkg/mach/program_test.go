package mach

import "testing"

func TestSymbolForIsUnique(t *testing.T) {
	prog := NewProgram(8)
	a := prog.SymbolFor("x")
	b := prog.SymbolFor("x")
	if a != b {
		t.Fatal("SymbolFor should return the same *AstSymbol for the same name")
	}
	c := prog.SymbolFor("y")
	if a == c {
		t.Fatal("distinct names should yield distinct symbols")
	}
}

func TestRuntimeSymbolsPopulated(t *testing.T) {
	prog := NewProgram(8)
	if prog.Runtime.InitRuntime == nil || prog.Runtime.UpdateRuntime == nil {
		t.Fatal("runtime symbol cache should be populated on construction")
	}
	if prog.Runtime.Sleep.Name != "_necro_sleep" {
		t.Errorf("Sleep.Name = %q, want _necro_sleep", prog.Runtime.Sleep.Name)
	}
}

func TestIsIntrinsic(t *testing.T) {
	for _, n := range []string{"sin", "sqrt", "fma"} {
		if !IsIntrinsic(n) {
			t.Errorf("IsIntrinsic(%q) = false, want true", n)
		}
	}
	if IsIntrinsic("not_a_real_intrinsic") {
		t.Errorf("IsIntrinsic should reject unrecognized names")
	}
}
