package machtype

import (
	"testing"

	"github.com/necrolang/necro-mach/pkg/coreast"
)

func TestEqualScalarsAndStructIdentity(t *testing.T) {
	if !Equal(I64, I64) {
		t.Fatalf("I64 should equal itself")
	}
	if Equal(I64, I32) {
		t.Fatalf("I64 should not equal I32")
	}
	sym1 := &StructSymbol{Name: "Maybe"}
	sym2 := &StructSymbol{Name: "Maybe"}
	s1 := Struct{Symbol: sym1, Members: []Type{U64}}
	s2 := Struct{Symbol: sym1, Members: []Type{U64, U64}} // different shape, same symbol
	s3 := Struct{Symbol: sym2, Members: []Type{U64}}      // same shape, different symbol
	if !Equal(s1, s2) {
		t.Errorf("structs sharing a symbol must compare equal regardless of member lists")
	}
	if Equal(s1, s3) {
		t.Errorf("structs with distinct symbols must not compare equal")
	}
}

func TestMakePtrIfBoxed(t *testing.T) {
	if got := MakePtrIfBoxed(I64); got != Type(I64) {
		t.Errorf("scalar should pass through unboxed, got %v", got)
	}
	sym := &StructSymbol{Name: "TwoInts"}
	st := Struct{Symbol: sym, Members: []Type{I64, I64}}
	boxed := MakePtrIfBoxed(st)
	ptr, ok := boxed.(Ptr)
	if !ok {
		t.Fatalf("struct should be pointer-wrapped, got %T", boxed)
	}
	if !Equal(ptr.Elem, st) {
		t.Errorf("wrapped pointer element mismatch")
	}
}

func TestCheckPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Check should panic on type mismatch")
		}
	}()
	Check("test", I64, F64)
}

func TestCheckSucceedsOnMatch(t *testing.T) {
	Check("test", I64, I64) // must not panic
}

func TestFromCoreTypeScalars(t *testing.T) {
	noData := func(string) (Type, bool) { return nil, false }
	got, _, ok := FromCoreType(coreast.TyCon{Name: "Int"}, 8, noData)
	if !ok || got != Type(I64) {
		t.Fatalf("Int at word size 8 = %v, ok=%v, want I64", got, ok)
	}
	got32, _, ok := FromCoreType(coreast.TyCon{Name: "Int"}, 4, noData)
	if !ok || got32 != Type(I32) {
		t.Fatalf("Int at word size 4 = %v, ok=%v, want I32", got32, ok)
	}
}

func TestFromCoreTypeRejectsTyVar(t *testing.T) {
	noData := func(string) (Type, bool) { return nil, false }
	_, d, ok := FromCoreType(coreast.TyVar{Name: "a"}, 8, noData)
	if ok {
		t.Fatal("expected failure translating a residual type variable")
	}
	if d.Kind != 0 {
		t.Errorf("expected KindUpstreamViolation, got %v", d.Kind)
	}
}

func TestFromCoreTypeResolvesDataType(t *testing.T) {
	sym := &StructSymbol{Name: "Box"}
	st := Struct{Symbol: sym, Members: []Type{I64}}
	dataOf := func(name string) (Type, bool) {
		if name == "Box" {
			return st, true
		}
		return nil, false
	}
	got, _, ok := FromCoreType(coreast.TyCon{Name: "Box"}, 8, dataOf)
	if !ok || !Equal(got, st) {
		t.Fatalf("Box = %v, ok=%v, want %v", got, ok, st)
	}
}

func TestWordSizeAliases(t *testing.T) {
	if WordUInt(4) != U32 || WordUInt(8) != U64 {
		t.Errorf("WordUInt mismatch")
	}
	if WordInt(4) != I32 || WordInt(8) != I64 {
		t.Errorf("WordInt mismatch")
	}
}
