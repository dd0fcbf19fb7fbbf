package mach

import (
	"testing"

	"github.com/necrolang/necro-mach/pkg/machtype"
)

func newTestFn(prog *Program, name string) (*FnDef, *Builder) {
	sym := prog.SymbolFor(name)
	sym.MachType = machtype.Fn{Return: machtype.I64}
	entry := &Block{Symbol: prog.SymbolFor(name + ".entry")}
	fn := NewFnDef(sym, FnLang, nil, entry)
	return fn, NewBuilder(prog, fn)
}

func TestBuildGepRequiresLeadingZero(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)

	structSym := &machtype.StructSymbol{Name: "TwoInts"}
	st := machtype.Struct{Symbol: structSym, Members: []machtype.Type{machtype.U64, machtype.I64, machtype.I64}}
	ptrSym := prog.SymbolFor("p")
	ptrSym.MachType = machtype.Ptr{Elem: st}
	ptr := Register(ptrSym)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-zero leading gep index")
		}
	}()
	b.BuildGep(ptr, []int64{1, 1})
}

func TestBuildGepStructMember(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)

	structSym := &machtype.StructSymbol{Name: "TwoInts"}
	st := machtype.Struct{Symbol: structSym, Members: []machtype.Type{machtype.U64, machtype.I64, machtype.I64}}
	ptrSym := prog.SymbolFor("p")
	ptrSym.MachType = machtype.Ptr{Elem: st}
	ptr := Register(ptrSym)

	v := b.BuildGep(ptr, []int64{0, 1})
	want := machtype.Ptr{Elem: machtype.I64}
	if !machtype.Equal(v.Typ, want) {
		t.Errorf("gep result type = %v, want %v", v.Typ, want)
	}
}

func TestBuildLoadRequiresPointer(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic loading from a non-pointer")
		}
	}()
	b.BuildLoad(LitInt(1, machtype.I64))
}

func TestBuildStoreTypeMismatchPanics(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	ptrSym := prog.SymbolFor("p")
	ptrSym.MachType = machtype.Ptr{Elem: machtype.I64}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic storing a mismatched type")
		}
	}()
	b.BuildStore(LitFloat(1.0, machtype.F64), Register(ptrSym))
}

func TestBuildCallArityMismatchPanics(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	callee := prog.SymbolFor("callee")
	callee.MachType = machtype.Fn{Return: machtype.I64, Params: []machtype.Type{machtype.I64}}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on call arity mismatch")
		}
	}()
	b.BuildCall(callee, nil, CallLang)
}

func TestBuildCallVoidReturnsVoidSentinel(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	v := b.BuildCall(prog.Runtime.InitRuntime, nil, CallC)
	if v.Kind != VVoid {
		t.Errorf("expected VVoid sentinel, got %v", v.Kind)
	}
}

func TestTerminatorOnlyOncePerBlock(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	b.BuildReturn(LitInt(0, machtype.I64))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic emitting a second terminator")
		}
	}()
	b.BuildReturnVoid()
}

func TestCondBreakRequiresU1(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	a := b.BlockAppend("a")
	c := b.BlockAppend("b")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-U1 condition")
		}
	}()
	b.BuildCondBreak(LitInt(1, machtype.I64), a, c)
}

func TestBlockAppendOrdersTextually(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	blkA := b.BlockAppend("a")
	blkB := b.BlockAppend("b")
	blocks := fn.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3 (entry, a, b)", len(blocks))
	}
	if blocks[1] != blkA || blocks[2] != blkB {
		t.Errorf("blocks not appended in textual order")
	}
}

func TestPhiMustBeAtTopOfBlock(t *testing.T) {
	prog := NewProgram(8)
	fn, b := newTestFn(prog, "f")
	prog.AddFunction(fn)
	// emit a non-phi instruction first
	b.BuildBinOp(BAddI, LitInt(1, machtype.I64), LitInt(2, machtype.I64))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic building phi after a non-phi instruction")
		}
	}()
	b.BuildPhi(machtype.I64, []PhiIncoming{{Block: fn.Entry, Val: LitInt(1, machtype.I64)}})
}
