package machprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machtype"
)

func TestPrintFunctionBinOpLoadStoreReturn(t *testing.T) {
	prog := mach.NewProgram(8)
	sym := prog.SymbolFor("inc")
	sym.MachType = machtype.Fn{Return: machtype.I32, Params: []machtype.Type{machtype.I32}}
	fn := mach.NewFnDef(sym, mach.FnLang, nil, nil)
	sym.Ast = fn

	entry := &mach.Block{Symbol: prog.SymbolFor("inc.entry")}
	fn.Entry = entry
	fn.Params = []*mach.AstSymbol{prog.SymbolFor("inc.p0")}
	fn.Params[0].MachType = machtype.I32
	prog.AddFunction(fn)

	b := mach.NewBuilder(prog, fn)
	b.BlockMoveTo(entry)
	one := mach.LitInt(1, machtype.I32)
	sum := b.BuildBinOp(mach.BAddI, mach.Param(sym, 0, machtype.I32), one)
	b.BuildReturn(sum)

	var buf bytes.Buffer
	NewPrinter(&buf).PrintFunction(fn)
	out := buf.String()

	if !strings.Contains(out, `fn "inc"`) {
		t.Errorf("expected function header, got:\n%s", out)
	}
	if !strings.Contains(out, "addi") {
		t.Errorf("expected addi instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Errorf("expected return terminator, got:\n%s", out)
	}
}

func TestPrintFunctionLoadStoreCall(t *testing.T) {
	prog := mach.NewProgram(8)
	sym := prog.SymbolFor("storeGlobal")
	sym.MachType = machtype.Fn{Return: machtype.Void}
	fn := mach.NewFnDef(sym, mach.FnLang, nil, nil)
	sym.Ast = fn

	g := prog.SymbolFor("counter")
	g.MachType = machtype.I32
	prog.AddGlobal(g)

	entry := &mach.Block{Symbol: prog.SymbolFor("storeGlobal.entry")}
	fn.Entry = entry
	prog.AddFunction(fn)

	b := mach.NewBuilder(prog, fn)
	b.BlockMoveTo(entry)
	loaded := b.BuildLoad(mach.Global(g))
	b.BuildStore(loaded, mach.Global(g))
	b.BuildReturnVoid()

	var buf bytes.Buffer
	NewPrinter(&buf).PrintFunction(fn)
	out := buf.String()

	if !strings.Contains(out, "load @counter") {
		t.Errorf("expected load of global, got:\n%s", out)
	}
	if !strings.Contains(out, "store") || !strings.Contains(out, "@counter") {
		t.Errorf("expected store into global, got:\n%s", out)
	}
}

func TestPrintProgramIncludesGlobalsAndStructs(t *testing.T) {
	prog := mach.NewProgram(8)

	structSym := &machtype.StructSymbol{Name: "FooState"}
	sd := &mach.StructDef{Symbol: prog.SymbolFor("FooState"), Struct: machtype.Struct{
		Symbol:  structSym,
		Members: []machtype.Type{machtype.I32, machtype.Ptr{Elem: machtype.I32}},
	}}
	sd.Symbol.MachType = sd.Struct
	prog.AddStruct(sd)

	g := prog.SymbolFor("x.value")
	g.MachType = machtype.I32
	prog.AddGlobal(g)

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)
	out := buf.String()

	if !strings.Contains(out, "struct FooState {") {
		t.Errorf("expected struct header, got:\n%s", out)
	}
	if !strings.Contains(out, `var "x.value" : i32`) {
		t.Errorf("expected global declaration, got:\n%s", out)
	}
}

func TestPrintTerminatorsBreakCondBreakSwitch(t *testing.T) {
	prog := mach.NewProgram(8)
	sym := prog.SymbolFor("branchy")
	sym.MachType = machtype.Fn{Return: machtype.Void}
	fn := mach.NewFnDef(sym, mach.FnLang, nil, nil)
	sym.Ast = fn

	entry := &mach.Block{Symbol: prog.SymbolFor("branchy.entry")}
	fn.Entry = entry
	prog.AddFunction(fn)

	b := mach.NewBuilder(prog, fn)
	left := b.BlockAppend("branchy.left")
	right := b.BlockAppend("branchy.right")

	b.BlockMoveTo(entry)
	cond := mach.LitU1(true)
	b.BuildCondBreak(cond, left, right)

	b.BlockMoveTo(left)
	b.BuildBreak(right)

	b.BlockMoveTo(right)
	b.BuildReturnVoid()

	var buf bytes.Buffer
	NewPrinter(&buf).PrintFunction(fn)
	out := buf.String()

	if !strings.Contains(out, "if true then branchy.left else branchy.right") {
		t.Errorf("expected cond break, got:\n%s", out)
	}
	if !strings.Contains(out, "break branchy.right") {
		t.Errorf("expected break, got:\n%s", out)
	}
}
