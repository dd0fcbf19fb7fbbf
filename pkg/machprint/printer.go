// Package machprint provides textual dumping of the Mach IR: one block
// per label, one instruction per line, goto-style terminators. Used by
// cmd/necromachc's --dlayout/--dstate/--dbody/--dmach debug flags and by
// the golden end-to-end fixtures to pin down exact lowering output.
//
// Grounded on pkg/rtl/printer.go's shape (a Printer wrapping an
// io.Writer, one PrintProgram/PrintFunction entry point per level,
// switch-per-instruction-kind printing), generalized from RTL's
// map-indexed, numbered-node CFG to Mach's linked list of named,
// textually-ordered Blocks.
package machprint

import (
	"fmt"
	"io"
	"strings"

	"github.com/necrolang/necro-mach/pkg/mach"
)

// Printer dumps a *mach.Program in a stable, human-readable text format.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Mach IR printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints every struct, global, machine def, and function in
// prog, in the order they were registered.
func (p *Printer) PrintProgram(prog *mach.Program) {
	for _, s := range prog.Structs {
		p.printStruct(s)
	}
	if len(prog.Structs) > 0 {
		fmt.Fprintln(p.w)
	}

	for _, g := range prog.Globals {
		fmt.Fprintf(p.w, "var %q : %s\n", g.Name, g.MachType)
	}
	if len(prog.Globals) > 0 {
		fmt.Fprintln(p.w)
	}

	for _, def := range prog.MachineDefs {
		p.printMachineDef(def)
	}
	if len(prog.MachineDefs) > 0 {
		fmt.Fprintln(p.w)
	}

	for i, fn := range prog.Functions {
		p.PrintFunction(fn)
		if i < len(prog.Functions)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

func (p *Printer) printStruct(s *mach.StructDef) {
	fmt.Fprintf(p.w, "struct %s {\n", s.Symbol.Name)
	for i, m := range s.Struct.Members {
		fmt.Fprintf(p.w, "  [%d] %s\n", i, m)
	}
	fmt.Fprintln(p.w, "}")
}

// printMachineDef prints a one-line summary of a top-level binding's
// classification: its state type and persistent slot count, the
// machine-level facts State Discovery produced about it. The detailed
// mk/init/update bodies print separately as ordinary functions.
func (p *Printer) printMachineDef(def *mach.MachDef) {
	fmt.Fprintf(p.w, "def %s : %s state_type=%s members=%d\n",
		def.MachineName, def.Type(), def.StateType, len(def.Members))
}

// PrintFunction prints one function: its symbol, parameter list, and
// every block reachable by walking Entry.Next in textual order.
func (p *Printer) PrintFunction(fn *mach.FnDef) {
	kind := "lang"
	if fn.Kind == mach.FnRuntimeC {
		kind = "extern C"
	}
	fmt.Fprintf(p.w, "fn %q (%s) {\n", fn.Symbol.Name, kind)

	if fn.Entry == nil {
		fmt.Fprintln(p.w, "  <no body>")
		fmt.Fprintln(p.w, "}")
		return
	}

	for i, param := range fn.Params {
		fmt.Fprintf(p.w, "  param %d: %q : %s\n", i, param.Name, param.MachType)
	}

	for blk := fn.Entry; blk != nil; blk = blk.Next {
		p.printBlock(blk)
	}
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printBlock(blk *mach.Block) {
	fmt.Fprintf(p.w, "%s:\n", blk.Symbol.Name)
	for _, stmt := range blk.Stmts {
		fmt.Fprint(p.w, "  ")
		p.printStmt(stmt)
		fmt.Fprintln(p.w)
	}
	fmt.Fprint(p.w, "  ")
	p.printTerminator(blk.Term)
	fmt.Fprintln(p.w)
}

func (p *Printer) printStmt(stmt mach.Ast) {
	switch s := stmt.(type) {
	case mach.Gep:
		fmt.Fprintf(p.w, "%s = gep %s%s", s.Dest.Name, p.val(s.Ptr), indices(s.Indices))
	case mach.BitCast:
		fmt.Fprintf(p.w, "%s = bitcast %s to %s", s.Dest.Name, p.val(s.Src), s.Dest.MachType)
	case mach.ZExt:
		fmt.Fprintf(p.w, "%s = zext %s to %s", s.Dest.Name, p.val(s.Src), s.Dest.MachType)
	case mach.BinOp:
		fmt.Fprintf(p.w, "%s = %s %s, %s", s.Dest.Name, binOpName(s.Op), p.val(s.LHS), p.val(s.RHS))
	case mach.UOp:
		fmt.Fprintf(p.w, "%s = %s %s", s.Dest.Name, uOpName(s.Op), p.val(s.Src))
	case mach.Cmp:
		fmt.Fprintf(p.w, "%s = cmp %s %s, %s", s.Dest.Name, cmpName(s.Op), p.val(s.LHS), p.val(s.RHS))
	case mach.Load:
		fmt.Fprintf(p.w, "%s = load %s", s.Dest.Name, p.val(s.Ptr))
	case mach.Store:
		fmt.Fprintf(p.w, "store %s, %s", p.val(s.Val), p.val(s.Ptr))
	case mach.MemCpy:
		fmt.Fprintf(p.w, "memcpy %s, %s, %d", p.val(s.Dst), p.val(s.Src), s.Size)
	case mach.MemSet:
		fmt.Fprintf(p.w, "memset %s, %d, %d", p.val(s.Dst), s.Val, s.Size)
	case mach.InsertValue:
		fmt.Fprintf(p.w, "%s = insertvalue %s, %s, %d", s.Dest.Name, p.val(s.Agg), p.val(s.Elem), s.Index)
	case mach.ExtractValue:
		fmt.Fprintf(p.w, "%s = extractvalue %s, %d", s.Dest.Name, p.val(s.Agg), s.Index)
	case mach.Phi:
		fmt.Fprintf(p.w, "%s = phi %s", s.Dest.Name, p.phiIncoming(s.Incoming))
	case mach.Call:
		p.printCall(s)
	case mach.CallIntrinsic:
		fmt.Fprintf(p.w, "%s = intrinsic %q%s", s.Dest.Name, s.Name, p.args(s.Args))
	default:
		fmt.Fprintf(p.w, "???(%T)", stmt)
	}
}

func (p *Printer) printCall(c mach.Call) {
	if c.Dest != nil {
		fmt.Fprintf(p.w, "%s = ", c.Dest.Name)
	}
	conv := "lang"
	if c.Conv == mach.CallC {
		conv = "C"
	}
	fmt.Fprintf(p.w, "call %s %q%s", conv, c.Fn.Name, p.args(c.Args))
}

func (p *Printer) printTerminator(term mach.Terminator) {
	switch t := term.(type) {
	case mach.Return:
		fmt.Fprintf(p.w, "return %s", p.val(t.Val))
	case mach.ReturnVoid:
		fmt.Fprint(p.w, "return")
	case mach.Break:
		fmt.Fprintf(p.w, "break %s", t.Target.Symbol.Name)
	case mach.CondBreak:
		fmt.Fprintf(p.w, "if %s then %s else %s", p.val(t.Cond), t.IfTrue.Symbol.Name, t.IfFalse.Symbol.Name)
	case mach.Switch:
		var cases []string
		for _, c := range t.Cases {
			cases = append(cases, fmt.Sprintf("%d -> %s", c.Val, c.Target.Symbol.Name))
		}
		fmt.Fprintf(p.w, "switch %s [%s] default %s", p.val(t.Scrutinee), strings.Join(cases, ", "), t.Default.Symbol.Name)
	case nil:
		fmt.Fprint(p.w, "<unterminated>")
	default:
		fmt.Fprintf(p.w, "???(%T)", term)
	}
}

func (p *Printer) val(v mach.Value) string {
	switch v.Kind {
	case mach.VVoid:
		return "void"
	case mach.VRegister:
		return v.Sym.Name
	case mach.VParameter:
		return fmt.Sprintf("%s.p%d", v.ParamFn.Name, v.ParamIndex)
	case mach.VGlobal:
		return fmt.Sprintf("@%s", v.Sym.Name)
	case mach.VLitU1:
		return fmt.Sprintf("%v", v.LitBool)
	case mach.VLitU8, mach.VLitU16, mach.VLitU32, mach.VLitU64:
		return fmt.Sprintf("%d", v.LitU64)
	case mach.VLitI32, mach.VLitI64:
		return fmt.Sprintf("%d", v.LitI64)
	case mach.VLitF32, mach.VLitF64:
		return fmt.Sprintf("%v", v.LitF64)
	case mach.VNullPtr:
		return "null"
	case mach.VUndefined:
		return "undef"
	default:
		return "?val?"
	}
}

func (p *Printer) args(vals []mach.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = p.val(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p *Printer) phiIncoming(incoming []mach.PhiIncoming) string {
	parts := make([]string, len(incoming))
	for i, inc := range incoming {
		parts[i] = fmt.Sprintf("[%s, %s]", p.val(inc.Val), inc.Block.Symbol.Name)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func indices(idx []int64) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func binOpName(op mach.BinOpKind) string {
	names := map[mach.BinOpKind]string{
		mach.BAddI: "addi", mach.BSubI: "subi", mach.BMulI: "muli", mach.BDivI: "divi", mach.BModI: "modi",
		mach.BAddF: "addf", mach.BSubF: "subf", mach.BMulF: "mulf", mach.BDivF: "divf",
		mach.BAnd: "and", mach.BOr: "or", mach.BXor: "xor", mach.BShl: "shl", mach.BShr: "shr",
	}
	if n, ok := names[op]; ok {
		return n
	}
	return "?binop?"
}

func uOpName(op mach.UOpKind) string {
	names := map[mach.UOpKind]string{
		mach.UNegI: "negi", mach.UNegF: "negf", mach.UAbsI: "absi", mach.UAbsF: "absf",
		mach.USgnI: "sgni", mach.USgnF: "sgnf", mach.UIntToFloat: "i2f", mach.UFloatToInt: "f2i",
	}
	if n, ok := names[op]; ok {
		return n
	}
	return "?uop?"
}

func cmpName(op mach.CmpKind) string {
	names := map[mach.CmpKind]string{
		mach.CEq: "eq", mach.CNe: "ne", mach.CLt: "lt", mach.CLe: "le", mach.CGt: "gt", mach.CGe: "ge",
	}
	if n, ok := names[op]; ok {
		return n
	}
	return "?cmp?"
}
