package mach

import (
	"fmt"

	"github.com/necrolang/necro-mach/pkg/diag"
	"github.com/necrolang/necro-mach/pkg/machtype"
)

// Builder constructs Mach IR for a single function: it consumes the
// function's cursor, appends an instruction to its current block, and
// returns the produced register value. This generalizes
// rtlgen.CFGBuilder's EmitInstr/AllocReg methods from a map-indexed CFG
// with infinite pseudo-registers to Mach's explicit, textually-ordered
// basic blocks.
type Builder struct {
	Prog *Program
	Fn   *FnDef
	tmp  int
}

// NewBuilder creates a builder appending to fn, starting at fn's current
// cursor.
func NewBuilder(prog *Program, fn *FnDef) *Builder {
	return &Builder{Prog: prog, Fn: fn}
}

func (b *Builder) freshReg(typ machtype.Type) *AstSymbol {
	b.tmp++
	sym := b.Prog.SymbolFor(fmt.Sprintf("%s.r%d", b.Fn.Symbol.Name, b.tmp))
	sym.MachType = typ
	return sym
}

func (b *Builder) emit(stmt Ast) {
	blk := b.Fn.CurrentBlock()
	if blk == nil {
		diag.Panic("mach.Builder", "no current block to append to")
	}
	if blk.HasTerminator() {
		diag.Panic("mach.Builder", "appended instruction to already-terminated block %q", blk.Symbol.Name)
	}
	blk.Stmts = append(blk.Stmts, stmt)
}

// --- Block management ---

// BlockAppend attaches a new block after the last block in the
// function's textual order.
func (b *Builder) BlockAppend(name string) *Block {
	return b.Fn.AppendBlock(b.Prog.SymbolFor(name))
}

// BlockInsertBefore splices a new block in immediately before target.
func (b *Builder) BlockInsertBefore(name string, target *Block) *Block {
	return b.Fn.InsertBlockBefore(b.Prog.SymbolFor(name), target)
}

// BlockMoveTo sets the builder's cursor to blk.
func (b *Builder) BlockMoveTo(blk *Block) {
	b.Fn.MoveTo(blk)
}

// --- Pure ops ---

func elementType(where string, ptr machtype.Type, index int64) machtype.Type {
	switch t := ptr.(type) {
	case machtype.Struct:
		if index < 0 || int(index) >= len(t.Members) {
			diag.Panic(where, "gep struct member index %d out of range (%d members)", index, len(t.Members))
		}
		return t.Members[index]
	case machtype.Array:
		if index < 0 || index >= t.Count {
			diag.Panic(where, "gep array index %d out of range (count %d)", index, t.Count)
		}
		return t.Elem
	default:
		diag.Panic(where, "gep into non-aggregate type %s", ptr)
		return nil
	}
}

// BuildGep requires indices[0] == 0 when ptr's type is a pointer
// (invariant 5); subsequent indices select struct/array members whose
// bounds are checked; the result is Ptr(element type).
func (b *Builder) BuildGep(ptr Value, indices []int64) Value {
	p, ok := ptr.Typ.(machtype.Ptr)
	if !ok {
		diag.Panic("BuildGep", "gep source must be a pointer, got %s", ptr.Typ)
	}
	if len(indices) == 0 {
		diag.Panic("BuildGep", "gep requires at least one index")
	}
	if indices[0] != 0 {
		diag.Panic("BuildGep", "first gep index through a pointer must be 0, got %d", indices[0])
	}
	cur := p.Elem
	for _, idx := range indices[1:] {
		cur = elementType("BuildGep", cur, idx)
	}
	dest := b.freshReg(machtype.Ptr{Elem: cur})
	b.emit(Gep{Ptr: ptr, Indices: indices, Dest: dest})
	return Register(dest)
}

// BuildBitCast reinterprets src's pointer as toType.
func (b *Builder) BuildBitCast(src Value, toType machtype.Type) Value {
	if _, ok := src.Typ.(machtype.Ptr); !ok {
		diag.Panic("BuildBitCast", "bitcast source must be a pointer, got %s", src.Typ)
	}
	if _, ok := toType.(machtype.Ptr); !ok {
		diag.Panic("BuildBitCast", "bitcast target must be a pointer type, got %s", toType)
	}
	dest := b.freshReg(toType)
	b.emit(BitCast{Src: src, Dest: dest})
	return Register(dest)
}

// BuildZExt zero-extends src to toType.
func (b *Builder) BuildZExt(src Value, toType machtype.Type) Value {
	machtype.CheckIsUInt("BuildZExt", src.Typ)
	machtype.CheckIsUInt("BuildZExt", toType)
	dest := b.freshReg(toType)
	b.emit(ZExt{Src: src, Dest: dest})
	return Register(dest)
}

// BuildLoad requires Ptr(T) and yields T.
func (b *Builder) BuildLoad(ptr Value) Value {
	p, ok := ptr.Typ.(machtype.Ptr)
	if !ok {
		diag.Panic("BuildLoad", "load source must be a pointer, got %s", ptr.Typ)
	}
	dest := b.freshReg(p.Elem)
	b.emit(Load{Ptr: ptr, Dest: dest})
	return Register(dest)
}

// BuildStore requires Ptr(T) and a value of T.
func (b *Builder) BuildStore(val Value, ptr Value) {
	p, ok := ptr.Typ.(machtype.Ptr)
	if !ok {
		diag.Panic("BuildStore", "store destination must be a pointer, got %s", ptr.Typ)
	}
	machtype.Check("BuildStore", p.Elem, val.Typ)
	b.emit(Store{Val: val, Ptr: ptr})
}

// BuildMemCpy copies size bytes from src to dst.
func (b *Builder) BuildMemCpy(dst, src Value, size int64) {
	b.emit(MemCpy{Dst: dst, Src: src, Size: size})
}

// BuildMemSet fills size bytes at dst with val.
func (b *Builder) BuildMemSet(dst Value, val byte, size int64) {
	b.emit(MemSet{Dst: dst, Val: val, Size: size})
}

// BuildInsertValue returns a copy of agg with elem written at index.
func (b *Builder) BuildInsertValue(agg, elem Value, index int) Value {
	dest := b.freshReg(agg.Typ)
	b.emit(InsertValue{Agg: agg, Elem: elem, Index: index, Dest: dest})
	return Register(dest)
}

// BuildExtractValue reads the field at index out of agg.
func (b *Builder) BuildExtractValue(agg Value, index int, fieldType machtype.Type) Value {
	dest := b.freshReg(fieldType)
	b.emit(ExtractValue{Agg: agg, Index: index, Dest: dest})
	return Register(dest)
}

func isFloatOp(op BinOpKind) bool {
	switch op {
	case BAddF, BSubF, BMulF, BDivF:
		return true
	default:
		return false
	}
}

// BuildBinOp is type-classified: integer ops require equal-typed integer
// operands, float ops require equal-typed float operands.
func (b *Builder) BuildBinOp(op BinOpKind, lhs, rhs Value) Value {
	machtype.Check("BuildBinOp", lhs.Typ, rhs.Typ)
	if isFloatOp(op) {
		machtype.CheckIsFloat("BuildBinOp", lhs.Typ)
	} else {
		machtype.CheckIsInt("BuildBinOp", lhs.Typ)
	}
	dest := b.freshReg(lhs.Typ)
	b.emit(BinOp{Op: op, LHS: lhs, RHS: rhs, Dest: dest})
	return Register(dest)
}

// BuildUOp emits a unary conversion/abs/sgn op, yielding resultType.
func (b *Builder) BuildUOp(op UOpKind, src Value, resultType machtype.Type) Value {
	dest := b.freshReg(resultType)
	b.emit(UOp{Op: op, Src: src, Dest: dest})
	return Register(dest)
}

// BuildCmp always yields U1.
func (b *Builder) BuildCmp(op CmpKind, lhs, rhs Value) Value {
	machtype.Check("BuildCmp", lhs.Typ, rhs.Typ)
	dest := b.freshReg(machtype.U1)
	b.emit(Cmp{Op: op, LHS: lhs, RHS: rhs, Dest: dest})
	return Register(dest)
}

// BuildPhi must be emitted at the top of its block; incoming value types
// must equal the phi's declared type.
func (b *Builder) BuildPhi(typ machtype.Type, incoming []PhiIncoming) Value {
	blk := b.Fn.CurrentBlock()
	for _, s := range blk.Stmts {
		if _, ok := s.(Phi); !ok {
			diag.Panic("BuildPhi", "phi must be emitted at the top of block %q", blk.Symbol.Name)
		}
	}
	for _, inc := range incoming {
		machtype.Check("BuildPhi", typ, inc.Val.Typ)
	}
	dest := b.freshReg(typ)
	b.emit(Phi{Incoming: incoming, Dest: dest})
	return Register(dest)
}

// BuildCall's argument count and types must match the callee's Fn type;
// void returns produce the sentinel Void value.
func (b *Builder) BuildCall(fn *AstSymbol, args []Value, conv CallConv) Value {
	sig, ok := fn.MachType.(machtype.Fn)
	if !ok {
		diag.Panic("BuildCall", "call target %q is not a function type", fn.Name)
	}
	if len(args) != len(sig.Params) {
		diag.Panic("BuildCall", "call to %q: got %d args, want %d", fn.Name, len(args), len(sig.Params))
	}
	for i, a := range args {
		machtype.Check("BuildCall", sig.Params[i], a.Typ)
	}
	if sig.Return == machtype.Void {
		b.emit(Call{Fn: fn, Args: args, Conv: conv, Dest: nil})
		return Void()
	}
	dest := b.freshReg(sig.Return)
	b.emit(Call{Fn: fn, Args: args, Conv: conv, Dest: dest})
	return Register(dest)
}

// BuildCallIntrinsic invokes a recognized math/runtime primitive.
func (b *Builder) BuildCallIntrinsic(name string, args []Value, resultType machtype.Type) Value {
	if !IsIntrinsic(name) {
		diag.Panic("BuildCallIntrinsic", "unrecognized intrinsic %q", name)
	}
	dest := b.freshReg(resultType)
	b.emit(CallIntrinsic{Name: name, Args: args, Dest: dest})
	return Register(dest)
}

// --- Terminators ---

func (b *Builder) terminate(t Terminator) {
	blk := b.Fn.CurrentBlock()
	if blk.HasTerminator() {
		diag.Panic("mach.Builder", "block %q already has a terminator", blk.Symbol.Name)
	}
	blk.Term = t
}

// BuildReturn terminates the current block, returning val.
func (b *Builder) BuildReturn(val Value) {
	b.terminate(Return{Val: val})
}

// BuildReturnVoid terminates the current block with no value.
func (b *Builder) BuildReturnVoid() {
	b.terminate(ReturnVoid{})
}

// BuildBreak terminates the current block with an unconditional jump.
func (b *Builder) BuildBreak(target *Block) {
	b.terminate(Break{Target: target})
}

// BuildCondBreak requires a U1 condition.
func (b *Builder) BuildCondBreak(cond Value, ifTrue, ifFalse *Block) {
	machtype.Check("BuildCondBreak", machtype.U1, cond.Typ)
	b.terminate(CondBreak{Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse})
}

// BuildSwitch terminates the current block with an integer switch.
func (b *Builder) BuildSwitch(scrutinee Value, cases []SwitchCase, def *Block) {
	b.terminate(Switch{Scrutinee: scrutinee, Cases: cases, Default: def})
}

// BuildUnreachable marks the current block as unreachable at runtime.
func (b *Builder) BuildUnreachable() {
	b.terminate(Unreachable{})
}
