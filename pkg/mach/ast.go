package mach

import "github.com/necrolang/necro-mach/pkg/machtype"

// Ast is the interface implemented by every Mach IR node — values,
// blocks, pure instructions, and definitions — each carrying its own
// MachType.
type Ast interface {
	implAst()
	Type() machtype.Type
}

// BinOpKind enumerates int/float/bitwise binary arithmetic ops.
type BinOpKind int

const (
	BAddI BinOpKind = iota
	BSubI
	BMulI
	BDivI
	BModI
	BAddF
	BSubF
	BMulF
	BDivF
	BAnd
	BOr
	BXor
	BShl
	BShr
)

// UOpKind enumerates unary conversions, abs, and sign.
type UOpKind int

const (
	UNegI UOpKind = iota
	UNegF
	UAbsI
	UAbsF
	USgnI
	USgnF
	UIntToFloat
	UFloatToInt
)

// CmpKind enumerates comparison operators; Cmp always yields U1.
type CmpKind int

const (
	CEq CmpKind = iota
	CNe
	CLt
	CLe
	CGt
	CGe
)

// Gep is a get-element-ptr with compile-time indices.
type Gep struct {
	Ptr     Value
	Indices []int64
	Dest    *AstSymbol
}

func (Gep) implAst()              {}
func (g Gep) Type() machtype.Type { return g.Dest.MachType }

// BitCast reinterprets a pointer as a different pointer type (used to
// cast a sum type's dummy parent struct pointer to a variant's child
// struct pointer).
type BitCast struct {
	Src  Value
	Dest *AstSymbol
}

func (BitCast) implAst()               {}
func (b BitCast) Type() machtype.Type { return b.Dest.MachType }

// ZExt zero-extends an integer value to a wider type.
type ZExt struct {
	Src  Value
	Dest *AstSymbol
}

func (ZExt) implAst()              {}
func (z ZExt) Type() machtype.Type { return z.Dest.MachType }

// BinOp computes dest = LHS op RHS.
type BinOp struct {
	Op   BinOpKind
	LHS  Value
	RHS  Value
	Dest *AstSymbol
}

func (BinOp) implAst()              {}
func (b BinOp) Type() machtype.Type { return b.Dest.MachType }

// UOp computes dest = op(Src): conversions, abs, sgn.
type UOp struct {
	Op   UOpKind
	Src  Value
	Dest *AstSymbol
}

func (UOp) implAst()              {}
func (u UOp) Type() machtype.Type { return u.Dest.MachType }

// Cmp always yields a U1 destination.
type Cmp struct {
	Op   CmpKind
	LHS  Value
	RHS  Value
	Dest *AstSymbol
}

func (Cmp) implAst()              {}
func (c Cmp) Type() machtype.Type { return machtype.U1 }

// Load requires a Ptr(T) source and yields T.
type Load struct {
	Ptr  Value
	Dest *AstSymbol
}

func (Load) implAst()              {}
func (l Load) Type() machtype.Type { return l.Dest.MachType }

// Store requires Ptr(T) and a value of T; produces no value.
type Store struct {
	Val Value
	Ptr Value
}

func (Store) implAst()            {}
func (Store) Type() machtype.Type { return machtype.Void }

// MemCpy copies Size bytes from Src to Dst.
type MemCpy struct {
	Dst  Value
	Src  Value
	Size int64
}

func (MemCpy) implAst()            {}
func (MemCpy) Type() machtype.Type { return machtype.Void }

// MemSet fills Size bytes at Dst with byte Val.
type MemSet struct {
	Dst  Value
	Val  byte
	Size int64
}

func (MemSet) implAst()            {}
func (MemSet) Type() machtype.Type { return machtype.Void }

// InsertValue returns a copy of Agg with Elem written at Index.
type InsertValue struct {
	Agg   Value
	Elem  Value
	Index int
	Dest  *AstSymbol
}

func (InsertValue) implAst()              {}
func (i InsertValue) Type() machtype.Type { return i.Dest.MachType }

// ExtractValue reads the field at Index out of Agg.
type ExtractValue struct {
	Agg   Value
	Index int
	Dest  *AstSymbol
}

func (ExtractValue) implAst()              {}
func (e ExtractValue) Type() machtype.Type { return e.Dest.MachType }

// PhiIncoming is one (predecessor block, value) pair feeding a Phi.
type PhiIncoming struct {
	Block *Block
	Val   Value
}

// Phi must be emitted at the top of its block; every incoming value's
// type must equal the phi's declared type.
type Phi struct {
	Incoming []PhiIncoming
	Dest     *AstSymbol
}

func (Phi) implAst()              {}
func (p Phi) Type() machtype.Type { return p.Dest.MachType }

// CallConv distinguishes a user-language call from a runtime-provided C
// call.
type CallConv int

const (
	CallLang CallConv = iota
	CallC
)

// Call invokes Fn with Args. Dest is nil when the callee returns Void;
// argument count/types must match the callee's Fn type.
type Call struct {
	Fn   *AstSymbol
	Args []Value
	Conv CallConv
	Dest *AstSymbol // nil for void calls
}

func (Call) implAst() {}
func (c Call) Type() machtype.Type {
	if c.Dest == nil {
		return machtype.Void
	}
	return c.Dest.MachType
}

// CallIntrinsic invokes a recognized math/runtime primitive by dispatch
// name.
type CallIntrinsic struct {
	Name string
	Args []Value
	Dest *AstSymbol
}

func (CallIntrinsic) implAst()              {}
func (c CallIntrinsic) Type() machtype.Type { return c.Dest.MachType }
