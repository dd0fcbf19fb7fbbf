package mach

import "github.com/necrolang/necro-mach/pkg/machtype"

// ValueKind discriminates the tagged union of operand kinds a Value can
// be.
type ValueKind int

const (
	VVoid ValueKind = iota
	VRegister
	VParameter
	VGlobal
	VLitU1
	VLitU8
	VLitU16
	VLitU32
	VLitU64
	VLitI32
	VLitI64
	VLitF32
	VLitF64
	VNullPtr
	VUndefined
)

// Value is an operand in the IR. Every Value carries its MachType.
type Value struct {
	Kind ValueKind
	Typ  machtype.Type

	// Register/Global name the producing/declaring symbol.
	Sym *AstSymbol

	// Param identifies a function parameter by owning function and
	// positional index.
	ParamFn    *AstSymbol
	ParamIndex int

	// Literal payloads; only the field matching Kind is meaningful.
	LitBool bool
	LitU64  uint64
	LitI64  int64
	LitF64  float64
}

func (Value) implAst() {}

// Type implements Ast.
func (v Value) Type() machtype.Type { return v.Typ }

// Void constructs the sentinel void value produced by calls with no
// return value.
func Void() Value {
	return Value{Kind: VVoid, Typ: machtype.Void}
}

// Register wraps a register-producing symbol as an operand.
func Register(sym *AstSymbol) Value {
	return Value{Kind: VRegister, Typ: sym.MachType, Sym: sym}
}

// Global wraps a global symbol as an operand naming its address: sym's
// MachType records what the global holds, so the operand itself is
// Ptr(sym.MachType) — the address BuildLoad/BuildStore need to read or
// write the global's content.
func Global(sym *AstSymbol) Value {
	return Value{Kind: VGlobal, Typ: machtype.Ptr{Elem: sym.MachType}, Sym: sym}
}

// Param constructs a function-parameter operand.
func Param(fn *AstSymbol, index int, typ machtype.Type) Value {
	return Value{Kind: VParameter, Typ: typ, ParamFn: fn, ParamIndex: index}
}

// LitU1 constructs a one-bit literal (0 or 1).
func LitU1(b bool) Value {
	return Value{Kind: VLitU1, Typ: machtype.U1, LitBool: b}
}

// LitUInt constructs an unsigned integer literal of the given scalar
// width.
func LitUInt(v uint64, typ machtype.Scalar) Value {
	kinds := map[machtype.Scalar]ValueKind{
		machtype.U8:  VLitU8,
		machtype.U16: VLitU16,
		machtype.U32: VLitU32,
		machtype.U64: VLitU64,
	}
	return Value{Kind: kinds[typ], Typ: typ, LitU64: v}
}

// LitInt constructs a signed integer literal (I32 or I64).
func LitInt(v int64, typ machtype.Scalar) Value {
	kind := VLitI64
	if typ == machtype.I32 {
		kind = VLitI32
	}
	return Value{Kind: kind, Typ: typ, LitI64: v}
}

// LitFloat constructs a floating point literal (F32 or F64).
func LitFloat(v float64, typ machtype.Scalar) Value {
	kind := VLitF64
	if typ == machtype.F32 {
		kind = VLitF32
	}
	return Value{Kind: kind, Typ: typ, LitF64: v}
}

// NullPtr constructs a null pointer literal of the given pointer type.
func NullPtr(typ machtype.Type) Value {
	return Value{Kind: VNullPtr, Typ: typ}
}

// Undefined constructs an undefined-value placeholder of the given type.
func Undefined(typ machtype.Type) Value {
	return Value{Kind: VUndefined, Typ: typ}
}

// IsLiteral reports whether v is one of the literal kinds.
func (v Value) IsLiteral() bool {
	switch v.Kind {
	case VLitU1, VLitU8, VLitU16, VLitU32, VLitU64, VLitI32, VLitI64, VLitF32, VLitF64:
		return true
	default:
		return false
	}
}
