package machtype

import (
	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/diag"
)

// Equal reports structural equality between two Mach types. Structs are
// compared by symbol identity rather than member-by-member, since two
// distinct nominal structs may happen to share a member layout.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case Scalar:
		bt, ok := b.(Scalar)
		return ok && at == bt
	case Ptr:
		bt, ok := b.(Ptr)
		return ok && Equal(at.Elem, bt.Elem)
	case Array:
		bt, ok := b.(Array)
		return ok && at.Count == bt.Count && Equal(at.Elem, bt.Elem)
	case Struct:
		bt, ok := b.(Struct)
		return ok && at.Symbol == bt.Symbol
	case Fn:
		bt, ok := b.(Fn)
		if !ok || len(at.Params) != len(bt.Params) || !Equal(at.Return, bt.Return) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Check asserts structural equality between t1 and t2, raising a
// KindBuilderMisuse Bug through diag.Panic if they differ. This is the
// contract check IR builders use before emitting an instruction.
func Check(where string, t1, t2 Type) {
	if !Equal(t1, t2) {
		diag.Panic(where, "type mismatch: %s vs %s", t1, t2)
	}
}

// CheckIsInt panics unless t is an integer scalar.
func CheckIsInt(where string, t Type) {
	s, ok := t.(Scalar)
	if !ok || !s.IsInt() {
		diag.Panic(where, "expected integer type, got %s", t)
	}
}

// CheckIsUInt panics unless t is an unsigned scalar.
func CheckIsUInt(where string, t Type) {
	s, ok := t.(Scalar)
	if !ok || !s.IsUInt() {
		diag.Panic(where, "expected unsigned type, got %s", t)
	}
}

// CheckIsFloat panics unless t is a float scalar.
func CheckIsFloat(where string, t Type) {
	s, ok := t.(Scalar)
	if !ok || !s.IsFloat() {
		diag.Panic(where, "expected float type, got %s", t)
	}
}

// IsUnboxed reports whether a value of type t can be represented inline
// (a scalar or a pointer) rather than needing heap/state-region storage.
func IsUnboxed(t Type) bool {
	switch t.(type) {
	case Scalar, Ptr:
		return true
	default:
		return false
	}
}

// IsWordUInt reports whether t is the unsigned scalar matching wordSize.
func IsWordUInt(t Type, wordSize int) bool {
	s, ok := t.(Scalar)
	return ok && s == WordUInt(wordSize)
}

// SizeOf computes t's size in bytes for the given word size, used to
// size a state struct's heap allocation.
func SizeOf(t Type, wordSize int) int64 {
	switch v := t.(type) {
	case Scalar:
		switch v {
		case U1, U8:
			return 1
		case U16:
			return 2
		case U32, I32, F32:
			return 4
		case U64, I64, F64:
			return 8
		case Char:
			return 4
		case Void:
			return 0
		default:
			return int64(wordSize)
		}
	case Ptr:
		return int64(wordSize)
	case Array:
		return v.Count * SizeOf(v.Elem, wordSize)
	case Struct:
		var total int64
		for _, m := range v.Members {
			total += SizeOf(m, wordSize)
		}
		return total
	case Fn:
		return int64(wordSize)
	default:
		return int64(wordSize)
	}
}

// MakePtrIfBoxed pointer-wraps t unless it is already unboxed: structs, arrays and function types are
// boxed; scalars and pointers pass through unchanged.
func MakePtrIfBoxed(t Type) Type {
	if IsUnboxed(t) {
		return t
	}
	return Ptr{Elem: t}
}

// FromCoreType translates a monomorphic coreast.Type into a Mach type.
// dataTypeOf resolves a data declaration's name to its already-lowered
// Mach type (a Struct for products/sums, a word-sized Scalar for an
// enum) — the hook Pass 1 closes once a declaration's layout is known.
// Precondition: t is monomorphic (no TyVar) and, if a constructor
// application, fully applied — both guaranteed by the upstream
// monomorphizer. A violation is reported as a KindUpstreamViolation
// diagnostic rather than panicking, since bad input (not a compiler bug)
// is the expected cause.
func FromCoreType(t coreast.Type, wordSize int, dataTypeOf func(name string) (Type, bool)) (Type, diag.Diagnostic, bool) {
	switch v := t.(type) {
	case coreast.TyVar:
		return nil, diag.Upstream("from_necro_type", "unresolved type variable %q reached Mach lowering", v.Name), false
	case coreast.TyCon:
		switch v.Name {
		case "Int":
			return WordInt(wordSize), diag.Diagnostic{}, true
		case "UInt":
			return WordUInt(wordSize), diag.Diagnostic{}, true
		case "Float":
			return F64, diag.Diagnostic{}, true
		case "Char":
			return Char, diag.Diagnostic{}, true
		case "World", "Unit":
			return Void, diag.Diagnostic{}, true
		default:
			if dt, ok := dataTypeOf(v.Name); ok {
				return dt, diag.Diagnostic{}, true
			}
			return nil, diag.Upstream("from_necro_type", "unknown type constructor %q", v.Name), false
		}
	case coreast.TyApp:
		con, ok := v.Con.(coreast.TyCon)
		if !ok {
			return nil, diag.Upstream("from_necro_type", "non-constructor head in type application"), false
		}
		if dt, ok := dataTypeOf(con.Name); ok {
			return dt, diag.Diagnostic{}, true
		}
		return nil, diag.Upstream("from_necro_type", "unresolved applied type constructor %q", con.Name), false
	case coreast.TyFun:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			pt, d, ok := FromCoreType(p, wordSize, dataTypeOf)
			if !ok {
				return nil, d, false
			}
			params[i] = MakePtrIfBoxed(pt)
		}
		ret, d, ok := FromCoreType(v.Result, wordSize, dataTypeOf)
		if !ok {
			return nil, d, false
		}
		return Fn{Return: MakePtrIfBoxed(ret), Params: params}, diag.Diagnostic{}, true
	default:
		return nil, diag.Upstream("from_necro_type", "unrecognized core type"), false
	}
}
