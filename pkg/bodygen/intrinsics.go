package bodygen

import (
	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machtype"
)

// intrinsicKind distinguishes how a named primitive application lowers,
// since a name like "+" needs a type-directed opcode while a name like
// "print" always lowers to the same fixed runtime call.
type intrinsicKind int

const (
	intrinsicBinOp intrinsicKind = iota
	intrinsicCmp
	intrinsicUOp
	intrinsicRuntimeCall
)

// intrinsicEntry is one row of the dispatch table: grounded on
// pkg/cshmgen/operators.go's TranslateBinaryOp/TranslateUnaryOp, which
// map a source-level operator to a target-typed opcode by switching on
// operand type. Mach has only one integer width per word (no separate
// int/long the way ctypes.Type does), so the switch collapses to a
// single int-vs-float branch per operator.
type intrinsicEntry struct {
	kind    intrinsicKind
	bin     func(argType machtype.Type) mach.BinOpKind
	cmp     mach.CmpKind
	uop     func(argType machtype.Type) mach.UOpKind
	runtime func(rt *mach.RuntimeSymbols) *mach.AstSymbol
}

func isFloatType(t machtype.Type) bool {
	s, ok := t.(machtype.Scalar)
	return ok && s.IsFloat()
}

func typedBin(intOp, floatOp mach.BinOpKind) func(machtype.Type) mach.BinOpKind {
	return func(t machtype.Type) mach.BinOpKind {
		if isFloatType(t) {
			return floatOp
		}
		return intOp
	}
}

func typedUOp(intOp, floatOp mach.UOpKind) func(machtype.Type) mach.UOpKind {
	return func(t machtype.Type) mach.UOpKind {
		if isFloatType(t) {
			return floatOp
		}
		return intOp
	}
}

// intrinsicTable is Pass 3's fixed name -> lowering-rule dispatch table.
// Bitwise/shift operators have no float form, so they reuse their
// integer opcode regardless of argType — mirroring operators.go's
// translateAnd/Or/Xor/Shl/Shr, which never switch on Tfloat at all.
var intrinsicTable = map[string]intrinsicEntry{
	// NecroBase's mangled primitive names: each already commits to one
	// operand type, so no type-directed dispatch is needed.
	"addInt":   {kind: intrinsicBinOp, bin: func(machtype.Type) mach.BinOpKind { return mach.BAddI }},
	"subInt":   {kind: intrinsicBinOp, bin: func(machtype.Type) mach.BinOpKind { return mach.BSubI }},
	"mulInt":   {kind: intrinsicBinOp, bin: func(machtype.Type) mach.BinOpKind { return mach.BMulI }},
	"addFloat": {kind: intrinsicBinOp, bin: func(machtype.Type) mach.BinOpKind { return mach.BAddF }},

	"+": {kind: intrinsicBinOp, bin: typedBin(mach.BAddI, mach.BAddF)},
	"-": {kind: intrinsicBinOp, bin: typedBin(mach.BSubI, mach.BSubF)},
	"*": {kind: intrinsicBinOp, bin: typedBin(mach.BMulI, mach.BMulF)},
	"/": {kind: intrinsicBinOp, bin: typedBin(mach.BDivI, mach.BDivF)},
	"%": {kind: intrinsicBinOp, bin: typedBin(mach.BModI, mach.BModI)},
	"&": {kind: intrinsicBinOp, bin: typedBin(mach.BAnd, mach.BAnd)},
	"|": {kind: intrinsicBinOp, bin: typedBin(mach.BOr, mach.BOr)},
	"^": {kind: intrinsicBinOp, bin: typedBin(mach.BXor, mach.BXor)},
	"<<": {kind: intrinsicBinOp, bin: typedBin(mach.BShl, mach.BShl)},
	">>": {kind: intrinsicBinOp, bin: typedBin(mach.BShr, mach.BShr)},

	"==": {kind: intrinsicCmp, cmp: mach.CEq},
	"/=": {kind: intrinsicCmp, cmp: mach.CNe},
	"<":  {kind: intrinsicCmp, cmp: mach.CLt},
	"<=": {kind: intrinsicCmp, cmp: mach.CLe},
	">":  {kind: intrinsicCmp, cmp: mach.CGt},
	">=": {kind: intrinsicCmp, cmp: mach.CGe},

	"negate": {kind: intrinsicUOp, uop: typedUOp(mach.UNegI, mach.UNegF)},
	"abs":    {kind: intrinsicUOp, uop: typedUOp(mach.UAbsI, mach.UAbsF)},
	"signum": {kind: intrinsicUOp, uop: typedUOp(mach.USgnI, mach.USgnF)},

	"print":      {kind: intrinsicRuntimeCall, runtime: func(rt *mach.RuntimeSymbols) *mach.AstSymbol { return rt.Print }},
	"debugPrint": {kind: intrinsicRuntimeCall, runtime: func(rt *mach.RuntimeSymbols) *mach.AstSymbol { return rt.DebugPrint }},
}
