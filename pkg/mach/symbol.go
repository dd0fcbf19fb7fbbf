// Package mach defines the Mach intermediate representation: the
// SSA-style, block-structured, typed abstract machine IR that the Necro
// compiler's core lowers a monomorphic, lambda-lifted Core AST into.
// Every source binding becomes a "machine definition" (MachDef) that
// declares a persistent state record and mk/init/update functions, driven
// by a generated necro_main scheduler loop.
//
// This follows the shape of RTL-style backend IRs — a register type and
// an implInstruction()-style marker-method interface pattern —
// generalized from pseudo-registers and a map-indexed CFG to explicit,
// textually-ordered basic blocks, since Mach has no physical register
// allocator downstream of it — LLVM owns register allocation and code
// generation once Mach hands off.
package mach

import (
	"github.com/necrolang/necro-mach/pkg/arena"
	"github.com/necrolang/necro-mach/pkg/machtype"
)

// StateType classifies a binding after Pass 2 (State Discovery).
type StateType int

const (
	// Poly is only a pre-resolution placeholder.
	Poly StateType = iota
	// Constant bindings take no args and carry no persistent state:
	// evaluated once, at startup.
	Constant
	// Pointwise bindings are re-evaluated every tick with no state
	// carried across ticks. An arg-taking binding is always Pointwise,
	// whatever members its own per-call body allocates — those are
	// local to one invocation, not state this binding threads from one
	// tick to the next. An arg-less binding is never Pointwise: it is
	// Stateful if State Discovery found persistent slots for it, and
	// Constant otherwise.
	Pointwise
	// Stateful bindings are arg-less and transitively allocate
	// persistent state threaded from tick to tick.
	Stateful
)

func (s StateType) String() string {
	switch s {
	case Poly:
		return "poly"
	case Constant:
		return "constant"
	case Pointwise:
		return "pointwise"
	case Stateful:
		return "stateful"
	default:
		return "?state?"
	}
}

// AstSymbol is a globally unique handle for a named entity — a function,
// a global, a constructor, a struct. The same Core symbol always maps to
// the same *AstSymbol (see Program.SymbolFor): this is how MachAst and
// AstSymbol cross-reference without true cyclic ownership.
type AstSymbol struct {
	Name string // mangled name

	// Interned is the canonical *arena.Symbol this name resolves to in
	// the Program's shared Intern — what guarantees a name interned by
	// an upstream pass and a name built while lowering Mach symbols
	// collide onto the same AstSymbol (see Program.SymbolFor) instead
	// of landing in two disjoint tables.
	Interned *arena.Symbol

	MachType machtype.Type
	// CoreTypeName records the Core source type's textual form for
	// diagnostics only; the pipeline never re-derives it.
	CoreTypeName string

	StateType StateType

	IsEnum        bool
	IsConstructor bool
	IsPrimitive   bool
	// ConNum is this constructor's stable index within its sum type;
	// meaningless unless IsConstructor.
	ConNum int

	// Ast points back to the defining node (a *FnDef, *MachDef, or
	// *StructDef); nil for symbols that only ever appear as a reference
	// (e.g. runtime externs, function parameters).
	Ast Ast
}
