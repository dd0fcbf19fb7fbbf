// Package statediscovery implements Pass 2 of the Mach lowering
// pipeline: for each top-level binding it builds a MachDef, walks the
// binding's body to discover persistent slots, classifies the
// resulting state shape (Constant/Pointwise/Stateful), and — for any
// def with persistent slots — synthesizes its state struct and mk/init
// functions.
//
// Grounded on the same two-phase shape as pkg/cshmgen.TranslateProgram:
// a first pass builds a lookup table for every top-level name (so
// forward references between bindings resolve), then a second pass
// walks each binding's body against that table. Here the shape grows
// two more phases for the same reason: a Stateful def's init_fn may
// recurse into another Stateful def's own init_fn, embedded inline as
// one of its members, and that callee may be defined later in source
// order — so every def's state struct and init_fn/mk_fn *signature* is
// registered before any def's init_fn body is built.
package statediscovery

import (
	"strings"

	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/datalayout"
	"github.com/necrolang/necro-mach/pkg/diag"
	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machtype"
)

// Result is Pass 2's output: one MachDef per top-level binding, in
// source order, plus any diagnostics gathered along the way.
type Result struct {
	Defs        map[string]*mach.MachDef
	Order       []string
	Diagnostics []diag.Diagnostic
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Discover runs Pass 2 over prog, using layout to resolve data type and
// constructor references, and registers every struct/function it builds
// on machProg.
func Discover(prog *coreast.Program, layout *datalayout.Layout, machProg *mach.Program) *Result {
	r := &Result{Defs: make(map[string]*mach.MachDef)}

	// Phase 1: stub every binding so forward references resolve.
	for _, bind := range prog.Binds {
		def := newDefStub(machProg, layout, bind)
		r.Defs[bind.Name] = def
		r.Order = append(r.Order, bind.Name)
		machProg.AddMachineDef(def)

		sym := machProg.SymbolFor(bind.Name)
		sym.MachType = def.Type()
		sym.Ast = def
	}

	// Phase 2: discover each binding's persistent slots and classify it.
	for _, bind := range prog.Binds {
		def := r.Defs[bind.Name]
		locals := make(map[string]bool, len(bind.Args))
		for _, a := range bind.Args {
			locals[a] = true
		}
		walk(bind.Body, def, locals, r.Defs, layout, &r.Diagnostics)
		def.RemoveSelfOnlySlot()
		def.Classify()
	}

	// Phase 3: register global value/state symbols for every arg-less
	// def, and mk_fn/init_fn signatures for every def with persistent
	// slots (an arg-taking Pointwise def included), before
	// any def's body references another's.
	for _, name := range r.Order {
		def := r.Defs[name]
		if !def.TakesArgs() {
			def.GlobalValue = machProg.SymbolFor(def.MachineName + ".value")
			def.GlobalValue.MachType = def.ValueType
		}
		declareState(machProg, def, name == prog.MainName)
	}

	// Phase 4: build the init_fn/mk_fn bodies now that every signature
	// referenced from any def's init body already exists.
	for _, name := range r.Order {
		def := r.Defs[name]
		if def.HasState() {
			buildInitFn(machProg, def)
			buildMkFn(machProg, def)
		}
	}

	return r
}

func newDefStub(machProg *mach.Program, layout *datalayout.Layout, bind coreast.Bind) *mach.MachDef {
	name := capitalize(bind.Name)
	def := &mach.MachDef{
		MachineName: "_" + name + "Machine",
		StateName:   name + "State",
		ArgNames:    bind.Args,
		// Allocated now, not in declareState, so a sibling def's Phase 2
		// walk can build a slot type naming this symbol before this def
		// itself is known to need state — declareState later reuses the
		// same pointer instead of allocating a second one.
		StateStructSymbol: &machtype.StructSymbol{Name: name + "State"},
	}
	if len(bind.Args) > 0 {
		fnType, d, ok := machtype.FromCoreType(bind.Typ, machProg.WordSize, layout.DataTypeOf)
		if !ok {
			def.ValueType = machtype.WordUInt(machProg.WordSize)
			def.FnType = machtype.Fn{Return: def.ValueType}
			_ = d
			return def
		}
		fn := fnType.(machtype.Fn)
		def.FnType = fn
		def.ValueType = fn.Return
		return def
	}
	valType, d, ok := machtype.FromCoreType(bind.Typ, machProg.WordSize, layout.DataTypeOf)
	if !ok {
		def.ValueType = machtype.WordUInt(machProg.WordSize)
		_ = d
		return def
	}
	def.ValueType = machtype.MakePtrIfBoxed(valType)
	return def
}

// walk recursively discovers persistent slots in e, appending them to
// def.Members. locals shadows top-level names bound by an enclosing
// Let/Lambda/Case-alt within the current binding.
func walk(e coreast.Expr, def *mach.MachDef, locals map[string]bool, registry map[string]*mach.MachDef, layout *datalayout.Layout, diags *[]diag.Diagnostic) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case coreast.Lit:
		// no references to discover.
	case coreast.Var:
		resolveVarReference(v.Name, def, locals, registry, layout)
	case coreast.App:
		walkApplication(v, def, locals, registry, layout, diags)
	case coreast.Let:
		walk(v.Bind, def, locals, registry, layout, diags)
		locals[v.Name] = true
		walk(v.Body, def, locals, registry, layout, diags)
	case coreast.Lambda:
		for _, p := range v.Params {
			locals[p] = true
		}
		walk(v.Body, def, locals, registry, layout, diags)
	case coreast.Case:
		walk(v.Scrutinee, def, locals, registry, layout, diags)
		for _, alt := range v.Alts {
			for _, b := range alt.Binders {
				locals[b] = true
			}
			if alt.VarBind != "" {
				locals[alt.VarBind] = true
			}
			walk(alt.Body, def, locals, registry, layout, diags)
		}
	case coreast.For:
		*diags = append(*diags, diag.Unimplemented("statediscovery", "for-loops are not yet implemented (binding %q)", def.MachineName))
		walk(v.Range, def, locals, registry, layout, diags)
		walk(v.Body, def, locals, registry, layout, diags)
	default:
		*diags = append(*diags, diag.Upstream("statediscovery", "unrecognized core expression reached Pass 2"))
	}
}

// resolveVarReference handles a bare (non-applied) variable reference:
// an argument or local needs nothing; a reference to another top-level
// def caches its value; a reference to a nullary, non-enum constructor
// reserves the slot its mk writes into.
func resolveVarReference(name string, def *mach.MachDef, locals map[string]bool, registry map[string]*mach.MachDef, layout *datalayout.Layout) {
	if locals[name] {
		return
	}
	if callee, ok := registry[name]; ok && callee != def {
		if _, already := def.SlotForDef(callee, mach.SlotValue); !already {
			def.AddSlot(machtype.MakePtrIfBoxed(callee.ValueType), mach.SlotValue, callee, nil)
		}
		return
	}
	if con, ok := layout.Constructors[name]; ok && !con.IsEnum {
		if _, already := def.SlotForCon(con.Symbol); !already {
			def.AddSlot(con.VariantStruct, mach.SlotCon, nil, con.Symbol)
		}
	}
}

func walkApplication(app coreast.App, def *mach.MachDef, locals map[string]bool, registry map[string]*mach.MachDef, layout *datalayout.Layout, diags *[]diag.Diagnostic) {
	for _, a := range app.Args {
		walk(a, def, locals, registry, layout, diags)
	}
	if fn, ok := app.Fn.(coreast.Var); ok {
		if locals[fn.Name] {
			return
		}
		if con, ok := layout.Constructors[fn.Name]; ok {
			if !con.IsEnum {
				if _, already := def.SlotForCon(con.Symbol); !already {
					def.AddSlot(con.VariantStruct, mach.SlotCon, nil, con.Symbol)
				}
			}
			return
		}
		if callee, ok := registry[fn.Name]; ok && callee != def {
			if _, already := def.SlotForDef(callee, mach.SlotState); !already {
				// Embedded, not pointer-wrapped: the callee's state struct
				// lives inline inside this def's own state struct, so
				// init_fn can recurse into it with a bare gep, and Pass 3's
				// Application lowering can pass that same gep straight
				// through as the callee's state_ptr argument.
				stateType := machtype.Struct{Symbol: callee.StateStructSymbol}
				def.AddSlot(stateType, mach.SlotState, callee, nil)
			}
			return
		}
		return
	}
	walk(app.Fn, def, locals, registry, layout, diags)
}

// declareState registers def's state struct and the Mach type signature
// of its mk_fn/init_fn, without yet building either body. Splitting
// declaration from construction lets a def's init_fn recurse into a
// sibling def's init_fn regardless of which appears first in source
// order.
//
// isMain marks the top-level main binding itself: unlike any other
// arg-taking def, main can legitimately close over a Stateful def's
// state (it's the only def constructMain ever calls directly, once per
// tick, rather than threading through an arbitrary caller), so it still
// needs a GlobalState to carry that state across ticks even though
// TakesArgs() is true for it.
func declareState(machProg *mach.Program, def *mach.MachDef, isMain bool) {
	if !def.HasState() {
		return
	}

	members := make([]machtype.Type, len(def.Members))
	for i, s := range def.Members {
		members[i] = s.Typ
	}
	stateStruct := machtype.Struct{Symbol: def.StateStructSymbol, Members: members}
	stateDefSym := machProg.SymbolFor(def.StateName)
	stateDefSym.MachType = stateStruct
	sd := &mach.StructDef{Symbol: stateDefSym, Struct: stateStruct}
	stateDefSym.Ast = sd
	machProg.AddStruct(sd)

	statePtr := machtype.Ptr{Elem: stateStruct}

	if !def.TakesArgs() || isMain {
		def.GlobalState = machProg.SymbolFor(def.MachineName + ".state")
		def.GlobalState.MachType = statePtr
	}

	initSym := machProg.SymbolFor("_init" + DefBaseName(def))
	initSym.MachType = machtype.Fn{Return: machtype.Void, Params: []machtype.Type{statePtr}}
	def.InitFn = mach.NewFnDef(initSym, mach.FnLang, nil, nil)
	initSym.Ast = def.InitFn

	mkSym := machProg.SymbolFor("_mk" + DefBaseName(def))
	mkSym.MachType = machtype.Fn{Return: statePtr}
	def.MkFn = mach.NewFnDef(mkSym, mach.FnLang, nil, nil)
	mkSym.Ast = def.MkFn
}

// DefBaseName recovers the capitalized user name a MachDef's generated
// names all derive from: MachineName is "_" + name + "Machine" (see
// newDefStub), so stripping the leading underscore and the trailing
// "Machine" gets back to plain "Name" — matching the "_mkFoo",
// "_initFoo", "_updateFoo", "_FooMachine" naming convention for a
// binding named "Foo".
func DefBaseName(def *mach.MachDef) string {
	return strings.TrimSuffix(def.MachineName[1:], "Machine")
}

// buildInitFn fills in def.InitFn's body: for each SlotState-kind
// member — another Stateful def's state struct, embedded inline — it
// gep's to that sub-region and recurses into the callee's own init_fn
// on it. No allocation happens here; def's whole state tree, children
// included, was already heap-allocated in one block by mk_fn before
// init_fn ever runs. SlotValue/SlotCon members need no initialization
// here; Pass 3's per-tick body is what first populates them.
func buildInitFn(machProg *mach.Program, def *mach.MachDef) {
	fn := def.InitFn
	statePtr := fn.Symbol.MachType.(machtype.Fn).Params[0]
	stateArg := machProg.SymbolFor(fn.Symbol.Name + ".state")
	stateArg.MachType = statePtr
	fn.Params = []*mach.AstSymbol{stateArg}

	entry := &mach.Block{Symbol: machProg.SymbolFor(fn.Symbol.Name + ".entry")}
	fn.Entry = entry
	machProg.AddFunction(fn)

	b := mach.NewBuilder(machProg, fn)
	b.BlockMoveTo(entry)
	statePtrVal := mach.Param(fn.Symbol, 0, statePtr)
	for _, s := range def.Members {
		// A SlotState member whose owner turned out stateless has no
		// sub-region to recurse into: the embedded struct is empty, and
		// Pass 3 never dereferences a callee's state_ptr when that callee
		// carries no state to thread through.
		if s.Kind != mach.SlotState || s.OwnerDef == nil || !s.OwnerDef.HasState() {
			continue
		}
		subPtr := b.BuildGep(statePtrVal, []int64{0, int64(s.Index)})
		b.BuildCall(s.OwnerDef.InitFn.Symbol, []mach.Value{subPtr}, mach.CallLang)
	}
	b.BuildReturnVoid()
}

// buildMkFn fills in def.MkFn's body: heap-allocate a state block sized
// for def's whole state tree, call init_fn on it, and return the pointer.
// A SlotState member's type names its callee's state struct without that
// struct's members, so each embedded callee is sized from its own def.
func buildMkFn(machProg *mach.Program, def *mach.MachDef) {
	fn := def.MkFn
	statePtr := fn.Symbol.MachType.(machtype.Fn).Return.(machtype.Ptr)

	entry := &mach.Block{Symbol: machProg.SymbolFor(fn.Symbol.Name + ".entry")}
	fn.Entry = entry
	machProg.AddFunction(fn)

	b := mach.NewBuilder(machProg, fn)
	b.BlockMoveTo(entry)
	seen := map[*mach.MachDef]bool{}
	var sizeOf func(d *mach.MachDef) int64
	sizeOf = func(d *mach.MachDef) (total int64) {
		seen[d] = true
		defer delete(seen, d)
		for _, s := range d.Members {
			if s.Kind == mach.SlotState && s.OwnerDef != nil && !seen[s.OwnerDef] {
				total += sizeOf(s.OwnerDef)
				continue
			}
			total += machtype.SizeOf(s.Typ, machProg.WordSize)
		}
		return total
	}
	size := sizeOf(def)
	raw := b.BuildCall(machProg.Runtime.FromAlloc, []mach.Value{mach.LitUInt(uint64(size), machtype.WordUInt(machProg.WordSize))}, mach.CallC)
	typed := b.BuildBitCast(raw, statePtr)
	b.BuildCall(def.InitFn.Symbol, []mach.Value{typed}, mach.CallLang)
	b.BuildReturn(typed)
}
