// Package bodygen implements Pass 3 of the Mach lowering pipeline: for
// every top-level binding it synthesizes an `_updateXxx` function whose
// body evaluates the binding's Core expression each tick, using the
// persistent slots pkg/statediscovery already discovered.
//
// Grounded on the same two-phase shape pkg/statediscovery and
// pkg/datalayout already use (stub every signature first, then build
// bodies against the complete table), since one binding's body may call
// another binding defined later in source.
package bodygen

import (
	"fmt"

	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/datalayout"
	"github.com/necrolang/necro-mach/pkg/diag"
	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machtype"
	"github.com/necrolang/necro-mach/pkg/statediscovery"
)

// Result is Pass 3's output: nothing beyond the diagnostics gathered
// along the way — every `_updateXxx` function it builds is registered
// directly on the mach.Program and referenced from its MachDef.
type Result struct {
	Diagnostics []diag.Diagnostic
}

// env carries per-function lowering state through one binding's body
// walk: the def being built, its state_ptr value (the zero Value if the
// def carries no state), and the locals bound so far by Let/Lambda/Case.
type env struct {
	machProg *mach.Program
	layout   *datalayout.Layout
	defs     map[string]*mach.MachDef
	base     *coreast.NecroBase
	def      *mach.MachDef
	statePtr mach.Value
	locals   map[string]mach.Value
	diags    *[]diag.Diagnostic
	blockSeq int
}

func (e *env) cloneLocals() map[string]mach.Value {
	out := make(map[string]mach.Value, len(e.locals))
	for k, v := range e.locals {
		out[k] = v
	}
	return out
}

func (e *env) diag(d diag.Diagnostic) {
	*e.diags = append(*e.diags, d)
}

func (e *env) freshBlockName(suffix string) string {
	e.blockSeq++
	return fmt.Sprintf("%s.%s%d", e.def.UpdateFn.Symbol.Name, suffix, e.blockSeq)
}

// Lower runs Pass 3 over prog, using layout and state (Pass 1's and
// Pass 2's outputs) to resolve types and persistent slots. base is the
// read-only primitive environment the frontend resolved names against
// (arithmetic primitives collapse into intrinsicTable entries; the
// "Runtime" ones — a value like mouseX, a function like printInt —
// resolve to a dynamically-declared runtime global/extern instead of a
// def or constructor); base may be nil for a program with no primitive
// references.
func Lower(prog *coreast.Program, layout *datalayout.Layout, state *statediscovery.Result, base *coreast.NecroBase, machProg *mach.Program) *Result {
	r := &Result{}

	// Phase A: stub every update_fn's signature, so a forward reference
	// from one binding's body to a sibling bound later in source still
	// resolves to a concrete callee symbol.
	for _, name := range state.Order {
		newUpdateFnStub(machProg, state.Defs[name])
	}

	// Phase B: build every body now that every signature exists.
	for _, bind := range prog.Binds {
		def := state.Defs[bind.Name]
		buildUpdateFn(machProg, layout, state.Defs, base, bind, def, &r.Diagnostics)
	}

	return r
}

// newUpdateFnStub registers def's update function signature:
// (state_ptr?, arg0, ..., argK) -> value_type. Naming parallels
// pkg/statediscovery's "_init"/"_mk" + statediscovery.DefBaseName
// convention.
func newUpdateFnStub(machProg *mach.Program, def *mach.MachDef) {
	name := "_update" + statediscovery.DefBaseName(def)
	sym := machProg.SymbolFor(name)

	var params []machtype.Type
	if def.HasState() {
		params = append(params, machtype.Ptr{Elem: machProg.SymbolFor(def.StateName).MachType})
	}
	if def.TakesArgs() {
		fn := def.FnType.(machtype.Fn)
		params = append(params, fn.Params...)
	}

	sym.MachType = machtype.Fn{Return: def.ValueType, Params: params}
	fnDef := mach.NewFnDef(sym, mach.FnLang, nil, nil)
	sym.Ast = fnDef
	def.UpdateFn = fnDef
}

// buildUpdateFn fills in def.UpdateFn's body by lowering bind.Body.
func buildUpdateFn(machProg *mach.Program, layout *datalayout.Layout, defs map[string]*mach.MachDef, base *coreast.NecroBase, bind coreast.Bind, def *mach.MachDef, diags *[]diag.Diagnostic) {
	fn := def.UpdateFn
	sig := fn.Symbol.MachType.(machtype.Fn)

	var namedParams []*mach.AstSymbol
	idx := 0
	var statePtrVal mach.Value
	if def.HasState() {
		s := machProg.SymbolFor(fn.Symbol.Name + ".state")
		s.MachType = sig.Params[idx]
		namedParams = append(namedParams, s)
		statePtrVal = mach.Param(fn.Symbol, idx, sig.Params[idx])
		idx++
	}

	locals := make(map[string]mach.Value, len(bind.Args))
	for _, argName := range bind.Args {
		s := machProg.SymbolFor(fn.Symbol.Name + "." + argName)
		s.MachType = sig.Params[idx]
		namedParams = append(namedParams, s)
		locals[argName] = mach.Param(fn.Symbol, idx, sig.Params[idx])
		idx++
	}
	fn.Params = namedParams

	entry := &mach.Block{Symbol: machProg.SymbolFor(fn.Symbol.Name + ".entry")}
	fn.Entry = entry
	machProg.AddFunction(fn)

	b := mach.NewBuilder(machProg, fn)
	b.BlockMoveTo(entry)

	e := &env{machProg: machProg, layout: layout, defs: defs, base: base, def: def, statePtr: statePtrVal, locals: locals, diags: diags}
	result := lowerExpr(bind.Body, e, b)

	if sig.Return == machtype.Void {
		b.BuildReturnVoid()
		return
	}
	b.BuildReturn(result)
}

func machTypeOf(t coreast.Type, e *env) machtype.Type {
	mt, d, ok := machtype.FromCoreType(t, e.machProg.WordSize, e.layout.DataTypeOf)
	if !ok {
		e.diag(d)
		return machtype.WordUInt(e.machProg.WordSize)
	}
	return machtype.MakePtrIfBoxed(mt)
}

// loadOrPtr reads through a gep'd pointer when its element type is
// unboxed (a scalar or a pointer value stored directly in a slot), or
// hands the pointer itself back when the element is an aggregate
// (deep-copying a referenced aggregate out of persistent state is
// deferred — see DESIGN.md Open Question #1).
func loadOrPtr(b *mach.Builder, ptr mach.Value) mach.Value {
	elem := ptr.Typ.(machtype.Ptr).Elem
	if machtype.IsUnboxed(elem) {
		return b.BuildLoad(ptr)
	}
	return ptr
}

func lowerExpr(e coreast.Expr, env *env, b *mach.Builder) mach.Value {
	switch v := e.(type) {
	case coreast.Lit:
		return lowerLit(v, env)
	case coreast.Var:
		return lowerVar(v, env, b)
	case coreast.App:
		return lowerApp(v, env, b)
	case coreast.Let:
		val := lowerExpr(v.Bind, env, b)
		env.locals[v.Name] = val
		return lowerExpr(v.Body, env, b)
	case coreast.Lambda:
		// By the time Core reaches Pass 3 every Lambda still present in a
		// body closes over state that became a persistent slot; its
		// params were already bound as arguments when this update_fn's
		// signature was built, so only its body needs lowering.
		return lowerExpr(v.Body, env, b)
	case coreast.Case:
		return lowerCase(v, env, b)
	case coreast.For:
		env.diag(diag.Unimplemented("bodygen", "for-loops are not yet implemented (binding %q)", env.def.MachineName))
		return mach.Undefined(machTypeOf(v.Typ, env))
	default:
		env.diag(diag.Upstream("bodygen", "unrecognized core expression reached Pass 3"))
		return mach.Undefined(machtype.WordUInt(env.machProg.WordSize))
	}
}

func lowerLit(l coreast.Lit, env *env) mach.Value {
	typ := machTypeOf(l.Typ, env)
	scalar, ok := typ.(machtype.Scalar)
	if !ok {
		env.diag(diag.Upstream("bodygen", "literal has non-scalar type %s", typ))
		scalar = machtype.WordUInt(env.machProg.WordSize)
	}
	switch l.Kind {
	case coreast.LitInt:
		if scalar.IsUInt() {
			return mach.LitUInt(uint64(l.Int), scalar)
		}
		return mach.LitInt(l.Int, scalar)
	case coreast.LitFloat:
		return mach.LitFloat(l.Flt, scalar)
	case coreast.LitChar:
		return mach.LitInt(int64(l.Chr), scalar)
	default:
		env.diag(diag.Upstream("bodygen", "unrecognized literal kind"))
		return mach.Undefined(scalar)
	}
}

// lowerVar dispatches a bare (non-applied) variable reference per the
// rules a constructor/top-level reference can take: a local/argument
// needs no lookup; an enum constructor is its con_num as a literal; a
// nullary, non-enum constructor is constructed via its mk into the
// slot Pass 2 reserved for it; a reference to another top-level def
// reads its cached value slot (or, failing that, its plain global).
func lowerVar(v coreast.Var, env *env, b *mach.Builder) mach.Value {
	if val, ok := env.locals[v.Name]; ok {
		return val
	}
	if con, ok := env.layout.Constructors[v.Name]; ok {
		if con.IsEnum {
			return mach.LitUInt(uint64(con.ConNum), machtype.WordUInt(env.machProg.WordSize))
		}
		return buildNullaryCon(con, env, b)
	}
	if callee, ok := env.defs[v.Name]; ok && callee != env.def {
		if idx, ok := env.def.SlotForDef(callee, mach.SlotValue); ok {
			slotPtr := b.BuildGep(env.statePtr, []int64{0, int64(idx)})
			return loadOrPtr(b, slotPtr)
		}
		if callee.GlobalValue != nil {
			return b.BuildLoad(mach.Global(callee.GlobalValue))
		}
		env.diag(diag.Upstream("bodygen", "reference to %q has neither a cached slot nor a global", v.Name))
		return mach.Undefined(callee.ValueType)
	}
	if env.base != nil {
		if prim, ok := env.base.Lookup(v.Name); ok {
			if _, isFn := prim.Typ.(coreast.TyFun); !isFn {
				return lowerRuntimeValue(prim, env, b)
			}
		}
	}
	env.diag(diag.Upstream("bodygen", "unresolved variable %q in %q", v.Name, env.def.MachineName))
	return mach.Undefined(machTypeOf(v.Typ, env))
}

// lowerRuntimeValue reads a NecroBase runtime value primitive (e.g.
// mouseX) from its externally-provided global, declared lazily and
// shared across every reference via machProg.SymbolFor's uniquing.
func lowerRuntimeValue(prim coreast.Primitive, env *env, b *mach.Builder) mach.Value {
	sym := env.machProg.SymbolFor("_necro_" + prim.Name)
	if sym.MachType == nil {
		sym.MachType = machTypeOf(prim.Typ, env)
		sym.IsPrimitive = true
		env.machProg.AddGlobal(sym)
	}
	return b.BuildLoad(mach.Global(sym))
}

// buildNullaryCon constructs a constructor instance with no arguments in
// place, gep'ing into the SlotCon member Pass 2 reserved for it.
func buildNullaryCon(con *datalayout.ConInfo, env *env, b *mach.Builder) mach.Value {
	idx, ok := env.def.SlotForCon(con.Symbol)
	if !ok {
		env.diag(diag.Upstream("bodygen", "constructor %q has no reserved slot in %q", con.Symbol.Name, env.def.MachineName))
		return mach.Undefined(machtype.Ptr{Elem: con.VariantStruct})
	}
	slotPtr := b.BuildGep(env.statePtr, []int64{0, int64(idx)})
	dest := coerceToMkParent(b, slotPtr, con)
	return b.BuildCall(con.MkFn.Symbol, []mach.Value{dest}, mach.CallLang)
}

// coerceToMkParent bit-casts a slot pointer (typed to the constructor's
// own concrete variant layout, since that's what's embedded in the
// owning state struct) to the parent-typed pointer con.MkFn actually
// expects as its destination argument — the same parent/child distinction
// pkg/datalayout.buildMkCon itself casts across internally for a sum
// type's variants.
func coerceToMkParent(b *mach.Builder, slotPtr mach.Value, con *datalayout.ConInfo) mach.Value {
	wantType := con.MkFn.Symbol.MachType.(machtype.Fn).Params[0]
	if machtype.Equal(slotPtr.Typ, wantType) {
		return slotPtr
	}
	return b.BuildBitCast(slotPtr, wantType)
}

// lowerApp lowers a fully applied call. Arguments are evaluated
// right-to-left (peeled from the tail), then the callee head decides
// the dispatch: a primitive operator or runtime intrinsic, a
// constructor, or another top-level def (prepending its own state_ptr,
// gep'd from this def's SlotState member, when the callee is stateful).
func lowerApp(app coreast.App, env *env, b *mach.Builder) mach.Value {
	argVals := make([]mach.Value, len(app.Args))
	for i := len(app.Args) - 1; i >= 0; i-- {
		argVals[i] = lowerExpr(app.Args[i], env, b)
	}

	fnVar, ok := app.Fn.(coreast.Var)
	if !ok {
		env.diag(diag.Unimplemented("bodygen", "only a named function or constructor may be applied; %q is not in %q", describeExpr(app.Fn), env.def.MachineName))
		return mach.Undefined(machTypeOf(app.Typ, env))
	}

	if _, isLocal := env.locals[fnVar.Name]; isLocal {
		env.diag(diag.Unimplemented("bodygen", "calling a bound argument %q as a function is not supported in %q", fnVar.Name, env.def.MachineName))
		return mach.Undefined(machTypeOf(app.Typ, env))
	}

	if entry, ok := intrinsicTable[fnVar.Name]; ok {
		return lowerIntrinsic(entry, argVals, app, env, b)
	}
	if mach.IsIntrinsic(fnVar.Name) {
		return b.BuildCallIntrinsic(fnVar.Name, argVals, machTypeOf(app.Typ, env))
	}
	if con, ok := env.layout.Constructors[fnVar.Name]; ok {
		return lowerConApp(con, argVals, env, b)
	}
	if callee, ok := env.defs[fnVar.Name]; ok {
		return lowerDefApp(callee, argVals, env, b)
	}
	if env.base != nil {
		if prim, ok := env.base.Lookup(fnVar.Name); ok {
			if _, isFn := prim.Typ.(coreast.TyFun); isFn && prim.Runtime {
				return lowerRuntimeCall(prim, argVals, env, b)
			}
		}
	}
	env.diag(diag.Upstream("bodygen", "unresolved application head %q in %q", fnVar.Name, env.def.MachineName))
	return mach.Undefined(machTypeOf(app.Typ, env))
}

// lowerRuntimeCall calls a NecroBase runtime function primitive (e.g.
// printInt) as an external C-convention function, declared lazily and
// shared across every call site via machProg.SymbolFor's uniquing —
// mirrors pkg/mach/runtime.go's fnSym pattern, but the symbol is never
// added to machProg.Functions since this compilation has no body for it.
func lowerRuntimeCall(prim coreast.Primitive, argVals []mach.Value, env *env, b *mach.Builder) mach.Value {
	sym := env.machProg.SymbolFor("_necro_" + prim.Name)
	if sym.MachType == nil {
		mt := machTypeOf(prim.Typ, env)
		if p, ok := mt.(machtype.Ptr); ok {
			if fn, ok := p.Elem.(machtype.Fn); ok {
				// Called directly, not through a boxed function value.
				mt = fn
			}
		}
		sym.MachType = mt
		sym.IsPrimitive = true
		sym.Ast = mach.NewFnDef(sym, mach.FnRuntimeC, nil, nil)
	}
	return b.BuildCall(sym, argVals, mach.CallC)
}

func describeExpr(e coreast.Expr) string {
	switch e.(type) {
	case coreast.App:
		return "a computed application"
	case coreast.Lambda:
		return "an inline lambda"
	case coreast.Case:
		return "a case expression"
	default:
		return "a non-variable expression"
	}
}

func lowerIntrinsic(entry intrinsicEntry, argVals []mach.Value, app coreast.App, env *env, b *mach.Builder) mach.Value {
	switch entry.kind {
	case intrinsicBinOp:
		if len(argVals) != 2 {
			env.diag(diag.Upstream("bodygen", "binary operator applied to %d arguments", len(argVals)))
			return mach.Undefined(machTypeOf(app.Typ, env))
		}
		return b.BuildBinOp(entry.bin(argVals[0].Typ), argVals[0], argVals[1])
	case intrinsicCmp:
		if len(argVals) != 2 {
			env.diag(diag.Upstream("bodygen", "comparison operator applied to %d arguments", len(argVals)))
			return mach.Undefined(machtype.U1)
		}
		return b.BuildCmp(entry.cmp, argVals[0], argVals[1])
	case intrinsicUOp:
		if len(argVals) != 1 {
			env.diag(diag.Upstream("bodygen", "unary operator applied to %d arguments", len(argVals)))
			return mach.Undefined(machTypeOf(app.Typ, env))
		}
		return b.BuildUOp(entry.uop(argVals[0].Typ), argVals[0], argVals[0].Typ)
	case intrinsicRuntimeCall:
		sym := entry.runtime(env.machProg.Runtime)
		return b.BuildCall(sym, argVals, mach.CallC)
	default:
		env.diag(diag.Upstream("bodygen", "unrecognized intrinsic dispatch kind"))
		return mach.Undefined(machTypeOf(app.Typ, env))
	}
}

// lowerConApp constructs a constructor instance with its field
// arguments, in place, gep'ing into the SlotCon member Pass 2 reserved
// for this application.
func lowerConApp(con *datalayout.ConInfo, argVals []mach.Value, env *env, b *mach.Builder) mach.Value {
	if con.IsEnum {
		return mach.LitUInt(uint64(con.ConNum), machtype.WordUInt(env.machProg.WordSize))
	}
	idx, ok := env.def.SlotForCon(con.Symbol)
	if !ok {
		env.diag(diag.Upstream("bodygen", "constructor %q has no reserved slot in %q", con.Symbol.Name, env.def.MachineName))
		return mach.Undefined(machtype.Ptr{Elem: con.VariantStruct})
	}
	slotPtr := b.BuildGep(env.statePtr, []int64{0, int64(idx)})
	dest := coerceToMkParent(b, slotPtr, con)
	args := append([]mach.Value{dest}, argVals...)
	return b.BuildCall(con.MkFn.Symbol, args, mach.CallLang)
}

// lowerDefApp calls another top-level def. When callee carries its own
// state, this def's SlotState member for it (allocated by Pass 2,
// embedded inline in this def's own state struct) is gep'd and passed
// straight through as the callee's state_ptr argument.
func lowerDefApp(callee *mach.MachDef, argVals []mach.Value, env *env, b *mach.Builder) mach.Value {
	args := make([]mach.Value, 0, len(argVals)+1)
	if callee.HasState() {
		idx, ok := env.def.SlotForDef(callee, mach.SlotState)
		if !ok {
			env.diag(diag.Upstream("bodygen", "stateful callee %q has no reserved state slot in %q", callee.MachineName, env.def.MachineName))
			return mach.Undefined(callee.ValueType)
		}
		args = append(args, b.BuildGep(env.statePtr, []int64{0, int64(idx)}))
	}
	args = append(args, argVals...)
	return b.BuildCall(callee.UpdateFn.Symbol, args, mach.CallLang)
}
