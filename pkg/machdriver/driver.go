// Package machdriver implements the final stage of the Mach lowering
// pipeline: running Pass 1 (pkg/datalayout), Pass 2 (pkg/statediscovery)
// and Pass 3 (pkg/bodygen) in sequence over one coreast.Program, then
// synthesizing the _necro_main scheduler that sequences every top-level
// def's mk/init/update calls.
//
// Grounded on cmd/ralph-cc/main.go's own driving style: each pass takes
// the previous pass's output and produces the next, chained with no
// branching — csharpminorProg := cshmgen.TranslateProgram(clightProg),
// rtlProg := rtlgen.TranslateProgram(cminorselProg), and so on.
package machdriver

import (
	"github.com/necrolang/necro-mach/pkg/arena"
	"github.com/necrolang/necro-mach/pkg/bodygen"
	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/datalayout"
	"github.com/necrolang/necro-mach/pkg/diag"
	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machtype"
	"github.com/necrolang/necro-mach/pkg/statediscovery"
)

// tickIntervalMS is the fixed per-tick sleep the loop block emits a call
// to _necro_sleep with: a flat 60Hz-ish cadence, matching the scheduling
// model's "flat, eager, statically-ordered dataflow tick" description —
// there is no per-def rate, so one constant covers every def alike.
const tickIntervalMS = 16

// Compile runs the whole Mach lowering pipeline over prog: Pass 1, Pass
// 2, Pass 3, then Main Synthesis. in is the symbol intern shared with
// whatever produced prog, so a name interned upstream and one interned
// here collide correctly instead of landing in two disjoint tables. base
// is the primitive environment prog's variable references may resolve
// against (see pkg/bodygen.Lower); it may be nil for a program with no
// primitive references.
//
// A builder-level contract violation anywhere in Pass 1-3 or Main
// Synthesis panics with a diag.Bug; that panic is recovered here and
// returned as err, so a caller never observes an unrecovered panic
// escaping this package.
func Compile(prog *coreast.Program, base *coreast.NecroBase, in *arena.Intern, wordSize int) (mp *mach.Program, diags []diag.Diagnostic, err error) {
	defer diag.Recover(&err)

	machProg := mach.NewProgramWithIntern(wordSize, in)

	layout := datalayout.Lower(prog, machProg)
	diags = append(diags, layout.Diagnostics...)
	state := statediscovery.Discover(prog, layout, machProg)
	diags = append(diags, state.Diagnostics...)

	bodyResult := bodygen.Lower(prog, layout, state, base, machProg)
	diags = append(diags, bodyResult.Diagnostics...)

	constructMain(machProg, prog, state)

	return machProg, diags, nil
}

// constructMain builds _necro_main with its two blocks: entry
// (one-time mk/init-driven setup, plus every Constant def's single
// evaluation) and loop (the recurring per-tick schedule). See spec
// §4.7: this is the only place in the pipeline that reads a def's
// StateType to decide whether and how to call it, rather than to shape
// its own body.
func constructMain(machProg *mach.Program, prog *coreast.Program, state *statediscovery.Result) {
	// mainDef is looked up once and reused below: it's the one
	// arg-taking def Main Synthesis ever calls directly, so every place
	// that otherwise only handles arg-less defs needs to special-case it.
	var mainDef *mach.MachDef
	if prog.MainName != "" {
		mainDef = state.Defs[prog.MainName]
	}

	sym := machProg.SymbolFor("_necro_main")
	sym.MachType = machtype.Fn{Return: machtype.Void}
	fn := mach.NewFnDef(sym, mach.FnLang, nil, nil)
	sym.Ast = fn

	entry := &mach.Block{Symbol: machProg.SymbolFor(sym.Name + ".entry")}
	fn.Entry = entry
	machProg.AddFunction(fn)
	machProg.NecroMain = fn

	b := mach.NewBuilder(machProg, fn)
	b.BlockMoveTo(entry)

	b.BuildCall(machProg.Runtime.InitRuntime, nil, mach.CallC)

	for _, name := range state.Order {
		def := state.Defs[name]
		if def.TakesArgs() || !def.HasState() {
			continue
		}
		statePtr := b.BuildCall(def.MkFn.Symbol, nil, mach.CallLang)
		b.BuildStore(statePtr, mach.Global(def.GlobalState))
	}

	if mainDef != nil && mainDef.HasState() {
		statePtr := b.BuildCall(mainDef.MkFn.Symbol, nil, mach.CallLang)
		b.BuildStore(statePtr, mach.Global(mainDef.GlobalState))
	}

	for _, name := range state.Order {
		def := state.Defs[name]
		if def.TakesArgs() || def.StateType != mach.Constant {
			continue
		}
		result := b.BuildCall(def.UpdateFn.Symbol, nil, mach.CallLang)
		b.BuildStore(result, mach.Global(def.GlobalValue))
	}

	loop := b.BlockAppend(sym.Name + ".loop")
	b.BuildBreak(loop)

	b.BlockMoveTo(loop)
	b.BuildCall(machProg.Runtime.UpdateRuntime, nil, mach.CallC)

	for _, name := range state.Order {
		def := state.Defs[name]
		if def.TakesArgs() {
			continue
		}
		if def.StateType != mach.Pointwise && def.StateType != mach.Stateful {
			continue
		}
		var args []mach.Value
		if def.HasState() {
			args = append(args, b.BuildLoad(mach.Global(def.GlobalState)))
		}
		result := b.BuildCall(def.UpdateFn.Symbol, args, mach.CallLang)
		b.BuildStore(result, mach.Global(def.GlobalValue))
	}

	if mainDef != nil && mainDef.UpdateFn != nil {
		sig := mainDef.UpdateFn.Symbol.MachType.(machtype.Fn)
		args := make([]mach.Value, len(sig.Params))
		idx := 0
		if mainDef.HasState() {
			// mainDef.UpdateFn's first param is always its state pointer
			// when it HasState() (see bodygen.newUpdateFnStub) — the live
			// state main closes over, loaded from the same GlobalState
			// the entry block just populated via mk_fn.
			args[idx] = b.BuildLoad(mach.Global(mainDef.GlobalState))
			idx++
		}
		for ; idx < len(sig.Params); idx++ {
			p := sig.Params[idx]
			// World compiles to Void (see machtype.FromCoreType): a
			// phantom IO token with no runtime representation, so
			// Void() is the unit-like value the spec calls for. Any
			// other param shape here isn't a shape the spec's scenarios
			// exercise, so it falls back to a placeholder.
			if p == machtype.Void {
				args[idx] = mach.Void()
			} else {
				args[idx] = mach.Undefined(p)
			}
		}
		b.BuildCall(mainDef.UpdateFn.Symbol, args, mach.CallLang)
	}

	b.BuildCall(machProg.Runtime.Sleep, []mach.Value{mach.LitUInt(tickIntervalMS, machtype.U32)}, mach.CallC)
	b.BuildBreak(loop)
}
