package statediscovery

import (
	"testing"

	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/datalayout"
	"github.com/necrolang/necro-mach/pkg/mach"
)

func TestConstantBindingClassifiesConstant(t *testing.T) {
	prog := &coreast.Program{
		Binds: []coreast.Bind{
			{Name: "answer", Body: coreast.Lit{Kind: coreast.LitInt, Int: 42, Typ: coreast.TyCon{Name: "Int"}}, Typ: coreast.TyCon{Name: "Int"}},
		},
	}
	machProg := mach.NewProgram(8)
	layout := datalayout.Lower(prog, machProg)
	res := Discover(prog, layout, machProg)

	def := res.Defs["answer"]
	if def.StateType != mach.Constant {
		t.Errorf("answer should classify Constant, got %v", def.StateType)
	}
	if def.MkFn != nil || def.InitFn != nil {
		t.Errorf("a Constant def should have no mk_fn/init_fn")
	}
	if def.GlobalValue == nil {
		t.Errorf("an arg-less def should register a global value symbol")
	}
}

func TestArgTakingBindingClassifiesPointwise(t *testing.T) {
	prog := &coreast.Program{
		Binds: []coreast.Bind{
			{Name: "addOne", Args: []string{"x"}, Body: coreast.Var{Name: "x", Typ: coreast.TyCon{Name: "Int"}},
				Typ: coreast.TyFun{Params: []coreast.Type{coreast.TyCon{Name: "Int"}}, Result: coreast.TyCon{Name: "Int"}}},
		},
	}
	machProg := mach.NewProgram(8)
	layout := datalayout.Lower(prog, machProg)
	res := Discover(prog, layout, machProg)

	def := res.Defs["addOne"]
	if def.StateType != mach.Pointwise {
		t.Errorf("addOne should classify Pointwise, got %v", def.StateType)
	}
	if !def.TakesArgs() {
		t.Errorf("addOne should take args")
	}
}

func TestReferencingAnotherBindingAllocatesSlot(t *testing.T) {
	prog := &coreast.Program{
		Binds: []coreast.Bind{
			{Name: "base", Body: coreast.Lit{Kind: coreast.LitInt, Int: 1, Typ: coreast.TyCon{Name: "Int"}}, Typ: coreast.TyCon{Name: "Int"}},
			{Name: "derived", Body: coreast.Var{Name: "base", Typ: coreast.TyCon{Name: "Int"}}, Typ: coreast.TyCon{Name: "Int"}},
		},
	}
	machProg := mach.NewProgram(8)
	layout := datalayout.Lower(prog, machProg)
	res := Discover(prog, layout, machProg)

	derived := res.Defs["derived"]
	base := res.Defs["base"]
	if derived.StateType != mach.Stateful {
		t.Fatalf("derived should classify Stateful since it references another binding, got %v", derived.StateType)
	}
	idx, ok := derived.SlotForDef(base, mach.SlotValue)
	if !ok || idx != 0 {
		t.Fatalf("derived should have a SlotValue member for base at index 0, got idx=%d ok=%v", idx, ok)
	}
	if derived.MkFn == nil || derived.InitFn == nil {
		t.Fatalf("a Stateful def should have non-nil mk_fn/init_fn")
	}
	if !derived.MkFn.Entry.HasTerminator() || !derived.InitFn.Entry.HasTerminator() {
		t.Errorf("mk_fn/init_fn entry blocks should be terminated")
	}
}

func TestApplyingAnotherBindingAllocatesStateSlot(t *testing.T) {
	prog := &coreast.Program{
		Binds: []coreast.Bind{
			{Name: "counter", Args: []string{"n"}, Body: coreast.Var{Name: "n", Typ: coreast.TyCon{Name: "Int"}},
				Typ: coreast.TyFun{Params: []coreast.Type{coreast.TyCon{Name: "Int"}}, Result: coreast.TyCon{Name: "Int"}}},
			{Name: "caller", Body: coreast.App{
				Fn:   coreast.Var{Name: "counter"},
				Args: []coreast.Expr{coreast.Lit{Kind: coreast.LitInt, Int: 1, Typ: coreast.TyCon{Name: "Int"}}},
				Typ:  coreast.TyCon{Name: "Int"},
			}, Typ: coreast.TyCon{Name: "Int"}},
		},
	}
	machProg := mach.NewProgram(8)
	layout := datalayout.Lower(prog, machProg)
	res := Discover(prog, layout, machProg)

	caller := res.Defs["caller"]
	counter := res.Defs["counter"]
	// counter itself takes an arg and is pointwise (no own state), but
	// applying it from caller still reserves a state slot since any
	// callee might itself carry state.
	idx, ok := caller.SlotForDef(counter, mach.SlotState)
	if !ok || idx != 0 {
		t.Fatalf("caller should have a SlotState member for counter at index 0, got idx=%d ok=%v", idx, ok)
	}
}

func TestSelfOnlySlotIsRemovedForArglessDef(t *testing.T) {
	prog := &coreast.Program{
		Binds: []coreast.Bind{
			{Name: "loopy", Body: coreast.Var{Name: "loopy", Typ: coreast.TyCon{Name: "Int"}}, Typ: coreast.TyCon{Name: "Int"}},
		},
	}
	machProg := mach.NewProgram(8)
	layout := datalayout.Lower(prog, machProg)
	res := Discover(prog, layout, machProg)

	loopy := res.Defs["loopy"]
	if len(loopy.Members) != 0 {
		t.Errorf("a self-only reference on an arg-less def should be stripped, got %d members", len(loopy.Members))
	}
	if loopy.StateType != mach.Constant {
		t.Errorf("loopy should classify Constant after its self-slot is removed, got %v", loopy.StateType)
	}
}

func TestForLoopRecordsUnimplementedDiagnostic(t *testing.T) {
	prog := &coreast.Program{
		Binds: []coreast.Bind{
			{Name: "withLoop", Body: coreast.For{
				Var:   "i",
				Range: coreast.Lit{Kind: coreast.LitInt, Int: 10, Typ: coreast.TyCon{Name: "Int"}},
				Body:  coreast.Var{Name: "i", Typ: coreast.TyCon{Name: "Int"}},
				Typ:   coreast.TyCon{Name: "Int"},
			}, Typ: coreast.TyCon{Name: "Int"}},
		},
	}
	machProg := mach.NewProgram(8)
	layout := datalayout.Lower(prog, machProg)
	res := Discover(prog, layout, machProg)

	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected 1 unimplemented diagnostic for the for-loop, got %d", len(res.Diagnostics))
	}
}

func TestConstructorReferenceAllocatesConSlot(t *testing.T) {
	prog := &coreast.Program{
		Datas: []coreast.DataDecl{
			{Name: "Maybe", Cons: []coreast.DataCon{
				{Name: "Nothing"},
				{Name: "Just", Fields: []coreast.Type{coreast.TyCon{Name: "Int"}}},
			}},
		},
		Binds: []coreast.Bind{
			{Name: "box", Body: coreast.App{
				Fn:   coreast.Var{Name: "Just"},
				Args: []coreast.Expr{coreast.Lit{Kind: coreast.LitInt, Int: 1, Typ: coreast.TyCon{Name: "Int"}}},
				Typ:  coreast.TyCon{Name: "Maybe"},
			}, Typ: coreast.TyCon{Name: "Maybe"}},
		},
	}
	machProg := mach.NewProgram(8)
	layout := datalayout.Lower(prog, machProg)
	res := Discover(prog, layout, machProg)

	box := res.Defs["box"]
	justCon := layout.Constructors["Just"]
	idx, ok := box.SlotForCon(justCon.Symbol)
	if !ok || idx != 0 {
		t.Fatalf("box should have a SlotCon member for Just at index 0, got idx=%d ok=%v", idx, ok)
	}
}
