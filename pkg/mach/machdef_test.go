package mach

import (
	"testing"

	"github.com/necrolang/necro-mach/pkg/machtype"
)

func TestClassifyConstant(t *testing.T) {
	d := &MachDef{}
	d.Classify()
	if d.StateType != Constant {
		t.Errorf("arg-less, state-less def should classify Constant, got %v", d.StateType)
	}
}

func TestClassifyPointwise(t *testing.T) {
	d := &MachDef{ArgNames: []string{"i"}}
	d.Classify()
	if d.StateType != Pointwise {
		t.Errorf("arg-taking, state-less def should classify Pointwise, got %v", d.StateType)
	}
}

func TestClassifyStateful(t *testing.T) {
	d := &MachDef{}
	d.AddSlot(machtype.I64, SlotState, nil, nil)
	d.Classify()
	if d.StateType != Stateful {
		t.Errorf("arg-less def with members should classify Stateful, got %v", d.StateType)
	}
}

func TestAddSlotAssignsSequentialIndices(t *testing.T) {
	d := &MachDef{}
	i0 := d.AddSlot(machtype.I64, SlotState, nil, nil)
	i1 := d.AddSlot(machtype.F64, SlotState, nil, nil)
	if i0 != 0 || i1 != 1 {
		t.Fatalf("slot indices = %d, %d, want 0, 1", i0, i1)
	}
	if len(d.Members) != 2 {
		t.Fatalf("len(Members) = %d, want 2", len(d.Members))
	}
}

func TestRemoveSelfOnlySlot(t *testing.T) {
	d := &MachDef{}
	d.Members = []Slot{{Index: 0, Typ: machtype.I64, OwnerDef: d}}
	d.RemoveSelfOnlySlot()
	if len(d.Members) != 0 {
		t.Errorf("self-only slot on an arg-less def should be removed, len(Members) = %d", len(d.Members))
	}
}

func TestRemoveSelfOnlySlotKeepsArgTaking(t *testing.T) {
	d := &MachDef{ArgNames: []string{"i"}}
	d.Members = []Slot{{Index: 0, Typ: machtype.I64, OwnerDef: d}}
	d.RemoveSelfOnlySlot()
	if len(d.Members) != 1 {
		t.Errorf("arg-taking defs should keep their single self-reference member")
	}
}

func TestSlotForDefDistinguishesKind(t *testing.T) {
	callee := &MachDef{}
	d := &MachDef{}
	d.AddSlot(machtype.I64, SlotValue, callee, nil)
	if _, ok := d.SlotForDef(callee, SlotState); ok {
		t.Fatal("a value-kind slot should not satisfy a state-kind lookup")
	}
	idx, ok := d.SlotForDef(callee, SlotValue)
	if !ok || idx != 0 {
		t.Fatalf("expected to find the value-kind slot at index 0, got idx=%d ok=%v", idx, ok)
	}
}

func TestSlotForCon(t *testing.T) {
	con := &AstSymbol{Name: "Just"}
	d := &MachDef{}
	d.AddSlot(machtype.I64, SlotCon, nil, con)
	idx, ok := d.SlotForCon(con)
	if !ok || idx != 0 {
		t.Fatalf("expected to find the constructor slot at index 0, got idx=%d ok=%v", idx, ok)
	}
}

func TestMkInitFnNonNilIffMembersNonEmpty(t *testing.T) {
	// invariant 3: a MachDef has a non-null mk_fn and init_fn iff
	// members is non-empty. We assert the converse direction that
	// pkg/statediscovery is responsible for establishing: an empty def
	// must leave both nil.
	d := &MachDef{}
	if d.MkFn != nil || d.InitFn != nil {
		t.Fatalf("fresh MachDef with no members should have nil mk_fn/init_fn")
	}
}
