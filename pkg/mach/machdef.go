package mach

import "github.com/necrolang/necro-mach/pkg/machtype"

// SlotKind distinguishes what a persistent slot actually holds, since
// the same OwnerDef can be referenced two different ways within one
// body (as a cached value, or as the target of an application).
type SlotKind int

const (
	// SlotValue caches a referenced def's last value (a plain Var
	// reference, never applied).
	SlotValue SlotKind = iota
	// SlotState holds a referenced def's own state struct (the def is
	// applied from within this body, so it needs a live, per-owner
	// instance of its callee's state to thread through the call).
	SlotState
	// SlotCon holds one constructor's concrete variant struct (the
	// constructor is applied, or referenced bare as a nullary value).
	SlotCon
)

// Slot is one persistent member of a MachDef's state struct: an ordered
// slot with a type and a back-pointer to whichever sub-def or
// constructor owns it.
type Slot struct {
	Index int
	Typ   machtype.Type
	Kind  SlotKind
	// OwnerDef is set when the slot holds another MachDef's value or
	// state (distinguished by Kind).
	OwnerDef *MachDef
	// OwnerCon is set instead when the slot holds a constructor's
	// concrete variant struct.
	OwnerCon *AstSymbol
}

// MachDef is the heart of the design: a source-level binding turned into
// a stateful object, declaring a persistent state record and mk/init/
// update functions.
type MachDef struct {
	MachineName string // e.g. "_FooMachine"
	StateName   string

	// ValueType is the type the binding evaluates to each tick
	// (pointer-wrapped if boxed).
	ValueType machtype.Type
	// FnType is set iff the binding takes arguments.
	FnType machtype.Type
	ArgNames []string

	// Members is the ordered list of persistent slots, assigned in
	// source-traversal order.
	Members []Slot

	// MkFn/InitFn are non-nil iff Members is non-empty (invariant 3).
	MkFn     *FnDef
	InitFn   *FnDef
	UpdateFn *FnDef

	// GlobalValue/GlobalState hold the per-tick output and the live
	// state for top-level defs. GlobalValue is only populated for
	// arg-less defs, which Main Synthesis drives directly. GlobalState
	// is populated for arg-less defs that carry state, plus main itself, which
	// always takes its World argument but still gets a GlobalState
	// whenever it closes over a Stateful def, since main is the one
	// arg-taking def Main Synthesis also calls directly every tick.
	GlobalValue *AstSymbol
	GlobalState *AstSymbol

	StateType StateType

	IsPersistentSlotSet bool
	// Outer is the enclosing def for a nested binding (a let-bound
	// sub-def that itself allocates persistent state).
	Outer *MachDef

	// StateStructSymbol names the struct type backing this def's
	// persistent state record. State Discovery allocates it for every
	// def; a struct is registered under it only when Members is non-empty.
	StateStructSymbol *machtype.StructSymbol
}

func (MachDef) implAst() {}

// Type returns the def's function type if it takes arguments, else its
// value type.
func (m MachDef) Type() machtype.Type {
	if m.FnType != nil {
		return m.FnType
	}
	return m.ValueType
}

// HasState reports whether this def carries persistent state.
func (m *MachDef) HasState() bool {
	return len(m.Members) > 0
}

// TakesArgs reports whether this def is a function (non-nil FnType).
func (m *MachDef) TakesArgs() bool {
	return m.FnType != nil
}

// AddSlot appends a new persistent slot and returns its index. This is
// State Discovery's single slot-allocation primitive: every rule that
// appends a persistent slot goes through here, which keeps the
// "assigned in source-traversal order" / "recorded exactly once per
// AST node" invariants enforceable in one place.
func (m *MachDef) AddSlot(typ machtype.Type, kind SlotKind, ownerDef *MachDef, ownerCon *AstSymbol) int {
	idx := len(m.Members)
	m.Members = append(m.Members, Slot{Index: idx, Typ: typ, Kind: kind, OwnerDef: ownerDef, OwnerCon: ownerCon})
	return idx
}

// SlotForDef returns the index of the member slot already allocated for
// def under the given kind, if any. Pass 2 uses this to avoid allocating
// a second slot for a callee it has already referenced the same way;
// Pass 3 uses it to find the gep index for a state reference without
// re-deriving Pass 2's decisions.
func (m *MachDef) SlotForDef(def *MachDef, kind SlotKind) (int, bool) {
	for _, s := range m.Members {
		if s.OwnerDef == def && s.Kind == kind {
			return s.Index, true
		}
	}
	return 0, false
}

// SlotForCon returns the index of the member slot already allocated for
// an instance of constructor con, if any.
func (m *MachDef) SlotForCon(con *AstSymbol) (int, bool) {
	for _, s := range m.Members {
		if s.OwnerCon == con {
			return s.Index, true
		}
	}
	return 0, false
}

// RemoveSelfOnlySlot drops a degenerate self-referential member: an
// arg-less def whose single member is its own type.
func (m *MachDef) RemoveSelfOnlySlot() {
	if len(m.ArgNames) != 0 || len(m.Members) != 1 {
		return
	}
	if m.Members[0].OwnerDef == m {
		m.Members = nil
	}
}

// Classify resolves the def's StateType from its members and arg list.
// Arg-taking always classifies Pointwise regardless of any members it
// declares (those are per-call local allocations, not state carried
// across ticks); only an arg-less def can be Stateful or Constant.
func (m *MachDef) Classify() {
	switch {
	case len(m.ArgNames) != 0:
		m.StateType = Pointwise
	case len(m.Members) > 0:
		m.StateType = Stateful
	default:
		m.StateType = Constant
	}
}
