package mach

import (
	"fmt"

	"github.com/necrolang/necro-mach/pkg/machtype"
)

// VerifyProgram checks the structural invariants every compiled Mach
// program must hold and returns every violation found (it does not stop
// at the first one, so a single bad pass doesn't hide a second).
func VerifyProgram(prog *Program) []error {
	var errs []error
	for _, fn := range prog.Functions {
		errs = append(errs, verifyFn(fn)...)
	}
	for _, def := range prog.MachineDefs {
		errs = append(errs, verifyMachDef(def)...)
		if def.MkFn != nil {
			errs = append(errs, verifyFn(def.MkFn)...)
		}
		if def.InitFn != nil {
			errs = append(errs, verifyFn(def.InitFn)...)
		}
		if def.UpdateFn != nil {
			errs = append(errs, verifyFn(def.UpdateFn)...)
		}
	}
	return errs
}

func verifyFn(fn *FnDef) []error {
	if fn == nil || fn.Entry == nil {
		return nil
	}
	var errs []error
	for _, blk := range fn.Blocks() {
		// invariant 1: every block has exactly one terminator.
		if blk.Term == nil {
			errs = append(errs, fmt.Errorf("function %q block %q has no terminator", fn.Symbol.Name, blk.Symbol.Name))
		}
		for i, stmt := range blk.Stmts {
			errs = append(errs, verifyStmt(fn, blk, i, stmt)...)
		}
	}
	return errs
}

func verifyStmt(fn *FnDef, blk *Block, idx int, stmt Ast) []error {
	var errs []error
	check := func(t1, t2 machtype.Type, msg string) {
		if !machtype.Equal(t1, t2) {
			errs = append(errs, fmt.Errorf("function %q block %q stmt %d: %s (%s vs %s)", fn.Symbol.Name, blk.Symbol.Name, idx, msg, t1, t2))
		}
	}
	switch s := stmt.(type) {
	case Store:
		if p, ok := s.Ptr.Typ.(machtype.Ptr); ok {
			check(p.Elem, s.Val.Typ, "store value type must equal destination's pointed-to type")
		} else {
			errs = append(errs, fmt.Errorf("function %q block %q stmt %d: store destination is not a pointer", fn.Symbol.Name, blk.Symbol.Name, idx))
		}
	case Call:
		if s.Fn == nil {
			break
		}
		sig, ok := s.Fn.MachType.(machtype.Fn)
		if !ok {
			errs = append(errs, fmt.Errorf("function %q block %q stmt %d: call target %q is not a function", fn.Symbol.Name, blk.Symbol.Name, idx, s.Fn.Name))
			break
		}
		if len(sig.Params) != len(s.Args) {
			errs = append(errs, fmt.Errorf("function %q block %q stmt %d: call to %q arity mismatch (%d args, %d params)", fn.Symbol.Name, blk.Symbol.Name, idx, s.Fn.Name, len(s.Args), len(sig.Params)))
			break
		}
		for i, a := range s.Args {
			check(sig.Params[i], a.Typ, fmt.Sprintf("call to %q argument %d type mismatch", s.Fn.Name, i))
		}
	case Gep:
		if len(s.Indices) == 0 || s.Indices[0] != 0 {
			errs = append(errs, fmt.Errorf("function %q block %q stmt %d: gep must lead with index 0", fn.Symbol.Name, blk.Symbol.Name, idx))
		}
	}
	// invariant: every value has a non-null type.
	if stmt.Type() == nil {
		errs = append(errs, fmt.Errorf("function %q block %q stmt %d: has a nil type", fn.Symbol.Name, blk.Symbol.Name, idx))
	}
	return errs
}

func verifyMachDef(def *MachDef) []error {
	var errs []error
	// invariant 3: mk_fn non-nil iff init_fn non-nil iff members non-empty.
	hasMembers := len(def.Members) > 0
	hasMk := def.MkFn != nil
	hasInit := def.InitFn != nil
	if hasMk != hasMembers || hasInit != hasMembers {
		errs = append(errs, fmt.Errorf("machine def %q: mk_fn(%v)/init_fn(%v) must both be non-nil iff members is non-empty (%v)", def.MachineName, hasMk, hasInit, hasMembers))
	}
	for i, m := range def.Members {
		if m.Index != i {
			errs = append(errs, fmt.Errorf("machine def %q: member %d has recorded index %d", def.MachineName, i, m.Index))
		}
	}
	return errs
}
