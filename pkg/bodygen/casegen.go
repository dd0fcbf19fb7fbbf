package bodygen

import (
	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/datalayout"
	"github.com/necrolang/necro-mach/pkg/diag"
	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machtype"
)

// lowerCase lowers a pattern match: evaluate the scrutinee, switch on
// its integer value (the scrutinee itself for an enum, its loaded tag
// for a sum), bind each arm's sub-pattern variables by gep into the
// matching variant, and join every arm's result through a phi. A
// wildcard/variable pattern becomes the switch's else_block; an
// exhaustive match with no wildcard leaves else_block unreachable.
func lowerCase(c coreast.Case, env *env, b *mach.Builder) mach.Value {
	scrutVal := lowerExpr(c.Scrutinee, env, b)
	resultType := machTypeOf(c.Typ, env)

	var conAlts []coreast.Alt
	var wildcard *coreast.Alt
	for i := range c.Alts {
		if c.Alts[i].ConName == "" {
			w := c.Alts[i]
			wildcard = &w
			continue
		}
		conAlts = append(conAlts, c.Alts[i])
	}

	if len(conAlts) == 0 {
		// A bare variable/wildcard pattern with nothing to switch on:
		// just bind the whole scrutinee and lower straight through.
		if wildcard == nil {
			env.diag(diag.Upstream("bodygen", "case expression in %q has no patterns at all", env.def.MachineName))
			return mach.Undefined(resultType)
		}
		armLocals := env.cloneLocals()
		if wildcard.VarBind != "" {
			armLocals[wildcard.VarBind] = scrutVal
		}
		armEnv := *env
		armEnv.locals = armLocals
		result := lowerExpr(wildcard.Body, &armEnv, b)
		env.blockSeq = armEnv.blockSeq
		return result
	}

	isEnum, _ := firstConstructorAlt(conAlts, env)
	var scrutineeInt mach.Value
	if isEnum {
		scrutineeInt = scrutVal
	} else {
		tagPtr := b.BuildGep(scrutVal, []int64{0, 0})
		scrutineeInt = b.BuildLoad(tagPtr)
	}

	armBlocks := make([]*mach.Block, len(conAlts))
	for i, alt := range conAlts {
		armBlocks[i] = b.BlockAppend(env.freshBlockName("case_" + alt.ConName + "_"))
	}
	elseBlock := b.BlockAppend(env.freshBlockName("case_else_"))
	joinBlock := b.BlockAppend(env.freshBlockName("case_join_"))

	cases := make([]mach.SwitchCase, len(conAlts))
	for i, alt := range conAlts {
		con := env.layout.Constructors[alt.ConName]
		cases[i] = mach.SwitchCase{Val: int64(con.ConNum), Target: armBlocks[i]}
	}
	b.BuildSwitch(scrutineeInt, cases, elseBlock)

	var incoming []mach.PhiIncoming
	for i, alt := range conAlts {
		b.BlockMoveTo(armBlocks[i])
		armLocals := env.cloneLocals()
		con := env.layout.Constructors[alt.ConName]
		if !con.IsEnum {
			variantPtr := b.BuildBitCast(scrutVal, machtype.Ptr{Elem: con.VariantStruct})
			bindConFields(variantPtr, alt.Binders, con.VariantStruct, armLocals, b)
		}
		armEnv := *env
		armEnv.locals = armLocals
		result := lowerExpr(alt.Body, &armEnv, b)
		env.blockSeq = armEnv.blockSeq
		b.BuildBreak(joinBlock)
		incoming = append(incoming, mach.PhiIncoming{Block: armBlocks[i], Val: result})
	}

	b.BlockMoveTo(elseBlock)
	if wildcard != nil {
		armLocals := env.cloneLocals()
		if wildcard.VarBind != "" {
			armLocals[wildcard.VarBind] = scrutVal
		}
		armEnv := *env
		armEnv.locals = armLocals
		result := lowerExpr(wildcard.Body, &armEnv, b)
		env.blockSeq = armEnv.blockSeq
		b.BuildBreak(joinBlock)
		incoming = append(incoming, mach.PhiIncoming{Block: elseBlock, Val: result})
	} else {
		b.BuildUnreachable()
	}

	b.BlockMoveTo(joinBlock)
	if len(incoming) == 0 {
		return mach.Undefined(resultType)
	}
	return b.BuildPhi(resultType, incoming)
}

// bindConFields gep's each positionally-bound sub-pattern variable out
// of the variant's fields (offset by 1 past the tag), reading the value
// through when it's unboxed and handing back a raw pointer for an
// aggregate field.
func bindConFields(variantPtr mach.Value, binders []string, variant machtype.Struct, locals map[string]mach.Value, b *mach.Builder) {
	for i, name := range binders {
		if name == "" {
			continue
		}
		fieldPtr := b.BuildGep(variantPtr, []int64{0, int64(i + 1)})
		locals[name] = loadOrPtr(b, fieldPtr)
	}
}

// firstConstructorAlt reports whether the case dispatches on an enum
// (a word-sized integer value directly) or a sum (a struct whose tag
// must be loaded), reading the answer off conAlts' first entry — every
// non-wildcard alt in a well-formed case shares one data declaration,
// so any one of them settles it. Precondition: conAlts is non-empty.
func firstConstructorAlt(conAlts []coreast.Alt, env *env) (bool, *datalayout.ConInfo) {
	con, ok := env.layout.Constructors[conAlts[0].ConName]
	if !ok {
		env.diag(diag.Upstream("bodygen", "case pattern references unknown constructor %q", conAlts[0].ConName))
		return false, nil
	}
	return con.IsEnum, con
}
