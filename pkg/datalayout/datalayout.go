// Package datalayout implements Pass 1 of the Mach lowering pipeline:
// it turns each algebraic data declaration into struct defs and
// constructor functions, closing the loop that lets Pass 2 and Pass 3
// resolve a data type's name to a concrete Mach type.
//
// This mirrors cshmgen.TranslateProgram's shape: build a lookup table
// (structDefs) ahead of time, then translate each top-level declaration
// against it.
package datalayout

import (
	"fmt"

	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/diag"
	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machtype"
)

// ConInfo records how one data constructor was lowered.
type ConInfo struct {
	Symbol *mach.AstSymbol
	ConNum int
	IsEnum bool
	// VariantStruct is this constructor's own struct layout
	// (tag + fields); unset for an enum constructor.
	VariantStruct machtype.Struct
	// MkFn builds one instance in place: it stores the tag, stores
	// each field, and returns the parent pointer. Nil for enum
	// constructors, which need no allocation.
	MkFn *mach.FnDef
}

// TypeInfo records how one data declaration was lowered.
type TypeInfo struct {
	Decl DataDeclHandle

	// MachType is what FromCoreType's dataTypeOf hook returns for this
	// declaration's name: a word-sized Scalar for an enum, a Struct
	// (the single product, or the sum's dummy parent) otherwise.
	MachType machtype.Type
	IsEnum   bool
	IsSum    bool
	Cons     []*ConInfo
}

// DataDeclHandle is the coreast.DataDecl this TypeInfo was built from,
// kept for diagnostics only.
type DataDeclHandle = coreast.DataDecl

// Layout is Pass 1's output: the lowered struct defs (already registered
// on the mach.Program) plus the lookup tables Pass 2 and Pass 3 need to
// resolve data type and constructor names.
type Layout struct {
	Types        map[string]*TypeInfo
	Constructors map[string]*ConInfo
	Diagnostics  []diag.Diagnostic
}

// DataTypeOf adapts Layout's type table to the dataTypeOf hook
// machtype.FromCoreType expects.
func (l *Layout) DataTypeOf(name string) (machtype.Type, bool) {
	info, ok := l.Types[name]
	if !ok {
		return nil, false
	}
	return info.MachType, true
}

// Lower runs Pass 1 over prog, registering struct defs and constructor
// functions on machProg and returning the resulting Layout.
func Lower(prog *coreast.Program, machProg *mach.Program) *Layout {
	l := &Layout{
		Types:        make(map[string]*TypeInfo),
		Constructors: make(map[string]*ConInfo),
	}
	word := machtype.WordUInt(machProg.WordSize)

	for _, d := range prog.Datas {
		if d.IsPolymorphic() {
			l.Diagnostics = append(l.Diagnostics, diag.Upstream("datalayout", "data declaration %q still mentions a type variable; dropping it from this compilation", d.Name))
			continue
		}
		maxArity := d.MaxArity()

		if maxArity == 0 {
			l.lowerEnum(d, word)
			continue
		}
		if len(d.Cons) == 1 {
			l.lowerProduct(machProg, d, word)
			continue
		}
		l.lowerSum(machProg, d, word)
	}
	return l
}

func (l *Layout) lowerEnum(d coreast.DataDecl, word machtype.Scalar) {
	info := &TypeInfo{Decl: d, MachType: word, IsEnum: true}
	for i, c := range d.Cons {
		sym := &mach.AstSymbol{
			Name:          c.Name,
			MachType:      word,
			IsEnum:        true,
			IsConstructor: true,
			ConNum:        i,
		}
		con := &ConInfo{Symbol: sym, ConNum: i, IsEnum: true}
		info.Cons = append(info.Cons, con)
		l.Constructors[c.Name] = con
	}
	l.Types[d.Name] = info
}

// fieldTypes resolves each constructor field's coreast.Type into a Mach
// type, pointer-wrapping boxed fields. Unresolvable fields (a forward
// reference to a data type not yet lowered, most commonly) are reported
// and fall back to the word-sized uint so layout can still proceed.
func (l *Layout) fieldTypes(where string, fields []coreast.Type, wordSize int) []machtype.Type {
	out := make([]machtype.Type, len(fields))
	for i, f := range fields {
		t, d, ok := machtype.FromCoreType(f, wordSize, l.DataTypeOf)
		if !ok {
			l.Diagnostics = append(l.Diagnostics, d)
			out[i] = machtype.WordUInt(wordSize)
			continue
		}
		out[i] = machtype.MakePtrIfBoxed(t)
	}
	return out
}

// lowerProduct lays out a single-constructor type as one struct:
// [tag:uword, field0, field1, ...].
func (l *Layout) lowerProduct(machProg *mach.Program, d coreast.DataDecl, word machtype.Scalar) {
	c := d.Cons[0]
	structSym := &machtype.StructSymbol{Name: d.Name}
	members := append([]machtype.Type{word}, l.fieldTypes(d.Name, c.Fields, machProg.WordSize)...)
	st := machtype.Struct{Symbol: structSym, Members: members}

	defSym := machProg.SymbolFor(d.Name)
	defSym.MachType = st
	sd := &mach.StructDef{Symbol: defSym, Struct: st}
	defSym.Ast = sd
	machProg.AddStruct(sd)

	info := &TypeInfo{Decl: d, MachType: st}
	conSym := &mach.AstSymbol{
		Name:          c.Name,
		MachType:      machtype.Fn{Return: machtype.Ptr{Elem: st}, Params: members[1:]},
		IsConstructor: true,
		ConNum:        0,
	}
	con := &ConInfo{Symbol: conSym, ConNum: 0, VariantStruct: st}
	con.MkFn = buildMkCon(machProg, conSym, st, nil, 0)
	info.Cons = append(info.Cons, con)
	l.Constructors[c.Name] = con
	l.Types[d.Name] = info
}

// lowerSum lays out a multi-constructor (sum) type: a dummy parent
// struct of all-uword cells sized to the widest constructor, plus one
// child struct per constructor laid out like the single-constructor
// case and tagged with SumParent.
func (l *Layout) lowerSum(machProg *mach.Program, d coreast.DataDecl, word machtype.Scalar) {
	maxArity := d.MaxArity()
	parentSym := &machtype.StructSymbol{Name: d.Name}
	parentMembers := make([]machtype.Type, maxArity+1)
	for i := range parentMembers {
		parentMembers[i] = word
	}
	parent := machtype.Struct{Symbol: parentSym, Members: parentMembers}

	defSym := machProg.SymbolFor(d.Name)
	defSym.MachType = parent
	parentDef := &mach.StructDef{Symbol: defSym, Struct: parent}
	defSym.Ast = parentDef
	machProg.AddStruct(parentDef)

	info := &TypeInfo{Decl: d, MachType: parent, IsSum: true}
	for i, c := range d.Cons {
		childSym := &machtype.StructSymbol{Name: fmt.Sprintf("%s.%s", d.Name, c.Name)}
		members := append([]machtype.Type{word}, l.fieldTypes(c.Name, c.Fields, machProg.WordSize)...)
		child := machtype.Struct{Symbol: childSym, Members: members, SumParent: parentSym}

		childDefSym := machProg.SymbolFor(childSym.Name)
		childDefSym.MachType = child
		childDef := &mach.StructDef{Symbol: childDefSym, Struct: child}
		childDefSym.Ast = childDef
		machProg.AddStruct(childDef)

		conSym := &mach.AstSymbol{
			Name:          c.Name,
			MachType:      machtype.Fn{Return: machtype.Ptr{Elem: parent}, Params: members[1:]},
			IsConstructor: true,
			ConNum:        i,
		}
		con := &ConInfo{Symbol: conSym, ConNum: i, VariantStruct: child}
		con.MkFn = buildMkCon(machProg, conSym, child, parentSym, i)
		info.Cons = append(info.Cons, con)
		l.Constructors[c.Name] = con
	}
	l.Types[d.Name] = info
}

// buildMkCon synthesizes `_mkCon(parent_ptr, arg0, ..., argN)`: it
// stores con_num at slot 0, stores each argument into slot i+1, and
// returns the parent pointer — bit-casting from the variant's child
// layout back to the parent's dummy layout for a sum type.
func buildMkCon(machProg *mach.Program, conSym *mach.AstSymbol, layout machtype.Struct, parentSym *machtype.StructSymbol, conNum int) *mach.FnDef {
	fnSym := machProg.SymbolFor("_mk" + conSym.Name)
	parentPtrType := machtype.Ptr{Elem: layout}
	if parentSym != nil {
		parentPtrType = machtype.Ptr{Elem: machtype.Struct{Symbol: parentSym}}
	}
	fields := layout.Members[1:]
	params := make([]machtype.Type, 0, len(fields)+1)
	params = append(params, parentPtrType)
	params = append(params, fields...)
	fnSym.MachType = machtype.Fn{Return: parentPtrType, Params: params}

	parentArg := machProg.SymbolFor(fnSym.Name + ".parent")
	parentArg.MachType = parentPtrType
	fieldArgs := make([]*mach.AstSymbol, len(fields))
	for i, ft := range fields {
		a := machProg.SymbolFor(fmt.Sprintf("%s.arg%d", fnSym.Name, i))
		a.MachType = ft
		fieldArgs[i] = a
	}
	allParams := append([]*mach.AstSymbol{parentArg}, fieldArgs...)

	entry := &mach.Block{Symbol: machProg.SymbolFor(fnSym.Name + ".entry")}
	fn := mach.NewFnDef(fnSym, mach.FnLang, allParams, entry)
	fnSym.Ast = fn
	machProg.AddFunction(fn)

	b := mach.NewBuilder(machProg, fn)
	childLayoutPtr := mach.Param(fnSym, 0, parentPtrType)
	if parentSym != nil {
		// Cast the caller's parent-typed pointer down to this
		// variant's concrete child layout before writing fields.
		childLayoutPtr = b.BuildBitCast(childLayoutPtr, machtype.Ptr{Elem: layout})
	}

	tagPtr := b.BuildGep(childLayoutPtr, []int64{0, 0})
	b.BuildStore(mach.LitUInt(uint64(conNum), layout.Members[0].(machtype.Scalar)), tagPtr)

	for i, a := range fieldArgs {
		fieldPtr := b.BuildGep(childLayoutPtr, []int64{0, int64(i + 1)})
		b.BuildStore(mach.Param(fnSym, i+1, a.MachType), fieldPtr)
	}

	result := mach.Param(fnSym, 0, parentPtrType)
	b.BuildReturn(result)
	return fn
}
