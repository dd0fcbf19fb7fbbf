package mach

import "github.com/necrolang/necro-mach/pkg/machtype"

// StructDef declares the layout of one struct type: either a single-
// constructor product, the dummy parent of a sum type, or a sum type's
// variant child.
type StructDef struct {
	Symbol *AstSymbol
	Struct machtype.Struct
}

func (StructDef) implAst()            {}
func (s StructDef) Type() machtype.Type { return s.Struct }
