// Package coreast defines the trusted input contract the Mach lowering
// pipeline consumes: a monomorphic, lambda-lifted Core AST, the NecroBase
// primitive table, and nothing else. Lexing, parsing, renaming, kind/type
// inference and monomorphization all live upstream of this package and
// are out of scope for this repository — coreast only models their
// *output* shape, without reimplementing that frontend.
package coreast

import "fmt"

// Type is the interface for monomorphic Core types. TyVar is only ever
// expected pre-monomorphization; its presence here signals an upstream
// contract violation (see pkg/machtype.FromCoreType).
type Type interface {
	implCoreType()
	String() string
}

// TyCon is a nullary or fully-applied type constructor reference, e.g.
// "Int", "Float", "Audio".
type TyCon struct {
	Name string
}

func (TyCon) implCoreType() {}
func (t TyCon) String() string {
	return t.Name
}

// TyApp applies a type constructor to argument types, e.g. "Maybe Int".
type TyApp struct {
	Con  Type
	Args []Type
}

func (TyApp) implCoreType() {}
func (t TyApp) String() string {
	return fmt.Sprintf("(%s %v)", t.Con, t.Args)
}

// TyVar is a type variable. A well-formed input to this pipeline never
// contains one — monomorphization is defined to have eliminated them.
type TyVar struct {
	Name string
}

func (TyVar) implCoreType() {}
func (t TyVar) String() string {
	return t.Name
}

// TyFun is a function type.
type TyFun struct {
	Params []Type
	Result Type
}

func (TyFun) implCoreType() {}
func (t TyFun) String() string {
	return fmt.Sprintf("(%v -> %s)", t.Params, t.Result)
}
