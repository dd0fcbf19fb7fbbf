package coreast

// Primitive describes one entry of NecroBase: a primitive the frontend
// resolved names against, carried here only as name + type since the
// Mach pipeline never needs more than that to emit a call to it.
type Primitive struct {
	Name string
	Typ  Type
	// Runtime marks a primitive the runtime provides: a function (e.g.
	// printInt) lowers to a RuntimeC call, a value (e.g. mouseX) to a
	// load of an external global.
	Runtime bool
}

// NecroBase is the primitive symbol table: the set of built-in names
// (arithmetic, comparison, runtime-provided values and functions) and
// their types, standing in for the frontend's base environment. Every
// pass treats it as read-only.
type NecroBase struct {
	Primitives map[string]Primitive
}

// NewNecroBase builds the standard primitive table used by the tests and
// by cmd/necromachc.
func NewNecroBase() *NecroBase {
	intT := TyCon{Name: "Int"}
	floatT := TyCon{Name: "Float"}
	worldT := TyCon{Name: "World"}
	b := &NecroBase{Primitives: make(map[string]Primitive)}
	add := func(p Primitive) { b.Primitives[p.Name] = p }
	add(Primitive{Name: "addInt", Typ: TyFun{Params: []Type{intT, intT}, Result: intT}})
	add(Primitive{Name: "subInt", Typ: TyFun{Params: []Type{intT, intT}, Result: intT}})
	add(Primitive{Name: "mulInt", Typ: TyFun{Params: []Type{intT, intT}, Result: intT}})
	add(Primitive{Name: "addFloat", Typ: TyFun{Params: []Type{floatT, floatT}, Result: floatT}})
	add(Primitive{Name: "mouseX", Typ: intT, Runtime: true})
	add(Primitive{Name: "mouseY", Typ: intT, Runtime: true})
	add(Primitive{Name: "printInt", Typ: TyFun{Params: []Type{intT, worldT}, Result: worldT}, Runtime: true})
	return b
}

// Lookup finds a primitive by name.
func (b *NecroBase) Lookup(name string) (Primitive, bool) {
	p, ok := b.Primitives[name]
	return p, ok
}
