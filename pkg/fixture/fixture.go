// Package fixture loads a coreast.Program from a YAML description: the
// wire format cmd/necromachc's input file argument and testdata/e2e/*.yaml's
// golden fixtures both use, since this pipeline has no textual Core
// language front end of its own (lexing/parsing/monomorphization all
// live upstream, out of scope — see pkg/coreast's doc comment).
//
// Grounded on cmd/ralph-cc/integration_test.go's own table-loading
// style: a plain yaml-tagged Go struct per file, decoded in one
// yaml.Unmarshal call. The one addition here is the Type/Expr
// conversion step, since unlike ralph-cc's cabs.Program (a single
// concrete struct the yaml library decodes directly), coreast.Type and
// coreast.Expr are tagged-union interfaces — the wire structs below are
// flat, Kind-discriminated records that every variant's fields all
// live on, and toType/toExpr interpret Kind to build the right
// concrete coreast value.
package fixture

import (
	"fmt"
	"os"

	"github.com/necrolang/necro-mach/pkg/coreast"
	"gopkg.in/yaml.v3"
)

// Program is the root of a fixture file.
type Program struct {
	Datas    []DataDecl `yaml:"datas"`
	Binds    []Bind     `yaml:"binds"`
	MainName string     `yaml:"main_name"`
}

// DataDecl mirrors coreast.DataDecl.
type DataDecl struct {
	Name string    `yaml:"name"`
	Type *Type     `yaml:"type"`
	Cons []DataCon `yaml:"cons"`
}

// DataCon mirrors coreast.DataCon.
type DataCon struct {
	Name   string `yaml:"name"`
	Fields []Type `yaml:"fields"`
	ConNum int    `yaml:"con_num"`
}

// Bind mirrors coreast.Bind.
type Bind struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
	Body Expr     `yaml:"body"`
	Type *Type    `yaml:"type"`
}

// Type is the wire form of coreast.Type: one flat record whose Kind
// selects which of the remaining fields are meaningful.
//
//	kind: con          -> Name
//	kind: app          -> Con, Args
//	kind: var          -> Name
//	kind: fun          -> Params, Result
type Type struct {
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name"`
	Con    *Type  `yaml:"con"`
	Args   []Type `yaml:"args"`
	Params []Type `yaml:"params"`
	Result *Type  `yaml:"result"`
}

func (t *Type) toCoreType() (coreast.Type, error) {
	if t == nil {
		return nil, nil
	}
	switch t.Kind {
	case "con":
		return coreast.TyCon{Name: t.Name}, nil
	case "app":
		con, err := t.Con.toCoreType()
		if err != nil {
			return nil, err
		}
		args, err := toCoreTypes(t.Args)
		if err != nil {
			return nil, err
		}
		return coreast.TyApp{Con: con, Args: args}, nil
	case "var":
		return coreast.TyVar{Name: t.Name}, nil
	case "fun":
		params, err := toCoreTypes(t.Params)
		if err != nil {
			return nil, err
		}
		result, err := t.Result.toCoreType()
		if err != nil {
			return nil, err
		}
		return coreast.TyFun{Params: params, Result: result}, nil
	default:
		return nil, fmt.Errorf("fixture: unrecognized type kind %q", t.Kind)
	}
}

func toCoreTypes(ts []Type) ([]coreast.Type, error) {
	out := make([]coreast.Type, len(ts))
	for i := range ts {
		ct, err := (&ts[i]).toCoreType()
		if err != nil {
			return nil, err
		}
		out[i] = ct
	}
	return out, nil
}

// Expr is the wire form of coreast.Expr: one flat record whose Kind
// selects which of the remaining fields are meaningful.
//
//	kind: lit    -> LitKind, Int, Flt, Chr, Type
//	kind: var    -> Name, Type
//	kind: app    -> Fn, Args, Type
//	kind: let    -> Name, Bind, Body, Type
//	kind: lambda -> Params, Body, Type
//	kind: case   -> Scrutinee, Alts, Type
//	kind: for    -> Name, Range, Body, Type
type Expr struct {
	Kind      string  `yaml:"kind"`
	LitKind   string  `yaml:"lit_kind"`
	Int       int64   `yaml:"int"`
	Flt       float64 `yaml:"flt"`
	Chr       string  `yaml:"chr"`
	Name      string  `yaml:"name"`
	Fn        *Expr   `yaml:"fn"`
	Args      []Expr  `yaml:"args"`
	Bind      *Expr   `yaml:"bind"`
	Body      *Expr   `yaml:"body"`
	Params    []string `yaml:"params"`
	Scrutinee *Expr   `yaml:"scrutinee"`
	Alts      []Alt   `yaml:"alts"`
	Range     *Expr   `yaml:"range"`
	Type      *Type   `yaml:"type"`
}

// Alt mirrors coreast.Alt.
type Alt struct {
	ConName string   `yaml:"con_name"`
	Binders []string `yaml:"binders"`
	VarBind string   `yaml:"var_bind"`
	Body    Expr     `yaml:"body"`
}

func (e *Expr) toCoreExpr() (coreast.Expr, error) {
	if e == nil {
		return nil, nil
	}
	typ, err := e.Type.toCoreType()
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case "lit":
		lit := coreast.Lit{Typ: typ}
		switch e.LitKind {
		case "int":
			lit.Kind = coreast.LitInt
			lit.Int = e.Int
		case "float":
			lit.Kind = coreast.LitFloat
			lit.Flt = e.Flt
		case "char":
			lit.Kind = coreast.LitChar
			if len(e.Chr) > 0 {
				lit.Chr = []rune(e.Chr)[0]
			}
		default:
			return nil, fmt.Errorf("fixture: unrecognized lit_kind %q", e.LitKind)
		}
		return lit, nil
	case "var":
		return coreast.Var{Name: e.Name, Typ: typ}, nil
	case "app":
		fn, err := e.Fn.toCoreExpr()
		if err != nil {
			return nil, err
		}
		args, err := toCoreExprs(e.Args)
		if err != nil {
			return nil, err
		}
		return coreast.App{Fn: fn, Args: args, Typ: typ}, nil
	case "let":
		bind, err := e.Bind.toCoreExpr()
		if err != nil {
			return nil, err
		}
		body, err := e.Body.toCoreExpr()
		if err != nil {
			return nil, err
		}
		return coreast.Let{Name: e.Name, Bind: bind, Body: body, Typ: typ}, nil
	case "lambda":
		body, err := e.Body.toCoreExpr()
		if err != nil {
			return nil, err
		}
		return coreast.Lambda{Params: e.Params, Body: body, Typ: typ}, nil
	case "case":
		scrutinee, err := e.Scrutinee.toCoreExpr()
		if err != nil {
			return nil, err
		}
		alts := make([]coreast.Alt, len(e.Alts))
		for i, a := range e.Alts {
			body, err := (&a.Body).toCoreExpr()
			if err != nil {
				return nil, err
			}
			alts[i] = coreast.Alt{ConName: a.ConName, Binders: a.Binders, VarBind: a.VarBind, Body: body}
		}
		return coreast.Case{Scrutinee: scrutinee, Alts: alts, Typ: typ}, nil
	case "for":
		rng, err := e.Range.toCoreExpr()
		if err != nil {
			return nil, err
		}
		body, err := e.Body.toCoreExpr()
		if err != nil {
			return nil, err
		}
		return coreast.For{Var: e.Name, Range: rng, Body: body, Typ: typ}, nil
	default:
		return nil, fmt.Errorf("fixture: unrecognized expr kind %q", e.Kind)
	}
}

func toCoreExprs(es []Expr) ([]coreast.Expr, error) {
	out := make([]coreast.Expr, len(es))
	for i := range es {
		ce, err := (&es[i]).toCoreExpr()
		if err != nil {
			return nil, err
		}
		out[i] = ce
	}
	return out, nil
}

// ToProgram converts the wire Program into a *coreast.Program.
func (p *Program) ToProgram() (*coreast.Program, error) {
	prog := &coreast.Program{MainName: p.MainName}

	for _, d := range p.Datas {
		typ, err := d.Type.toCoreType()
		if err != nil {
			return nil, fmt.Errorf("data %q: %w", d.Name, err)
		}
		cons := make([]coreast.DataCon, len(d.Cons))
		for i, c := range d.Cons {
			fields, err := toCoreTypes(c.Fields)
			if err != nil {
				return nil, fmt.Errorf("data %q con %q: %w", d.Name, c.Name, err)
			}
			cons[i] = coreast.DataCon{Name: c.Name, Fields: fields, ConNum: c.ConNum}
		}
		prog.Datas = append(prog.Datas, coreast.DataDecl{Name: d.Name, Type: typ, Cons: cons})
	}

	for _, b := range p.Binds {
		body, err := (&b.Body).toCoreExpr()
		if err != nil {
			return nil, fmt.Errorf("bind %q: %w", b.Name, err)
		}
		typ, err := b.Type.toCoreType()
		if err != nil {
			return nil, fmt.Errorf("bind %q: %w", b.Name, err)
		}
		prog.Binds = append(prog.Binds, coreast.Bind{Name: b.Name, Args: b.Args, Body: body, Typ: typ})
	}

	return prog, nil
}

// Load reads and decodes a fixture YAML file at path into a coreast.Program.
func Load(path string) (*coreast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wire Program
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("fixture: parsing %s: %w", path, err)
	}
	return wire.ToProgram()
}
