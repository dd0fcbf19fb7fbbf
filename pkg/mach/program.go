package mach

import "github.com/necrolang/necro-mach/pkg/arena"

// Program is the output of the Mach lowering pipeline: vectors of struct
// defs, function defs, machine defs, and globals; a designated
// necro_main entry; a word_size setting; cached references to runtime
// intrinsic symbols.
type Program struct {
	Structs     []*StructDef
	Functions   []*FnDef
	MachineDefs []*MachDef
	Globals     []*AstSymbol

	NecroMain *FnDef
	WordSize  int

	Intern   *arena.Intern
	symbols  map[string]*AstSymbol
	Runtime  *RuntimeSymbols
}

// NewProgram creates an empty program for the given word size (4 or 8),
// with its own fresh symbol intern.
func NewProgram(wordSize int) *Program {
	return NewProgramWithIntern(wordSize, arena.NewIntern())
}

// NewProgramWithIntern creates an empty program sharing in as its symbol
// intern, so a name interned by an upstream pass (coreast parsing, say)
// and a name interned while building Mach symbols collide correctly
// instead of landing in two disjoint tables.
func NewProgramWithIntern(wordSize int, in *arena.Intern) *Program {
	p := &Program{
		WordSize: wordSize,
		Intern:   in,
		symbols:  make(map[string]*AstSymbol),
	}
	p.Runtime = newRuntimeSymbols(p)
	return p
}

// SymbolFor returns the program's single *AstSymbol for a mangled name,
// creating it lazily. Names are uniqued through p.Intern first, so a
// name already interned upstream (coreast parsing, say) and a name
// built while lowering Mach symbols resolve to the same *arena.Symbol
// before the *AstSymbol cache is consulted — this is what keeps "the
// same Core symbol always maps to the same Mach symbol" true across
// passes that share in.
func (p *Program) SymbolFor(name string) *AstSymbol {
	interned := p.Intern.Intern(name)
	if sym, ok := p.symbols[interned.Name]; ok {
		return sym
	}
	sym := &AstSymbol{Name: interned.Name, Interned: interned}
	p.symbols[interned.Name] = sym
	return sym
}

// AddStruct registers a struct definition.
func (p *Program) AddStruct(s *StructDef) {
	p.Structs = append(p.Structs, s)
}

// AddFunction registers a function definition.
func (p *Program) AddFunction(f *FnDef) {
	p.Functions = append(p.Functions, f)
}

// AddMachineDef registers a machine definition.
func (p *Program) AddMachineDef(m *MachDef) {
	p.MachineDefs = append(p.MachineDefs, m)
}

// AddGlobal registers a global symbol.
func (p *Program) AddGlobal(g *AstSymbol) {
	p.Globals = append(p.Globals, g)
}
