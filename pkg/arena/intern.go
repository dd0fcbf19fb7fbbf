package arena

import "hash/fnv"

// Symbol is a uniqued string handle: the same text always yields the same
// *Symbol pointer, so symbol identity can be compared with ==.
type Symbol struct {
	Name string
	hash uint64
}

// Hash returns the symbol's precomputed FNV-1a hash.
func (s *Symbol) Hash() uint64 {
	return s.hash
}

func (s *Symbol) String() string {
	return s.Name
}

// Intern uniques strings into shared *Symbol handles. It owns the strings
// it interns; callers never need to keep the original string alive.
type Intern struct {
	table map[string]*Symbol
}

// NewIntern creates an empty intern table.
func NewIntern() *Intern {
	return &Intern{table: make(map[string]*Symbol)}
}

// Intern returns the shared *Symbol for name, creating it on first use.
func (in *Intern) Intern(name string) *Symbol {
	if sym, ok := in.table[name]; ok {
		return sym
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	sym := &Symbol{Name: name, hash: h.Sum64()}
	in.table[name] = sym
	return sym
}

// Count returns how many distinct symbols have been interned.
func (in *Intern) Count() int {
	return len(in.table)
}
