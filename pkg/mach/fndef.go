package mach

import "github.com/necrolang/necro-mach/pkg/machtype"

// FnKind distinguishes a user-language function (Lang) from a
// runtime-provided C function (RuntimeC).
type FnKind int

const (
	FnLang FnKind = iota
	FnRuntimeC
)

// FnDef is a function definition: an entry block, a current-block cursor
// used transiently by builders during construction, and its function-
// typed value handle.
type FnDef struct {
	Symbol *AstSymbol
	Kind   FnKind
	Params []*AstSymbol
	Entry  *Block

	// cur is the block the next builder call appends to; only
	// meaningful while the function is under construction.
	cur *Block
}

func (FnDef) implAst() {}

// Type returns the function's Fn machtype.
func (f FnDef) Type() machtype.Type {
	return f.Symbol.MachType
}

// NewFnDef creates a function definition whose builder cursor starts at
// entry; entry may be nil and set later, and no block is created here.
func NewFnDef(sym *AstSymbol, kind FnKind, params []*AstSymbol, entry *Block) *FnDef {
	return &FnDef{Symbol: sym, Kind: kind, Params: params, Entry: entry, cur: entry}
}

// CurrentBlock returns the block the builder is currently appending to.
func (f *FnDef) CurrentBlock() *Block {
	return f.cur
}

// MoveTo sets the builder cursor to blk.
func (f *FnDef) MoveTo(blk *Block) {
	f.cur = blk
}

// AppendBlock creates a new block, attaches it after the last block in
// textual order, and returns it.
func (f *FnDef) AppendBlock(sym *AstSymbol) *Block {
	blk := &Block{Symbol: sym}
	last := f.Entry
	for last.Next != nil {
		last = last.Next
	}
	last.Next = blk
	return blk
}

// InsertBlockBefore splices blk in immediately before target in textual
// order.
func (f *FnDef) InsertBlockBefore(sym *AstSymbol, target *Block) *Block {
	blk := &Block{Symbol: sym, Next: target}
	if f.Entry == target {
		f.Entry = blk
		return blk
	}
	prev := f.Entry
	for prev.Next != target {
		prev = prev.Next
	}
	prev.Next = blk
	return blk
}

// Blocks returns the function's blocks in textual order.
func (f *FnDef) Blocks() []*Block {
	var out []*Block
	for b := f.Entry; b != nil; b = b.Next {
		out = append(out, b)
	}
	return out
}
