package mach

import "github.com/necrolang/necro-mach/pkg/machtype"

// RuntimeSymbols caches the runtime call surface the emitted code relies
// on. Every entry is a RuntimeC FnDef symbol so Pass 3 and
// Main Synthesis can emit calls to it without re-deriving its type.
type RuntimeSymbols struct {
	InitRuntime   *AstSymbol // _necro_init_runtime()
	UpdateRuntime *AstSymbol // _necro_update_runtime()
	Sleep         *AstSymbol // _necro_sleep(ms:u32)
	ErrorExit     *AstSymbol // _necro_error_exit(code:u32)
	Print         *AstSymbol // _necro_print(i32)
	DebugPrint    *AstSymbol // _necro_debug_print(i32)

	FromAlloc *AstSymbol // _necro_from_alloc(size)
	ToAlloc   *AstSymbol // _necro_to_alloc(size)

	GCInitRootSet *AstSymbol // _necro_copy_gc_initialize_root_set(n)
	GCSetRoot     *AstSymbol // _necro_copy_gc_set_root(ptr, idx, data_id)
	GCCollect     *AstSymbol // _necro_copy_gc_collect()
	FlipConst     *AstSymbol // _necro_flip_const()

	SetDataMap   *AstSymbol // _necro_set_data_map(infos)
	SetMemberMap *AstSymbol // _necro_set_member_map(members)
}

// IntrinsicNames is the recognized CallIntrinsic dispatch table.
var IntrinsicNames = []string{
	"fma", "brev", "fabs", "sin", "cos", "exp", "exp2", "log", "log10",
	"log2", "pow", "sqrt", "floor", "ceil", "trnc", "rnd", "cpysgn",
	"fmin", "fmax",
}

// IsIntrinsic reports whether name is a recognized intrinsic dispatch
// name.
func IsIntrinsic(name string) bool {
	for _, n := range IntrinsicNames {
		if n == name {
			return true
		}
	}
	return false
}

func fnSym(p *Program, name string, ret machtype.Type, params ...machtype.Type) *AstSymbol {
	sym := p.SymbolFor(name)
	sym.MachType = machtype.Fn{Return: ret, Params: params}
	sym.Ast = NewFnDef(sym, FnRuntimeC, nil, nil)
	return sym
}

func newRuntimeSymbols(p *Program) *RuntimeSymbols {
	word := machtype.WordUInt(p.WordSize)
	voidPtr := machtype.Ptr{Elem: machtype.Void}
	return &RuntimeSymbols{
		InitRuntime:   fnSym(p, "_necro_init_runtime", machtype.Void),
		UpdateRuntime: fnSym(p, "_necro_update_runtime", machtype.Void),
		Sleep:         fnSym(p, "_necro_sleep", machtype.Void, machtype.U32),
		ErrorExit:     fnSym(p, "_necro_error_exit", machtype.Void, machtype.U32),
		Print:         fnSym(p, "_necro_print", machtype.Void, machtype.I32),
		DebugPrint:    fnSym(p, "_necro_debug_print", machtype.Void, machtype.I32),
		FromAlloc:     fnSym(p, "_necro_from_alloc", voidPtr, word),
		ToAlloc:       fnSym(p, "_necro_to_alloc", voidPtr, word),
		GCInitRootSet: fnSym(p, "_necro_copy_gc_initialize_root_set", machtype.Void, word),
		GCSetRoot:     fnSym(p, "_necro_copy_gc_set_root", machtype.Void, voidPtr, word, word),
		GCCollect:     fnSym(p, "_necro_copy_gc_collect", machtype.Void),
		FlipConst:     fnSym(p, "_necro_flip_const", machtype.Void),
		SetDataMap:    fnSym(p, "_necro_set_data_map", machtype.Void, voidPtr),
		SetMemberMap:  fnSym(p, "_necro_set_member_map", machtype.Void, voidPtr),
	}
}
