package decode

import (
	"github.com/wasmsym/decoder/linker"
	"github.com/wasmsym/decoder/symtab"
)

// Context is the language-context object a module is decoded against: it
// owns the symbol table being populated, the linker and process-wide
// globals/memory collaborators the decoder calls into, and the module's
// own identity (its name, used when calling into the linker). It is the
// only configuration surface Decode has — there is no config file or
// environment variable layer, per this module's decode-only scope.
type Context struct {
	ModuleName string

	SymbolTable *symtab.SymbolTable
	Linker      linker.Linker
	Globals     linker.Globals
	Memory      linker.Memory

	// nextFunctionIndex mirrors GraalWasm's moduleFunctionIndex: a running
	// counter bumped once per function import (imports.go) and once per
	// declared function (function.go), computed independently of
	// len(SymbolTable.Functions) so readCodeSection can cross-check the
	// two against each other before trusting either to size the code
	// section's declared-function count.
	nextFunctionIndex uint32

	// raw is the module's original byte buffer, retained because
	// reset_global_state and reset_memory_state re-parse sections from it
	// rather than replaying a parsed tree.
	raw []byte
}

// NewContext returns a Context ready to decode a module named name. Linker,
// Globals, and Memory may be nil if the module declares no globals whose
// initializer needs the linker and no data section.
func NewContext(name string, l linker.Linker, globals linker.Globals, memory linker.Memory) *Context {
	return &Context{
		ModuleName:  name,
		SymbolTable: symtab.NewSymbolTable(),
		Linker:      l,
		Globals:     globals,
		Memory:      memory,
	}
}
