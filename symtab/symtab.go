// Package symtab holds the decoded module's symbol table: the catalog of
// types, functions, tables, memories, globals, exports, and segments that
// the section decoders populate and that later consumers (a linker, an
// execution engine) read back.
package symtab

import (
	"fmt"

	"github.com/willf/bitset"

	"github.com/wasmsym/decoder/wasmerr"
)

// GlobalResolution is the lifecycle tag on a global's initializer. It is
// represented as a tagged enum rather than sentinel values, per the design
// note that two-phase initialization "should represent resolution as a
// tagged variant".
type GlobalResolution int

const (
	// Declared means the value was known at decode time: the initializer
	// was a numeric const, or a global.get of a global that was already
	// resolved, whose value has been copied.
	Declared GlobalResolution = iota
	// ImportedUnresolved means this global record is an import whose
	// foreign value has not yet been supplied by the linker.
	ImportedUnresolved
	// ImportedResolved means this global record is an import whose value
	// the linker has already supplied.
	ImportedResolved
	// UnresolvedGet means the initializer was global.get of an import that
	// is itself not yet resolved; a back-reference is recorded and the
	// linker must complete initialization later.
	UnresolvedGet
	// Resolved is the state MarkGlobalResolved records once an
	// UnresolvedGet global's value has been supplied after decode. The
	// decoder itself never assigns it.
	Resolved
)

func (r GlobalResolution) String() string {
	switch r {
	case Declared:
		return "DECLARED"
	case ImportedUnresolved:
		return "IMPORTED_UNRESOLVED"
	case ImportedResolved:
		return "IMPORTED_RESOLVED"
	case UnresolvedGet:
		return "UNRESOLVED_GET"
	case Resolved:
		return "RESOLVED"
	default:
		return fmt.Sprintf("GlobalResolution(%d)", int(r))
	}
}

// ExportKind identifies what an export name refers to.
type ExportKind byte

const (
	ExportKindFunc ExportKind = iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
)

// FunctionRecord describes one entry in the shared function index space.
// Imported functions occupy the prefix [0, nImports); declared functions
// occupy [nImports, nImports+nDeclared), one-to-one with code entries.
type FunctionRecord struct {
	TypeIndex  uint32
	Code       *CodeEntry // nil for imports; allocated during code-section sweep 1
	IsImported bool
	ModuleName string
	MemberName string
}

// TableRecord is the module's single table, if any.
type TableRecord struct {
	ElemType   byte
	Limits     LimitsType
	IsImported bool
}

// MemoryRecord is the module's single memory, if any.
type MemoryRecord struct {
	Limits     LimitsType
	IsImported bool
}

// GlobalRecord describes one global variable's type, mutability, and
// initializer resolution state.
type GlobalRecord struct {
	ValueType  ValueType
	Mutable    bool
	Resolution GlobalResolution
	Address    uint32
	ModuleName string // set only when this record originated as an import
	MemberName string
}

// Export is the target of an exported name.
type Export struct {
	Kind  ExportKind
	Index uint32
}

// SymbolTable is the decoded module's catalog: types, functions, tables,
// memories, globals, exports, start function, and the back-references of
// globals whose initializer awaits an unresolved import.
type SymbolTable struct {
	FunctionTypes []*FunctionType
	Functions     []*FunctionRecord
	Tables        []*TableRecord
	Memories      []*MemoryRecord
	Globals       []*GlobalRecord
	Exports       map[string]*Export
	StartFunction *uint32

	// NumImportedFunctions tracks where the imported prefix ends in
	// Functions, per the invariant that imports occupy indices
	// [0, NumImportedFunctions).
	NumImportedFunctions int

	// UnresolvedGlobalBackrefs maps a global index awaiting resolution to
	// the index of the imported global it is waiting on.
	UnresolvedGlobalBackrefs map[uint32]uint32

	// resolvedGlobals tracks, by global index, which globals currently
	// carry a known value (Declared, ImportedResolved, or Resolved). A
	// bitset is cheaper to probe than walking Globals during
	// reset_global_state's dependency check.
	resolvedGlobals *bitset.BitSet
}

// NewSymbolTable returns an empty symbol table ready to be populated by the
// section decoders.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Exports:                  map[string]*Export{},
		UnresolvedGlobalBackrefs: map[uint32]uint32{},
		resolvedGlobals:          bitset.New(0),
	}
}

// AllocateFunctionType appends a new, as-yet-unpopulated function type and
// returns its index.
func (s *SymbolTable) AllocateFunctionType(paramsLen, resultsLen int) uint32 {
	ft := &FunctionType{
		Params:  make([]ValueType, paramsLen),
		Results: make([]ValueType, resultsLen),
	}
	s.FunctionTypes = append(s.FunctionTypes, ft)
	return uint32(len(s.FunctionTypes) - 1)
}

// RegisterFunctionTypeParameterType sets one parameter slot of a
// previously-allocated function type.
func (s *SymbolTable) RegisterFunctionTypeParameterType(typeIndex uint32, paramIndex int, t ValueType) {
	s.FunctionTypes[typeIndex].Params[paramIndex] = t
}

// RegisterFunctionTypeReturnType sets the (sole, in this module version)
// result slot of a previously-allocated function type.
func (s *SymbolTable) RegisterFunctionTypeReturnType(typeIndex uint32, resultIndex int, t ValueType) {
	s.FunctionTypes[typeIndex].Results[resultIndex] = t
}

// ImportFunction appends an imported function record. Imports must all be
// appended before any declared function, which the import-section decoder
// guarantees by running before the function section.
func (s *SymbolTable) ImportFunction(moduleName, memberName string, typeIndex uint32) uint32 {
	s.Functions = append(s.Functions, &FunctionRecord{
		TypeIndex:  typeIndex,
		IsImported: true,
		ModuleName: moduleName,
		MemberName: memberName,
	})
	s.NumImportedFunctions++
	return uint32(len(s.Functions) - 1)
}

// DeclareFunction appends a locally-defined function record bound to typeIndex.
func (s *SymbolTable) DeclareFunction(typeIndex uint32) uint32 {
	s.Functions = append(s.Functions, &FunctionRecord{TypeIndex: typeIndex})
	return uint32(len(s.Functions) - 1)
}

// ImportTable records the module's table as imported. Callers must enforce
// the at-most-one-table invariant before calling this.
func (s *SymbolTable) ImportTable(elemType byte, limits LimitsType) {
	s.Tables = append(s.Tables, &TableRecord{ElemType: elemType, Limits: limits, IsImported: true})
}

// AllocateTable records the module's table as locally declared.
func (s *SymbolTable) AllocateTable(elemType byte, limits LimitsType) {
	s.Tables = append(s.Tables, &TableRecord{ElemType: elemType, Limits: limits})
}

// ImportMemory records the module's memory as imported.
func (s *SymbolTable) ImportMemory(limits LimitsType) {
	s.Memories = append(s.Memories, &MemoryRecord{Limits: limits, IsImported: true})
}

// AllocateMemory records the module's memory as locally declared.
func (s *SymbolTable) AllocateMemory(limits LimitsType) {
	s.Memories = append(s.Memories, &MemoryRecord{Limits: limits})
}

// DeclareGlobal allocates a slot in the process-wide globals array (the
// address is assigned by the caller, which owns that array) and appends a
// global record. moduleName/memberName are set only when the global
// originated as an import (the locally-declared path passes "", ""),
// mirroring FunctionRecord's ImportFunction/DeclareFunction split. It
// returns the address it was given, mirroring the public operation's
// signature in callers that chain allocation and recording.
func (s *SymbolTable) DeclareGlobal(address uint32, valType ValueType, mutable bool, resolution GlobalResolution, moduleName, memberName string) uint32 {
	idx := uint32(len(s.Globals))
	s.Globals = append(s.Globals, &GlobalRecord{
		ValueType:  valType,
		Mutable:    mutable,
		Resolution: resolution,
		Address:    address,
		ModuleName: moduleName,
		MemberName: memberName,
	})
	s.setResolved(idx, resolution)
	return address
}

// MarkGlobalResolved updates a global record's resolution after the linker
// (or a later pass in this same decode) supplies its value.
func (s *SymbolTable) MarkGlobalResolved(index uint32, resolution GlobalResolution) {
	s.Globals[index].Resolution = resolution
	s.setResolved(index, resolution)
}

func (s *SymbolTable) setResolved(index uint32, resolution GlobalResolution) {
	resolved := resolution == Declared || resolution == ImportedResolved || resolution == Resolved
	s.resolvedGlobals.Set(uint(index))
	if !resolved {
		s.resolvedGlobals.Clear(uint(index))
	}
}

// IsGlobalResolved reports whether the global at index currently carries a
// known value.
func (s *SymbolTable) IsGlobalResolved(index uint32) bool {
	return s.resolvedGlobals.Test(uint(index))
}

// ExportFunction records a function export.
func (s *SymbolTable) ExportFunction(name string, index uint32) {
	s.Exports[name] = &Export{Kind: ExportKindFunc, Index: index}
}

// ExportTable records the table export. The module must own exactly one
// table and the index must be 0 (enforced by the export-section decoder).
func (s *SymbolTable) ExportTable(name string) {
	s.Exports[name] = &Export{Kind: ExportKindTable, Index: 0}
}

// ExportGlobal records a global export.
func (s *SymbolTable) ExportGlobal(name string, index uint32) {
	s.Exports[name] = &Export{Kind: ExportKindGlobal, Index: index}
}

// SetStartFunction records the module's start function index.
func (s *SymbolTable) SetStartFunction(index uint32) {
	s.StartFunction = &index
}

// InitializeTableWithFunctions checks a contiguous run of function indices
// starting at offset against the module's table, for the constant-offset
// case of an element segment. It returns an error if the module has no
// table or the run extends past the table's minimum size; the indices
// themselves are not stored anywhere.
func (s *SymbolTable) InitializeTableWithFunctions(offset uint32, funcIndices []uint32) error {
	if len(s.Tables) == 0 {
		return wasmerr.Linkerf("element segment targets a table but module declares none")
	}
	// The table's backing store is owned by the embedder in a full runtime;
	// here the symbol table only validates bounds against the declared
	// limits, since table growth/allocation is explicitly out of scope.
	t := s.Tables[0]
	end := uint64(offset) + uint64(len(funcIndices))
	if end > uint64(t.Limits.Min) {
		return wasmerr.Linkerf("element segment [%d, %d) overflows table of size %d", offset, end, t.Limits.Min)
	}
	return nil
}

// Function returns the function record at index.
func (s *SymbolTable) Function(index uint32) *FunctionRecord { return s.Functions[index] }

// FunctionTypeArgumentCount returns the parameter count of the type at index.
func (s *SymbolTable) FunctionTypeArgumentCount(typeIndex uint32) int {
	return len(s.FunctionTypes[typeIndex].Params)
}

// FunctionTypeReturnTypeLength returns 0 or 1, this module version's only
// legal result arities.
func (s *SymbolTable) FunctionTypeReturnTypeLength(typeIndex uint32) int {
	return len(s.FunctionTypes[typeIndex].Results)
}

// GlobalMutability reports whether the global at index is mutable.
func (s *SymbolTable) GlobalMutability(index uint32) bool { return s.Globals[index].Mutable }

// GlobalAddress returns the process-wide globals-array address of the
// global at index.
func (s *SymbolTable) GlobalAddress(index uint32) uint32 { return s.Globals[index].Address }

// GlobalResolutionOf returns the current resolution state of the global at index.
func (s *SymbolTable) GlobalResolutionOf(index uint32) GlobalResolution {
	return s.Globals[index].Resolution
}

// MaxGlobalIndex returns the number of declared globals, which grows
// strictly monotonically as globals are imported or declared.
func (s *SymbolTable) MaxGlobalIndex() uint32 { return uint32(len(s.Globals)) }

// TableCount returns 0 or 1, this module version's only legal table cardinality.
func (s *SymbolTable) TableCount() int { return len(s.Tables) }

// MemoryCount returns 0 or 1, this module version's only legal memory cardinality.
func (s *SymbolTable) MemoryCount() int { return len(s.Memories) }

// Memory returns the module's sole memory record, or nil if it declares none.
func (s *SymbolTable) Memory() *MemoryRecord {
	if len(s.Memories) == 0 {
		return nil
	}
	return s.Memories[0]
}

// TableExists reports whether the module owns a table.
func (s *SymbolTable) TableExists() bool { return len(s.Tables) > 0 }
