package decode

import (
	"go.uber.org/zap"

	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/wasmerr"
)

// SectionID identifies one of the twelve sections a module may contain.
type SectionID byte

const (
	SectionCustom   SectionID = 0
	SectionType     SectionID = 1
	SectionImport   SectionID = 2
	SectionFunction SectionID = 3
	SectionTable    SectionID = 4
	SectionMemory   SectionID = 5
	SectionGlobal   SectionID = 6
	SectionExport   SectionID = 7
	SectionStart    SectionID = 8
	SectionElement  SectionID = 9
	SectionCode     SectionID = 10
	SectionData     SectionID = 11
)

const (
	expectedMagic   = 0x6D736100
	expectedVersion = 0x00000001
)

// Decode parses data as a WebAssembly binary module, version 1, populating
// ctx.SymbolTable. On any fatal violation it returns a *wasmerr.MalformedError
// or *wasmerr.LinkerError and the caller must discard the module.
func Decode(ctx *Context, data []byte) error {
	ctx.raw = data
	r := reader.New(data)
	if err := readPreamble(r); err != nil {
		return err
	}
	if err := readSections(ctx, r, -1); err != nil {
		return err
	}

	codeEntries := 0
	for _, f := range ctx.SymbolTable.Functions {
		if f.Code != nil {
			codeEntries++
		}
	}
	if codeEntries != declaredFunctionCount(ctx) {
		return wasmerr.Malformedf(r.Offset(), "function and code section have inconsistent lengths")
	}
	return nil
}

func declaredFunctionCount(ctx *Context) int {
	count := 0
	for _, f := range ctx.SymbolTable.Functions {
		if !f.IsImported {
			count++
		}
	}
	return count
}

func readPreamble(r *reader.ByteReader) error {
	magic, err := r.Read4()
	if err != nil {
		return wasmerr.Malformedf(r.Offset(), "failed to read magic number: %s", err)
	}
	if magic != expectedMagic {
		return wasmerr.Malformedf(0, "invalid magic number %#x", magic)
	}
	version, err := r.Read4()
	if err != nil {
		return wasmerr.Malformedf(r.Offset(), "failed to read version: %s", err)
	}
	if version != expectedVersion {
		return wasmerr.Malformedf(4, "invalid VERSION %#x", version)
	}
	return nil
}

// readSections loops over the section stream until EOF, or until it has
// just consumed the section with id stopAfter (-1 means "read to EOF",
// which is what Decode passes).
func readSections(ctx *Context, r *reader.ByteReader, stopAfter int) error {
	for !r.IsEOF() {
		id, err := r.Read1()
		if err != nil {
			return err
		}

		size, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return wasmerr.Malformedf(r.Offset(), "failed to read size of section %#x: %s", id, err)
		}

		start := r.Offset()
		if err := dispatchSection(ctx, r, SectionID(id), int(size)); err != nil {
			return err
		}
		if r.Offset()-start != int(size) {
			return wasmerr.Malformedf(start, "section %#x declared %d bytes but consumed %d", id, size, r.Offset()-start)
		}

		if stopAfter >= 0 && int(id) == stopAfter {
			return nil
		}
	}
	return nil
}

func dispatchSection(ctx *Context, r *reader.ByteReader, id SectionID, size int) error {
	switch id {
	case SectionCustom:
		return skipCustomSection(ctx, r, size)
	case SectionType:
		return readTypeSection(ctx, r)
	case SectionImport:
		return readImportSection(ctx, r)
	case SectionFunction:
		return readFunctionSection(ctx, r)
	case SectionTable:
		return readTableSection(ctx, r)
	case SectionMemory:
		return readMemorySection(ctx, r)
	case SectionGlobal:
		return readGlobalSection(ctx, r)
	case SectionExport:
		return readExportSection(ctx, r)
	case SectionStart:
		return readStartSection(ctx, r)
	case SectionElement:
		return readElementSection(ctx, r)
	case SectionCode:
		return readCodeSection(ctx, r)
	case SectionData:
		return readDataSection(ctx, r)
	default:
		return wasmerr.Malformedf(r.Offset(), "invalid section id %#x", id)
	}
}

// skipCustomSection advances past a custom section's raw payload without
// interpreting it, per §4.2 ("custom sections are skipped by raw offset
// advance"). It still reads the section's name, purely to surface it in
// the debug log; a custom section with a malformed name is not fatal, so
// a read failure there just means the name is omitted from the log.
func skipCustomSection(ctx *Context, r *reader.ByteReader, size int) error {
	start := r.Offset()
	name, nameErr := r.ReadName()
	if nameErr != nil {
		r.Seek(start)
		name = ""
	}
	consumed := r.Offset() - start
	if _, err := r.ReadBytes(size - consumed); err != nil {
		return err
	}
	Logger().Debug("skipping custom section", zap.String("name", name))
	return nil
}
