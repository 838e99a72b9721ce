// Package wasmerr defines the two fatal error families the decoder can
// raise: malformed binary input, and linker-time inconsistencies discovered
// while resolving constant initializer expressions.
package wasmerr

import (
	"errors"
	"fmt"
)

// ErrMalformed is the sentinel every *MalformedError wraps, so callers can
// use errors.Is(err, wasmerr.ErrMalformed) without caring about the detail.
var ErrMalformed = errors.New("malformed module")

// ErrLinker is the sentinel every *LinkerError wraps.
var ErrLinker = errors.New("linker error")

// MalformedError reports a structural violation of the binary format: bad
// magic/version, a section whose declared size doesn't match the bytes
// consumed, an LEB128 that overflows its width budget, an unknown opcode,
// an illegal tag byte, or a limits-prefix other than 0x00/0x01.
type MalformedError struct {
	// Offset is the byte offset in the module at which the violation was
	// detected.
	Offset int
	Msg    string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed module at offset 0x%x: %s", e.Offset, e.Msg)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// Malformedf builds a *MalformedError with a formatted message.
func Malformedf(offset int, format string, args ...interface{}) error {
	return &MalformedError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// LinkerError reports an initialization-time inconsistency: resetting a
// mutable imported global, resetting a global whose initializer depends on
// a non-constant global, a data-offset global.get (unsupported, §9 open
// question 2), or a type mismatch between a global.get initializer and the
// declared value type.
type LinkerError struct {
	Msg string
}

func (e *LinkerError) Error() string {
	return "linker: " + e.Msg
}

func (e *LinkerError) Unwrap() error { return ErrLinker }

// Linkerf builds a *LinkerError with a formatted message.
func Linkerf(format string, args ...interface{}) error {
	return &LinkerError{Msg: fmt.Sprintf(format, args...)}
}
