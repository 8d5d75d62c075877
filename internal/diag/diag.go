// Package diag renders human-readable diagnostics for the tooling around the
// tracker (cmd/pressuretrace, internal/pressuresvc): malformed MIR text,
// unknown register names, a recovered tracker panic, a variant/oracle
// mismatch. The tracker itself never returns these -- spec invariant
// breaches inside internal/pressure stay panics, as designed -- diag only
// gives a caller that already recovered one, or rejected input before ever
// reaching the tracker, a consistent way to print it.
//
// Adapted from the teacher's internal/errors package: same Level type and
// source-cache-backed Reporter, narrowed to this module's R-series codes.
package diag

import "fmt"

// Level mirrors the teacher's error severities.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelNote
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	default:
		return "unknown"
	}
}

// R-series diagnostic codes. Unlike the teacher's E-codes these never gate
// compilation; they only label what cmd/pressuretrace or pressuresvc report.
const (
	R0001 = "R0001" // malformed MIR text input
	R0002 = "R0002" // reference to an unknown register name
	R0003 = "R0003" // tracker invariant violated (a recovered panic)
	R0004 = "R0004" // interval variant requested without an oracle
)

// Diagnostic is one reported problem, optionally anchored to a source
// position in the MIR text the caller fed the tracker.
type Diagnostic struct {
	Code    string
	Level   Level
	Message string
	File    string
	Line    int // 1-based; 0 means "no specific line"
	Column  int // 1-based; 0 means "no specific column"
}

// Error implements the error interface so a Diagnostic can be returned and
// compared like any other error.
func (d *Diagnostic) Error() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s[%s]: %s", d.File, d.Level, d.Code, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s[%s]: %s", d.File, d.Line, d.Column, d.Level, d.Code, d.Message)
}

// FromPanic wraps a recovered tracker panic as an R0003 diagnostic. v is
// whatever recover() returned.
func FromPanic(file string, v interface{}) *Diagnostic {
	return &Diagnostic{
		Code:    R0003,
		Level:   LevelError,
		Message: fmt.Sprintf("%v", v),
		File:    file,
	}
}
