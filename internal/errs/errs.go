// Package errs classifies per-file failures into the four kinds the batch
// runner reports on: configuration, file format, I/O and unexpected.
//
// Classification is carried by *Error, which wraps the underlying cause so
// callers can still use errors.Is/As on it (e.g. errors.Is(err, os.ErrNotExist)).
package errs

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// Unexpected is anything not classified below (including recovered panics).
	Unexpected Kind = iota
	// Configuration covers bad column selections and disabled splitters.
	Configuration
	// FileFormat covers unreadable headers and malformed CSV.
	FileFormat
	// IO covers unreadable inputs and unwritable outputs.
	IO
)

// String returns the stable, lower-case name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case FileFormat:
		return "file_format"
	case IO:
		return "io"
	default:
		return "unexpected"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "read header"
	Path string // file involved, if any
	Err  error

	// Stack is where the error was classified; set by the constructors.
	Stack []byte
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against the kind sentinels (ErrConfiguration, ...), so
// errors.Is(err, errs.ErrFileFormat) works through any wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConfiguration = &Error{Kind: Configuration}
	ErrFileFormat    = &Error{Kind: FileFormat}
	ErrIO            = &Error{Kind: IO}
	ErrUnexpected    = &Error{Kind: Unexpected}
)

// Configurationf returns a Configuration error with a formatted message.
func Configurationf(format string, a ...any) error {
	return &Error{Kind: Configuration, Err: fmt.Errorf(format, a...), Stack: debug.Stack()}
}

// NewFileFormat wraps err as a FileFormat error.
func NewFileFormat(op, path string, err error) error {
	return &Error{Kind: FileFormat, Op: op, Path: path, Err: err, Stack: debug.Stack()}
}

// NewIO wraps err as an IO error.
func NewIO(op, path string, err error) error {
	return &Error{Kind: IO, Op: op, Path: path, Err: err, Stack: debug.Stack()}
}

// NewUnexpected wraps err as an Unexpected error.
func NewUnexpected(op, path string, err error) error {
	return &Error{Kind: Unexpected, Op: op, Path: path, Err: err, Stack: debug.Stack()}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or Unexpected when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// StackOf returns the stack recorded by the innermost classified error in
// err's chain that has one, or nil.
func StackOf(err error) []byte {
	var stack []byte
	for err != nil {
		if e, ok := err.(*Error); ok && len(e.Stack) > 0 {
			stack = e.Stack
		}
		err = errors.Unwrap(err)
	}
	return stack
}

// Ops returns the "op path" pairs of every classified error in err's chain,
// outermost first.
func Ops(err error) []string {
	var out []string
	for err != nil {
		if e, ok := err.(*Error); ok && (e.Op != "" || e.Path != "") {
			out = append(out, strings.TrimSpace(e.Op+" "+e.Path))
		}
		err = errors.Unwrap(err)
	}
	return out
}
