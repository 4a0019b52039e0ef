// Package kerr collects the small set of error-wrapping helpers used at
// component boundaries (lexer -> compiler -> vm -> cmd/kriolu), grounded on
// the retrieval pack's use of github.com/pkg/errors (e.g.
// mewmew/x/bin's x86 disassembler: errors.WithStack/errors.Errorf at each
// layer a caller crosses). Errors that never leave the package that produced
// them keep using plain fmt.Errorf, matching the teacher's own texture.
package kerr

import "github.com/pkg/errors"

// Location pinpoints a Kriolu source position for diagnostics.
type Location struct {
	Line int
}

func (l Location) String() string {
	return "[line " + itoa(l.Line) + "]"
}

// CompileError reports a single compile-time diagnostic, with the source
// location it was detected at. internal/compiler accumulates these during
// panic-mode synchronization rather than stopping at the first one.
type CompileError struct {
	Location
	Message string
}

func (e *CompileError) Error() string {
	return e.Location.String() + " " + e.Message
}

// Wrap annotates err with msg and a stack trace, for use where an error
// crosses from one component into another (e.g. the VM surfacing a
// compile-time failure, or cmd/kriolu surfacing a VM failure). Returns nil
// if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// New creates a stack-aware error for this package's own boundary failures.
func New(msg string) error { return errors.New(msg) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
