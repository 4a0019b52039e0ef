package vm

import (
	"fmt"
	"strings"
)

// StackFrame records one call-frame's identity at the moment a runtime error
// was raised, grounded on the teacher's pkg/vm.StackFrame/RuntimeError split
// (pkg/vm/errors.go): a flat snapshot taken once, not a live reference into
// the VM's own (about-to-be-reset) call stack.
type StackFrame struct {
	Name       string
	SourceLine int
}

// RuntimeError is returned by VM.Interpret when the guest program hits a dynamic
// type error, an undefined name, an arity mismatch, or any other failure
// spec.md §7 classifies as a runtime error. The VM resets its stacks after
// producing one (spec.md §7's "resets stacks to empty"), so StackTrace is a
// frozen copy, not something callers can use to keep inspecting a live VM.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\nStack trace:")
		for _, frame := range e.StackTrace {
			b.WriteString(fmt.Sprintf("\n  at %s", frame.Name))
			if frame.SourceLine > 0 {
				b.WriteString(fmt.Sprintf(" [line %d]", frame.SourceLine))
			}
		}
	}
	return b.String()
}

func newRuntimeError(message string, trace []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: trace}
}
