package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/7amdev/kriolu-go/internal/compiler"
	"github.com/7amdev/kriolu-go/internal/heap"
)

func TestDebugger_DisabledByDefaultProducesNoTrace(t *testing.T) {
	h := heap.New()
	fn, _ := compiler.New(h).Compile(`imprimi 1;`)
	var out, trace bytes.Buffer
	machine := New(h, &out)
	d := NewDebugger(machine, &trace)
	machine.AttachDebugger(d)

	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trace.Len() != 0 {
		t.Errorf("expected no trace output while disabled, got %q", trace.String())
	}
}

func TestDebugger_EnabledTracesEachInstruction(t *testing.T) {
	h := heap.New()
	fn, _ := compiler.New(h).Compile(`imprimi 1;`)
	var out, trace bytes.Buffer
	machine := New(h, &out)
	d := NewDebugger(machine, &trace)
	d.Enable()
	machine.AttachDebugger(d)

	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(trace.String(), "CONSTANT") {
		t.Errorf("expected a disassembled instruction in the trace, got %q", trace.String())
	}
}

func TestDebugger_StepModeShowsStack(t *testing.T) {
	h := heap.New()
	fn, _ := compiler.New(h).Compile(`mimoria x = 1;`)
	var out, trace bytes.Buffer
	machine := New(h, &out)
	d := NewDebugger(machine, &trace)
	d.Enable()
	d.SetStepMode(true)
	machine.AttachDebugger(d)

	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(trace.String(), "[") {
		t.Errorf("expected stack contents bracketed in the trace, got %q", trace.String())
	}
}

func TestDebugger_BreakpointAddRemoveClear(t *testing.T) {
	d := NewDebugger(nil, &bytes.Buffer{})
	d.AddBreakpoint(3)
	if !d.breakpoints[3] {
		t.Fatal("expected breakpoint at offset 3")
	}
	d.RemoveBreakpoint(3)
	if d.breakpoints[3] {
		t.Fatal("expected breakpoint to be removed")
	}
	d.AddBreakpoint(1)
	d.AddBreakpoint(2)
	d.ClearBreakpoints()
	if len(d.breakpoints) != 0 {
		t.Fatal("expected ClearBreakpoints to empty the set")
	}
}
