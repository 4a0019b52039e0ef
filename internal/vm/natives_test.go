package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/7amdev/kriolu-go/internal/compiler"
	"github.com/7amdev/kriolu-go/internal/heap"
)

func TestDefineNatives_RelojuReturnsANumber(t *testing.T) {
	h := heap.New()
	fn, err := compiler.New(h).Compile(`imprimi tipo(reloju());`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out bytes.Buffer
	if err := New(h, &out).Interpret(fn); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "number" {
		t.Errorf("got %q, want number", out.String())
	}
}

func TestDefineNatives_TipoReportsEachKind(t *testing.T) {
	h := heap.New()
	fn, err := compiler.New(h).Compile(`
		imprimi tipo(1);
		imprimi tipo(verdadi);
		imprimi tipo(nulo);
		imprimi tipo("oi");
	`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out bytes.Buffer
	if err := New(h, &out).Interpret(fn); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "number\nboolean\nnulo\nstring" {
		t.Errorf("got %q", got)
	}
}

func TestDefineNatives_WrongArityIsARuntimeError(t *testing.T) {
	h := heap.New()
	fn, err := compiler.New(h).Compile(`tipo();`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out bytes.Buffer
	if err := New(h, &out).Interpret(fn); err == nil {
		t.Fatal("expected a runtime error for calling tipo with no arguments")
	}
}
