package ast

import (
	"strings"
	"testing"
)

func TestParse_VarDecl(t *testing.T) {
	prog := Parse(`mimoria idadi = 42;`)
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*VarDecl)
	if !ok {
		t.Fatalf("expected *VarDecl, got %T", prog.Statements[0])
	}
	if decl.Name != "idadi" {
		t.Errorf("expected name idadi, got %s", decl.Name)
	}
	lit, ok := decl.Init.(*Literal)
	if !ok || lit.Text != "42" {
		t.Errorf("expected Init Literal 42, got %#v", decl.Init)
	}
}

func TestParse_FuncDecl(t *testing.T) {
	prog := Parse(`funson sauda(nomi) { imprimi nomi; }`)
	fn, ok := prog.Statements[0].(*FuncDecl)
	if !ok {
		t.Fatalf("expected *FuncDecl, got %T", prog.Statements[0])
	}
	if fn.Name != "sauda" || len(fn.Params) != 1 || fn.Params[0] != "nomi" {
		t.Fatalf("unexpected func decl: %+v", fn)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body))
	}
	if _, ok := fn.Body[0].(*Print); !ok {
		t.Errorf("expected Print statement, got %T", fn.Body[0])
	}
}

func TestParse_ClassDeclWithSuperclass(t *testing.T) {
	prog := Parse(`klasi Gatu < Animal { konstrutor() { keli.nomi = "Mimi"; } }`)
	class, ok := prog.Statements[0].(*ClassDecl)
	if !ok {
		t.Fatalf("expected *ClassDecl, got %T", prog.Statements[0])
	}
	if class.Name != "Gatu" || class.SuperClass != "Animal" {
		t.Fatalf("unexpected class decl: %+v", class)
	}
	if len(class.Methods) != 1 || class.Methods[0].Name != "konstrutor" {
		t.Fatalf("unexpected methods: %+v", class.Methods)
	}
}

func TestParse_IfElseAndWhile(t *testing.T) {
	prog := Parse(`
		si (verdadi) { imprimi 1; } sinou { imprimi 2; }
		timenti (falsu) { imprimi 3; }
	`)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
	ifStmt, ok := prog.Statements[0].(*If)
	if !ok {
		t.Fatalf("expected *If, got %T", prog.Statements[0])
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("unexpected if shape: %+v", ifStmt)
	}
	if _, ok := prog.Statements[1].(*While); !ok {
		t.Fatalf("expected *While, got %T", prog.Statements[1])
	}
}

func TestParse_BinaryPrecedence(t *testing.T) {
	prog := Parse(`1 + 2 * 3;`)
	exprStmt := prog.Statements[0].(*ExprStmt)
	bin, ok := exprStmt.Expr.(*Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level +, got %#v", exprStmt.Expr)
	}
	rhs, ok := bin.Right.(*Binary)
	if !ok || rhs.Op != "*" {
		t.Fatalf("expected right-hand * term, got %#v", bin.Right)
	}
}

func TestParse_CallExpression(t *testing.T) {
	prog := Parse(`sauda("Djon");`)
	exprStmt := prog.Statements[0].(*ExprStmt)
	call, ok := exprStmt.Expr.(*Call)
	if !ok {
		t.Fatalf("expected *Call, got %T", exprStmt.Expr)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(call.Args))
	}
}

func TestDump_IsIndentedAndNonEmpty(t *testing.T) {
	prog := Parse(`mimoria x = 1;`)
	out := prog.Dump(0)
	if !strings.Contains(out, "VarDecl x") {
		t.Errorf("expected dump to mention VarDecl x, got %q", out)
	}
}
