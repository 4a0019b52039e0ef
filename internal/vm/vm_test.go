package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/7amdev/kriolu-go/internal/compiler"
	"github.com/7amdev/kriolu-go/internal/heap"
)

// run compiles and interprets source against a fresh heap and VM, returning
// everything imprimi wrote plus any error Interpret returned.
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	h := heap.New()
	fn, err := compiler.New(h).Compile(source)
	if err != nil {
		t.Fatalf("compile error for %q: %v", source, err)
	}
	var out bytes.Buffer
	vm := New(h, &out)
	err = vm.Interpret(fn)
	return out.String(), err
}

func TestInterpret_ArithmeticAndPrint(t *testing.T) {
	out, err := run(t, `imprimi 1 + 2 * 3;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Errorf("got %q, want 7", out)
	}
}

func TestInterpret_PowerIsRightAssociative(t *testing.T) {
	// 2^(3^2) = 2^9 = 512, not (2^3)^2 = 64
	out, _ := run(t, `imprimi 2 ^ 3 ^ 2;`)
	if strings.TrimSpace(out) != "512" {
		t.Errorf("got %q, want 512", out)
	}
}

func TestInterpret_GlobalVariables(t *testing.T) {
	out, err := run(t, `
		mimoria idadi = 10;
		idadi = idadi + 5;
		imprimi idadi;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "15" {
		t.Errorf("got %q, want 15", out)
	}
}

func TestInterpret_UndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `imprimi kusaQuenNaFaze;`)
	if err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
}

func TestInterpret_IfElse(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`si (verdadi) { imprimi "sin"; } sinou { imprimi "ka"; }`, "sin"},
		{`si (falsu) { imprimi "sin"; } sinou { imprimi "ka"; }`, "ka"},
	}
	for _, tt := range tests {
		out, err := run(t, tt.source)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) != tt.want {
			t.Errorf("source %q: got %q, want %q", tt.source, out, tt.want)
		}
	}
}

func TestInterpret_WhileLoop(t *testing.T) {
	out, err := run(t, `
		mimoria i = 0;
		timenti (i < 3) {
			imprimi i;
			i = i + 1;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "0\n1\n2" {
		t.Errorf("got %q", out)
	}
}

func TestInterpret_ForLoopAndBreakContinue(t *testing.T) {
	out, err := run(t, `
		di (mimoria i = 0; i < 5; i = i + 1) {
			si (i == 1) { salta; }
			si (i == 3) { sai; }
			imprimi i;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "0\n2" {
		t.Errorf("got %q, want 0\\n2", out)
	}
}

func TestInterpret_FunctionCallAndReturn(t *testing.T) {
	out, err := run(t, `
		funson dobru(x) { divolvi x * 2; }
		imprimi dobru(21);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "42" {
		t.Errorf("got %q, want 42", out)
	}
}

func TestInterpret_Recursion(t *testing.T) {
	out, err := run(t, `
		funson fatorial(n) {
			si (n <= 1) { divolvi 1; }
			divolvi n * fatorial(n - 1);
		}
		imprimi fatorial(5);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "120" {
		t.Errorf("got %q, want 120", out)
	}
}

func TestInterpret_ClosureCapturesByReference(t *testing.T) {
	out, err := run(t, `
		funson kontador() {
			mimoria n = 0;
			funson incrimenta() {
				n = n + 1;
				divolvi n;
			}
			divolvi incrimenta;
		}
		mimoria c = kontador();
		imprimi c();
		imprimi c();
		imprimi c();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "1\n2\n3" {
		t.Errorf("got %q, want 1\\n2\\n3", out)
	}
}

func TestInterpret_ClosuresDoNotShareState(t *testing.T) {
	out, err := run(t, `
		funson kontador() {
			mimoria n = 0;
			funson incrimenta() { n = n + 1; divolvi n; }
			divolvi incrimenta;
		}
		mimoria a = kontador();
		mimoria b = kontador();
		imprimi a();
		imprimi a();
		imprimi b();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "1\n2\n1" {
		t.Errorf("got %q, want 1\\n2\\n1 (independent closures)", out)
	}
}

func TestInterpret_ClassInstancesAndMethods(t *testing.T) {
	out, err := run(t, `
		klasi Pesoa {
			konstrutor(nomi) {
				keli.nomi = nomi;
			}
			sauda() {
				divolvi "oi {keli.nomi}";
			}
		}
		mimoria p = Pesoa{"Djon"};
		imprimi p.sauda();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "oi Djon" {
		t.Errorf("got %q, want %q", out, "oi Djon")
	}
}

func TestInterpret_Inheritance(t *testing.T) {
	out, err := run(t, `
		klasi Animal {
			faluBarulhu() { divolvi "..."; }
		}
		klasi Katxor < Animal {
			faluBarulhu() { divolvi "Au Au"; }
			barulhuDiPai() { divolvi riba.faluBarulhu(); }
		}
		mimoria k = Katxor{};
		imprimi k.faluBarulhu();
		imprimi k.barulhuDiPai();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "Au Au\n..." {
		t.Errorf("got %q, want \"Au Au\\n...\"", out)
	}
}

func TestInterpret_InheritedMethodWithoutOverride(t *testing.T) {
	out, err := run(t, `
		klasi Animal { nomi() { divolvi "bixu"; } }
		klasi Gatu < Animal {}
		mimoria g = Gatu{};
		imprimi g.nomi();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "bixu" {
		t.Errorf("got %q, want bixu", out)
	}
}

func TestInterpret_RuntimeErrorResetsStacks(t *testing.T) {
	h := heap.New()
	fn, err := compiler.New(h).Compile(`imprimi 1 + verdadi;`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	var out bytes.Buffer
	machine := New(h, &out)
	if err := machine.Interpret(fn); err == nil {
		t.Fatal("expected a runtime error adding a number to a boolean")
	}
	if len(machine.stack) != 0 || len(machine.frames) != 0 {
		t.Errorf("expected stacks to reset after a runtime error, stack=%d frames=%d", len(machine.stack), len(machine.frames))
	}
}

func TestInterpret_DivisionByZero(t *testing.T) {
	out, err := run(t, `imprimi 1 / 0; imprimi 0 / 0;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "+Inf\nNaN" {
		t.Errorf("got %q, want %q", out, "+Inf\nNaN")
	}
}

func TestInterpret_StringConcatenation(t *testing.T) {
	out, err := run(t, `mimoria a = "ola"; mimoria b = " mundo"; imprimi a + b;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "ola mundo" {
		t.Errorf("got %q, want %q", out, "ola mundo")
	}
}

func TestInterpret_NativeFunctions(t *testing.T) {
	out, err := run(t, `imprimi tipo(1);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "number" {
		t.Errorf("got %q, want number", out)
	}
}

func TestInterpret_TruthinessOfNilAndZero(t *testing.T) {
	out, err := run(t, `
		si (nulo) { imprimi "t"; } sinou { imprimi "f"; }
		si (0) { imprimi "t"; } sinou { imprimi "f"; }
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "f\nt" {
		t.Errorf("got %q, want \"f\\nt\" (0 is truthy, nulo is falsey)", out)
	}
}
