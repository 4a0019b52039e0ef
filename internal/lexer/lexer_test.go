package lexer

import (
	"testing"

	"github.com/7amdev/kriolu-go/internal/token"
)

func TestNextToken_BasicTokens(t *testing.T) {
	input := `( ) { } , . - + ; / * ^`

	tests := []struct {
		expectedKind   token.Kind
		expectedLexeme string
	}{
		{token.LeftParen, "("},
		{token.RightParen, ")"},
		{token.LeftBrace, "{"},
		{token.RightBrace, "}"},
		{token.Comma, ","},
		{token.Dot, "."},
		{token.Minus, "-"},
		{token.Plus, "+"},
		{token.Semicolon, ";"},
		{token.Slash, "/"},
		{token.Star, "*"},
		{token.Caret, "^"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - kind wrong. expected=%v, got=%v", i, tt.expectedKind, tok.Kind)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestNextToken_ComparisonAndAssignment(t *testing.T) {
	input := `= == < <= > >= !=`

	tests := []token.Kind{
		token.Equal,
		token.EqualEqual,
		token.Less,
		token.LessEqual,
		token.Greater,
		token.GreaterEqual,
		token.BangEqual,
		token.EOF,
	}

	l := New(input)
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Kind != expected {
			t.Fatalf("tests[%d] - kind wrong. expected=%v, got=%v", i, expected, tok.Kind)
		}
	}
}

func TestNextToken_Keywords(t *testing.T) {
	input := `mimoria funson divolvi si sinou timenti di pa sai salta klasi keli riba e ou ka verdadi falsu nulo imprimi`

	tests := []token.Kind{
		token.Mimoria, token.Funson, token.Divolvi, token.Si, token.Sinou,
		token.Timenti, token.Di, token.Pa, token.Sai, token.Salta,
		token.Klasi, token.Keli, token.Riba, token.E, token.Ou, token.Ka,
		token.Verdadi, token.Falsu, token.Nulo, token.Imprimi, token.EOF,
	}

	l := New(input)
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Kind != expected {
			t.Fatalf("tests[%d] - kind wrong. expected=%v, got=%v (lexeme %q)", i, expected, tok.Kind, tok.Lexeme)
		}
	}
}

func TestNextToken_NumbersAndIdentifiers(t *testing.T) {
	input := `mimoria idadi = 42.5;`

	l := New(input)
	expect := []struct {
		kind   token.Kind
		lexeme string
	}{
		{token.Mimoria, "mimoria"},
		{token.Identifier, "idadi"},
		{token.Equal, "="},
		{token.Number, "42.5"},
		{token.Semicolon, ";"},
		{token.EOF, ""},
	}
	for i, tt := range expect {
		tok := l.NextToken()
		if tok.Kind != tt.kind || tok.Lexeme != tt.lexeme {
			t.Fatalf("tests[%d] - got {%v %q}, want {%v %q}", i, tok.Kind, tok.Lexeme, tt.kind, tt.lexeme)
		}
	}
}

func TestNextToken_LineTracking(t *testing.T) {
	input := "mimoria x = 1;\nmimoria y = 2;"

	l := New(input)
	var firstLine, secondLine int
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.Mimoria && firstLine == 0 {
			firstLine = tok.Line
		} else if tok.Kind == token.Mimoria {
			secondLine = tok.Line
		}
	}
	if firstLine != 1 || secondLine != 2 {
		t.Errorf("expected lines 1 and 2, got %d and %d", firstLine, secondLine)
	}
}

func TestNextToken_SkipsLineComments(t *testing.T) {
	input := "// a whole comment line\nmimoria x = 1;"

	l := New(input)
	tok := l.NextToken()
	if tok.Kind != token.Mimoria {
		t.Fatalf("expected comment to be skipped, got %v %q", tok.Kind, tok.Lexeme)
	}
}

func TestNextToken_SimpleString(t *testing.T) {
	l := New(`"txeu dimokransa"`)
	tok := l.NextToken()
	if tok.Kind != token.String || tok.Lexeme != "txeu dimokransa" {
		t.Fatalf("got {%v %q}", tok.Kind, tok.Lexeme)
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	l := New(`"sin fin`)
	tok := l.NextToken()
	if tok.Kind != token.Illegal {
		t.Fatalf("expected Illegal for unterminated string, got %v", tok.Kind)
	}
}

func TestNextToken_StringInterpolation(t *testing.T) {
	// "oi {nomi}!" -> InterpolationStart("oi "), Identifier(nomi), InterpolationEnd, then resumed String("!")
	l := New(`"oi {nomi}!"`)

	start := l.NextToken()
	if start.Kind != token.InterpolationStart || start.Lexeme != "oi " {
		t.Fatalf("start: got {%v %q}", start.Kind, start.Lexeme)
	}

	ident := l.NextToken()
	if ident.Kind != token.Identifier || ident.Lexeme != "nomi" {
		t.Fatalf("ident: got {%v %q}", ident.Kind, ident.Lexeme)
	}

	end := l.NextToken()
	if end.Kind != token.InterpolationEnd {
		t.Fatalf("end: got %v", end.Kind)
	}

	resumed := l.ResumeString()
	if resumed.Kind != token.String || resumed.Lexeme != "!" {
		t.Fatalf("resumed: got {%v %q}", resumed.Kind, resumed.Lexeme)
	}
}

func TestTokenize_ReturnsErrorOnIllegalCharacter(t *testing.T) {
	l := New(`mimoria x = 1 @ 2;`)
	_, err := l.Tokenize()
	if err == nil {
		t.Fatal("expected an error for an illegal character")
	}
}

func TestTokenize_DrainsToEOF(t *testing.T) {
	l := New(`imprimi 1 + 2;`)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		t.Fatalf("expected token stream to end with EOF, got %+v", tokens)
	}
}
