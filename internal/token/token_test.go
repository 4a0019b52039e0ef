package token

import "testing"

func TestLookupIdentifier(t *testing.T) {
	tests := []struct {
		word     string
		expected Kind
	}{
		{"mimoria", Mimoria},
		{"funson", Funson},
		{"divolvi", Divolvi},
		{"si", Si},
		{"sinou", Sinou},
		{"timenti", Timenti},
		{"di", Di},
		{"pa", Pa},
		{"sai", Sai},
		{"salta", Salta},
		{"klasi", Klasi},
		{"keli", Keli},
		{"riba", Riba},
		{"e", E},
		{"ou", Ou},
		{"ka", Ka},
		{"verdadi", Verdadi},
		{"falsu", Falsu},
		{"nulo", Nulo},
		{"imprimi", Imprimi},
		{"notaKeyword", Identifier},
		{"x", Identifier},
		{"", Identifier},
	}

	for _, tt := range tests {
		if got := LookupIdentifier(tt.word); got != tt.expected {
			t.Errorf("LookupIdentifier(%q) = %v, want %v", tt.word, got, tt.expected)
		}
	}
}

func TestKindString(t *testing.T) {
	if EOF.String() == "" {
		t.Error("EOF.String() returned empty string")
	}
	if Mimoria.String() == Funson.String() {
		t.Error("distinct kinds stringified identically")
	}
}
