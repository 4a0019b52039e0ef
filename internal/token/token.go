// Package token defines the lexical token kinds shared by the lexer and the
// compiler's Pratt tables.
//
// Kriolu's keywords are Cape Verdean Creole words standing in for the usual
// scripting-language vocabulary: mimoria ("memory", var), funson ("function"),
// si/sinou ("if"/"else, or-so"), timenti ("while"), di/pa ("for", two spellings
// that both open a for-loop), klasi ("class"), keli/riba ("this"/"on top",
// super), divolvi ("return"), imprimi ("print"), sai/salta ("exit"/"jump",
// break/continue).
package token

// Kind identifies the lexical category of a Token.
type Kind int

// Token kinds. Order has no significance; String() below is the map to a
// human-readable name used in diagnostics and the -lexer dump.
const (
	EOF Kind = iota
	Illegal

	// Literals
	Number
	String
	Identifier

	// Keywords
	Mimoria  // mimoria   - var
	Funson   // funson    - function
	Divolvi  // divolvi   - return
	Si       // si        - if
	Sinou    // sinou     - else
	Timenti  // timenti   - while
	Di       // di        - for (spelling 1)
	Pa       // pa        - for (spelling 2)
	Sai      // sai       - break
	Salta    // salta     - continue
	Klasi    // klasi     - class
	Keli     // keli      - this
	Riba     // riba      - super
	E        // e         - and
	Ou       // ou        - or
	Ka       // ka        - not
	Verdadi  // verdadi   - true
	Falsu    // falsu     - false
	Nulo     // nulo      - nil
	Imprimi  // imprimi   - print

	// Punctuation
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star
	Caret // exponentiation

	// One or two character tokens. There is no unary "!" token: logical not
	// is the keyword ka. "!=" is still a binary comparison operator, lowered
	// to Equal+Not by the compiler (see internal/compiler).
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual
	BangEqual

	// Interpolation markers, emitted by the lexer while inside a templated
	// string literal (see internal/lexer for the state machine).
	InterpolationStart
	InterpolationEnd
)

// keywords maps the reserved Kriolu identifiers to their token kind. The
// lexer consults this after scanning an identifier-shaped run of characters.
var keywords = map[string]Kind{
	"mimoria": Mimoria,
	"funson":  Funson,
	"divolvi": Divolvi,
	"si":      Si,
	"sinou":   Sinou,
	"timenti": Timenti,
	"di":      Di,
	"pa":      Pa,
	"sai":     Sai,
	"salta":   Salta,
	"klasi":   Klasi,
	"keli":    Keli,
	"riba":    Riba,
	"e":       E,
	"ou":      Ou,
	"ka":      Ka,
	"verdadi": Verdadi,
	"falsu":   Falsu,
	"nulo":    Nulo,
	"imprimi": Imprimi,
}

// LookupIdentifier returns Identifier, or the keyword Kind if word is a
// reserved Kriolu keyword.
func LookupIdentifier(word string) Kind {
	if kind, ok := keywords[word]; ok {
		return kind
	}
	return Identifier
}

// Token is a single lexical unit produced by the lexer and consumed by the
// compiler's Pratt parser.
type Token struct {
	Kind    Kind
	Lexeme  string
	Line    int
}

// String implements fmt.Stringer, used by the -lexer dump and diagnostics.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

var kindNames = map[Kind]string{
	EOF:                 "EOF",
	Illegal:              "ILLEGAL",
	Number:               "NUMBER",
	String:               "STRING",
	Identifier:           "IDENTIFIER",
	Mimoria:              "MIMORIA",
	Funson:               "FUNSON",
	Divolvi:              "DIVOLVI",
	Si:                   "SI",
	Sinou:                "SINOU",
	Timenti:              "TIMENTI",
	Di:                   "DI",
	Pa:                   "PA",
	Sai:                  "SAI",
	Salta:                "SALTA",
	Klasi:                "KLASI",
	Keli:                 "KELI",
	Riba:                 "RIBA",
	E:                    "E",
	Ou:                   "OU",
	Ka:                   "KA",
	Verdadi:              "VERDADI",
	Falsu:                "FALSU",
	Nulo:                 "NULO",
	Imprimi:              "IMPRIMI",
	LeftParen:            "LEFT_PAREN",
	RightParen:           "RIGHT_PAREN",
	LeftBrace:            "LEFT_BRACE",
	RightBrace:           "RIGHT_BRACE",
	Comma:                "COMMA",
	Dot:                  "DOT",
	Minus:                "MINUS",
	Plus:                 "PLUS",
	Semicolon:            "SEMICOLON",
	Slash:                "SLASH",
	Star:                 "STAR",
	Caret:                "CARET",
	Equal:                "EQUAL",
	EqualEqual:           "EQUAL_EQUAL",
	Greater:              "GREATER",
	GreaterEqual:         "GREATER_EQUAL",
	Less:                 "LESS",
	LessEqual:            "LESS_EQUAL",
	BangEqual:            "BANG_EQUAL",
	InterpolationStart:   "INTERPOLATION_START",
	InterpolationEnd:     "INTERPOLATION_END",
}
