package lexer

import (
	"testing"

	"github.com/adeptlang/go-adept/pkg/token"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeBasics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			"function header",
			"func main {",
			[]token.Kind{token.FUNC, token.IDENT, token.OPEN_BRACE, token.EOF},
		},
		{
			"operators",
			"a == b != c <= d >= e && f",
			[]token.Kind{
				token.IDENT, token.EQUALS, token.IDENT, token.NOT_EQUALS,
				token.IDENT, token.LESS_THAN_EQ, token.IDENT, token.GREATER_THAN_EQ,
				token.IDENT, token.UBERAND, token.IDENT, token.EOF,
			},
		},
		{
			"compound assignment",
			"x += 1 y <<= 2",
			[]token.Kind{
				token.IDENT, token.ADD_ASSIGN, token.GENERIC_INT,
				token.IDENT, token.LSHIFT_ASSIGN, token.GENERIC_INT, token.EOF,
			},
		},
		{
			"keywords",
			"if unless while until repeat each switch fallthrough",
			[]token.Kind{
				token.IF, token.UNLESS, token.WHILE, token.UNTIL, token.REPEAT,
				token.EACH, token.SWITCH, token.FALLTHROUGH, token.EOF,
			},
		},
		{
			"enum access",
			"Color::RED ::GREEN",
			[]token.Kind{
				token.IDENT, token.NAMESPACE_OP, token.IDENT,
				token.NAMESPACE_OP, token.IDENT, token.EOF,
			},
		},
		{
			"newlines survive",
			"a\nb",
			[]token.Kind{token.IDENT, token.NEWLINE, token.IDENT, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.input, 0)
			got := kinds(tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeLiterals(t *testing.T) {
	tests := []struct {
		input       string
		wantKind    token.Kind
		wantLiteral string
	}{
		{"42", token.GENERIC_INT, "42"},
		{"3.14", token.GENERIC_FLOAT, "3.14"},
		{"8sb", token.BYTE, "8"},
		{"8ub", token.UBYTE, "8"},
		{"8ss", token.SHORT, "8"},
		{"8us", token.USHORT, "8"},
		{"8si", token.INT, "8"},
		{"8ui", token.UINT, "8"},
		{"8sl", token.LONG, "8"},
		{"8ul", token.ULONG, "8"},
		{"8uz", token.USIZE, "8"},
		{"1.5f", token.FLOAT, "1.5"},
		{"1.5d", token.DOUBLE, "1.5"},
		{"0xFF", token.GENERIC_INT, "0xFF"},
		{`"hello\nworld"`, token.STRING, "hello\nworld"},
		{"'c string'", token.CSTRING, "c string"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := Tokenize(tt.input, 0)
			if tokens[0].Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", tokens[0].Kind, tt.wantKind)
			}
			if tokens[0].Literal != tt.wantLiteral {
				t.Errorf("literal = %q, want %q", tokens[0].Literal, tt.wantLiteral)
			}
		})
	}
}

func TestTokenizePolymorphs(t *testing.T) {
	tokens := Tokenize("$T $#N", 0)

	if tokens[0].Kind != token.POLYMORPH || tokens[0].Literal != "T" {
		t.Errorf("expected polymorph T, got %s %q", tokens[0].Kind, tokens[0].Literal)
	}
	if tokens[1].Kind != token.POLYCOUNT || tokens[1].Literal != "N" {
		t.Errorf("expected polycount N, got %s %q", tokens[1].Kind, tokens[1].Literal)
	}
}

func TestTokenizeComments(t *testing.T) {
	tokens := Tokenize("a // line comment\nb /* block */ c", 0)
	got := kinds(tokens)
	want := []token.Kind{token.IDENT, token.NEWLINE, token.IDENT, token.IDENT, token.EOF}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSourceLocations(t *testing.T) {
	tokens := Tokenize("ab cd", 3)

	if tokens[0].Source.Object != 3 {
		t.Errorf("object = %d, want 3", tokens[0].Source.Object)
	}
	if tokens[0].Source.Index != 0 || tokens[0].Source.Stride != 2 {
		t.Errorf("first token span = (%d, %d)", tokens[0].Source.Index, tokens[0].Source.Stride)
	}
	if tokens[1].Source.Index != 3 || tokens[1].Source.Stride != 2 {
		t.Errorf("second token span = (%d, %d)", tokens[1].Source.Index, tokens[1].Source.Stride)
	}
}
