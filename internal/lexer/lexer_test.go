package lexer

import (
	"strings"
	"testing"

	"sycz80/internal/pos"
	"sycz80/internal/token"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(pos.NewByteReader(strings.NewReader(src), "t.c"))
	var out []token.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestPunctuators(t *testing.T) {
	cases := []struct {
		src  string
		want token.Kind
	}{
		{"+", token.Plus}, {"++", token.PlusPlus}, {"+=", token.PlusEq},
		{"-", token.Minus}, {"--", token.MinusMinus}, {"->", token.Arrow},
		{"<<=", token.LShiftEq}, {"<<", token.LShift}, {"<=", token.LtEq}, {"<", token.Lt},
		{"...", token.Ellipsis}, {".", token.Dot},
		{"==", token.EqEq}, {"=", token.Assign},
	}
	for _, c := range cases {
		toks := tokenize(t, c.src)
		if len(toks) != 2 || toks[0].Kind != c.want {
			t.Errorf("tokenize(%q) = %v; want [%v eof]", c.src, kinds(toks), c.want)
			continue
		}
		if toks[0].Text != c.src {
			t.Errorf("tokenize(%q) text = %q; want %q", c.src, toks[0].Text, c.src)
		}
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := tokenize(t, "int x_1 return sizeof")
	var got []token.Kind
	for _, tok := range toks {
		if tok.Kind != token.Space {
			got = append(got, tok.Kind)
		}
	}
	want := []token.Kind{token.KwInt, token.Ident, token.KwReturn, token.KwSizeof, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v; want %v", i, got[i], want[i])
		}
	}
}

func TestNumbers(t *testing.T) {
	for _, src := range []string{"0", "123", "0x1F", "0X1f", "017", "123u", "123UL", "123ll"} {
		toks := tokenize(t, src)
		if toks[0].Kind != token.Number || toks[0].Text != src {
			t.Errorf("tokenize(%q) = %+v; want a single Number token with that text", src, toks[0])
		}
	}
}

func TestStringAndCharLiterals(t *testing.T) {
	toks := tokenize(t, `"hello\n" 'a' L"wide" u8"u8str" '\x41'`)
	var lits []token.Token
	for _, tok := range toks {
		if tok.Kind == token.StringLit || tok.Kind == token.CharLit {
			lits = append(lits, tok)
		}
	}
	want := []struct {
		kind token.Kind
		text string
	}{
		{token.StringLit, `"hello\n"`},
		{token.CharLit, `'a'`},
		{token.StringLit, `L"wide"`},
		{token.StringLit, `u8"u8str"`},
		{token.CharLit, `'\x41'`},
	}
	if len(lits) != len(want) {
		t.Fatalf("got %d literals; want %d (%+v)", len(lits), len(want), lits)
	}
	for i, w := range want {
		if lits[i].Kind != w.kind || lits[i].Text != w.text {
			t.Errorf("literal %d = %+v; want kind %v text %q", i, lits[i], w.kind, w.text)
		}
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	toks := tokenize(t, `"no closing quote`)
	if toks[0].Kind != token.Error {
		t.Fatalf("tokenize(unterminated string) = %v; want Error", toks[0].Kind)
	}
}

func TestLineComment(t *testing.T) {
	toks := tokenize(t, "// a comment\nx")
	if toks[0].Kind != token.LineComment || toks[0].Text != "// a comment" {
		t.Fatalf("first token = %+v", toks[0])
	}
}

func TestBlockCommentRun(t *testing.T) {
	l := New(pos.NewByteReader(strings.NewReader("/* hi\nthere */x"), "t.c"))
	open := l.Next()
	if open.Kind != token.BlockCommentOpen {
		t.Fatalf("first token = %v; want BlockCommentOpen", open.Kind)
	}
	body := l.LexBlockCommentBody()
	if len(body) == 0 || body[len(body)-1].Kind != token.BlockCommentClose {
		t.Fatalf("block comment body = %+v; want it to end in BlockCommentClose", body)
	}
	next := l.Next()
	if next.Kind != token.Ident || next.Text != "x" {
		t.Fatalf("token after comment = %+v; want ident x", next)
	}
}

func TestPreprocessorLinePassthrough(t *testing.T) {
	toks := tokenize(t, "#include <stdio.h>\nint x;")
	if toks[0].Kind != token.PPLine || toks[0].Text != "#include <stdio.h>" {
		t.Fatalf("first token = %+v", toks[0])
	}
}

func TestPositionsTrackLinesAndTabs(t *testing.T) {
	toks := tokenize(t, "int\n\tx;")
	var ident token.Token
	for _, tok := range toks {
		if tok.Kind == token.Ident {
			ident = tok
		}
	}
	if ident.Begin.Line != 2 || ident.Begin.Col != 9 {
		t.Fatalf("ident begin = %+v; want line 2 col 9 (tab stop of 8)", ident.Begin)
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New(pos.NewByteReader(strings.NewReader(""), "t.c"))
	first := l.Next()
	second := l.Next()
	if first.Kind != token.EOF || second.Kind != token.EOF {
		t.Fatalf("got %v, %v; want eof, eof", first.Kind, second.Kind)
	}
}

func TestInvalidCharacter(t *testing.T) {
	toks := tokenize(t, "@")
	if toks[0].Kind != token.Invalid {
		t.Fatalf("tokenize(\"@\") = %v; want Invalid", toks[0].Kind)
	}
}

func TestLongSourceCrossesLookaheadWindow(t *testing.T) {
	src := strings.Repeat("a", 200) + " " + strings.Repeat("1", 200)
	toks := tokenize(t, src)
	if toks[0].Kind != token.Ident || len(toks[0].Text) != 200 {
		t.Fatalf("first token len = %d; want 200", len(toks[0].Text))
	}
	if toks[2].Kind != token.Number || len(toks[2].Text) != 200 {
		t.Fatalf("third token len = %d; want 200", len(toks[2].Text))
	}
}
