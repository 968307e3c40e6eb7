package ast

import (
	"testing"

	"sycz80/internal/token"
)

func ident(name string) *IdentDeclarator {
	return &IdentDeclarator{Name: token.Token{Kind: token.Ident, Text: name}}
}

func TestDeclaratorNameThroughWrappers(t *testing.T) {
	// int (*fp)(int, int) — name sits under FuncDeclarator(ParenDeclarator(PointerDeclarator(IdentDeclarator))).
	d := &FuncDeclarator{
		Inner: &ParenDeclarator{
			Inner: &PointerDeclarator{Inner: ident("fp")},
		},
	}
	got, ok := DeclaratorName(d)
	if !ok {
		t.Fatal("expected a name")
	}
	if got.Text != "fp" {
		t.Errorf("got name %q, want fp", got.Text)
	}
}

func TestDeclaratorNameAbstract(t *testing.T) {
	d := &PointerDeclarator{Inner: &NoIdentDeclarator{}}
	if _, ok := DeclaratorName(d); ok {
		t.Error("expected no name for an abstract declarator")
	}
}

func TestIsAbstract(t *testing.T) {
	cases := []struct {
		name string
		d    Declarator
		want bool
	}{
		{"bare ident", ident("x"), false},
		{"pointer to ident", &PointerDeclarator{Inner: ident("p")}, false},
		{"bare no-ident", &NoIdentDeclarator{}, true},
		{"array of no-ident", &ArrayDeclarator{Inner: &NoIdentDeclarator{}}, true},
		{"paren wrapping ident", &ParenDeclarator{Inner: ident("y")}, false},
	}
	for _, c := range cases {
		if got := IsAbstract(c.d); got != c.want {
			t.Errorf("%s: IsAbstract() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNodeFirstLastSpan(t *testing.T) {
	first := token.Token{Kind: token.KwInt, Text: "int"}
	last := token.Token{Kind: token.Semi, Text: ";"}
	n := &DeclList{base: span(first, last)}
	if n.First() != first {
		t.Errorf("First() = %v, want %v", n.First(), first)
	}
	if n.Last() != last {
		t.Errorf("Last() = %v, want %v", n.Last(), last)
	}
}
