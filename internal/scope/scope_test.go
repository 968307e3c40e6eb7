package scope

import (
	"testing"

	"sycz80/internal/token"
	"sycz80/internal/types"
)

func TestInsertAndLookup(t *testing.T) {
	root := NewRoot()
	if err := root.Insert(Member{Ident: "x", Type: types.Basic(types.Int), Variant: GlobalSymbol}); err != nil {
		t.Fatal(err)
	}
	if err := root.Insert(Member{Ident: "x", Type: types.Basic(types.Int)}); err != ErrDuplicate {
		t.Fatalf("duplicate insert = %v; want ErrDuplicate", err)
	}
}

func TestNestedShadowing(t *testing.T) {
	root := NewRoot()
	root.Insert(Member{Ident: "x", Type: types.Basic(types.Int), Variant: GlobalSymbol})
	inner := root.Nested()
	inner.Insert(Member{Ident: "x", Type: types.Basic(types.Char), Variant: LocalVariable})

	m, ok := inner.Lookup("x")
	if !ok || m.Type.Elem != types.Char {
		t.Fatalf("inner lookup = %+v; want shadowed char binding", m)
	}
	m, ok = root.Lookup("x")
	if !ok || m.Type.Elem != types.Int {
		t.Fatalf("root lookup = %+v; want original int binding", m)
	}
}

func TestLookupMissing(t *testing.T) {
	root := NewRoot()
	if _, ok := root.Lookup("nope"); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestSymbolIndexMonotone(t *testing.T) {
	idx := NewIndex()
	idx.Declare("f", zeroTok(), LinkDefault)
	s, _ := idx.Lookup("f")
	if s.State != Declared {
		t.Fatalf("state = %v; want Declared", s.State)
	}
	idx.Define("f", zeroTok(), LinkDefault)
	s, _ = idx.Lookup("f")
	if s.State != Defined {
		t.Fatalf("state = %v; want Defined", s.State)
	}
	// Declaring again must not demote.
	idx.Declare("f", zeroTok(), LinkDefault)
	s, _ = idx.Lookup("f")
	if s.State != Defined {
		t.Fatalf("state after re-declare = %v; want still Defined", s.State)
	}
}

func TestLabelTable(t *testing.T) {
	lt := NewLabelTable()
	lt.Use("done")
	if u := lt.Undefined(); len(u) != 1 || u[0].Ident != "done" {
		t.Fatalf("undefined = %v; want [done]", u)
	}
	if _, err := lt.Define("done", zeroTok()); err != nil {
		t.Fatal(err)
	}
	if u := lt.Undefined(); len(u) != 0 {
		t.Fatalf("undefined after define = %v; want none", u)
	}
	if _, err := lt.Define("done", zeroTok()); err != ErrDuplicate {
		t.Fatalf("redefine = %v; want ErrDuplicate", err)
	}
}

func zeroTok() token.Token { return token.Token{} }
