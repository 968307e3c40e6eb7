package codegen

import (
	"strings"
	"testing"

	"sycz80/internal/diag"
	"sycz80/internal/ir"
	"sycz80/internal/lexer"
	"sycz80/internal/parser"
	"sycz80/internal/pos"
)

func lowerSrc(t *testing.T, src string) (*ir.Module, *diag.Counter) {
	t.Helper()
	lex := lexer.New(pos.NewByteReader(strings.NewReader(src), "t.c"))
	cur := parser.NewCursor(lex)
	p := parser.New(cur, nil, func(string) bool { return false })
	mod, err := p.ParseModule()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	sink := &diag.Counter{}
	return Lower(mod, sink), sink
}

func findProc(t *testing.T, m *ir.Module, name string) *ir.Procedure {
	t.Helper()
	for i := 0; i < m.Decls.Len(); i++ {
		d := m.Decls.At(i)
		if d.Kind == ir.DeclProcedure && d.Proc.Ident == name {
			return d.Proc
		}
	}
	t.Fatalf("no procedure named %q", name)
	return nil
}

func findVar(t *testing.T, m *ir.Module, name string) *ir.Variable {
	t.Helper()
	for i := 0; i < m.Decls.Len(); i++ {
		d := m.Decls.At(i)
		if d.Kind == ir.DeclVariable && d.Var.Ident == name {
			return d.Var
		}
	}
	t.Fatalf("no variable named %q", name)
	return nil
}

// instrs returns a procedure's instructions, skipping pure-label entries.
func instrs(p *ir.Procedure) []*ir.Instr {
	var out []*ir.Instr
	for i := 0; i < p.Body.Len(); i++ {
		if instr := p.Body.At(i).Instr; instr != nil {
			out = append(out, instr)
		}
	}
	return out
}

func TestLowerSimpleFunction(t *testing.T) {
	m, sink := lowerSrc(t, "int add(int a, int b) { return a + b; }")
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Errors)
	}
	proc := findProc(t, m, "add")
	if len(proc.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(proc.Args))
	}
	if proc.ReturnType == nil {
		t.Fatal("expected a non-void return type")
	}

	var sawAdd, sawRetv bool
	for _, instr := range instrs(proc) {
		switch instr.Op {
		case ir.OpAdd:
			sawAdd = true
		case ir.OpRetv:
			sawRetv = true
		}
	}
	if !sawAdd {
		t.Error("expected an add instruction")
	}
	if !sawRetv {
		t.Error("expected a retv instruction")
	}
}

func TestLowerGlobalScalarInitializer(t *testing.T) {
	m, sink := lowerSrc(t, "int counter = 42;")
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Errors)
	}
	v := findVar(t, m, "counter")
	if v.Data.Len() != 1 {
		t.Fatalf("got %d data entries, want 1", v.Data.Len())
	}
	entry := v.Data.At(0)
	if entry.Kind != ir.DataInt || entry.IntVal != 42 {
		t.Errorf("got %+v, want DataInt 42", entry)
	}
}

func TestLowerGlobalInitializerRejectsNonConstant(t *testing.T) {
	sink := &diag.Counter{}
	src := "int f(void); int x = f();"
	lex := lexer.New(pos.NewByteReader(strings.NewReader(src), "t.c"))
	cur := parser.NewCursor(lex)
	p := parser.New(cur, nil, func(string) bool { return false })
	mod, err := p.ParseModule()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	Lower(mod, sink)
	if !sink.HasErrors() {
		t.Error("expected an error for a non-constant global initializer")
	}
}

func TestLowerIfElseEmitsConditionalJump(t *testing.T) {
	m, sink := lowerSrc(t, `int f(int x) {
		if (x > 0)
			return 1;
		else
			return 0;
	}`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Errors)
	}
	proc := findProc(t, m, "f")
	var sawGt, sawJz bool
	for _, instr := range instrs(proc) {
		switch instr.Op {
		case ir.OpGt:
			sawGt = true
		case ir.OpJz:
			sawJz = true
		}
	}
	if !sawGt || !sawJz {
		t.Errorf("expected a gt comparison and a jz branch, got sawGt=%v sawJz=%v", sawGt, sawJz)
	}
}

func TestLowerWhileLoopBreakContinue(t *testing.T) {
	m, sink := lowerSrc(t, `void f(void) {
		while (1) {
			if (1)
				break;
			continue;
		}
	}`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Errors)
	}
	proc := findProc(t, m, "f")
	jumps := 0
	for _, instr := range instrs(proc) {
		if instr.Op == ir.OpJmp {
			jumps++
		}
	}
	if jumps < 2 {
		t.Errorf("expected at least 2 unconditional jumps (break + continue), got %d", jumps)
	}
}

func TestLowerSwitchStatementBuildsComparisonChain(t *testing.T) {
	m, sink := lowerSrc(t, `int f(int x) {
		switch (x) {
		case 1:
			return 10;
		case 2:
			return 20;
		default:
			return 0;
		}
	}`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Errors)
	}
	proc := findProc(t, m, "f")
	eqs, jnzs := 0, 0
	for _, instr := range instrs(proc) {
		switch instr.Op {
		case ir.OpEq:
			eqs++
		case ir.OpJnz:
			jnzs++
		}
	}
	if eqs != 2 || jnzs != 2 {
		t.Errorf("got %d eq / %d jnz instructions, want 2/2 for two case labels", eqs, jnzs)
	}
}

func TestLowerStructDeclarationRegistersRecord(t *testing.T) {
	m, sink := lowerSrc(t, "struct point { int x; int y; };")
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Errors)
	}
	var found bool
	for i := 0; i < m.Decls.Len(); i++ {
		d := m.Decls.At(i)
		if d.Kind == ir.DeclRecord && d.Rec.Ident == "point" {
			found = true
			if len(d.Rec.Fields) != 2 {
				t.Errorf("got %d fields, want 2", len(d.Rec.Fields))
			}
		}
	}
	if !found {
		t.Error("expected a record declaration named point")
	}
}

func TestLowerRedeclaredInlineStructDoesNotError(t *testing.T) {
	// registerTopLevel and lowerTopLevel both reduce the same DeclSpecs
	// node for an inline struct body; this must not read as a redefinition.
	_, sink := lowerSrc(t, "struct s { int a; } g;")
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Errors)
	}
}

func TestLowerEmptyDeclaratorInListReportsError(t *testing.T) {
	// spec.md §4.2: an empty abstract declarator followed by a comma in a
	// declarator list is not rejected by the parser, so the code generator
	// must flag it. "int *, x;" parses as an abstract pointer declarator
	// (no identifier) followed by a named declarator x.
	sink := &diag.Counter{}
	src := "int *, x;"
	lex := lexer.New(pos.NewByteReader(strings.NewReader(src), "t.c"))
	cur := parser.NewCursor(lex)
	p := parser.New(cur, nil, func(string) bool { return false })
	mod, err := p.ParseModule()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	Lower(mod, sink)
	if !sink.HasErrors() {
		t.Error("expected an error for an empty abstract declarator in a declarator list")
	}
}

func TestLowerUndeclaredLabelReportsError(t *testing.T) {
	sink := &diag.Counter{}
	src := "void f(void) { goto nowhere; }"
	lex := lexer.New(pos.NewByteReader(strings.NewReader(src), "t.c"))
	cur := parser.NewCursor(lex)
	p := parser.New(cur, nil, func(string) bool { return false })
	mod, err := p.ParseModule()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	Lower(mod, sink)
	if !sink.HasErrors() {
		t.Error("expected an error for a goto to an undeclared label")
	}
}
