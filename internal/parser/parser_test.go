package parser

import (
	"strings"
	"testing"

	"sycz80/internal/ast"
	"sycz80/internal/lexer"
	"sycz80/internal/pos"
)

func newParser(t *testing.T, src string, types ...string) *Parser {
	t.Helper()
	typeSet := map[string]bool{}
	for _, n := range types {
		typeSet[n] = true
	}
	lex := lexer.New(pos.NewByteReader(strings.NewReader(src), "t.c"))
	cur := NewCursor(lex)
	return New(cur, nil, func(name string) bool { return typeSet[name] })
}

func parseModule(t *testing.T, src string, types ...string) *ast.Module {
	t.Helper()
	p := newParser(t, src, types...)
	mod, err := p.ParseModule()
	if err != nil {
		t.Fatalf("ParseModule(%q): %v", src, err)
	}
	return mod
}

func TestParseSimpleFuncDef(t *testing.T) {
	mod := parseModule(t, "int main(void) { return 0; }")
	if len(mod.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(mod.Decls))
	}
	fd, ok := mod.Decls[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("decl is %T, want *ast.FuncDef", mod.Decls[0])
	}
	if len(fd.Body.Items) != 1 {
		t.Fatalf("got %d body items, want 1", len(fd.Body.Items))
	}
	if _, ok := fd.Body.Items[0].(*ast.ReturnStmt); !ok {
		t.Fatalf("body item is %T, want *ast.ReturnStmt", fd.Body.Items[0])
	}
}

func TestParseGlobalVarDecl(t *testing.T) {
	mod := parseModule(t, "int x, y = 3;")
	dl, ok := mod.Decls[0].(*ast.DeclList)
	if !ok {
		t.Fatalf("decl is %T, want *ast.DeclList", mod.Decls[0])
	}
	if len(dl.InitDeclrs) != 2 {
		t.Fatalf("got %d init-declarators, want 2", len(dl.InitDeclrs))
	}
	if dl.InitDeclrs[0].Init != nil {
		t.Errorf("x should have no initializer")
	}
	if dl.InitDeclrs[1].Init == nil {
		t.Errorf("y should have an initializer")
	}
}

func TestParsePointerAndArrayDeclarators(t *testing.T) {
	mod := parseModule(t, "int *p; int a[10]; int *b[4];")
	if len(mod.Decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(mod.Decls))
	}
	dl0 := mod.Decls[0].(*ast.DeclList)
	if _, ok := dl0.InitDeclrs[0].Declarator.(*ast.PointerDeclarator); !ok {
		t.Errorf("p is %T, want *ast.PointerDeclarator", dl0.InitDeclrs[0].Declarator)
	}
	dl1 := mod.Decls[1].(*ast.DeclList)
	if _, ok := dl1.InitDeclrs[0].Declarator.(*ast.ArrayDeclarator); !ok {
		t.Errorf("a is %T, want *ast.ArrayDeclarator", dl1.InitDeclrs[0].Declarator)
	}
	dl2 := mod.Decls[2].(*ast.DeclList)
	pd, ok := dl2.InitDeclrs[0].Declarator.(*ast.PointerDeclarator)
	if !ok {
		t.Fatalf("b is %T, want *ast.PointerDeclarator", dl2.InitDeclrs[0].Declarator)
	}
	if _, ok := pd.Inner.(*ast.ArrayDeclarator); !ok {
		t.Errorf("b's inner is %T, want *ast.ArrayDeclarator", pd.Inner)
	}
}

func TestParseStructWithBitfields(t *testing.T) {
	mod := parseModule(t, "struct flags { unsigned a : 1; unsigned b : 3; };")
	dl := mod.Decls[0].(*ast.DeclList)
	rts := dl.Specs.TypeSpec.(*ast.RecordTypeSpec)
	if len(rts.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(rts.Members))
	}
	if rts.Members[1].Declarators[0].Width == nil {
		t.Errorf("b should have a bitfield width")
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	mod := parseModule(t, `int f(int x) {
		if (x > 0)
			return 1;
		else
			return 0;
	}`)
	fd := mod.Decls[0].(*ast.FuncDef)
	is, ok := fd.Body.Items[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("item is %T, want *ast.IfStmt", fd.Body.Items[0])
	}
	if is.Else == nil {
		t.Errorf("expected an else branch")
	}
}

func TestParseForLoop(t *testing.T) {
	mod := parseModule(t, `void f(void) {
		for (int i = 0; i < 10; i = i + 1)
			;
	}`)
	fd := mod.Decls[0].(*ast.FuncDef)
	fs, ok := fd.Body.Items[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("item is %T, want *ast.ForStmt", fd.Body.Items[0])
	}
	if fs.Init == nil || fs.Cond == nil || fs.Post == nil {
		t.Errorf("for loop missing a clause: init=%v cond=%v post=%v", fs.Init, fs.Cond, fs.Post)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	mod := parseModule(t, "int x = a + b * c;")
	dl := mod.Decls[0].(*ast.DeclList)
	init := dl.InitDeclrs[0].Init.(*ast.ExprInit)
	be, ok := init.X.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("top is %T, want *ast.BinaryExpr", init.X)
	}
	if be.Op.Text != "+" {
		t.Fatalf("top operator is %q, want +", be.Op.Text)
	}
	rhs, ok := be.Y.(*ast.BinaryExpr)
	if !ok || rhs.Op.Text != "*" {
		t.Fatalf("rhs is %v, want a * binary", be.Y)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	mod := parseModule(t, "void f(void) { a = b = c; }")
	fd := mod.Decls[0].(*ast.FuncDef)
	es := fd.Body.Items[0].(*ast.ExprStmt)
	top, ok := es.X.(*ast.AssignExpr)
	if !ok {
		t.Fatalf("top is %T, want *ast.AssignExpr", es.X)
	}
	if _, ok := top.RHS.(*ast.AssignExpr); !ok {
		t.Errorf("rhs is %T, want nested *ast.AssignExpr", top.RHS)
	}
}

func TestParseCastVsParenExpr(t *testing.T) {
	mod := parseModule(t, "void f(void) { x = (t)y; z = (a); }", "t")
	fd := mod.Decls[0].(*ast.FuncDef)

	es1 := fd.Body.Items[0].(*ast.ExprStmt)
	assign1 := es1.X.(*ast.AssignExpr)
	if _, ok := assign1.RHS.(*ast.CastExpr); !ok {
		t.Errorf("(t)y parsed as %T, want *ast.CastExpr", assign1.RHS)
	}

	es2 := fd.Body.Items[1].(*ast.ExprStmt)
	assign2 := es2.X.(*ast.AssignExpr)
	if _, ok := assign2.RHS.(*ast.ParenExpr); !ok {
		t.Errorf("(a) parsed as %T, want *ast.ParenExpr", assign2.RHS)
	}
}

func TestParseSizeofIdentAlwaysParensExpr(t *testing.T) {
	mod := parseModule(t, "void f(void) { x = sizeof(t); }", "t")
	fd := mod.Decls[0].(*ast.FuncDef)
	es := fd.Body.Items[0].(*ast.ExprStmt)
	assign := es.X.(*ast.AssignExpr)
	se, ok := assign.RHS.(*ast.SizeofExpr)
	if !ok {
		t.Fatalf("sizeof(t) parsed as %T, want *ast.SizeofExpr", assign.RHS)
	}
	if _, ok := se.X.(*ast.ParenExpr); !ok {
		t.Errorf("sizeof operand is %T, want *ast.ParenExpr wrapping the identifier", se.X)
	}
}

func TestParseSizeofTypeName(t *testing.T) {
	mod := parseModule(t, "void f(void) { x = sizeof(int *); }")
	fd := mod.Decls[0].(*ast.FuncDef)
	es := fd.Body.Items[0].(*ast.ExprStmt)
	assign := es.X.(*ast.AssignExpr)
	if _, ok := assign.RHS.(*ast.SizeofTypeExpr); !ok {
		t.Errorf("sizeof(int *) parsed as %T, want *ast.SizeofTypeExpr", assign.RHS)
	}
}

func TestParseStringLiteralConcatenation(t *testing.T) {
	mod := parseModule(t, `char *s = "foo" "bar";`)
	dl := mod.Decls[0].(*ast.DeclList)
	init := dl.InitDeclrs[0].Init.(*ast.ExprInit)
	sl, ok := init.X.(*ast.StringLit)
	if !ok {
		t.Fatalf("init is %T, want *ast.StringLit", init.X)
	}
	if len(sl.Toks) != 2 {
		t.Fatalf("got %d string tokens, want 2", len(sl.Toks))
	}
}

func TestParseCompoundLiteral(t *testing.T) {
	mod := parseModule(t, "int *p = (int[]){ 1, 2, 3 };")
	dl := mod.Decls[0].(*ast.DeclList)
	init := dl.InitDeclrs[0].Init.(*ast.ExprInit)
	cl, ok := init.X.(*ast.CompoundLiteralExpr)
	if !ok {
		t.Fatalf("init is %T, want *ast.CompoundLiteralExpr", init.X)
	}
	if len(cl.Init.Items) != 3 {
		t.Errorf("got %d initializer items, want 3", len(cl.Init.Items))
	}
}

func TestParseTernaryAndComma(t *testing.T) {
	mod := parseModule(t, "void f(void) { x = a ? b : c, d; }")
	fd := mod.Decls[0].(*ast.FuncDef)
	es := fd.Body.Items[0].(*ast.ExprStmt)
	ce, ok := es.X.(*ast.CommaExpr)
	if !ok {
		t.Fatalf("top is %T, want *ast.CommaExpr", es.X)
	}
	assign := ce.X.(*ast.AssignExpr)
	if _, ok := assign.RHS.(*ast.ConditionalExpr); !ok {
		t.Errorf("assignment rhs is %T, want *ast.ConditionalExpr", assign.RHS)
	}
}

func TestParseSwitchCaseDefault(t *testing.T) {
	mod := parseModule(t, `void f(int x) {
		switch (x) {
		case 1:
			break;
		default:
			break;
		}
	}`)
	fd := mod.Decls[0].(*ast.FuncDef)
	ss, ok := fd.Body.Items[0].(*ast.SwitchStmt)
	if !ok {
		t.Fatalf("item is %T, want *ast.SwitchStmt", fd.Body.Items[0])
	}
	block, ok := ss.Body.(*ast.Block)
	if !ok {
		t.Fatalf("switch body is %T, want *ast.Block", ss.Body)
	}
	if _, ok := block.Items[0].(*ast.CaseStmt); !ok {
		t.Errorf("first item is %T, want *ast.CaseStmt", block.Items[0])
	}
	if _, ok := block.Items[1].(*ast.DefaultStmt); !ok {
		t.Errorf("second item is %T, want *ast.DefaultStmt", block.Items[1])
	}
}

func TestParseGotoAndLabel(t *testing.T) {
	mod := parseModule(t, `void f(void) {
		goto done;
	done:
		return;
	}`)
	fd := mod.Decls[0].(*ast.FuncDef)
	if _, ok := fd.Body.Items[0].(*ast.GotoStmt); !ok {
		t.Errorf("first item is %T, want *ast.GotoStmt", fd.Body.Items[0])
	}
	if _, ok := fd.Body.Items[1].(*ast.LabelStmt); !ok {
		t.Errorf("second item is %T, want *ast.LabelStmt", fd.Body.Items[1])
	}
}

func TestParseAsmDeclAndStmt(t *testing.T) {
	mod := parseModule(t, `asm("di");
	void f(void) { asm("ei"); }`)
	if _, ok := mod.Decls[0].(*ast.AsmDecl); !ok {
		t.Errorf("first decl is %T, want *ast.AsmDecl", mod.Decls[0])
	}
	fd := mod.Decls[1].(*ast.FuncDef)
	if _, ok := fd.Body.Items[0].(*ast.AsmStmt); !ok {
		t.Errorf("body item is %T, want *ast.AsmStmt", fd.Body.Items[0])
	}
}

func TestParseEnumWithExplicitValues(t *testing.T) {
	mod := parseModule(t, "enum color { red = 1, green, blue = 5 };")
	dl := mod.Decls[0].(*ast.DeclList)
	ets := dl.Specs.TypeSpec.(*ast.EnumTypeSpec)
	if len(ets.Enumerators) != 3 {
		t.Fatalf("got %d enumerators, want 3", len(ets.Enumerators))
	}
	if ets.Enumerators[0].Value == nil {
		t.Errorf("red should have an explicit value")
	}
	if ets.Enumerators[1].Value != nil {
		t.Errorf("green should have no explicit value")
	}
}

func TestParseErrorStopsWithoutRecovery(t *testing.T) {
	p := newParser(t, "int x = ;")
	mod, err := p.ParseModule()
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if len(mod.Decls) != 0 {
		t.Errorf("got %d decls on a failing parse, want 0 (no panic-mode recovery)", len(mod.Decls))
	}
}

func TestParseFunctionPointerDeclarator(t *testing.T) {
	mod := parseModule(t, "int (*fp)(int, int);")
	dl := mod.Decls[0].(*ast.DeclList)
	fd, ok := dl.InitDeclrs[0].Declarator.(*ast.FuncDeclarator)
	if !ok {
		t.Fatalf("fp is %T, want *ast.FuncDeclarator", dl.InitDeclrs[0].Declarator)
	}
	pd, ok := fd.Inner.(*ast.ParenDeclarator)
	if !ok {
		t.Fatalf("fp's inner is %T, want *ast.ParenDeclarator", fd.Inner)
	}
	if _, ok := pd.Inner.(*ast.PointerDeclarator); !ok {
		t.Errorf("paren's inner is %T, want *ast.PointerDeclarator", pd.Inner)
	}
}
