package irtext

import (
	"strings"
	"testing"

	"sycz80/internal/ir"
	"sycz80/internal/pos"
)

func parseSrc(t *testing.T, src string) *ir.Module {
	t.Helper()
	lex := New(pos.NewByteReader(strings.NewReader(src), "t.ir"))
	p := NewParser(lex)
	mod, err := p.ParseModule()
	if err != nil {
		t.Fatalf("ParseModule(%q): %v", src, err)
	}
	return mod
}

func TestParseSimpleVar(t *testing.T) {
	mod := parseSrc(t, `
		var g : int.16 global begin
		  int.16 42;
		end;
	`)
	if mod.Decls.Len() != 1 {
		t.Fatalf("got %d decls, want 1", mod.Decls.Len())
	}
	d := mod.Decls.At(0)
	if d.Kind != ir.DeclVariable || d.Var.Ident != "g" {
		t.Fatalf("decl = %+v", d)
	}
	if d.Var.Linkage != ir.LinkageGlobal {
		t.Errorf("linkage = %v, want global", d.Var.Linkage)
	}
	if d.Var.Data.Len() != 1 || d.Var.Data.At(0).IntVal != 42 {
		t.Errorf("data = %+v", d.Var.Data)
	}
}

func TestParseProcWithBodyAndLabels(t *testing.T) {
	mod := parseSrc(t, `
		proc add(a : int.16, b : int.16) : int.16
		lvar
		  t : int.16;
		begin
		  imm.16 %0, 1;
		loop:
		  add.16 %1, a, b;
		  retv.16 %1;
		end;
	`)
	d := mod.Decls.At(0)
	proc := d.Proc
	if proc.Ident != "add" {
		t.Fatalf("proc ident = %q", proc.Ident)
	}
	if len(proc.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(proc.Args))
	}
	if proc.ReturnType == nil || proc.ReturnType.Kind != ir.TEInt {
		t.Fatalf("return type = %+v", proc.ReturnType)
	}
	if len(proc.Locals) != 1 || proc.Locals[0].Ident != "t" {
		t.Fatalf("locals = %+v", proc.Locals)
	}
	if proc.Body.Len() != 3 {
		t.Fatalf("got %d body entries, want 3", proc.Body.Len())
	}
	e1 := proc.Body.At(1)
	if e1.Label != "loop" || e1.Instr.Op != ir.OpAdd {
		t.Errorf("entry 1 = %+v, want labeled add", e1)
	}
}

func TestParseExternProcHasNilBody(t *testing.T) {
	mod := parseSrc(t, `proc putchar(c : int.16) : int.16 extern;`)
	proc := mod.Decls.At(0).Proc
	if proc.Body != nil {
		t.Errorf("extern proc body = %+v, want nil", proc.Body)
	}
	if proc.Linkage != ir.LinkageExtern {
		t.Errorf("linkage = %v, want extern", proc.Linkage)
	}
}

func TestParseRecordAndUnion(t *testing.T) {
	mod := parseSrc(t, `
		record point begin
		  x : int.16;
		  y : int.16;
		end;
		union cell begin
		  i : int.16;
		  p : ptr.16;
		end;
	`)
	if mod.Decls.Len() != 2 {
		t.Fatalf("got %d decls, want 2", mod.Decls.Len())
	}
	rec := mod.Decls.At(0).Rec
	if rec.Tag != ir.RecordStruct || len(rec.Fields) != 2 {
		t.Fatalf("record = %+v", rec)
	}
	un := mod.Decls.At(1).Rec
	if un.Tag != ir.RecordUnion {
		t.Fatalf("union tag = %v", un.Tag)
	}
}

func TestParseCallWithOperandList(t *testing.T) {
	mod := parseSrc(t, `
		proc f() begin
		  calli.16 %0, g, {1, 2, 3};
		  ret.16;
		end;
	`)
	proc := mod.Decls.At(0).Proc
	e0 := proc.Body.At(0)
	if e0.Instr.Op != ir.OpCalli {
		t.Fatalf("instr = %+v", e0.Instr)
	}
	if e0.Instr.Op2.Kind != ir.OperandList || len(e0.Instr.Op2.Items) != 3 {
		t.Fatalf("op2 = %+v", e0.Instr.Op2)
	}
}

func TestParseInstrWithTypeOperand(t *testing.T) {
	mod := parseSrc(t, `
		proc f() begin
		  sgnext.16 %1, %0 : int.32;
		  ret.16;
		end;
	`)
	proc := mod.Decls.At(0).Proc
	e0 := proc.Body.At(0)
	if e0.Instr.TypeOp == nil || e0.Instr.TypeOp.Kind != ir.TEInt || e0.Instr.TypeOp.Width != 32 {
		t.Fatalf("type operand = %+v", e0.Instr.TypeOp)
	}
}

func TestParseArrayTypeExpr(t *testing.T) {
	mod := parseSrc(t, `
		proc f()
		lvar
		  buf : int.8{10};
		begin
		end;
	`)
	proc := mod.Decls.At(0).Proc
	te := proc.Locals[0].Type
	if te.Kind != ir.TEArray || te.Size != 10 {
		t.Fatalf("type = %+v", te)
	}
	if te.Element.Kind != ir.TEInt || te.Element.Width != 8 {
		t.Fatalf("element = %+v", te.Element)
	}
}

func TestRoundTripProcedure(t *testing.T) {
	src := `
		proc add(a : int.16, b : int.16) : int.16 global
		lvar
		  t : int.16;
		begin
		  imm.16 %0, 1;
		loop: add.16 %1, a, b;
		  retv.16 %1;
		end;
	`
	mod1 := parseSrc(t, src)
	printed := Print(mod1)
	mod2 := parseSrc(t, printed)
	reprinted := Print(mod2)
	if printed != reprinted {
		t.Errorf("print not idempotent:\nfirst:\n%s\nsecond:\n%s", printed, reprinted)
	}
	proc1, proc2 := mod1.Decls.At(0).Proc, mod2.Decls.At(0).Proc
	if proc1.Ident != proc2.Ident || proc1.Body.Len() != proc2.Body.Len() {
		t.Errorf("round trip changed shape: %+v vs %+v", proc1, proc2)
	}
}

func TestRoundTripVarAndRecord(t *testing.T) {
	src := `
		record point begin
		  x : int.16;
		  y : int.16;
		end;
		var origin : point global begin
		end;
	`
	mod1 := parseSrc(t, src)
	printed := Print(mod1)
	mod2 := parseSrc(t, printed)
	if Print(mod2) != printed {
		t.Errorf("print not idempotent")
	}
	if mod2.Decls.Len() != 2 {
		t.Fatalf("got %d decls, want 2", mod2.Decls.Len())
	}
}
