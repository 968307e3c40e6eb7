package ir

import "testing"

func TestOpRoundTrip(t *testing.T) {
	for op, name := range opNames {
		got, ok := LookupOp(name)
		if !ok {
			t.Fatalf("LookupOp(%q) not found", name)
		}
		if got != op {
			t.Errorf("LookupOp(%q) = %v, want %v", name, got, op)
		}
		if op.String() != name {
			t.Errorf("Op(%v).String() = %q, want %q", op, op.String(), name)
		}
	}
}

func TestLookupOpUnknown(t *testing.T) {
	if _, ok := LookupOp("frobnicate"); ok {
		t.Errorf("LookupOp(frobnicate) should not be found")
	}
}

func TestModuleDeclOrder(t *testing.T) {
	m := NewModule()
	m.AddVariable(NewVariable("g", IntType(16)))
	m.AddProcedure(NewProcedure("main"))
	m.AddRecord(&Record{Tag: RecordStruct, Ident: "point"})

	if m.Decls.Len() != 3 {
		t.Fatalf("got %d decls, want 3", m.Decls.Len())
	}
	if m.Decls.At(0).Kind != DeclVariable {
		t.Errorf("decl 0 kind = %v, want DeclVariable", m.Decls.At(0).Kind)
	}
	if m.Decls.At(1).Kind != DeclProcedure {
		t.Errorf("decl 1 kind = %v, want DeclProcedure", m.Decls.At(1).Kind)
	}
	if m.Decls.At(2).Kind != DeclRecord {
		t.Errorf("decl 2 kind = %v, want DeclRecord", m.Decls.At(2).Kind)
	}
}

func TestProcedureEmitOrderAndLabels(t *testing.T) {
	p := NewProcedure("f")
	p.Emit(Instr{Op: OpImm, Width: 16, Dest: Var("%0"), Op1: Imm(1)})
	p.EmitLabel("L0")
	p.Emit(Instr{Op: OpRet, Width: 16})

	if p.Body.Len() != 3 {
		t.Fatalf("got %d body entries, want 3", p.Body.Len())
	}
	e0 := p.Body.At(0)
	if e0.Label != "" || e0.Instr == nil || e0.Instr.Op != OpImm {
		t.Errorf("entry 0 = %+v, want a pure imm instruction", e0)
	}
	e1 := p.Body.At(1)
	if e1.Label != "L0" || e1.Instr != nil {
		t.Errorf("entry 1 = %+v, want a pure label L0", e1)
	}
	e2 := p.Body.At(2)
	if e2.Instr == nil || e2.Instr.Op != OpRet {
		t.Errorf("entry 2 = %+v, want a ret instruction", e2)
	}
}

func TestEmitLabeledSingleEntry(t *testing.T) {
	p := NewProcedure("f")
	p.EmitLabeled("loop", Instr{Op: OpJmp, Dest: Var("loop")})
	if p.Body.Len() != 1 {
		t.Fatalf("got %d body entries, want 1", p.Body.Len())
	}
	e := p.Body.At(0)
	if e.Label != "loop" || e.Instr == nil || e.Instr.Op != OpJmp {
		t.Errorf("entry = %+v, want a single labeled jmp", e)
	}
}

func TestVariableDataBlock(t *testing.T) {
	v := NewVariable("g", IntType(16))
	v.Data.Append(DataEntry{Kind: DataInt, Width: 16, IntVal: 42})
	v.Data.Append(DataEntry{Kind: DataPtr, Width: 16, Symbol: "other", Offset: 4})

	if v.Data.Len() != 2 {
		t.Fatalf("got %d data entries, want 2", v.Data.Len())
	}
	if v.Data.At(0).IntVal != 42 {
		t.Errorf("entry 0 IntVal = %d, want 42", v.Data.At(0).IntVal)
	}
	if v.Data.At(1).Symbol != "other" || v.Data.At(1).Offset != 4 {
		t.Errorf("entry 1 = %+v, want symbol=other offset=4", v.Data.At(1))
	}
}

func TestArrayTypeExprNesting(t *testing.T) {
	te := ArrayType(10, PtrType(16))
	if te.Kind != TEArray || te.Size != 10 {
		t.Fatalf("got %+v", te)
	}
	if te.Element.Kind != TEPtr || te.Element.Width != 16 {
		t.Errorf("element = %+v, want ptr.16", te.Element)
	}
}
