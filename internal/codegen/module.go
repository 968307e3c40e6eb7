// Package codegen implements the AST-to-IR lowering spec.md §4.3
// describes: a single logical pass over an ast.Module's top-level
// declarations (typedefs/records/enums registered, variables declared or
// defined, functions lowered) that never mutates the AST and produces an
// ir.Module plus a stream of diagnostics.
//
// Grounded on lang/ysem/analyzer.go's Analyzer (Analyze() driving
// buildSymbolTables → typeCheck → generateIR) and lang/sem/analyzer.go's
// symbol-table/type-check split, refined per SPEC_FULL.md §4.10/§5 into
// two sub-passes: pass 1 registers every top-level typedef/record/enum/
// symbol so forward references among globals and functions resolve; pass
// 2 lowers each function body and each variable initializer.
package codegen

import (
	"fmt"

	"sycz80/internal/ast"
	"sycz80/internal/diag"
	"sycz80/internal/ir"
	"sycz80/internal/recdef"
	"sycz80/internal/scope"
	"sycz80/internal/token"
	"sycz80/internal/types"
)

// Module drives the lowering of one ast.Module into one ir.Module.
type Module struct {
	sink   diag.Sink
	recTab *recdef.Table
	global *scope.Scope
	symIdx *scope.Index
	ir     *ir.Module

	enumConsts map[string]int64
	typedefs   map[string]*types.Type

	// dspecCache memoizes declSpecsToDSpec per *ast.DeclSpecs node: pass 1
	// and pass 2 both reduce the same declaration's specifiers, and an
	// inline struct/union/enum body must only be declared into recTab once.
	dspecCache map[*ast.DeclSpecs]DSpec

	// reportedEmptyDecl dedupes emptyDeclaratorError per *ast.InitDeclarator:
	// a module-scope DeclList is walked once by registerDeclList (pass 1)
	// and again by lowerDeclList (pass 2), and an abstract declarator in
	// its InitDeclrs must only be flagged once, not once per pass.
	reportedEmptyDecl map[*ast.InitDeclarator]bool

	cur *funcCtx // nil outside a function body
}

// New returns a Module ready to lower AST declarations, reporting
// diagnostics to sink.
func New(sink diag.Sink) *Module {
	return &Module{
		sink:              sink,
		recTab:            recdef.New(),
		global:            scope.NewRoot(),
		symIdx:            scope.NewIndex(),
		ir:                ir.NewModule(),
		enumConsts:        map[string]int64{},
		typedefs:          map[string]*types.Type{},
		dspecCache:        map[*ast.DeclSpecs]DSpec{},
		reportedEmptyDecl: map[*ast.InitDeclarator]bool{},
	}
}

// irLinkageOf maps a resolved scope.Linkage to its ir.Linkage counterpart,
// used once a symbol's linkage has been settled by pass 1's registration.
func irLinkageOf(l scope.Linkage) ir.Linkage {
	switch l {
	case scope.LinkExtern:
		return ir.LinkageExtern
	case scope.LinkGlobal:
		return ir.LinkageGlobal
	default:
		return ir.LinkageDefault
	}
}

// Lower runs cgen_module(ast_module) -> ir_module, per spec.md §4.3's
// contract: pass 1 registers every top-level declaration's symbol/tag,
// pass 2 lowers variable initializers and function bodies.
func Lower(mod *ast.Module, sink diag.Sink) *ir.Module {
	m := New(sink)
	for _, d := range mod.Decls {
		m.registerTopLevel(d)
	}
	for _, d := range mod.Decls {
		m.lowerTopLevel(d)
	}
	return m.ir
}

func (m *Module) diag(sev diag.Severity, t token.Token, category string, format string, args ...any) {
	m.sink.Emit(diag.Diagnostic{
		Range:    t.Range(),
		Severity: sev,
		Category: diag.Category(category),
		Message:  fmt.Sprintf(format, args...),
	})
}

// registerTopLevel is pass 1: it registers the symbol/tag a declaration
// introduces (so a later declaration can reference it before it's lowered)
// without lowering any function body or lvar initializer.
func (m *Module) registerTopLevel(d ast.Decl) {
	switch n := d.(type) {
	case *ast.FuncDef:
		name, ok := ast.DeclaratorName(n.Declarator)
		if !ok {
			return
		}
		dspec := m.declSpecsToDSpec(n.Specs)
		base := m.resolveDSpec(dspec, n.Specs.First())
		t := m.declaratorType(n.Declarator, base)
		m.global.Insert(scope.Member{Ident: name.Text, Type: t, Variant: scope.GlobalSymbol, Def: name})
		m.symIdx.Define(name.Text, name, linkageOf(dspec))
	case *ast.DeclList:
		m.registerDeclList(n)
	}
}

func linkageOf(d DSpec) scope.Linkage {
	switch d.StorageClass {
	case token.KwExtern:
		return scope.LinkExtern
	case token.KwStatic:
		return scope.LinkDefault
	}
	return scope.LinkGlobal
}

func (m *Module) registerDeclList(n *ast.DeclList) {
	dspec := m.declSpecsToDSpec(n.Specs)
	if dspec.StorageClass == token.KwTypedef {
		for _, id := range n.InitDeclrs {
			name, ok := ast.DeclaratorName(id.Declarator)
			if !ok {
				m.emptyDeclaratorError(n, id)
				continue
			}
			base := m.resolveDSpec(dspec, n.Specs.First())
			t := m.declaratorType(id.Declarator, base)
			m.typedefs[name.Text] = t
			m.global.Insert(scope.Member{Ident: name.Text, Type: t, Variant: scope.Typedef, Def: name})
		}
		return
	}
	for _, id := range n.InitDeclrs {
		name, ok := ast.DeclaratorName(id.Declarator)
		if !ok {
			m.emptyDeclaratorError(n, id)
			continue
		}
		base := m.resolveDSpec(dspec, n.Specs.First())
		t := m.declaratorType(id.Declarator, base)
		if _, exists := m.global.LookupLocal(name.Text); !exists {
			m.global.Insert(scope.Member{Ident: name.Text, Type: t, Variant: scope.GlobalSymbol, Def: name})
		}
		if dspec.StorageClass == token.KwExtern {
			m.symIdx.MarkExtern(name.Text, name)
		} else {
			m.symIdx.Declare(name.Text, name, linkageOf(dspec))
		}
	}
}

// emptyDeclaratorError flags an abstract (unnamed) declarator inside a
// declaration's init-declarator list, per spec.md §4.2's "empty abstract
// declarator followed by comma in a declarator list is an error, but is
// not rejected by the parser; the code generator flags it" and §9's
// open question (ii): the parser accepts this uniformly (it has no
// other way to tell the case apart from a legal abstract declarator in
// a parameter list), so the code generator is the one place that can
// and must reject it, consistently, regardless of storage class.
func (m *Module) emptyDeclaratorError(n *ast.DeclList, id *ast.InitDeclarator) {
	if m.reportedEmptyDecl[id] {
		return
	}
	m.reportedEmptyDecl[id] = true
	m.errorf(id.First(), "decl", "expected a declarator name in a declaration's init-declarator list")
}

// lookupTypedef resolves a type name through the typedef table.
func (m *Module) lookupTypedef(name string) (*types.Type, bool) {
	t, ok := m.typedefs[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (m *Module) enumConstValue(name string) (int64, bool) {
	v, ok := m.enumConsts[name]
	return v, ok
}

// declRecordTypeSpec declares (or looks up a forward declaration of) the
// struct/union ts names, packing bitfield members into storage units via
// internal/recdef.PackBitfields per spec.md §4.3's bitfield rule.
func (m *Module) declRecordTypeSpec(ts *ast.RecordTypeSpec) *types.Type {
	tag := recdef.Struct
	if ts.Tag.Kind == token.KwUnion {
		tag = recdef.Union
	}
	name := ""
	if ts.Name != nil {
		name = ts.Name.Text
	}
	if ts.LBrace == nil {
		// forward declaration / plain reference
		rec, _ := m.recTab.DeclareRecord(tag, name, nil)
		return types.RecordType(rec.IRIdent)
	}
	var pending []recdef.PendingField
	for _, memb := range ts.Members {
		dspec := m.declSpecsToDSpec(memb.Specs)
		base := m.resolveDSpec(dspec, memb.Specs.First())
		for _, bd := range memb.Declarators {
			var fieldType *types.Type
			var ident string
			if bd.Declarator != nil {
				fieldType = m.declaratorType(bd.Declarator, base)
				if nm, ok := ast.DeclaratorName(bd.Declarator); ok {
					ident = nm.Text
				}
			} else {
				fieldType = base
			}
			isBit := bd.Width != nil
			var width int
			if isBit {
				w, ok := m.evalConst(bd.Width)
				if !ok {
					m.errorf(bd.Width.First(), "bitfield", "bitfield width must be a constant expression")
					w = int64(fieldType.Width())
				}
				width = int(w)
			}
			pending = append(pending, recdef.PendingField{
				Ident: ident, Type: fieldType, IsBitfield: isBit, BitWidth: width,
			})
		}
	}
	members := recdef.PackBitfields(pending)
	rec, err := m.recTab.DeclareRecord(tag, name, members)
	if err != nil {
		m.errorf(ts.Tag, "record", "%s", err.Error())
	} else {
		irRec := &ir.Record{Ident: rec.IRIdent}
		if tag == recdef.Union {
			irRec.Tag = ir.RecordUnion
		}
		for _, mb := range members {
			irRec.Fields = append(irRec.Fields, ir.RecordField{Ident: mb.Ident, Type: cgTypeToIR(mb.Type)})
		}
		m.ir.AddRecord(irRec)
	}
	return types.RecordType(rec.IRIdent)
}

// declEnumTypeSpec declares ts's enumerators into the global scope and
// enum-constant value table, assigning sequential values after any
// explicit `= const-expr` per C's enumerator rule.
func (m *Module) declEnumTypeSpec(ts *ast.EnumTypeSpec) *types.Type {
	name := ""
	if ts.Name != nil {
		name = ts.Name.Text
	}
	if ts.LBrace == nil {
		e, _ := m.recTab.DeclareEnum(name, nil)
		return types.EnumType(enumKey(name, e))
	}
	var members []recdef.EnumMember
	next := int64(0)
	for _, en := range ts.Enumerators {
		if en.Assign != nil {
			v, ok := m.evalConst(en.Value)
			if !ok {
				m.errorf(en.Name, "enum", "enumerator value must be a constant expression")
				v = next
			}
			next = v
		}
		members = append(members, recdef.EnumMember{Ident: en.Name.Text, Value: next})
		m.enumConsts[en.Name.Text] = next
		m.global.Insert(scope.Member{Ident: en.Name.Text, Type: types.Basic(types.Int), Variant: scope.EnumConstant, Def: en.Name})
		next++
	}
	e, err := m.recTab.DeclareEnum(name, members)
	if err != nil {
		m.errorf(ts.Tag, "enum", "%s", err.Error())
	}
	return types.EnumType(enumKey(name, e))
}

func enumKey(name string, e *recdef.Enum) string {
	if name != "" {
		return name
	}
	return e.Ident
}

// typeNameToType resolves a TypeName node (used by cast, sizeof(type-name),
// and compound literals) to its CG type.
func (m *Module) typeNameToType(tn *ast.TypeName) *types.Type {
	dspec := m.declSpecsToDSpec(tn.Specs)
	base := m.resolveDSpec(dspec, tn.Specs.First())
	if tn.Declarator == nil {
		return base
	}
	return m.declaratorType(tn.Declarator, base)
}

// lowerTopLevel is pass 2: it lowers a function body or a variable's
// initializer, assuming every top-level tag/symbol is already registered.
func (m *Module) lowerTopLevel(d ast.Decl) {
	switch n := d.(type) {
	case *ast.FuncDef:
		m.lowerFuncDef(n)
	case *ast.DeclList:
		m.lowerDeclList(n)
	case *ast.AsmDecl:
		m.lowerAsmDecl(n)
	}
}

func (m *Module) lowerAsmDecl(n *ast.AsmDecl) {
	// Inline-asm passthrough (SPEC_FULL.md §5): carried only as a synthetic
	// global holding the literal source text bytes so the backend can
	// recover it, since the closed IR opcode set has no asm opcode. No nop
	// is emitted at file scope; lowerAsmStmt adds one inside a function.
	v := ir.NewVariable(m.recTab.NextAnonTag("asm"), ir.IntType(8))
	for _, b := range []byte(n.Text.Text) {
		v.Data.Append(ir.DataEntry{Kind: ir.DataInt, Width: 8, IntVal: int64(b)})
	}
	v.Linkage = ir.LinkageDefault
	m.ir.AddVariable(v)
}
