package codegen

import (
	"sycz80/internal/ast"
	"sycz80/internal/ir"
	"sycz80/internal/scope"
	"sycz80/internal/token"
	"sycz80/internal/types"
)

// lowerStmt lowers one statement into m.cur.proc's body, per spec.md
// §4.3's statement-lowering table.
func (m *Module) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		m.lowerBlockItems(n.Items)
	case *ast.ExprStmt:
		if n.X != nil {
			m.lowerExpr(n.X)
		}
	case *ast.ReturnStmt:
		m.lowerReturn(n)
	case *ast.IfStmt:
		m.lowerIf(n)
	case *ast.WhileStmt:
		m.lowerWhile(n)
	case *ast.DoStmt:
		m.lowerDo(n)
	case *ast.ForStmt:
		m.lowerFor(n)
	case *ast.SwitchStmt:
		m.lowerSwitch(n)
	case *ast.CaseStmt:
		m.errorf(n.Kw, "switch", "case label not within a switch statement")
		m.lowerStmt(n.Body)
	case *ast.DefaultStmt:
		m.errorf(n.Kw, "switch", "default label not within a switch statement")
		m.lowerStmt(n.Body)
	case *ast.BreakStmt:
		if target, ok := m.cur.currentBreakTarget(); ok {
			m.emitJump(ir.OpJmp, target, ir.Nil)
		} else {
			m.errorf(n.Kw, "jump", "break statement not within a loop or switch")
		}
	case *ast.ContinueStmt:
		if loop, ok := m.cur.currentLoop(); ok {
			m.emitJump(ir.OpJmp, loop.continueLabel, ir.Nil)
		} else {
			m.errorf(n.Kw, "jump", "continue statement not within a loop")
		}
	case *ast.GotoStmt:
		m.cur.labels.Use(n.Label.Text)
		m.emitJump(ir.OpJmp, n.Label.Text, ir.Nil)
	case *ast.LabelStmt:
		if _, err := m.cur.labels.Define(n.Label.Text, n.Label); err != nil {
			m.errorf(n.Label, "label", "redefinition of label %q", n.Label.Text)
		}
		m.cur.proc.EmitLabel(n.Label.Text)
		m.lowerStmt(n.Body)
	case *ast.AsmStmt:
		m.lowerAsmStmt(n)
	}
}

// lowerBlockItems lowers a compound statement's items in order, dispatching
// local declarations separately from statements since ast.DeclList does
// not implement ast.Stmt.
func (m *Module) lowerBlockItems(items []ast.BlockItem) {
	for _, item := range items {
		switch n := item.(type) {
		case *ast.DeclList:
			m.lowerLocalDeclList(n)
		case ast.Stmt:
			m.lowerStmt(n)
		}
	}
}

func (m *Module) lowerReturn(n *ast.ReturnStmt) {
	if n.X == nil {
		m.emit(ir.OpRet, 0, ir.Nil, ir.Nil, ir.Nil)
		return
	}
	val := m.load(m.decay(m.lowerExpr(n.X)))
	conv := m.convertRvalue(val, m.cur.retType)
	m.emit(ir.OpRetv, m.cur.retType.Width(), ir.Nil, conv.operand, ir.Nil)
}

func (m *Module) lowerIf(n *ast.IfStmt) {
	cond := m.load(m.decay(m.lowerExpr(n.Cond)))
	if n.Else == nil {
		end := m.cur.freshLabel("endif")
		m.emitJump(ir.OpJz, end, cond.operand)
		m.lowerStmt(n.Then)
		m.cur.proc.EmitLabel(end)
		return
	}
	elseLbl := m.cur.freshLabel("else")
	end := m.cur.freshLabel("endif")
	m.emitJump(ir.OpJz, elseLbl, cond.operand)
	m.lowerStmt(n.Then)
	m.emitJump(ir.OpJmp, end, ir.Nil)
	m.cur.proc.EmitLabel(elseLbl)
	m.lowerStmt(n.Else)
	m.cur.proc.EmitLabel(end)
}

func (m *Module) lowerWhile(n *ast.WhileStmt) {
	condLbl := m.cur.freshLabel("while.cond")
	endLbl := m.cur.freshLabel("while.end")
	m.cur.proc.EmitLabel(condLbl)
	cond := m.load(m.decay(m.lowerExpr(n.Cond)))
	m.emitJump(ir.OpJz, endLbl, cond.operand)
	m.cur.pushLoop(condLbl, endLbl)
	m.lowerStmt(n.Body)
	m.cur.popFrame()
	m.emitJump(ir.OpJmp, condLbl, ir.Nil)
	m.cur.proc.EmitLabel(endLbl)
}

func (m *Module) lowerDo(n *ast.DoStmt) {
	bodyLbl := m.cur.freshLabel("do.body")
	condLbl := m.cur.freshLabel("do.cond")
	endLbl := m.cur.freshLabel("do.end")
	m.cur.proc.EmitLabel(bodyLbl)
	m.cur.pushLoop(condLbl, endLbl)
	m.lowerStmt(n.Body)
	m.cur.popFrame()
	m.cur.proc.EmitLabel(condLbl)
	cond := m.load(m.decay(m.lowerExpr(n.Cond)))
	m.emitJump(ir.OpJnz, bodyLbl, cond.operand)
	m.cur.proc.EmitLabel(endLbl)
}

func (m *Module) lowerFor(n *ast.ForStmt) {
	switch init := n.Init.(type) {
	case *ast.DeclList:
		m.lowerLocalDeclList(init)
	case *ast.ExprStmt:
		if init.X != nil {
			m.lowerExpr(init.X)
		}
	}
	condLbl := m.cur.freshLabel("for.cond")
	postLbl := m.cur.freshLabel("for.post")
	endLbl := m.cur.freshLabel("for.end")
	m.cur.proc.EmitLabel(condLbl)
	if n.Cond != nil {
		cond := m.load(m.decay(m.lowerExpr(n.Cond)))
		m.emitJump(ir.OpJz, endLbl, cond.operand)
	}
	m.cur.pushLoop(postLbl, endLbl)
	m.lowerStmt(n.Body)
	m.cur.popFrame()
	m.cur.proc.EmitLabel(postLbl)
	if n.Post != nil {
		m.lowerExpr(n.Post)
	}
	m.emitJump(ir.OpJmp, condLbl, ir.Nil)
	m.cur.proc.EmitLabel(endLbl)
}

// lowerSwitch lowers a switch statement in two passes over its body: a
// prescan collects each reachable case/default's constant value and
// label, and a second walk emits the body with those labels in place.
// The prescan only follows Block.Items and the CaseStmt/DefaultStmt
// Body chain the grammar produces for fallthrough labels (`case 1: case
// 2: foo();`) — a case label nested inside an arbitrary construct like
// an if or for body (Duff's-device style) is not discovered.
func (m *Module) lowerSwitch(n *ast.SwitchStmt) {
	x := m.promoteRvalue(m.load(m.decay(m.lowerExpr(n.X))))
	xtemp := m.newTempVar(x.cgType)
	m.emit(ir.OpCopy, x.cgType.Width(), xtemp, x.operand, ir.Nil)

	endLbl := m.cur.freshLabel("switch.end")
	m.cur.pushSwitch(endLbl, "", x.cgType)

	type caseEntry struct {
		label string
		value int64
	}
	var cases []caseEntry
	defaultLbl := ""

	var prescan func(s ast.Stmt)
	prescan = func(s ast.Stmt) {
		switch cn := s.(type) {
		case *ast.Block:
			for _, item := range cn.Items {
				if st, ok := item.(ast.Stmt); ok {
					prescan(st)
				}
			}
		case *ast.CaseStmt:
			v, ok := m.evalConst(cn.Value)
			if !ok {
				m.errorf(cn.Value.First(), "switch", "case label must be a constant expression")
			}
			lbl := m.cur.freshLabel("case")
			cases = append(cases, caseEntry{label: lbl, value: v})
			prescan(cn.Body)
		case *ast.DefaultStmt:
			if defaultLbl != "" {
				m.errorf(cn.Kw, "switch", "multiple default labels in one switch")
			}
			defaultLbl = m.cur.freshLabel("default")
			prescan(cn.Body)
		}
	}
	prescan(n.Body)

	fallthroughLbl := defaultLbl
	if fallthroughLbl == "" {
		fallthroughLbl = endLbl
	}
	for _, c := range cases {
		eq := m.newTempVar(types.Basic(types.Int))
		m.emit(ir.OpEq, x.cgType.Width(), eq, xtemp, ir.Imm(c.value))
		m.emitJump(ir.OpJnz, c.label, eq)
	}
	m.emitJump(ir.OpJmp, fallthroughLbl, ir.Nil)

	caseLabels := make(map[ast.Stmt]string)
	i := 0
	var assignLabels func(s ast.Stmt)
	assignLabels = func(s ast.Stmt) {
		switch cn := s.(type) {
		case *ast.Block:
			for _, item := range cn.Items {
				if st, ok := item.(ast.Stmt); ok {
					assignLabels(st)
				}
			}
		case *ast.CaseStmt:
			caseLabels[cn] = cases[i].label
			i++
			assignLabels(cn.Body)
		case *ast.DefaultStmt:
			caseLabels[cn] = defaultLbl
			assignLabels(cn.Body)
		}
	}
	assignLabels(n.Body)

	var emitBody func(s ast.Stmt)
	emitBody = func(s ast.Stmt) {
		switch cn := s.(type) {
		case *ast.Block:
			for _, item := range cn.Items {
				if st, ok := item.(ast.Stmt); ok {
					emitBody(st)
				} else {
					m.lowerBlockItems([]ast.BlockItem{item})
				}
			}
		case *ast.CaseStmt:
			m.cur.proc.EmitLabel(caseLabels[cn])
			emitBody(cn.Body)
		case *ast.DefaultStmt:
			m.cur.proc.EmitLabel(caseLabels[cn])
			emitBody(cn.Body)
		default:
			m.lowerStmt(s)
		}
	}
	emitBody(n.Body)

	m.cur.popFrame()
	m.cur.proc.EmitLabel(endLbl)
}

// lowerAsmStmt mirrors lowerAsmDecl's synthetic-data-blob convention, but
// additionally emits a `nop` referencing the blob from within the live
// function body so the backend can find it by walking instructions rather
// than only the module's variable list.
func (m *Module) lowerAsmStmt(n *ast.AsmStmt) {
	name := m.recTab.NextAnonTag("asm")
	v := ir.NewVariable(name, ir.IntType(8))
	for _, b := range []byte(n.Text.Text) {
		v.Data.Append(ir.DataEntry{Kind: ir.DataInt, Width: 8, IntVal: int64(b)})
	}
	v.Linkage = ir.LinkageDefault
	m.ir.AddVariable(v)
	m.emit(ir.OpNop, 0, ir.Nil, ir.Var(name), ir.Nil)
}

// lowerLocalDeclList lowers a block-scope declaration: a typedef (scoped
// to the enclosing block), or one or more local variables, each entered
// into the current function's scope and locals list, with any
// initializer lowered as live IR (unlike a global's constant-only
// initializer, see lowerGlobalInit).
func (m *Module) lowerLocalDeclList(n *ast.DeclList) {
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
			if err := m.cur.scope.Insert(scope.Member{Ident: name.Text, Type: t, Variant: scope.Typedef, Def: name}); err != nil {
				m.errorf(name, "redecl", "redeclaration of %q", name.Text)
			}
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
		if err := m.cur.scope.Insert(scope.Member{Ident: name.Text, Type: t, Variant: scope.LocalVariable, Def: name}); err != nil {
			m.errorf(name, "redecl", "redeclaration of %q", name.Text)
			continue
		}
		m.cur.proc.Locals = append(m.cur.proc.Locals, ir.Local{Ident: name.Text, Type: cgTypeToIR(t)})
		if id.Init == nil {
			continue
		}
		addr := m.newTempVar(types.PointerTo(t))
		m.emit(ir.OpLvarptr, 16, addr, ir.Var(name.Text), ir.Nil)
		m.lowerInitInto(addr, t, id.Init)
	}
}

// lowerFuncDef lowers one function definition's body. Linkage is read
// back from the symbol index pass 1 already settled, rather than
// re-reducing n.Specs, since a FuncDef lowered a second time in the same
// pass would otherwise risk re-declaring an inline struct/enum type
// specifier (see declSpecsToDSpec's memoization note).
func (m *Module) lowerFuncDef(n *ast.FuncDef) {
	name, ok := ast.DeclaratorName(n.Declarator)
	if !ok {
		return
	}
	mem, ok := m.global.Lookup(name.Text)
	if !ok {
		return
	}
	fnType := mem.Type

	proc := ir.NewProcedure(name.Text)
	if !fnType.Return.IsVoid() {
		proc.ReturnType = cgTypeToIR(fnType.Return)
	}
	proc.Variadic = fnType.Variadic
	if sym, ok := m.symIdx.Lookup(name.Text); ok {
		proc.Linkage = irLinkageOf(sym.Linkage)
	}

	m.cur = newFuncCtx(proc, m.global, fnType.Return)
	m.bindParams(n.Declarator, fnType)
	m.lowerStmt(n.Body)
	for _, lbl := range m.cur.labels.Undefined() {
		m.errorf(lbl.DefToken, "label", "use of undeclared label %q", lbl.Ident)
	}
	m.cur = nil

	m.ir.AddProcedure(proc)
}

// funcDeclaratorOf descends through the pointer/paren/array layers a
// function declarator may be wrapped in to find its parameter list.
func funcDeclaratorOf(d ast.Declarator) *ast.FuncDeclarator {
	for {
		switch n := d.(type) {
		case *ast.FuncDeclarator:
			return n
		case *ast.PointerDeclarator:
			d = n.Inner
		case *ast.ParenDeclarator:
			d = n.Inner
		case *ast.ArrayDeclarator:
			d = n.Inner
		default:
			return nil
		}
	}
}

// bindParams enters fn's parameters into the callee's scope and the IR
// procedure's argument list, in declaration order, skipping the single
// `void` parameter that marks an explicit empty parameter list.
func (m *Module) bindParams(d ast.Declarator, fnType *types.Type) {
	fd := funcDeclaratorOf(d)
	if fd == nil {
		return
	}
	i := 0
	for _, p := range fd.Params {
		if p.Declarator == nil && isVoidOnly(p.Specs) {
			continue
		}
		name, ok := paramName(p.Declarator)
		if !ok || i >= len(fnType.Args) {
			i++
			continue
		}
		t := fnType.Args[i]
		i++
		if err := m.cur.scope.Insert(scope.Member{Ident: name, Type: t, Variant: scope.Argument, Def: p.Declarator.First()}); err != nil {
			m.errorf(p.Declarator.First(), "redecl", "redeclaration of parameter %q", name)
			continue
		}
		m.cur.proc.Args = append(m.cur.proc.Args, ir.Param{Ident: name, Type: cgTypeToIR(t)})
	}
}

// lowerDeclList lowers a module-scope declaration: typedef and extern
// storage classes are no-ops here (already registered in pass 1); an
// ordinary global variable gets an ir.Variable, with any initializer
// lowered as constant data (lowerGlobalInit), since a global initializer
// must be a constant expression rather than live IR.
func (m *Module) lowerDeclList(n *ast.DeclList) {
	dspec := m.declSpecsToDSpec(n.Specs)
	if dspec.StorageClass == token.KwTypedef || dspec.StorageClass == token.KwExtern {
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
		if t.Kind == types.KFunc {
			continue // a bare function prototype at module scope, not a variable
		}
		v := ir.NewVariable(name.Text, cgTypeToIR(t))
		if sym, ok := m.symIdx.Lookup(name.Text); ok {
			v.Linkage = irLinkageOf(sym.Linkage)
		}
		if id.Init != nil {
			m.lowerGlobalInit(v, t, id.Init)
		}
		m.ir.AddVariable(v)
	}
}

// lowerGlobalInit lowers init against v (a not-yet-emitted module
// variable of type t) into dblock entries, recursing through nested
// braces per aggregate member/element order — the constant-expression
// twin of lowerInitInto, since a global initializer may not reference
// runtime values.
func (m *Module) lowerGlobalInit(v *ir.Variable, t *types.Type, init ast.Initializer) {
	switch in := init.(type) {
	case *ast.ExprInit:
		m.appendGlobalScalar(v, t, in.X)
	case *ast.ListInit:
		switch t.Kind {
		case types.KArray:
			for _, item := range in.Items {
				m.lowerGlobalInit(v, t.Element, item)
			}
			if t.HasSize {
				for i := int64(len(in.Items)); i < t.Size; i++ {
					m.padGlobalZero(v, t.Element)
				}
			}
		case types.KRecord:
			rec, ok := m.recTab.LookupRecord(t.Record.Name)
			if !ok {
				return
			}
			for i, item := range in.Items {
				if i >= len(rec.Members) {
					break
				}
				m.lowerGlobalInit(v, rec.Members[i].Type, item)
			}
		default:
			if len(in.Items) > 0 {
				m.lowerGlobalInit(v, t, in.Items[0])
			}
		}
	}
}

func (m *Module) padGlobalZero(v *ir.Variable, t *types.Type) {
	v.Data.Append(ir.DataEntry{Kind: ir.DataInt, Width: t.Width(), IntVal: 0})
}

// appendGlobalScalar evaluates e as a global initializer scalar: either a
// constant integer, a `&ident` (or decayed array/function name) address
// reference, or a string literal (synthesized as its own anonymous data
// blob, referenced by a DataPtr entry the same way `&ident` is).
func (m *Module) appendGlobalScalar(v *ir.Variable, t *types.Type, e ast.Expr) {
	e = unwrapParens(e)
	if u, ok := e.(*ast.UnaryExpr); ok && u.Op.Kind == token.Amp {
		if id, ok := unwrapParens(u.X).(*ast.Ident); ok {
			v.Data.Append(ir.DataEntry{Kind: ir.DataPtr, Width: t.Width(), Symbol: id.Name.Text})
			return
		}
	}
	if sl, ok := e.(*ast.StringLit); ok {
		var text []byte
		for _, tok := range sl.Toks {
			text = append(text, decodeStringLitBytes(tok.Text)...)
		}
		text = append(text, 0)
		name := m.recTab.NextAnonTag("str")
		blob := ir.NewVariable(name, ir.ArrayType(len(text), ir.IntType(8)))
		for _, b := range text {
			blob.Data.Append(ir.DataEntry{Kind: ir.DataInt, Width: 8, IntVal: int64(b)})
		}
		blob.Linkage = ir.LinkageDefault
		m.ir.AddVariable(blob)
		v.Data.Append(ir.DataEntry{Kind: ir.DataPtr, Width: t.Width(), Symbol: name})
		return
	}
	val, ok := m.evalConst(e)
	if !ok {
		m.errorf(e.First(), "init", "global initializer must be a constant expression")
	}
	v.Data.Append(ir.DataEntry{Kind: ir.DataInt, Width: t.Width(), IntVal: val})
}

func unwrapParens(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
