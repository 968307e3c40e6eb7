package codegen

import (
	"strings"

	"sycz80/internal/ast"
	"sycz80/internal/ir"
	"sycz80/internal/recdef"
	"sycz80/internal/scope"
	"sycz80/internal/token"
	"sycz80/internal/types"
)

// valKind distinguishes an eres holding the address of a memory location
// (lvalue) from one holding a value directly (rvalue), per spec.md §4.3's
// `eres { ir_var_name, valtype, cg_type, val_used, cv_known?, cv_int }`.
type valKind int

const (
	rvalue valKind = iota
	lvalue
)

// eres is the result of lowering one expression. bitfield/bitPos/bitWidth
// are set only when the expression names a bitfield member: operand then
// holds the address of the member's storage unit, not the member itself,
// and load/assignment must shift and mask around it instead of emitting a
// plain read/write.
type eres struct {
	operand ir.Operand
	kind    valKind
	cgType  *types.Type
	cvKnown bool
	cvInt   int64

	bitfield bool
	bitPos   int
	bitWidth int
}

func rv(op ir.Operand, t *types.Type) eres { return eres{operand: op, kind: rvalue, cgType: t} }
func lv(op ir.Operand, t *types.Type) eres { return eres{operand: op, kind: lvalue, cgType: t} }

func (m *Module) emit(op ir.Op, width int, dest, op1, op2 ir.Operand) {
	m.cur.proc.Emit(ir.Instr{Op: op, Width: width, Dest: dest, Op1: op1, Op2: op2})
}

func (m *Module) emitTyped(op ir.Op, width int, dest, op1, op2 ir.Operand, te *ir.TypeExpr) {
	m.cur.proc.Emit(ir.Instr{Op: op, Width: width, Dest: dest, Op1: op1, Op2: op2, TypeOp: te})
}

// emitJump appends a jmp/jz/jnz whose Dest names the target label and
// whose Op1 (absent for jmp) carries the tested condition.
func (m *Module) emitJump(op ir.Op, label string, cond ir.Operand) {
	m.cur.proc.Emit(ir.Instr{Op: op, Dest: ir.Var(label), Op1: cond})
}

// newTempVar allocates a fresh local of type t and returns an operand
// naming it.
func (m *Module) newTempVar(t *types.Type) ir.Operand {
	name := m.cur.freshTemp()
	m.cur.proc.Locals = append(m.cur.proc.Locals, ir.Local{Ident: name, Type: cgTypeToIR(t)})
	return ir.Var(name)
}

// cgTypeToIR lowers a CG type to the IR's type-expression shape (spec.md
// §3's `int.N | ptr.N | array(size, element) | ident(name)`), collapsing
// function and enum types to their runtime representation since the IR
// has no corresponding type-expression case of its own.
func cgTypeToIR(t *types.Type) *ir.TypeExpr {
	if t == nil {
		return ir.IntType(16)
	}
	switch t.Kind {
	case types.KBasic:
		return ir.IntType(t.Width())
	case types.KPointer:
		return ir.PtrType(16)
	case types.KArray:
		return ir.ArrayType(int(t.Size), cgTypeToIR(t.Element))
	case types.KRecord:
		return ir.IdentType(t.Record.Name)
	case types.KEnum:
		return ir.IntType(16)
	case types.KFunc:
		return ir.PtrType(16)
	}
	return ir.IntType(16)
}

// load converts an lvalue eres to an rvalue, emitting `read` (or the
// bitfield `read+shrl+and` sequence spec.md §4.3's bitfield rule
// describes). An already-rvalue eres passes through unchanged.
func (m *Module) load(e eres) eres {
	if e.kind == rvalue {
		return e
	}
	if e.bitfield {
		return m.loadBitfield(e)
	}
	t := m.newTempVar(e.cgType)
	m.emit(ir.OpRead, e.cgType.Width(), t, e.operand, ir.Nil)
	r := rv(t, e.cgType)
	r.cvKnown, r.cvInt = e.cvKnown, e.cvInt
	return r
}

func (m *Module) loadBitfield(e eres) eres {
	unit := m.newTempVar(e.cgType)
	m.emit(ir.OpRead, e.cgType.Width(), unit, e.operand, ir.Nil)
	shifted := m.newTempVar(e.cgType)
	m.emit(ir.OpShrl, e.cgType.Width(), shifted, unit, ir.Imm(int64(e.bitPos)))
	mask := int64(1)<<uint(e.bitWidth) - 1
	masked := m.newTempVar(e.cgType)
	m.emit(ir.OpAnd, e.cgType.Width(), masked, shifted, ir.Imm(mask))
	return rv(masked, e.cgType)
}

// writeBitfield emits the `read+and+shl+or+write` sequence spec.md §4.3's
// bitfield rule describes for assigning val into the bitfield lhs names.
func (m *Module) writeBitfield(lhs eres, val eres) eres {
	unit := m.newTempVar(lhs.cgType)
	m.emit(ir.OpRead, lhs.cgType.Width(), unit, lhs.operand, ir.Nil)
	mask := int64(1)<<uint(lhs.bitWidth) - 1
	cleared := m.newTempVar(lhs.cgType)
	m.emit(ir.OpAnd, lhs.cgType.Width(), cleared, unit, ir.Imm(^(mask << uint(lhs.bitPos))))
	valConv := m.convertRvalue(val, lhs.cgType)
	shiftedVal := m.newTempVar(lhs.cgType)
	m.emit(ir.OpShl, lhs.cgType.Width(), shiftedVal, valConv.operand, ir.Imm(int64(lhs.bitPos)))
	masked := m.newTempVar(lhs.cgType)
	m.emit(ir.OpAnd, lhs.cgType.Width(), masked, shiftedVal, ir.Imm(mask<<uint(lhs.bitPos)))
	combined := m.newTempVar(lhs.cgType)
	m.emit(ir.OpOr, lhs.cgType.Width(), combined, cleared, masked)
	m.emit(ir.OpWrite, lhs.cgType.Width(), ir.Nil, lhs.operand, combined)
	return rv(combined, lhs.cgType)
}

// decay applies array-to-pointer and function-to-pointer decay (spec.md
// §4.3's pointer-arithmetic rule); callers that must NOT decay (sizeof,
// address-of) skip this and inspect e.cgType directly.
func (m *Module) decay(e eres) eres {
	if e.cgType != nil && e.cgType.Kind == types.KArray {
		return rv(e.operand, types.PointerTo(e.cgType.Element))
	}
	if e.cgType != nil && e.cgType.Kind == types.KFunc {
		return rv(e.operand, types.PointerTo(e.cgType))
	}
	return e
}

// convertRvalue materializes x in type to, emitting sgnext/zrext/trunc as
// needed, per spec.md §4.3's usual-arithmetic-conversion rule.
func (m *Module) convertRvalue(x eres, to *types.Type) eres {
	if x.cgType.Equal(to) {
		return x
	}
	fromW, toW := x.cgType.Width(), to.Width()
	t := m.newTempVar(to)
	switch {
	case toW > fromW:
		op := ir.OpZrext
		if !x.cgType.Unsigned() {
			op = ir.OpSgnext
		}
		m.emit(op, toW, t, x.operand, ir.Nil)
	case toW < fromW:
		m.emit(ir.OpTrunc, toW, t, x.operand, ir.Nil)
	default:
		m.emit(ir.OpCopy, toW, t, x.operand, ir.Nil)
	}
	r := rv(t, to)
	r.cvKnown, r.cvInt = x.cvKnown, x.cvInt
	return r
}

func (m *Module) promoteRvalue(x eres) eres {
	pt := types.Promote(x.cgType)
	if pt.Equal(x.cgType) {
		return x
	}
	return m.convertRvalue(x, pt)
}

// lowerExpr is cgen_expr: the recursive-descent lowering of one
// expression to its eres, per spec.md §4.3's "Expression lowering" rule.
func (m *Module) lowerExpr(e ast.Expr) eres {
	switch n := e.(type) {
	case *ast.Ident:
		return m.lowerIdent(n)
	case *ast.IntLit:
		v, ok := parseIntLit(n.Tok.Text)
		if !ok {
			v = 0
		}
		r := rv(ir.Imm(v), intLitType(n.Tok.Text))
		r.cvKnown, r.cvInt = true, v
		return r
	case *ast.CharLit:
		v, _ := parseCharLit(n.Tok.Text)
		r := rv(ir.Imm(v), types.Basic(types.Int))
		r.cvKnown, r.cvInt = true, v
		return r
	case *ast.StringLit:
		return m.lowerStringLit(n)
	case *ast.UnaryExpr:
		return m.lowerUnary(n)
	case *ast.PostfixExpr:
		return m.lowerIncDec(n.X, n.Op, false)
	case *ast.BinaryExpr:
		return m.lowerBinary(n)
	case *ast.AssignExpr:
		return m.lowerAssign(n)
	case *ast.ConditionalExpr:
		return m.lowerConditional(n)
	case *ast.CommaExpr:
		m.lowerExpr(n.X)
		return m.lowerExpr(n.Y)
	case *ast.CastExpr:
		target := m.typeNameToType(n.Type)
		x := m.load(m.decay(m.lowerExpr(n.X)))
		return m.convertRvalue(x, target)
	case *ast.SizeofExpr:
		v, _ := m.sizeofExprConst(n.X)
		r := rv(ir.Imm(v), types.Basic(types.UInt))
		r.cvKnown, r.cvInt = true, v
		return r
	case *ast.SizeofTypeExpr:
		t := m.typeNameToType(n.Type)
		v := int64(t.Width() / 8)
		r := rv(ir.Imm(v), types.Basic(types.UInt))
		r.cvKnown, r.cvInt = true, v
		return r
	case *ast.CallExpr:
		return m.lowerCall(n)
	case *ast.IndexExpr:
		return m.lowerIndex(n)
	case *ast.MemberExpr:
		return m.lowerMember(n)
	case *ast.CompoundLiteralExpr:
		return m.lowerCompoundLiteral(n)
	case *ast.ParenExpr:
		return m.lowerExpr(n.X)
	}
	m.errorf(e.First(), "expr", "unsupported expression form")
	return rv(ir.Imm(0), types.Basic(types.Int))
}

func (m *Module) lowerIdent(n *ast.Ident) eres {
	name := n.Name.Text
	mem, ok := m.cur.scope.Lookup(name)
	if !ok {
		mem, ok = m.global.Lookup(name)
	}
	if !ok {
		m.errorf(n.Name, "undeclared", "use of undeclared identifier %q", name)
		return rv(ir.Imm(0), types.Basic(types.Int))
	}
	mem.Used = true
	if mem.Variant == scope.EnumConstant {
		v, _ := m.enumConstValue(name)
		r := rv(ir.Imm(v), types.Basic(types.Int))
		r.cvKnown, r.cvInt = true, v
		return r
	}
	if mem.Type != nil && mem.Type.Kind == types.KFunc {
		return rv(ir.Var(name), mem.Type)
	}
	addr := m.newTempVar(types.PointerTo(mem.Type))
	switch mem.Variant {
	case scope.GlobalSymbol:
		m.emit(ir.OpVarptr, 16, addr, ir.Var(name), ir.Nil)
	default:
		m.emit(ir.OpLvarptr, 16, addr, ir.Var(name), ir.Nil)
	}
	return lv(addr, mem.Type)
}

func (m *Module) lowerStringLit(n *ast.StringLit) eres {
	var text []byte
	for _, t := range n.Toks {
		text = append(text, decodeStringLitBytes(t.Text)...)
	}
	text = append(text, 0)
	name := m.recTab.NextAnonTag("str")
	v := ir.NewVariable(name, ir.ArrayType(len(text), ir.IntType(8)))
	for _, b := range text {
		v.Data.Append(ir.DataEntry{Kind: ir.DataInt, Width: 8, IntVal: int64(b)})
	}
	v.Linkage = ir.LinkageDefault
	m.ir.AddVariable(v)
	elemType := types.Basic(types.Char)
	addr := m.newTempVar(types.PointerTo(elemType))
	m.emit(ir.OpVarptr, 16, addr, ir.Var(name), ir.Nil)
	return rv(addr, types.PointerTo(elemType))
}

func decodeStringLitBytes(text string) []byte {
	if len(text) < 2 {
		return nil
	}
	body := text[1 : len(text)-1]
	var out []byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '0':
				out = append(out, 0)
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			default:
				out = append(out, body[i])
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

// intLitType derives an integer literal's CG type from its suffix, per
// the u/l/ll letters spec.md §4.1 leaves the code generator to interpret.
func intLitType(text string) *types.Type {
	lower := strings.ToLower(text)
	hasU := strings.Contains(lower, "u")
	hasL := strings.Contains(lower, "l")
	switch {
	case hasU && hasL:
		return types.Basic(types.ULong)
	case hasU:
		return types.Basic(types.UInt)
	case hasL:
		return types.Basic(types.Long)
	default:
		return types.Basic(types.Int)
	}
}

func (m *Module) lowerUnary(n *ast.UnaryExpr) eres {
	switch n.Op.Kind {
	case token.Amp:
		x := m.lowerExpr(n.X)
		if x.kind != lvalue {
			m.errorf(n.Op, "lvalue", "cannot take the address of an rvalue")
			return rv(ir.Imm(0), types.PointerTo(types.Basic(types.Int)))
		}
		return rv(x.operand, types.PointerTo(x.cgType))
	case token.Star:
		x := m.load(m.decay(m.lowerExpr(n.X)))
		if !x.cgType.IsScalarPointer() {
			m.errorf(n.Op, "deref", "indirection requires a pointer operand")
			return rv(ir.Imm(0), types.Basic(types.Int))
		}
		return lv(x.operand, x.cgType.Target)
	case token.Plus:
		return m.promoteRvalue(m.load(m.decay(m.lowerExpr(n.X))))
	case token.Minus:
		x := m.promoteRvalue(m.load(m.decay(m.lowerExpr(n.X))))
		t := m.newTempVar(x.cgType)
		m.emit(ir.OpNeg, x.cgType.Width(), t, x.operand, ir.Nil)
		r := rv(t, x.cgType)
		if x.cvKnown {
			r.cvKnown, r.cvInt = true, -x.cvInt
		}
		return r
	case token.Tilde:
		x := m.promoteRvalue(m.load(m.decay(m.lowerExpr(n.X))))
		t := m.newTempVar(x.cgType)
		m.emit(ir.OpBnot, x.cgType.Width(), t, x.operand, ir.Nil)
		r := rv(t, x.cgType)
		if x.cvKnown {
			r.cvKnown, r.cvInt = true, ^x.cvInt
		}
		return r
	case token.Bang:
		x := m.load(m.decay(m.lowerExpr(n.X)))
		t := m.newTempVar(types.Basic(types.Int))
		m.emit(ir.OpEq, x.cgType.Width(), t, x.operand, ir.Imm(0))
		r := rv(t, types.Basic(types.Int))
		if x.cvKnown {
			r.cvKnown = true
			if x.cvInt == 0 {
				r.cvInt = 1
			}
		}
		return r
	case token.PlusPlus, token.MinusMinus:
		return m.lowerIncDec(n.X, n.Op, true)
	}
	m.errorf(n.Op, "unary", "unsupported unary operator %s", n.Op.Kind)
	return rv(ir.Imm(0), types.Basic(types.Int))
}

func (m *Module) lowerIncDec(x ast.Expr, op token.Token, pre bool) eres {
	lval := m.lowerExpr(x)
	if lval.kind != lvalue {
		m.errorf(op, "lvalue", "increment/decrement requires an lvalue operand")
		return m.load(lval)
	}
	old := m.load(lval)
	step := int64(1)
	if lval.cgType.Kind == types.KPointer {
		step = int64(lval.cgType.Target.Width() / 8)
	}
	addOp := ir.OpAdd
	if op.Kind == token.MinusMinus {
		addOp = ir.OpSub
	}
	nt := m.newTempVar(old.cgType)
	m.emit(addOp, old.cgType.Width(), nt, old.operand, ir.Imm(step))
	m.emit(ir.OpWrite, old.cgType.Width(), ir.Nil, lval.operand, nt)
	if pre {
		return rv(nt, old.cgType)
	}
	return old
}

func (m *Module) lowerBinary(n *ast.BinaryExpr) eres {
	switch n.Op.Kind {
	case token.LAnd, token.LOr:
		return m.lowerLogical(n)
	}
	x := m.load(m.decay(m.lowerExpr(n.X)))
	y := m.load(m.decay(m.lowerExpr(n.Y)))

	switch n.Op.Kind {
	case token.Plus, token.Minus:
		if x.cgType.Kind == types.KPointer || y.cgType.Kind == types.KPointer {
			return m.lowerPointerArith(n.Op, x, y)
		}
	}
	switch n.Op.Kind {
	case token.Lt, token.Gt, token.LtEq, token.GtEq, token.EqEq, token.NotEq:
		return m.lowerRelational(n.Op, x, y)
	}

	common, flag := types.UAC(x.cgType, y.cgType)
	if flag != "" {
		m.warnf(n.Op, "conversion", "implicit conversion (%s)", flag)
	}
	xc := m.convertRvalue(x, common)
	yc := m.convertRvalue(y, common)
	op, ok := arithOpFor(n.Op.Kind, common.Unsigned())
	if !ok {
		m.errorf(n.Op, "binary", "unsupported binary operator %s", n.Op.Kind)
		return rv(ir.Imm(0), common)
	}
	t := m.newTempVar(common)
	m.emit(op, common.Width(), t, xc.operand, yc.operand)
	r := rv(t, common)
	if xc.cvKnown && yc.cvKnown {
		if v, ok := evalConstBinary(n.Op.Kind, xc.cvInt, yc.cvInt); ok {
			r.cvKnown, r.cvInt = true, v
		}
	}
	return r
}

func arithOpFor(k token.Kind, unsigned bool) (ir.Op, bool) {
	switch k {
	case token.Plus:
		return ir.OpAdd, true
	case token.Minus:
		return ir.OpSub, true
	case token.Star:
		return ir.OpMul, true
	case token.Slash:
		if unsigned {
			return ir.OpUdiv, true
		}
		return ir.OpSdiv, true
	case token.Percent:
		if unsigned {
			return ir.OpUmod, true
		}
		return ir.OpSmod, true
	case token.Amp:
		return ir.OpAnd, true
	case token.Pipe:
		return ir.OpOr, true
	case token.Caret:
		return ir.OpXor, true
	case token.LShift:
		return ir.OpShl, true
	case token.RShift:
		if unsigned {
			return ir.OpShrl, true
		}
		return ir.OpShra, true
	}
	return 0, false
}

func (m *Module) lowerRelational(op token.Token, x, y eres) eres {
	if x.cgType.Kind == types.KPointer || y.cgType.Kind == types.KPointer {
		return m.lowerPointerCompare(op, x, y)
	}
	common, flag := types.UAC(x.cgType, y.cgType)
	if flag != "" {
		m.warnf(op, "conversion", "implicit conversion (%s)", flag)
	}
	xc := m.convertRvalue(x, common)
	yc := m.convertRvalue(y, common)
	irop := relOpFor(op.Kind, common.Unsigned())
	t := m.newTempVar(types.Basic(types.Int))
	m.emit(irop, common.Width(), t, xc.operand, yc.operand)
	r := rv(t, types.Basic(types.Int))
	if xc.cvKnown && yc.cvKnown {
		if v, ok := evalConstBinary(op.Kind, xc.cvInt, yc.cvInt); ok {
			r.cvKnown, r.cvInt = true, v
		}
	}
	return r
}

// lowerPointerCompare lowers pointer/pointer and pointer/null-constant
// comparisons as unsigned comparisons, per spec.md §4.3's pointer-
// arithmetic rule.
func (m *Module) lowerPointerCompare(op token.Token, x, y eres) eres {
	irop := relOpFor(op.Kind, true)
	t := m.newTempVar(types.Basic(types.Int))
	m.emit(irop, 16, t, x.operand, y.operand)
	return rv(t, types.Basic(types.Int))
}

func relOpFor(k token.Kind, unsigned bool) ir.Op {
	switch k {
	case token.Lt:
		if unsigned {
			return ir.OpLtu
		}
		return ir.OpLt
	case token.Gt:
		if unsigned {
			return ir.OpGtu
		}
		return ir.OpGt
	case token.LtEq:
		if unsigned {
			return ir.OpLteu
		}
		return ir.OpLteq
	case token.GtEq:
		if unsigned {
			return ir.OpGteu
		}
		return ir.OpGteq
	case token.NotEq:
		return ir.OpNeq
	default:
		return ir.OpEq
	}
}

// lowerPointerArith lowers `ptr +/- int` to ptridx using the element
// size, and `ptr - ptr` to sub then sdiv by element size, per spec.md
// §4.3's pointer-arithmetic rule.
func (m *Module) lowerPointerArith(op token.Token, x, y eres) eres {
	if x.cgType.Kind == types.KPointer && y.cgType.Kind == types.KPointer {
		elemW := int64(x.cgType.Target.Width() / 8)
		if elemW == 0 {
			elemW = 1
		}
		diff := m.newTempVar(types.Basic(types.Int))
		m.emit(ir.OpSub, 16, diff, x.operand, y.operand)
		t := m.newTempVar(types.Basic(types.Int))
		m.emit(ir.OpSdiv, 16, t, diff, ir.Imm(elemW))
		return rv(t, types.Basic(types.Int))
	}
	ptr, idx := x, y
	if idx.cgType.Kind == types.KPointer {
		ptr, idx = y, x
	}
	if op.Kind == token.Minus {
		neg := m.newTempVar(idx.cgType)
		m.emit(ir.OpNeg, idx.cgType.Width(), neg, idx.operand, ir.Nil)
		idx = rv(neg, idx.cgType)
	}
	dest := m.newTempVar(ptr.cgType)
	m.emitTyped(ir.OpPtridx, 16, dest, ptr.operand, idx.operand, cgTypeToIR(ptr.cgType.Target))
	return rv(dest, ptr.cgType)
}

// lowerLogical lowers && / || with short-circuit control flow into a 0/1
// int result.
func (m *Module) lowerLogical(n *ast.BinaryExpr) eres {
	result := m.newTempVar(types.Basic(types.Int))
	shortLabel := m.cur.freshLabel("logic")
	endLabel := m.cur.freshLabel("logic")

	x := m.load(m.decay(m.lowerExpr(n.X)))
	if n.Op.Kind == token.LAnd {
		m.emitJump(ir.OpJz, shortLabel, x.operand)
	} else {
		m.emitJump(ir.OpJnz, shortLabel, x.operand)
	}
	y := m.load(m.decay(m.lowerExpr(n.Y)))
	ybool := m.newTempVar(types.Basic(types.Int))
	m.emit(ir.OpNeq, y.cgType.Width(), ybool, y.operand, ir.Imm(0))
	m.emit(ir.OpCopy, 16, result, ybool, ir.Nil)
	m.emitJump(ir.OpJmp, endLabel, ir.Nil)

	m.cur.proc.EmitLabel(shortLabel)
	shortVal := int64(0)
	if n.Op.Kind == token.LOr {
		shortVal = 1
	}
	m.emit(ir.OpCopy, 16, result, ir.Imm(shortVal), ir.Nil)
	m.cur.proc.EmitLabel(endLabel)
	return rv(result, types.Basic(types.Int))
}

func compoundBinOp(k token.Kind) token.Kind {
	switch k {
	case token.PlusEq:
		return token.Plus
	case token.MinusEq:
		return token.Minus
	case token.StarEq:
		return token.Star
	case token.SlashEq:
		return token.Slash
	case token.PercentEq:
		return token.Percent
	case token.AmpEq:
		return token.Amp
	case token.PipeEq:
		return token.Pipe
	case token.CaretEq:
		return token.Caret
	case token.LShiftEq:
		return token.LShift
	case token.RShiftEq:
		return token.RShift
	}
	return token.Invalid
}

func (m *Module) lowerAssign(n *ast.AssignExpr) eres {
	lhs := m.lowerExpr(n.LHS)
	if lhs.kind != lvalue {
		m.errorf(n.Op, "lvalue", "assignment requires an lvalue operand")
		return m.load(lhs)
	}
	if n.Op.Kind == token.Assign {
		rhs := m.load(m.decay(m.lowerExpr(n.RHS)))
		if lhs.bitfield {
			return m.writeBitfield(lhs, rhs)
		}
		if lhs.cgType.Kind == types.KRecord {
			m.emit(ir.OpReccopy, lhs.cgType.Width(), ir.Nil, lhs.operand, rhs.operand)
			return lv(lhs.operand, lhs.cgType)
		}
		conv := m.convertRvalue(rhs, lhs.cgType)
		m.emit(ir.OpWrite, lhs.cgType.Width(), ir.Nil, lhs.operand, conv.operand)
		r := rv(conv.operand, lhs.cgType)
		r.cvKnown, r.cvInt = conv.cvKnown, conv.cvInt
		return r
	}

	old := m.load(lhs)
	rhs := m.load(m.decay(m.lowerExpr(n.RHS)))
	binOp := compoundBinOp(n.Op.Kind)
	var result eres
	if old.cgType.Kind == types.KPointer && (binOp == token.Plus || binOp == token.Minus) {
		result = m.lowerPointerArith(token.Token{Kind: binOp}, old, rhs)
	} else {
		common, flag := types.UAC(old.cgType, rhs.cgType)
		if flag != "" {
			m.warnf(n.Op, "conversion", "implicit conversion (%s)", flag)
		}
		oc := m.convertRvalue(old, common)
		rc := m.convertRvalue(rhs, common)
		op, _ := arithOpFor(binOp, common.Unsigned())
		t := m.newTempVar(common)
		m.emit(op, common.Width(), t, oc.operand, rc.operand)
		result = rv(t, common)
	}
	if lhs.bitfield {
		return m.writeBitfield(lhs, result)
	}
	conv := m.convertRvalue(result, lhs.cgType)
	m.emit(ir.OpWrite, lhs.cgType.Width(), ir.Nil, lhs.operand, conv.operand)
	return rv(conv.operand, lhs.cgType)
}

// lowerConditional lowers `cond ? then : else`, committing to the then-
// branch's type and converting the else-branch's value into it.
func (m *Module) lowerConditional(n *ast.ConditionalExpr) eres {
	cond := m.load(m.decay(m.lowerExpr(n.Cond)))
	elseLabel := m.cur.freshLabel("cond")
	endLabel := m.cur.freshLabel("cond")
	m.emitJump(ir.OpJz, elseLabel, cond.operand)

	thenVal := m.load(m.decay(m.lowerExpr(n.Then)))
	result := m.newTempVar(thenVal.cgType)
	m.emit(ir.OpCopy, thenVal.cgType.Width(), result, thenVal.operand, ir.Nil)
	m.emitJump(ir.OpJmp, endLabel, ir.Nil)

	m.cur.proc.EmitLabel(elseLabel)
	elseVal := m.load(m.decay(m.lowerExpr(n.Else)))
	elseConv := m.convertRvalue(elseVal, thenVal.cgType)
	m.emit(ir.OpCopy, thenVal.cgType.Width(), result, elseConv.operand, ir.Nil)

	m.cur.proc.EmitLabel(endLabel)
	return rv(result, thenVal.cgType)
}

func (m *Module) lowerCall(n *ast.CallExpr) eres {
	callee := m.decay(m.lowerExpr(n.Func))
	var args []ir.Operand
	for _, a := range n.Args {
		av := m.load(m.decay(m.lowerExpr(a)))
		args = append(args, av.operand)
	}
	fnType := callee.cgType
	if fnType.Kind == types.KPointer {
		fnType = fnType.Target
	}
	retType := types.Basic(types.Void)
	if fnType != nil && fnType.Kind == types.KFunc {
		retType = fnType.Return
	}

	op := ir.OpCalli
	calleeOperand := callee.operand
	if ident, ok := n.Func.(*ast.Ident); ok {
		if sym, ok := m.global.Lookup(ident.Name.Text); ok && sym.Type != nil && sym.Type.Kind == types.KFunc {
			op = ir.OpCall
			calleeOperand = ir.Var(ident.Name.Text)
		}
	}

	if retType.IsVoid() {
		m.emit(op, 16, ir.Nil, calleeOperand, ir.OperandListOf(args...))
		return rv(ir.Nil, retType)
	}
	dest := m.newTempVar(retType)
	m.emit(op, retType.Width(), dest, calleeOperand, ir.OperandListOf(args...))
	return rv(dest, retType)
}

func (m *Module) lowerIndex(n *ast.IndexExpr) eres {
	base := m.load(m.decay(m.lowerExpr(n.X)))
	idx := m.load(m.decay(m.lowerExpr(n.Index)))
	if base.cgType.Kind != types.KPointer {
		m.errorf(n.LBracket, "index", "subscript requires a pointer or array operand")
		return rv(ir.Imm(0), types.Basic(types.Int))
	}
	addr := m.newTempVar(base.cgType)
	m.emitTyped(ir.OpPtridx, 16, addr, base.operand, idx.operand, cgTypeToIR(base.cgType.Target))
	return lv(addr, base.cgType.Target)
}

// memberOffset walks rec's members in declaration order computing name's
// byte offset: a bitfield member's offset is its storage unit's start
// (shared by every member packed into that unit), an ordinary member's
// offset is the sum of every preceding member's width.
func (m *Module) memberOffset(rec *recdef.Record, name string) (int64, recdef.Member, bool) {
	var cur int64
	var curUnit *recdef.StorageUnit
	var unitOff int64
	for _, f := range rec.Members {
		if f.IsBitfield() {
			if f.Unit != curUnit {
				curUnit = f.Unit
				unitOff = cur
				cur += int64(f.Unit.Base.Width() / 8)
			}
			if f.Ident == name {
				return unitOff, f, true
			}
			continue
		}
		curUnit = nil
		if f.Ident == name {
			return cur, f, true
		}
		cur += int64(f.Type.Width() / 8)
	}
	return 0, recdef.Member{}, false
}

func (m *Module) lowerMember(n *ast.MemberExpr) eres {
	var baseAddr ir.Operand
	var recType *types.Type
	if n.Op.Kind == token.Arrow {
		ptr := m.load(m.decay(m.lowerExpr(n.X)))
		if !ptr.cgType.IsScalarPointer() {
			m.errorf(n.Op, "member", "-> requires a pointer operand")
			return rv(ir.Imm(0), types.Basic(types.Int))
		}
		baseAddr = ptr.operand
		recType = ptr.cgType.Target
	} else {
		x := m.lowerExpr(n.X)
		if x.kind != lvalue {
			m.errorf(n.Op, "member", "member access requires an addressable struct/union operand")
			return rv(ir.Imm(0), types.Basic(types.Int))
		}
		baseAddr = x.operand
		recType = x.cgType
	}
	if recType == nil || recType.Kind != types.KRecord {
		m.errorf(n.Name, "member", "member reference base type is not a struct or union")
		return rv(ir.Imm(0), types.Basic(types.Int))
	}
	rec, ok := m.recTab.LookupRecord(recType.Record.Name)
	if !ok {
		m.errorf(n.Name, "member", "unknown record %q", recType.Record.Name)
		return rv(ir.Imm(0), types.Basic(types.Int))
	}
	off, member, ok := m.memberOffset(rec, n.Name.Text)
	if !ok {
		m.errorf(n.Name, "member", "no member named %q", n.Name.Text)
		return rv(ir.Imm(0), types.Basic(types.Int))
	}
	addr := baseAddr
	if off != 0 {
		t := m.newTempVar(types.PointerTo(member.Type))
		m.emit(ir.OpAdd, 16, t, baseAddr, ir.Imm(off))
		addr = t
	}
	if member.IsBitfield() {
		e := lv(addr, member.Unit.Base)
		e.bitfield, e.bitPos, e.bitWidth = true, member.BitPos, member.BitWidth
		return e
	}
	return lv(addr, member.Type)
}

func (m *Module) lowerCompoundLiteral(n *ast.CompoundLiteralExpr) eres {
	t := m.typeNameToType(n.Type)
	obj := m.newTempVar(t)
	addr := m.newTempVar(types.PointerTo(t))
	m.emit(ir.OpLvarptr, 16, addr, obj, ir.Nil)
	m.lowerInitInto(addr, t, n.Init)
	return lv(addr, t)
}

// lowerInitInto lowers init against addr (the address of a value of type
// t already allocated), recursing through nested braces per aggregate
// member/element order. Shared by compound literals and variable
// initializers (lowerDeclList).
func (m *Module) lowerInitInto(addr ir.Operand, t *types.Type, init ast.Initializer) {
	switch in := init.(type) {
	case *ast.ExprInit:
		val := m.load(m.decay(m.lowerExpr(in.X)))
		if t.Kind == types.KRecord {
			m.emit(ir.OpReccopy, t.Width(), ir.Nil, addr, val.operand)
			return
		}
		conv := m.convertRvalue(val, t)
		m.emit(ir.OpWrite, t.Width(), ir.Nil, addr, conv.operand)
	case *ast.ListInit:
		switch t.Kind {
		case types.KArray:
			elemSize := int64(t.Element.Width() / 8)
			for i, item := range in.Items {
				off := int64(i) * elemSize
				eaddr := addr
				if off != 0 {
					eaddr = m.newTempVar(types.PointerTo(t.Element))
					m.emit(ir.OpAdd, 16, eaddr, addr, ir.Imm(off))
				}
				m.lowerInitInto(eaddr, t.Element, item)
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
				mem := rec.Members[i]
				off, _, _ := m.memberOffset(rec, mem.Ident)
				eaddr := addr
				if off != 0 {
					eaddr = m.newTempVar(types.PointerTo(mem.Type))
					m.emit(ir.OpAdd, 16, eaddr, addr, ir.Imm(off))
				}
				m.lowerInitInto(eaddr, mem.Type, item)
			}
		default:
			if len(in.Items) > 0 {
				m.lowerInitInto(addr, t, in.Items[0])
			}
		}
	}
}
