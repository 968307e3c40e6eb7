package codegen

import (
	"strconv"
	"strings"

	"sycz80/internal/ast"
	"sycz80/internal/ir"
	"sycz80/internal/token"
	"sycz80/internal/types"
)

// evalConst evaluates e as an integer constant expression, per spec.md
// §4.3's "accepted as an integer constant expression where the grammar
// demands one (case labels, enumerators, array dimensions, bitfield
// widths)". It never emits instructions into the function being lowered
// and never touches its lowering state (a `sizeof` operand is lowered into
// a throwaway procedure only to learn its type) — it is the twin of lowerExpr's cv_int
// propagation, used wherever the grammar wants a constant instead of
// lowered code.
func (m *Module) evalConst(e ast.Expr) (int64, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return parseIntLit(n.Tok.Text)
	case *ast.CharLit:
		return parseCharLit(n.Tok.Text)
	case *ast.ParenExpr:
		return m.evalConst(n.X)
	case *ast.UnaryExpr:
		x, ok := m.evalConst(n.X)
		if !ok {
			return 0, false
		}
		switch n.Op.Kind {
		case token.Minus:
			return -x, true
		case token.Plus:
			return x, true
		case token.Tilde:
			return ^x, true
		case token.Bang:
			if x == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case *ast.BinaryExpr:
		x, ok1 := m.evalConst(n.X)
		y, ok2 := m.evalConst(n.Y)
		if !ok1 || !ok2 {
			return 0, false
		}
		return evalConstBinary(n.Op.Kind, x, y)
	case *ast.ConditionalExpr:
		c, ok := m.evalConst(n.Cond)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return m.evalConst(n.Then)
		}
		return m.evalConst(n.Else)
	case *ast.SizeofExpr:
		return m.sizeofExprConst(n.X)
	case *ast.SizeofTypeExpr:
		t := m.typeNameToType(n.Type)
		return int64(t.Width() / 8), true
	case *ast.Ident:
		return m.enumConstValue(n.Name.Text)
	}
	return 0, false
}

func (m *Module) sizeofExprConst(e ast.Expr) (int64, bool) {
	if pe, ok := e.(*ast.ParenExpr); ok {
		e = pe.X
	}
	saved := m.cur
	scratch := newFuncCtx(ir.NewProcedure(""), m.global, types.Basic(types.Int))
	if saved != nil {
		scratch.scope = saved.scope
	}
	m.cur = scratch
	res := m.lowerExpr(e)
	m.cur = saved
	return int64(res.cgType.Width() / 8), true
}

func evalConstBinary(op token.Kind, x, y int64) (int64, bool) {
	switch op {
	case token.Plus:
		return x + y, true
	case token.Minus:
		return x - y, true
	case token.Star:
		return x * y, true
	case token.Slash:
		if y == 0 {
			return 0, false
		}
		return x / y, true
	case token.Percent:
		if y == 0 {
			return 0, false
		}
		return x % y, true
	case token.Amp:
		return x & y, true
	case token.Pipe:
		return x | y, true
	case token.Caret:
		return x ^ y, true
	case token.LShift:
		return x << uint(y), true
	case token.RShift:
		return x >> uint(y), true
	case token.LAnd:
		return boolInt(x != 0 && y != 0), true
	case token.LOr:
		return boolInt(x != 0 || y != 0), true
	case token.EqEq:
		return boolInt(x == y), true
	case token.NotEq:
		return boolInt(x != y), true
	case token.Lt:
		return boolInt(x < y), true
	case token.Gt:
		return boolInt(x > y), true
	case token.LtEq:
		return boolInt(x <= y), true
	case token.GtEq:
		return boolInt(x >= y), true
	}
	return 0, false
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// parseIntLit parses a C integer-constant token's text (decimal, 0x hex,
// 0 octal, with any trailing u/l/ll suffix letters stripped).
func parseIntLit(text string) (int64, bool) {
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return r == 'u' || r == 'U' || r == 'l' || r == 'L'
	})
	if text == "" {
		return 0, false
	}
	base := 10
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		base = 16
		text = text[2:]
	case strings.HasPrefix(text, "0") && len(text) > 1:
		base = 8
		text = text[1:]
	}
	v, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, false
	}
	return int64(v), true
}

// parseCharLit decodes a 'c'-style character-literal token's text (single
// byte or a subset of the usual backslash escapes) into its integer value.
func parseCharLit(text string) (int64, bool) {
	if len(text) < 2 || text[0] != '\'' {
		return 0, false
	}
	body := text[1 : len(text)-1]
	if len(body) == 0 {
		return 0, false
	}
	if body[0] != '\\' {
		return int64(body[0]), true
	}
	if len(body) < 2 {
		return 0, false
	}
	switch body[1] {
	case 'n':
		return int64('\n'), true
	case 't':
		return int64('\t'), true
	case 'r':
		return int64('\r'), true
	case '0':
		return 0, true
	case '\\':
		return int64('\\'), true
	case '\'':
		return int64('\''), true
	}
	return int64(body[1]), true
}
