package codegen

import (
	"sycz80/internal/ast"
	"sycz80/internal/types"
)

// declOpKind tags one layer a declarator contributes to its composed type.
type declOpKind int

const (
	opPointer declOpKind = iota
	opArray
	opFunc
)

type declOp struct {
	kind     declOpKind
	size     int64
	hasSize  bool
	args     []*types.Type
	variadic bool
}

// declaratorType composes d's CG type from base (the DSpec-derived type),
// folding the ops list collectDclTyped produced in reverse — the first op
// collectDclTyped appended is semantically outermost, so it must be the last
// one applied to base — per spec.md §4.3's declarator-synthesis rule,
// refined for C's pointer/suffix precedence (see collectDclTyped).
//
// argTypesOf resolves a FuncDeclarator's parameter types; m is threaded
// through for diagnostics and array-size constant folding.
func (m *Module) declaratorType(d ast.Declarator, base *types.Type) *types.Type {
	ops := m.collectDclTyped(d, nil)
	t := base
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch op.kind {
		case opPointer:
			t = types.PointerTo(t)
		case opArray:
			t = types.ArrayOf(t, op.size, op.hasSize)
		case opFunc:
			t = types.Func(t, op.args, op.variadic)
		}
	}
	return t
}

// collectDclTyped walks d's wrappers, appending one declOp per pointer,
// array or function layer with the innermost layer first, folding array
// sizes and resolving parameter types as it goes, since those need access
// to Module (scope, record table, diagnostics).
func (m *Module) collectDclTyped(d ast.Declarator, ops []declOp) []declOp {
	if pd, ok := d.(*ast.PointerDeclarator); ok {
		ops = m.collectDclTyped(pd.Inner, ops)
		return append(ops, declOp{kind: opPointer})
	}
	switch n := d.(type) {
	case *ast.ParenDeclarator:
		return m.collectDclTyped(n.Inner, ops)
	case *ast.ArrayDeclarator:
		ops = m.collectDclTyped(n.Inner, ops)
		size, hasSize := m.constArraySize(n)
		return append(ops, declOp{kind: opArray, size: size, hasSize: hasSize})
	case *ast.FuncDeclarator:
		ops = m.collectDclTyped(n.Inner, ops)
		args, variadic := m.funcParamTypes(n)
		return append(ops, declOp{kind: opFunc, args: args, variadic: variadic})
	default:
		return ops
	}
}

func (m *Module) constArraySize(a *ast.ArrayDeclarator) (int64, bool) {
	if a.Size == nil {
		return 0, false
	}
	v, ok := m.evalConst(a.Size)
	if !ok {
		m.errorf(a.Size.First(), "array", "array size must be a constant expression")
		return 1, true
	}
	return v, true
}

func (m *Module) funcParamTypes(fd *ast.FuncDeclarator) ([]*types.Type, bool) {
	var args []*types.Type
	for _, p := range fd.Params {
		if p.Declarator == nil && isVoidOnly(p.Specs) {
			continue
		}
		d := m.declSpecsToDSpec(p.Specs)
		base := m.resolveDSpec(d, p.Specs.First())
		var t *types.Type
		if p.Declarator != nil {
			t = m.declaratorType(p.Declarator, base)
		} else {
			t = base
		}
		args = append(args, t)
	}
	return args, fd.Variadic
}

func isVoidOnly(specs *ast.DeclSpecs) bool {
	bt, ok := specs.TypeSpec.(*ast.BasicTypeSpec)
	if !ok || len(bt.Tokens) != 1 {
		return false
	}
	return bt.Tokens[0].Text == "void"
}

// paramName returns the identifier token at d's leaf, if any, for binding a
// function parameter into the callee's scope.
func paramName(d ast.Declarator) (string, bool) {
	name, ok := ast.DeclaratorName(d)
	if !ok {
		return "", false
	}
	return name.Text, true
}
