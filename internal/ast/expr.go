package ast

import "sycz80/internal/token"

// Expr is the expression node variant: literal, identifier, unary,
// binary, cast, sizeof, call, index, member, conditional, comma,
// compound-literal, initializer-list (spec.md §3).
type Expr interface {
	Node
	exprNode()
}

// Ident is an identifier used as a primary expression.
type Ident struct {
	base
	Name token.Token
}

func (*Ident) exprNode() {}

// IntLit is an integer constant (the lexer's Number token, value
// parsing deferred to the code generator per spec.md §4.1).
type IntLit struct {
	base
	Tok token.Token
}

func (*IntLit) exprNode() {}

// CharLit is a character constant.
type CharLit struct {
	base
	Tok token.Token
}

func (*CharLit) exprNode() {}

// StringLit is one or more adjacent string-literal tokens, concatenated
// per spec.md §4.2 ("string-literal concatenation across adjacent
// literals").
type StringLit struct {
	base
	Toks []token.Token
}

func (*StringLit) exprNode() {}

// UnaryExpr is a prefix unary operator (&, *, +, -, ~, !, ++, --)
// applied to an operand.
type UnaryExpr struct {
	base
	Op token.Token
	X  Expr
}

func (*UnaryExpr) exprNode() {}

// PostfixExpr is a postfix ++ or -- applied to an operand.
type PostfixExpr struct {
	base
	X  Expr
	Op token.Token
}

func (*PostfixExpr) exprNode() {}

// BinaryExpr is an infix binary operator.
type BinaryExpr struct {
	base
	Op   token.Token
	X, Y Expr
}

func (*BinaryExpr) exprNode() {}

// AssignExpr is a (possibly compound) assignment.
type AssignExpr struct {
	base
	LHS Expr
	Op  token.Token
	RHS Expr
}

func (*AssignExpr) exprNode() {}

// ConditionalExpr is the ternary `cond ? then : else`.
type ConditionalExpr struct {
	base
	Cond     Expr
	Question token.Token
	Then     Expr
	Colon    token.Token
	Else     Expr
}

func (*ConditionalExpr) exprNode() {}

// CommaExpr is the sequencing operator `x, y`.
type CommaExpr struct {
	base
	X     Expr
	Comma token.Token
	Y     Expr
}

func (*CommaExpr) exprNode() {}

// CastExpr is `(type-name) x`.
type CastExpr struct {
	base
	LParen token.Token
	Type   *TypeName
	RParen token.Token
	X      Expr
}

func (*CastExpr) exprNode() {}

// SizeofExpr is `sizeof x` (no parens required around an expression
// operand).
type SizeofExpr struct {
	base
	Kw token.Token
	X  Expr
}

func (*SizeofExpr) exprNode() {}

// SizeofTypeExpr is `sizeof(type-name)`. Per spec.md §4.2,
// `sizeof(IDENT)` always parses as SizeofExpr wrapping a parenthesized
// Ident; the code generator reinterprets it as SizeofTypeExpr when IDENT
// names a type.
type SizeofTypeExpr struct {
	base
	Kw     token.Token
	LParen token.Token
	Type   *TypeName
	RParen token.Token
}

func (*SizeofTypeExpr) exprNode() {}

// CallExpr is a function call.
type CallExpr struct {
	base
	Func   Expr
	LParen token.Token
	Args   []Expr
	Commas []token.Token
	RParen token.Token
}

func (*CallExpr) exprNode() {}

// IndexExpr is `x[i]`.
type IndexExpr struct {
	base
	X        Expr
	LBracket token.Token
	Index    Expr
	RBracket token.Token
}

func (*IndexExpr) exprNode() {}

// MemberExpr is `x.name` or `x->name`.
type MemberExpr struct {
	base
	X       Expr
	Op      token.Token // Dot or Arrow
	Name    token.Token
}

func (*MemberExpr) exprNode() {}

// CompoundLiteralExpr is `(type-name){ initializer-list }` (C99).
type CompoundLiteralExpr struct {
	base
	LParen token.Token
	Type   *TypeName
	RParen token.Token
	Init   *ListInit
}

func (*CompoundLiteralExpr) exprNode() {}

// ParenExpr preserves an explicitly parenthesized expression so the
// overparenthesized-binary disambiguation in spec.md §4.2 has a node to
// rewrite at lowering time, and so token slots stay faithful.
type ParenExpr struct {
	base
	LParen token.Token
	X      Expr
	RParen token.Token
}

func (*ParenExpr) exprNode() {}
