package ast

import "sycz80/internal/token"

// Stmt is the statement node variant: expression, compound (block),
// selection, iteration, labeled, and jump statements (spec.md §3).
type Stmt interface {
	Node
	stmtNode()
}

// BlockItem is a statement or local declaration appearing inside a
// Block; DeclList already implements Node, so it satisfies BlockItem
// alongside every Stmt.
type BlockItem interface {
	Node
}

// Block is a braced compound statement, or (per spec.md's "block
// (braced or single-statement)") any Stmt standing in for one — the
// parser always produces a Block node with LBrace/RBrace populated when
// it saw `{ }`, and returns the nested Stmt directly otherwise.
type Block struct {
	base
	LBrace token.Token
	Items  []BlockItem
	RBrace token.Token
}

func (*Block) stmtNode() {}

// ExprStmt is an expression statement, or the null statement when X is nil.
type ExprStmt struct {
	base
	X    Expr
	Semi token.Token
}

func (*ExprStmt) stmtNode() {}

// ReturnStmt is `return expr? ;`.
type ReturnStmt struct {
	base
	Kw   token.Token
	X    Expr // nil for `return;`
	Semi token.Token
}

func (*ReturnStmt) stmtNode() {}

// IfStmt is `if (cond) then (else else)?`.
type IfStmt struct {
	base
	Kw     token.Token
	LParen token.Token
	Cond   Expr
	RParen token.Token
	Then   Stmt
	ElseKw *token.Token
	Else   Stmt
}

func (*IfStmt) stmtNode() {}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	base
	Kw     token.Token
	LParen token.Token
	Cond   Expr
	RParen token.Token
	Body   Stmt
}

func (*WhileStmt) stmtNode() {}

// DoStmt is `do body while (cond) ;`.
type DoStmt struct {
	base
	DoKw    token.Token
	Body    Stmt
	WhileKw token.Token
	LParen  token.Token
	Cond    Expr
	RParen  token.Token
	Semi    token.Token
}

func (*DoStmt) stmtNode() {}

// ForStmt is `for (init; cond; post) body`; Init may be a DeclList or an
// ExprStmt (or nil for `for (;;)`); Cond and Post may be nil.
type ForStmt struct {
	base
	Kw     token.Token
	LParen token.Token
	Init   BlockItem
	Semi1  token.Token
	Cond   Expr
	Semi2  token.Token
	Post   Expr
	RParen token.Token
	Body   Stmt
}

func (*ForStmt) stmtNode() {}

// SwitchStmt is `switch (x) body`.
type SwitchStmt struct {
	base
	Kw     token.Token
	LParen token.Token
	X      Expr
	RParen token.Token
	Body   Stmt
}

func (*SwitchStmt) stmtNode() {}

// CaseStmt is `case const-expr: body`.
type CaseStmt struct {
	base
	Kw    token.Token
	Value Expr
	Colon token.Token
	Body  Stmt
}

func (*CaseStmt) stmtNode() {}

// DefaultStmt is `default: body`.
type DefaultStmt struct {
	base
	Kw    token.Token
	Colon token.Token
	Body  Stmt
}

func (*DefaultStmt) stmtNode() {}

// BreakStmt is `break;`.
type BreakStmt struct {
	base
	Kw   token.Token
	Semi token.Token
}

func (*BreakStmt) stmtNode() {}

// ContinueStmt is `continue;`.
type ContinueStmt struct {
	base
	Kw   token.Token
	Semi token.Token
}

func (*ContinueStmt) stmtNode() {}

// GotoStmt is `goto label;`.
type GotoStmt struct {
	base
	Kw    token.Token
	Label token.Token
	Semi  token.Token
}

func (*GotoStmt) stmtNode() {}

// LabelStmt is `label: stmt`.
type LabelStmt struct {
	base
	Label token.Token
	Colon token.Token
	Body  Stmt
}

func (*LabelStmt) stmtNode() {}

// AsmStmt is a statement-level inline assembly passthrough, the
// statement-position counterpart of AsmDecl (SPEC_FULL.md §5).
type AsmStmt struct {
	base
	Kw   token.Token
	Text token.Token
	Semi token.Token
}

func (*AsmStmt) stmtNode() {}
