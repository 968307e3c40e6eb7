// Package ast defines the C abstract syntax tree spec.md §3 describes: a
// tagged variant tree whose nodes retain every syntactic token they
// consumed, so a caller can walk first/last tokens and reconstruct
// source formatting.
//
// Grounded on lang/yparse/ast.go's Decl/Stmt/Expr marker-interface shape
// (declNode/stmtNode/exprNode, baseExpr embedding common fields),
// generalized from YAPL's small declaration set to full C declarators,
// specifiers, statements, and expressions (spec.md §3's node list).
package ast

import "sycz80/internal/token"

// Node is anything that knows the first and last source token of the
// phrase it was parsed from (spec.md §3's "every node carries... slots
// for every source token it syntactically contains").
type Node interface {
	First() token.Token
	Last() token.Token
}

// base stores the first/last tokens a node spans; every concrete node
// embeds it instead of reimplementing First/Last by hand.
type base struct {
	FirstTok token.Token
	LastTok  token.Token
}

func (b base) First() token.Token { return b.FirstTok }
func (b base) Last() token.Token  { return b.LastTok }

func span(first, last token.Token) base { return base{FirstTok: first, LastTok: last} }

// Decl is a top-level declaration: either a function definition or a
// plain declaration (which covers variable declarations, typedefs via
// storage class, and bare struct/union/enum declarations).
type Decl interface {
	Node
	declNode()
}

// Module is the AST root: an ordered sequence of top-level declarations.
type Module struct {
	base
	Decls []Decl
}

// FuncDef is a function definition: specifiers, a function declarator,
// and a braced body.
type FuncDef struct {
	base
	Specs      *DeclSpecs
	Declarator Declarator
	Body       *Block
}

func (*FuncDef) declNode() {}

// DeclList is a declaration: specifiers plus zero or more init
// declarators, terminated by a semicolon. Zero declarators is legal (a
// bare `struct s { ... };` or a redundant `;`).
type DeclList struct {
	base
	Specs        *DeclSpecs
	InitDeclrs   []*InitDeclarator
	Commas       []token.Token
	Semi         token.Token
}

func (*DeclList) declNode() {}

// AsmDecl is a file-scope `asm STRING ;` inline assembly
// passthrough (SPEC_FULL.md §5 supplement): opaque text forwarded
// unparsed to the backend, not expanded or checked.
type AsmDecl struct {
	base
	Text token.Token
}

func (*AsmDecl) declNode() {}

// InitDeclarator is one `declarator (= initializer)?` within a DeclList.
type InitDeclarator struct {
	base
	Declarator Declarator
	Assign     *token.Token
	Init       Initializer
}

// DeclSpecs accumulates the declaration-specifier children of a
// declaration — storage class, qualifiers, type specifier, function
// specifier — the raw material the code generator reduces into a DSpec
// record (spec.md §4.3).
type DeclSpecs struct {
	base
	StorageClass *token.Token // auto/register/static/extern/typedef, at most one
	Qualifiers   []token.Token // const/volatile/restrict/_Atomic, any count
	FuncSpec     *token.Token // inline
	Attribute    *AttributeSpec
	TypeSpec     TypeSpec
}

// AttributeSpec is a parsed-but-ignored `__attribute__((...))` run,
// kept only so its tokens occupy a slot and reformatting stays faithful.
type AttributeSpec struct {
	base
	Tokens []token.Token
}

// TypeSpec is the type-specifier variant: basic keywords accumulated
// (int, long long, unsigned, ...), a typedef-name reference, or an
// inline struct/union/enum definition or reference.
type TypeSpec interface {
	Node
	typeSpecNode()
}

// BasicTypeSpec accumulates the basic type-specifier keyword tokens in
// source order (e.g. "unsigned", "long", "long" for `unsigned long long`).
type BasicTypeSpec struct {
	base
	Tokens []token.Token
}

func (*BasicTypeSpec) typeSpecNode() {}

// NamedTypeSpec references a typedef-name.
type NamedTypeSpec struct {
	base
	Name token.Token
}

func (*NamedTypeSpec) typeSpecNode() {}

// RecordTypeSpec is a `struct`/`union` specifier, with or without a
// member-list body (a body present means this occurrence defines the
// tag; absent means it merely references or forward-declares it).
type RecordTypeSpec struct {
	base
	Tag     token.Token // KwStruct or KwUnion
	Name    *token.Token
	LBrace  *token.Token
	Members []*RecordMemberDecl
	RBrace  *token.Token
}

func (*RecordTypeSpec) typeSpecNode() {}

// RecordMemberDecl is one member-list entry: specifiers plus one or more
// (possibly bitfield) declarators.
type RecordMemberDecl struct {
	base
	Specs       *DeclSpecs
	Declarators []*BitfieldDeclarator
	Commas      []token.Token
	Semi        token.Token
}

// BitfieldDeclarator is a declarator optionally followed by `: width`.
type BitfieldDeclarator struct {
	base
	Declarator Declarator // nil for an anonymous bitfield (`: 3;`)
	Colon      *token.Token
	Width      Expr
}

// EnumTypeSpec is an `enum` specifier, with or without an
// enumerator-list body.
type EnumTypeSpec struct {
	base
	Tag         token.Token
	Name        *token.Token
	LBrace      *token.Token
	Enumerators []*Enumerator
	RBrace      *token.Token
}

func (*EnumTypeSpec) typeSpecNode() {}

// Enumerator is one `IDENT (= expr)?` entry in an enum body.
type Enumerator struct {
	base
	Name   token.Token
	Assign *token.Token
	Value  Expr
	Comma  *token.Token
}

// Declarator is the right-recursive declarator-tree variant spec.md §3
// describes: a leaf (Ident or NoIdent) wrapped by any number of Pointer,
// Paren, Func, Array layers.
type Declarator interface {
	Node
	declaratorNode()
}

// IdentDeclarator is the named leaf of a declarator tree.
type IdentDeclarator struct {
	base
	Name token.Token
}

func (*IdentDeclarator) declaratorNode() {}

// NoIdentDeclarator is the abstract (type-name-only) leaf.
type NoIdentDeclarator struct {
	base
}

func (*NoIdentDeclarator) declaratorNode() {}

// PointerDeclarator wraps an inner declarator with `* qualifiers*`.
type PointerDeclarator struct {
	base
	Star       token.Token
	Qualifiers []token.Token
	Inner      Declarator
}

func (*PointerDeclarator) declaratorNode() {}

// ParenDeclarator wraps an inner declarator in parens, used to escape
// the default left-to-right binding of pointer/array/function layers.
type ParenDeclarator struct {
	base
	LParen token.Token
	Inner  Declarator
	RParen token.Token
}

func (*ParenDeclarator) declaratorNode() {}

// FuncDeclarator wraps an inner declarator with a parameter list.
type FuncDeclarator struct {
	base
	Inner    Declarator
	LParen   token.Token
	Params   []*ParamDecl
	Commas   []token.Token
	Variadic bool
	Ellipsis *token.Token
	RParen   token.Token
}

func (*FuncDeclarator) declaratorNode() {}

// ParamDecl is one function-parameter declaration: specifiers plus an
// (often abstract, possibly nil for the single `void` parameter)
// declarator.
type ParamDecl struct {
	base
	Specs      *DeclSpecs
	Declarator Declarator
}

// ArrayDeclarator wraps an inner declarator with `[ size? ]`.
type ArrayDeclarator struct {
	base
	Inner    Declarator
	LBracket token.Token
	Size     Expr // nil for an incomplete array `T x[]`
	RBracket token.Token
}

func (*ArrayDeclarator) declaratorNode() {}

// IsAbstract reports whether d's unique leaf is the no-identifier node,
// per spec.md §3 ("An AST declarator is 'abstract' iff its innermost
// leaf is no-identifier").
func IsAbstract(d Declarator) bool {
	for {
		switch n := d.(type) {
		case *IdentDeclarator:
			return false
		case *NoIdentDeclarator:
			return true
		case *PointerDeclarator:
			d = n.Inner
		case *ParenDeclarator:
			d = n.Inner
		case *FuncDeclarator:
			d = n.Inner
		case *ArrayDeclarator:
			d = n.Inner
		default:
			return false
		}
	}
}

// DeclaratorName returns the identifier token at d's leaf, if any.
func DeclaratorName(d Declarator) (token.Token, bool) {
	for {
		switch n := d.(type) {
		case *IdentDeclarator:
			return n.Name, true
		case *NoIdentDeclarator:
			return token.Token{}, false
		case *PointerDeclarator:
			d = n.Inner
		case *ParenDeclarator:
			d = n.Inner
		case *FuncDeclarator:
			d = n.Inner
		case *ArrayDeclarator:
			d = n.Inner
		default:
			return token.Token{}, false
		}
	}
}

// Initializer is the `= initializer` variant: a single expression or a
// braced initializer list.
type Initializer interface {
	Node
	initializerNode()
}

// ExprInit is a scalar initializer.
type ExprInit struct {
	base
	X Expr
}

func (*ExprInit) initializerNode() {}

// ListInit is a braced initializer list, possibly nested.
type ListInit struct {
	base
	LBrace token.Token
	Items  []Initializer
	Commas []token.Token
	RBrace token.Token
}

func (*ListInit) initializerNode() {}

// TypeName is a specifier list plus an abstract declarator, used by
// cast, sizeof(type-name), and compound literals.
type TypeName struct {
	base
	Specs      *DeclSpecs
	Declarator Declarator // may be nil (bare specifier list)
}
