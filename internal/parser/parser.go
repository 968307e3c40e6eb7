package parser

import (
	"fmt"

	"sycz80/internal/ast"
	"sycz80/internal/diag"
	"sycz80/internal/pos"
	"sycz80/internal/token"
)

// Error is returned by every parse method that fails; spec.md §4.2:
// "the parser emits a diagnostic referencing the token range and
// returns an error code."
type Error struct {
	Range   pos.Range
	Message string
}

func (e *Error) Error() string { return e.Message }

// IdentIsType is the optional host callback spec.md §4.2 describes for
// resolving typedef-names vs ordinary identifiers. When nil, no
// identifier is taken as a typedef-name: `(x)` followed by an operand is
// never parsed as a cast, and trial parsing only applies to type-names
// that start with a keyword.
type IdentIsType func(name string) bool

// Parser is the recursive-descent C parser. It carries no panic-mode
// recovery state: every method either succeeds or returns an *Error,
// and the caller decides whether to keep parsing (spec.md §4.2).
type Parser struct {
	cur         *Cursor
	sink        diag.Sink
	identIsType IdentIsType
}

// New creates a Parser reading from cur. sink receives one diagnostic
// per reported error; identIsType may be nil.
func New(cur *Cursor, sink diag.Sink, identIsType IdentIsType) *Parser {
	return &Parser{cur: cur, sink: sink, identIsType: identIsType}
}

func (p *Parser) errorf(at token.Token, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if p.sink != nil {
		p.sink.Emit(diag.Diagnostic{Range: at.Range(), Severity: diag.Error, Category: "syntax", Message: msg})
	}
	return &Error{Range: at.Range(), Message: msg}
}

func (p *Parser) expect(k token.Kind) (token.Token, *Error) {
	if p.cur.Is(k) {
		return p.cur.Advance(), nil
	}
	cur := p.cur.Cur()
	return token.Token{}, p.errorf(cur, "unexpected token %q, expected %s", cur.Text, k)
}

// ParseModule parses a whole translation unit: repeated top-level
// declarations until eof. Stops at the first error, per spec.md §4.2's
// no-recovery contract — the caller may inspect the partial module and
// the error and decide whether a subsequent ParseGlobalDecl call (past
// the offending tokens) is worth attempting.
func (p *Parser) ParseModule() (*ast.Module, *Error) {
	first := p.cur.Cur()
	mod := &ast.Module{}
	for !p.cur.AtEOF() {
		d, err := p.ParseGlobalDecl()
		if err != nil {
			mod.FirstTok, mod.LastTok = first, p.cur.Cur()
			return mod, err
		}
		mod.Decls = append(mod.Decls, d)
	}
	last := p.cur.Cur()
	mod.FirstTok, mod.LastTok = first, last
	return mod, nil
}

// ParseGlobalDecl parses one top-level declaration: a function
// definition or a plain declaration, per spec.md §4.2's
// parse_global_decln contract.
func (p *Parser) ParseGlobalDecl() (ast.Decl, *Error) {
	if p.cur.Is(token.PPLine) {
		// Preprocessor lines forwarded verbatim do not produce a
		// top-level node; they are not part of the C grammar proper.
		// The core simply skips them here since spec.md §1 treats
		// preprocessing as out of scope ("no preprocessor execution").
		p.cur.Advance()
		return p.ParseGlobalDecl()
	}
	if p.cur.Is(token.KwAsm) {
		return p.parseAsmDecl()
	}
	specs, err := p.parseDeclSpecs()
	if err != nil {
		return nil, err
	}
	if p.cur.Is(token.Semi) {
		semi := p.cur.Advance()
		dl := &ast.DeclList{Specs: specs, Semi: semi}
		dl.FirstTok, dl.LastTok = specs.First(), semi
		return dl, nil
	}
	d, err := p.parseDeclarator()
	if err != nil {
		return nil, err
	}
	if p.cur.Is(token.LBrace) {
		if _, isFunc := d.(*ast.FuncDeclarator); !isFunc {
			cur := p.cur.Cur()
			return nil, p.errorf(cur, "expected function declarator before function body")
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		fd := &ast.FuncDef{Specs: specs, Declarator: d, Body: body}
		fd.FirstTok, fd.LastTok = specs.First(), body.Last()
		return fd, nil
	}
	return p.parseRestOfDeclList(specs, d)
}

func (p *Parser) parseAsmDecl() (ast.Decl, *Error) {
	kw := p.cur.Advance()
	text, err := p.expect(token.StringLit)
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	d := &ast.AsmDecl{Text: text}
	d.FirstTok, d.LastTok = kw, semi
	return d, nil
}

// parseRestOfDeclList continues a DeclList after its first declarator
// has already been parsed (= initializer, more declarators, semicolon).
func (p *Parser) parseRestOfDeclList(specs *ast.DeclSpecs, first ast.Declarator) (*ast.DeclList, *Error) {
	dl := &ast.DeclList{Specs: specs}
	id, err := p.parseInitDeclaratorRest(first)
	if err != nil {
		return nil, err
	}
	dl.InitDeclrs = append(dl.InitDeclrs, id)
	for p.cur.Is(token.Comma) {
		dl.Commas = append(dl.Commas, p.cur.Advance())
		d, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		id, err := p.parseInitDeclaratorRest(d)
		if err != nil {
			return nil, err
		}
		dl.InitDeclrs = append(dl.InitDeclrs, id)
	}
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	dl.Semi = semi
	dl.FirstTok, dl.LastTok = specs.First(), semi
	return dl, nil
}

func (p *Parser) parseInitDeclaratorRest(d ast.Declarator) (*ast.InitDeclarator, *Error) {
	id := &ast.InitDeclarator{Declarator: d}
	id.FirstTok = d.First()
	id.LastTok = d.Last()
	if p.cur.Is(token.Assign) {
		eq := p.cur.Advance()
		id.Assign = &eq
		init, err := p.parseInitializer()
		if err != nil {
			return nil, err
		}
		id.Init = init
		id.LastTok = init.Last()
	}
	return id, nil
}

func (p *Parser) parseInitializer() (ast.Initializer, *Error) {
	if p.cur.Is(token.LBrace) {
		return p.parseInitializerList()
	}
	x, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	init := &ast.ExprInit{X: x}
	init.FirstTok, init.LastTok = x.First(), x.Last()
	return init, nil
}

func (p *Parser) parseInitializerList() (*ast.ListInit, *Error) {
	lbrace := p.cur.Advance()
	li := &ast.ListInit{LBrace: lbrace}
	for !p.cur.Is(token.RBrace) {
		item, err := p.parseInitializer()
		if err != nil {
			return nil, err
		}
		li.Items = append(li.Items, item)
		if !p.cur.Is(token.Comma) {
			break
		}
		li.Commas = append(li.Commas, p.cur.Advance())
		if p.cur.Is(token.RBrace) {
			break // trailing comma
		}
	}
	rbrace, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	li.RBrace = rbrace
	li.FirstTok, li.LastTok = lbrace, rbrace
	return li, nil
}

// storageClassKinds and the other keyword sets below drive
// parseDeclSpecs' accumulation loop.
var storageClassKinds = map[token.Kind]bool{
	token.KwAuto: true, token.KwRegister: true, token.KwStatic: true,
	token.KwExtern: true, token.KwTypedef: true,
}

var qualifierKinds = map[token.Kind]bool{
	token.KwConst: true, token.KwVolatile: true, token.KwRestrict: true, token.KwAtomic: true,
}

var basicTypeKeywordKinds = map[token.Kind]bool{
	token.KwVoid: true, token.KwChar: true, token.KwShort: true, token.KwInt: true,
	token.KwLong: true, token.KwFloat: true, token.KwDouble: true,
	token.KwSigned: true, token.KwUnsigned: true,
}

func (p *Parser) parseDeclSpecs() (*ast.DeclSpecs, *Error) {
	specs := &ast.DeclSpecs{}
	first := p.cur.Cur()
	var last token.Token
	sawTypeSpec := false
	for {
		cur := p.cur.Cur()
		switch {
		case storageClassKinds[cur.Kind]:
			tok := p.cur.Advance()
			specs.StorageClass = &tok
			last = tok
		case qualifierKinds[cur.Kind]:
			specs.Qualifiers = append(specs.Qualifiers, p.cur.Advance())
			last = specs.Qualifiers[len(specs.Qualifiers)-1]
		case cur.Kind == token.KwInline:
			tok := p.cur.Advance()
			specs.FuncSpec = &tok
			last = tok
		case cur.Kind == token.KwAttribute:
			attr, err := p.parseAttributeSpec()
			if err != nil {
				return nil, err
			}
			specs.Attribute = attr
			last = attr.Last()
		case !sawTypeSpec && cur.Kind == token.KwStruct || !sawTypeSpec && cur.Kind == token.KwUnion:
			ts, err := p.parseRecordTypeSpec()
			if err != nil {
				return nil, err
			}
			specs.TypeSpec = ts
			sawTypeSpec = true
			last = ts.Last()
		case !sawTypeSpec && cur.Kind == token.KwEnum:
			ts, err := p.parseEnumTypeSpec()
			if err != nil {
				return nil, err
			}
			specs.TypeSpec = ts
			sawTypeSpec = true
			last = ts.Last()
		case basicTypeKeywordKinds[cur.Kind]:
			bts, ok := specs.TypeSpec.(*ast.BasicTypeSpec)
			if !ok {
				bts = &ast.BasicTypeSpec{}
				specs.TypeSpec = bts
				bts.FirstTok = cur
			}
			tok := p.cur.Advance()
			bts.Tokens = append(bts.Tokens, tok)
			bts.LastTok = tok
			sawTypeSpec = true
			last = tok
		case !sawTypeSpec && cur.Kind == token.Ident && p.isTypeName(cur.Text):
			tok := p.cur.Advance()
			nts := &ast.NamedTypeSpec{Name: tok}
			nts.FirstTok, nts.LastTok = tok, tok
			specs.TypeSpec = nts
			sawTypeSpec = true
			last = tok
		default:
			if specs.TypeSpec == nil {
				return nil, p.errorf(cur, "expected declaration specifiers, got %q", cur.Text)
			}
			specs.FirstTok, specs.LastTok = first, last
			return specs, nil
		}
	}
}

func (p *Parser) isTypeName(name string) bool {
	if p.identIsType != nil {
		return p.identIsType(name)
	}
	return false
}

func (p *Parser) parseAttributeSpec() (*ast.AttributeSpec, *Error) {
	kw := p.cur.Advance()
	attr := &ast.AttributeSpec{Tokens: []token.Token{kw}}
	attr.FirstTok = kw
	depth := 0
	for {
		if p.cur.Is(token.LParen) {
			depth++
		}
		tok := p.cur.Advance()
		attr.Tokens = append(attr.Tokens, tok)
		if tok.Kind == token.RParen {
			depth--
			if depth == 0 {
				attr.LastTok = tok
				return attr, nil
			}
		}
		if p.cur.AtEOF() {
			return nil, p.errorf(tok, "unterminated __attribute__")
		}
	}
}

func (p *Parser) parseRecordTypeSpec() (*ast.RecordTypeSpec, *Error) {
	tag := p.cur.Advance()
	rts := &ast.RecordTypeSpec{Tag: tag}
	rts.FirstTok = tag
	rts.LastTok = tag
	if p.cur.Is(token.Ident) {
		name := p.cur.Advance()
		rts.Name = &name
		rts.LastTok = name
	}
	if p.cur.Is(token.LBrace) {
		lbrace := p.cur.Advance()
		rts.LBrace = &lbrace
		for !p.cur.Is(token.RBrace) {
			m, err := p.parseRecordMember()
			if err != nil {
				return nil, err
			}
			rts.Members = append(rts.Members, m)
		}
		rbrace, err := p.expect(token.RBrace)
		if err != nil {
			return nil, err
		}
		rts.RBrace = &rbrace
		rts.LastTok = rbrace
	}
	return rts, nil
}

func (p *Parser) parseRecordMember() (*ast.RecordMemberDecl, *Error) {
	specs, err := p.parseDeclSpecs()
	if err != nil {
		return nil, err
	}
	m := &ast.RecordMemberDecl{Specs: specs}
	m.FirstTok = specs.First()
	bd, err := p.parseBitfieldDeclarator()
	if err != nil {
		return nil, err
	}
	m.Declarators = append(m.Declarators, bd)
	for p.cur.Is(token.Comma) {
		m.Commas = append(m.Commas, p.cur.Advance())
		bd, err := p.parseBitfieldDeclarator()
		if err != nil {
			return nil, err
		}
		m.Declarators = append(m.Declarators, bd)
	}
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	m.Semi = semi
	m.LastTok = semi
	return m, nil
}

func (p *Parser) parseBitfieldDeclarator() (*ast.BitfieldDeclarator, *Error) {
	bd := &ast.BitfieldDeclarator{}
	if !p.cur.Is(token.Colon) {
		d, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		bd.Declarator = d
		bd.FirstTok = d.First()
		bd.LastTok = d.Last()
	} else {
		bd.FirstTok = p.cur.Cur()
	}
	if p.cur.Is(token.Colon) {
		colon := p.cur.Advance()
		bd.Colon = &colon
		w, err := p.parseConditionalExpr()
		if err != nil {
			return nil, err
		}
		bd.Width = w
		bd.LastTok = w.Last()
	}
	return bd, nil
}

func (p *Parser) parseEnumTypeSpec() (*ast.EnumTypeSpec, *Error) {
	tag := p.cur.Advance()
	ets := &ast.EnumTypeSpec{Tag: tag}
	ets.FirstTok, ets.LastTok = tag, tag
	if p.cur.Is(token.Ident) {
		name := p.cur.Advance()
		ets.Name = &name
		ets.LastTok = name
	}
	if p.cur.Is(token.LBrace) {
		lbrace := p.cur.Advance()
		ets.LBrace = &lbrace
		for {
			e, err := p.parseEnumerator()
			if err != nil {
				return nil, err
			}
			ets.Enumerators = append(ets.Enumerators, e)
			if e.Comma == nil {
				break
			}
			if p.cur.Is(token.RBrace) {
				break
			}
		}
		rbrace, err := p.expect(token.RBrace)
		if err != nil {
			return nil, err
		}
		ets.RBrace = &rbrace
		ets.LastTok = rbrace
	}
	return ets, nil
}

func (p *Parser) parseEnumerator() (*ast.Enumerator, *Error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	e := &ast.Enumerator{Name: name}
	e.FirstTok, e.LastTok = name, name
	if p.cur.Is(token.Assign) {
		eq := p.cur.Advance()
		e.Assign = &eq
		v, err := p.parseConditionalExpr()
		if err != nil {
			return nil, err
		}
		e.Value = v
		e.LastTok = v.Last()
	}
	if p.cur.Is(token.Comma) {
		comma := p.cur.Advance()
		e.Comma = &comma
		e.LastTok = comma
	}
	return e, nil
}
