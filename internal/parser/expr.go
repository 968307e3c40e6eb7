package parser

import (
	"sycz80/internal/ast"
	"sycz80/internal/token"
)

// ParseExpr parses the full comma-operator expression grammar.
func (p *Parser) ParseExpr() (ast.Expr, *Error) { return p.parseExpr() }

func (p *Parser) parseExpr() (ast.Expr, *Error) {
	x, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	for p.cur.Is(token.Comma) {
		comma := p.cur.Advance()
		y, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		ce := &ast.CommaExpr{X: x, Comma: comma, Y: y}
		ce.FirstTok, ce.LastTok = x.First(), y.Last()
		x = ce
	}
	return x, nil
}

var assignOps = map[token.Kind]bool{
	token.Assign: true, token.PlusEq: true, token.MinusEq: true, token.StarEq: true,
	token.SlashEq: true, token.PercentEq: true, token.LShiftEq: true, token.RShiftEq: true,
	token.AmpEq: true, token.PipeEq: true, token.CaretEq: true,
}

func (p *Parser) parseAssignExpr() (ast.Expr, *Error) {
	lhs, err := p.parseConditionalExpr()
	if err != nil {
		return nil, err
	}
	if assignOps[p.cur.Cur().Kind] {
		op := p.cur.Advance()
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		ae := &ast.AssignExpr{LHS: lhs, Op: op, RHS: rhs}
		ae.FirstTok, ae.LastTok = lhs.First(), rhs.Last()
		return ae, nil
	}
	return lhs, nil
}

func (p *Parser) parseConditionalExpr() (ast.Expr, *Error) {
	cond, err := p.parseBinaryExpr(0)
	if err != nil {
		return nil, err
	}
	if !p.cur.Is(token.Question) {
		return cond, nil
	}
	q := p.cur.Advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	colon, err := p.expect(token.Colon)
	if err != nil {
		return nil, err
	}
	els, err := p.parseConditionalExpr()
	if err != nil {
		return nil, err
	}
	ce := &ast.ConditionalExpr{Cond: cond, Question: q, Then: then, Colon: colon, Else: els}
	ce.FirstTok, ce.LastTok = cond.First(), els.Last()
	return ce, nil
}

// binPrec gives each binary operator's precedence level, from lowest
// (logical-or) to highest (multiplicative), matching standard C
// precedence, per spec.md §4.2 ("full expression grammar with standard
// C precedence from primary through comma").
var binPrec = map[token.Kind]int{
	token.LOr:     1,
	token.LAnd:    2,
	token.Pipe:    3,
	token.Caret:   4,
	token.Amp:     5,
	token.EqEq:    6,
	token.NotEq:   6,
	token.Lt:      7,
	token.Gt:      7,
	token.LtEq:    7,
	token.GtEq:    7,
	token.LShift:  8,
	token.RShift:  8,
	token.Plus:    9,
	token.Minus:   9,
	token.Star:    10,
	token.Slash:   10,
	token.Percent: 10,
}

func (p *Parser) parseBinaryExpr(minPrec int) (ast.Expr, *Error) {
	x, err := p.parseCastExpr()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binPrec[p.cur.Cur().Kind]
		if !ok || prec < minPrec {
			return x, nil
		}
		op := p.cur.Advance()
		y, err := p.parseBinaryExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		be := &ast.BinaryExpr{Op: op, X: x, Y: y}
		be.FirstTok, be.LastTok = x.First(), y.Last()
		x = be
	}
}

func (p *Parser) parseCastExpr() (ast.Expr, *Error) {
	if p.cur.Is(token.LParen) && p.looksLikeCastAhead() {
		lparen := p.cur.Advance()
		tn, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		rparen, err := p.expect(token.RParen)
		if err != nil {
			return nil, err
		}
		if p.cur.Is(token.LBrace) {
			init, err := p.parseInitializerList()
			if err != nil {
				return nil, err
			}
			cl := &ast.CompoundLiteralExpr{LParen: lparen, Type: tn, RParen: rparen, Init: init}
			cl.FirstTok, cl.LastTok = lparen, init.Last()
			return p.parsePostfixTail(cl)
		}
		x, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		ce := &ast.CastExpr{LParen: lparen, Type: tn, RParen: rparen, X: x}
		ce.FirstTok, ce.LastTok = lparen, x.Last()
		return ce, nil
	}
	return p.parseUnaryExpr()
}

// looksLikeCastAhead performs the trial parse spec.md §4.2 describes for
// the ambiguous `(` case: if the parenthesized form starts with a
// type-name token and parses as a type-name immediately followed by `)`,
// it is a cast (or a compound literal when `{` follows); otherwise it is
// a parenthesized expression. The token after `)` is not examined.
func (p *Parser) looksLikeCastAhead() bool {
	if !p.looksLikeTypeNameAt(1) {
		return false
	}
	mark := p.cur.Mark()
	defer p.cur.Reset(mark)
	p.cur.Advance() // (
	savedSink := p.sink
	p.sink = nil
	defer func() { p.sink = savedSink }()
	if _, err := p.parseTypeName(); err != nil {
		return false
	}
	return p.cur.Is(token.RParen)
}

func (p *Parser) looksLikeTypeNameAt(n int) bool {
	cur := p.cur.Peek(n)
	if storageClassKinds[cur.Kind] || qualifierKinds[cur.Kind] || basicTypeKeywordKinds[cur.Kind] ||
		cur.Kind == token.KwStruct || cur.Kind == token.KwUnion || cur.Kind == token.KwEnum {
		return true
	}
	return cur.Kind == token.Ident && p.isTypeName(cur.Text)
}

var unaryPrefixOps = map[token.Kind]bool{
	token.Amp: true, token.Star: true, token.Plus: true, token.Minus: true,
	token.Tilde: true, token.Bang: true, token.PlusPlus: true, token.MinusMinus: true,
}

func (p *Parser) parseUnaryExpr() (ast.Expr, *Error) {
	cur := p.cur.Cur()
	if unaryPrefixOps[cur.Kind] {
		op := p.cur.Advance()
		x, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		ue := &ast.UnaryExpr{Op: op, X: x}
		ue.FirstTok, ue.LastTok = op, x.Last()
		return ue, nil
	}
	if cur.Kind == token.KwSizeof {
		return p.parseSizeofExpr()
	}
	return p.parsePostfixExpr()
}

// parseSizeofExpr implements spec.md §4.2's rule that `sizeof(IDENT)`
// always parses as sizeof applied to a parenthesized expression — never
// directly as sizeof(type-name) — leaving the IDENT-names-a-type
// reinterpretation to the code generator. `sizeof ( type-name )` where
// the type-name is not a bare identifier (e.g. `sizeof(int)`,
// `sizeof(struct s)`, `sizeof(int *)`) is still recognized here, since
// only the single-identifier case is ambiguous.
func (p *Parser) parseSizeofExpr() (ast.Expr, *Error) {
	kw := p.cur.Advance()
	if p.cur.Is(token.LParen) && p.looksLikeTypeNameAt(1) && !(p.cur.Peek(1).Kind == token.Ident && p.cur.Peek(2).Kind == token.RParen) {
		lparen := p.cur.Advance()
		tn, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		rparen, err := p.expect(token.RParen)
		if err != nil {
			return nil, err
		}
		st := &ast.SizeofTypeExpr{Kw: kw, LParen: lparen, Type: tn, RParen: rparen}
		st.FirstTok, st.LastTok = kw, rparen
		return st, nil
	}
	x, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	se := &ast.SizeofExpr{Kw: kw, X: x}
	se.FirstTok, se.LastTok = kw, x.Last()
	return se, nil
}

func (p *Parser) parsePostfixExpr() (ast.Expr, *Error) {
	x, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	return p.parsePostfixTail(x)
}

func (p *Parser) parsePostfixTail(x ast.Expr) (ast.Expr, *Error) {
	for {
		switch p.cur.Cur().Kind {
		case token.LBracket:
			lb := p.cur.Advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			rb, err := p.expect(token.RBracket)
			if err != nil {
				return nil, err
			}
			ie := &ast.IndexExpr{X: x, LBracket: lb, Index: idx, RBracket: rb}
			ie.FirstTok, ie.LastTok = x.First(), rb
			x = ie
		case token.LParen:
			lp := p.cur.Advance()
			ce := &ast.CallExpr{Func: x, LParen: lp}
			if !p.cur.Is(token.RParen) {
				for {
					arg, err := p.parseAssignExpr()
					if err != nil {
						return nil, err
					}
					ce.Args = append(ce.Args, arg)
					if !p.cur.Is(token.Comma) {
						break
					}
					ce.Commas = append(ce.Commas, p.cur.Advance())
				}
			}
			rp, err := p.expect(token.RParen)
			if err != nil {
				return nil, err
			}
			ce.RParen = rp
			ce.FirstTok, ce.LastTok = x.First(), rp
			x = ce
		case token.Dot, token.Arrow:
			op := p.cur.Advance()
			name, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			me := &ast.MemberExpr{X: x, Op: op, Name: name}
			me.FirstTok, me.LastTok = x.First(), name
			x = me
		case token.PlusPlus, token.MinusMinus:
			op := p.cur.Advance()
			pe := &ast.PostfixExpr{X: x, Op: op}
			pe.FirstTok, pe.LastTok = x.First(), op
			x = pe
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimaryExpr() (ast.Expr, *Error) {
	cur := p.cur.Cur()
	switch cur.Kind {
	case token.Ident:
		tok := p.cur.Advance()
		id := &ast.Ident{Name: tok}
		id.FirstTok, id.LastTok = tok, tok
		return id, nil
	case token.Number:
		tok := p.cur.Advance()
		lit := &ast.IntLit{Tok: tok}
		lit.FirstTok, lit.LastTok = tok, tok
		return lit, nil
	case token.CharLit:
		tok := p.cur.Advance()
		lit := &ast.CharLit{Tok: tok}
		lit.FirstTok, lit.LastTok = tok, tok
		return lit, nil
	case token.StringLit:
		toks := []token.Token{p.cur.Advance()}
		for p.cur.Is(token.StringLit) {
			toks = append(toks, p.cur.Advance())
		}
		sl := &ast.StringLit{Toks: toks}
		sl.FirstTok, sl.LastTok = toks[0], toks[len(toks)-1]
		return sl, nil
	case token.LParen:
		lparen := p.cur.Advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rparen, err := p.expect(token.RParen)
		if err != nil {
			return nil, err
		}
		pe := &ast.ParenExpr{LParen: lparen, X: x, RParen: rparen}
		pe.FirstTok, pe.LastTok = lparen, rparen
		return pe, nil
	}
	return nil, p.errorf(cur, "unexpected token %q in expression", cur.Text)
}
