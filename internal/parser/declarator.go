package parser

import (
	"sycz80/internal/ast"
	"sycz80/internal/token"
)

// parseDeclarator parses a (possibly abstract) declarator: zero or more
// pointer layers, a direct declarator, and any trailing function/array
// suffixes, per spec.md §4.2's declarator grammar.
func (p *Parser) parseDeclarator() (ast.Declarator, *Error) {
	if p.cur.Is(token.Star) {
		star := p.cur.Advance()
		var quals []token.Token
		for qualifierKinds[p.cur.Cur().Kind] {
			quals = append(quals, p.cur.Advance())
		}
		inner, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		pd := &ast.PointerDeclarator{Star: star, Qualifiers: quals, Inner: inner}
		pd.FirstTok, pd.LastTok = star, inner.Last()
		return pd, nil
	}
	return p.parseDirectDeclarator()
}

func (p *Parser) parseDirectDeclarator() (ast.Declarator, *Error) {
	var d ast.Declarator
	switch {
	case p.cur.Is(token.Ident):
		name := p.cur.Advance()
		id := &ast.IdentDeclarator{Name: name}
		id.FirstTok, id.LastTok = name, name
		d = id
	case p.cur.Is(token.LParen):
		lparen := p.cur.Advance()
		inner, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		rparen, err := p.expect(token.RParen)
		if err != nil {
			return nil, err
		}
		pd := &ast.ParenDeclarator{LParen: lparen, Inner: inner, RParen: rparen}
		pd.FirstTok, pd.LastTok = lparen, rparen
		d = pd
	default:
		cur := p.cur.Cur()
		ni := &ast.NoIdentDeclarator{}
		ni.FirstTok, ni.LastTok = cur, cur
		d = ni
	}
	return p.parseDeclaratorSuffixes(d)
}

func (p *Parser) parseDeclaratorSuffixes(d ast.Declarator) (ast.Declarator, *Error) {
	for {
		switch {
		case p.cur.Is(token.LParen):
			fd, err := p.parseFuncDeclaratorSuffix(d)
			if err != nil {
				return nil, err
			}
			d = fd
		case p.cur.Is(token.LBracket):
			ad, err := p.parseArrayDeclaratorSuffix(d)
			if err != nil {
				return nil, err
			}
			d = ad
		default:
			return d, nil
		}
	}
}

func (p *Parser) parseFuncDeclaratorSuffix(inner ast.Declarator) (*ast.FuncDeclarator, *Error) {
	lparen := p.cur.Advance()
	fd := &ast.FuncDeclarator{Inner: inner, LParen: lparen}
	fd.FirstTok = inner.First()
	if p.cur.Is(token.RParen) {
		rparen := p.cur.Advance()
		fd.RParen = rparen
		fd.LastTok = rparen
		return fd, nil
	}
	if p.cur.Is(token.KwVoid) && p.cur.Peek(1).Kind == token.RParen {
		voidTok := p.cur.Advance()
		nospecs := &ast.DeclSpecs{TypeSpec: &ast.BasicTypeSpec{Tokens: []token.Token{voidTok}}}
		nospecs.FirstTok, nospecs.LastTok = voidTok, voidTok
		pd := &ast.ParamDecl{Specs: nospecs}
		pd.FirstTok, pd.LastTok = voidTok, voidTok
		fd.Params = append(fd.Params, pd)
		rparen, err := p.expect(token.RParen)
		if err != nil {
			return nil, err
		}
		fd.RParen = rparen
		fd.LastTok = rparen
		return fd, nil
	}
	for {
		if p.cur.Is(token.Ellipsis) {
			el := p.cur.Advance()
			fd.Variadic = true
			fd.Ellipsis = &el
			break
		}
		pd, err := p.parseParamDecl()
		if err != nil {
			return nil, err
		}
		fd.Params = append(fd.Params, pd)
		if !p.cur.Is(token.Comma) {
			break
		}
		fd.Commas = append(fd.Commas, p.cur.Advance())
	}
	rparen, err := p.expect(token.RParen)
	if err != nil {
		return nil, err
	}
	fd.RParen = rparen
	fd.LastTok = rparen
	return fd, nil
}

func (p *Parser) parseParamDecl() (*ast.ParamDecl, *Error) {
	specs, err := p.parseDeclSpecs()
	if err != nil {
		return nil, err
	}
	pd := &ast.ParamDecl{Specs: specs}
	pd.FirstTok = specs.First()
	pd.LastTok = specs.Last()
	if p.cur.Is(token.Comma) || p.cur.Is(token.RParen) {
		return pd, nil
	}
	d, err := p.parseDeclarator()
	if err != nil {
		return nil, err
	}
	pd.Declarator = d
	pd.LastTok = d.Last()
	return pd, nil
}

func (p *Parser) parseArrayDeclaratorSuffix(inner ast.Declarator) (*ast.ArrayDeclarator, *Error) {
	lbracket := p.cur.Advance()
	ad := &ast.ArrayDeclarator{Inner: inner, LBracket: lbracket}
	ad.FirstTok = inner.First()
	if !p.cur.Is(token.RBracket) {
		size, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		ad.Size = size
	}
	rbracket, err := p.expect(token.RBracket)
	if err != nil {
		return nil, err
	}
	ad.RBracket = rbracket
	ad.LastTok = rbracket
	return ad, nil
}

// parseTypeName parses a specifier-qualifier list followed by an
// optional abstract declarator, used by cast, sizeof(type-name), and
// compound literals.
func (p *Parser) parseTypeName() (*ast.TypeName, *Error) {
	specs, err := p.parseDeclSpecs()
	if err != nil {
		return nil, err
	}
	tn := &ast.TypeName{Specs: specs}
	tn.FirstTok = specs.First()
	tn.LastTok = specs.Last()
	if p.cur.Is(token.Star) || p.cur.Is(token.LParen) || p.cur.Is(token.LBracket) {
		d, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		tn.Declarator = d
		tn.LastTok = d.Last()
	}
	return tn, nil
}

// looksLikeTypeName reports whether the current token can start a
// declaration-specifier list, used to decide — together with trial
// parsing — whether `( ... )` opens a cast or type-name, per spec.md
// §4.2's disambiguation rules.
func (p *Parser) looksLikeTypeName() bool {
	cur := p.cur.Cur()
	if storageClassKinds[cur.Kind] || qualifierKinds[cur.Kind] || basicTypeKeywordKinds[cur.Kind] ||
		cur.Kind == token.KwStruct || cur.Kind == token.KwUnion || cur.Kind == token.KwEnum {
		return true
	}
	return cur.Kind == token.Ident && p.isTypeName(cur.Text)
}
