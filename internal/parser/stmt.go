package parser

import (
	"sycz80/internal/ast"
	"sycz80/internal/token"
)

func (p *Parser) parseBlock() (*ast.Block, *Error) {
	lbrace, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	b := &ast.Block{LBrace: lbrace}
	b.FirstTok = lbrace
	for !p.cur.Is(token.RBrace) {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
	}
	rbrace, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	b.RBrace = rbrace
	b.LastTok = rbrace
	return b, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, *Error) {
	if p.startsDeclaration() {
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
		return p.parseRestOfDeclList(specs, d)
	}
	return p.parseStmt()
}

// startsDeclaration reports whether the current token can only begin a
// declaration-specifier list, so the block-item parser can route between
// declarations and statements without backtracking.
func (p *Parser) startsDeclaration() bool {
	return p.looksLikeTypeName() || p.cur.Cur().Kind == token.KwInline || p.cur.Cur().Kind == token.KwAttribute
}

func (p *Parser) parseStmt() (ast.Stmt, *Error) {
	switch p.cur.Cur().Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwReturn:
		return p.parseReturnStmt()
	case token.KwIf:
		return p.parseIfStmt()
	case token.KwWhile:
		return p.parseWhileStmt()
	case token.KwDo:
		return p.parseDoStmt()
	case token.KwFor:
		return p.parseForStmt()
	case token.KwSwitch:
		return p.parseSwitchStmt()
	case token.KwCase:
		return p.parseCaseStmt()
	case token.KwDefault:
		return p.parseDefaultStmt()
	case token.KwBreak:
		return p.parseBreakStmt()
	case token.KwContinue:
		return p.parseContinueStmt()
	case token.KwGoto:
		return p.parseGotoStmt()
	case token.KwAsm:
		return p.parseAsmStmt()
	case token.Semi:
		semi := p.cur.Advance()
		es := &ast.ExprStmt{Semi: semi}
		es.FirstTok, es.LastTok = semi, semi
		return es, nil
	case token.Ident:
		if p.cur.Peek(1).Kind == token.Colon {
			return p.parseLabelStmt()
		}
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	es := &ast.ExprStmt{X: x, Semi: semi}
	es.FirstTok, es.LastTok = x.First(), semi
	return es, nil
}

func (p *Parser) parseReturnStmt() (*ast.ReturnStmt, *Error) {
	kw := p.cur.Advance()
	rs := &ast.ReturnStmt{Kw: kw}
	rs.FirstTok = kw
	if !p.cur.Is(token.Semi) {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rs.X = x
	}
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	rs.Semi = semi
	rs.LastTok = semi
	return rs, nil
}

func (p *Parser) parseIfStmt() (*ast.IfStmt, *Error) {
	kw := p.cur.Advance()
	is := &ast.IfStmt{Kw: kw}
	is.FirstTok = kw
	var err *Error
	if is.LParen, err = p.expect(token.LParen); err != nil {
		return nil, err
	}
	if is.Cond, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if is.RParen, err = p.expect(token.RParen); err != nil {
		return nil, err
	}
	if is.Then, err = p.parseStmt(); err != nil {
		return nil, err
	}
	is.LastTok = is.Then.Last()
	if p.cur.Is(token.KwElse) {
		elseKw := p.cur.Advance()
		is.ElseKw = &elseKw
		if is.Else, err = p.parseStmt(); err != nil {
			return nil, err
		}
		is.LastTok = is.Else.Last()
	}
	return is, nil
}

func (p *Parser) parseWhileStmt() (*ast.WhileStmt, *Error) {
	kw := p.cur.Advance()
	ws := &ast.WhileStmt{Kw: kw}
	ws.FirstTok = kw
	var err *Error
	if ws.LParen, err = p.expect(token.LParen); err != nil {
		return nil, err
	}
	if ws.Cond, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if ws.RParen, err = p.expect(token.RParen); err != nil {
		return nil, err
	}
	if ws.Body, err = p.parseStmt(); err != nil {
		return nil, err
	}
	ws.LastTok = ws.Body.Last()
	return ws, nil
}

func (p *Parser) parseDoStmt() (*ast.DoStmt, *Error) {
	doKw := p.cur.Advance()
	ds := &ast.DoStmt{DoKw: doKw}
	ds.FirstTok = doKw
	var err *Error
	if ds.Body, err = p.parseStmt(); err != nil {
		return nil, err
	}
	if ds.WhileKw, err = p.expect(token.KwWhile); err != nil {
		return nil, err
	}
	if ds.LParen, err = p.expect(token.LParen); err != nil {
		return nil, err
	}
	if ds.Cond, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if ds.RParen, err = p.expect(token.RParen); err != nil {
		return nil, err
	}
	if ds.Semi, err = p.expect(token.Semi); err != nil {
		return nil, err
	}
	ds.LastTok = ds.Semi
	return ds, nil
}

func (p *Parser) parseForStmt() (*ast.ForStmt, *Error) {
	kw := p.cur.Advance()
	fs := &ast.ForStmt{Kw: kw}
	fs.FirstTok = kw
	var err *Error
	if fs.LParen, err = p.expect(token.LParen); err != nil {
		return nil, err
	}
	if p.cur.Is(token.Semi) {
		fs.Semi1 = p.cur.Advance()
	} else if p.startsDeclaration() {
		specs, err := p.parseDeclSpecs()
		if err != nil {
			return nil, err
		}
		d, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		dl, err := p.parseRestOfDeclList(specs, d)
		if err != nil {
			return nil, err
		}
		fs.Init = dl
		fs.Semi1 = dl.Semi
	} else {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		es := &ast.ExprStmt{X: x}
		es.FirstTok, es.LastTok = x.First(), x.Last()
		fs.Init = es
		if fs.Semi1, err = p.expect(token.Semi); err != nil {
			return nil, err
		}
	}
	if !p.cur.Is(token.Semi) {
		if fs.Cond, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if fs.Semi2, err = p.expect(token.Semi); err != nil {
		return nil, err
	}
	if !p.cur.Is(token.RParen) {
		if fs.Post, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if fs.RParen, err = p.expect(token.RParen); err != nil {
		return nil, err
	}
	if fs.Body, err = p.parseStmt(); err != nil {
		return nil, err
	}
	fs.LastTok = fs.Body.Last()
	return fs, nil
}

func (p *Parser) parseSwitchStmt() (*ast.SwitchStmt, *Error) {
	kw := p.cur.Advance()
	ss := &ast.SwitchStmt{Kw: kw}
	ss.FirstTok = kw
	var err *Error
	if ss.LParen, err = p.expect(token.LParen); err != nil {
		return nil, err
	}
	if ss.X, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if ss.RParen, err = p.expect(token.RParen); err != nil {
		return nil, err
	}
	if ss.Body, err = p.parseStmt(); err != nil {
		return nil, err
	}
	ss.LastTok = ss.Body.Last()
	return ss, nil
}

func (p *Parser) parseCaseStmt() (*ast.CaseStmt, *Error) {
	kw := p.cur.Advance()
	cs := &ast.CaseStmt{Kw: kw}
	cs.FirstTok = kw
	var err *Error
	if cs.Value, err = p.parseConditionalExpr(); err != nil {
		return nil, err
	}
	if cs.Colon, err = p.expect(token.Colon); err != nil {
		return nil, err
	}
	if cs.Body, err = p.parseStmt(); err != nil {
		return nil, err
	}
	cs.LastTok = cs.Body.Last()
	return cs, nil
}

func (p *Parser) parseDefaultStmt() (*ast.DefaultStmt, *Error) {
	kw := p.cur.Advance()
	ds := &ast.DefaultStmt{Kw: kw}
	ds.FirstTok = kw
	var err *Error
	if ds.Colon, err = p.expect(token.Colon); err != nil {
		return nil, err
	}
	if ds.Body, err = p.parseStmt(); err != nil {
		return nil, err
	}
	ds.LastTok = ds.Body.Last()
	return ds, nil
}

func (p *Parser) parseBreakStmt() (*ast.BreakStmt, *Error) {
	kw := p.cur.Advance()
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	bs := &ast.BreakStmt{Kw: kw, Semi: semi}
	bs.FirstTok, bs.LastTok = kw, semi
	return bs, nil
}

func (p *Parser) parseContinueStmt() (*ast.ContinueStmt, *Error) {
	kw := p.cur.Advance()
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	cs := &ast.ContinueStmt{Kw: kw, Semi: semi}
	cs.FirstTok, cs.LastTok = kw, semi
	return cs, nil
}

func (p *Parser) parseGotoStmt() (*ast.GotoStmt, *Error) {
	kw := p.cur.Advance()
	label, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	gs := &ast.GotoStmt{Kw: kw, Label: label, Semi: semi}
	gs.FirstTok, gs.LastTok = kw, semi
	return gs, nil
}

func (p *Parser) parseLabelStmt() (*ast.LabelStmt, *Error) {
	label := p.cur.Advance()
	colon, err := p.expect(token.Colon)
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	ls := &ast.LabelStmt{Label: label, Colon: colon, Body: body}
	ls.FirstTok, ls.LastTok = label, body.Last()
	return ls, nil
}

func (p *Parser) parseAsmStmt() (*ast.AsmStmt, *Error) {
	kw := p.cur.Advance()
	text, err := p.expect(token.StringLit)
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(token.Semi)
	if err != nil {
		return nil, err
	}
	as := &ast.AsmStmt{Kw: kw, Text: text, Semi: semi}
	as.FirstTok, as.LastTok = kw, semi
	return as, nil
}
