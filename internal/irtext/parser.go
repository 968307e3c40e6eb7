package irtext

import (
	"fmt"

	"sycz80/internal/ir"
	"sycz80/internal/pos"
)

// Error is returned by every parse method that fails.
type Error struct {
	Range   pos.Range
	Message string
}

func (e *Error) Error() string { return e.Message }

// Parser is the hand-written recursive-descent IR textual-form reader
// spec.md §4.4 describes: `module := decln*`, `decln := proc | var |
// record`, ignoring whitespace/comments (handled by the lexer).
type Parser struct {
	lex  *Lexer
	cur  Token
	peek *Token
}

// NewParser wraps lex and primes the first token.
func NewParser(lex *Lexer) *Parser {
	p := &Parser{lex: lex}
	p.cur = p.lex.Next()
	return p
}

func (p *Parser) advance() Token {
	cur := p.cur
	if p.peek != nil {
		p.cur = *p.peek
		p.peek = nil
	} else {
		p.cur = p.lex.Next()
	}
	return cur
}

func (p *Parser) peekTok() Token {
	if p.peek == nil {
		t := p.lex.Next()
		p.peek = &t
	}
	return *p.peek
}

func (p *Parser) errorf(at Token, format string, args ...any) *Error {
	return &Error{Range: at.Range(), Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) expectKind(k Kind) (Token, *Error) {
	if p.cur.Kind == k {
		return p.advance(), nil
	}
	return Token{}, p.errorf(p.cur, "unexpected token %q, expected %s", p.cur.Text, k)
}

// expectWord consumes the current Ident token if its text equals word.
func (p *Parser) expectWord(word string) (Token, *Error) {
	if p.cur.Kind == Ident && p.cur.Text == word {
		return p.advance(), nil
	}
	return Token{}, p.errorf(p.cur, "unexpected token %q, expected %q", p.cur.Text, word)
}

func (p *Parser) isWord(word string) bool {
	return p.cur.Kind == Ident && p.cur.Text == word
}

// ParseModule parses a whole IR module: repeated top-level declarations
// until eof.
func (p *Parser) ParseModule() (*ir.Module, *Error) {
	mod := ir.NewModule()
	for p.cur.Kind != EOF {
		if err := p.parseDecl(mod); err != nil {
			return mod, err
		}
	}
	return mod, nil
}

func (p *Parser) parseDecl(mod *ir.Module) *Error {
	switch {
	case p.isWord("proc"):
		proc, err := p.parseProc()
		if err != nil {
			return err
		}
		mod.AddProcedure(proc)
	case p.isWord("var"):
		v, err := p.parseVar()
		if err != nil {
			return err
		}
		mod.AddVariable(v)
	case p.isWord("record") || p.isWord("union"):
		rec, err := p.parseRecord()
		if err != nil {
			return err
		}
		mod.AddRecord(rec)
	default:
		return p.errorf(p.cur, "expected proc, var, record, or union; got %q", p.cur.Text)
	}
	return nil
}

func (p *Parser) parseLinkage() ir.Linkage {
	switch {
	case p.isWord("extern"):
		p.advance()
		return ir.LinkageExtern
	case p.isWord("global"):
		p.advance()
		return ir.LinkageGlobal
	default:
		return ir.LinkageDefault
	}
}

func (p *Parser) parseProc() (*ir.Procedure, *Error) {
	if _, err := p.expectWord("proc"); err != nil {
		return nil, err
	}
	name, err := p.expectKind(Ident)
	if err != nil {
		return nil, err
	}
	proc := ir.NewProcedure(name.Text)
	if _, err := p.expectKind(LParen); err != nil {
		return nil, err
	}
	if p.cur.Kind != RParen {
		for {
			if p.cur.Kind == Ellipsis {
				p.advance()
				proc.Variadic = true
				break
			}
			argName, err := p.expectKind(Ident)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectKind(Colon); err != nil {
				return nil, err
			}
			te, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			proc.Args = append(proc.Args, ir.Param{Ident: argName.Text, Type: te})
			if p.cur.Kind != Comma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expectKind(RParen); err != nil {
		return nil, err
	}
	if p.cur.Kind == Colon {
		p.advance()
		te, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		proc.ReturnType = te
	}
	if p.isWord("attr") {
		p.advance()
		if _, err := p.expectKind(LParen); err != nil {
			return nil, err
		}
		for {
			a, err := p.expectKind(Ident)
			if err != nil {
				return nil, err
			}
			proc.Attrs = append(proc.Attrs, a.Text)
			if p.cur.Kind != Comma {
				break
			}
			p.advance()
		}
		if _, err := p.expectKind(RParen); err != nil {
			return nil, err
		}
	}
	proc.Linkage = p.parseLinkage()
	if p.isWord("lvar") {
		p.advance()
		for p.cur.Kind == Ident && !p.isWord("begin") {
			localName, err := p.expectKind(Ident)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectKind(Colon); err != nil {
				return nil, err
			}
			te, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectKind(Semi); err != nil {
				return nil, err
			}
			proc.Locals = append(proc.Locals, ir.Local{Ident: localName.Text, Type: te})
		}
	}
	if p.isWord("begin") {
		p.advance()
		if err := p.parseLblock(proc); err != nil {
			return nil, err
		}
		if _, err := p.expectWord("end"); err != nil {
			return nil, err
		}
	} else {
		// No `begin ... end`: an extern declaration with no body,
		// distinct from a defined procedure whose body happens to be
		// empty (spec.md §3: "an extern procedure has no body").
		proc.Body = nil
	}
	if _, err := p.expectKind(Semi); err != nil {
		return nil, err
	}
	return proc, nil
}

func (p *Parser) parseVar() (*ir.Variable, *Error) {
	if _, err := p.expectWord("var"); err != nil {
		return nil, err
	}
	name, err := p.expectKind(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(Colon); err != nil {
		return nil, err
	}
	te, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	v := ir.NewVariable(name.Text, te)
	v.Linkage = p.parseLinkage()
	if _, err := p.expectWord("begin"); err != nil {
		return nil, err
	}
	for !p.isWord("end") {
		entry, err := p.parseDataEntry()
		if err != nil {
			return nil, err
		}
		v.Data.Append(entry)
	}
	if _, err := p.expectWord("end"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(Semi); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Parser) parseDataEntry() (ir.DataEntry, *Error) {
	switch {
	case p.isWord("int"):
		p.advance()
		if _, err := p.expectKind(Dot); err != nil {
			return ir.DataEntry{}, err
		}
		width, err := p.expectKind(Number)
		if err != nil {
			return ir.DataEntry{}, err
		}
		val, err := p.expectKind(Number)
		if err != nil {
			return ir.DataEntry{}, err
		}
		if _, err := p.expectKind(Semi); err != nil {
			return ir.DataEntry{}, err
		}
		return ir.DataEntry{Kind: ir.DataInt, Width: parseIntText(width.Text), IntVal: parseInt64Text(val.Text)}, nil
	case p.isWord("ptr"):
		p.advance()
		if _, err := p.expectKind(Dot); err != nil {
			return ir.DataEntry{}, err
		}
		width, err := p.expectKind(Number)
		if err != nil {
			return ir.DataEntry{}, err
		}
		sym, err := p.expectKind(Ident)
		if err != nil {
			return ir.DataEntry{}, err
		}
		entry := ir.DataEntry{Kind: ir.DataPtr, Width: parseIntText(width.Text), Symbol: sym.Text}
		if p.cur.Kind == Comma {
			p.advance()
			off, err := p.expectKind(Number)
			if err != nil {
				return ir.DataEntry{}, err
			}
			entry.Offset = parseInt64Text(off.Text)
		}
		if _, err := p.expectKind(Semi); err != nil {
			return ir.DataEntry{}, err
		}
		return entry, nil
	default:
		return ir.DataEntry{}, p.errorf(p.cur, "expected int or ptr data entry, got %q", p.cur.Text)
	}
}

func (p *Parser) parseRecord() (*ir.Record, *Error) {
	tag := ir.RecordStruct
	if p.isWord("union") {
		tag = ir.RecordUnion
		p.advance()
	} else {
		if _, err := p.expectWord("record"); err != nil {
			return nil, err
		}
	}
	name, err := p.expectKind(Ident)
	if err != nil {
		return nil, err
	}
	rec := &ir.Record{Tag: tag, Ident: name.Text}
	if _, err := p.expectWord("begin"); err != nil {
		return nil, err
	}
	for !p.isWord("end") {
		fname, err := p.expectKind(Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(Colon); err != nil {
			return nil, err
		}
		te, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(Semi); err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, ir.RecordField{Ident: fname.Text, Type: te})
	}
	if _, err := p.expectWord("end"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(Semi); err != nil {
		return nil, err
	}
	return rec, nil
}

// parseTypeExpr parses `int.N`, `ptr.N` or a bare IDENT record/union
// reference, followed by zero or more `'{' N '}'` array-of suffixes (e.g.
// `int.8{10}`), an extension this codec adds beyond spec.md §4.4's
// literal texpr grammar (array(size, element) in the ir data model needs
// a surface form).
func (p *Parser) parseTypeExpr() (*ir.TypeExpr, *Error) {
	var base *ir.TypeExpr
	switch {
	case p.isWord("int"):
		p.advance()
		if _, err := p.expectKind(Dot); err != nil {
			return nil, err
		}
		width, err := p.expectKind(Number)
		if err != nil {
			return nil, err
		}
		base = ir.IntType(parseIntText(width.Text))
	case p.isWord("ptr"):
		p.advance()
		if _, err := p.expectKind(Dot); err != nil {
			return nil, err
		}
		width, err := p.expectKind(Number)
		if err != nil {
			return nil, err
		}
		base = ir.PtrType(parseIntText(width.Text))
	case p.cur.Kind == Ident:
		name := p.advance()
		base = ir.IdentType(name.Text)
	default:
		return nil, p.errorf(p.cur, "expected a type expression, got %q", p.cur.Text)
	}
	for p.cur.Kind == LBrace {
		p.advance()
		size, err := p.expectKind(Number)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(RBrace); err != nil {
			return nil, err
		}
		base = ir.ArrayType(parseIntText(size.Text), base)
	}
	return base, nil
}

func (p *Parser) parseLblock(proc *ir.Procedure) *Error {
	for !p.isWord("end") {
		var label string
		if p.cur.Kind == Ident && p.peekTok().Kind == Colon {
			labelTok := p.advance()
			p.advance() // ':'
			label = labelTok.Text
			if p.cur.Kind == Semi {
				p.advance()
				proc.Body.Append(ir.LblockEntry{Label: label})
				continue
			}
		}
		instr, err := p.parseInstr()
		if err != nil {
			return err
		}
		proc.Body.Append(ir.LblockEntry{Label: label, Instr: instr})
	}
	return nil
}

func (p *Parser) parseInstr() (*ir.Instr, *Error) {
	opTok, err := p.expectKind(Ident)
	if err != nil {
		return nil, err
	}
	op, ok := ir.LookupOp(opTok.Text)
	if !ok {
		return nil, p.errorf(opTok, "unknown opcode %q", opTok.Text)
	}
	instr := &ir.Instr{Op: op}
	if p.cur.Kind == Dot {
		p.advance()
		width, err := p.expectKind(Number)
		if err != nil {
			return nil, err
		}
		instr.Width = parseIntText(width.Text)
	}
	if p.cur.Kind != Semi && p.cur.Kind != Colon {
		operands, err := p.parseOperandList()
		if err != nil {
			return nil, err
		}
		if len(operands) > 0 {
			instr.Dest = operands[0]
		}
		if len(operands) > 1 {
			instr.Op1 = operands[1]
		}
		if len(operands) > 2 {
			instr.Op2 = operands[2]
		}
	}
	// A trailing `: texpr` carries the instruction's type_operand (cast
	// target for sgnext/zrext/trunc, element type for ptridx, ...) — not
	// in spec.md §4.4's quoted instruction grammar verbatim, but needed
	// to round-trip ir.Instr.TypeOp and consistent with the `IDENT ':'
	// texpr` shape the grammar already uses for args and lvars.
	if p.cur.Kind == Colon {
		p.advance()
		te, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		instr.TypeOp = te
	}
	if _, err := p.expectKind(Semi); err != nil {
		return nil, err
	}
	return instr, nil
}

func (p *Parser) parseOperandList() ([]ir.Operand, *Error) {
	var ops []ir.Operand
	for {
		op, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if p.cur.Kind != Comma {
			return ops, nil
		}
		p.advance()
	}
}

func (p *Parser) parseOperand() (ir.Operand, *Error) {
	switch {
	case p.isWord("nil"):
		p.advance()
		return ir.Nil, nil
	case p.cur.Kind == Number:
		n := p.advance()
		return ir.Imm(parseInt64Text(n.Text)), nil
	case p.cur.Kind == LBrace:
		p.advance()
		var items []ir.Operand
		if p.cur.Kind != RBrace {
			list, err := p.parseOperandList()
			if err != nil {
				return ir.Operand{}, err
			}
			items = list
		}
		if _, err := p.expectKind(RBrace); err != nil {
			return ir.Operand{}, err
		}
		return ir.OperandListOf(items...), nil
	case p.cur.Kind == Ident:
		id := p.advance()
		return ir.Var(id.Text), nil
	default:
		return ir.Operand{}, p.errorf(p.cur, "expected an operand, got %q", p.cur.Text)
	}
}

func parseIntText(s string) int {
	n := 0
	neg := false
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	for ; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func parseInt64Text(s string) int64 {
	var n int64
	neg := false
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	for ; i < len(s); i++ {
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n
}
