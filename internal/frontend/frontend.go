// Package frontend drives the shared lex → parse → lower pipeline both
// external tools (cmd/syc, cmd/ccheck) run over one input file before
// going their separate ways (code generation vs. style checking), per
// spec.md §1's "share the lexer, parser, and the code generator's front
// half."
package frontend

import (
	"os"

	"sycz80/internal/ast"
	"sycz80/internal/codegen"
	"sycz80/internal/diag"
	"sycz80/internal/ir"
	"sycz80/internal/lexer"
	"sycz80/internal/parser"
	"sycz80/internal/pos"
	"sycz80/internal/token"
)

// Result carries every artifact a tool might want to dump: the raw
// token stream, the parsed AST (partial on a syntax error), and —
// stopping short if parsing failed — the lowered IR.
type Result struct {
	Tokens []token.Token
	Module *ast.Module
	IR     *ir.Module
}

// typedefTracker implements parser.IdentIsType by replaying typedef
// declarations as they're parsed, the classic "lexer hack" a one-pass
// recursive-descent C parser needs to disambiguate `T *p;` from a
// multiplication.
type typedefTracker struct {
	names map[string]bool
}

func newTypedefTracker() *typedefTracker {
	return &typedefTracker{names: map[string]bool{}}
}

func (t *typedefTracker) isType(name string) bool { return t.names[name] }

func (t *typedefTracker) observe(d ast.Decl) {
	dl, ok := d.(*ast.DeclList)
	if !ok || dl.Specs.StorageClass == nil || dl.Specs.StorageClass.Kind != token.KwTypedef {
		return
	}
	for _, id := range dl.InitDeclrs {
		if name, ok := ast.DeclaratorName(id.Declarator); ok {
			t.names[name.Text] = true
		}
	}
}

// LexFile re-lexes path from the start, for a --dump-toks pass; it never
// reports errors since an invalid byte simply becomes an `invalid`
// token, per spec.md §7's lexical-diagnostic rule.
func LexFile(path string) ([]token.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lx := lexer.New(pos.NewByteReader(f, path))
	var toks []token.Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks, nil
}

// ParseFile lexes and parses path into an AST, reporting diagnostics to
// sink. It returns the partial module and a non-nil error when the
// parser stopped at a syntax error, per the no-panic-mode-recovery rule.
func ParseFile(path string, sink diag.Sink) (*ast.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lx := lexer.New(pos.NewByteReader(f, path))
	cur := parser.NewCursor(lx)
	tracker := newTypedefTracker()
	p := parser.New(cur, sink, tracker.isType)

	mod := &ast.Module{}
	first := cur.Cur()
	for !cur.AtEOF() {
		d, perr := p.ParseGlobalDecl()
		if perr != nil {
			mod.FirstTok, mod.LastTok = first, cur.Cur()
			return mod, perr
		}
		tracker.observe(d)
		mod.Decls = append(mod.Decls, d)
	}
	mod.FirstTok, mod.LastTok = first, cur.Cur()
	return mod, nil
}

// Lower lowers mod to IR, per spec.md §4.3.
func Lower(mod *ast.Module, sink diag.Sink) *ir.Module {
	return codegen.Lower(mod, sink)
}

// SplitFlagTerminator splits args at the first bare "-" element, per
// spec.md §6's "`-` to terminate flag parsing": everything from that
// point on is treated as positional (file name) arguments even if it
// looks like a flag, so the teris-io/cli parse only ever sees the
// leading slice. Checked by hand here since the library itself has no
// such convention.
func SplitFlagTerminator(args []string) (flags []string, rest []string) {
	for i, a := range args {
		if a == "-" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}
