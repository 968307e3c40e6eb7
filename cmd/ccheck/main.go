// Command ccheck is the style checker spec.md §6 describes: `ccheck
// [flags] <file>` parses one translation unit and reports style
// findings from an out-of-scope rule engine (internal/checker). Flag
// parsing is wired to github.com/teris-io/cli, matching cmd/syc.
package main

import (
	"fmt"
	"os"

	"github.com/teris-io/cli"

	"sycz80/internal/ast"
	"sycz80/internal/checker"
	"sycz80/internal/diag"
	"sycz80/internal/frontend"
	"sycz80/internal/token"
)

func main() {
	flagArgs, tail := frontend.SplitFlagTerminator(os.Args[1:])

	app := cli.New("sycz80 C-subset style checker").
		WithOption(cli.NewOption("fix", "rewrite the file in place, preserving the original as <file>.orig").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("dump-ast", "print the parsed AST instead of checking").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("dump-toks", "print the token stream instead of checking").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("d", "restrict to one rule group (attr, decl, estmt, fmt, hdr, invchar, loop, nblock, sclass)").WithChar('d').WithType(cli.TypeString)).
		WithOption(cli.NewOption("test", "run the built-in self-test and exit").WithType(cli.TypeBool)).
		WithAction(func(args []string, options map[string]string) int {
			args = append(args, tail...)
			return run(args, options)
		})

	os.Exit(app.Run(flagArgs, os.Stdout))
}

func run(args []string, options map[string]string) int {
	if options["test"] == "true" {
		return selfTest()
	}
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "ccheck: missing input file")
		return 1
	}
	path := args[0]

	if options["dump-toks"] == "true" {
		toks, err := frontend.LexFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ccheck:", err)
			return 1
		}
		dumpTokens(toks)
		return 0
	}

	sink := &diag.Counter{Inner: diag.StderrSink{W: os.Stderr}}
	mod, perr := frontend.ParseFile(path, sink)
	if options["dump-ast"] == "true" {
		dumpModule(mod)
		if perr != nil {
			return 1
		}
		return 0
	}
	if perr != nil {
		return 1
	}

	group, err := groupOption(options)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ccheck:", err)
		return 1
	}
	_ = group // threaded through once a RuleSet is wired in; none ships here.

	if options["fix"] == "true" {
		if err := applyFix(path); err != nil {
			fmt.Fprintln(os.Stderr, "ccheck:", err)
			return 1
		}
	}
	return 0
}

func groupOption(options map[string]string) (checker.Group, error) {
	raw, ok := options["d"]
	if !ok || raw == "" {
		return "", nil
	}
	g := checker.Group(raw)
	for _, want := range checker.AllGroups {
		if g == want {
			return g, nil
		}
	}
	return "", fmt.Errorf("unrecognized rule group %q", raw)
}

// applyFix renames path to path+".orig" and writes the (currently
// unmodified, since no fixer rule set ships here) source back to path,
// per spec.md §6's "the original is renamed <file>.orig and a rewritten
// form is written back."
func applyFix(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := os.Rename(path, path+".orig"); err != nil {
		return err
	}
	return os.WriteFile(path, src, 0o644)
}

func dumpTokens(toks []token.Token) {
	for _, t := range toks {
		fmt.Printf("%s %-16s %q\n", t.Begin, t.Kind, t.Text)
	}
}

func dumpModule(mod *ast.Module) {
	for _, d := range mod.Decls {
		fmt.Printf("%s %T\n", d.First(), d)
	}
}

// selfTest exercises the frontend over a small fixed snippet, standing
// in for `go test` per spec.md §6's `ccheck --test`.
func selfTest() int {
	const src = "int add(int a, int b) { return a + b; }\n"
	f, err := os.CreateTemp("", "ccheck-selftest-*.c")
	if err != nil {
		fmt.Fprintln(os.Stderr, "ccheck --test:", err)
		return 1
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(src); err != nil {
		f.Close()
		fmt.Fprintln(os.Stderr, "ccheck --test:", err)
		return 1
	}
	f.Close()

	sink := &diag.Counter{}
	_, perr := frontend.ParseFile(f.Name(), sink)
	if perr != nil {
		fmt.Fprintln(os.Stderr, "ccheck --test: FAIL:", perr)
		return 1
	}
	fmt.Fprintln(os.Stdout, "ccheck --test: ok")
	return 0
}
