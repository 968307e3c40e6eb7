// Command syc is the compiler front+middle end spec.md §6 describes:
// `syc [flags] <file>` lexes, parses, and lowers one C-subset
// translation unit to IR, handing the result to the (out-of-scope) Z80
// backend. Flag parsing is wired to github.com/teris-io/cli, the one
// third-party dependency the retrieval pack exercises for this kind of
// tool (see SPEC_FULL.md §3).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"sycz80/internal/ast"
	"sycz80/internal/backend"
	"sycz80/internal/diag"
	"sycz80/internal/frontend"
	"sycz80/internal/irtext"
	"sycz80/internal/pos"
	"sycz80/internal/token"
)

func main() {
	flagArgs, tail := frontend.SplitFlagTerminator(os.Args[1:])

	app := cli.New("sycz80 C-subset compiler").
		WithOption(cli.NewOption("dump-ast", "print the parsed AST instead of compiling").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("dump-toks", "print the token stream instead of compiling").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("dump-ir", "print the lowered IR instead of running the backend").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("dump-vric", "print the lowered IR (no register-independent optimization pass runs, so this prints what dump-ir prints)").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("lvalue-args", "pass struct/union arguments by address (accepted but not read; has no effect)").WithType(cli.TypeBool)).
		WithOption(cli.NewOption("int-promotion", "warn on every usual-arithmetic-conversion promotion (accepted but not read; has no effect)").WithType(cli.TypeBool)).
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
		fmt.Fprintln(os.Stderr, "syc: missing input file")
		return 1
	}
	path := args[0]

	sink := &diag.Counter{Inner: diag.StderrSink{W: os.Stderr}}

	if options["dump-toks"] == "true" {
		toks, err := frontend.LexFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "syc:", err)
			return 1
		}
		dumpTokens(toks)
		return 0
	}

	ext := strings.ToLower(extOf(path))
	if ext == ".ir" {
		return compileFromIR(path, options)
	}

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

	irMod := frontend.Lower(mod, sink)
	if sink.HasErrors() {
		return 1
	}
	if options["dump-ir"] == "true" || options["dump-vric"] == "true" {
		fmt.Fprint(os.Stdout, irtext.Print(irMod))
		return 0
	}

	text, err := backend.TextFallback(irMod)
	if err != nil {
		fmt.Fprintln(os.Stderr, "syc:", err)
		return 1
	}
	out := withExt(path, ".asm")
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "syc:", err)
		return 1
	}
	return 0
}

// compileFromIR starts the pipeline at the IR parser, per spec.md §6's
// ".ir/.IR → start at the IR parser" extension dispatch rule.
func compileFromIR(path string, options map[string]string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "syc:", err)
		return 1
	}
	defer f.Close()
	lx := irtext.New(pos.NewByteReader(f, path))
	p := irtext.NewParser(lx)
	irMod, ierr := p.ParseModule()
	if ierr != nil {
		fmt.Fprintln(os.Stderr, "syc:", ierr)
		return 1
	}
	if options["dump-ir"] == "true" {
		fmt.Fprint(os.Stdout, irtext.Print(irMod))
		return 0
	}
	text, err := backend.TextFallback(irMod)
	if err != nil {
		fmt.Fprintln(os.Stderr, "syc:", err)
		return 1
	}
	return writeOut(withExt(path, ".asm"), text)
}

func writeOut(path, text string) int {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "syc:", err)
		return 1
	}
	return 0
}

// extOf returns path's extension including the leading dot, "" if none.
func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || strings.ContainsRune(path[i:], '/') {
		return ""
	}
	return path[i:]
}

// withExt replaces path's extension with ext, per spec.md §6's "Output
// file name is input with extension replaced by `.asm`."
func withExt(path, ext string) string {
	if e := extOf(path); e != "" {
		return path[:len(path)-len(e)] + ext
	}
	return path + ext
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
// in for `go test` per spec.md §6's `syc --test` (this repository's
// binary never shells out to the Go toolchain).
func selfTest() int {
	const src = "int add(int a, int b) { return a + b; }\n"
	f, err := os.CreateTemp("", "syc-selftest-*.c")
	if err != nil {
		fmt.Fprintln(os.Stderr, "syc --test:", err)
		return 1
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(src); err != nil {
		f.Close()
		fmt.Fprintln(os.Stderr, "syc --test:", err)
		return 1
	}
	f.Close()

	sink := &diag.Counter{}
	mod, perr := frontend.ParseFile(f.Name(), sink)
	if perr != nil {
		fmt.Fprintln(os.Stderr, "syc --test: FAIL:", perr)
		return 1
	}
	frontend.Lower(mod, sink)
	if sink.HasErrors() {
		fmt.Fprintln(os.Stderr, "syc --test: FAIL:", sink.Errors[0].Message)
		return 1
	}
	fmt.Fprintln(os.Stdout, "syc --test: ok")
	return 0
}
