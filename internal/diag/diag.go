// Package diag is the diagnostic sink spec.md §9 ("Design Notes") asks
// for in place of the teacher's direct fmt.Fprintf(os.Stderr, ...) calls
// (ylex/lexer.go (*Lexer).error, lang/parse/parser.go (*Parser).error and
// errorAt). Diagnostics carry a source range, a severity, and a message,
// per spec.md §7.
package diag

import (
	"fmt"
	"io"

	"sycz80/internal/pos"
)

// Severity is either blocking (Error) or advisory (Warning), per spec.md
// §7's two-severity taxonomy.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Category names the diagnostic's kind, not for programmatic branching —
// callers compare Diagnostic.Severity — but to make "ccheck -d <group>"
// style filtering possible for the external checker tool.
type Category string

// Diagnostic is one emitted finding.
type Diagnostic struct {
	Range    pos.Range
	Severity Severity
	Category Category
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Range, d.Severity, d.Message)
}

// Sink is the one-method interface spec.md §9 calls for: Emit(range,
// severity, message). A Sink never itself aborts compilation; callers
// decide whether accumulated errors should stop the pipeline, per
// spec.md §4.2 "Recovery": "there is no panic-mode recovery — the
// enclosing tool decides whether to continue."
type Sink interface {
	Emit(Diagnostic)
}

// StderrSink writes diagnostics to an io.Writer (ordinarily os.Stderr) in
// the "file:line:col[-line:col]: severity: message" form spec.md §7
// mandates for user-visible failure.
type StderrSink struct {
	W io.Writer
}

func (s StderrSink) Emit(d Diagnostic) {
	fmt.Fprintln(s.W, d.String())
}

// Counter is a Sink that tallies diagnostics by severity and forwards
// them to an optional inner Sink — the analog of the teacher's
// Analyzer.errors []string list (lang/sem/analyzer.go) and Parser.errors,
// generalized into a reusable counting sink.
type Counter struct {
	Inner    Sink
	Errors   []Diagnostic
	Warnings []Diagnostic
}

func (c *Counter) Emit(d Diagnostic) {
	if d.Severity == Error {
		c.Errors = append(c.Errors, d)
	} else {
		c.Warnings = append(c.Warnings, d)
	}
	if c.Inner != nil {
		c.Inner.Emit(d)
	}
}

// HasErrors reports whether any Error-severity diagnostic was emitted.
func (c *Counter) HasErrors() bool { return len(c.Errors) > 0 }
