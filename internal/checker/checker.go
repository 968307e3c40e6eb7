// Package checker describes the style-rule engine spec.md §1 places out
// of scope ("the checker's stylistic rule engine... described only by
// the interfaces they consume"). RuleSet is the function type a rule
// engine implements; no rule group ships in this repository, and
// cmd/ccheck validates its -d group but calls no RuleSet.
package checker

import "sycz80/internal/ast"

// Group names one of the rule groups spec.md §6 lists for `ccheck -d
// <group>`.
type Group string

const (
	Attr    Group = "attr"
	Decl    Group = "decl"
	EStmt   Group = "estmt"
	Fmt     Group = "fmt"
	Hdr     Group = "hdr"
	InvChar Group = "invchar"
	Loop    Group = "loop"
	NBlock  Group = "nblock"
	SClass  Group = "sclass"
)

// AllGroups is every recognized -d argument, for validating the flag.
var AllGroups = []Group{Attr, Decl, EStmt, Fmt, Hdr, InvChar, Loop, NBlock, SClass}

// Finding is one style violation located via an AST node's token range.
type Finding struct {
	Group   Group
	Node    ast.Node
	Message string
}

// RuleSet checks a parsed module, optionally restricted to one group,
// and returns every finding. The out-of-scope collaborator supplies the
// real rule implementations; this repository carries no RuleSet value.
type RuleSet func(mod *ast.Module, only Group) []Finding
