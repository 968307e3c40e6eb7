// Package backend describes the Z80 instruction-selection and register
// allocation stage spec.md §1 places out of scope: "the Z80 backend...
// described only via interfaces." Generate is the function type a
// backend implements; TextFallback, which has that signature, is the only
// implementation in this repository, and cmd/syc calls it directly.
package backend

import (
	"sycz80/internal/ir"
	"sycz80/internal/irtext"
)

// Generate lowers an IR module to target assembly text. An out-of-scope
// collaborator provides the real implementation; TextFallback below is
// the only one this repository carries, used when none is wired in.
type Generate func(mod *ir.Module) (string, error)

// TextFallback emits the IR's own textual form in place of real Z80
// assembly, so `syc` remains runnable end to end without the backend
// this repository does not implement. A real Generate replaces this at
// the call site in cmd/syc once a backend exists.
func TextFallback(mod *ir.Module) (string, error) {
	return irtext.Print(mod), nil
}
