package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"sycz80/internal/ir"
)

// Print renders mod in the canonical textual form this package's lexer
// and parser accept, satisfying the round-trip invariant `parse(print(x))
// ≡ x` (spec.md §8).
func Print(mod *ir.Module) string {
	var b strings.Builder
	for i := 0; i < mod.Decls.Len(); i++ {
		d := mod.Decls.At(i)
		switch d.Kind {
		case ir.DeclVariable:
			printVariable(&b, d.Var)
		case ir.DeclProcedure:
			printProcedure(&b, d.Proc)
		case ir.DeclRecord:
			printRecord(&b, d.Rec)
		}
	}
	return b.String()
}

func printLinkage(b *strings.Builder, l ir.Linkage) {
	switch l {
	case ir.LinkageExtern:
		b.WriteString(" extern")
	case ir.LinkageGlobal:
		b.WriteString(" global")
	}
}

func printTypeExpr(b *strings.Builder, te *ir.TypeExpr) {
	switch te.Kind {
	case ir.TEInt:
		fmt.Fprintf(b, "int.%d", te.Width)
	case ir.TEPtr:
		fmt.Fprintf(b, "ptr.%d", te.Width)
	case ir.TEIdent:
		b.WriteString(te.Name)
	case ir.TEArray:
		printTypeExpr(b, te.Element)
		fmt.Fprintf(b, "{%d}", te.Size)
	}
}

func printVariable(b *strings.Builder, v *ir.Variable) {
	fmt.Fprintf(b, "var %s : ", v.Ident)
	printTypeExpr(b, v.Type)
	printLinkage(b, v.Linkage)
	b.WriteString(" begin\n")
	for i := 0; i < v.Data.Len(); i++ {
		e := v.Data.At(i)
		switch e.Kind {
		case ir.DataInt:
			fmt.Fprintf(b, "  int.%d %d;\n", e.Width, e.IntVal)
		case ir.DataPtr:
			if e.Offset != 0 {
				fmt.Fprintf(b, "  ptr.%d %s, %d;\n", e.Width, e.Symbol, e.Offset)
			} else {
				fmt.Fprintf(b, "  ptr.%d %s;\n", e.Width, e.Symbol)
			}
		}
	}
	b.WriteString("end;\n")
}

func printRecord(b *strings.Builder, r *ir.Record) {
	if r.Tag == ir.RecordUnion {
		fmt.Fprintf(b, "union %s begin\n", r.Ident)
	} else {
		fmt.Fprintf(b, "record %s begin\n", r.Ident)
	}
	for _, f := range r.Fields {
		fmt.Fprintf(b, "  %s : ", f.Ident)
		printTypeExpr(b, f.Type)
		b.WriteString(";\n")
	}
	b.WriteString("end;\n")
}

func printProcedure(b *strings.Builder, p *ir.Procedure) {
	fmt.Fprintf(b, "proc %s(", p.Ident)
	for i, a := range p.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s : ", a.Ident)
		printTypeExpr(b, a.Type)
	}
	if p.Variadic {
		if len(p.Args) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteString(")")
	if p.ReturnType != nil {
		b.WriteString(" : ")
		printTypeExpr(b, p.ReturnType)
	}
	if len(p.Attrs) > 0 {
		b.WriteString(" attr(")
		b.WriteString(strings.Join(p.Attrs, ", "))
		b.WriteString(")")
	}
	printLinkage(b, p.Linkage)
	if len(p.Locals) > 0 {
		b.WriteString(" lvar\n")
		for _, l := range p.Locals {
			fmt.Fprintf(b, "  %s : ", l.Ident)
			printTypeExpr(b, l.Type)
			b.WriteString(";\n")
		}
	}
	if p.Body != nil {
		b.WriteString(" begin\n")
		for i := 0; i < p.Body.Len(); i++ {
			printLblockEntry(b, p.Body.At(i))
		}
		b.WriteString("end")
	}
	b.WriteString(";\n")
}

func printLblockEntry(b *strings.Builder, e ir.LblockEntry) {
	b.WriteString("  ")
	if e.Label != "" {
		fmt.Fprintf(b, "%s: ", e.Label)
	}
	if e.Instr == nil {
		b.WriteString(";\n")
		return
	}
	printInstr(b, e.Instr)
}

func printInstr(b *strings.Builder, ins *ir.Instr) {
	b.WriteString(ins.Op.String())
	if ins.Width != 0 {
		fmt.Fprintf(b, ".%d", ins.Width)
	}
	operands := instrOperands(ins)
	if len(operands) > 0 {
		b.WriteString(" ")
		for i, op := range operands {
			if i > 0 {
				b.WriteString(", ")
			}
			printOperand(b, op)
		}
	}
	if ins.TypeOp != nil {
		b.WriteString(" : ")
		printTypeExpr(b, ins.TypeOp)
	}
	b.WriteString(";\n")
}

// instrOperands returns ins's non-absent operands in Dest, Op1, Op2
// order, trimmed of any trailing absent ones so the printed form omits
// them rather than printing trailing `nil` placeholders.
func instrOperands(ins *ir.Instr) []ir.Operand {
	all := []ir.Operand{ins.Dest, ins.Op1, ins.Op2}
	n := len(all)
	for n > 0 && all[n-1].Kind == ir.OperandNil {
		n--
	}
	return all[:n]
}

func printOperand(b *strings.Builder, op ir.Operand) {
	switch op.Kind {
	case ir.OperandNil:
		b.WriteString("nil")
	case ir.OperandImmediate:
		b.WriteString(strconv.FormatInt(op.Imm, 10))
	case ir.OperandVariable:
		b.WriteString(op.Ident)
	case ir.OperandList:
		b.WriteString("{")
		for i, item := range op.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			printOperand(b, item)
		}
		b.WriteString("}")
	}
}
