// Package ir is the typed three-address intermediate representation
// spec.md §3 describes: a module of variable, procedure, and record
// declarations, each procedure body an ordered labeled block of
// instructions over a closed opcode set with explicit bit widths.
//
// Grounded on lang/ygen/ir_types.go's IRProgram/IRFunction/IRInstr
// family (ordered declaration slices, a string-keyed Op plus Dest/Args
// operand shape), generalized per spec.md §3 to the full closed opcode
// set, typed operands (immediate/variable/list/nil), and the
// dblock/lblock container shapes the textual codec (irtext) round-trips.
package ir

import "sycz80/internal/list"

// Op is the closed instruction opcode set spec.md §3 enumerates. No
// opcode may be added without changing this file and irtext's keyword
// table together.
type Op int

const (
	OpAdd Op = iota
	OpAnd
	OpBnot
	OpCall
	OpCalli
	OpCopy
	OpEq
	OpGt
	OpGtu
	OpGteq
	OpGteu
	OpImm
	OpJmp
	OpJnz
	OpJz
	OpLt
	OpLtu
	OpLteq
	OpLteu
	OpLvarptr
	OpMul
	OpNeg
	OpNeq
	OpNop
	OpOr
	OpPtridx
	OpRead
	OpReccopy
	OpRet
	OpRetv
	OpSdiv
	OpSgnext
	OpShl
	OpShra
	OpShrl
	OpSmod
	OpSub
	OpTrunc
	OpUdiv
	OpUmod
	OpVarptr
	OpWrite
	OpXor
	OpZrext
)

var opNames = map[Op]string{
	OpAdd: "add", OpAnd: "and", OpBnot: "bnot", OpCall: "call", OpCalli: "calli",
	OpCopy: "copy", OpEq: "eq", OpGt: "gt", OpGtu: "gtu", OpGteq: "gteq", OpGteu: "gteu",
	OpImm: "imm", OpJmp: "jmp", OpJnz: "jnz", OpJz: "jz", OpLt: "lt", OpLtu: "ltu",
	OpLteq: "lteq", OpLteu: "lteu", OpLvarptr: "lvarptr", OpMul: "mul", OpNeg: "neg",
	OpNeq: "neq", OpNop: "nop", OpOr: "or", OpPtridx: "ptridx", OpRead: "read",
	OpReccopy: "reccopy", OpRet: "ret", OpRetv: "retv", OpSdiv: "sdiv", OpSgnext: "sgnext",
	OpShl: "shl", OpShra: "shra", OpShrl: "shrl", OpSmod: "smod", OpSub: "sub",
	OpTrunc: "trunc", OpUdiv: "udiv", OpUmod: "umod", OpVarptr: "varptr", OpWrite: "write",
	OpXor: "xor", OpZrext: "zrext",
}

var namesToOp = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "invalid-op"
}

// LookupOp returns the opcode named s and true, or false if s is not a
// recognized opcode keyword.
func LookupOp(s string) (Op, bool) {
	op, ok := namesToOp[s]
	return op, ok
}

// OperandKind tags the four operand shapes spec.md §3 lists.
type OperandKind int

const (
	OperandNil OperandKind = iota
	OperandImmediate
	OperandVariable
	OperandList
)

// Operand is an instruction operand: an int64 immediate, a named IR
// variable, an ordered list of nested operands (used for call argument
// lists), or nil (the absent operand).
type Operand struct {
	Kind  OperandKind
	Imm   int64
	Ident string
	Items []Operand
}

// Nil is the absent-operand value.
var Nil = Operand{Kind: OperandNil}

// Imm builds an immediate operand.
func Imm(v int64) Operand { return Operand{Kind: OperandImmediate, Imm: v} }

// Var builds a variable-reference operand.
func Var(ident string) Operand { return Operand{Kind: OperandVariable, Ident: ident} }

// OperandListOf builds a list operand (e.g. call arguments).
func OperandListOf(items ...Operand) Operand {
	return Operand{Kind: OperandList, Items: items}
}

// Instr is one IR instruction: `(op, width_bits, dest?, op1?, op2?,
// type_operand?)` per spec.md §3.
type Instr struct {
	Op     Op
	Width  int
	Dest   Operand
	Op1    Operand
	Op2    Operand
	TypeOp *TypeExpr
}

// TypeExprKind tags the four IR type-expression shapes.
type TypeExprKind int

const (
	TEInt TypeExprKind = iota
	TEPtr
	TEArray
	TEIdent
)

// TypeExpr is `int(width) | ptr(width) | array(size, element) |
// ident(name)` per spec.md §3.
type TypeExpr struct {
	Kind    TypeExprKind
	Width   int       // TEInt, TEPtr
	Size    int       // TEArray
	Element *TypeExpr // TEArray
	Name    string    // TEIdent
}

func IntType(width int) *TypeExpr  { return &TypeExpr{Kind: TEInt, Width: width} }
func PtrType(width int) *TypeExpr  { return &TypeExpr{Kind: TEPtr, Width: width} }
func ArrayType(size int, elem *TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: TEArray, Size: size, Element: elem}
}
func IdentType(name string) *TypeExpr { return &TypeExpr{Kind: TEIdent, Name: name} }

// Linkage mirrors the `extern`/`global`/default module-linkage keywords
// the textual codec accepts for variables and procedures.
type Linkage int

const (
	LinkageDefault Linkage = iota
	LinkageExtern
	LinkageGlobal
)

// LblockEntry is one entry of a procedure body: an optional label, an
// optional instruction. A pure label (no instruction) is permitted,
// matching spec.md §3's "(optional_label, optional_instruction) entries".
type LblockEntry struct {
	Label string // "" if absent
	Instr *Instr // nil if this entry is a pure label
}

// DataEntryKind tags the two dblock entry shapes.
type DataEntryKind int

const (
	DataInt DataEntryKind = iota
	DataPtr
)

// DataEntry is one entry of an IR variable's initializer block:
// `int(width_bits, int_value)` or `ptr(width_bits, symbol_name,
// offset)`.
type DataEntry struct {
	Kind   DataEntryKind
	Width  int
	IntVal int64  // DataInt
	Symbol string // DataPtr
	Offset int64  // DataPtr
}

// Param is one procedure argument declaration.
type Param struct {
	Ident string
	Type  *TypeExpr
}

// Local is one procedure-local variable declaration (the `lvar` block).
type Local struct {
	Ident string
	Type  *TypeExpr
}

// Variable is a module-level IR variable declaration.
type Variable struct {
	Ident   string
	Type    *TypeExpr
	Linkage Linkage
	Data    *list.List[DataEntry]
}

// Procedure is a module-level IR procedure declaration. Body is nil for
// an extern procedure (no definition in this module).
type Procedure struct {
	Ident      string
	Args       []Param
	Variadic   bool
	ReturnType *TypeExpr // nil for void
	Attrs      []string
	Linkage    Linkage
	Locals     []Local
	Body       *list.List[LblockEntry]
}

// RecordField is one named, typed element of an IR record/union.
type RecordField struct {
	Ident string
	Type  *TypeExpr
}

// RecordTag distinguishes struct from union layout semantics.
type RecordTag int

const (
	RecordStruct RecordTag = iota
	RecordUnion
)

// Record is a module-level IR struct/union declaration: an ordered
// named-typed element list.
type Record struct {
	Tag    RecordTag
	Ident  string
	Fields []RecordField
}

// DeclKind tags the three module-level declaration shapes.
type DeclKind int

const (
	DeclVariable DeclKind = iota
	DeclProcedure
	DeclRecord
)

// Decl is one module-level declaration: variable, procedure, or record.
// Exactly one of Var/Proc/Rec is non-nil, selected by Kind.
type Decl struct {
	Kind DeclKind
	Var  *Variable
	Proc *Procedure
	Rec  *Record
}

// Module is the ordered sequence of top-level IR declarations spec.md
// §3 describes; declaration order mirrors the AST's top-level
// declaration order (spec.md §5's ordering guarantee).
type Module struct {
	Decls *list.List[Decl]
}

// NewModule returns an empty Module.
func NewModule() *Module {
	return &Module{Decls: list.New[Decl]()}
}

// AddVariable appends a variable declaration and returns its index.
func (m *Module) AddVariable(v *Variable) int {
	return m.Decls.Append(Decl{Kind: DeclVariable, Var: v})
}

// AddProcedure appends a procedure declaration and returns its index.
func (m *Module) AddProcedure(p *Procedure) int {
	return m.Decls.Append(Decl{Kind: DeclProcedure, Proc: p})
}

// AddRecord appends a record declaration and returns its index.
func (m *Module) AddRecord(r *Record) int {
	return m.Decls.Append(Decl{Kind: DeclRecord, Rec: r})
}

// NewProcedure returns a procedure with an initialized, empty body
// block, ready for a codegen lowering pass to append to.
func NewProcedure(ident string) *Procedure {
	return &Procedure{Ident: ident, Body: list.New[LblockEntry]()}
}

// NewVariable returns a variable with an initialized, empty data block.
func NewVariable(ident string, t *TypeExpr) *Variable {
	return &Variable{Ident: ident, Type: t, Data: list.New[DataEntry]()}
}

// Emit appends instr as a label-less entry to p's body.
func (p *Procedure) Emit(instr Instr) {
	p.Body.Append(LblockEntry{Instr: &instr})
}

// EmitLabel appends a pure label entry to p's body.
func (p *Procedure) EmitLabel(label string) {
	p.Body.Append(LblockEntry{Label: label})
}

// EmitLabeled appends instr immediately preceded by label, as a single
// entry, matching the textual grammar's `IDENT ':' op ... ';'` shorthand
// for a labeled instruction.
func (p *Procedure) EmitLabeled(label string, instr Instr) {
	p.Body.Append(LblockEntry{Label: label, Instr: &instr})
}
