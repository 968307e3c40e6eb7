// Package types implements the CG (code-generator) type model: the
// variant of Basic/Pointer/Func/Record/Enum/Array types spec.md §3
// describes, deep-cloned whenever shared so no two call sites can
// observe a mutation through a common alias (spec.md §9 "Recursive type
// cloning").
//
// Grounded on lang/ysem/ir.go's Type variant (Basic/Pointer/Array/
// Struct/Func cases) and lang/sem/analyzer.go's type table, generalized
// to the full elementary-type and rank set a C frontend needs.
package types

import "fmt"

// Elementary enumerates the basic (non-derived) CG types.
type Elementary int

const (
	Void Elementary = iota
	Bool
	Char
	UChar
	SChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Logic   // compiler-internal boolean result of a comparison, pre-widen
	VaList
)

var elementaryNames = map[Elementary]string{
	Void: "void", Bool: "_Bool", Char: "char", UChar: "unsigned char",
	SChar: "signed char", Short: "short", UShort: "unsigned short",
	Int: "int", UInt: "unsigned int", Long: "long", ULong: "unsigned long",
	LongLong: "long long", ULongLong: "unsigned long long",
	Logic: "<logic>", VaList: "va_list",
}

func (e Elementary) String() string {
	if s, ok := elementaryNames[e]; ok {
		return s
	}
	return "<unknown elementary>"
}

// rank orders integer types for the usual arithmetic conversion, per
// spec.md §4.3: "char < short < int < long < longlong".
var rank = map[Elementary]int{
	Bool: 0, Char: 1, SChar: 1, UChar: 1,
	Short: 2, UShort: 2,
	Int: 3, UInt: 3,
	Long: 4, ULong: 4,
	LongLong: 5, ULongLong: 5,
}

var unsignedOf = map[Elementary]Elementary{
	Char: UChar, SChar: UChar, Short: UShort, Int: UInt, Long: ULong, LongLong: ULongLong,
}

var signedOf = map[Elementary]Elementary{
	UChar: Char, UShort: Short, UInt: Int, ULong: Long, ULongLong: LongLong,
}

// IsUnsigned reports whether e is one of the unsigned integer kinds.
func IsUnsigned(e Elementary) bool {
	_, ok := signedOf[e]
	return ok
}

// IsInteger reports whether e participates in integer rank/conversion.
func IsInteger(e Elementary) bool {
	_, ok := rank[e]
	return ok
}

// Width returns the storage width in bits of an elementary type, on the
// Z80 target's ABI (8-bit char, 16-bit short/int/pointer, 32-bit long,
// 32-bit long long — the bootstrap toolchain does not widen long long
// further).
func Width(e Elementary) int {
	switch e {
	case Void:
		return 0
	case Bool, Char, UChar, SChar:
		return 8
	case Short, UShort, Int, UInt, Logic:
		return 16
	case Long, ULong, LongLong, ULongLong:
		return 32
	case VaList:
		return 16
	}
	return 16
}

// CallConv names a function type's calling convention. The bootstrap
// target has exactly one; the field exists so a backend can later
// distinguish interrupt handlers or __fastcall-style variants.
type CallConv int

const (
	ConvDefault CallConv = iota
)

// Kind discriminates the Type sum type.
type Kind int

const (
	KBasic Kind = iota
	KPointer
	KFunc
	KRecord
	KEnum
	KArray
)

// Type is the CG type variant. Exactly one field group is meaningful,
// selected by Kind — callers branch on Kind rather than testing fields
// for nilness, matching the exhaustive-match style spec.md §9 asks for
// in place of the source's tagged void* dispatch.
type Type struct {
	Kind Kind

	// KBasic
	Elem Elementary

	// KPointer
	Target *Type

	// KFunc
	Return   *Type
	Args     []*Type
	Variadic bool
	Conv     CallConv

	// KRecord
	Record *RecordRef

	// KEnum
	Enum *EnumRef

	// KArray
	Element   *Type
	HasSize   bool
	Size      int64
	IndexType *Type
}

// RecordRef and EnumRef are opaque handles into the record/enum
// definition tables (internal/recdef); types never own a definition,
// only reference it by name, so cloning a Type never clones a
// definition.
type RecordRef struct {
	Name string
}

type EnumRef struct {
	Name string
}

// Basic returns a Type wrapping an elementary kind.
func Basic(e Elementary) *Type { return &Type{Kind: KBasic, Elem: e} }

// PointerTo returns a pointer type to target.
func PointerTo(target *Type) *Type { return &Type{Kind: KPointer, Target: target.Clone()} }

// Func returns a function type.
func Func(ret *Type, args []*Type, variadic bool) *Type {
	t := &Type{Kind: KFunc, Return: ret.Clone(), Variadic: variadic}
	for _, a := range args {
		t.Args = append(t.Args, a.Clone())
	}
	return t
}

// RecordType returns a type referencing the named record/union.
func RecordType(name string) *Type { return &Type{Kind: KRecord, Record: &RecordRef{Name: name}} }

// EnumType returns a type referencing the named enum.
func EnumType(name string) *Type { return &Type{Kind: KEnum, Enum: &EnumRef{Name: name}} }

// ArrayOf returns an array type; hasSize is false for an incomplete
// array (`T x[]`).
func ArrayOf(elem *Type, size int64, hasSize bool) *Type {
	return &Type{Kind: KArray, Element: elem.Clone(), Size: size, HasSize: hasSize}
}

// Clone deep-copies t. Every constructor above and every table lookup
// that hands a Type to a caller must route through Clone, since the
// core never interns types (spec.md §9).
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.Target = t.Target.Clone()
	c.Return = t.Return.Clone()
	c.Element = t.Element.Clone()
	c.IndexType = t.IndexType.Clone()
	if t.Args != nil {
		c.Args = make([]*Type, len(t.Args))
		for i, a := range t.Args {
			c.Args[i] = a.Clone()
		}
	}
	if t.Record != nil {
		r := *t.Record
		c.Record = &r
	}
	if t.Enum != nil {
		e := *t.Enum
		c.Enum = &e
	}
	return &c
}

// IsScalarPointer reports whether t is a pointer type.
func (t *Type) IsScalarPointer() bool { return t != nil && t.Kind == KPointer }

// IsInteger reports whether t is an elementary integer type.
func (t *Type) IsInteger() bool { return t != nil && t.Kind == KBasic && IsInteger(t.Elem) }

// IsVoid reports whether t is the void basic type.
func (t *Type) IsVoid() bool { return t != nil && t.Kind == KBasic && t.Elem == Void }

// Rank returns t's integer rank; only meaningful when IsInteger(t).
func (t *Type) Rank() int { return rank[t.Elem] }

// Unsigned reports whether t is an unsigned integer type.
func (t *Type) Unsigned() bool { return t.IsInteger() && IsUnsigned(t.Elem) }

// Width returns the storage width in bits of t (pointers are the
// target's pointer width, 16 bits, matching Z80's address bus).
func (t *Type) Width() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KBasic:
		return Width(t.Elem)
	case KPointer:
		return 16
	case KEnum:
		return Width(Int)
	case KArray:
		return t.Element.Width()
	}
	return 16
}

// Equal reports structural equality, following Record/Enum references by
// name rather than deep structural recursion (two Type values naming the
// same record are equal regardless of the record definition's current
// contents).
func (t *Type) Equal(u *Type) bool {
	if t == nil || u == nil {
		return t == u
	}
	if t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case KBasic:
		return t.Elem == u.Elem
	case KPointer:
		return t.Target.Equal(u.Target)
	case KFunc:
		if !t.Return.Equal(u.Return) || t.Variadic != u.Variadic || len(t.Args) != len(u.Args) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equal(u.Args[i]) {
				return false
			}
		}
		return true
	case KRecord:
		return t.Record.Name == u.Record.Name
	case KEnum:
		return t.Enum.Name == u.Enum.Name
	case KArray:
		return t.Element.Equal(u.Element) && t.HasSize == u.HasSize && t.Size == u.Size
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case KBasic:
		return t.Elem.String()
	case KPointer:
		return fmt.Sprintf("%s *", t.Target)
	case KFunc:
		return fmt.Sprintf("%s (%d args, variadic=%v)", t.Return, len(t.Args), t.Variadic)
	case KRecord:
		return fmt.Sprintf("struct/union %s", t.Record.Name)
	case KEnum:
		return fmt.Sprintf("enum %s", t.Enum.Name)
	case KArray:
		if t.HasSize {
			return fmt.Sprintf("%s[%d]", t.Element, t.Size)
		}
		return fmt.Sprintf("%s[]", t.Element)
	}
	return "<unknown type>"
}

// Promote applies integer promotion: any type of rank below int becomes
// int, preserving sign only when int cannot represent every value (i.e.
// never on this target, since int is 16 bits and can already represent
// every char/short value) — per spec.md §4.3 "(any type of rank below
// int becomes int preserving sign when representable, else uint)".
func Promote(t *Type) *Type {
	if t == nil || t.Kind != KBasic {
		return t.Clone()
	}
	if rank[t.Elem] >= rank[Int] {
		return t.Clone()
	}
	return Basic(Int)
}

// UAC computes the usual arithmetic conversion common type for two
// already-promoted integer types, per spec.md §4.3's five-case rule.
// Flag is the side-channel diagnostic spec.md asks the code generator to
// surface as a warning ("", "mix2u", or similar).
func UAC(a, b *Type) (common *Type, flag string) {
	pa, pb := Promote(a), Promote(b)
	if pa.Equal(pb) {
		return pa, ""
	}
	aUnsigned, bUnsigned := IsUnsigned(pa.Elem), IsUnsigned(pb.Elem)
	if aUnsigned == bUnsigned {
		if rank[pa.Elem] >= rank[pb.Elem] {
			return pa, ""
		}
		return pb, ""
	}
	var uns, sig *Type
	if aUnsigned {
		uns, sig = pa, pb
	} else {
		uns, sig = pb, pa
	}
	if rank[uns.Elem] >= rank[sig.Elem] {
		return uns, ""
	}
	if canRepresentAll(sig.Elem, uns.Elem) {
		return sig, ""
	}
	return Basic(unsignedOf[sig.Elem]), "mix2u"
}

// canRepresentAll reports whether every value of unsigned type u fits in
// signed type s — true only when s is strictly wider than u in bits,
// since at equal width s needs its sign bit and so cannot reach u's top
// half.
func canRepresentAll(s, u Elementary) bool {
	return Width(s) > Width(u)
}
