// Package recdef holds the named/anonymous record (struct/union) and
// enum definition tables spec.md §3 describes, including bitfield
// storage-unit packing (spec.md §4.3).
//
// Grounded on lang/sem/analyzer.go's struct/enum symbol tables, expanded
// from YAPL's plain field lists to C's bitfield-packing rules.
package recdef

import (
	"fmt"

	"sycz80/internal/types"
)

// Tag selects struct or union layout (a union's members all start at
// offset/bit-position 0 — left to the backend; this table only tracks
// logical member order and bitfield packing, not byte offsets).
type Tag int

const (
	Struct Tag = iota
	Union
)

// StorageUnit is the aligned region consecutive bitfield members pack
// into. A new unit begins when a non-bitfield member is encountered or
// the current unit cannot hold the next bitfield's width.
type StorageUnit struct {
	Base *types.Type // the declared bitfield base type, e.g. unsigned int
}

// Member is one record field. For an ordinary member, Unit is nil. For a
// bitfield member, Unit names its storage unit and BitPos/BitWidth give
// its position within it.
type Member struct {
	Ident    string
	Type     *types.Type
	Unit     *StorageUnit
	BitPos   int
	BitWidth int
}

// IsBitfield reports whether m packs into a storage unit.
func (m Member) IsBitfield() bool { return m.Unit != nil }

// Record is a struct or union definition, named or anonymous (Ident ==
// "" for anonymous; DeclareRecord then synthesizes an IR tag such as
// "record_3").
type Record struct {
	Tag      Tag
	Ident    string
	IRIdent  string
	Defining bool // not set by this package or by codegen; stays false
	Members  []Member
}

// FindMember returns the member named ident, if any.
func (r *Record) FindMember(ident string) (Member, bool) {
	for _, m := range r.Members {
		if m.Ident == ident {
			return m, true
		}
	}
	return Member{}, false
}

// EnumMember is one enumerator: name and assigned integer value.
type EnumMember struct {
	Ident string
	Value int64
}

// Enum is an enum definition, named or anonymous.
type Enum struct {
	Ident    string
	Defining bool
	Members  []EnumMember
}

// Table owns the module-level record and enum definitions, keyed by C
// identifier (or synthetic tag for anonymous aggregates).
type Table struct {
	records   map[string]*Record
	enums     map[string]*Enum
	anonCount int
}

// New returns an empty definition table.
func New() *Table {
	return &Table{records: map[string]*Record{}, enums: map[string]*Enum{}}
}

// NextAnonTag returns a fresh synthetic tag of the given kind ("record"
// or "enum"), e.g. "record_0", "record_1", ....
func (t *Table) NextAnonTag(kind string) string {
	tag := fmt.Sprintf("%s_%d", kind, t.anonCount)
	t.anonCount++
	return tag
}

// DeclareRecord registers a forward declaration or full definition for
// tag (Tag selects struct/union). Re-declaration is only permitted if the
// previous entry was a forward declaration (Members == nil), per
// spec.md §4.3.
func (t *Table) DeclareRecord(kind Tag, ident string, members []Member) (*Record, error) {
	key := ident
	if key == "" {
		key = t.NextAnonTag("record")
	}
	if existing, ok := t.records[key]; ok {
		if existing.Members != nil && members != nil {
			return nil, fmt.Errorf("redefinition of %q", key)
		}
		if members != nil {
			existing.Members = members
		}
		return existing, nil
	}
	r := &Record{Tag: kind, Ident: ident, IRIdent: key, Members: members}
	t.records[key] = r
	return r, nil
}

// LookupRecord finds a record by identifier (C name or synthetic tag).
func (t *Table) LookupRecord(ident string) (*Record, bool) {
	r, ok := t.records[ident]
	return r, ok
}

// DeclareEnum registers a forward declaration or full definition.
func (t *Table) DeclareEnum(ident string, members []EnumMember) (*Enum, error) {
	key := ident
	if key == "" {
		key = t.NextAnonTag("enum")
	}
	if existing, ok := t.enums[key]; ok {
		if len(existing.Members) > 0 && len(members) > 0 {
			return nil, fmt.Errorf("redefinition of enum %q", key)
		}
		if len(members) > 0 {
			existing.Members = members
		}
		return existing, nil
	}
	e := &Enum{Ident: ident, Members: members}
	t.enums[key] = e
	return e, nil
}

// LookupEnum finds an enum by identifier or synthetic tag.
func (t *Table) LookupEnum(ident string) (*Enum, bool) {
	e, ok := t.enums[ident]
	return e, ok
}

// PackBitfields assigns storage units and bit positions to a run of
// members about to form one record, per spec.md §4.3: consecutive
// bitfield members pack into a storage unit whose base type has width at
// least the requested bitfield width; a new unit begins when a
// non-bitfield is encountered or the current unit cannot hold the next
// bitfield.
func PackBitfields(fields []PendingField) []Member {
	var out []Member
	var unit *StorageUnit
	var used int
	for _, f := range fields {
		if !f.IsBitfield {
			out = append(out, Member{Ident: f.Ident, Type: f.Type})
			unit = nil
			used = 0
			continue
		}
		width := f.Type.Width()
		if unit == nil || used+f.BitWidth > width {
			unit = &StorageUnit{Base: f.Type}
			used = 0
		}
		out = append(out, Member{
			Ident: f.Ident, Type: f.Type, Unit: unit,
			BitPos: used, BitWidth: f.BitWidth,
		})
		used += f.BitWidth
	}
	return out
}

// PendingField is the code generator's intermediate form for a
// not-yet-packed struct member, before PackBitfields assigns storage
// units.
type PendingField struct {
	Ident      string
	Type       *types.Type
	IsBitfield bool
	BitWidth   int
}
