package recdef

import (
	"testing"

	"sycz80/internal/types"
)

func TestDeclareRecordForwardThenDefine(t *testing.T) {
	tbl := New()
	if _, err := tbl.DeclareRecord(Struct, "n", nil); err != nil {
		t.Fatalf("forward decl: %v", err)
	}
	members := []Member{{Ident: "v", Type: types.Basic(types.Int)}}
	r, err := tbl.DeclareRecord(Struct, "n", members)
	if err != nil {
		t.Fatalf("define after forward decl: %v", err)
	}
	if len(r.Members) != 1 {
		t.Fatalf("members = %v; want 1", r.Members)
	}
	if _, err := tbl.DeclareRecord(Struct, "n", members); err == nil {
		t.Fatal("redefinition should fail")
	}
}

func TestAnonymousRecordGetsSyntheticTag(t *testing.T) {
	tbl := New()
	r, err := tbl.DeclareRecord(Struct, "", []Member{{Ident: "x", Type: types.Basic(types.Int)}})
	if err != nil {
		t.Fatal(err)
	}
	if r.IRIdent != "record_0" {
		t.Errorf("IRIdent = %q; want record_0", r.IRIdent)
	}
}

func TestPackBitfields(t *testing.T) {
	fields := []PendingField{
		{Ident: "a", Type: types.Basic(types.UInt), IsBitfield: true, BitWidth: 3},
		{Ident: "b", Type: types.Basic(types.UInt), IsBitfield: true, BitWidth: 5},
		{Ident: "c", Type: types.Basic(types.Int)},
	}
	members := PackBitfields(fields)
	if members[0].BitPos != 0 || members[0].BitWidth != 3 {
		t.Errorf("a = %+v; want bitpos 0 width 3", members[0])
	}
	if members[1].BitPos != 3 || members[1].BitWidth != 5 {
		t.Errorf("b = %+v; want bitpos 3 width 5", members[1])
	}
	if members[0].Unit != members[1].Unit {
		t.Error("a and b should share a storage unit")
	}
	if members[2].IsBitfield() {
		t.Error("c should not be a bitfield")
	}
}

func TestPackBitfieldsNewUnitWhenFull(t *testing.T) {
	fields := []PendingField{
		{Ident: "a", Type: types.Basic(types.UChar), IsBitfield: true, BitWidth: 6},
		{Ident: "b", Type: types.Basic(types.UChar), IsBitfield: true, BitWidth: 6},
	}
	members := PackBitfields(fields)
	if members[0].Unit == members[1].Unit {
		t.Error("b should not fit in a's 8-bit unit alongside 6 bits already used; want a new unit")
	}
	if members[1].BitPos != 0 {
		t.Errorf("b.BitPos = %d; want 0 (fresh unit)", members[1].BitPos)
	}
}
