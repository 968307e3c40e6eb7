package types

import "testing"

func TestCloneIsIndependent(t *testing.T) {
	a := PointerTo(Basic(Int))
	b := a.Clone()
	b.Target.Elem = Long
	if a.Target.Elem != Int {
		t.Fatalf("mutating clone's target mutated original: %v", a)
	}
}

func TestEqual(t *testing.T) {
	a := PointerTo(Basic(Int))
	b := PointerTo(Basic(Int))
	c := PointerTo(Basic(Long))
	if !a.Equal(b) {
		t.Errorf("%v and %v should be equal", a, b)
	}
	if a.Equal(c) {
		t.Errorf("%v and %v should not be equal", a, c)
	}
}

func TestPromote(t *testing.T) {
	if p := Promote(Basic(Char)); p.Elem != Int {
		t.Errorf("Promote(char) = %v; want int", p)
	}
	if p := Promote(Basic(Long)); p.Elem != Long {
		t.Errorf("Promote(long) = %v; want long (unchanged)", p)
	}
}

func TestUACSameSign(t *testing.T) {
	common, flag := UAC(Basic(Int), Basic(Long))
	if common.Elem != Long || flag != "" {
		t.Errorf("UAC(int, long) = (%v, %q); want (long, \"\")", common, flag)
	}
}

func TestUACUnsignedRankAtLeast(t *testing.T) {
	common, flag := UAC(Basic(UInt), Basic(Int))
	if common.Elem != UInt || flag != "" {
		t.Errorf("UAC(unsigned int, int) = (%v, %q); want (unsigned int, \"\")", common, flag)
	}
}

func TestUACUnsignedRankHigherWins(t *testing.T) {
	common, flag := UAC(Basic(ULongLong), Basic(Long))
	if common.Elem != ULongLong || flag != "" {
		t.Errorf("UAC(unsigned long long, long) = (%v, %q); want (unsigned long long, \"\")", common, flag)
	}
}

func TestUACMix2u(t *testing.T) {
	// unsigned long and long long share a 32-bit width on this target, so
	// long long cannot represent every unsigned long value.
	common, flag := UAC(Basic(ULong), Basic(LongLong))
	if common.Elem != ULongLong || flag != "mix2u" {
		t.Errorf("UAC(unsigned long, long long) = (%v, %q); want (unsigned long long, \"mix2u\")", common, flag)
	}
}

func TestWidths(t *testing.T) {
	cases := map[Elementary]int{Char: 8, Short: 16, Int: 16, Long: 32, LongLong: 32}
	for e, want := range cases {
		if got := Width(e); got != want {
			t.Errorf("Width(%v) = %d; want %d", e, got, want)
		}
	}
}
