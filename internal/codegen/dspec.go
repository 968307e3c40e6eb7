package codegen

import (
	"sycz80/internal/ast"
	"sycz80/internal/diag"
	"sycz80/internal/token"
	"sycz80/internal/types"
)

// DSpec is the reduced declaration-specifier record spec.md §4.3
// describes: type_spec, short_count, long_count, signed_count,
// unsigned_count, storage_class, accumulated from a DeclSpecs's
// raw keyword tokens.
type DSpec struct {
	Named        *types.Type // non-nil when TypeSpec named a typedef/record/enum
	HasVoid      bool
	HasChar      bool
	HasInt       bool
	HasFloat     bool
	ShortCount   int
	LongCount    int
	SignedCount  int
	UnsignedCount int
	StorageClass token.Kind // zero value (Invalid) means none given
}

// reduceBasicTokens folds a BasicTypeSpec's raw keyword run into a DSpec,
// reporting a typed diagnostic for anything spec.md §4.3 forbids ("at
// most one type specifier; at most one of signed/unsigned").
func (m *Module) reduceBasicTokens(toks []token.Token, spec *DSpec) {
	sawBase := false
	for _, t := range toks {
		switch t.Kind {
		case token.KwVoid:
			m.markBase(&sawBase, t, spec)
			spec.HasVoid = true
		case token.KwChar:
			m.markBase(&sawBase, t, spec)
			spec.HasChar = true
		case token.KwInt:
			m.markBase(&sawBase, t, spec)
			spec.HasInt = true
		case token.KwFloat, token.KwDouble:
			m.markBase(&sawBase, t, spec)
			spec.HasFloat = true
		case token.KwShort:
			spec.ShortCount++
		case token.KwLong:
			spec.LongCount++
		case token.KwSigned:
			spec.SignedCount++
		case token.KwUnsigned:
			spec.UnsignedCount++
		}
	}
}

func (m *Module) markBase(sawBase *bool, t token.Token, spec *DSpec) {
	if *sawBase {
		m.errorf(t, "typespec", "more than one type specifier in declaration")
		return
	}
	*sawBase = true
}

// declSpecsToDSpec reduces specs' raw children, declaring or looking up any
// inline struct/union/enum it names along the way. Memoized per DeclSpecs
// node: pass 1 (registerTopLevel) and pass 2 (lowerTopLevel) both reduce
// the same declaration's specifiers, and an inline `struct s { ... }`
// definition must only be declared into recTab once — a second
// declaration with the same member list reads as a redefinition error.
func (m *Module) declSpecsToDSpec(specs *ast.DeclSpecs) DSpec {
	if d, ok := m.dspecCache[specs]; ok {
		return d
	}
	d := m.reduceDeclSpecs(specs)
	m.dspecCache[specs] = d
	return d
}

func (m *Module) reduceDeclSpecs(specs *ast.DeclSpecs) DSpec {
	var d DSpec
	if specs.StorageClass != nil {
		d.StorageClass = specs.StorageClass.Kind
	}
	switch ts := specs.TypeSpec.(type) {
	case *ast.BasicTypeSpec:
		m.reduceBasicTokens(ts.Tokens, &d)
	case *ast.NamedTypeSpec:
		if t, ok := m.lookupTypedef(ts.Name.Text); ok {
			d.Named = t
		} else {
			m.errorf(ts.Name, "typespec", "undeclared type name %q", ts.Name.Text)
			d.Named = types.Basic(types.Int)
		}
	case *ast.RecordTypeSpec:
		d.Named = m.declRecordTypeSpec(ts)
	case *ast.EnumTypeSpec:
		d.Named = m.declEnumTypeSpec(ts)
	default:
		d.HasInt = true
	}
	return d
}

// resolveDSpec maps a reduced DSpec to its elementary or named CG type, per
// spec.md §4.3's length-modifier-to-base-type table.
func (m *Module) resolveDSpec(d DSpec, at token.Token) *types.Type {
	if d.Named != nil {
		return d.Named.Clone()
	}
	if d.SignedCount > 0 && d.UnsignedCount > 0 {
		m.errorf(at, "typespec", "both signed and unsigned specified")
	}
	unsigned := d.UnsignedCount > 0
	switch {
	case d.HasVoid:
		return types.Basic(types.Void)
	case d.HasFloat:
		m.errorf(at, "typespec", "floating point is not supported by this target")
		return types.Basic(types.Int)
	case d.HasChar:
		switch {
		case unsigned:
			return types.Basic(types.UChar)
		case d.SignedCount > 0:
			return types.Basic(types.SChar)
		default:
			return types.Basic(types.Char)
		}
	case d.ShortCount > 0:
		if unsigned {
			return types.Basic(types.UShort)
		}
		return types.Basic(types.Short)
	case d.LongCount >= 2:
		if unsigned {
			return types.Basic(types.ULongLong)
		}
		return types.Basic(types.LongLong)
	case d.LongCount == 1:
		if unsigned {
			return types.Basic(types.ULong)
		}
		return types.Basic(types.Long)
	default:
		// bare int, or a bare signed/unsigned with no other base keyword.
		if unsigned {
			return types.Basic(types.UInt)
		}
		return types.Basic(types.Int)
	}
}

func (m *Module) errorf(t token.Token, category string, format string, args ...any) {
	m.diag(diag.Error, t, category, format, args...)
}

func (m *Module) warnf(t token.Token, category string, format string, args ...any) {
	m.diag(diag.Warning, t, category, format, args...)
}
