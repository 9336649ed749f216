package datafixer

import (
	"fmt"

	"github.com/reoring/datafixer/dynamic"
)

// Scope selects which instances of a rule's reference are transformed.
type Scope int

const (
	// ScopeEverywhere transforms every reachable instance of the reference,
	// however deeply nested.
	ScopeEverywhere Scope = iota
	// ScopeRoot transforms the document root only, and only when the root is
	// an instance of the reference.
	ScopeRoot
)

func (s Scope) String() string {
	if s == ScopeRoot {
		return "root"
	}
	return "everywhere"
}

// Mode selects how the output of a rule is checked.
type Mode int

const (
	// ModeValue rules edit values in place. Container shapes and choice tags
	// of the output are checked against the output type.
	ModeValue Mode = iota
	// ModeRoundTrip rules rebuild the instance from its generic form. The
	// output is re-read strictly against the output type and a failure is
	// reported as roundtrip_failure.
	ModeRoundTrip
)

func (m Mode) String() string {
	if m == ModeRoundTrip {
		return "roundtrip"
	}
	return "value"
}

// Rule is one transformation inside a DataFix.
type Rule struct {
	Ref   TypeRef
	Tag   string // non-empty restricts the rule to one choice branch
	Scope Scope
	Mode  Mode
	Apply ModifyFunc
	Optic string // describes the focus, for diagnostics
}

func (r Rule) String() string {
	s := r.Scope.String() + " " + string(r.Ref)
	if r.Tag != "" {
		s += "[" + r.Tag + "]"
	}
	if r.Optic != "" {
		s += r.Optic
	}
	if r.Mode == ModeRoundTrip {
		s += " (roundtrip)"
	}
	return s
}

// DataFix is one migration step bound to the version it produces.
type DataFix struct {
	name         string
	version      int
	changesShape bool
	rules        []Rule
}

// Name identifies the fix in diagnostics.
func (f *DataFix) Name() string { return f.name }

// Version is the output schema version of the fix.
func (f *DataFix) Version() int { return f.version }

// ChangesShape reports whether the fix alters the declared type of its
// references rather than only the values.
func (f *DataFix) ChangesShape() bool { return f.changesShape }

// Rules returns the rules in application order.
func (f *DataFix) Rules() []Rule {
	out := make([]Rule, len(f.rules))
	copy(out, f.rules)
	return out
}

func (f *DataFix) String() string { return fmt.Sprintf("%s@%d", f.name, f.version) }

// FixBuilder declares a DataFix.
//
//	fix := datafixer.NewFix("EntityShulkerColorFix", 808, false).
//		Branch(refs.Entity, "minecraft:shulker", fn).
//		MustBuild()
type FixBuilder struct {
	fix    *DataFix
	issues Issues
}

// NewFix starts declaring a fix producing version.
func NewFix(name string, version int, changesShape bool) *FixBuilder {
	return &FixBuilder{fix: &DataFix{name: name, version: version, changesShape: changesShape}}
}

func (b *FixBuilder) add(r Rule) *FixBuilder {
	if r.Apply == nil {
		b.fail(r.Ref, "nil transform")
		return b
	}
	if r.Ref == "" {
		b.fail(r.Ref, "empty type reference")
		return b
	}
	b.fix.rules = append(b.fix.rules, r)
	return b
}

func (b *FixBuilder) fail(ref TypeRef, detail string) {
	it := newIssue(CodeSchemaMismatch, map[string]string{"detail": detail})
	it.Fix, it.Ref, it.Version = b.fix.name, ref, b.fix.version
	b.issues = AppendIssues(b.issues, it)
}

// Everywhere applies fn to every instance of ref in the document.
func (b *FixBuilder) Everywhere(ref TypeRef, fn ModifyFunc) *FixBuilder {
	return b.add(Rule{Ref: ref, Scope: ScopeEverywhere, Apply: fn})
}

// Root applies fn to the document root when it is an instance of ref.
func (b *FixBuilder) Root(ref TypeRef, fn ModifyFunc) *FixBuilder {
	return b.add(Rule{Ref: ref, Scope: ScopeRoot, Apply: fn})
}

// Branch applies fn to every instance of ref whose discriminator is tag.
// Other branches and the shared envelope of other instances are untouched.
func (b *FixBuilder) Branch(ref TypeRef, tag string, fn ModifyFunc) *FixBuilder {
	if tag == "" {
		b.fail(ref, "empty branch tag")
		return b
	}
	return b.add(Rule{Ref: ref, Tag: tag, Scope: ScopeEverywhere, Apply: fn})
}

// Field applies fn to the focus of optic inside every instance of ref.
func (b *FixBuilder) Field(ref TypeRef, optic Optic, fn ModifyFunc) *FixBuilder {
	if optic == nil || fn == nil {
		b.fail(ref, "nil optic or transform")
		return b
	}
	return b.add(Rule{Ref: ref, Scope: ScopeEverywhere, Optic: optic.String(), Apply: Focus(optic, fn)})
}

// RoundTrip applies fn to every instance of ref in its generic form and
// re-reads the result against the output type. It is the fallback for
// restructurings that optics cannot express directly.
func (b *FixBuilder) RoundTrip(ref TypeRef, fn ModifyFunc) *FixBuilder {
	return b.add(Rule{Ref: ref, Scope: ScopeEverywhere, Mode: ModeRoundTrip, Apply: fn})
}

// Add appends a fully specified rule, for combinations the shorthands above
// do not cover such as a round trip on the root only.
func (b *FixBuilder) Add(r Rule) *FixBuilder {
	if r.Tag != "" && r.Scope == ScopeRoot {
		b.fail(r.Ref, "branch rules apply everywhere")
		return b
	}
	return b.add(r)
}

// Build validates the declaration.
func (b *FixBuilder) Build() (*DataFix, error) {
	issues := append(Issues(nil), b.issues...)
	if b.fix.name == "" {
		issues = AppendIssues(issues, Issue{Code: CodeSchemaMismatch, Version: b.fix.version, Message: "fix without name"})
	}
	if b.fix.version <= 0 {
		it := newIssue(CodeInvalidVersion, map[string]string{"detail": "fix version must be positive"})
		it.Fix, it.Version = b.fix.name, b.fix.version
		issues = AppendIssues(issues, it)
	}
	if len(b.fix.rules) == 0 {
		b.fail("", "fix declares no rules")
		issues = AppendIssues(issues, b.issues[len(b.issues)-1])
	}
	if len(issues) > 0 {
		return nil, issues
	}
	f := *b.fix
	f.rules = append([]Rule(nil), b.fix.rules...)
	return &f, nil
}

// MustBuild is Build that panics on error.
func (b *FixBuilder) MustBuild() *DataFix {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// Focus restricts fn to the focus of optic.
func Focus(optic Optic, fn ModifyFunc) ModifyFunc {
	return func(v dynamic.Value) (dynamic.Value, error) { return optic.Modify(v, fn) }
}

// Total adapts a transform that cannot fail.
func Total(fn func(dynamic.Value) dynamic.Value) ModifyFunc {
	return func(v dynamic.Value) (dynamic.Value, error) { return fn(v), nil }
}
