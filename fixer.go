package datafixer

import (
	"fmt"
	"sort"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/reoring/datafixer/dynamic"
)

// DefaultVersionKey is the map key holding a document's version stamp.
const DefaultVersionKey = "DataVersion"

// schemaItem orders schemas by version inside the registry tree.
type schemaItem struct{ s *Schema }

func (a schemaItem) Less(than btree.Item) bool { return a.s.version < than.(schemaItem).s.version }

func schemaKey(version int) schemaItem { return schemaItem{s: &Schema{version: version}} }

// step is a fix compiled against its input and output schemas. seq keeps
// registration order between fixes sharing a version.
type step struct {
	fix     *DataFix
	seq     int
	in, out *Schema
	plans   []*plan
}

func (a *step) Less(than btree.Item) bool {
	b := than.(*step)
	if a.fix.version != b.fix.version {
		return a.fix.version < b.fix.version
	}
	return a.seq < b.seq
}

func stepKey(version int) *step { return &step{fix: &DataFix{version: version}, seq: -1} }

// Fixer is the immutable, fully registered chain of fixes together with the
// schemas they are written against. It is safe for concurrent use.
type Fixer struct {
	schemas    *btree.BTree
	steps      *btree.BTree
	target     int
	latest     *Schema // schema in effect at target
	baseline   int
	versionKey string
	logger     *zap.Logger
	observer   Observer
}

// Option configures a Fixer.
type Option func(*options)

type options struct {
	target     int
	baseline   int
	versionKey string
	logger     *zap.Logger
	observer   Observer
}

// WithTargetVersion sets the version documents are migrated to. It defaults
// to the highest registered fix or schema version.
func WithTargetVersion(v int) Option { return func(o *options) { o.target = v } }

// WithBaselineVersion sets the version assumed for documents without a
// stamp. It defaults to the lowest registered schema version.
func WithBaselineVersion(v int) Option { return func(o *options) { o.baseline = v } }

// WithVersionKey changes the map key holding the version stamp.
func WithVersionKey(k string) Option { return func(o *options) { o.versionKey = k } }

// WithLogger sets the logger used for migration diagnostics.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithObserver registers a callback that receives every state transition of
// every migration.
func WithObserver(obs Observer) Option { return func(o *options) { o.observer = obs } }

// Builder collects schemas and fixes and produces a Fixer.
type Builder struct {
	schemas []*Schema
	fixes   []*DataFix
	opts    options
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{opts: options{versionKey: DefaultVersionKey}}
	for _, o := range opts {
		o(&b.opts)
	}
	return b
}

// AddSchema registers schemas. Order does not matter.
func (b *Builder) AddSchema(schemas ...*Schema) *Builder {
	b.schemas = append(b.schemas, schemas...)
	return b
}

// AddFix registers fixes. Fixes sharing a version run in registration order.
func (b *Builder) AddFix(fixes ...*DataFix) *Builder {
	b.fixes = append(b.fixes, fixes...)
	return b
}

// Build checks every fix against the schemas around it and freezes the
// chain. All authoring defects are reported together as schema_mismatch
// issues, so a broken registry fails at startup before any document is
// touched.
func (b *Builder) Build() (*Fixer, error) {
	f := &Fixer{
		schemas:    btree.New(8),
		steps:      btree.New(8),
		versionKey: b.opts.versionKey,
		logger:     b.opts.logger,
		observer:   b.opts.observer,
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	} else if f.observer == nil {
		f.observer = LogObserver(f.logger)
	}
	if f.versionKey == "" {
		f.versionKey = DefaultVersionKey
	}

	var issues Issues
	seeded := false
	var lowest, highest int
	for _, s := range b.schemas {
		if s == nil {
			continue
		}
		if !seeded {
			lowest, highest, seeded = s.version, s.version, true
		}
		if prev := f.schemas.ReplaceOrInsert(schemaItem{s: s}); prev != nil {
			it := newIssue(CodeInvalidVersion, map[string]string{"detail": "duplicate schema version"})
			it.Version = s.version
			issues = AppendIssues(issues, it)
		}
		if s.version < lowest {
			lowest = s.version
		}
		if s.version > highest {
			highest = s.version
		}
	}
	if !seeded {
		issues = AppendIssues(issues, newIssue(CodeSchemaMismatch, map[string]string{"detail": "no schemas registered"}))
		return nil, issues
	}

	var fixes []*DataFix
	for _, fix := range b.fixes {
		if fix == nil {
			continue
		}
		fixes = append(fixes, fix)
		if fix.version > highest {
			highest = fix.version
		}
	}
	sort.SliceStable(fixes, func(i, j int) bool { return fixes[i].version < fixes[j].version })

	f.baseline = lowest
	if b.opts.baseline != 0 {
		f.baseline = b.opts.baseline
	}
	f.target = highest
	if b.opts.target != 0 {
		f.target = b.opts.target
	}
	f.latest, _ = f.SchemaAt(f.target)

	names := map[string]int{}
	for seq, fix := range fixes {
		if prev, ok := names[fix.name]; ok {
			it := newIssue(CodeSchemaMismatch, map[string]string{"detail": fmt.Sprintf("duplicate fix name, first registered at version %d", prev)})
			it.Fix, it.Version = fix.name, fix.version
			issues = AppendIssues(issues, it)
			continue
		}
		names[fix.name] = fix.version

		// Every fix at a version reads the schema before it, whatever else
		// shares the version.
		in, okIn := f.SchemaAt(fix.version - 1)
		out, okOut := f.SchemaAt(fix.version)
		if !okIn || !okOut {
			it := newIssue(CodeSchemaMismatch, map[string]string{"detail": fmt.Sprintf("no schema at or below version %d", fix.version-1)})
			it.Fix, it.Version = fix.name, fix.version
			issues = AppendIssues(issues, it)
			continue
		}
		st := &step{fix: fix, seq: seq, in: in, out: out}
		for _, rule := range fix.rules {
			p, errs := compile(fix, rule, in, out, f.latest)
			if len(errs) > 0 {
				issues = AppendIssues(issues, errs...)
				continue
			}
			st.plans = append(st.plans, p)
		}
		f.steps.ReplaceOrInsert(st)
	}

	if f.target < f.baseline {
		it := newIssue(CodeInvalidVersion, map[string]string{"detail": fmt.Sprintf("target %d below baseline %d", f.target, f.baseline)})
		it.Version = f.target
		issues = AppendIssues(issues, it)
	}
	if _, ok := f.SchemaAt(f.baseline); !ok {
		it := newIssue(CodeInvalidVersion, map[string]string{"detail": "no schema covers the baseline"})
		it.Version = f.baseline
		issues = AppendIssues(issues, it)
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return f, nil
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() *Fixer {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// Target returns the version documents are migrated to.
func (f *Fixer) Target() int { return f.target }

// Baseline returns the version assumed for unstamped documents.
func (f *Fixer) Baseline() int { return f.baseline }

// VersionKey returns the map key holding the version stamp.
func (f *Fixer) VersionKey() string { return f.versionKey }

// SchemaAt returns the schema in effect at version: the registered schema
// with the greatest version not above it.
func (f *Fixer) SchemaAt(version int) (*Schema, bool) {
	var found *Schema
	f.schemas.DescendLessOrEqual(schemaKey(version), func(i btree.Item) bool {
		found = i.(schemaItem).s
		return false
	})
	return found, found != nil
}

// Schemas lists the registered schemas in version order.
func (f *Fixer) Schemas() []*Schema {
	out := make([]*Schema, 0, f.schemas.Len())
	f.schemas.Ascend(func(i btree.Item) bool {
		out = append(out, i.(schemaItem).s)
		return true
	})
	return out
}

// Fixes lists the registered fixes in application order.
func (f *Fixer) Fixes() []*DataFix {
	out := make([]*DataFix, 0, f.steps.Len())
	f.steps.Ascend(func(i btree.Item) bool {
		out = append(out, i.(*step).fix)
		return true
	})
	return out
}

// stepsBetween returns the steps whose version lies in (from, to].
func (f *Fixer) stepsBetween(from, to int) []*step {
	var out []*step
	if to <= from {
		return out
	}
	f.steps.AscendRange(stepKey(from+1), stepKey(to+1), func(i btree.Item) bool {
		out = append(out, i.(*step))
		return true
	})
	return out
}

// Update migrates doc, an instance of ref stamped from, to version to. The
// stamp itself is not touched. On failure the original doc is returned with
// the error.
func (f *Fixer) Update(ref TypeRef, doc dynamic.Value, from, to int) (dynamic.Value, error) {
	m := f.newMigration(ref, doc, from, to, false)
	return m.Run()
}

// Migrate reads the version stamp of doc, migrates it to the target version
// and re-stamps it. A missing or unreadable stamp means the baseline
// version. On failure the original doc is returned with the error.
func (f *Fixer) Migrate(ref TypeRef, doc dynamic.Value) (dynamic.Value, error) {
	return f.NewMigration(ref, doc).Run()
}

// NewMigration prepares the migration Migrate would run, exposing its state.
func (f *Fixer) NewMigration(ref TypeRef, doc dynamic.Value) *Migration {
	return f.newMigration(ref, doc, f.StampOf(doc), f.target, true)
}

// StampOf returns the version stamped on doc, or the baseline when there is
// no usable stamp.
func (f *Fixer) StampOf(doc dynamic.Value) int {
	v := int(doc.GetInt(f.versionKey, int64(f.baseline)))
	if v < f.baseline {
		return f.baseline
	}
	return v
}
