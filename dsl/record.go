package dsl

import (
	"errors"
	"fmt"

	df "github.com/reoring/datafixer"
)

type recordBuilder struct {
	base   *df.RecordType
	fields []df.Field
	drop   []string
	errs   []error
}

// Record creates a new record builder.
func Record() *recordBuilder { return &recordBuilder{} }

// Extend starts a record from an existing one, typically the definition of
// the same reference in an older schema.
func Extend(base *df.RecordType) *recordBuilder { return &recordBuilder{base: base} }

// Field declares a field. Declaring a name twice replaces the earlier type.
func (b *recordBuilder) Field(name string, t df.Type) *recordBuilder {
	switch {
	case name == "":
		b.errs = append(b.errs, errors.New("dsl: empty field name"))
	case t == nil:
		b.errs = append(b.errs, fmt.Errorf("dsl: field %q has nil type", name))
	default:
		b.fields = append(b.fields, df.Field{Name: name, Type: t})
	}
	return b
}

// Drop removes fields inherited through Extend. Dropped keys fall into the
// remainder and keep passing through.
func (b *recordBuilder) Drop(names ...string) *recordBuilder {
	b.drop = append(b.drop, names...)
	return b
}

// Build returns the record type or the first declaration error.
func (b *recordBuilder) Build() (*df.RecordType, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if b.base == nil {
		return df.RecordOf(b.fields...).Without(b.drop...), nil
	}
	return b.base.Without(b.drop...).With(b.fields...), nil
}

// MustBuild is Build that panics on error.
func (b *recordBuilder) MustBuild() *df.RecordType {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
