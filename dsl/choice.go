package dsl

import (
	"errors"
	"fmt"

	df "github.com/reoring/datafixer"
)

type choiceBuilder struct {
	key       string
	namespace string
	variants  map[string]df.Type
	errs      []error
}

// Choice creates a builder for a choice type discriminated by key.
func Choice(key string) *choiceBuilder {
	b := &choiceBuilder{key: key, variants: map[string]df.Type{}}
	if key == "" {
		b.errs = append(b.errs, errors.New("dsl: empty discriminator key"))
	}
	return b
}

// Namespace enables id normalization of tags: bare tags gain ns as prefix.
func (b *choiceBuilder) Namespace(ns string) *choiceBuilder {
	b.namespace = ns
	return b
}

// Variant registers the branch selected by tag.
func (b *choiceBuilder) Variant(tag string, t df.Type) *choiceBuilder {
	switch {
	case tag == "":
		b.errs = append(b.errs, errors.New("dsl: empty variant tag"))
	case t == nil:
		b.errs = append(b.errs, fmt.Errorf("dsl: variant %q has nil type", tag))
	default:
		if _, dup := b.variants[tag]; dup {
			b.errs = append(b.errs, fmt.Errorf("dsl: variant %q declared twice", tag))
			break
		}
		b.variants[tag] = t
	}
	return b
}

// Variants registers every tag with the same branch type.
func (b *choiceBuilder) Variants(t df.Type, tags ...string) *choiceBuilder {
	for _, tag := range tags {
		b.Variant(tag, t)
	}
	return b
}

// Build returns the choice type or the declaration errors.
func (b *choiceBuilder) Build() (*df.ChoiceType, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	c := df.ChoiceOf(b.key, b.namespace, b.variants)
	if got := len(c.Tags()); got != len(b.variants) {
		return nil, fmt.Errorf("dsl: %d variants collapse to %d tags after normalization", len(b.variants), got)
	}
	return c, nil
}

// MustBuild is Build that panics on error.
func (b *choiceBuilder) MustBuild() *df.ChoiceType {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
