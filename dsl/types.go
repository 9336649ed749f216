package dsl

import (
	df "github.com/reoring/datafixer"
)

// String returns the string leaf type.
func String() df.Type { return df.StringType() }

// Number returns the numeric leaf type.
func Number() df.Type { return df.NumberType() }

// Bool returns the boolean leaf type.
func Bool() df.Type { return df.BoolType() }

// Any returns the passthrough type. Values under it are never inspected.
func Any() df.Type { return df.AnyType() }

// List returns a list of elem.
func List(elem df.Type) df.Type { return df.ListOf(elem) }

// Map returns a map with arbitrary keys and elem values.
func Map(elem df.Type) df.Type { return df.MapOf(elem) }

// Ref returns a reference to ref, resolved against the schema in use.
func Ref(ref df.TypeRef) df.Type { return df.RefTo(ref) }

// ListOfRef is shorthand for List(Ref(ref)).
func ListOfRef(ref df.TypeRef) df.Type { return df.ListOf(df.RefTo(ref)) }
