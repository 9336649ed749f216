// Package dsl provides a fluent builder for the types that schemas bind to
// type references.
//
// Overview
//   - Record(): declare a record with Field(name, type); undeclared keys pass through.
//   - Choice(key): declare a polymorphic record with Namespace(ns) and Variant(tag, type).
//   - List(elem)/Map(elem): homogeneous containers.
//   - Ref(ref): point at whatever the schema in use binds ref to.
//   - String()/Number()/Bool()/Any(): leaves.
//
// Example
//
//	import (
//	    df "github.com/reoring/datafixer"
//	    g "github.com/reoring/datafixer/dsl"
//	)
//
//	itemStack := g.Record().
//	    Field("id", g.String()).
//	    Field("Count", g.Number()).
//	    Field("tag", g.Record().Field("BlockEntityTag", g.Ref("BLOCK_ENTITY")).MustBuild()).
//	    MustBuild()
//
//	entity := g.Choice("id").
//	    Namespace(df.DefaultNamespace).
//	    Variant("arrow", g.Record().Field("pickup", g.Number()).MustBuild()).
//	    Variant("shulker", g.Record().Field("Color", g.Number()).MustBuild()).
//	    MustBuild()
//
//	s := df.NewSchema(99, nil).
//	    Define("ITEM_STACK", itemStack).
//	    Define("ENTITY", entity).
//	    MustBuild()
//
// Choice branches are records describing the variant-specific fields. The
// discriminator itself is implied and need not be declared.
package dsl
