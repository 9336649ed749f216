// Package datafixer upgrades loosely typed documents written by older
// versions of a program to the shape the current version expects.
//
// Every document kind is named by a TypeRef. A Schema binds references to
// types at one data version and inherits everything it does not redefine
// from its parent. A DataFix moves documents from the schema before its
// version to the schema at it; it is made of rules that target every
// instance of a reference wherever it is nested, one branch of a choice
// type, or a field focused through optics.
//
// The Fixer is assembled once and is safe for concurrent use:
//
//	f, err := datafixer.NewBuilder(datafixer.WithBaselineVersion(99)).
//		AddSchema(v99, v704).
//		AddFix(shulkerColor, arrowPickup).
//		Build()
//	out, err := f.Migrate("CHUNK", doc)
//
// Build checks every fix against its schemas, so a broken registry fails
// at startup. Migrate never returns a partially migrated document: on error
// the input comes back as is, together with Issues carrying a stable code
// and a JSON Pointer to the offending value.
//
// Values are immutable trees from package dynamic; package source reads
// and writes them as JSON or YAML, and package fixes holds a complete
// catalog used by cmd/datafixer.
package datafixer
