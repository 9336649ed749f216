// Package jsonschema holds the JSON Schema document model that registered
// types are projected to for documentation and external tooling.
package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Schema      string `json:"$schema,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Const       any    `json:"const,omitempty"`
	Ref         string `json:"$ref,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`

	// Definitions shared through $ref.
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// Draft is the dialect URI stamped on exported root documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// DefRef returns the $ref pointer for a named definition.
func DefRef(name string) string { return "#/$defs/" + name }
