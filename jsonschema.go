package datafixer

import (
	"fmt"

	js "github.com/reoring/datafixer/jsonschema"
)

// JSONSchema projects the type bound to ref into a JSON Schema document.
// Every reference reachable from ref is emitted once under $defs. Records
// allow additional properties, since the remainder passes through.
func (s *Schema) JSONSchema(ref TypeRef) (*js.Schema, error) {
	if _, ok := s.Resolve(ref); !ok {
		it := newIssue(CodeSchemaMismatch, map[string]string{"detail": "reference unknown to " + s.String()})
		it.Ref, it.Version = ref, s.version
		return nil, it
	}
	defs := map[string]*js.Schema{}
	pending := []TypeRef{ref}
	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]
		if _, done := defs[string(cur)]; done {
			continue
		}
		t, _ := s.Resolve(cur)
		defs[string(cur)] = toJSONSchema(t, func(dep TypeRef) { pending = append(pending, dep) })
	}
	return &js.Schema{
		Schema:      js.Draft,
		Title:       string(ref),
		Description: fmt.Sprintf("%s at data version %d", ref, s.version),
		Ref:         js.DefRef(string(ref)),
		Defs:        defs,
	}, nil
}

func toJSONSchema(t Type, visit func(TypeRef)) *js.Schema {
	switch tt := t.(type) {
	case *scalarType:
		switch tt.kind {
		case KindBool:
			return &js.Schema{Type: "boolean"}
		case KindNumber:
			return &js.Schema{Type: "number"}
		case KindString:
			return &js.Schema{Type: "string"}
		}
		return &js.Schema{}
	case *RefType:
		visit(tt.Ref)
		return &js.Schema{Ref: js.DefRef(string(tt.Ref))}
	case *ListType:
		return &js.Schema{Type: "array", Items: toJSONSchema(tt.Elem, visit)}
	case *MapType:
		return &js.Schema{Type: "object", AdditionalProperties: toJSONSchema(tt.Elem, visit)}
	case *RecordType:
		out := &js.Schema{Type: "object", AdditionalProperties: true, Properties: map[string]*js.Schema{}}
		for _, f := range tt.fields {
			out.Properties[f.Name] = toJSONSchema(f.Type, visit)
		}
		return out
	case *ChoiceType:
		out := &js.Schema{OneOf: make([]*js.Schema, 0, len(tt.tags))}
		for _, tag := range tt.tags {
			variant := toJSONSchema(tt.branches[tag], visit)
			if variant.Type != "object" {
				variant = &js.Schema{Type: "object", AdditionalProperties: true, OneOf: []*js.Schema{variant}}
			}
			if variant.Properties == nil {
				variant.Properties = map[string]*js.Schema{}
			}
			variant.Properties[tt.key] = &js.Schema{Const: tag}
			variant.Required = append(variant.Required, tt.key)
			out.OneOf = append(out.OneOf, variant)
		}
		return out
	}
	return &js.Schema{}
}
