package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/reoring/datafixer/dynamic"
	eng "github.com/reoring/datafixer/internal/engine"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// DecodeYAML reads the first document of a YAML stream. An empty stream is
// Null. Mapping order is preserved; aliases are expanded.
func DecodeYAML(r io.Reader, opt Options) (dynamic.Value, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return dynamic.Null(), nil
		}
		return dynamic.Null(), &eng.DecodeError{Code: eng.CodeParseError, Path: "/", Message: "malformed YAML", Cause: err}
	}
	return yamlReader{opt: opt}.node(&root, "", 0)
}

type yamlReader struct{ opt Options }

func (y yamlReader) node(n *yaml.Node, path string, depth int) (dynamic.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return dynamic.Null(), nil
		}
		return y.node(n.Content[0], path, depth)
	case yaml.AliasNode:
		return y.node(n.Alias, path, depth)
	case yaml.MappingNode, yaml.SequenceNode:
		if y.opt.MaxDepth > 0 && depth >= y.opt.MaxDepth {
			return dynamic.Null(), &eng.DecodeError{Code: eng.CodeMaxDepth, Path: pointerOf(path), Message: "max depth exceeded"}
		}
		if n.Kind == yaml.SequenceNode {
			elems := make([]dynamic.Value, 0, len(n.Content))
			for i, c := range n.Content {
				v, err := y.node(c, path+"/"+strconv.Itoa(i), depth+1)
				if err != nil {
					return dynamic.Null(), err
				}
				elems = append(elems, v)
			}
			return dynamic.List(elems...), nil
		}
		b := dynamic.NewBuilder()
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			key := k.Value
			if pos, dup := first[key]; dup && !y.opt.AllowDuplicates {
				return dynamic.Null(), &DuplicateKeyError{Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			first[key] = [2]int{k.Line, k.Column}
			val, err := y.node(v, path+"/"+key, depth+1)
			if err != nil {
				return dynamic.Null(), err
			}
			b.Put(key, val)
		}
		return b.Value(), nil
	case yaml.ScalarNode:
		return y.scalar(n), nil
	}
	return dynamic.Null(), nil
}

func (y yamlReader) scalar(n *yaml.Node) dynamic.Value {
	switch n.ShortTag() {
	case "!!null":
		return dynamic.Null()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return dynamic.Bool(b)
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			if y.opt.Float64 {
				return dynamic.Float(float64(i))
			}
			return dynamic.Int(i)
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return dynamic.Float(f)
		}
	}
	return dynamic.String(n.Value)
}

func pointerOf(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// EncodeYAML writes v as a YAML document.
func EncodeYAML(w io.Writer, v dynamic.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(v)); err != nil {
		return err
	}
	return enc.Close()
}

func toNode(v dynamic.Value) *yaml.Node {
	switch v.Kind() {
	case dynamic.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.AsBool(false))}
	case dynamic.KindNumber:
		if !v.IsFloat() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.AsInt(0), 10)}
		}
		f := v.AsFloat(0)
		switch {
		case math.IsNaN(f):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".nan"}
		case math.IsInf(f, 1):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".inf"}
		case math.IsInf(f, -1):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: "-.inf"}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case dynamic.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.AsString("")}
	case dynamic.KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.AsList() {
			n.Content = append(n.Content, toNode(e))
		}
		return n
	case dynamic.KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.Range(func(k string, e dynamic.Value) bool {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, toNode(e))
			return true
		})
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
