package datafixer

import (
	"strconv"
	"strings"
)

// pathRef is a persistent JSON Pointer under construction. Traversal extends
// it per step without copying; the string form is rendered only when an
// issue is reported.
type pathRef struct {
	parent *pathRef
	token  string
}

var rootPath *pathRef

func (p *pathRef) Field(name string) *pathRef {
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return &pathRef{parent: p, token: esc}
}

func (p *pathRef) Index(i int) *pathRef {
	return &pathRef{parent: p, token: strconv.Itoa(i)}
}

func (p *pathRef) Pointer() string {
	if p == nil {
		return "/"
	}
	var parts []string
	for cur := p; cur != nil; cur = cur.parent {
		parts = append(parts, cur.token)
	}
	b := &strings.Builder{}
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}

// issue creates an Issue located at p.
func (p *pathRef) issue(code string, detail string) Issue {
	var kv map[string]string
	if detail != "" {
		kv = map[string]string{"detail": detail}
	}
	it := newIssue(code, kv)
	it.Path = p.Pointer()
	return it
}
