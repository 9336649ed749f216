package datafixer

import "strings"

// DefaultNamespace is the namespace assumed for bare identifiers.
const DefaultNamespace = "minecraft"

// NormalizeID qualifies a bare identifier with ns. Identifiers that already
// carry a namespace are returned as is, and so are identifiers that are not
// valid resource locations (legacy ids such as "Chest"), which are left for
// fixes to rewrite explicitly.
func NormalizeID(ns, id string) string {
	if ns == "" || id == "" {
		return id
	}
	i := strings.IndexByte(id, ':')
	switch {
	case i < 0:
		if !validPath(id) {
			return id
		}
		return ns + ":" + id
	case i == 0:
		if !validPath(id[1:]) {
			return id
		}
		return ns + id
	default:
		return id
	}
}

// SplitID splits a namespaced id into its namespace and path. Bare ids
// report an empty namespace.
func SplitID(id string) (ns, path string) {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}

func validPath(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.', c == '/':
		default:
			return false
		}
	}
	return true
}
