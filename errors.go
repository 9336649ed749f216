package datafixer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/datafixer/i18n"
)

// Issue codes. Every fatal condition the engine reports carries one of these.
const (
	// CodeSchemaMismatch marks an authoring defect found while building a
	// Fixer: a fix declares a type that the registered schemas disagree with.
	CodeSchemaMismatch = "schema_mismatch"
	// CodeDiscriminatorUnknown marks a choice tag that the relevant schema
	// does not register.
	CodeDiscriminatorUnknown = "discriminator_unknown"
	// CodeRoundTripFailure marks a round-trip rule whose output could not be
	// re-read against the output type.
	CodeRoundTripFailure = "roundtrip_failure"
	// CodeShapeViolation marks a value rule whose output does not conform to
	// the type registered for its reference.
	CodeShapeViolation = "shape_violation"
	// CodeInvalidVersion marks an unusable version range or stamp.
	CodeInvalidVersion = "invalid_version"
	// CodeFixFailed wraps an error returned by a fix body.
	CodeFixFailed = "fix_failed"
)

// Issue describes a single fatal condition together with enough context to
// find the responsible fix.
type Issue struct {
	Code    string  // One of the codes listed above.
	Path    string  // JSON Pointer into the document (empty for build time issues).
	Fix     string  // Name of the fix being applied, when known.
	Ref     TypeRef // Type reference the fix targets, when known.
	Version int     // Version of the fix or schema involved.
	Tag     string  // Offending discriminator, for choice related codes.
	Message string
	Cause   error // Optional: underlying error.
}

func (it Issue) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s", it.Code)
	if it.Path != "" {
		fmt.Fprintf(b, " at %s", it.Path)
	}
	if it.Fix != "" {
		fmt.Fprintf(b, " in fix %s@%d", it.Fix, it.Version)
	} else if it.Version != 0 {
		fmt.Fprintf(b, " at version %d", it.Version)
	}
	if it.Ref != "" {
		fmt.Fprintf(b, " (%s)", it.Ref)
	}
	if it.Tag != "" {
		fmt.Fprintf(b, " tag %q", it.Tag)
	}
	if it.Message != "" {
		b.WriteString(": ")
		b.WriteString(it.Message)
	}
	if it.Cause != nil {
		b.WriteString(": ")
		b.WriteString(it.Cause.Error())
	}
	return b.String()
}

func (it Issue) Unwrap() error { return it.Cause }

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].Error())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes individual issues to errors.Is and errors.As.
func (iss Issues) Unwrap() []error {
	out := make([]error, len(iss))
	for i, it := range iss {
		out[i] = it
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally. A lone
// Issue is returned as a one element slice.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var it Issue
	if errors.As(err, &it) {
		return Issues{it}, true
	}
	return nil, false
}

// HasCode reports whether err carries an issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

func newIssue(code string, kv map[string]string) Issue {
	return Issue{Code: code, Message: i18n.T(code, kv)}
}
