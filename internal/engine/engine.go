// Package engine turns a stream of tokens into a dynamic.Value while
// enforcing the structural limits configured for untrusted input.
package engine

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/reoring/datafixer/dynamic"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
}

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	// DupError rejects a document that repeats a key within one object.
	DupError DuplicateStrictness = iota
	// DupLastWins keeps the last occurrence, in the position of the first.
	DupLastWins
)

// NumberMode selects how numeric tokens are materialized.
type NumberMode int

const (
	// NumberExact keeps integers as integers and everything else as float64.
	NumberExact NumberMode = iota
	// NumberFloat64 turns every number into a float64.
	NumberFloat64
)

// Options controls decoding.
type Options struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int // 0 means unlimited
	Numbers     NumberMode
}

// Issue codes reported by the decoder.
const (
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeMaxDepth     = "max_depth"
	CodeNumberRange  = "number_out_of_range"
)

// DecodeError locates a decoding failure with a JSON Pointer.
type DecodeError struct {
	Code    string
	Path    string
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s at %s: %s: %v", e.Code, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Decode reads exactly one value from src.
func Decode(src TokenSource, opt Options) (dynamic.Value, error) {
	d := decoder{src: src, opt: opt}
	tok, err := d.next("")
	if err != nil {
		return dynamic.Null(), err
	}
	return d.value(tok, "", 0)
}

type decoder struct {
	src TokenSource
	opt Options
}

func (d *decoder) next(path string) (Token, error) {
	tok, err := d.src.NextToken()
	if err == io.EOF {
		return Token{}, &DecodeError{Code: CodeParseError, Path: pointer(path), Message: "unexpected end of input", Cause: io.ErrUnexpectedEOF}
	}
	if err != nil {
		return Token{}, &DecodeError{Code: CodeParseError, Path: pointer(path), Message: "malformed input", Cause: err}
	}
	return tok, nil
}

func (d *decoder) value(tok Token, path string, depth int) (dynamic.Value, error) {
	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		if d.opt.MaxDepth > 0 && depth >= d.opt.MaxDepth {
			return dynamic.Null(), &DecodeError{Code: CodeMaxDepth, Path: pointer(path), Message: "max depth exceeded"}
		}
		if tok.Kind == KindBeginObject {
			return d.object(path, depth+1)
		}
		return d.array(path, depth+1)
	case KindString:
		return dynamic.String(tok.String), nil
	case KindNumber:
		return d.number(tok.Number, path)
	case KindBool:
		return dynamic.Bool(tok.Bool), nil
	case KindNull:
		return dynamic.Null(), nil
	}
	return dynamic.Null(), &DecodeError{Code: CodeParseError, Path: pointer(path), Message: "unexpected token"}
}

func (d *decoder) number(text, path string) (dynamic.Value, error) {
	if d.opt.Numbers == NumberExact {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return dynamic.Int(n), nil
		}
		// Integral text that does not fit an int64 would lose digits as a float.
		if errors.Is(err, strconv.ErrRange) {
			return dynamic.Null(), &DecodeError{Code: CodeNumberRange, Path: pointer(path), Message: "integer " + text + " does not fit in 64 bits", Cause: err}
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if errors.Is(err, strconv.ErrRange) {
		return dynamic.Null(), &DecodeError{Code: CodeNumberRange, Path: pointer(path), Message: "number " + text + " is out of float64 range", Cause: err}
	}
	if err != nil {
		return dynamic.Null(), &DecodeError{Code: CodeParseError, Path: pointer(path), Message: "invalid number", Cause: err}
	}
	return dynamic.Float(f), nil
}

func (d *decoder) object(path string, depth int) (dynamic.Value, error) {
	b := dynamic.NewBuilder()
	seen := map[string]struct{}{}
	for {
		tok, err := d.next(path)
		if err != nil {
			return dynamic.Null(), err
		}
		if tok.Kind == KindEndObject {
			return b.Value(), nil
		}
		if tok.Kind != KindKey {
			return dynamic.Null(), &DecodeError{Code: CodeParseError, Path: pointer(path), Message: "expected object key"}
		}
		child := path + "/" + escape(tok.String)
		if _, dup := seen[tok.String]; dup && d.opt.OnDuplicate == DupError {
			return dynamic.Null(), &DecodeError{Code: CodeDuplicateKey, Path: child, Message: "key '" + tok.String + "' duplicated"}
		}
		seen[tok.String] = struct{}{}
		vt, err := d.next(child)
		if err != nil {
			return dynamic.Null(), err
		}
		v, err := d.value(vt, child, depth)
		if err != nil {
			return dynamic.Null(), err
		}
		b.Put(tok.String, v)
	}
}

func (d *decoder) array(path string, depth int) (dynamic.Value, error) {
	var elems []dynamic.Value
	for {
		tok, err := d.next(path)
		if err != nil {
			return dynamic.Null(), err
		}
		if tok.Kind == KindEndArray {
			return dynamic.List(elems...), nil
		}
		v, err := d.value(tok, path+"/"+strconv.Itoa(len(elems)), depth)
		if err != nil {
			return dynamic.Null(), err
		}
		elems = append(elems, v)
	}
}

func pointer(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func escape(token string) string {
	out := make([]byte, 0, len(token))
	for i := 0; i < len(token); i++ {
		switch token[i] {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, token[i])
		}
	}
	return string(out)
}
