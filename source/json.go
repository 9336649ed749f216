package source

import (
	"bytes"
	"io"
	"math"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/datafixer/dynamic"
)

// EncodeJSON writes v as JSON followed by a newline. Non-finite floats are
// written as null.
func EncodeJSON(w io.Writer, v dynamic.Value, pretty bool) error {
	buf := &bytes.Buffer{}
	if err := appendJSON(buf, v); err != nil {
		return err
	}
	if pretty {
		out := &bytes.Buffer{}
		if err := j.Indent(out, buf.Bytes(), "", "  "); err != nil {
			return err
		}
		buf = out
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalJSON returns the compact JSON form of v.
func MarshalJSON(v dynamic.Value) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := appendJSON(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v dynamic.Value) error {
	switch v.Kind() {
	case dynamic.KindNull:
		buf.WriteString("null")
	case dynamic.KindBool:
		buf.WriteString(strconv.FormatBool(v.AsBool(false)))
	case dynamic.KindNumber:
		if !v.IsFloat() {
			buf.WriteString(strconv.FormatInt(v.AsInt(0), 10))
			break
		}
		f := v.AsFloat(0)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
			break
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case dynamic.KindString:
		b, err := j.Marshal(v.AsString(""))
		if err != nil {
			return err
		}
		buf.Write(b)
	case dynamic.KindList:
		buf.WriteByte('[')
		for i, e := range v.AsList() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case dynamic.KindMap:
		buf.WriteByte('{')
		first := true
		var err error
		v.Range(func(k string, e dynamic.Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			var kb []byte
			if kb, err = j.Marshal(k); err != nil {
				return false
			}
			buf.Write(kb)
			buf.WriteByte(':')
			err = appendJSON(buf, e)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}
