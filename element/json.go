package element

import (
	"bytes"
	"encoding/json"
	"regexp"
)

var integerRegex = regexp.MustCompile(`^-?(0|[1-9]\d*)$`)

// MarshalJSON renders the node as FHIR JSON: resourceType first for
// resources, attributes as plain members, arrays for repeatable fields and
// "_name" siblings carrying primitive ids and extensions.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	n.writeJSON(&buf)
	return buf.Bytes(), nil
}

// MarshalJSON renders the primitive's value; id and extensions are only
// representable on the owning object.
func (p *Primitive) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if v, ok := p.Value(); ok {
		writePrimitive(&buf, p.typ, v)
	} else {
		buf.WriteString("null")
	}
	return buf.Bytes(), nil
}

type objectWriter struct {
	buf   *bytes.Buffer
	first bool
}

func (w *objectWriter) key(k string) {
	if !w.first {
		w.buf.WriteByte(',')
	}
	w.first = false
	writeString(w.buf, k)
	w.buf.WriteByte(':')
}

func (n *Node) writeJSON(buf *bytes.Buffer) {
	buf.WriteByte('{')
	w := &objectWriter{buf: buf, first: true}
	if n.resource {
		w.key("resourceType")
		writeString(buf, n.typ)
	}
	for _, a := range n.attrs {
		w.key(a.Name)
		writeString(buf, a.Value)
	}
	for i := range n.fields {
		f := &n.fields[i]
		if len(f.Values) == 0 {
			continue
		}
		if _, ok := f.Values[0].(*Primitive); ok {
			writePrimitiveField(w, f)
			continue
		}
		w.key(f.Name)
		if f.Repeatable {
			buf.WriteByte('[')
			for j, v := range f.Values {
				if j > 0 {
					buf.WriteByte(',')
				}
				writeValue(buf, v)
			}
			buf.WriteByte(']')
		} else {
			writeValue(buf, f.Values[0])
		}
	}
	buf.WriteByte('}')
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch x := v.(type) {
	case *Node:
		x.writeJSON(buf)
	case *Primitive:
		if s, ok := x.Value(); ok {
			writePrimitive(buf, x.typ, s)
		} else {
			buf.WriteString("null")
		}
	default:
		buf.WriteString("null")
	}
}

func writePrimitiveField(w *objectWriter, f *Field) {
	buf := w.buf
	prims := make([]*Primitive, 0, len(f.Values))
	anyValue, anyAux := false, false
	for _, v := range f.Values {
		p, _ := v.(*Primitive)
		if p == nil {
			continue
		}
		prims = append(prims, p)
		if p.hasValue {
			anyValue = true
		}
		if p.id != "" || len(p.extensions) > 0 {
			anyAux = true
		}
	}

	if anyValue {
		w.key(f.Name)
		if f.Repeatable {
			buf.WriteByte('[')
			for j, p := range prims {
				if j > 0 {
					buf.WriteByte(',')
				}
				writeValue(buf, p)
			}
			buf.WriteByte(']')
		} else {
			writeValue(buf, prims[0])
		}
	}
	if !anyAux {
		return
	}
	w.key("_" + f.Name)
	if f.Repeatable {
		buf.WriteByte('[')
		for j, p := range prims {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeAux(buf, p)
		}
		buf.WriteByte(']')
	} else {
		writeAux(buf, prims[0])
	}
}

func writeAux(buf *bytes.Buffer, p *Primitive) {
	if p.id == "" && len(p.extensions) == 0 {
		buf.WriteString("null")
		return
	}
	buf.WriteByte('{')
	w := &objectWriter{buf: buf, first: true}
	if p.id != "" {
		w.key("id")
		writeString(buf, p.id)
	}
	if len(p.extensions) > 0 {
		w.key("extension")
		buf.WriteByte('[')
		for i, e := range p.extensions {
			if i > 0 {
				buf.WriteByte(',')
			}
			e.writeJSON(buf)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
}

// writePrimitive writes booleans and numbers as JSON literals when the
// lexical form allows it, and everything else as a string.
func writePrimitive(buf *bytes.Buffer, typeCode, value string) {
	switch typeCode {
	case "boolean":
		if value == "true" || value == "false" {
			buf.WriteString(value)
			return
		}
	case "integer", "unsignedInt", "positiveInt":
		if integerRegex.MatchString(value) {
			buf.WriteString(value)
			return
		}
	case "decimal":
		if decimalRegex.MatchString(value) {
			buf.WriteString(value)
			return
		}
	}
	writeString(buf, value)
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
}
