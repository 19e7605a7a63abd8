package vcxproj

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// scanner walks a project document and tracks the PropertyGroup label of the
// element currently being visited.
type scanner struct {
	dec    *xml.Decoder
	base   int64
	stack  []frame
	tokPos int64
}

type frame struct {
	name  string
	label string
}

func newScanner(data []byte) *scanner {
	var base int64
	if bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
		base = int64(len(utf8BOM))
	}
	return &scanner{dec: xml.NewDecoder(bytes.NewReader(data)), base: base}
}

// next returns the next token. io.EOF marks the end of the document.
func (s *scanner) next() (xml.Token, error) {
	s.tokPos = s.dec.InputOffset()
	tok, err := s.dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case xml.StartElement:
		s.stack = append(s.stack, frame{name: t.Name.Local, label: attr(t, "Label")})
	case xml.EndElement:
		if len(s.stack) > 0 {
			s.stack = s.stack[:len(s.stack)-1]
		}
	}
	return tok, nil
}

// tokenStart is the absolute byte offset where the last returned token began.
func (s *scanner) tokenStart() int64 { return s.base + s.tokPos }

// offset is the absolute byte offset just past the last returned token.
func (s *scanner) offset() int64 { return s.base + s.dec.InputOffset() }

// inGroup reports whether the element just opened is a direct child of a
// PropertyGroup carrying the given label.
func (s *scanner) inGroup(label string) bool {
	n := len(s.stack)
	if n < 2 {
		return false
	}
	parent := s.stack[n-2]
	return parent.name == "PropertyGroup" && parent.label == label
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func isEOF(err error) bool { return errors.Is(err, io.EOF) }
