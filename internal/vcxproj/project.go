package vcxproj

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
)

// Well-known labels and file names.
const (
	LabelGlobals       = "Globals"
	LabelConfiguration = "Configuration"
	Extension          = ".vcxproj"
	StaticLibrary      = "StaticLibrary"
)

// Globals holds the identifying properties of a project.
type Globals struct {
	RootNamespace string
	ProjectGuid   string
}

// Find returns the project file to build from dir. Candidates are ordered
// lexicographically and the first one wins; the remaining candidates are
// returned so callers can report the ambiguity.
func Find(dir string) (string, []string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return "", nil, errors.WrapError(err, errors.CategoryFileSystem, "scan for project file").
			Fatal().
			WithContext("dir", dir).
			Build()
	}
	files := matches[:0]
	for _, m := range matches {
		if info, statErr := os.Stat(m); statErr == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return "", nil, errors.NotFoundError("no project file found").
			WithContext("dir", dir).
			WithContext("pattern", "*"+Extension).
			Build()
	}
	sort.Strings(files)
	return files[0], files[1:], nil
}

// ReadGlobals extracts RootNamespace and ProjectGuid from the PropertyGroup
// labelled "Globals". Missing values are returned empty.
func ReadGlobals(data []byte) (Globals, error) {
	var g Globals
	s := newScanner(data)
	for {
		tok, err := s.next()
		if isEOF(err) {
			return g, nil
		}
		if err != nil {
			return g, fmt.Errorf("parse project: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !s.inGroup(LabelGlobals) {
			continue
		}
		var target *string
		switch se.Name.Local {
		case "RootNamespace":
			target = &g.RootNamespace
		case "ProjectGuid":
			target = &g.ProjectGuid
		default:
			continue
		}
		text, err := s.text(se.Name.Local)
		if err != nil {
			return g, fmt.Errorf("parse project: %w", err)
		}
		if *target == "" {
			*target = strings.TrimSpace(text)
		}
		if g.RootNamespace != "" && g.ProjectGuid != "" {
			return g, nil
		}
	}
}

// text collects character data up to the end tag closing the element that was just opened.
func (s *scanner) text(name string) (string, error) {
	var b strings.Builder
	depth := len(s.stack)
	for {
		tok, err := s.next()
		if err != nil {
			if isEOF(err) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(s.stack) == depth {
				b.Write(t)
			}
		case xml.EndElement:
			if len(s.stack) == depth-1 && t.Name.Local == name {
				return b.String(), nil
			}
		}
	}
}

// SetConfigurationType rewrites the ConfigurationType value of every
// PropertyGroup labelled "Configuration" to value. It returns the patched
// document and the number of elements changed; bytes outside those elements'
// text are preserved exactly.
func SetConfigurationType(data []byte, value string) ([]byte, int, error) {
	type span struct{ start, end int64 }
	var spans []span
	var replacements []string

	s := newScanner(data)
	for {
		tok, err := s.next()
		if isEOF(err) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("parse project: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "ConfigurationType" || !s.inGroup(LabelConfiguration) {
			continue
		}
		tagStart, contentStart := s.tokenStart(), s.offset()

		if selfClosing(data, contentStart) {
			// <ConfigurationType/> yields a synthetic end element; rewrite the whole tag.
			if _, err := s.next(); err != nil {
				return nil, 0, fmt.Errorf("parse project: %w", err)
			}
			spans = append(spans, span{tagStart, contentStart})
			replacements = append(replacements, "<"+se.Name.Local+">"+value+"</"+se.Name.Local+">")
			continue
		}

		depth := len(s.stack)
		for {
			tok, err := s.next()
			if err != nil {
				if isEOF(err) {
					err = io.ErrUnexpectedEOF
				}
				return nil, 0, fmt.Errorf("parse project: %w", err)
			}
			if ee, ok := tok.(xml.EndElement); ok && len(s.stack) == depth-1 && ee.Name.Local == se.Name.Local {
				spans = append(spans, span{contentStart, s.tokenStart()})
				replacements = append(replacements, value)
				break
			}
		}
	}

	if len(spans) == 0 {
		return data, 0, nil
	}

	var out strings.Builder
	out.Grow(len(data))
	var last int64
	for i, sp := range spans {
		out.Write(data[last:sp.start])
		out.WriteString(replacements[i])
		last = sp.end
	}
	out.Write(data[last:])
	return []byte(out.String()), len(spans), nil
}

func selfClosing(data []byte, end int64) bool {
	return end >= 2 && data[end-2] == '/' && data[end-1] == '>'
}
