package packager

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
)

// Header symbols consulted for the archive name.
const (
	SymbolNameLong  = "PLUGIN_NAME_LONG"
	SymbolNameShort = "PLUGIN_NAME_SHORT"
	SymbolVersion   = "PLUGIN_VERSION_STRING"
)

// defineRe matches `#define SYMBOL "quoted value"` or `#define SYMBOL bare.value`.
var defineRe = regexp.MustCompile(`^\s*#define\s+(\w+)\s+(?:"([^"]*)"|([\w.]+))\s*$`)

// ParseDefines collects the simple object-like macro definitions in r.
// Later definitions of a symbol replace earlier ones.
func ParseDefines(r io.Reader) (map[string]string, error) {
	defs := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := defineRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		if m[2] != "" || m[3] == "" {
			defs[m[1]] = m[2]
		} else {
			defs[m[1]] = m[3]
		}
	}
	return defs, sc.Err()
}

// ArchiveName derives "<name> <version>" from header definitions. The long
// name is preferred over the short one.
func ArchiveName(defs map[string]string) (string, error) {
	name := defs[SymbolNameLong]
	if name == "" {
		name = defs[SymbolNameShort]
	}
	if name == "" {
		return "", fmt.Errorf("neither %s nor %s is defined", SymbolNameLong, SymbolNameShort)
	}
	version := defs[SymbolVersion]
	if version == "" {
		return "", fmt.Errorf("%s is not defined", SymbolVersion)
	}
	return name + " " + version, nil
}

// ReadArchiveName parses the header at path and derives the archive name.
func ReadArchiveName(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	defs, err := ParseDefines(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return ArchiveName(defs)
}
