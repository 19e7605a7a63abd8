package patch

import (
	"bytes"
	"os"
)

// AddIncludeLine inserts line as the second line of the file at path unless a
// line equal to it (ignoring line endings) is already present. It reports
// whether the file changed. The inserted line uses the file's dominant line ending.
func AddIncludeLine(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, changed := insertLine(data, []byte(line))
	if !changed {
		return false, nil
	}
	return true, writeFilePreserveMode(path, out)
}

func insertLine(data, line []byte) ([]byte, bool) {
	line = bytes.TrimRight(line, "\r\n")
	lines := bytes.SplitAfter(data, []byte("\n"))
	for _, l := range lines {
		if bytes.Equal(bytes.TrimRight(l, "\r\n"), line) {
			return data, false
		}
	}

	eol := lineEnding(data)
	if len(data) == 0 {
		return append(append([]byte{}, line...), eol...), true
	}

	first := lines[0]
	rest := data[len(first):]
	var out bytes.Buffer
	out.Grow(len(data) + len(line) + len(eol) + len(eol))
	out.Write(first)
	if !bytes.HasSuffix(first, []byte("\n")) {
		// single line without terminator
		out.Write(eol)
	}
	out.Write(line)
	out.Write(eol)
	out.Write(rest)
	return out.Bytes(), true
}

// lineEnding returns "\r\n" when most line breaks in data are CRLF, otherwise "\n".
func lineEnding(data []byte) []byte {
	crlf := bytes.Count(data, []byte("\r\n"))
	lf := bytes.Count(data, []byte("\n"))
	if crlf > 0 && crlf*2 >= lf {
		return []byte("\r\n")
	}
	return []byte("\n")
}
