// Package segfile implements the segmented translation format: one line
// per comment segment, "<index> <text>". It is both the export writer and
// the parser for the translated file when the segmented format was chosen.
package segfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/srctrans/comkit/comment"
	"github.com/srctrans/comkit/escape"
)

// DefaultName is the conventional export file name.
const DefaultName = "comments_to_translate_segmented.txt"

// ParseError reports a translated line that does not match the segmented
// grammar. Parsing aborts on the first such line; a partial mapping is
// never returned.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("segmented translation line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Write serializes units in file, then block, then segment order.
func Write(w io.Writer, units []comment.Unit, escapeTabs bool) error {
	bw := bufio.NewWriter(w)
	for _, u := range units {
		for _, blk := range u.Blocks {
			for _, sg := range blk.Segments {
				text := sg.Text
				if escapeTabs {
					text = escape.Escape(text)
				}
				fmt.Fprintf(bw, "%s %s\n", sg.Index, text)
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes the export to path.
func WriteFile(path string, units []comment.Unit, escapeTabs bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, units, escapeTabs)
}

// Parse reads a translated segmented file back into an index → text
// mapping. The index token is a structural marker: a non-blank line that
// does not start with a parseable index fails the whole parse.
func Parse(r io.Reader) (map[comment.Index]string, error) {
	m := make(map[comment.Index]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		token, text, _ := strings.Cut(line, " ")
		ix, err := comment.ParseIndex(token)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Text: line, Reason: "malformed index token"}
		}
		if _, dup := m[ix]; dup {
			return nil, &ParseError{Line: lineNum, Text: line, Reason: "duplicate index"}
		}
		m[ix] = text
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading segmented translation: %w", err)
	}
	return m, nil
}

// ParseFile parses the translated file at path.
func ParseFile(path string) (map[comment.Index]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
