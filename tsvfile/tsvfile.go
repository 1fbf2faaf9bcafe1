// Package tsvfile implements the tabular translation format: one line per
// comment block, prefixed with the zero-padded 4-digit source line number,
// segment texts joined by the literal two-character sequence `\t`.
//
// The field boundary is the marker text, not an actual tab, so spreadsheet
// tools never collapse it. Known limitation: when tab escaping is enabled,
// a segment containing a real tab renders the same two characters as the
// field boundary; such a line then fails structural validation on parse
// instead of silently shifting fields.
//
// The line number prefix is fixed at 4 digits. A block starting at source
// line 10000 or later widens the prefix, and Parse then rejects the line:
// the format does not carry comments that deep into a file.
package tsvfile

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
const DefaultName = "comments_to_translate_tsv.txt"

// FieldSep is the literal two-character field boundary between segments.
const FieldSep = `\t`

// ParseError reports a translated line that does not match the tabular
// grammar. Parsing aborts; a partial mapping is never returned.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tabular translation line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Write serializes one line per comment block, in export order. Every
// segment of a block is joined in — there is no truncation however many
// segments the block has.
func Write(w io.Writer, units []comment.Unit, escapeTabs bool) error {
	bw := bufio.NewWriter(w)
	for _, u := range units {
		for _, blk := range u.Blocks {
			texts := make([]string, 0, len(blk.Segments))
			for _, sg := range blk.Segments {
				text := sg.Text
				if escapeTabs {
					text = escape.Escape(text)
				}
				texts = append(texts, text)
			}
			fmt.Fprintf(bw, "%04d %s\n", blk.Line, strings.Join(texts, FieldSep))
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

// Parse reads a translated tabular file back into an index → text mapping.
// Lines are matched to blocks positionally, so the translated file must
// have exactly one line per extracted block, and each line must carry
// exactly as many fields as the block has segments. The 4-digit prefix and
// the field boundary markers are structural and must survive translation.
func Parse(r io.Reader, blocks []comment.BlockRef) (map[comment.Index]string, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("reading tabular translation: %w", err)
	}

	if len(lines) != len(blocks) {
		return nil, &ParseError{
			Line:   len(lines),
			Reason: fmt.Sprintf("file has %d line(s) but the extraction produced %d comment block(s)", len(lines), len(blocks)),
		}
	}

	m := make(map[comment.Index]string)
	for i, ref := range blocks {
		line := lines[i]
		if len(line) < 5 || line[4] != ' ' || !allDigits(line[:4]) {
			return nil, &ParseError{Line: i + 1, Text: line, Reason: "missing 4-digit line number prefix"}
		}
		fields := strings.Split(line[5:], FieldSep)
		if len(fields) != len(ref.Indexes) {
			return nil, &ParseError{
				Line: i + 1,
				Text: line,
				Reason: fmt.Sprintf("block %s:%d has %d segment(s) but the line carries %d field(s)",
					ref.File, ref.Block, len(ref.Indexes), len(fields)),
			}
		}
		for k, ix := range ref.Indexes {
			m[ix] = fields[k]
		}
	}
	return m, nil
}

// ParseFile parses the translated file at path.
func ParseFile(path string, blocks []comment.BlockRef) (map[comment.Index]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, blocks)
}

// readLines collects the file's lines, dropping trailing blank lines only.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
