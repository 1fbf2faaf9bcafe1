// Package bulkfile implements the bulk translation format: comment bodies
// written out in order, each block introduced by a delimiter line unique to
// that block. The format reads most naturally for human translators, at
// the cost of the strictest structural rules: delimiter lines must survive
// translation byte for byte.
package bulkfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/srctrans/comkit/comment"
	"github.com/srctrans/comkit/escape"
)

// DefaultName is the conventional export file name.
const DefaultName = "comments_to_translate_bulk.txt"

// delimiterPattern matches any line shaped like a block delimiter. Segment
// text matching it would make the export ambiguous, translated or not, so
// the writer rejects such text outright.
var delimiterPattern = regexp.MustCompile(`^<\|\|.*\|\|>$`)

// Delimiter returns the delimiter line introducing one comment block.
func Delimiter(file string, block int) string {
	return fmt.Sprintf("<||%s_%03d_block_delimiter||>", file, block)
}

// DelimiterCollisionError reports segment text that reads as a delimiter
// line. The export is aborted rather than written corrupt.
type DelimiterCollisionError struct {
	Index comment.Index
	Text  string
}

func (e *DelimiterCollisionError) Error() string {
	return fmt.Sprintf("bulk export aborted: segment %s reads as a delimiter line: %q", e.Index, e.Text)
}

// ParseError reports a translated bulk file that does not match the bulk
// grammar. Parsing aborts; a partial mapping is never returned.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bulk translation line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Write serializes the blocks. All segment text is validated against the
// delimiter grammar before a single byte is written.
func Write(w io.Writer, units []comment.Unit, escapeTabs bool) error {
	type blockOut struct {
		delimiter string
		lines     []string
	}
	var out []blockOut

	for _, u := range units {
		for _, blk := range u.Blocks {
			bo := blockOut{delimiter: Delimiter(u.Name, blk.ID)}
			for _, sg := range blk.Segments {
				text := sg.Text
				if escapeTabs {
					text = escape.Escape(text)
				}
				if delimiterPattern.MatchString(text) {
					return &DelimiterCollisionError{Index: sg.Index, Text: text}
				}
				bo.lines = append(bo.lines, text)
			}
			out = append(out, bo)
		}
	}

	bw := bufio.NewWriter(w)
	for _, bo := range out {
		fmt.Fprintln(bw, bo.delimiter)
		for _, ln := range bo.lines {
			fmt.Fprintln(bw, ln)
		}
	}
	return bw.Flush()
}

// WriteFile writes the export to path. On a delimiter collision no file is
// created.
func WriteFile(path string, units []comment.Unit, escapeTabs bool) error {
	var buf bytes.Buffer
	if err := Write(&buf, units, escapeTabs); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Parse reads a translated bulk file back into an index → text mapping.
// Delimiter lines are structural: they must appear in extraction order and
// match the recorded blocks exactly. Each block must carry one line per
// segment; trailing blank lines a translator added between blocks are
// tolerated.
func Parse(r io.Reader, blocks []comment.BlockRef) (map[comment.Index]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	m := make(map[comment.Index]string)
	blockIdx := -1
	blockLine := 0
	var cur []string

	flush := func(lineNum int) error {
		if blockIdx < 0 {
			return nil
		}
		ref := blocks[blockIdx]
		for len(cur) > len(ref.Indexes) && strings.TrimSpace(cur[len(cur)-1]) == "" {
			cur = cur[:len(cur)-1]
		}
		if len(cur) != len(ref.Indexes) {
			return &ParseError{
				Line: lineNum,
				Reason: fmt.Sprintf("block %s:%d has %d segment(s) but the translation carries %d line(s)",
					ref.File, ref.Block, len(ref.Indexes), len(cur)),
			}
		}
		for k, ix := range ref.Indexes {
			m[ix] = cur[k]
		}
		cur = nil
		return nil
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if delimiterPattern.MatchString(line) {
			if err := flush(lineNum); err != nil {
				return nil, err
			}
			blockIdx++
			blockLine = lineNum
			if blockIdx >= len(blocks) {
				return nil, &ParseError{Line: lineNum, Text: line, Reason: "more delimiter lines than extracted blocks"}
			}
			want := Delimiter(blocks[blockIdx].File, blocks[blockIdx].Block)
			if line != want {
				return nil, &ParseError{
					Line:   lineNum,
					Text:   line,
					Reason: fmt.Sprintf("delimiter mismatch, expected %q", want),
				}
			}
			continue
		}

		if blockIdx < 0 {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, &ParseError{Line: lineNum, Text: line, Reason: "text before the first delimiter"}
		}
		cur = append(cur, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bulk translation: %w", err)
	}

	if err := flush(lineNum); err != nil {
		return nil, err
	}
	if blockIdx+1 != len(blocks) {
		return nil, &ParseError{
			Line:   blockLine,
			Reason: fmt.Sprintf("file has %d block(s) but the extraction produced %d", blockIdx+1, len(blocks)),
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
