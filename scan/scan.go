// Package scan walks raw source text, emits ordered comment spans, and
// splits each span into its translatable segments.
//
// The scanner knows nothing about the host language's grammar beyond the
// comment markers themselves. In the default mode a comment-start sequence
// inside a string literal is misidentified as a real comment; this is a
// documented limitation, not a bug. Enabling Options.LiteralAware adds a
// minimal code/string/char state machine that avoids most such false
// positives on literal-heavy code.
//
// Block comments are matched non-greedily: the first close marker
// terminates the block. Nested block comments are not supported.
package scan

import (
	"fmt"
	"strings"

	"github.com/srctrans/comkit/comment"
)

// Options controls marker recognition and segment normalization.
type Options struct {
	// LineMarker starts a single-line comment (default "//").
	LineMarker string
	// BlockOpen and BlockClose delimit block comments (default "/*", "*/").
	BlockOpen  string
	BlockClose string
	// LiteralAware enables the string/char literal state machine so that
	// comment markers inside quoted literals are skipped.
	LiteralAware bool
	// Decoration is the set of runes treated as block-comment line
	// decoration (default "*"). A leading run of these runes, plus at most
	// one following space, is stripped from block body lines.
	Decoration string
}

func (o Options) withDefaults() Options {
	if o.LineMarker == "" {
		o.LineMarker = "//"
	}
	if o.BlockOpen == "" {
		o.BlockOpen = "/*"
	}
	if o.BlockClose == "" {
		o.BlockClose = "*/"
	}
	if o.Decoration == "" {
		o.Decoration = "*"
	}
	return o
}

// Span is one comment found in the source text.
type Span struct {
	Type comment.Type
	// Start is the byte offset of the first marker byte; End is one past
	// the last comment byte. src[Start:End] == Raw.
	Start int
	End   int
	// Line is the 1-based line number of Start.
	Line int
	// Raw is the comment text including its markers.
	Raw string
}

// UnterminatedBlockError reports a block comment opened but never closed
// before end of file. The file is skipped, not partially processed.
type UnterminatedBlockError struct {
	Line int
}

func (e *UnterminatedBlockError) Error() string {
	return fmt.Sprintf("line %d: block comment is never closed", e.Line)
}

// Scan returns the ordered comment spans of src. The text outside the
// returned spans is untouched source; callers slice around Start/End to
// rebuild the file.
func Scan(src string, opts Options) ([]Span, error) {
	o := opts.withDefaults()
	var spans []Span
	line := 1

	for i := 0; i < len(src); {
		c := src[i]

		if c == '\n' {
			line++
			i++
			continue
		}

		if o.LiteralAware && (c == '"' || c == '\'') {
			i = skipLiteral(src, i, c)
			continue
		}

		if strings.HasPrefix(src[i:], o.LineMarker) {
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src)
			} else {
				end += i
			}
			spans = append(spans, Span{
				Type:  comment.TypeSingle,
				Start: i,
				End:   end,
				Line:  line,
				Raw:   src[i:end],
			})
			i = end
			continue
		}

		if strings.HasPrefix(src[i:], o.BlockOpen) {
			rel := strings.Index(src[i+len(o.BlockOpen):], o.BlockClose)
			if rel < 0 {
				return nil, &UnterminatedBlockError{Line: line}
			}
			end := i + len(o.BlockOpen) + rel + len(o.BlockClose)
			raw := src[i:end]
			spans = append(spans, Span{
				Type:  comment.TypeBlock,
				Start: i,
				End:   end,
				Line:  line,
				Raw:   raw,
			})
			line += strings.Count(raw, "\n")
			i = end
			continue
		}

		i++
	}

	return spans, nil
}

// skipLiteral advances past a quoted string or char literal, honoring
// backslash escapes. An unterminated literal ends at the newline, so a
// stray quote cannot swallow the rest of the file. Raw multi-line strings
// are not recognized; that is a known limitation.
func skipLiteral(src string, start int, quote byte) int {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			return i
		}
		i++
	}
	return i
}
