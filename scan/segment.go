package scan

import (
	"strings"

	"github.com/srctrans/comkit/comment"
)

// Segment is one translatable line of a comment body.
type Segment struct {
	Text string
	// Offset is the line offset from the span's starting line.
	Offset int
}

// Segments splits a span into its ordered segments.
//
// Single-line comments yield exactly one segment: the text after the line
// marker, with at most one leading space removed. Block comments yield one
// segment per non-blank body line, with the leading decoration run (and at
// most one following space) stripped. Decoration stripping is a cosmetic
// clean and is not restored on re-insertion. A block whose body is entirely
// blank yields a single empty segment so the span still receives a
// placeholder.
func Segments(sp Span, opts Options) []Segment {
	o := opts.withDefaults()

	if sp.Type == comment.TypeSingle {
		text := strings.TrimPrefix(sp.Raw, o.LineMarker)
		text = strings.TrimPrefix(text, " ")
		return []Segment{{Text: strings.TrimRight(text, " \t\r")}}
	}

	body := strings.TrimPrefix(sp.Raw, o.BlockOpen)
	body = strings.TrimSuffix(body, o.BlockClose)

	var segs []Segment
	for i, ln := range strings.Split(body, "\n") {
		if i == 0 {
			// "/**"-style openers glue the decoration to the open marker.
			ln = stripDecoration(ln, o.Decoration, false)
		} else {
			ln = stripDecoration(ln, o.Decoration, true)
		}
		text := strings.TrimSpace(ln)
		if text == "" {
			continue
		}
		segs = append(segs, Segment{Text: text, Offset: i})
	}

	if len(segs) == 0 {
		segs = append(segs, Segment{Text: ""})
	}
	return segs
}

// stripDecoration removes a leading run of decoration runes and at most one
// following space. When allowIndent is true, whitespace before the run is
// removed with it (block continuation lines are typically indented). Lines
// without a decoration run are returned unchanged.
func stripDecoration(line, decoration string, allowIndent bool) string {
	i := 0
	if allowIndent {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
	}
	j := i
	for j < len(line) && strings.IndexByte(decoration, line[j]) >= 0 {
		j++
	}
	if j == i {
		return line
	}
	if j < len(line) && line[j] == ' ' {
		j++
	}
	return line[j:]
}
