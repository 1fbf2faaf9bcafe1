package scan

import (
	"errors"
	"testing"

	"github.com/srctrans/comkit/comment"
)

func TestScanSingleAndBlock(t *testing.T) {
	src := "int a; // hello\n\n/** line1\n * line2 */\nint b;\n"
	spans, err := Scan(src, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("spans len = %d, want 2", len(spans))
	}

	if spans[0].Type != comment.TypeSingle || spans[0].Line != 1 {
		t.Fatalf("first span = %+v, want single-line at line 1", spans[0])
	}
	if spans[0].Raw != "// hello" {
		t.Fatalf("first raw = %q, want %q", spans[0].Raw, "// hello")
	}

	if spans[1].Type != comment.TypeBlock || spans[1].Line != 3 {
		t.Fatalf("second span = %+v, want block at line 3", spans[1])
	}
	if spans[1].Raw != "/** line1\n * line2 */" {
		t.Fatalf("second raw = %q", spans[1].Raw)
	}

	// Offsets must slice back to the raw text.
	for _, sp := range spans {
		if src[sp.Start:sp.End] != sp.Raw {
			t.Fatalf("span offsets do not slice to raw: %+v", sp)
		}
	}
}

func TestScanBlockIsNonGreedy(t *testing.T) {
	src := "/* first */ code /* second */\n"
	spans, err := Scan(src, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("spans len = %d, want 2", len(spans))
	}
	if spans[0].Raw != "/* first */" || spans[1].Raw != "/* second */" {
		t.Fatalf("raws = %q, %q", spans[0].Raw, spans[1].Raw)
	}
}

func TestScanUnterminatedBlock(t *testing.T) {
	src := "int a;\n/* never closed\nint b;\n"
	_, err := Scan(src, Options{})
	var ub *UnterminatedBlockError
	if !errors.As(err, &ub) {
		t.Fatalf("err = %v, want UnterminatedBlockError", err)
	}
	if ub.Line != 2 {
		t.Fatalf("error line = %d, want 2", ub.Line)
	}
}

func TestScanMarkerInsideStringLiteral(t *testing.T) {
	src := "url = \"http://example.com\"; // real\n"

	// Default mode misidentifies the marker inside the literal.
	spans, err := Scan(src, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(spans) != 1 || spans[0].Raw == "// real" {
		t.Fatalf("default mode spans = %+v, want one span starting inside the literal", spans)
	}

	// Literal-aware mode skips the quoted text.
	spans, err = Scan(src, Options{LiteralAware: true})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(spans) != 1 || spans[0].Raw != "// real" {
		t.Fatalf("literal-aware spans = %+v, want exactly the trailing comment", spans)
	}
}

func TestScanLiteralAwareEscapesAndChars(t *testing.T) {
	src := `s = "quote \" then // not a comment"; c = '"'; // tail` + "\n"
	spans, err := Scan(src, Options{LiteralAware: true})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(spans) != 1 || spans[0].Raw != "// tail" {
		t.Fatalf("spans = %+v, want only the trailing comment", spans)
	}
}

func TestScanCustomMarkers(t *testing.T) {
	src := "x = 1 # note\n=begin\nblock text\n=end more\n"
	spans, err := Scan(src, Options{LineMarker: "#", BlockOpen: "=begin", BlockClose: "=end"})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("spans len = %d, want 2", len(spans))
	}
	if spans[0].Raw != "# note" {
		t.Fatalf("line span raw = %q", spans[0].Raw)
	}
	if spans[1].Type != comment.TypeBlock {
		t.Fatalf("second span type = %v, want block", spans[1].Type)
	}
}

func TestSegmentsSingleLine(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{raw: "// hello", want: "hello"},
		{raw: "//no space", want: "no space"},
		{raw: "//  double", want: " double"},
		{raw: "//", want: ""},
	}
	for _, tc := range cases {
		sp := Span{Type: comment.TypeSingle, Raw: tc.raw}
		segs := Segments(sp, Options{})
		if len(segs) != 1 {
			t.Fatalf("Segments(%q) len = %d, want 1", tc.raw, len(segs))
		}
		if segs[0].Text != tc.want {
			t.Fatalf("Segments(%q) = %q, want %q", tc.raw, segs[0].Text, tc.want)
		}
	}
}

func TestSegmentsBlockDecoration(t *testing.T) {
	sp := Span{Type: comment.TypeBlock, Raw: "/** line1\n * line2\n *\n *   line3 */"}
	segs := Segments(sp, Options{})
	want := []string{"line1", "line2", "line3"}
	if len(segs) != len(want) {
		t.Fatalf("segments = %+v, want %d entries", segs, len(want))
	}
	for i, w := range want {
		if segs[i].Text != w {
			t.Fatalf("segment %d = %q, want %q", i, segs[i].Text, w)
		}
	}
	if segs[2].Offset != 3 {
		t.Fatalf("line3 offset = %d, want 3", segs[2].Offset)
	}
}

func TestSegmentsBlankBlockYieldsEmptySegment(t *testing.T) {
	sp := Span{Type: comment.TypeBlock, Raw: "/*\n *\n */"}
	segs := Segments(sp, Options{})
	if len(segs) != 1 || segs[0].Text != "" {
		t.Fatalf("segments = %+v, want one empty segment", segs)
	}
}

func TestSegmentsCustomDecoration(t *testing.T) {
	sp := Span{Type: comment.TypeBlock, Raw: "/*# one\n # two\n*/"}
	segs := Segments(sp, Options{Decoration: "#"})
	if len(segs) != 2 || segs[0].Text != "one" || segs[1].Text != "two" {
		t.Fatalf("segments = %+v, want [one two]", segs)
	}
}

func TestSegmentsKeepsInlineDecorationText(t *testing.T) {
	// A first line that starts with a space keeps its emphasis markers.
	sp := Span{Type: comment.TypeBlock, Raw: "/* *important* */"}
	segs := Segments(sp, Options{})
	if len(segs) != 1 || segs[0].Text != "*important*" {
		t.Fatalf("segments = %+v, want [*important*]", segs)
	}
}
