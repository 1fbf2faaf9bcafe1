package escape

import "testing"

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "no tabs", in: "plain text", want: "plain text"},
		{name: "single tab", in: "a\tb", want: `a\tb`},
		{name: "leading and trailing", in: "\tindent\t", want: `\tindent\t`},
		{name: "consecutive tabs", in: "a\t\tb", want: `a\t\tb`},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range cases {
		got := Escape(tc.in)
		if got != tc.want {
			t.Fatalf("%s: Escape(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
		if back := Unescape(got); back != tc.in {
			t.Fatalf("%s: Unescape(Escape(%q)) = %q, want original", tc.name, tc.in, back)
		}
	}
}

func TestEscapeIdempotent(t *testing.T) {
	in := "mix\tof tabs and " + Marker + " markers"
	once := Escape(in)
	twice := Escape(once)
	if once != twice {
		t.Fatalf("Escape not idempotent: %q vs %q", once, twice)
	}
}

func TestUnescapePassthrough(t *testing.T) {
	if got := Unescape("no markers here"); got != "no markers here" {
		t.Fatalf("Unescape = %q, want input unchanged", got)
	}
}
