package comment

import (
	"strings"
	"sync"
	"testing"
)

func TestIndexStringParseRoundTrip(t *testing.T) {
	cases := []Index{
		{File: "a.cpp", Block: 0, Segment: 0},
		{File: "widget.hpp", Block: 12, Segment: 3},
		{File: "odd:name.h", Block: 1, Segment: 0},
	}
	for _, ix := range cases {
		got, err := ParseIndex(ix.String())
		if err != nil {
			t.Fatalf("ParseIndex(%q) error: %v", ix.String(), err)
		}
		if got != ix {
			t.Fatalf("ParseIndex(%q) = %+v, want %+v", ix.String(), got, ix)
		}
	}
}

func TestParseIndexRejectsMalformed(t *testing.T) {
	bad := []string{"", "a.cpp", "a.cpp:1", "a.cpp:x:0", "a.cpp:0:-1", "a.cpp:0:", ":0:0"}
	for _, s := range bad {
		if _, err := ParseIndex(s); err == nil {
			t.Fatalf("ParseIndex(%q) succeeded, want error", s)
		}
	}
}

func TestPlaceholderRoundTrip(t *testing.T) {
	ix := Index{File: "a.cpp", Block: 1, Segment: 1}
	token := Placeholder(ix)
	if token != "PLACEHOLDER_a.cpp:1:1" {
		t.Fatalf("Placeholder = %q, want PLACEHOLDER_a.cpp:1:1", token)
	}
	got, err := ParsePlaceholder(token)
	if err != nil {
		t.Fatalf("ParsePlaceholder error: %v", err)
	}
	if got != ix {
		t.Fatalf("ParsePlaceholder = %+v, want %+v", got, ix)
	}

	if _, err := ParsePlaceholder("NOT_A_TOKEN"); err == nil {
		t.Fatal("ParsePlaceholder accepted a non-placeholder token")
	}
}

func TestPlaceholderPatternFindsTokens(t *testing.T) {
	text := "int x; // PLACEHOLDER_a.cpp:0:0\n/* PLACEHOLDER_a.cpp:1:0\nPLACEHOLDER_a.cpp:1:1 */\n"
	got := PlaceholderPattern.FindAllString(text, -1)
	if len(got) != 3 {
		t.Fatalf("found %d tokens, want 3: %v", len(got), got)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	ix := Index{File: "a.h", Block: 0, Segment: 0}
	if err := r.Add(ix, "src/a.h"); err != nil {
		t.Fatalf("first Add error: %v", err)
	}
	err := r.Add(ix, "include/a.h")
	if err == nil {
		t.Fatal("duplicate Add succeeded, want error")
	}
	if !strings.Contains(err.Error(), "src/a.h") || !strings.Contains(err.Error(), "include/a.h") {
		t.Fatalf("duplicate error should name both claimants: %v", err)
	}
}

func TestRegistryConcurrentAdds(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for f := 0; f < 8; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			for s := 0; s < 50; s++ {
				ix := Index{File: "f" + string(rune('a'+f)) + ".cpp", Block: 0, Segment: s}
				if err := r.Add(ix, ix.File); err != nil {
					t.Errorf("Add(%v) error: %v", ix, err)
				}
			}
		}(f)
	}
	wg.Wait()
	if r.Len() != 8*50 {
		t.Fatalf("registry len = %d, want %d", r.Len(), 8*50)
	}
}

func TestBlockRefs(t *testing.T) {
	units := []Unit{
		{
			Name: "a.cpp",
			Blocks: []Block{
				{ID: 0, Type: TypeSingle, Line: 1, Segments: []Segment{
					{Index: Index{File: "a.cpp", Block: 0, Segment: 0}, Text: "hello", Line: 1},
				}},
				{ID: 1, Type: TypeBlock, Line: 3, Segments: []Segment{
					{Index: Index{File: "a.cpp", Block: 1, Segment: 0}, Text: "line1", Line: 3},
					{Index: Index{File: "a.cpp", Block: 1, Segment: 1}, Text: "line2", Line: 4},
				}},
			},
		},
	}
	refs := BlockRefs(units)
	if len(refs) != 2 {
		t.Fatalf("refs len = %d, want 2", len(refs))
	}
	if refs[1].Line != 3 || len(refs[1].Indexes) != 2 {
		t.Fatalf("second ref = %+v, want line 3 with 2 indexes", refs[1])
	}
}
