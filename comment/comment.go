// Package comment defines the data model shared across the extraction
// pipeline: comment blocks, translatable segments, the composite index that
// identifies a segment's slot, placeholder tokens, and the run-scoped
// uniqueness registry.
package comment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Type distinguishes the two comment shapes the scanner recognizes.
type Type string

const (
	// TypeSingle marks a comment running from a line marker to end of line.
	TypeSingle Type = "single-line"
	// TypeBlock marks a comment delimited by open/close markers.
	TypeBlock Type = "block"
)

// Index is the composite key identifying one segment slot:
// (filename with extension, block id, segment id). It is the join key
// between intermediary files and translation files — position, not text
// equality, is the ground truth for "same comment slot".
//
// Rendered as "name.ext:block:segment" with 0-based ids.
type Index struct {
	File    string
	Block   int
	Segment int
}

func (ix Index) String() string {
	return fmt.Sprintf("%s:%d:%d", ix.File, ix.Block, ix.Segment)
}

// ParseIndex parses the "name.ext:block:segment" rendering. The file part
// may itself contain colons; the last two colon-separated fields are the
// numeric ids.
func ParseIndex(s string) (Index, error) {
	segPos := strings.LastIndexByte(s, ':')
	if segPos <= 0 {
		return Index{}, fmt.Errorf("invalid index %q", s)
	}
	blockPos := strings.LastIndexByte(s[:segPos], ':')
	if blockPos <= 0 {
		return Index{}, fmt.Errorf("invalid index %q", s)
	}
	block, err := parseID(s[blockPos+1 : segPos])
	if err != nil {
		return Index{}, fmt.Errorf("invalid index %q: bad block id", s)
	}
	seg, err := parseID(s[segPos+1:])
	if err != nil {
		return Index{}, fmt.Errorf("invalid index %q: bad segment id", s)
	}
	return Index{File: s[:blockPos], Block: block, Segment: seg}, nil
}

// parseID accepts plain non-negative decimal ids only (no signs, no spaces).
func parseID(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", s[i])
		}
	}
	return strconv.Atoi(s)
}

// Segment is one translatable line of a comment body.
type Segment struct {
	Index Index
	// Text is the cleaned segment text, before tab escaping.
	Text string
	// Line is the 1-based source line the segment came from.
	Line int
}

// Block is one comment found in a source file.
type Block struct {
	// ID is the 0-based position of the comment within its file,
	// in source order.
	ID   int
	Type Type
	// Line is the 1-based starting line of the comment.
	Line     int
	Segments []Segment
}

// Unit is one scanned source file and the comments it owns.
type Unit struct {
	// Name is the base filename with extension, used as the file part of
	// every index minted for this unit.
	Name string
	// Path is the file path relative to the run root.
	Path   string
	Blocks []Block
}

// Segments returns the unit's segments in block, then segment order.
func (u *Unit) Segments() []Segment {
	var out []Segment
	for _, b := range u.Blocks {
		out = append(out, b.Segments...)
	}
	return out
}

// BlockRef is the positional identity of one block in the run-wide export
// order. The tabular and bulk translation parsers validate the translated
// file's structure against these references.
type BlockRef struct {
	File    string
	Block   int
	Line    int
	Indexes []Index
}

// BlockRefs flattens units into the export-order block sequence.
func BlockRefs(units []Unit) []BlockRef {
	var refs []BlockRef
	for _, u := range units {
		for _, b := range u.Blocks {
			ref := BlockRef{File: u.Name, Block: b.ID, Line: b.Line}
			for _, sg := range b.Segments {
				ref.Indexes = append(ref.Indexes, sg.Index)
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

const placeholderPrefix = "PLACEHOLDER_"

// Placeholder returns the inert token standing in for a segment in
// intermediary text. Derived deterministically from the index, so re-runs
// produce identical intermediary files, and globally unique because the
// index is.
func Placeholder(ix Index) string {
	return placeholderPrefix + ix.String()
}

// PlaceholderPattern matches placeholder tokens in intermediary text.
var PlaceholderPattern = regexp.MustCompile(`PLACEHOLDER_\S+:\d+:\d+`)

// ParsePlaceholder recovers the index from a placeholder token.
func ParsePlaceholder(token string) (Index, error) {
	if !strings.HasPrefix(token, placeholderPrefix) {
		return Index{}, fmt.Errorf("not a placeholder token: %q", token)
	}
	return ParseIndex(strings.TrimPrefix(token, placeholderPrefix))
}

// Registry enforces run-wide uniqueness of segment indexes. Safe for
// concurrent use by per-file extraction workers; because an index embeds
// the filename, collisions only occur when two processed files share a
// base name.
type Registry struct {
	mu   sync.Mutex
	seen map[Index]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[Index]string)}
}

// Add claims ix on behalf of path. Returns an error naming both claimants
// when the index was already taken.
func (r *Registry) Add(ix Index, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.seen[ix]; ok {
		return fmt.Errorf("duplicate index %s: claimed by both %s and %s (two files sharing a base name?)", ix, prev, path)
	}
	r.seen[ix] = path
	return nil
}

// Len reports how many indexes the registry holds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
