// Package extract drives the comment extraction pipeline: source file
// discovery, per-file scanning and segmentation, index assignment, and
// construction of the placeholder-substituted intermediary text.
//
// Placeholders are inserted per segment rather than per comment, so a
// translator can reposition the individual lines of a block comment. The
// replacement for a span always contains the same number of newlines as
// the original comment, keeping line numbers in the rest of the file
// stable.
package extract

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/srctrans/comkit/comment"
	"github.com/srctrans/comkit/scan"
)

// skipDirs contains directory names to skip during source scanning.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// NormalizeExtensions converts user-supplied extension patterns
// ("*.cpp", ".cpp", "cpp") to lower-case ".cpp" form.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimSpace(strings.ToLower(e))
		e = strings.TrimPrefix(e, "*")
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// FindSources resolves the given file and directory paths into the sorted,
// deduplicated list of source files matching the extension list.
// Directories are walked recursively; common non-source directories are
// skipped. Extension matching is case-insensitive.
func FindSources(paths, exts []string) ([]string, error) {
	exts = NormalizeExtensions(exts)
	match := func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}

	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			if match(path) {
				add(path)
			}
			continue
		}
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if fi.IsDir() {
				if skipDirs[fi.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if match(fi.Name()) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// FileResult holds the outcome of extracting one source file.
type FileResult struct {
	// Path is the file as discovered.
	Path string
	// Rel is the path relative to the run root; the intermediary and
	// output trees mirror it.
	Rel string
	// Unit holds the extracted comment blocks and segments.
	Unit comment.Unit
	// Intermediary is the file content with comment spans replaced by
	// placeholder tokens.
	Intermediary string
	// Checksum is the MD5 of the original source, recorded in the run
	// manifest for drift detection.
	Checksum string
}

// File runs the per-file pipeline on src: scan spans, split segments,
// assign 0-based block and segment ids in source order, and build the
// intermediary text. The original source is never mutated.
func File(path, rel, src string, opts scan.Options) (*FileResult, error) {
	spans, err := scan.Scan(src, opts)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	unit := comment.Unit{Name: name, Path: rel}

	var b strings.Builder
	b.Grow(len(src))
	last := 0

	for bi, sp := range spans {
		b.WriteString(src[last:sp.Start])

		block := comment.Block{ID: bi, Type: sp.Type, Line: sp.Line}
		var tokens []string
		for si, sg := range scan.Segments(sp, opts) {
			ix := comment.Index{File: name, Block: bi, Segment: si}
			block.Segments = append(block.Segments, comment.Segment{
				Index: ix,
				Text:  sg.Text,
				Line:  sp.Line + sg.Offset,
			})
			tokens = append(tokens, comment.Placeholder(ix))
		}
		unit.Blocks = append(unit.Blocks, block)

		b.WriteString(placeholderSpan(sp, opts, tokens))
		last = sp.End
	}
	b.WriteString(src[last:])

	return &FileResult{
		Path:         path,
		Rel:          rel,
		Unit:         unit,
		Intermediary: b.String(),
		Checksum:     Checksum([]byte(src)),
	}, nil
}

// Checksum returns the hex MD5 of data.
func Checksum(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// placeholderSpan renders the replacement for one comment span, wrapped in
// the same comment markers so the tokens are syntactically inert in the
// host language. The replacement has exactly as many newlines as the span
// it replaces; when blank body lines were dropped during segmentation,
// blank padding lines keep the height.
func placeholderSpan(sp scan.Span, opts scan.Options, tokens []string) string {
	o := scanDefaults(opts)

	if sp.Type == comment.TypeSingle {
		return o.LineMarker + " " + strings.Join(tokens, " ")
	}

	height := strings.Count(sp.Raw, "\n") + 1
	if height == 1 {
		return o.BlockOpen + " " + strings.Join(tokens, " ") + " " + o.BlockClose
	}

	lines := make([]string, height)
	for i, tok := range tokens {
		li := i * height / len(tokens)
		if lines[li] == "" {
			lines[li] = tok
		} else {
			lines[li] += " " + tok
		}
	}
	lines[0] = strings.TrimRight(o.BlockOpen+" "+lines[0], " ")
	if lines[height-1] == "" {
		lines[height-1] = o.BlockClose
	} else {
		lines[height-1] += " " + o.BlockClose
	}
	return strings.Join(lines, "\n")
}

// scanDefaults mirrors scan.Options defaulting for marker reconstruction.
func scanDefaults(o scan.Options) scan.Options {
	if o.LineMarker == "" {
		o.LineMarker = "//"
	}
	if o.BlockOpen == "" {
		o.BlockOpen = "/*"
	}
	if o.BlockClose == "" {
		o.BlockClose = "*/"
	}
	return o
}
