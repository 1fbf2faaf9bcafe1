// Package manifest implements comkit.lock — the YAML record of an
// extraction run. Extraction and re-insertion are separate invocations, so
// the manifest carries everything re-insertion needs that is not in the
// intermediary files themselves: the per-file block structure the tabular
// and bulk parsers validate against, the escaping choice made at export
// time, and source checksums for drift detection.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/srctrans/comkit/comment"
)

// FileName is the manifest file name, written to the run root.
const FileName = "comkit.lock"

// Version is the manifest format version.
const Version = 1

// ErrNotFound reports a missing manifest: re-insertion was attempted
// without a preceding extraction run.
var ErrNotFound = errors.New("comkit.lock not found (run 'comkit extract' first)")

// Manifest is the comkit.lock structure.
type Manifest struct {
	Version int `yaml:"version"`
	// EscapeTabs records whether exports were written with tab escaping;
	// re-insertion unescapes only when it was.
	EscapeTabs bool `yaml:"escape_tabs"`
	// Decoration is the block decoration rune set used at extraction.
	Decoration string      `yaml:"decoration,omitempty"`
	Files      []FileEntry `yaml:"files"`
}

// FileEntry records one extracted source file.
type FileEntry struct {
	// Path is relative to the run root; the intermediary and output trees
	// mirror it.
	Path string `yaml:"path"`
	// Name is the base filename used as the file part of indexes.
	Name string `yaml:"name"`
	// Checksum is the MD5 of the source at extraction time.
	Checksum string       `yaml:"checksum"`
	Blocks   []BlockEntry `yaml:"blocks,omitempty"`
}

// BlockEntry records one comment block's structure.
type BlockEntry struct {
	ID       int    `yaml:"id"`
	Type     string `yaml:"type"`
	Line     int    `yaml:"line"`
	Segments int    `yaml:"segments"`
}

// Build assembles a manifest from extracted units. checksums maps a unit's
// relative path to its source MD5.
func Build(units []comment.Unit, checksums map[string]string, escapeTabs bool, decoration string) *Manifest {
	m := &Manifest{
		Version:    Version,
		EscapeTabs: escapeTabs,
		Decoration: decoration,
	}
	for _, u := range units {
		fe := FileEntry{
			Path:     u.Path,
			Name:     u.Name,
			Checksum: checksums[u.Path],
		}
		for _, b := range u.Blocks {
			fe.Blocks = append(fe.Blocks, BlockEntry{
				ID:       b.ID,
				Type:     string(b.Type),
				Line:     b.Line,
				Segments: len(b.Segments),
			})
		}
		m.Files = append(m.Files, fe)
	}
	return m
}

// Load reads the manifest from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%s: unsupported manifest version %d", path, m.Version)
	}
	return &m, nil
}

// Save writes the manifest to dir.
func (m *Manifest) Save(dir string) error {
	path := filepath.Join(dir, FileName)
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// BlockRefs reconstructs the run-wide export-order block sequence with the
// index of every segment slot.
func (m *Manifest) BlockRefs() []comment.BlockRef {
	var refs []comment.BlockRef
	for _, fe := range m.Files {
		for _, b := range fe.Blocks {
			ref := comment.BlockRef{File: fe.Name, Block: b.ID, Line: b.Line}
			for s := 0; s < b.Segments; s++ {
				ref.Indexes = append(ref.Indexes, comment.Index{File: fe.Name, Block: b.ID, Segment: s})
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

// SegmentCount returns the total number of recorded segments.
func (m *Manifest) SegmentCount() int {
	n := 0
	for _, fe := range m.Files {
		for _, b := range fe.Blocks {
			n += b.Segments
		}
	}
	return n
}

// BlockCount returns the total number of recorded blocks.
func (m *Manifest) BlockCount() int {
	n := 0
	for _, fe := range m.Files {
		n += len(fe.Blocks)
	}
	return n
}

// Drifted returns the recorded files whose sources under root no longer
// match their extraction-time checksum. checksum computes the hash for a
// file's content. Missing files count as drifted.
func (m *Manifest) Drifted(root string, checksum func([]byte) string) []string {
	var drifted []string
	for _, fe := range m.Files {
		data, err := os.ReadFile(filepath.Join(root, fe.Path))
		if err != nil || checksum(data) != fe.Checksum {
			drifted = append(drifted, fe.Path)
		}
	}
	return drifted
}
