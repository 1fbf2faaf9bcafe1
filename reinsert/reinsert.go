// Package reinsert substitutes translated text back into intermediary
// files and verifies the result. Substitution is keyed by the placeholder
// indexes, so translated intermediary files keep working even when a
// translator moved or reordered placeholders within a file.
package reinsert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/srctrans/comkit/comment"
	"github.com/srctrans/comkit/escape"
	"github.com/srctrans/comkit/extract"
	"github.com/srctrans/comkit/manifest"
)

// UnresolvedMarker renders the stand-in left in output text when a
// placeholder has no translation. The index stays visible so the gap can
// be found and fixed by hand.
func UnresolvedMarker(ix comment.Index) string {
	return fmt.Sprintf("<<UNRESOLVED:%s>>", ix)
}

// Stats counts placeholder substitutions for one file or a whole run.
type Stats struct {
	// Placeholders is the number of placeholder tokens found.
	Placeholders int
	// Substituted is how many of them had a translation.
	Substituted int
	// Missing is how many were replaced with an unresolved marker.
	Missing int
}

func (s *Stats) add(o Stats) {
	s.Placeholders += o.Placeholders
	s.Substituted += o.Substituted
	s.Missing += o.Missing
}

// Apply replaces every placeholder token in src with its translation.
// Malformed tokens matched by the placeholder pattern are left untouched.
// When unescape is set, tab markers in translations are converted back to
// tab characters. missing collects the indexes that had no translation.
func Apply(src string, translations map[comment.Index]string, unescape bool) (string, Stats, []comment.Index) {
	var st Stats
	var missing []comment.Index

	out := comment.PlaceholderPattern.ReplaceAllStringFunc(src, func(token string) string {
		ix, err := comment.ParsePlaceholder(token)
		if err != nil {
			return token
		}
		st.Placeholders++
		text, ok := translations[ix]
		if !ok {
			st.Missing++
			missing = append(missing, ix)
			return UnresolvedMarker(ix)
		}
		st.Substituted++
		if unescape {
			text = escape.Unescape(text)
		}
		return text
	})
	return out, st, missing
}

// FileReport is the verification outcome for one reinserted file.
type FileReport struct {
	// Path is the file's run-relative path.
	Path string
	// Expected is the segment count the manifest recorded at extraction.
	Expected int
	Stats    Stats
	// Missing lists the unresolved indexes, in document order.
	Missing []comment.Index
	// SizeDelta is the relative size change of the output against the
	// intermediary file it was built from. Translations legitimately
	// differ in length from placeholder tokens, so a large delta is an
	// advisory signal, not proof of damage.
	SizeDelta float64
	// SizeChecked reports whether SizeDelta was computed.
	SizeChecked bool
}

// Warnings renders the report's advisory findings. An empty slice means
// the file verified clean.
func (fr *FileReport) Warnings() []string {
	var w []string
	if fr.Stats.Placeholders != fr.Expected {
		w = append(w, fmt.Sprintf("%s: found %d placeholder(s), manifest records %d", fr.Path, fr.Stats.Placeholders, fr.Expected))
	}
	for _, ix := range fr.Missing {
		w = append(w, fmt.Sprintf("%s: no translation for %s", fr.Path, ix))
	}
	if fr.SizeChecked && (fr.SizeDelta > sizeDeltaLimit || fr.SizeDelta < -sizeDeltaLimit) {
		w = append(w, fmt.Sprintf("%s: output size differs from the intermediary by %.0f%%", fr.Path, fr.SizeDelta*100))
	}
	return w
}

// sizeDeltaLimit is the relative size change above which verification
// flags a file.
const sizeDeltaLimit = 0.10

// Options controls one re-insertion run.
type Options struct {
	// Root is the original source root, used to detect sources edited
	// after extraction. Empty disables the check.
	Root string
	// IntermediaryDir holds the extraction run's intermediary tree.
	IntermediaryDir string
	// OutputDir receives the reinserted tree, mirroring the intermediary
	// layout.
	OutputDir string
	// Unescape converts tab markers in translations back to tabs. Should
	// match the escaping recorded in the manifest.
	Unescape bool
	OnLog    func(format string, args ...any)
	OnError  func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o Options) errorf(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	}
}

// Result is the outcome of a re-insertion run.
type Result struct {
	// Files holds per-file reports, in manifest order.
	Files []*FileReport
	Stats Stats
	// Drifted lists sources that changed since extraction.
	Drifted []string
}

// Warnings collects every advisory finding of the run.
func (r *Result) Warnings() []string {
	var w []string
	for _, p := range r.Drifted {
		w = append(w, fmt.Sprintf("%s: source changed since extraction", p))
	}
	for _, fr := range r.Files {
		w = append(w, fr.Warnings()...)
	}
	return w
}

// Run reinserts translations into every file the manifest records and
// writes the output tree. A missing or unreadable intermediary file is a
// hard error: the run cannot produce the tree it promised.
func Run(ctx context.Context, m *manifest.Manifest, translations map[comment.Index]string, opts Options) (*Result, error) {
	res := &Result{}

	if opts.Root != "" {
		res.Drifted = m.Drifted(opts.Root, extract.Checksum)
		for _, p := range res.Drifted {
			opts.errorf("%s: source changed since extraction", p)
		}
	}

	for _, fe := range m.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := filepath.Join(opts.IntermediaryDir, fe.Path)
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("reading intermediary %s: %w", src, err)
		}

		out, st, missing := Apply(string(data), translations, opts.Unescape)
		rep := &FileReport{
			Path:    fe.Path,
			Stats:   st,
			Missing: missing,
		}
		for _, b := range fe.Blocks {
			rep.Expected += b.Segments
		}
		if len(data) > 0 {
			rep.SizeDelta = float64(len(out)-len(data)) / float64(len(data))
			rep.SizeChecked = true
		}

		dest := filepath.Join(opts.OutputDir, fe.Path)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, []byte(out), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", dest, err)
		}

		res.Files = append(res.Files, rep)
		res.Stats.add(st)
		for _, w := range rep.Warnings() {
			opts.errorf("%s", w)
		}
	}

	opts.logf("Reinserted %d of %d placeholder(s) across %d file(s)", res.Stats.Substituted, res.Stats.Placeholders, len(res.Files))
	return res, nil
}

// SortedMissing returns the run's unresolved indexes sorted for stable
// reporting.
func (r *Result) SortedMissing() []comment.Index {
	var out []comment.Index
	for _, fr := range r.Files {
		out = append(out, fr.Missing...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
