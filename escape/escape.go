// Package escape implements the reversible transform between literal tab
// characters and the two-character textual marker `\t`. Exported comment
// text goes through Escape so that translation tools (and translators) see
// a visible marker instead of invisible whitespace; Unescape restores the
// tabs during re-insertion.
package escape

import "strings"

// Marker is the two-character sequence standing in for a literal tab.
const Marker = `\t`

// Escape replaces every literal tab with Marker. Positions that already
// hold the marker verbatim are left alone, so Escape(Escape(x)) == Escape(x).
func Escape(text string) string {
	if !strings.ContainsRune(text, '\t') {
		return text
	}
	return strings.ReplaceAll(text, "\t", Marker)
}

// Unescape converts Marker back to a literal tab. Inverse of Escape:
// Unescape(Escape(x)) == x for all x. The reverse direction holds only for
// input without raw-tab/marker collisions; that ambiguity is a documented
// limitation of the marker scheme, not something Unescape tries to repair.
func Unescape(text string) string {
	return strings.ReplaceAll(text, Marker, "\t")
}
