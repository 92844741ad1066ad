// Package textnorm produces the canonical comparison form used for every
// text match in docmask: NFD-decomposed, combining marks removed,
// lower-cased. Original text is never compared directly; it is only sliced
// once a match has been mapped back through a position map.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and removes their combining marks
// (Unicode category Mn), so "é" compares equal to "e".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Normalize returns the canonical comparison form of s.
// Normalization never fails: invalid UTF-8 bytes pass through unchanged.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Form pairs a normalized text with its position map back into the
// original string it was built from.
type Form struct {
	// Orig is the original text the form was built from.
	Orig string
	// Text is Normalize(Orig), built rune by rune.
	Text string
	// Map has one entry per byte of Text; Map[i] is the byte offset in
	// Orig of the rune that produced normalized byte i. It is
	// monotonically non-decreasing and len(Map) == len(Text).
	Map []int
}

// BuildForm normalizes text one rune at a time and records, for every
// produced normalized byte, the original byte offset of the producing rune.
//
// A rune whose normalization is empty (for example a bare combining mark)
// emits no map entries. Such runes are invisible to normalized offsets;
// any offset near them resolves to the nearest rune that did emit output,
// which for span starts is the preceding one. This is the documented
// resolution of the zero-output edge case.
func BuildForm(text string) Form {
	var b strings.Builder
	b.Grow(len(text))
	m := make([]int, 0, len(text))
	for i, r := range text {
		nr := Normalize(string(r))
		b.WriteString(nr)
		for j := 0; j < len(nr); j++ {
			m = append(m, i)
		}
	}
	return Form{Orig: text, Text: b.String(), Map: m}
}

// OrigStart maps a normalized byte offset to the original byte offset of
// the rune that produced it. Offsets past the end of the normalized text
// clamp to len(Orig).
func (f Form) OrigStart(norm int) int {
	if norm < 0 {
		return 0
	}
	if norm >= len(f.Map) {
		return len(f.Orig)
	}
	return f.Map[norm]
}

// OrigEnd maps an exclusive normalized end offset to an exclusive original
// end offset: the end of the rune that produced the last normalized byte
// before norm. An end at or before the first byte maps to 0.
func (f Form) OrigEnd(norm int) int {
	if norm <= 0 || len(f.Map) == 0 {
		return 0
	}
	if norm > len(f.Map) {
		norm = len(f.Map)
	}
	o := f.Map[norm-1]
	_, sz := utf8.DecodeRuneInString(f.Orig[o:])
	return o + sz
}
