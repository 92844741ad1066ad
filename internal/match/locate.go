// Package match locates user-supplied words and names in document text,
// ignoring case and accents. All searching happens on the normalized form
// of the text; results are always original-text byte offsets.
//
// Position maps are reliable for match starts but not for match ends when
// accent removal changes byte counts near punctuation. End offsets are
// therefore re-derived from the original text's own character classes
// (see FindAll), which is the correctness anchor for masking spans.
package match

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"docmask/internal/textnorm"
)

// NotFoundError reports that a required boundary word is absent from the
// document. It names the word so the caller can surface which one failed.
type NotFoundError struct {
	Word string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("word %q not found", e.Word)
}

// FindFirst returns the original-text byte offset of the first
// boundary-delimited occurrence of word in text, ignoring case and accents.
func FindFirst(text, word string) (int, bool) {
	nw := textnorm.Normalize(strings.TrimSpace(word))
	if nw == "" {
		return 0, false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(nw) + `\b`)
	if err != nil {
		return 0, false
	}
	form := textnorm.BuildForm(text)
	loc := re.FindStringIndex(form.Text)
	if loc == nil {
		return 0, false
	}
	return form.OrigStart(loc[0]), true
}

// Extract slices full between the first occurrence of startWord and the
// first occurrence of endWord after it. With includeEndWord the end word's
// full original extent is part of the slice; without it the slice stops at
// the end word's start. A missing word yields a NotFoundError naming it.
func Extract(full, startWord, endWord string, includeEndWord bool) (string, error) {
	start, ok := FindFirst(full, startWord)
	if !ok {
		return "", &NotFoundError{Word: startWord}
	}
	rel, ok := FindFirst(full[start:], endWord)
	if !ok {
		return "", &NotFoundError{Word: endWord}
	}
	end := start + rel
	if includeEndWord {
		end = WordExtent(full, start+rel)
	}
	return full[start:end], nil
}

// WordExtent returns the byte offset just past the maximal run of word
// characters (letters, digits, apostrophes, hyphens) starting at start.
// Scanning the original text directly captures the true word extent
// regardless of normalization length drift.
func WordExtent(text string, start int) int {
	i := start
	for i < len(text) {
		r, sz := utf8.DecodeRuneInString(text[i:])
		if !isWordRune(r) {
			break
		}
		i += sz
	}
	return i
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-'
}
