package match

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"docmask/internal/textnorm"
)

// Occurrence is one located, boundary-respecting match of a name, in
// original-text byte coordinates. The span is half-open and Text is the
// exact original substring, Text == text[Start:End].
type Occurrence struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// FindAll returns every non-overlapping, boundary-respecting occurrence of
// name in text, ordered by ascending start. Multi-word names tolerate
// variable whitespace between their words. Matching never fails; unusable
// input yields an empty result.
func FindAll(text, name string) []Occurrence {
	nname := textnorm.Normalize(strings.TrimSpace(name))
	words := strings.Fields(nname)
	if len(words) == 0 {
		return nil
	}

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`\b` + strings.Join(parts, `\s+`) + `\b`)
	if err != nil {
		return nil
	}

	form := textnorm.BuildForm(text)
	locs := re.FindAllStringIndex(form.Text, -1)
	multi := len(words) > 1

	var out []Occurrence
	for _, loc := range locs {
		start := form.OrigStart(loc[0])
		end := form.OrigEnd(loc[1])

		if multi {
			// Walk the original text word by word from the mapped start.
			// When every word matches, the walk's end is authoritative:
			// it spans original whitespace and punctuation variations the
			// coarse position map cannot see. Otherwise keep the coarse end.
			if refined, ok := phraseExtent(text, start, words); ok {
				end = refined
			}
		} else {
			// For single words the original text's own word extent is
			// authoritative, not the coarse position-map end.
			end = WordExtent(text, start)
		}

		if start >= end || end > len(text) {
			continue
		}
		out = append(out, Occurrence{Start: start, End: end, Text: text[start:end]})
	}
	return out
}

// phraseExtent walks text from start one word at a time, skipping
// inter-word whitespace, and requires each successive word's normalized
// form to equal the corresponding entry of words (already normalized).
// Returns the end offset of the last matched word.
func phraseExtent(text string, start int, words []string) (int, bool) {
	i := start
	end := start
	for _, want := range words {
		for i < len(text) {
			r, sz := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				break
			}
			i += sz
		}
		ws := i
		we := WordExtent(text, ws)
		if we == ws || textnorm.Normalize(text[ws:we]) != want {
			return 0, false
		}
		end = we
		i = we
	}
	return end, true
}
