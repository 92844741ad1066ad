package ledger

import (
	"sort"
	"strings"
)

// Report summarizes anomalies encountered during one rebuild.
// Stale counts entries whose recorded original text no longer matches the
// source at their position (source edited out-of-band); they are skipped,
// never fatal. Overlaps counts pairs of surviving entries that intersect;
// this should be unreachable given Apply's rejection and is surfaced as a
// defect signal, but both entries are still applied.
type Report struct {
	Applied  int `json:"applied"`
	Stale    int `json:"stale"`
	Overlaps int `json:"overlaps"`
}

// Rebuild regenerates the masked text from the source text and the current
// change set. It always recomputes from source, never incrementally from a
// previous masked string: tokens and names differ in length, so stored
// positions are only valid against the source.
func (l *Ledger) Rebuild(source string) (string, Report) {
	var rep Report

	valid := make([]ChangeEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Position < 0 || e.Length <= 0 || e.Position+e.Length > len(source) ||
			source[e.Position:e.Position+e.Length] != e.Original {
			rep.Stale++
			continue
		}
		valid = append(valid, e)
	}

	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			if valid[i].Position < valid[j].Position+valid[j].Length &&
				valid[j].Position < valid[i].Position+valid[i].Length {
				rep.Overlaps++
			}
		}
	}

	// Rightmost first, so earlier replacements never invalidate the
	// offsets of the ones still to come.
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Position > valid[j].Position })

	masked := source
	for _, e := range valid {
		masked = masked[:e.Position] + e.Token + masked[e.Position+e.Length:]
	}
	rep.Applied = len(valid)
	return masked, rep
}

// Restore replaces every literal mask token in text with original name
// text. The text is typically a model response that never derived from the
// source, so plain token substitution is used instead of position
// arithmetic; the embedded closing delimiter keeps tokens mutually
// non-prefixing, so replacement order across tokens cannot collide.
//
// A name masked under one token can have several entries whose originals
// differ in case or accents. The i-th occurrence of a token is restored
// from the i-th entry in creation order (surplus occurrences reuse the
// last), so restoring a rebuilt source text reproduces it exactly.
func (l *Ledger) Restore(text string) string {
	byToken := make(map[string][]string)
	var order []string
	for _, e := range l.entries {
		if _, ok := byToken[e.Token]; !ok {
			order = append(order, e.Token)
		}
		byToken[e.Token] = append(byToken[e.Token], e.Original)
	}
	for _, tok := range order {
		text = replaceSequential(text, tok, byToken[tok])
	}
	return text
}

// replaceSequential substitutes occurrences of token left to right, the
// n-th occurrence taking originals[n], clamped to the last entry.
func replaceSequential(text, token string, originals []string) string {
	if !strings.Contains(text, token) {
		return text
	}
	var b strings.Builder
	i, n := 0, 0
	for {
		j := strings.Index(text[i:], token)
		if j < 0 {
			b.WriteString(text[i:])
			return b.String()
		}
		b.WriteString(text[i : i+j])
		idx := n
		if idx >= len(originals) {
			idx = len(originals) - 1
		}
		b.WriteString(originals[idx])
		i += j + len(token)
		n++
	}
}
