// Package ledger owns the set of active masking changes for one source
// text: which names are masked, under which token, and at which positions.
//
// The ledger is a plain value with no internal locking. It is mutated by a
// single owner; callers that share it across goroutines (the HTTP server)
// guard it with their own mutex. All positions refer to the immutable
// source text the changes were computed from, never to masked output.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"docmask/internal/match"
	"docmask/internal/textnorm"
)

// ErrInvalidSelection reports an undo request against a group index that
// no longer exists. It is a recoverable no-op for the caller.
var ErrInvalidSelection = errors.New("selection no longer exists")

// NameRecord is one masked name. ID is dense (1..N over active records)
// and Token is derived from it; both are rewritten by renumbering after an
// undo, so tokens are presentation artifacts, not persistent identifiers.
type NameRecord struct {
	Key     string `json:"key"`     // normalized lookup key
	Display string `json:"display"` // the name as the user entered it
	ID      int    `json:"id"`
	Token   string `json:"token"`
}

// ChangeEntry is one masked occurrence of one name. Position and Length
// are byte offsets into the source text; Original is the exact substring
// being replaced.
type ChangeEntry struct {
	Key      string `json:"key"`
	Original string `json:"original"`
	Token    string `json:"token"`
	Position int    `json:"position"`
	Length   int    `json:"length"`
}

// Group is the per-name display row recomputed from the ledger on demand.
type Group struct {
	Key     string `json:"key"`
	Display string `json:"display"`
	Token   string `json:"token"`
	Count   int    `json:"count"`
}

// Ledger is the aggregate of name records and their change entries.
type Ledger struct {
	records map[string]*NameRecord
	entries []ChangeEntry
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{records: make(map[string]*NameRecord)}
}

// MaskToken renders the token for a record ID. Tokens embed a closing
// delimiter, so no token is a prefix of another.
func MaskToken(id int) string {
	return fmt.Sprintf("[NAME_%d]", id)
}

// ParseNames splits a comma-separated user input into trimmed, non-empty
// name strings.
func ParseNames(input string) []string {
	var names []string
	for _, part := range strings.Split(input, ",") {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Apply masks every occurrence of name found in source that does not
// overlap an already-masked span, under a freshly allocated record.
// Returns the number of new change entries; zero means either the name is
// already masked (idempotent no-op) or nothing new matched. Occurrences
// are always computed against source, never against masked output, so
// positions cannot drift across repeated masking rounds.
func (l *Ledger) Apply(source, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0
	}
	key := textnorm.Normalize(name)
	if _, exists := l.records[key]; exists {
		return 0
	}

	var kept []match.Occurrence
	for _, occ := range match.FindAll(source, name) {
		if !l.overlaps(occ.Start, occ.End) {
			kept = append(kept, occ)
		}
	}
	if len(kept) == 0 {
		return 0
	}

	id := len(l.records) + 1
	rec := &NameRecord{Key: key, Display: name, ID: id, Token: MaskToken(id)}
	l.records[key] = rec
	for _, occ := range kept {
		l.entries = append(l.entries, ChangeEntry{
			Key:      key,
			Original: occ.Text,
			Token:    rec.Token,
			Position: occ.Start,
			Length:   len(occ.Text),
		})
	}
	return len(kept)
}

// ApplyAll applies every name in order and returns the total number of new
// change entries across all of them.
func (l *Ledger) ApplyAll(source string, names []string) int {
	total := 0
	for _, n := range names {
		total += l.Apply(source, n)
	}
	return total
}

// overlaps reports whether [start,end) intersects any existing entry.
func (l *Ledger) overlaps(start, end int) bool {
	for _, e := range l.entries {
		if start < e.Position+e.Length && e.Position < end {
			return true
		}
	}
	return false
}

// Undo removes the record for key and every entry referencing it, then
// renumbers the remaining records.
func (l *Ledger) Undo(key string) error {
	if _, ok := l.records[key]; !ok {
		return ErrInvalidSelection
	}
	delete(l.records, key)

	kept := make([]ChangeEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	l.entries = kept
	l.renumber()
	return nil
}

// UndoIndex removes the group at position i of the Groups ordering.
// An index that no longer exists yields ErrInvalidSelection.
func (l *Ledger) UndoIndex(i int) error {
	groups := l.Groups()
	if i < 0 || i >= len(groups) {
		return ErrInvalidSelection
	}
	return l.Undo(groups[i].Key)
}

// renumber reassigns dense IDs 1..N in ascending current-ID order,
// recomputes tokens, and rewrites every surviving entry's token to match
// its record. Keeps tokens contiguous and human-readable after deletions.
func (l *Ledger) renumber() {
	recs := make([]*NameRecord, 0, len(l.records))
	for _, r := range l.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	for i, r := range recs {
		r.ID = i + 1
		r.Token = MaskToken(r.ID)
	}
	for i := range l.entries {
		l.entries[i].Token = l.records[l.entries[i].Key].Token
	}
}

// Groups returns one row per masked name, ordered by ID.
func (l *Ledger) Groups() []Group {
	counts := make(map[string]int, len(l.records))
	for _, e := range l.entries {
		counts[e.Key]++
	}
	out := make([]Group, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, Group{Key: r.Key, Display: r.Display, Token: r.Token, Count: counts[r.Key]})
	}
	sort.Slice(out, func(i, j int) bool { return lessByID(l.records, out[i].Key, out[j].Key) })
	return out
}

func lessByID(records map[string]*NameRecord, a, b string) bool {
	return records[a].ID < records[b].ID
}

// Entries returns a copy of the current change entries in creation order.
func (l *Ledger) Entries() []ChangeEntry {
	out := make([]ChangeEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of change entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Names returns the number of active name records.
func (l *Ledger) Names() int { return len(l.records) }

// Clear drops every record and entry. Called whenever the source text the
// ledger was built against is replaced.
func (l *Ledger) Clear() {
	l.records = make(map[string]*NameRecord)
	l.entries = nil
}

// Clone returns an independent copy of the ledger, used to capture a
// read-only snapshot for an in-flight completion call.
func (l *Ledger) Clone() *Ledger {
	c := New()
	for k, r := range l.records {
		rc := *r
		c.records[k] = &rc
	}
	c.entries = make([]ChangeEntry, len(l.entries))
	copy(c.entries, l.entries)
	return c
}
