package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ledgerFile is the on-disk JSON shape used by the CLI to carry a ledger
// across invocations (mask in one run, restore in another).
type ledgerFile struct {
	Records []NameRecord  `json:"records"`
	Entries []ChangeEntry `json:"entries"`
}

// SaveFile writes the ledger as JSON via a temp file and rename, so a
// crash never leaves a truncated file behind.
func (l *Ledger) SaveFile(path string) error {
	recs := make([]NameRecord, 0, len(l.records))
	for _, r := range l.records {
		recs = append(recs, *r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	data, err := json.MarshalIndent(ledgerFile{Records: recs, Entries: l.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()        //nolint:errcheck // best-effort cleanup
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("save ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("save ledger: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// LoadFile reads a ledger previously written by SaveFile. Malformed or
// self-overlapping change data is rejected, not repaired.
func LoadFile(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ledgerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}

	l := New()
	for i := range f.Records {
		r := f.Records[i]
		if r.Key == "" || r.ID <= 0 {
			return nil, fmt.Errorf("ledger %s: invalid record %q", path, r.Key)
		}
		l.records[r.Key] = &r
	}
	for _, e := range f.Entries {
		if _, ok := l.records[e.Key]; !ok {
			return nil, fmt.Errorf("ledger %s: entry for unknown name %q", path, e.Key)
		}
		if e.Length <= 0 || e.Position < 0 {
			return nil, fmt.Errorf("ledger %s: invalid span at %d", path, e.Position)
		}
		if l.overlaps(e.Position, e.Position+e.Length) {
			return nil, fmt.Errorf("ledger %s: overlapping spans at %d", path, e.Position)
		}
		l.entries = append(l.entries, e)
	}
	return l, nil
}
