package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

const source = "Jean Dupont rencontre jean dupont."

func TestApplyMasksAllOccurrences(t *testing.T) {
	l := New()
	n := l.Apply(source, "Jean Dupont")
	require.Equal(t, 2, n)

	entries := l.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "[NAME_1]", e.Token)
		assert.Equal(t, e.Original, source[e.Position:e.Position+e.Length])
	}

	masked, rep := l.Rebuild(source)
	assert.Equal(t, "[NAME_1] rencontre [NAME_1].", masked)
	assert.Equal(t, Report{Applied: 2}, rep)
}

func TestRestoreRoundTrip(t *testing.T) {
	l := New()
	l.Apply(source, "Jean Dupont")
	masked, _ := l.Rebuild(source)
	assert.Equal(t, source, l.Restore(masked))
}

func TestApplyIdempotentPerName(t *testing.T) {
	l := New()
	require.Equal(t, 2, l.Apply(source, "Jean Dupont"))
	assert.Equal(t, 0, l.Apply(source, "Jean Dupont"))
	assert.Equal(t, 0, l.Apply(source, "JEAN DUPONT")) // same normalized key
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.Names())
}

func TestApplyRejectsOverlap(t *testing.T) {
	l := New()
	require.Equal(t, 2, l.Apply(source, "Dupont"))
	// Every "Jean Dupont" occurrence overlaps an already-masked "Dupont".
	assert.Equal(t, 0, l.Apply(source, "Jean Dupont"))
	assert.Equal(t, 1, l.Names())

	for i, a := range l.Entries() {
		for _, b := range l.Entries()[i+1:] {
			disjoint := a.Position+a.Length <= b.Position || b.Position+b.Length <= a.Position
			assert.True(t, disjoint, "entries overlap: %+v / %+v", a, b)
		}
	}
}

func TestApplyNoMatchesIsZeroNotError(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Apply(source, "Martin"))
	assert.Equal(t, 0, l.Names())
}

func TestUndoRenumbersDense(t *testing.T) {
	src := "Dupont, Martin et Lefèvre se voient. Martin part."
	l := New()
	require.Equal(t, 1, l.Apply(src, "Dupont"))
	require.Equal(t, 2, l.Apply(src, "Martin"))
	require.Equal(t, 1, l.Apply(src, "Lefevre"))

	require.NoError(t, l.Undo("martin"))

	groups := l.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Dupont", groups[0].Display)
	assert.Equal(t, "[NAME_1]", groups[0].Token)
	// Lefèvre moved up from ID 3 to ID 2.
	assert.Equal(t, "Lefevre", groups[1].Display)
	assert.Equal(t, "[NAME_2]", groups[1].Token)

	// Every surviving entry carries its record's current token.
	for _, e := range l.Entries() {
		if e.Key == "lefevre" {
			assert.Equal(t, "[NAME_2]", e.Token)
		}
	}

	// Martin's occurrences are unmasked again after the undo.
	masked, _ := l.Rebuild(src)
	assert.Equal(t, "[NAME_1], Martin et [NAME_2] se voient. Martin part.", masked)
}

func TestUndoUnknownKey(t *testing.T) {
	l := New()
	assert.ErrorIs(t, l.Undo("ghost"), ErrInvalidSelection)
}

func TestUndoIndexOutOfRange(t *testing.T) {
	l := New()
	l.Apply(source, "Dupont")
	assert.ErrorIs(t, l.UndoIndex(5), ErrInvalidSelection)
	assert.ErrorIs(t, l.UndoIndex(-1), ErrInvalidSelection)
	require.NoError(t, l.UndoIndex(0))
	assert.Equal(t, 0, l.Names())
}

func TestRebuildSkipsStaleEntries(t *testing.T) {
	l := New()
	l.Apply(source, "Jean Dupont")
	edited := "Paul Dupont rencontre jean dupont."

	masked, rep := l.Rebuild(edited)
	assert.Equal(t, 1, rep.Stale)
	assert.Equal(t, 1, rep.Applied)
	assert.Equal(t, "Paul Dupont rencontre [NAME_1].", masked)
}

func TestRebuildReportsOverlapButApplies(t *testing.T) {
	// Forge overlapping entries directly; Apply would reject them.
	l := New()
	l.records["ab"] = &NameRecord{Key: "ab", Display: "ab", ID: 1, Token: MaskToken(1)}
	l.records["bc"] = &NameRecord{Key: "bc", Display: "bc", ID: 2, Token: MaskToken(2)}
	l.entries = []ChangeEntry{
		{Key: "ab", Original: "abc", Token: "[NAME_1]", Position: 0, Length: 3},
		{Key: "bc", Original: "cde", Token: "[NAME_2]", Position: 2, Length: 3},
	}

	masked, rep := l.Rebuild("abcdef")
	assert.Equal(t, 1, rep.Overlaps)
	assert.Equal(t, 2, rep.Applied)
	assert.NotEmpty(t, masked)
}

func TestRestoreMapsOccurrencesInOrder(t *testing.T) {
	l := New()
	l.Apply(source, "jean dupont")

	// Token occurrences restore positionally: first gets the first
	// recorded original, surplus occurrences reuse the last.
	assert.Equal(t, "Jean Dupont est là", l.Restore("[NAME_1] est là"))
	assert.Equal(t, "Jean Dupont, jean dupont, jean dupont",
		l.Restore("[NAME_1], [NAME_1], [NAME_1]"))
}

func TestClearDropsEverything(t *testing.T) {
	l := New()
	require.Equal(t, 2, l.Apply(source, "Dupont"))
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Names())
	// A cleared ledger accepts the same name again from scratch.
	assert.Equal(t, 2, l.Apply(source, "Dupont"))
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	l.Apply(source, "Jean Dupont")
	snap := l.Clone()

	require.NoError(t, l.Undo("jean dupont"))
	assert.Equal(t, 0, l.Names())
	assert.Equal(t, 1, snap.Names())
	assert.Equal(t, source, snap.Restore("[NAME_1] rencontre [NAME_1]."))
}

func TestParseNames(t *testing.T) {
	assert.Equal(t, []string{"Jean Dupont", "Martin"}, ParseNames(" Jean Dupont , Martin,,  "))
	assert.Nil(t, ParseNames("  ,  "))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := New()
	l.Apply(source, "Jean Dupont")
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, l.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, l.Entries(), loaded.Entries())
	assert.Equal(t, l.Groups(), loaded.Groups())
	assert.Equal(t, source, loaded.Restore("[NAME_1] rencontre [NAME_1]."))
}

func TestLoadRejectsOverlaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{"records":[{"key":"a","display":"a","id":1,"token":"[NAME_1]"}],
	"entries":[
	  {"key":"a","original":"abc","token":"[NAME_1]","position":0,"length":3},
	  {"key":"a","original":"bcd","token":"[NAME_1]","position":1,"length":3}]}`
	require.NoError(t, writeFile(path, bad))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadRejectsOrphanEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orphan.json")
	bad := `{"records":[],"entries":[{"key":"x","original":"ab","token":"[NAME_1]","position":0,"length":2}]}`
	require.NoError(t, writeFile(path, bad))
	_, err := LoadFile(path)
	assert.Error(t, err)
}
