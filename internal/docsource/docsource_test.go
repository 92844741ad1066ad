package docsource

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDocx builds a minimal .docx on disk containing documentXML as
// word/document.xml and returns its path.
func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "doc.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

const twoParagraphs = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jean Dupont habite </w:t></w:r><w:r><w:t>Paris.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Fin du rapport.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestLoadDocxJoinsRunsAndParagraphs(t *testing.T) {
	path := writeDocx(t, twoParagraphs)
	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Jean Dupont habite Paris.\nFin du rapport.", text)
}

func TestLoadDocxHonoursTabsAndBreaks(t *testing.T) {
	path := writeDocx(t, `<w:document xmlns:w="urn:x"><w:body>
		<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>
	</w:body></w:document>`)
	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc", text)
}

func TestLoadDocxWithoutDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/other.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "empty.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	_, err = Load(path)
	assert.ErrorContains(t, err, "word/document.xml")
}

func TestLoadPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Élodie Martin était là.\n"), 0o600))
	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Élodie Martin était là.\n", text)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
