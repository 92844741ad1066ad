// Package docsource loads source documents into plain text.
//
// Word documents (.docx) are unpacked from their zip container and the
// paragraph text of word/document.xml is extracted, one line per paragraph.
// Any other file is read verbatim as UTF-8 text.
package docsource

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxDocumentXML caps the decompressed size of word/document.xml.
const maxDocumentXML = 64 << 20

// Load reads the file at path and returns its text content.
func Load(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return loadDocx(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func loadDocx(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx %q: %w", path, err)
	}
	defer r.Close() //nolint:errcheck // read-only archive

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close() //nolint:errcheck // read-only stream
		return extractParagraphs(io.LimitReader(rc, maxDocumentXML))
	}
	return "", fmt.Errorf("docx %q has no word/document.xml", path)
}

// extractParagraphs walks the WordprocessingML token stream collecting the
// character data of w:t runs, starting a new line at each w:p boundary.
// Tabs and explicit line breaks inside a run are honoured.
func extractParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		cur        strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, cur.String())
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if cur.Len() > 0 {
		paragraphs = append(paragraphs, cur.String())
	}
	return strings.Join(paragraphs, "\n"), nil
}
