package docpipe

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocx parses a .docx upload by reading word/document.xml from
// the ZIP archive. Each <w:p> paragraph becomes one output line.
func extractDocx(data []byte) (string, error) {
	rc, err := openZipEntry(data, "word/document.xml")
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return xmlParagraphs(rc, "p")
}

// extractODT parses an .odt upload by reading content.xml from the ZIP
// archive. Both <text:p> and <text:h> elements become output lines.
func extractODT(data []byte) (string, error) {
	rc, err := openZipEntry(data, "content.xml")
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return xmlParagraphs(rc, "p", "h")
}

func openZipEntry(data []byte, name string) (io.ReadCloser, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", name, err)
			}
			return rc, nil
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// xmlParagraphs streams an XML document and emits the character data of
// every element whose local name is in elems, one line per element.
func xmlParagraphs(r io.Reader, elems ...string) (string, error) {
	wanted := make(map[string]bool, len(elems))
	for _, e := range elems {
		wanted[e] = true
	}

	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	var current strings.Builder
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if wanted[t.Name.Local] {
				if depth == 0 {
					current.Reset()
				}
				depth++
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(t)
			}
		case xml.EndElement:
			if wanted[t.Name.Local] && depth > 0 {
				depth--
				if depth == 0 {
					if text := strings.TrimSpace(current.String()); text != "" {
						sb.WriteString(text)
						sb.WriteByte('\n')
					}
				}
			}
		}
	}
	return sb.String(), nil
}
