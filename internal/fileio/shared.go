package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReadRows picks a parser by extension and returns the raw cell grid, header
// row first.
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(r)
	case ".xls":
		return readXLS(r)
	case ".csv":
		return readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// DecodeText converts a payload of unknown charset to UTF-8. UTF-8 is
// assumed when detection is inconclusive; Windows-1252 (the usual legacy
// export encoding) and Windows-1251 are transcoded.
func DecodeText(b []byte) string {
	peek := b
	if len(peek) > 2048 {
		peek = peek[:2048]
	}
	cs := "utf-8"
	if len(peek) > 0 {
		if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
			cs = strings.ToLower(det.Charset)
		}
	}

	var cm *charmap.Charmap
	switch cs {
	case "windows-1252", "iso-8859-1":
		cm = charmap.Windows1252
	case "windows-1251", "cp1251":
		cm = charmap.Windows1251
	}
	if cm != nil {
		if out, _, err := transform.Bytes(cm.NewDecoder(), b); err == nil {
			return string(out)
		}
	}
	return string(b)
}

func normalizeCell(s string) string { return strings.TrimSpace(s) }
