// Package extract implements the opaque "extract(path) -> pages, metadata,
// cover" capability for PDF and EPUB source files. Text extraction itself
// (pdf.go, epub.go) is grounded on the retrieved pack's PDF parser and
// stdlib archive/zip EPUB handling; cover resize (cover.go) is grounded on
// golang.org/x/image/draw.
package extract

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// Page is one page (PDF) or chapter (EPUB) of extracted text, in book order.
type Page struct {
	Number int
	Text   string
	// Chapter is the enclosing chapter/section title. Neither the PDF nor
	// the EPUB extractor sets it, so it is always empty.
	Chapter string
}

// Metadata is whatever bibliographic data the source file itself carries.
// Fields are left empty when the format doesn't expose them; the caller
// (the Extract stage) decides whether to trust them over a Book's existing
// values.
type Metadata struct {
	Title  string
	Author string
}

// Result is what one call to Extract produces.
type Result struct {
	Pages     []Page
	Metadata  Metadata
	PageCount int
	Cover     image.Image // nil if the source carries no cover image
}

// Extract dispatches to the PDF or EPUB extractor by file extension.
func Extract(path string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".epub":
		return extractEPUB(path)
	default:
		return nil, fmt.Errorf("extract: unsupported file type %q", path)
	}
}
