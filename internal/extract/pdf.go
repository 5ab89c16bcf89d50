package extract

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// extractPDF reads per-page plain text with ledongthuc/pdf (pdfcpu has no
// text-extraction API, only structural/page-count operations) and the
// first embedded page-1 image as a cover candidate.
func extractPDF(path string) (*Result, error) {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdf page count: %w", err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var pages []Page
	var cover image.Image
	n := reader.NumPage()
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if i == 1 {
			cover = firstPageImage(page)
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	return &Result{
		Pages:     pages,
		PageCount: pageCount,
		Cover:     cover,
	}, nil
}

// firstPageImage returns the first sufficiently large bitmap XObject on a
// page, used as a cover-image candidate for PDFs that embed one on their
// first page (common for scanned or cover-inclusive books).
func firstPageImage(page pdf.Page) (img image.Image) {
	defer func() {
		// ledongthuc/pdf panics on some unsupported filter combinations;
		// treat that as "no usable cover image" rather than failing extraction.
		if recover() != nil {
			img = nil
		}
	}()

	resources := page.Resources()
	if resources.IsNull() {
		return nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return nil
	}

	for _, name := range xobjects.Keys() {
		xobj := xobjects.Key(name)
		if xobj.Key("Subtype").Name() != "Image" {
			continue
		}
		width := int(xobj.Key("Width").Int64())
		height := int(xobj.Key("Height").Int64())
		if width < 64 || height < 64 {
			continue
		}
		filter := xobj.Key("Filter").Name()
		if filter != "DCTDecode" {
			continue // only JPEG streams are decoded directly here
		}
		// xobj.Reader() calls ledongthuc/pdf's filter chain, which is known
		// to panic on some DCTDecode streams; the deferred recover above
		// turns that into "no cover found" rather than failing extraction.
		decoded, err := decodeJPEGStream(xobj.Reader())
		if err != nil {
			continue
		}
		return decoded
	}
	return nil
}

func decodeJPEGStream(rc io.ReadCloser) (image.Image, error) {
	defer rc.Close()
	return jpeg.Decode(rc)
}
