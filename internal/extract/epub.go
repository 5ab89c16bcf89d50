package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"html"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"regexp"
	"strings"
)

// container.xml always points at the package document (the .opf file).
type epubContainer struct {
	Rootfiles struct {
		Rootfile struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// package.opf: metadata + manifest (every file in the book) + spine
// (reading order, by manifest id reference).
type epubPackage struct {
	Metadata struct {
		Title  []string `xml:"title"`
		Author []string `xml:"creator"`
		Meta   []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

var tagStrip = regexp.MustCompile(`(?s)<[^>]*>`)
var wsCollapse = regexp.MustCompile(`[ \t]+`)

func extractEPUB(path string) (*Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath, err := findOPFPath(files)
	if err != nil {
		return nil, err
	}
	pkg, err := readOPF(files, opfPath)
	if err != nil {
		return nil, err
	}

	base := zipDir(opfPath)
	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		hrefByID[item.ID] = item.Href
	}

	var pages []Page
	for i, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}
		text, err := readChapterText(files, zipJoin(base, href))
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i + 1, Text: text})
	}

	cover := findCoverImage(files, pkg, base)

	return &Result{
		Pages:     pages,
		PageCount: len(pages),
		Metadata: Metadata{
			Title:  firstOrEmpty(pkg.Metadata.Title),
			Author: firstOrEmpty(pkg.Metadata.Author),
		},
		Cover: cover,
	}, nil
}

func findOPFPath(files map[string]*zip.File) (string, error) {
	f, ok := files["META-INF/container.xml"]
	if !ok {
		return "", fmt.Errorf("epub missing META-INF/container.xml")
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open container.xml: %w", err)
	}
	defer rc.Close()

	var c epubContainer
	if err := xml.NewDecoder(rc).Decode(&c); err != nil {
		return "", fmt.Errorf("parse container.xml: %w", err)
	}
	if c.Rootfiles.Rootfile.FullPath == "" {
		return "", fmt.Errorf("container.xml missing rootfile path")
	}
	return c.Rootfiles.Rootfile.FullPath, nil
}

func readOPF(files map[string]*zip.File, opfPath string) (*epubPackage, error) {
	f, ok := files[opfPath]
	if !ok {
		return nil, fmt.Errorf("epub missing package document %q", opfPath)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open package document: %w", err)
	}
	defer rc.Close()

	var pkg epubPackage
	if err := xml.NewDecoder(rc).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("parse package document: %w", err)
	}
	return &pkg, nil
}

func readChapterText(files map[string]*zip.File, name string) (string, error) {
	f, ok := files[name]
	if !ok {
		return "", fmt.Errorf("epub missing referenced file %q", name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return htmlToText(string(raw)), nil
}

// htmlToText strips tags and unescapes entities. It's deliberately not a
// full HTML parser: XHTML chapter bodies are well-formed enough that tag
// stripping plus entity unescaping gives clean paragraph text, and pulling
// in a full parser for this alone isn't worth it.
func htmlToText(markup string) string {
	// drop non-content elements entirely so their text doesn't leak in
	for _, tag := range []string{"script", "style", "head"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		markup = re.ReplaceAllString(markup, "")
	}
	markup = regexp.MustCompile(`(?i)<br\s*/?>`).ReplaceAllString(markup, "\n")
	markup = regexp.MustCompile(`(?i)</p>`).ReplaceAllString(markup, "\n\n")
	text := tagStrip.ReplaceAllString(markup, " ")
	text = html.UnescapeString(text)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(wsCollapse.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func findCoverImage(files map[string]*zip.File, pkg *epubPackage, base string) image.Image {
	var href, mediaType string
	for _, item := range pkg.Manifest.Items {
		if strings.Contains(item.Properties, "cover-image") {
			href, mediaType = item.Href, item.MediaType
			break
		}
	}
	if href == "" {
		// EPUB2 fallback: <meta name="cover" content="<manifest-id>"/>
		var coverID string
		for _, m := range pkg.Metadata.Meta {
			if m.Name == "cover" {
				coverID = m.Content
				break
			}
		}
		for _, item := range pkg.Manifest.Items {
			if item.ID == coverID {
				href, mediaType = item.Href, item.MediaType
				break
			}
		}
	}
	if href == "" || !strings.HasPrefix(mediaType, "image/") {
		return nil
	}

	f, ok := files[zipJoin(base, href)]
	if !ok {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil
	}
	return img
}

func zipDir(name string) string {
	d := path.Dir(name)
	if d == "." {
		return ""
	}
	return d
}

func zipJoin(base, href string) string {
	if base == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(base, href))
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return strings.TrimSpace(ss[0])
}
