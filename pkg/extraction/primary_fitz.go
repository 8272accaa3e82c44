package extraction

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// FitzEngine is the default PrimaryEngine, named after the "fitz" method
// tag used throughout this pipeline and backed by ledongthuc/pdf (spec's
// "PyMuPDF/fitz"-equivalent primary renderer, treated per spec §1 as a
// pluggable engine behind PrimaryEngine/PrimaryDocument).
type FitzEngine struct{}

func (FitzEngine) Open(path string) (PrimaryDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return &fitzDocument{path: path, needsPassword: true}, nil
	}
	return &fitzDocument{file: f, reader: r, path: path}, nil
}

type fitzDocument struct {
	file          *pdf.File
	reader        *pdf.Reader
	path          string
	needsPassword bool
	authenticated bool
}

func (d *fitzDocument) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

func (d *fitzDocument) NeedsPassword() bool {
	return d.needsPassword && !d.authenticated
}

func (d *fitzDocument) Authenticate(password string) bool {
	if !d.needsPassword {
		d.authenticated = true
		return true
	}

	f, r, err := pdf.NewReaderEncrypted(d.path, func() string { return password })
	if err != nil {
		return false
	}
	d.file = f
	d.reader = r
	d.authenticated = true
	return true
}

func (d *fitzDocument) NumPages() int {
	if d.reader == nil {
		return 0
	}
	return d.reader.NumPage()
}

func (d *fitzDocument) PageText(page int) (string, Layout, error) {
	if d.reader == nil {
		return "", Layout{}, fmt.Errorf("document not open")
	}

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", Layout{}, fmt.Errorf("page %d not found", page)
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", Layout{}, err
	}

	layout := layoutFromPage(p)
	return text, layout, nil
}

// layoutFromPage builds a coarse Layout descriptor for a primary-path page.
// ledongthuc/pdf exposes plain text extraction rather than a full
// block/line/span tree, so every primary-path page is reported as US Letter
// (612x792) with rotation 0 and no blocks; the page's MediaBox is not read.
// Only OCR's word-level results produce the grouped block/line/span layout.
func layoutFromPage(p pdf.Page) Layout {
	width, height := 612.0, 792.0 // US Letter, used for every page.
	return Layout{
		Width:    width,
		Height:   height,
		Rotation: 0,
		Blocks:   nil,
	}
}
