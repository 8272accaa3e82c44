package extraction

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// PopplerRasterizer rasterizes PDF pages via the pdftoppm CLI (part of
// poppler-utils), a common dependency-free way to get page images for OCR
// without linking against PyMuPDF/MuPDF.
type PopplerRasterizer struct {
	Binary string // defaults to "pdftoppm" when empty
}

func (r *PopplerRasterizer) binary() string {
	if r.Binary == "" {
		return "pdftoppm"
	}
	return r.Binary
}

func (r *PopplerRasterizer) RasterizePage(ctx context.Context, pdfPath string, page int, zoom float64) (string, func(), error) {
	dir, err := os.MkdirTemp("", "service1-ocr-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	outPrefix := filepath.Join(dir, "page")
	dpi := int(72 * zoom)

	cmd := exec.CommandContext(ctx, r.binary(),
		"-f", strconv.Itoa(page), "-l", strconv.Itoa(page),
		"-r", strconv.Itoa(dpi), "-png", pdfPath, outPrefix)
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("pdftoppm: %w", err)
	}

	candidates := []string{
		fmt.Sprintf("%s-%d.png", outPrefix, page),
		fmt.Sprintf("%s-%02d.png", outPrefix, page),
		fmt.Sprintf("%s-%03d.png", outPrefix, page),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, cleanup, nil
		}
	}

	cleanup()
	return "", nil, fmt.Errorf("pdftoppm produced no output for page %d", page)
}
