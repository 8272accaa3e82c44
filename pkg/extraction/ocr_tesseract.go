package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// minWordConfidence is the OCR word-confidence filter of spec §4.4.1.
const minWordConfidence = 30.0

// lineGapThreshold / blockGapThreshold are the vertical-proximity
// thresholds that group OCR words into lines and lines into blocks,
// spec §4.4.1.
const (
	lineGapThreshold  = 5.0
	blockGapThreshold = 20.0
)

// TesseractEngine shells out to the tesseract CLI in TSV mode, the
// idiomatic cgo-free way to drive Tesseract from Go. Rasterization at 2x
// zoom is delegated to a Rasterizer so the OCR engine itself stays a thin
// process wrapper.
type TesseractEngine struct {
	Rasterizer Rasterizer
	Binary     string // defaults to "tesseract" when empty
}

// Rasterizer renders one PDF page to a standalone image file at the given
// zoom factor, returning the image path.
type Rasterizer interface {
	RasterizePage(ctx context.Context, pdfPath string, page int, zoom float64) (imagePath string, cleanup func(), err error)
}

func (t *TesseractEngine) Available() bool {
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	_, err := exec.LookPath(bin)
	return err == nil && t.Rasterizer != nil
}

func (t *TesseractEngine) Recognize(ctx context.Context, pdfPath string, page int, psm int) (string, Layout, error) {
	imagePath, cleanup, err := t.Rasterizer.RasterizePage(ctx, pdfPath, page, 2.0)
	if err != nil {
		return "", Layout{}, fmt.Errorf("rasterize page %d: %w", page, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}

	cmd := exec.CommandContext(ctx, bin, imagePath, "stdout", "-l", "eng", "--psm", strconv.Itoa(psm), "tsv")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", Layout{}, fmt.Errorf("tesseract: %w", err)
	}

	words, width, height := parseTSV(stdout.String())
	text := wordsToText(words)
	layout := groupLayout(words, width, height)
	return text, layout, nil
}

type ocrWord struct {
	text       string
	left, top  float64
	width, ht  float64
	confidence float64
}

// parseTSV parses tesseract's `tsv` output format, filtering words below
// minWordConfidence (spec §4.4.1).
func parseTSV(out string) ([]ocrWord, float64, float64) {
	var words []ocrWord
	var maxRight, maxBottom float64

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < minWordConfidence {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		left, _ := strconv.ParseFloat(cols[6], 64)
		top, _ := strconv.ParseFloat(cols[7], 64)
		width, _ := strconv.ParseFloat(cols[8], 64)
		height, _ := strconv.ParseFloat(cols[9], 64)

		words = append(words, ocrWord{text: text, left: left, top: top, width: width, ht: height, confidence: conf})
		if right := left + width; right > maxRight {
			maxRight = right
		}
		if bottom := top + height; bottom > maxBottom {
			maxBottom = bottom
		}
	}

	return words, maxRight, maxBottom
}

func wordsToText(words []ocrWord) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.text)
	}
	return strings.Join(parts, " ")
}

// groupLayout groups word-level OCR results into lines by vertical
// proximity (Δy ≤ 5) and lines into blocks by larger vertical gaps
// (Δy > 20), spec §4.4.1. Rotation and font flags are zero for OCR spans.
func groupLayout(words []ocrWord, width, height float64) Layout {
	if len(words) == 0 {
		return Layout{Width: width, Height: height}
	}

	sorted := make([]ocrWord, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].top < sorted[j].top })

	var lines []Line
	var currentLine []ocrWord
	lastTop := sorted[0].top

	flushLine := func() {
		if len(currentLine) == 0 {
			return
		}
		lines = append(lines, lineFromWords(currentLine))
		currentLine = nil
	}

	for _, w := range sorted {
		if len(currentLine) > 0 && (w.top-lastTop) > lineGapThreshold {
			flushLine()
		}
		currentLine = append(currentLine, w)
		lastTop = w.top
	}
	flushLine()

	var blocks []Block
	var currentBlock []Line
	var lastLineBottom float64
	if len(lines) > 0 {
		lastLineBottom = lines[0].BBox[3]
	}

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		blocks = append(blocks, blockFromLines(currentBlock))
		currentBlock = nil
	}

	for _, l := range lines {
		if len(currentBlock) > 0 && (l.BBox[1]-lastLineBottom) > blockGapThreshold {
			flushBlock()
		}
		currentBlock = append(currentBlock, l)
		lastLineBottom = l.BBox[3]
	}
	flushBlock()

	return Layout{Width: width, Height: height, Rotation: 0, Blocks: blocks}
}

func lineFromWords(words []ocrWord) Line {
	spans := make([]Span, 0, len(words))
	minX, minY, maxX, maxY := words[0].left, words[0].top, words[0].left+words[0].width, words[0].top+words[0].ht

	for _, w := range words {
		spans = append(spans, Span{
			Text: w.text,
			BBox: [4]float64{w.left, w.top, w.left + w.width, w.top + w.ht},
		})
		if w.left < minX {
			minX = w.left
		}
		if w.top < minY {
			minY = w.top
		}
		if right := w.left + w.width; right > maxX {
			maxX = right
		}
		if bottom := w.top + w.ht; bottom > maxY {
			maxY = bottom
		}
	}

	return Line{BBox: [4]float64{minX, minY, maxX, maxY}, Spans: spans}
}

func blockFromLines(lines []Line) Block {
	minX, minY, maxX, maxY := lines[0].BBox[0], lines[0].BBox[1], lines[0].BBox[2], lines[0].BBox[3]
	for _, l := range lines {
		if l.BBox[0] < minX {
			minX = l.BBox[0]
		}
		if l.BBox[1] < minY {
			minY = l.BBox[1]
		}
		if l.BBox[2] > maxX {
			maxX = l.BBox[2]
		}
		if l.BBox[3] > maxY {
			maxY = l.BBox[3]
		}
	}
	return Block{BBox: [4]float64{minX, minY, maxX, maxY}, Lines: lines}
}
