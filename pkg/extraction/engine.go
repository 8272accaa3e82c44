package extraction

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
)

// maxPasswordAttempts caps the authentication loop at 3 candidates,
// spec §4.4 step 1.
const maxPasswordAttempts = 3

// altPageSegmentationMode is the retry PSM used when a first OCR pass is
// too short or fails the quality gate, spec §4.4 step 3.
const altPageSegmentationMode = 6

// PrimaryDocument is an opened, possibly-authenticated PDF document.
type PrimaryDocument interface {
	Close() error
	// NeedsPassword reports whether the document requires a password at
	// all, independent of which candidate was supplied.
	NeedsPassword() bool
	// Authenticate attempts the given password (empty string for "no
	// password"); returns whether it succeeded.
	Authenticate(password string) bool
	NumPages() int
	// PageText returns the primary-path text and layout for the 1-based
	// page number. A non-nil error models the primary extractor raising.
	PageText(page int) (string, Layout, error)
}

// PrimaryEngine opens PDF files for the primary extraction path.
type PrimaryEngine interface {
	Open(path string) (PrimaryDocument, error)
}

// OCREngine rasterizes and recognizes a single page as a fallback.
type OCREngine interface {
	Available() bool
	// Recognize rasterizes page (1-based) at 2x zoom and runs OCR with the
	// given page-segmentation mode. A non-nil error models the OCR engine
	// raising.
	Recognize(ctx context.Context, path string, page int, psm int) (string, Layout, error)
}

// Engine is the extraction engine (C4), spec §4.4.
type Engine struct {
	primary       PrimaryEngine
	ocr           OCREngine
	minTextLength int
	maxPages      int
	ocrSem        *semaphore.Weighted
	logger        *log.Logger
}

// New builds an Engine. ocr may be nil to model "OCR unavailable" outright.
// The OCR engine is serialized with a weight-1 semaphore since the
// underlying recognizer is treated as non-thread-safe (spec §5).
func New(primary PrimaryEngine, ocr OCREngine, minTextLength, maxPages int, logger *log.Logger) *Engine {
	return &Engine{
		primary:       primary,
		ocr:           ocr,
		minTextLength: minTextLength,
		maxPages:      maxPages,
		ocrSem:        semaphore.NewWeighted(1),
		logger:        logger,
	}
}

// Extract runs the full algorithm of spec §4.4 against path, trying up to
// maxPasswordAttempts of candidates in order.
func (e *Engine) Extract(ctx context.Context, path string, candidates []*string) *Result {
	if len(candidates) > maxPasswordAttempts {
		candidates = candidates[:maxPasswordAttempts]
	}
	if len(candidates) == 0 {
		// No candidates at all means a single "try without a password" attempt.
		candidates = []*string{nil}
	}

	doc, passwordUsed, tried, ok := e.authenticate(path, candidates)
	if !ok {
		return &Result{
			Success:            false,
			PasswordRequired:   true,
			AttemptsMade:       len(tried),
			SuggestedPasswords: nonNilStrings(tried),
			ErrorMessage:       fmt.Sprintf("authentication failed after attempts_made=%d", len(tried)),
		}
	}
	defer doc.Close()

	total := doc.NumPages()
	if e.maxPages > 0 && e.maxPages < total {
		total = e.maxPages
	}

	pages := make(map[int]PageResult, total)
	for page := 1; page <= total; page++ {
		pages[page] = e.extractPage(ctx, doc, path, page)
	}

	return &Result{
		Success:      true,
		TotalPages:   total,
		PasswordUsed: passwordUsed,
		AttemptsMade: len(tried),
		Pages:        pages,
	}
}

func (e *Engine) authenticate(path string, candidates []*string) (PrimaryDocument, *string, []*string, bool) {
	var tried []*string

	for _, candidate := range candidates {
		tried = append(tried, candidate)

		doc, err := e.primary.Open(path)
		if err != nil {
			continue
		}

		if !doc.NeedsPassword() {
			return doc, candidate, tried, true
		}

		pw := ""
		if candidate != nil {
			pw = *candidate
		}
		if doc.Authenticate(pw) {
			return doc, candidate, tried, true
		}

		_ = doc.Close()
	}

	return nil, nil, tried, false
}

func (e *Engine) extractPage(ctx context.Context, doc PrimaryDocument, path string, page int) PageResult {
	text, layout, err := doc.PageText(page)

	primaryOK := err == nil && Gate(text) && PassesMinLength(text, e.minTextLength)
	if primaryOK {
		return PageResult{Text: text, Method: MethodFitz, Layout: layout}
	}

	if e.ocr == nil || !e.ocr.Available() {
		msg := "extraction failed and OCR is unavailable"
		if err != nil {
			msg = err.Error()
		}
		return PageResult{Method: MethodFailed, Error: msg}
	}

	ocrText, ocrLayout, ocrErr := e.recognize(ctx, path, page, 3)
	if ocrErr == nil && len(ocrText) >= 10 && Gate(ocrText) {
		return PageResult{Text: ocrText, Method: MethodTesseract, Layout: ocrLayout}
	}

	retryText, retryLayout, retryErr := e.recognize(ctx, path, page, altPageSegmentationMode)
	if retryErr != nil {
		return PageResult{Method: MethodFailed, Error: retryErr.Error()}
	}
	return PageResult{Text: retryText, Method: MethodTesseract, Layout: retryLayout}
}

func (e *Engine) recognize(ctx context.Context, path string, page, psm int) (string, Layout, error) {
	if err := e.ocrSem.Acquire(ctx, 1); err != nil {
		return "", Layout{}, err
	}
	defer e.ocrSem.Release(1)

	return e.ocr.Recognize(ctx, path, page, psm)
}

func nonNilStrings(candidates []*string) []string {
	var out []string
	for _, c := range candidates {
		if c != nil && *c != "" {
			out = append(out, *c)
		}
	}
	return out
}
