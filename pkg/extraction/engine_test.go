package extraction

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	needsPassword bool
	correctPw     string
	authenticated bool
	numPages      int
	pageText      map[int]string
	pageErr       map[int]error
}

func (d *fakeDoc) Close() error         { return nil }
func (d *fakeDoc) NeedsPassword() bool  { return d.needsPassword && !d.authenticated }
func (d *fakeDoc) NumPages() int        { return d.numPages }
func (d *fakeDoc) Authenticate(pw string) bool {
	if !d.needsPassword {
		d.authenticated = true
		return true
	}
	if pw == d.correctPw {
		d.authenticated = true
		return true
	}
	return false
}
func (d *fakeDoc) PageText(page int) (string, Layout, error) {
	if err, ok := d.pageErr[page]; ok && err != nil {
		return "", Layout{}, err
	}
	return d.pageText[page], Layout{Width: 612, Height: 792}, nil
}

type fakePrimary struct {
	doc *fakeDoc
}

func (p *fakePrimary) Open(path string) (PrimaryDocument, error) {
	return p.doc, nil
}

type fakeOCR struct {
	available bool
	text      string
	err       error
}

func (o *fakeOCR) Available() bool { return o.available }
func (o *fakeOCR) Recognize(_ context.Context, _ string, _ int, _ int) (string, Layout, error) {
	if o.err != nil {
		return "", Layout{}, o.err
	}
	return o.text, Layout{}, nil
}

func goodText(n int) string {
	return strings.Repeat(fmt.Sprintf("page %d has a reasonable amount of ordinary readable text. ", n), 10)
}

func TestExtractPlainSuccessUnencrypted(t *testing.T) {
	doc := &fakeDoc{numPages: 3, pageText: map[int]string{1: goodText(1), 2: goodText(2), 3: goodText(3)}}
	eng := New(&fakePrimary{doc: doc}, nil, 10, 0, nil)

	result := eng.Extract(context.Background(), "/tmp/a.pdf", nil)
	require.True(t, result.Success)
	assert.Equal(t, 3, result.TotalPages)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, MethodFitz, result.Pages[i].Method)
	}
}

func TestExtractWrongThenRightPassword(t *testing.T) {
	doc := &fakeDoc{needsPassword: true, correctPw: "csv-pw", numPages: 1, pageText: map[int]string{1: goodText(1)}}
	eng := New(&fakePrimary{doc: doc}, nil, 10, 0, nil)

	wrong := "wrong-pw"
	right := "csv-pw"
	result := eng.Extract(context.Background(), "/tmp/a.pdf", []*string{&wrong, &right})

	require.True(t, result.Success)
	assert.Equal(t, 2, result.AttemptsMade)
	require.NotNil(t, result.PasswordUsed)
	assert.Equal(t, "csv-pw", *result.PasswordUsed)
}

func TestExtractAllPasswordsFail(t *testing.T) {
	doc := &fakeDoc{needsPassword: true, correctPw: "the-real-one", numPages: 1}
	eng := New(&fakePrimary{doc: doc}, nil, 10, 0, nil)

	a, b, c := "a", "b", "c"
	result := eng.Extract(context.Background(), "/tmp/a.pdf", []*string{&a, &b, &c})

	require.False(t, result.Success)
	assert.True(t, result.PasswordRequired)
	assert.Equal(t, 3, result.AttemptsMade)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, result.SuggestedPasswords)
}

func TestExtractOCRFallbackOnGateFailure(t *testing.T) {
	doc := &fakeDoc{numPages: 2, pageText: map[int]string{
		1: goodText(1),
		2: strings.Repeat("\x01\x02\x03garbage", 20),
	}}
	ocr := &fakeOCR{available: true, text: goodText(2)}
	eng := New(&fakePrimary{doc: doc}, ocr, 10, 0, nil)

	result := eng.Extract(context.Background(), "/tmp/a.pdf", nil)
	require.True(t, result.Success)
	assert.Equal(t, MethodFitz, result.Pages[1].Method)
	assert.Equal(t, MethodTesseract, result.Pages[2].Method)
}

func TestExtractHardFailureWhenOCRUnavailable(t *testing.T) {
	doc := &fakeDoc{numPages: 1, pageErr: map[int]error{1: fmt.Errorf("primary raised")}}
	eng := New(&fakePrimary{doc: doc}, nil, 10, 0, nil)

	result := eng.Extract(context.Background(), "/tmp/a.pdf", nil)
	require.True(t, result.Success) // auth succeeded; per-page failure doesn't fail the document
	assert.Equal(t, MethodFailed, result.Pages[1].Method)
	assert.NotEmpty(t, result.Pages[1].Error)
}

func TestExtractRespectsMaxPages(t *testing.T) {
	doc := &fakeDoc{numPages: 10, pageText: map[int]string{1: goodText(1), 2: goodText(2)}}
	eng := New(&fakePrimary{doc: doc}, nil, 10, 2, nil)

	result := eng.Extract(context.Background(), "/tmp/a.pdf", nil)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.TotalPages)
}
