package extraction

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/objectstore"
)

const pageContentType = "text/markdown; charset=utf-8"

// Persist writes one artifact per emitted page (including method=failed)
// to store under <doc_id>/extracted_text/page_<NNNN>_<method>.md, spec
// §3.3, §4.4.3. It returns the page -> written key map.
func Persist(ctx context.Context, store objectstore.Store, docID string, pages map[int]PageResult) (map[int]string, error) {
	written := make(map[int]string, len(pages))

	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		page := pages[n]
		key := fmt.Sprintf("%s/extracted_text/page_%04d_%s.md", docID, n, page.Method)
		body := fmt.Sprintf("# Page %d - %s\n\n%s", n, strings.ToUpper(page.Method), page.Text)

		if err := store.Put(ctx, key, []byte(body), pageContentType); err != nil {
			return written, err
		}
		written[n] = key
	}

	return written, nil
}

// TextURI computes the logical directory under which a document's pages
// live, for either a local root or an s3://bucket/prefix root (spec §4.7
// step h).
func TextURI(outputRoot, docID string) string {
	root := strings.TrimSuffix(outputRoot, "/")
	return root + "/" + docID + "/extracted_text"
}
