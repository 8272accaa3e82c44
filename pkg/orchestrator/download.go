package orchestrator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// rewriteGitHubBlobURL rewrites a GitHub "blob" URL to its "raw"
// equivalent so the download step fetches file bytes, not an HTML page
// (spec §6.4).
func rewriteGitHubBlobURL(url string) string {
	if strings.Contains(url, "github.com") && strings.Contains(url, "/blob/") {
		return strings.Replace(url, "/blob/", "/raw/", 1)
	}
	return url
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// localPathOf strips an optional file:// scheme from a source_uri/
// datalake_raw_uri value so it can be stat'd as a filesystem path.
func localPathOf(s string) string {
	return strings.TrimPrefix(s, "file://")
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func downloadFile(ctx context.Context, client *http.Client, url, dst string) error {
	url = rewriteGitHubBlobURL(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// materializeSource resolves the local PDF path for row, following the
// priority order of spec §4.7 step d.
func (o *Orchestrator) materializeSource(ctx context.Context, docID, datalakeRawURI, sourceURI string) (string, error) {
	folder := filepath.Join(o.datalakeRoot, docID)
	dest := filepath.Join(folder, "source.pdf")

	if fileExists(dest) {
		return dest, nil
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create datalake folder: %w", err)
	}

	if rawPath := localPathOf(datalakeRawURI); fileExists(rawPath) {
		if err := copyFile(rawPath, dest); err == nil {
			return dest, nil
		}
	}

	if srcPath := localPathOf(sourceURI); !isHTTPURL(sourceURI) && fileExists(srcPath) {
		if err := copyFile(srcPath, dest); err == nil {
			return dest, nil
		}
	}

	if isHTTPURL(sourceURI) {
		if err := downloadFile(ctx, o.httpClient, sourceURI, dest); err == nil {
			return dest, nil
		}
	}

	return "", fmt.Errorf("could not access PDF file")
}
