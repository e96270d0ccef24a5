package mcmpi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/schollz/progressbar/v3"
)

// Fetcher retrieves the content at a url.
type Fetcher interface {
	// Fetch returns the body at url and its size, or -1 when the size is unknown.
	Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// HTTPFetcher is a Fetcher for http and https urls.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch does a single GET request. Any response status of 300 or higher is an error.
func (h *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, 0, fmt.Errorf("failed downloading %s: %s", url, resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

// UserAgent returns the User-Agent header value for version. Versions that are valid semver are
// normalized, so "v1.2.0" and "1.2" both become "mcmpi/1.2.0".
func UserAgent(version string) string {
	ver, err := semver.NewVersion(version)
	if err != nil {
		return "mcmpi"
	}
	return "mcmpi/" + ver.String()
}

// downloadFile fetches url into targetPath, replacing any existing file. The content is written to a
// temporary file next to targetPath first so an interrupted download never leaves a truncated archive
// that a later run would mistake for a complete one. When progress is not nil a progress bar is
// rendered to it.
func downloadFile(ctx context.Context, fetcher Fetcher, url, targetPath string, progress io.Writer) (errOut error) {
	err := os.MkdirAll(filepath.Dir(targetPath), 0o755)
	if err != nil {
		return newError(ErrDownload, targetPath, err)
	}
	body, size, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return newError(ErrDownload, url, err)
	}
	defer deferErr(&errOut, func() error {
		closeErr := body.Close()
		if closeErr != nil {
			return newError(ErrDownload, url, closeErr)
		}
		return nil
	})

	partPath := targetPath + ".part"
	err = writePart(partPath, body, size, progress)
	if err != nil {
		_ = os.Remove(partPath)
		return newError(ErrDownload, url, err)
	}
	err = os.Rename(partPath, targetPath)
	if err != nil {
		_ = os.Remove(partPath)
		return newError(ErrDownload, targetPath, err)
	}
	return nil
}

func writePart(partPath string, body io.Reader, size int64, progress io.Writer) (errOut error) {
	out, err := os.Create(partPath)
	if err != nil {
		return err
	}
	defer deferErr(&errOut, out.Close)
	var writer io.Writer = out
	if progress != nil {
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer deferErr(&errOut, bar.Finish)
		writer = io.MultiWriter(out, bar)
	}
	_, err = io.Copy(writer, body)
	return err
}
