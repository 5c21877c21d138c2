package downloads

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Update is one progress report from an in-flight fetch.
type Update struct {
	Progress  float64
	Done      bool
	Err       error
	LocalPath string
}

// Fetcher streams a URL to the download directory.
type Fetcher struct {
	client *resty.Client
	dir    string
}

// NewFetcher creates a fetcher writing into dir.
func NewFetcher(dir string) *Fetcher {
	return &Fetcher{
		client: resty.New().SetDoNotParseResponse(true),
		dir:    dir,
	}
}

// FileNameFor derives a display file name from a download URL.
func FileNameFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "download"
	}
	return name
}

// Fetch downloads rawURL, calling report with progress in [0,1] and a
// final Done update. report is invoked from the fetch goroutine; callers
// are expected to re-post onto the UI loop before mutating the registry.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, report func(Update)) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		report(Update{Done: true, Err: err})
		return
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 400 {
		report(Update{Done: true, Err: fmt.Errorf("server returned %s", resp.Status())})
		return
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		report(Update{Done: true, Err: err})
		return
	}
	dest := uniquePath(f.dir, FileNameFor(rawURL))
	out, err := os.Create(dest)
	if err != nil {
		report(Update{Done: true, Err: err})
		return
	}
	defer out.Close()

	total := resp.RawResponse.ContentLength
	var written int64
	buf := make([]byte, 64*1024)
	lastReport := time.Now()

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				report(Update{Done: true, Err: werr})
				return
			}
			written += int64(n)
			if total > 0 && time.Since(lastReport) > 100*time.Millisecond {
				report(Update{Progress: float64(written) / float64(total)})
				lastReport = time.Now()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			report(Update{Done: true, Err: readErr})
			return
		}
	}

	report(Update{Progress: 1, Done: true, LocalPath: dest})
}

// uniquePath avoids clobbering an existing file by suffixing " (n)".
func uniquePath(dir, name string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
	}
}
