// Package media resolves legacy asset filenames to destination media ids.
//
// A Fetcher loads raw bytes from a pre-downloaded local directory or over
// HTTP from the legacy asset host. A Cache fronts the destination upload
// endpoint with a sqlite-backed filename mapping so each asset is uploaded
// at most once across runs.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sportsdesk/cmx/internal/shared"
)

// Fetcher retrieves raw asset bytes. The local directory is checked first
// when configured; misses fall through to the remote base URL.
type Fetcher struct {
	baseDir string
	baseURL string
	client  *http.Client
	logger  *log.Logger

	attempts int
	delay    time.Duration
}

// NewFetcher builds a Fetcher from media settings. A nil client gets a
// default with a 30 second timeout.
func NewFetcher(cfg shared.MediaConfig, client *http.Client, logger *log.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Fetcher{
		baseDir:  cfg.BaseDir,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   client,
		logger:   logger,
		attempts: 3,
		delay:    2 * time.Second,
	}
}

// CleanFilename reduces a legacy asset reference to a bare filename: the
// query string is dropped, percent-encoding decoded, directories stripped,
// case folded, and a missing extension defaults to .jpg. Cache keys, local
// reads and remote fetches all go through this one normalization.
func CleanFilename(raw string) string {
	name := raw
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return ""
	}
	if path.Ext(name) == "" {
		name += ".jpg"
	}
	return name
}

// Fetch returns the asset bytes for a legacy filename. Local reads are
// attempted once; remote fetches retry on transport and server errors.
func (f *Fetcher) Fetch(ctx context.Context, filename string) ([]byte, error) {
	name := CleanFilename(filename)
	if name == "" {
		return nil, fmt.Errorf("%w: empty filename", shared.ErrMediaUnavailable)
	}

	if f.baseDir != "" {
		data, err := os.ReadFile(filepath.Join(f.baseDir, name))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: read %s: %v", shared.ErrMediaUnavailable, name, err)
		}
	}

	if f.baseURL == "" {
		return nil, fmt.Errorf("%w: %s not found locally and no remote base configured", shared.ErrMediaUnavailable, name)
	}

	var data []byte
	err := shared.Retry(ctx, f.attempts, f.delay, func() error {
		var fetchErr error
		data, fetchErr = f.fetchRemote(ctx, name)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", shared.ErrMediaUnavailable, name, err)
	}
	return data, nil
}

// Download fetches an asset into destDir and returns the written path.
// Existing files are left alone so interrupted bulk fetches can resume.
func (f *Fetcher) Download(ctx context.Context, filename, destDir string) (string, error) {
	name := CleanFilename(filename)
	if name == "" {
		return "", fmt.Errorf("%w: empty filename", shared.ErrMediaUnavailable)
	}

	dest := filepath.Join(destDir, name)
	if _, err := os.Stat(dest); err == nil {
		f.logger.Debug("skipping existing asset", "file", name)
		return dest, nil
	}

	data, err := f.Fetch(ctx, filename)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	f.logger.Info("downloaded asset", "file", name, "bytes", len(data))
	return dest, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, name string) ([]byte, error) {
	endpoint := f.baseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, name)
	}
	return io.ReadAll(resp.Body)
}
