package langdata

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultBaseURL serves gzip-compressed traineddata files.
const DefaultBaseURL = "https://tessdata.projectnaptha.com/4.0.0"

const downloadTimeout = 10 * time.Minute

// Options tunes a single load request. Zero values fall back to the
// loader's configuration.
type Options struct {
	// CacheDir overrides the loader's cache directory.
	CacheDir string `json:"cachePath,omitempty"`
	// BaseURL overrides the download origin.
	BaseURL string `json:"langPath,omitempty"`
	// NoGzip fetches plain .traineddata files instead of .gz.
	NoGzip bool `json:"noGzip,omitempty"`
}

// Loader fetches traineddata files over HTTP and caches them on disk.
// Cached files are reused without refetching.
type Loader struct {
	log      *slog.Logger
	client   *http.Client
	baseURL  string
	cacheDir string
}

// NewLoader builds a loader writing into cacheDir. An empty baseURL falls
// back to DefaultBaseURL.
func NewLoader(logger *slog.Logger, cacheDir, baseURL string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Loader{
		log:      logger.With("component", "langdata"),
		client:   &http.Client{Timeout: downloadTimeout},
		baseURL:  baseURL,
		cacheDir: cacheDir,
	}
}

// NewLoaderForTests builds a loader with an injected HTTP client and origin.
func NewLoaderForTests(client *http.Client, baseURL, cacheDir string) *Loader {
	return &Loader{
		log:      slog.Default(),
		client:   client,
		baseURL:  baseURL,
		cacheDir: cacheDir,
	}
}

// Load ensures a traineddata file exists locally for every language code.
func (l *Loader) Load(ctx context.Context, langs []string, opts Options) error {
	cacheDir := l.cacheDir
	if opts.CacheDir != "" {
		cacheDir = opts.CacheDir
	}
	if cacheDir == "" {
		return fmt.Errorf("langdata: cache directory is not configured")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("langdata: create cache directory: %w", err)
	}

	baseURL := l.baseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}

	for _, lang := range langs {
		if lang == "" {
			continue
		}
		target := filepath.Join(cacheDir, lang+".traineddata")
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			l.log.Debug("traineddata cached", "lang", lang, "path", target)
			continue
		}
		if err := l.fetch(ctx, baseURL, lang, target, !opts.NoGzip); err != nil {
			return err
		}
		l.log.Info("traineddata downloaded", "lang", lang, "path", target)
	}
	return nil
}

// fetch downloads one traineddata file, decompressing when gzipped. The file
// lands under a temporary name first so a failed download never leaves a
// truncated traineddata behind.
func (l *Loader) fetch(ctx context.Context, baseURL, lang, target string, gzipped bool) error {
	url := fmt.Sprintf("%s/%s.traineddata", baseURL, lang)
	if gzipped {
		url += ".gz"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("langdata: build request for %s: %w", lang, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("langdata: fetch %s: %w", lang, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("langdata: fetch %s: unexpected status %s", lang, resp.Status)
	}

	var body io.Reader = resp.Body
	if gzipped {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("langdata: decompress %s: %w", lang, err)
		}
		defer gz.Close()
		body = gz
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+lang+"-*")
	if err != nil {
		return fmt.Errorf("langdata: create temp file for %s: %w", lang, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("langdata: write %s: %w", lang, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("langdata: close %s: %w", lang, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("langdata: move %s into cache: %w", lang, err)
	}
	return nil
}
