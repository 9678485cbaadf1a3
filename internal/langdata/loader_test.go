package langdata

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// TestLoadDownloadsAndCaches verifies a traineddata file is fetched once and
// reused from the cache afterwards.
func TestLoadDownloadsAndCaches(t *testing.T) {
	var requests atomic.Int64
	payload := []byte("eng model bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/eng.traineddata.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(gzipBytes(t, payload))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	loader := NewLoaderForTests(srv.Client(), srv.URL, cacheDir)

	require.NoError(t, loader.Load(context.Background(), []string{"eng"}, Options{}))
	got, err := os.ReadFile(filepath.Join(cacheDir, "eng.traineddata"))
	require.NoError(t, err)
	assert.Equal(t, payload, got, "gzip body should be decompressed on disk")

	require.NoError(t, loader.Load(context.Background(), []string{"eng"}, Options{}))
	assert.Equal(t, int64(1), requests.Load(), "cached file should not be refetched")
}

// TestNewLoaderUsesConfiguredOrigin verifies the constructor honors a custom
// download origin and only falls back to the default when none is given.
func TestNewLoaderUsesConfiguredOrigin(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(gzipBytes(t, []byte("eng model bytes")))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	loader := NewLoader(nil, cacheDir, srv.URL)

	require.NoError(t, loader.Load(context.Background(), []string{"eng"}, Options{}))
	assert.Equal(t, int64(1), hits.Load(), "configured origin should be contacted")
	_, err := os.Stat(filepath.Join(cacheDir, "eng.traineddata"))
	assert.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, NewLoader(nil, cacheDir, "").baseURL)
}

func TestLoadPlainWhenNoGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deu.traineddata" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("deu model bytes"))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	loader := NewLoaderForTests(srv.Client(), srv.URL, cacheDir)

	require.NoError(t, loader.Load(context.Background(), []string{"deu"}, Options{NoGzip: true}))
	got, err := os.ReadFile(filepath.Join(cacheDir, "deu.traineddata"))
	require.NoError(t, err)
	assert.Equal(t, []byte("deu model bytes"), got)
}

func TestLoadOptionsOverrideCacheDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gzipBytes(t, []byte("fra model bytes")))
	}))
	defer srv.Close()

	override := t.TempDir()
	loader := NewLoaderForTests(srv.Client(), srv.URL, t.TempDir())

	require.NoError(t, loader.Load(context.Background(), []string{"fra"}, Options{CacheDir: override}))
	_, err := os.Stat(filepath.Join(override, "fra.traineddata"))
	assert.NoError(t, err)
}

func TestLoadRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	loader := NewLoaderForTests(srv.Client(), srv.URL, t.TempDir())
	err := loader.Load(context.Background(), []string{"xyz"}, Options{})
	assert.ErrorContains(t, err, "unexpected status")
}

func TestLoadRequiresCacheDir(t *testing.T) {
	loader := NewLoaderForTests(http.DefaultClient, "http://unused.invalid", "")
	err := loader.Load(context.Background(), []string{"eng"}, Options{})
	assert.ErrorContains(t, err, "cache directory")
}

func TestLoadFailureLeavesNoPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Claim gzip but serve garbage so decompression fails.
		_, _ = w.Write([]byte("definitely not gzip"))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	loader := NewLoaderForTests(srv.Client(), srv.URL, cacheDir)

	require.Error(t, loader.Load(context.Background(), []string{"eng"}, Options{}))
	_, err := os.Stat(filepath.Join(cacheDir, "eng.traineddata"))
	assert.True(t, os.IsNotExist(err), "failed download must not leave a traineddata behind")
}

func TestCatalogMarksDownloaded(t *testing.T) {
	cacheDir := t.TempDir()
	engPath := filepath.Join(cacheDir, "eng.traineddata")
	require.NoError(t, os.WriteFile(engPath, []byte("model"), 0o644))

	options := Catalog(cacheDir)

	byCode := map[string]LanguageOption{}
	for _, opt := range options {
		byCode[opt.Code] = opt
	}
	assert.True(t, byCode["eng"].Downloaded)
	assert.Equal(t, engPath, byCode["eng"].LocalPath)
	assert.False(t, byCode["deu"].Downloaded)
	assert.Empty(t, byCode["deu"].LocalPath)
}
