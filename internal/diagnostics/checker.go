package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ocr-worker/internal/config"
	"ocr-worker/internal/langdata"
)

// Status classifies the outcome of one startup check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Item is the result of one startup check.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Report combines all startup checks.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	HasFailures bool      `json:"hasFailures"`
	Items       []Item    `json:"items"`
}

// Checker validates the filesystem environment the worker depends on.
type Checker struct {
	stat       func(string) (os.FileInfo, error)
	readDir    func(string) ([]os.DirEntry, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		stat:       os.Stat,
		readDir:    os.ReadDir,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		stat:       stat,
		readDir:    readDir,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings config.Settings) Report {
	items := []Item{
		c.checkCacheDir(settings.CacheDir),
		c.checkTraineddata(settings.CacheDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == StatusFail {
			hasFailures = true
			break
		}
	}

	return Report{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkCacheDir validates traineddata cache existence and write access.
func (c *Checker) checkCacheDir(cacheDir string) Item {
	item := Item{ID: "cache_dir", Name: "Traineddata cache"}

	if strings.TrimSpace(cacheDir) == "" {
		item.Status = StatusFail
		item.Message = "Cache directory is empty."
		item.Hint = "Set cacheDir so traineddata downloads have somewhere to land."
		return item
	}

	if err := c.mkdirAll(cacheDir, 0o755); err != nil {
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Cannot create cache directory: %s", cacheDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(cacheDir, ".write-check-*")
	if err != nil {
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Cache directory is not writable: %s", cacheDir)
		item.Hint = "Choose a writable directory for traineddata downloads."
		return item
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = StatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", cacheDir)
	return item
}

// checkTraineddata reports which language files are already cached, naming
// the ones the built-in catalog knows about.
func (c *Checker) checkTraineddata(cacheDir string) Item {
	item := Item{ID: "traineddata", Name: "Cached languages"}

	entries, err := c.readDir(cacheDir)
	if err != nil {
		item.Status = StatusWarn
		item.Message = fmt.Sprintf("Cannot read cache directory: %s", cacheDir)
		item.Hint = "Languages will be downloaded on the first load-language action."
		return item
	}

	known := map[string]string{}
	for _, opt := range langdata.Catalog(cacheDir) {
		if opt.Downloaded {
			known[opt.FileName] = opt.Name
		}
	}

	langs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".traineddata") {
			continue
		}
		code := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if name, ok := known[entry.Name()]; ok {
			langs = append(langs, fmt.Sprintf("%s (%s)", code, name))
		} else {
			langs = append(langs, code)
		}
	}
	if len(langs) == 0 {
		item.Status = StatusWarn
		item.Message = "No traineddata files cached yet."
		item.Hint = "Dispatch a load-language action before initialize."
		return item
	}

	item.Status = StatusPass
	item.Message = fmt.Sprintf("Cached languages: %s", strings.Join(langs, ", "))
	return item
}
