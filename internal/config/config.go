package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultLogLevel = "info"
	DefaultLangURL  = "https://tessdata.projectnaptha.com/4.0.0"
)

// Settings contains worker runtime configuration.
type Settings struct {
	// CorePath is handed to the engine factory as the tessdata prefix.
	CorePath string `yaml:"corePath"`
	// CacheDir stores downloaded traineddata files.
	CacheDir string `yaml:"cacheDir"`
	// LangBaseURL is the traineddata download origin.
	LangBaseURL string `yaml:"langBaseUrl"`
	LogLevel    string `yaml:"logLevel"`
	// UseStubEngine replaces the Tesseract bindings with the stub engine.
	UseStubEngine bool `yaml:"useStubEngine"`
	// WorkerID overrides the generated worker correlation id.
	WorkerID string `yaml:"workerId"`
}

// DefaultSettings returns baseline configuration for first launch.
func DefaultSettings() Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return Settings{
		CorePath:    filepath.Join(homeDir, ".ocr-worker", "tessdata"),
		CacheDir:    filepath.Join(homeDir, ".ocr-worker", "tessdata"),
		LangBaseURL: DefaultLangURL,
		LogLevel:    DefaultLogLevel,
	}
}

// Validate applies defaults and rejects unusable values.
func (s *Settings) Validate() error {
	if s.CacheDir == "" {
		return fmt.Errorf("config: cache directory is required")
	}
	if s.LangBaseURL == "" {
		s.LangBaseURL = DefaultLangURL
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", s.LogLevel)
	}
	return nil
}

// Loader loads settings from a file and environment variables. Tests can
// override Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load reads the settings file when path is non-empty, applies environment
// overrides, and validates the result.
func (l Loader) Load(path string) (Settings, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	settings := DefaultSettings()
	if path != "" {
		loaded, err := NewYAMLStore(path).Load()
		if err != nil {
			return Settings{}, err
		}
		settings = loaded
	}

	overrideString(l.Lookup, "OCR_WORKER_CORE_PATH", &settings.CorePath)
	overrideString(l.Lookup, "OCR_WORKER_CACHE_DIR", &settings.CacheDir)
	overrideString(l.Lookup, "OCR_WORKER_LANG_BASE_URL", &settings.LangBaseURL)
	overrideString(l.Lookup, "OCR_WORKER_LOG_LEVEL", &settings.LogLevel)
	overrideString(l.Lookup, "OCR_WORKER_ID", &settings.WorkerID)
	if value, ok := l.Lookup("OCR_WORKER_STUB_ENGINE"); ok {
		settings.UseStubEngine = value == "1" || strings.EqualFold(value, "true")
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}
