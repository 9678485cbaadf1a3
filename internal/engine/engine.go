package engine

import (
	"context"
	"errors"

	"ocr-worker/internal/imageenc"
)

// ErrNotLoaded is returned when an operation needs the engine module before a
// successful load.
var ErrNotLoaded = errors.New("engine: module not loaded")

// ErrNoSession is returned when an operation needs an initialized session.
var ErrNoSession = errors.New("engine: no active session")

// ErrDetectionFailed reports that orientation and script detection ran but
// could not classify the image.
var ErrDetectionFailed = errors.New("engine: orientation and script detection failed")

// Mode selects the recognition backend inside the engine, mirroring the
// Tesseract OEM values.
type Mode int

const (
	ModeLegacyOnly Mode = iota
	ModeLSTMOnly
	ModeLegacyLSTMCombined
	ModeDefault
)

// Factory constructs the engine module. onProgress receives values in [0,1]
// while the module bootstraps.
type Factory interface {
	Load(ctx context.Context, corePath string, onProgress func(float64)) (Module, error)
}

// Module is the loaded OCR engine capability. It is constructed once per
// worker and never torn down.
type Module interface {
	// NewSession returns a fresh, uninitialized session. Sessions are not
	// reusable across Init failures; construct a new one instead.
	NewSession() Session
}

// Session is a live handle into the engine bound to a language set and mode.
// All calls are blocking from the caller's perspective.
type Session interface {
	Init(langs string, mode Mode) error
	SetVariable(key, value string) error
	// Recognize runs recognition on the buffer. onProgress receives values
	// in [0,1] from the engine's native progress callback, when available.
	Recognize(ctx context.Context, buf *imageenc.Buffer, onProgress func(float64)) error
	// DetectOrientation runs orientation and script detection on the buffer.
	// A non-classifiable image yields ErrDetectionFailed.
	DetectOrientation(buf *imageenc.Buffer) (OSResult, error)
	// Text, HOCR, and Words expose the outputs of the last Recognize call.
	Text() (string, error)
	HOCR() (string, error)
	Words() ([]Word, error)
	End() error
}

// Word is one recognized token with pixel bounds and confidence in [0,1].
type Word struct {
	Text       string
	X0, Y0     int
	X1, Y1     int
	Confidence float64
}

// OSResult carries raw orientation and script detection output. The
// orientation id indexes the worker's degree table; it is not degrees itself.
type OSResult struct {
	OrientationID         int
	OrientationConfidence float64
	ScriptID              int
	ScriptName            string
	ScriptConfidence      float64
}
