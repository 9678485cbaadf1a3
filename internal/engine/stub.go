package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ocr-worker/internal/imageenc"
)

// StubFactory builds stub modules without native bindings. Tests and
// engine-less environments use it in place of the Tesseract factory.
type StubFactory struct {
	log *slog.Logger

	// LoadErr, when set, makes Load fail instead of producing a module.
	LoadErr error
	// LoadCalls counts Load invocations.
	LoadCalls int
}

// NewStubFactory returns a factory that produces deterministic stub modules.
func NewStubFactory(logger *slog.Logger) *StubFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubFactory{log: logger.With("component", "engine.stub")}
}

// Load implements Factory.
func (f *StubFactory) Load(ctx context.Context, corePath string, onProgress func(float64)) (Module, error) {
	f.LoadCalls++
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(0.5)
		onProgress(1)
	}
	f.log.Debug("stub module loaded", "core_path", corePath)
	return &StubModule{log: f.log, CorePath: corePath}, nil
}

// StubModule is a Module that fabricates sessions with canned outputs.
type StubModule struct {
	log      *slog.Logger
	CorePath string

	// SessionTemplate, when set, seeds every new session's failure knobs
	// and detection result.
	SessionTemplate *StubSession

	// Sessions collects every session handed out.
	Sessions []*StubSession
}

// NewStubModule returns a module whose sessions succeed with canned results.
func NewStubModule(logger *slog.Logger) *StubModule {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubModule{log: logger.With("component", "engine.stub")}
}

// NewSession implements Module.
func (m *StubModule) NewSession() Session {
	s := &StubSession{
		log:       m.log,
		Variables: map[string]string{},
		DetectResult: OSResult{
			OrientationID:         0,
			OrientationConfidence: 9.5,
			ScriptID:              1,
			ScriptName:            "Latin",
			ScriptConfidence:      0.97,
		},
	}
	if t := m.SessionTemplate; t != nil {
		s.InitErr = t.InitErr
		s.RecognizeErr = t.RecognizeErr
		s.DetectErr = t.DetectErr
		s.EndErr = t.EndErr
		if t.DetectResult != (OSResult{}) {
			s.DetectResult = t.DetectResult
		}
	}
	m.Sessions = append(m.Sessions, s)
	return s
}

// StubSession records every call so tests can assert ordering and payloads.
type StubSession struct {
	log *slog.Logger

	Langs     string
	Mode      Mode
	Variables map[string]string
	Ended     bool

	InitErr      error
	RecognizeErr error
	DetectErr    error
	EndErr       error
	DetectResult OSResult

	width, height int
	recognized    bool
}

// Init implements Session.
func (s *StubSession) Init(langs string, mode Mode) error {
	if s.InitErr != nil {
		return s.InitErr
	}
	s.Langs = langs
	s.Mode = mode
	return nil
}

// SetVariable implements Session.
func (s *StubSession) SetVariable(key, value string) error {
	if s.Variables == nil {
		s.Variables = map[string]string{}
	}
	s.Variables[key] = value
	return nil
}

// Recognize implements Session.
func (s *StubSession) Recognize(ctx context.Context, buf *imageenc.Buffer, onProgress func(float64)) error {
	if s.RecognizeErr != nil {
		return s.RecognizeErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(0.3)
		onProgress(1)
	}
	s.width, s.height = buf.Width, buf.Height
	s.recognized = true
	s.log.Debug("stub recognition", "width", buf.Width, "height", buf.Height)
	return nil
}

// DetectOrientation implements Session.
func (s *StubSession) DetectOrientation(buf *imageenc.Buffer) (OSResult, error) {
	if s.DetectErr != nil {
		return OSResult{}, s.DetectErr
	}
	return s.DetectResult, nil
}

// Text implements Session.
func (s *StubSession) Text() (string, error) {
	if !s.recognized {
		return "", errors.New("engine: no recognition result")
	}
	return fmt.Sprintf("stub text %dx%d", s.width, s.height), nil
}

// HOCR implements Session.
func (s *StubSession) HOCR() (string, error) {
	if !s.recognized {
		return "", errors.New("engine: no recognition result")
	}
	return fmt.Sprintf("<div class='ocr_page' title='bbox 0 0 %d %d'/>", s.width, s.height), nil
}

// Words implements Session.
func (s *StubSession) Words() ([]Word, error) {
	if !s.recognized {
		return nil, errors.New("engine: no recognition result")
	}
	return []Word{
		{Text: "stub", X0: 0, Y0: 0, X1: s.width, Y1: s.height, Confidence: 0.42},
	}, nil
}

// End implements Session.
func (s *StubSession) End() error {
	if s.EndErr != nil {
		return s.EndErr
	}
	s.Ended = true
	return nil
}
