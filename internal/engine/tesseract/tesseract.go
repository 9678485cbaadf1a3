package tesseract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"ocr-worker/internal/engine"
	"ocr-worker/internal/imageenc"
)

// ErrOrientationUnsupported is returned by DetectOrientation: the gosseract
// bindings do not expose the OSD result structure. Callers needing detection
// must use an engine build that provides it.
var ErrOrientationUnsupported = errors.New("tesseract: orientation detection is not exposed by the bindings")

// Factory loads the Tesseract-backed engine module via gosseract.
type Factory struct {
	clientFactory func() *gosseract.Client
}

// NewFactory returns a factory producing gosseract-backed modules.
func NewFactory() *Factory {
	return &Factory{clientFactory: gosseract.NewClient}
}

// Load implements engine.Factory. corePath, when set, is used as the
// tessdata prefix for every session. The bindings are verified by opening a
// throwaway client before the module is handed out.
func (f *Factory) Load(ctx context.Context, corePath string, onProgress func(float64)) (engine.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	probe := f.clientFactory()
	version := probe.Version()
	if err := probe.Close(); err != nil {
		return nil, fmt.Errorf("tesseract: probe client: %w", err)
	}
	if version == "" {
		return nil, errors.New("tesseract: bindings returned empty version")
	}
	if onProgress != nil {
		onProgress(1)
	}
	return &Module{tessdataPrefix: corePath, newClient: f.clientFactory}, nil
}

// Module hands out gosseract-backed sessions sharing one tessdata prefix.
type Module struct {
	tessdataPrefix string
	newClient      func() *gosseract.Client
}

// NewSession implements engine.Module.
func (m *Module) NewSession() engine.Session {
	return &session{client: m.newClient(), tessdataPrefix: m.tessdataPrefix}
}

type session struct {
	client         *gosseract.Client
	tessdataPrefix string
	text           string
	recognized     bool
}

func (s *session) Init(langs string, mode engine.Mode) error {
	if s.tessdataPrefix != "" {
		if err := s.client.SetTessdataPrefix(s.tessdataPrefix); err != nil {
			return fmt.Errorf("tesseract: set tessdata prefix: %w", err)
		}
	}
	if err := s.client.SetLanguage(splitLangs(langs)...); err != nil {
		return fmt.Errorf("tesseract: set languages %q: %w", langs, err)
	}
	if err := s.client.SetVariable("tessedit_ocr_engine_mode", strconv.Itoa(int(mode))); err != nil {
		return fmt.Errorf("tesseract: set engine mode: %w", err)
	}
	return nil
}

func (s *session) SetVariable(key, value string) error {
	if err := s.client.SetVariable(gosseract.SettableVariable(key), value); err != nil {
		return fmt.Errorf("tesseract: set variable %s: %w", key, err)
	}
	return nil
}

// Recognize binds the image and forces a recognition pass. gosseract has no
// native progress callback, so onProgress only sees completion.
func (s *session) Recognize(ctx context.Context, buf *imageenc.Buffer, onProgress func(float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.SetImageFromBytes(buf.Data); err != nil {
		return fmt.Errorf("tesseract: set image: %w", err)
	}
	text, err := s.client.Text()
	if err != nil {
		return fmt.Errorf("tesseract: recognize: %w", err)
	}
	s.text = strings.TrimSpace(text)
	s.recognized = true
	if onProgress != nil {
		onProgress(1)
	}
	return nil
}

func (s *session) DetectOrientation(buf *imageenc.Buffer) (engine.OSResult, error) {
	return engine.OSResult{}, ErrOrientationUnsupported
}

func (s *session) Text() (string, error) {
	if !s.recognized {
		return "", errors.New("tesseract: no recognition result")
	}
	return s.text, nil
}

func (s *session) HOCR() (string, error) {
	if !s.recognized {
		return "", errors.New("tesseract: no recognition result")
	}
	hocr, err := s.client.HOCRText()
	if err != nil {
		return "", fmt.Errorf("tesseract: hocr: %w", err)
	}
	return hocr, nil
}

func (s *session) Words() ([]engine.Word, error) {
	if !s.recognized {
		return nil, errors.New("tesseract: no recognition result")
	}
	boxes, err := s.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract: word boxes: %w", err)
	}
	words := make([]engine.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, engine.Word{
			Text:       b.Word,
			X0:         b.Box.Min.X,
			Y0:         b.Box.Min.Y,
			X1:         b.Box.Max.X,
			Y1:         b.Box.Max.Y,
			Confidence: b.Confidence / 100.0,
		})
	}
	return words, nil
}

func (s *session) End() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("tesseract: close client: %w", err)
	}
	return nil
}

// splitLangs turns a "+"-joined language string into gosseract arguments.
func splitLangs(langs string) []string {
	parts := strings.Split(langs, "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = append(out, "eng")
	}
	return out
}
