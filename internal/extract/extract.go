package extract

import (
	"fmt"
	"strings"

	"ocr-worker/internal/engine"
	"ocr-worker/internal/params"
)

// Source is the recognition-output surface the extractor reads from.
type Source interface {
	Text() (string, error)
	HOCR() (string, error)
	Words() ([]engine.Word, error)
}

// Flags selects which output formats to produce. params.Store satisfies it.
type Flags interface {
	Bool(key string) bool
}

// Extractor produces the requested output formats from a completed
// recognition pass.
type Extractor struct{}

// NewExtractor returns a format extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract builds an output object keyed by format name. Only formats whose
// worker_create_* flag is set are produced.
func (e *Extractor) Extract(src Source, flags Flags) (map[string]any, error) {
	out := map[string]any{}

	if flags.Bool(params.CreateText) {
		text, err := src.Text()
		if err != nil {
			return nil, fmt.Errorf("extract: text: %w", err)
		}
		out["text"] = text
	}

	if flags.Bool(params.CreateHOCR) {
		hocr, err := src.HOCR()
		if err != nil {
			return nil, fmt.Errorf("extract: hocr: %w", err)
		}
		out["hocr"] = hocr
	}

	needTSV := flags.Bool(params.CreateTSV)
	needBox := flags.Bool(params.CreateBox)
	if needTSV || needBox {
		words, err := src.Words()
		if err != nil {
			return nil, fmt.Errorf("extract: word boxes: %w", err)
		}
		if needTSV {
			out["tsv"] = formatTSV(words)
		}
		if needBox {
			out["box"] = formatBox(words)
		}
	}

	return out, nil
}

// formatTSV renders one row per word: index, bbox, confidence percent, text.
func formatTSV(words []engine.Word) string {
	var b strings.Builder
	for i, w := range words {
		fmt.Fprintf(&b, "%d\t%d\t%d\t%d\t%d\t%.2f\t%s\n",
			i+1, w.X0, w.Y0, w.X1, w.Y1, w.Confidence*100, w.Text)
	}
	return b.String()
}

// formatBox renders the classic box format, one word per line.
func formatBox(words []engine.Word) string {
	var b strings.Builder
	for _, w := range words {
		fmt.Fprintf(&b, "%s %d %d %d %d 0\n", w.Text, w.X0, w.Y0, w.X1, w.Y1)
	}
	return b.String()
}
