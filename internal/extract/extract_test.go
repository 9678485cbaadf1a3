package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocr-worker/internal/engine"
	"ocr-worker/internal/params"
)

type fakeSource struct {
	text     string
	hocr     string
	words    []engine.Word
	textErr  error
	wordsErr error
}

func (f *fakeSource) Text() (string, error)         { return f.text, f.textErr }
func (f *fakeSource) HOCR() (string, error)         { return f.hocr, nil }
func (f *fakeSource) Words() ([]engine.Word, error) { return f.words, f.wordsErr }

type flagMap map[string]bool

func (f flagMap) Bool(key string) bool { return f[key] }

func sampleSource() *fakeSource {
	return &fakeSource{
		text: "Hello World",
		hocr: "<div class='ocr_page'/>",
		words: []engine.Word{
			{Text: "Hello", X0: 10, Y0: 20, X1: 60, Y1: 40, Confidence: 0.9},
			{Text: "World", X0: 70, Y0: 20, X1: 130, Y1: 40, Confidence: 0.8},
		},
	}
}

func TestExtractSelectsFormats(t *testing.T) {
	out, err := NewExtractor().Extract(sampleSource(), flagMap{
		params.CreateText: true,
		params.CreateTSV:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello World", out["text"])
	assert.Contains(t, out, "tsv")
	assert.NotContains(t, out, "hocr")
	assert.NotContains(t, out, "box")
}

func TestExtractTSVAndBox(t *testing.T) {
	out, err := NewExtractor().Extract(sampleSource(), flagMap{
		params.CreateTSV: true,
		params.CreateBox: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "1\t10\t20\t60\t40\t90.00\tHello\n2\t70\t20\t130\t40\t80.00\tWorld\n", out["tsv"])
	assert.Equal(t, "Hello 10 20 60 40 0\nWorld 70 20 130 40 0\n", out["box"])
}

func TestExtractNothingRequested(t *testing.T) {
	out, err := NewExtractor().Extract(sampleSource(), flagMap{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExtractPropagatesSourceErrors(t *testing.T) {
	src := sampleSource()
	src.textErr = errors.New("no result")

	_, err := NewExtractor().Extract(src, flagMap{params.CreateText: true})
	assert.ErrorContains(t, err, "no result")
}

// TestExtractWithStoreDefaults checks the default parameter set produces
// text, hocr, and tsv.
func TestExtractWithStoreDefaults(t *testing.T) {
	out, err := NewExtractor().Extract(sampleSource(), params.NewStore())
	require.NoError(t, err)

	assert.Contains(t, out, "text")
	assert.Contains(t, out, "hocr")
	assert.Contains(t, out, "tsv")
	assert.NotContains(t, out, "box")
}
