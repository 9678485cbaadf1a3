package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocr-worker/internal/domain"
)

func collectingResponder() (*Responder, *[]domain.Response) {
	var out []domain.Response
	env := domain.Envelope{WorkerID: "w1", JobID: "j1", Action: domain.ActionRecognize}
	res := newResponder(env, func(r domain.Response) { out = append(out, r) })
	return res, &out
}

// TestResponderProgressMonotonic verifies regressing and out-of-range
// progress values are dropped or clamped.
func TestResponderProgressMonotonic(t *testing.T) {
	res, out := collectingResponder()

	res.Progress("working", 0.2)
	res.Progress("working", 0.1)
	res.Progress("working", 0.8)
	res.Progress("working", 1.5)

	require.Len(t, *out, 3)
	values := []float64{}
	for _, r := range *out {
		assert.Equal(t, domain.StatusProgress, r.Status)
		values = append(values, r.Data.(domain.ProgressUpdate).Progress)
	}
	assert.Equal(t, []float64{0.2, 0.8, 1}, values)
}

// TestResponderTerminalExactlyOnce verifies nothing is emitted after the
// first terminal response.
func TestResponderTerminalExactlyOnce(t *testing.T) {
	res, out := collectingResponder()

	res.Progress("working", 0.5)
	res.Resolve(map[string]any{"ok": true})
	res.Reject("late failure")
	res.Progress("working", 0.9)
	res.Resolve(nil)

	require.Len(t, *out, 2)
	last := (*out)[len(*out)-1]
	assert.Equal(t, domain.StatusResolve, last.Status)
	assert.True(t, res.Terminated())
}

func TestResponderCorrelatesEnvelope(t *testing.T) {
	res, out := collectingResponder()
	res.Reject("boom")

	require.Len(t, *out, 1)
	r := (*out)[0]
	assert.Equal(t, "w1", r.WorkerID)
	assert.Equal(t, "j1", r.JobID)
	assert.Equal(t, domain.ActionRecognize, r.Action)
	assert.Equal(t, domain.StatusReject, r.Status)
	assert.Equal(t, "boom", r.Data)
}
