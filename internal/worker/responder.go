package worker

import (
	"sync"

	"ocr-worker/internal/domain"
)

// Responder emits outbound responses for one dispatched envelope and
// enforces the response contract: progress values never regress, and after
// the single terminal resolve or reject nothing else is emitted.
type Responder struct {
	mu           sync.Mutex
	env          domain.Envelope
	emit         func(domain.Response)
	lastProgress float64
	done         bool
}

func newResponder(env domain.Envelope, emit func(domain.Response)) *Responder {
	if emit == nil {
		emit = func(domain.Response) {}
	}
	return &Responder{env: env, emit: emit}
}

// Progress emits a progress response. Values are clamped to [0,1] and
// regressions against the previous value are dropped.
func (r *Responder) Progress(stage string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	if value < r.lastProgress {
		return
	}
	r.lastProgress = value
	r.emit(r.response(domain.StatusProgress, domain.ProgressUpdate{Stage: stage, Progress: value}))
}

// Resolve emits the terminal success response.
func (r *Responder) Resolve(data any) {
	r.terminal(domain.StatusResolve, data)
}

// Reject emits the terminal failure response carrying the error message.
func (r *Responder) Reject(message string) {
	r.terminal(domain.StatusReject, message)
}

// Terminated reports whether the terminal response has been emitted.
func (r *Responder) Terminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Responder) terminal(status domain.Status, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.emit(r.response(status, data))
}

func (r *Responder) response(status domain.Status, data any) domain.Response {
	return domain.Response{
		WorkerID: r.env.WorkerID,
		JobID:    r.env.JobID,
		Action:   r.env.Action,
		Status:   status,
		Data:     data,
	}
}
