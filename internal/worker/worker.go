package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ocr-worker/internal/config"
	"ocr-worker/internal/domain"
	"ocr-worker/internal/engine"
	"ocr-worker/internal/extract"
	"ocr-worker/internal/imageenc"
	"ocr-worker/internal/langdata"
	"ocr-worker/internal/params"
	"ocr-worker/internal/telemetry"
)

// LanguageLoader acquires traineddata files for the requested languages.
type LanguageLoader interface {
	Load(ctx context.Context, langs []string, opts langdata.Options) error
}

// ImageEncoder decodes caller image bytes into an engine buffer.
type ImageEncoder interface {
	Encode(data []byte) (*imageenc.Buffer, error)
}

// ResultExtractor builds the requested output formats after recognition.
type ResultExtractor interface {
	Extract(src extract.Source, flags extract.Flags) (map[string]any, error)
}

// Worker owns all mutable state for one engine instance: the loaded module,
// the active session, the parameter set, and the last dispatched job used as
// the sink for engine-native progress callbacks.
//
// Caller contract: at most one job may be in flight at a time. The worker
// does not serialize concurrent dispatches, and progress attribution is
// undefined when two jobs overlap.
type Worker struct {
	cfg       config.Settings
	log       *slog.Logger
	factory   engine.Factory
	loader    LanguageLoader
	encoder   ImageEncoder
	extractor ResultExtractor
	metrics   *telemetry.Recorder
	params    *params.Store
	handlers  map[domain.Action]handlerFunc

	mu      sync.Mutex
	module  engine.Module
	session engine.Session
	lastJob *Responder
}

// New wires a worker from its collaborators. factory must not be nil; the
// other collaborators default to the in-tree implementations.
func New(cfg config.Settings, logger *slog.Logger, factory engine.Factory, loader LanguageLoader, encoder ImageEncoder, extractor ResultExtractor, metrics *telemetry.Recorder) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if factory == nil {
		panic("worker: engine factory must not be nil")
	}
	if loader == nil {
		loader = langdata.NewLoader(logger, cfg.CacheDir, cfg.LangBaseURL)
	}
	if encoder == nil {
		encoder = imageenc.NewEncoder()
	}
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	w := &Worker{
		cfg:       cfg,
		log:       logger.With("component", "worker"),
		factory:   factory,
		loader:    loader,
		encoder:   encoder,
		extractor: extractor,
		metrics:   metrics,
		params:    params.NewStore(),
	}
	w.handlers = map[domain.Action]handlerFunc{
		domain.ActionLoad:          w.handleLoad,
		domain.ActionLoadLanguage:  w.handleLoadLanguage,
		domain.ActionInitialize:    w.handleInitialize,
		domain.ActionSetParameters: w.handleSetParameters,
		domain.ActionRecognize:     w.handleRecognize,
		domain.ActionDetect:        w.handleDetect,
		domain.ActionTerminate:     w.handleTerminate,
	}
	return w
}

// handlerFunc is the uniform shape every action handler takes in the
// dispatch table.
type handlerFunc func(ctx context.Context, env domain.Envelope, res *Responder) error

// Dispatch routes one envelope to its handler and emits every response
// through emit. It is the outermost failure boundary: handler errors and
// panics surface as a single reject, never as an escaping panic, and every
// dispatched envelope yields exactly one terminal response.
func (w *Worker) Dispatch(ctx context.Context, env domain.Envelope, emit func(domain.Response)) {
	job := w.metrics.StartJob(string(env.Action), env.JobID)
	res := newResponder(env, func(r domain.Response) {
		if r.Status == domain.StatusProgress {
			job.RecordProgress()
		}
		emit(r)
	})

	w.mu.Lock()
	w.lastJob = res
	w.mu.Unlock()

	err := w.run(ctx, env, res)
	if err == nil && !res.Terminated() {
		// A handler that returns nil without resolving is a programming
		// error; close the contract rather than leave the job hanging.
		err = fmt.Errorf("action %s completed without a response", env.Action)
	}
	if err != nil {
		res.Reject(err.Error())
	}
	job.Finish(err)
}

func (w *Worker) run(ctx context.Context, env domain.Envelope, res *Responder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
			w.log.Error("handler panic", "action", env.Action, "job_id", env.JobID, "panic", r)
		}
	}()

	handler, ok := w.handlers[env.Action]
	if !ok {
		return fmt.Errorf("unknown action: %q", env.Action)
	}
	return handler(ctx, env, res)
}

// Parameters returns a snapshot of the stored parameter set.
func (w *Worker) Parameters() map[string]any {
	return w.params.Snapshot()
}

func (w *Worker) getModule() engine.Module {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.module
}

func (w *Worker) setModule(m engine.Module) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.module = m
}

func (w *Worker) getSession() engine.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

func (w *Worker) setSession(s engine.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = s
}

func (w *Worker) clearSession() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = nil
}

// progressToLastJob routes engine-native progress callbacks to the most
// recently dispatched job.
func (w *Worker) progressToLastJob(stage string, value float64) {
	w.mu.Lock()
	res := w.lastJob
	w.mu.Unlock()
	if res != nil {
		res.Progress(stage, value)
	}
}
