package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"ocr-worker/internal/config"
	"ocr-worker/internal/diagnostics"
	"ocr-worker/internal/domain"
	"ocr-worker/internal/engine"
	"ocr-worker/internal/engine/tesseract"
	"ocr-worker/internal/telemetry"
	"ocr-worker/internal/worker"
)

// maxEnvelopeBytes bounds one inbound line; recognize payloads carry whole
// images as base64.
const maxEnvelopeBytes = 64 << 20

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ocr-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to settings.yaml")
	envFile := flag.String("env", ".env", "path to optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg, err := config.Loader{}.Load(*configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	report := diagnostics.NewChecker().Run(cfg)
	for _, item := range report.Items {
		switch item.Status {
		case diagnostics.StatusFail:
			logger.Error(item.Message, "check", item.ID, "hint", item.Hint)
		case diagnostics.StatusWarn:
			logger.Warn(item.Message, "check", item.ID, "hint", item.Hint)
		default:
			logger.Info(item.Message, "check", item.ID)
		}
	}
	if report.HasFailures {
		return errors.New("startup diagnostics failed")
	}

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = uuid.NewString()
	}

	var factory engine.Factory = tesseract.NewFactory()
	if cfg.UseStubEngine {
		logger.Warn("stub engine forced by configuration")
		factory = engine.NewStubFactory(logger)
	}

	metrics := telemetry.NewRecorder(logger)
	w := worker.New(cfg, logger, factory, nil, nil, nil, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker ready", "worker_id", workerID, "cache_dir", cfg.CacheDir)
	err = serve(ctx, w, workerID, os.Stdin, os.Stdout, logger)

	snapshot := metrics.Snapshot()
	logger.Info("worker stopped",
		"jobs", snapshot.TotalJobs,
		"resolved", snapshot.TotalResolved,
		"rejected", snapshot.TotalRejected,
	)
	return err
}

// serve reads newline-delimited JSON envelopes from in and writes every
// response as one JSON line to out. Envelopes are dispatched one at a time;
// serializing jobs is this transport's responsibility, not the worker's.
func serve(ctx context.Context, w *worker.Worker, workerID string, in *os.File, out *os.File, logger *slog.Logger) error {
	var writeMu sync.Mutex
	enc := json.NewEncoder(out)
	emit := func(r domain.Response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := enc.Encode(r); err != nil {
			logger.Error("write response", "error", err)
		}
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64<<10), maxEnvelopeBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var env domain.Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			logger.Error("malformed envelope", "error", err)
			continue
		}
		if env.WorkerID == "" {
			env.WorkerID = workerID
		}
		w.Dispatch(ctx, env, emit)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read envelopes: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
