package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ocr-worker/internal/domain"
	"ocr-worker/internal/engine"
	"ocr-worker/internal/langdata"
)

// orientationDegrees maps the engine's orientation id to page rotation in
// degrees. The order is a fixed engine convention, not configurable.
var orientationDegrees = [4]int{0, 270, 180, 90}

type loadPayload struct {
	CorePath string `json:"corePath"`
}

type loadLanguagePayload struct {
	Langs   json.RawMessage  `json:"langs"`
	Options langdata.Options `json:"options"`
}

type initializePayload struct {
	Langs json.RawMessage `json:"langs"`
	OEM   *int            `json:"oem"`
}

type setParametersPayload struct {
	Params map[string]any `json:"params"`
}

type imagePayload struct {
	Image []byte `json:"image"`
}

func decodePayload(env domain.Envelope, target any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Action, err)
	}
	return nil
}

// handleLoad constructs the engine module. A second load resolves
// immediately without re-invoking the factory. Concurrent loads before the
// first completes are not deduplicated.
func (w *Worker) handleLoad(ctx context.Context, env domain.Envelope, res *Responder) error {
	var p loadPayload
	if err := decodePayload(env, &p); err != nil {
		return err
	}
	if w.getModule() != nil {
		res.Resolve(map[string]any{"loaded": true})
		return nil
	}

	corePath := p.CorePath
	if corePath == "" {
		corePath = w.cfg.CorePath
	}

	res.Progress("initializing engine", 0)
	module, err := w.factory.Load(ctx, corePath, func(v float64) {
		res.Progress("initializing engine", v*0.9)
	})
	if err != nil {
		return fmt.Errorf("load engine: %w", err)
	}
	w.setModule(module)
	res.Progress("engine initialized", 1)
	res.Resolve(map[string]any{"loaded": true})
	return nil
}

// handleLoadLanguage acquires traineddata for the requested languages.
// Every loader failure rejects; nothing is swallowed.
func (w *Worker) handleLoadLanguage(ctx context.Context, env domain.Envelope, res *Responder) error {
	var p loadLanguagePayload
	if err := decodePayload(env, &p); err != nil {
		return err
	}
	langs, err := normalizeLangs(p.Langs)
	if err != nil {
		return err
	}

	res.Progress("loading language traineddata", 0)
	if err := w.loader.Load(ctx, strings.Split(langs, "+"), p.Options); err != nil {
		return fmt.Errorf("load language: %w", err)
	}
	res.Progress("loaded language traineddata", 1)
	res.Resolve(langs)
	return nil
}

// handleInitialize constructs a fresh session bound to the language set and
// mode, then carries the stored parameter set onto it. A failed initialize
// leaves no session installed; the caller must initialize again.
func (w *Worker) handleInitialize(_ context.Context, env domain.Envelope, res *Responder) error {
	module := w.getModule()
	if module == nil {
		return engine.ErrNotLoaded
	}

	var p initializePayload
	if err := decodePayload(env, &p); err != nil {
		return err
	}
	langs, err := normalizeLangs(p.Langs)
	if err != nil {
		return err
	}
	mode := engine.ModeDefault
	if p.OEM != nil {
		mode = engine.Mode(*p.OEM)
	}

	res.Progress("initializing api", 0)
	session := module.NewSession()
	if err := session.Init(langs, mode); err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	if err := w.params.ApplyAll(session); err != nil {
		return fmt.Errorf("apply stored parameters: %w", err)
	}
	w.setSession(session)
	res.Progress("initialized api", 1)
	res.Resolve(nil)
	return nil
}

// handleSetParameters pushes non-reserved keys to the live session, merges
// everything into the stored set, and resolves with the merged result.
func (w *Worker) handleSetParameters(_ context.Context, env domain.Envelope, res *Responder) error {
	session := w.getSession()
	if session == nil {
		return engine.ErrNoSession
	}

	var p setParametersPayload
	if err := decodePayload(env, &p); err != nil {
		return err
	}
	merged, err := w.params.Set(session, p.Params)
	if err != nil {
		return err
	}
	res.Resolve(merged)
	return nil
}

// handleRecognize runs recognition on the payload image and resolves with
// the extracted output formats plus image dimensions. The buffer is released
// exactly once on every exit path, including extraction failures.
func (w *Worker) handleRecognize(ctx context.Context, env domain.Envelope, res *Responder) error {
	session := w.getSession()
	if w.getModule() == nil {
		return engine.ErrNotLoaded
	}
	if session == nil {
		return engine.ErrNoSession
	}

	var p imagePayload
	if err := decodePayload(env, &p); err != nil {
		return err
	}
	buf, err := w.encoder.Encode(p.Image)
	if err != nil {
		return err
	}
	defer func() { _ = buf.Release() }()

	err = session.Recognize(ctx, buf, func(v float64) {
		w.progressToLastJob("recognizing text", v)
	})
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}

	outputs, err := w.extractor.Extract(session, w.params)
	if err != nil {
		return err
	}
	outputs["imageWidth"] = buf.Width
	outputs["imageHeight"] = buf.Height
	res.Resolve(outputs)
	return nil
}

// handleDetect runs orientation and script detection. A detection failure
// tears the session down before rejecting; the buffer is released as soon as
// detection returns, before the terminal response on either path.
func (w *Worker) handleDetect(_ context.Context, env domain.Envelope, res *Responder) error {
	session := w.getSession()
	if w.getModule() == nil {
		return engine.ErrNotLoaded
	}
	if session == nil {
		return engine.ErrNoSession
	}

	var p imagePayload
	if err := decodePayload(env, &p); err != nil {
		return err
	}
	buf, err := w.encoder.Encode(p.Image)
	if err != nil {
		return err
	}

	osr, err := session.DetectOrientation(buf)
	_ = buf.Release()
	if err != nil {
		if errors.Is(err, engine.ErrDetectionFailed) {
			if endErr := session.End(); endErr != nil {
				w.log.Warn("session teardown after failed detection", "error", endErr)
			}
			w.clearSession()
		}
		return err
	}

	degrees := 0
	if osr.OrientationID >= 0 && osr.OrientationID < len(orientationDegrees) {
		degrees = orientationDegrees[osr.OrientationID]
	}
	res.Resolve(domain.Orientation{
		ScriptID:              osr.ScriptID,
		ScriptName:            osr.ScriptName,
		ScriptConfidence:      osr.ScriptConfidence,
		OrientationDegrees:    degrees,
		OrientationConfidence: osr.OrientationConfidence,
	})
	return nil
}

// handleTerminate ends the active session and clears the handle so a later
// engine-dependent action rejects instead of touching a dangling session.
func (w *Worker) handleTerminate(_ context.Context, _ domain.Envelope, res *Responder) error {
	session := w.getSession()
	if session == nil {
		return engine.ErrNoSession
	}
	if err := session.End(); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	w.clearSession()
	res.Resolve(map[string]any{"terminated": true})
	return nil
}

// normalizeLangs flattens a langs payload into a "+"-joined language string.
// Accepted shapes: a plain code string ("eng", "eng+deu"), or an array whose
// entries are either code strings or objects carrying a "data" field.
func normalizeLangs(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "eng", nil
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		if plain == "" {
			return "eng", nil
		}
		return plain, nil
	}

	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "", fmt.Errorf("langs must be a string or an array, got %s", raw)
	}

	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			codes = append(codes, v)
		case map[string]any:
			data, ok := v["data"].(string)
			if !ok {
				return "", fmt.Errorf("langs entry object must carry a string data field")
			}
			codes = append(codes, data)
		default:
			return "", fmt.Errorf("unsupported langs entry %T", entry)
		}
	}
	if len(codes) == 0 {
		return "eng", nil
	}
	return strings.Join(codes, "+"), nil
}
