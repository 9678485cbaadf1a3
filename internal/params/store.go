package params

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ReservedPrefix marks options that configure the worker itself. Reserved
// keys are stored and merged but never pushed to the engine.
const ReservedPrefix = "worker_"

// Wrapper-reserved option names.
const (
	CreateText = ReservedPrefix + "create_text"
	CreateHOCR = ReservedPrefix + "create_hocr"
	CreateTSV  = ReservedPrefix + "create_tsv"
	CreateBox  = ReservedPrefix + "create_box"
)

// Applier is the live session surface parameters are pushed to.
type Applier interface {
	SetVariable(key, value string) error
}

// Store holds the persistent parameter set. Values are strings, numbers, or
// booleans as they arrive from the wire.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// Defaults returns the baseline parameter set for a fresh worker.
func Defaults() map[string]any {
	return map[string]any{
		CreateText: true,
		CreateHOCR: true,
		CreateTSV:  true,
		CreateBox:  false,
	}
}

// NewStore creates a store seeded with default parameters.
func NewStore() *Store {
	return &Store{values: Defaults()}
}

// IsReserved reports whether a key belongs to the wrapper namespace.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, ReservedPrefix)
}

// Set pushes every non-reserved key to the applier, then merges all keys
// (reserved included) into the stored set and returns a snapshot of the
// merged result. Apply happens before merge so a push failure leaves the
// stored set untouched.
func (s *Store) Set(applier Applier, newParams map[string]any) (map[string]any, error) {
	if err := applyValues(applier, newParams); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for k, v := range newParams {
		s.values[k] = v
	}
	s.mu.Unlock()

	return s.Snapshot(), nil
}

// ApplyAll pushes every stored non-reserved key to the applier. Initialize
// uses it to carry the parameter set onto a fresh session.
func (s *Store) ApplyAll(applier Applier) error {
	return applyValues(applier, s.Snapshot())
}

// Snapshot returns a copy of the stored parameter set.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Bool interprets a stored value as a flag. Missing keys are false.
func (s *Store) Bool(key string) bool {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "1" || strings.EqualFold(val, "true")
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return false
	}
}

// applyValues pushes non-reserved keys in sorted order for determinism.
func applyValues(applier Applier, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		if IsReserved(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := applier.SetVariable(k, FormatValue(values[k])); err != nil {
			return fmt.Errorf("params: set %s: %w", k, err)
		}
	}
	return nil
}

// FormatValue renders a parameter value the way the engine expects:
// booleans become "1"/"0" and integral numbers drop the decimal point.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
