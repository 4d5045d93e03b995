package llmcall

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/providers"
)

// DefaultCapacity is the number of calls kept when none is configured.
const DefaultCapacity = 500

// Recorder keeps the most recent calls in memory, oldest first.
type Recorder struct {
	mu       sync.RWMutex
	calls    []Call
	capacity int
	logger   *slog.Logger
}

// NewRecorder creates a recorder that keeps up to capacity calls.
func NewRecorder(capacity int, logger *slog.Logger) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{capacity: capacity, logger: logger}
}

// Record captures a text-generation call.
func (r *Recorder) Record(result *providers.TextResult, callErr error, started time.Time, opts RecordOptions) {
	r.RecordCall(FromTextResult(result, callErr, started, opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) >= r.capacity {
		// drop the oldest
		copy(r.calls, r.calls[1:])
		r.calls = r.calls[:len(r.calls)-1]
	}
	r.calls = append(r.calls, *call)
	r.logger.Debug("recorded llm call",
		"id", call.ID,
		"asset_id", call.AssetID,
		"provider", call.Provider,
		"success", call.Success,
		"latency_ms", call.LatencyMs)
}

// Len returns the number of stored calls.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}
