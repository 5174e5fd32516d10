package ingest

import (
	"sync"
	"time"
)

// HealthSnapshot is the last known mailbox polling state, served verbatim on
// the health endpoint.
type HealthSnapshot struct {
	LastPoll    *time.Time `json:"last_poll"`
	LastSuccess *time.Time `json:"last_success"`
	LastError   *string    `json:"last_error"`
	FailedCount int        `json:"failed_count"`
}

// Health tracks poller liveness across runs. Safe for concurrent use.
type Health struct {
	mu   sync.Mutex
	snap HealthSnapshot
}

func NewHealth() *Health {
	return &Health{}
}

func (h *Health) RecordPoll(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := at
	h.snap.LastPoll = &t
}

// RecordSuccess marks the attempt successful. LastError and FailedCount are
// cumulative history and stay as they are.
func (h *Health) RecordSuccess(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := at
	h.snap.LastSuccess = &t
}

func (h *Health) RecordFailure(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap.LastError = &msg
	h.snap.FailedCount++
}

func (h *Health) Snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}
