package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_EmptySnapshot(t *testing.T) {
	snap := NewHealth().Snapshot()
	assert.Nil(t, snap.LastPoll)
	assert.Nil(t, snap.LastSuccess)
	assert.Nil(t, snap.LastError)
	assert.Zero(t, snap.FailedCount)
}

func TestHealth_FailuresAccumulate(t *testing.T) {
	h := NewHealth()
	h.RecordFailure("first")
	h.RecordFailure("second")

	snap := h.Snapshot()
	require.NotNil(t, snap.LastError)
	assert.Equal(t, "second", *snap.LastError)
	assert.Equal(t, 2, snap.FailedCount)
}

// A success only stamps last_success; the failure history is cumulative and
// stays visible on the status endpoint.
func TestHealth_SuccessPreservesFailureHistory(t *testing.T) {
	h := NewHealth()
	h.RecordFailure("boom")
	h.RecordSuccess(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	snap := h.Snapshot()
	require.NotNil(t, snap.LastSuccess)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, "boom", *snap.LastError)
	assert.Equal(t, 1, snap.FailedCount)
}
