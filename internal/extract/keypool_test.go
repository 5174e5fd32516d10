package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-auditor/internal/common"
)

func TestKeyPool_RoundRobin(t *testing.T) {
	p := NewKeyPool([]string{"a", "b", "c"})

	idx, key, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a", key)

	p.Advance()
	idx, key, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "b", key)

	p.Advance()
	p.Advance() // wraps
	idx, key, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a", key)
}

func TestKeyPool_SkipsExhaustedKeys(t *testing.T) {
	p := NewKeyPool([]string{"a", "b", "c"})
	p.MarkExhausted(0)

	idx, key, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "b", key)
}

func TestKeyPool_AllExhausted(t *testing.T) {
	p := NewKeyPool([]string{"a", "b"})
	p.MarkExhausted(0)
	p.MarkExhausted(1)

	_, _, err := p.Next()
	assert.True(t, errors.Is(err, common.ErrAllKeysExhausted))
	assert.Equal(t, 2, p.ExhaustedCount())
}

func TestKeyPool_EmptyPool(t *testing.T) {
	p := NewKeyPool(nil)
	_, _, err := p.Next()
	assert.True(t, errors.Is(err, common.ErrAllKeysExhausted))
}

func TestKeyPool_MarkExhaustedIdempotent(t *testing.T) {
	p := NewKeyPool([]string{"a", "b"})
	p.MarkExhausted(0)
	p.MarkExhausted(0)
	assert.Equal(t, 1, p.ExhaustedCount())
}

// Exhaustion markers clear when the UTC day rolls over, so yesterday's quota
// rejections do not block today's calls.
func TestKeyPool_DailyReset(t *testing.T) {
	day1 := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	now := day1
	p := NewKeyPool([]string{"a", "b"})
	p.now = func() time.Time { return now }
	p.lastReset = p.today() // re-stamp: NewKeyPool ran on the real clock

	p.MarkExhausted(0)
	p.MarkExhausted(1)
	_, _, err := p.Next()
	require.True(t, errors.Is(err, common.ErrAllKeysExhausted))

	now = day1.Add(2 * time.Hour) // crosses midnight UTC
	idx, key, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a", key)
	assert.Equal(t, 0, p.ExhaustedCount())
}
