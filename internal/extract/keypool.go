package extract

import (
	"sync"
	"time"

	"github.com/joseph-ayodele/invoice-auditor/internal/common"
)

// KeyPool manages a pool of rate-limited credentials for the extraction
// backend. Exhausted keys are skipped until the UTC day rolls over, at which
// point the pool resets. Safe for concurrent use; never persisted, so a
// process restart resets quota bookkeeping.
type KeyPool struct {
	mu        sync.Mutex
	keys      []string
	index     int
	exhausted map[int]struct{}
	lastReset string // UTC date, 2006-01-02

	now func() time.Time // injectable for tests
}

func NewKeyPool(keys []string) *KeyPool {
	p := &KeyPool{
		keys:      keys,
		exhausted: make(map[int]struct{}),
		now:       time.Now,
	}
	p.lastReset = p.today()
	return p
}

func (p *KeyPool) today() string {
	return p.now().UTC().Format("2006-01-02")
}

// maybeDailyReset clears the exhausted set on UTC day rollover.
// Caller must hold p.mu.
func (p *KeyPool) maybeDailyReset() {
	if today := p.today(); today != p.lastReset {
		p.exhausted = make(map[int]struct{})
		p.index = 0
		p.lastReset = today
	}
}

// Size returns the number of pooled keys.
func (p *KeyPool) Size() int {
	return len(p.keys)
}

// Next returns the current usable key, advancing past exhausted entries
// (wrapping). It fails with common.ErrAllKeysExhausted when every key is
// marked exhausted. The daily reset check runs first.
func (p *KeyPool) Next() (int, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.maybeDailyReset()
	if len(p.keys) == 0 {
		return 0, "", common.ErrAllKeysExhausted
	}
	for range p.keys {
		if _, dead := p.exhausted[p.index]; !dead {
			return p.index, p.keys[p.index], nil
		}
		p.index = (p.index + 1) % len(p.keys)
	}
	return 0, "", common.ErrAllKeysExhausted
}

// MarkExhausted records a quota rejection for the key at index. Idempotent.
func (p *KeyPool) MarkExhausted(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index >= 0 && index < len(p.keys) {
		p.exhausted[index] = struct{}{}
	}
}

// Advance moves the rotation index one step so the following call prefers the
// next key even when the current one is still usable (round-robin).
func (p *KeyPool) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) > 0 {
		p.index = (p.index + 1) % len(p.keys)
	}
}

// ExhaustedCount reports how many keys are currently marked exhausted.
func (p *KeyPool) ExhaustedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.exhausted)
}
