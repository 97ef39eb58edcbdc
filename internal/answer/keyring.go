package answer

import (
	"strings"
	"sync"
)

// KeyRing tracks which API keys are still usable in the current run. A key
// marked exhausted is skipped until Reset.
type KeyRing struct {
	mu        sync.Mutex
	keys      []string
	exhausted map[string]bool
	current   int
}

// NewKeyRing returns a ring over the non-empty, de-duplicated keys.
func NewKeyRing(keys []string) *KeyRing {
	r := &KeyRing{}
	r.SetKeys(keys)
	return r
}

// SetKeys replaces the key list and clears exhaustion state.
func (r *KeyRing) SetKeys(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool, len(keys))
	r.keys = r.keys[:0]
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		r.keys = append(r.keys, k)
	}
	r.exhausted = make(map[string]bool)
	r.current = 0
}

// Active returns the key to use next, or false when every key is exhausted.
func (r *KeyRing) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < len(r.keys); i++ {
		idx := (r.current + i) % len(r.keys)
		if !r.exhausted[r.keys[idx]] {
			r.current = idx
			return r.keys[idx], true
		}
	}
	return "", false
}

// MarkExhausted takes key out of rotation and advances to the next one.
func (r *KeyRing) MarkExhausted(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exhausted[key] = true
	if len(r.keys) > 0 && r.keys[r.current] == key {
		r.current = (r.current + 1) % len(r.keys)
	}
}

// Reset makes every key usable again. Called at the start of each fill run.
func (r *KeyRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exhausted = make(map[string]bool)
}

// Len returns the number of keys in the ring.
func (r *KeyRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Available returns the number of keys not yet exhausted.
func (r *KeyRing) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.keys {
		if !r.exhausted[k] {
			n++
		}
	}
	return n
}
