package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Cache stores raw model responses keyed by a digest of model name and
// prompt, enabling deterministic re-runs of an analysis without new API
// calls. A nil Cache or empty Dir disables caching.
type Cache struct {
	Dir string
}

// KeyFrom builds a cache key from model and prompt.
func KeyFrom(model, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *Cache) enabled() bool {
	return c != nil && c.Dir != ""
}

// Get returns cached bytes if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	b, err := os.ReadFile(filepath.Join(c.Dir, key+".json"))
	if err != nil {
		return nil, false
	}
	return b, true
}

// Save writes bytes to the cache. Failures are silent; the cache is an
// optimization, not a store of record.
func (c *Cache) Save(key string, data []byte) {
	if !c.enabled() {
		return
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(c.Dir, key+".json"), data, 0o644)
}
