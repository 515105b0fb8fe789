package llm

import (
	"bytes"
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	c := &Cache{Dir: t.TempDir()}
	key := KeyFrom("model-a", "prompt text")

	if _, ok := c.Get(key); ok {
		t.Fatalf("unexpected hit before save")
	}

	payload := []byte(`{"summary":"fine"}`)
	c.Save(key, payload)

	got, ok := c.Get(key)
	if !ok {
		t.Fatalf("expected hit after save")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload: got %q, want %q", got, payload)
	}
}

func TestCacheDisabled(t *testing.T) {
	var nilCache *Cache
	nilCache.Save("k", []byte("x"))
	if _, ok := nilCache.Get("k"); ok {
		t.Errorf("nil cache must never hit")
	}

	empty := &Cache{}
	empty.Save("k", []byte("x"))
	if _, ok := empty.Get("k"); ok {
		t.Errorf("dir-less cache must never hit")
	}
}

func TestKeyFromDistinguishesInputs(t *testing.T) {
	base := KeyFrom("model-a", "prompt")
	if KeyFrom("model-a", "prompt") != base {
		t.Errorf("key must be deterministic")
	}
	if KeyFrom("model-b", "prompt") == base {
		t.Errorf("key must depend on model")
	}
	if KeyFrom("model-a", "other prompt") == base {
		t.Errorf("key must depend on prompt")
	}
	if len(base) != 64 {
		t.Errorf("key length: got %d, want 64 hex chars", len(base))
	}
}
