package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestKeyNamespaced(t *testing.T) {
	a := Key("emb", "上海的天气")
	b := Key("fetch", "上海的天气")
	if a == b {
		t.Error("different namespaces produced the same key")
	}
	if !strings.HasPrefix(a, "noesis:v1:emb:") {
		t.Errorf("key = %q", a)
	}
	if a != Key("emb", "上海的天气") {
		t.Error("key not deterministic")
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("hit on missing key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get("k")
	if !found || !bytes.Equal(got, []byte("v")) {
		t.Errorf("Get = %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("hit after delete")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set(Key("t", "doc"), []byte("content"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get(Key("t", "doc"))
	if !found || string(got) != "content" {
		t.Errorf("Get = %q, %v", got, found)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expired entry served")
	}
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()

	// Write through one layered cache, then read with a fresh one whose
	// memory tier is empty: the disk tier must serve and promote.
	first := NewLayeredCache(time.Minute, dir, time.Minute)
	if err := first.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second := NewLayeredCache(time.Minute, dir, time.Minute)
	got, found := second.Get("k")
	if !found || string(got) != "v" {
		t.Fatalf("disk tier miss: %q, %v", got, found)
	}

	// Promoted copy now serves from memory.
	if _, found := second.Get("k"); !found {
		t.Error("promoted entry missing")
	}
}
