package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("verify", []byte(`{"value":"500"}`))
	k2 := Key("verify", []byte(`{"value":"500"}`))
	if k1 != k2 {
		t.Errorf("identical inputs produced different keys: %s vs %s", k1, k2)
	}

	if k3 := Key("verify", []byte(`{"value":"501"}`)); k3 == k1 {
		t.Error("different payloads produced the same key")
	}
	if k4 := Key("parse_year", []byte(`{"value":"500"}`)); k4 == k1 {
		t.Error("different operations produced the same key")
	}

	if !strings.HasPrefix(k1, "factpanel:v1:verify:") {
		t.Errorf("unexpected key format: %s", k1)
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found := c.Get("k")
	if !found || !bytes.Equal(got, []byte("v")) {
		t.Errorf("expected hit with value v, got %q found=%v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("some:key:with:colons", []byte("payload"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found := c.Get("some:key:with:colons")
	if !found || !bytes.Equal(got, []byte("payload")) {
		t.Errorf("expected disk hit, got %q found=%v", got, found)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Hour)

	// Seed only the disk layer, as a previous process would have.
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	got, found := layered.Get("k")
	if !found || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("expected disk hit through the layered cache, got %q found=%v", got, found)
	}

	// The hit must now be served from memory even if the disk entry vanishes.
	if err := disk.Delete("k"); err != nil {
		t.Fatalf("delete disk entry: %v", err)
	}
	if _, found := layered.Get("k"); !found {
		t.Error("expected promoted entry served from memory")
	}
}

func TestLayeredCache_WritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Hour)

	if err := layered.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	disk := NewDiskCache(dir, time.Hour)
	if _, found := disk.Get("k"); !found {
		t.Error("expected write to reach the disk layer")
	}
}
