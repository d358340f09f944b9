package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[[]string](time.Minute)
	defer c.Stop()

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}

	c.Set("k", []string{"a", "b"})
	v, ok := c.Get("k")
	if !ok || len(v) != 2 {
		t.Fatalf("expected hit with 2 items, got %v %v", v, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[int](time.Minute)
	defer c.Stop()

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("k", 1)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}

	c.removeExpired()
	if c.Size() != 0 {
		t.Errorf("expected empty cache, got %d", c.Size())
	}
}

func TestCache_StopTwice(t *testing.T) {
	c := New[int](time.Second)
	c.Stop()
	c.Stop()
}
