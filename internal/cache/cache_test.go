package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestMemory(ttl time.Duration) (*Memory, *clock) {
	c := &clock{t: time.Unix(1700000000, 0)}
	m := NewMemory(ttl)
	m.now = c.now
	return m, c
}

func TestMemoryGetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestMemory(time.Minute)

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("empty cache reported a hit")
	}

	_ = m.Set(ctx, "k", "v", 0)
	if v, ok, _ := m.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	clk.t = clk.t.Add(time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("entry visible at its expiry")
	}

	_ = m.Set(ctx, "k", "v2", time.Hour)
	_ = m.Invalidate(ctx, "k")
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("invalidated entry still visible")
	}
	if err := m.Invalidate(ctx, "missing"); err != nil {
		t.Fatalf("Invalidate(missing) = %v", err)
	}
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestMemory(time.Minute)

	_ = m.Set(ctx, "short", "1", time.Second)
	_ = m.Set(ctx, "long", "2", time.Hour)

	clk.t = clk.t.Add(2 * time.Second)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func TestGetOrLoadInt(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(time.Minute)

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		n, err := GetOrLoadInt(ctx, m, CommentCountKey("p1"), 0, load)
		if err != nil || n != 7 {
			t.Fatalf("GetOrLoadInt = %d, %v", n, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}

	_ = m.Invalidate(ctx, CommentCountKey("p1"))
	_, _ = GetOrLoadInt(ctx, m, CommentCountKey("p1"), 0, load)
	if calls != 2 {
		t.Fatalf("loader not called after invalidate")
	}
}

func TestGetOrLoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(time.Minute)

	_, err := GetOrLoad(ctx, m, "k", 0, func(context.Context) (string, error) {
		return "", errors.New("db down")
	})
	if err == nil {
		t.Fatal("expected loader error")
	}
	if m.Len() != 0 {
		t.Fatal("failed load was cached")
	}
}
