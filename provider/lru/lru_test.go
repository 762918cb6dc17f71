package lru

import (
	"context"
	"testing"
	"time"
)

func newStore(t *testing.T, max int) *Store {
	t.Helper()
	s, err := New(Config{MaxEntries: max})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 10)

	if _, ok, err := s.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if ok, err := s.Set(ctx, "k", []byte("v"), 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get: ok=%v err=%v v=%q", ok, err, v)
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 10)

	if _, err := s.Set(ctx, "k", []byte("v"), 30*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("expected miss after expiry")
	}
}

// TestEvictionOrder verifies strict LRU: touching an entry protects it from
// the next eviction.
func TestEvictionOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 2)

	s.Set(ctx, "a", []byte("1"), 0)
	s.Set(ctx, "b", []byte("2"), 0)
	s.Get(ctx, "a") // a is now most recently used
	s.Set(ctx, "c", []byte("3"), 0)

	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Fatal("a should have survived")
	}
	if _, ok, _ := s.Get(ctx, "c"); !ok {
		t.Fatal("c should be present")
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 2)

	s.Set(ctx, "a", []byte("1"), 0)
	s.Set(ctx, "b", []byte("2"), 0)
	s.Set(ctx, "a", []byte("updated"), 0)

	if _, ok, _ := s.Get(ctx, "b"); !ok {
		t.Fatal("overwrite of a must not evict b")
	}
	v, _, _ := s.Get(ctx, "a")
	if string(v) != "updated" {
		t.Fatalf("a = %q, want updated", v)
	}
}

func TestDel(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 10)

	s.Set(ctx, "k", []byte("v"), 0)
	if removed, err := s.Del(ctx, "k"); err != nil || !removed {
		t.Fatalf("Del: removed=%v err=%v", removed, err)
	}
	if removed, _ := s.Del(ctx, "k"); removed {
		t.Fatal("second Del should report nothing removed")
	}
}

func TestKeysSkipsExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 10)

	s.Set(ctx, "live", []byte("1"), 0)
	s.Set(ctx, "dead", []byte("2"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	ks, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(ks) != 1 || ks[0] != "live" {
		t.Fatalf("Keys = %v, want [live]", ks)
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	s, err := New(Config{MaxEntries: 10, CleanupInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close(ctx)

	s.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	if n := s.Len(); n != 0 {
		t.Fatalf("Len = %d after sweep, want 0", n)
	}
}
