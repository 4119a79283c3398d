package cache

import (
	"context"
	"testing"

	"github.com/xtding233/reroll-odds/internal/odds"
)

func TestKey(t *testing.T) {
	got := Key("default@base-1#abc", odds.Query{Level: 9, Cost: 5, Rerolls: 20, PurchasedTarget: 1, PurchasedOther: 4})
	want := "dist:default@base-1#abc:9:5:20:1:4"
	if got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
	clamped := Key("t", odds.Query{Level: 9, Cost: 5, Rerolls: -1, PurchasedTarget: -2, PurchasedOther: -3})
	if clamped != "dist:t:9:5:0:0:0" {
		t.Fatalf("negative counts should clamp: %q", clamped)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4)
	if _, ok, err := m.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("empty cache hit: ok=%v err=%v", ok, err)
	}
	src := odds.Distribution{0.25, 0.5, 0.25}
	if err := m.Set(ctx, "k", src); err != nil {
		t.Fatal(err)
	}
	src[0] = 1
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("miss after set: ok=%v err=%v", ok, err)
	}
	if got[0] != 0.25 || len(got) != 3 {
		t.Fatalf("stored value aliased caller slice: %v", got)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d", m.Len())
	}
}

func TestDecode(t *testing.T) {
	d, err := decode([]byte("[1,0,0]"))
	if err != nil || len(d) != 3 || d[0] != 1 {
		t.Fatalf("decode = %v, %v", d, err)
	}
	if _, err := decode([]byte("[]")); err == nil {
		t.Fatal("empty array should fail")
	}
	if _, err := decode([]byte("nope")); err == nil {
		t.Fatal("garbage should fail")
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	_ = m.Set(ctx, "a", odds.Distribution{1})
	_ = m.Set(ctx, "b", odds.Distribution{1})
	if _, ok, _ := m.Get(ctx, "a"); !ok {
		t.Fatal("a should still be cached")
	}
	_ = m.Set(ctx, "c", odds.Distribution{1})

	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Fatal("b was least recently used and should be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok, _ := m.Get(ctx, k); !ok {
			t.Fatalf("%s should be cached", k)
		}
	}
}

func TestMemoryDefaultSize(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	for i := 0; i < DefaultMemoryEntries+10; i++ {
		_ = m.Set(ctx, Key("t", odds.Query{Level: 1, Cost: 1, Rerolls: i}), odds.Distribution{1})
	}
	if m.Len() != DefaultMemoryEntries {
		t.Fatalf("Len = %d, want %d", m.Len(), DefaultMemoryEntries)
	}
}
