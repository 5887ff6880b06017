package dedup

import (
	"fmt"
	"testing"
)

func TestHasAfterAdd(t *testing.T) {
	c := New(10)
	if c.Has("a") {
		t.Error("empty cache must not report a as seen")
	}
	c.Add("a")
	if !c.Has("a") {
		t.Error("added id must be reported as seen")
	}
	if c.Len() != 1 {
		t.Errorf("expected len 1, got %d", c.Len())
	}
}

func TestAddIsIdempotent(t *testing.T) {
	c := New(10)
	c.Add("a")
	c.Add("a")
	c.Add("a")
	if c.Len() != 1 {
		t.Errorf("re-adding must not grow the cache, got len %d", c.Len())
	}
}

func TestBatchEviction(t *testing.T) {
	c := New(4)
	for i := 0; i < 5; i++ {
		c.Add(fmt.Sprintf("id-%d", i))
	}

	// Overflow drops the oldest half in one batch.
	if c.Has("id-0") || c.Has("id-1") {
		t.Error("oldest ids should have been evicted")
	}
	for i := 2; i < 5; i++ {
		if !c.Has(fmt.Sprintf("id-%d", i)) {
			t.Errorf("id-%d should have survived eviction", i)
		}
	}
	if c.Len() != 3 {
		t.Errorf("expected len 3 after eviction, got %d", c.Len())
	}
}

func TestEvictedIDCanReappear(t *testing.T) {
	c := New(4)
	for i := 0; i < 5; i++ {
		c.Add(fmt.Sprintf("id-%d", i))
	}
	if c.Has("id-0") {
		t.Fatal("id-0 should be evicted")
	}
	c.Add("id-0")
	if !c.Has("id-0") {
		t.Error("evicted id must be addable again")
	}
}

func TestNoEvictionBelowCap(t *testing.T) {
	c := New(100)
	for i := 0; i < 100; i++ {
		c.Add(fmt.Sprintf("id-%d", i))
	}
	for i := 0; i < 100; i++ {
		if !c.Has(fmt.Sprintf("id-%d", i)) {
			t.Fatalf("id-%d lost without eviction", i)
		}
	}
}

func TestNonPositiveCapFallsBack(t *testing.T) {
	c := New(0)
	c.Add("a")
	if !c.Has("a") {
		t.Error("cache with defaulted cap must still work")
	}
}
