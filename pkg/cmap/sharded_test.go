package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestSetGet(t *testing.T) {
	m := New[string, int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should report absent")
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{16, 16},
		{4, 4},
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount}, // not a power of 2
	}
	for _, tt := range tests {
		m := NewWithShards[string, int](tt.in)
		if m.ShardCount() != tt.want {
			t.Errorf("NewWithShards(%d).ShardCount() = %d, want %d", tt.in, m.ShardCount(), tt.want)
		}
	}
}

func TestGetOrSet(t *testing.T) {
	m := New[string, int]()

	v, existed := m.GetOrSet("k", 1)
	if existed || v != 1 {
		t.Errorf("first GetOrSet = %d, %v; want 1, false", v, existed)
	}

	v, existed = m.GetOrSet("k", 99)
	if !existed || v != 1 {
		t.Errorf("second GetOrSet = %d, %v; want 1, true", v, existed)
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string, int]()

	if !m.SetIfAbsent("k", 1) {
		t.Error("SetIfAbsent should set a missing key")
	}
	if m.SetIfAbsent("k", 2) {
		t.Error("SetIfAbsent should not overwrite an existing key")
	}
	if v, _ := m.Get("k"); v != 1 {
		t.Errorf("value = %d, want 1", v)
	}
}

func TestDeletePop(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	m.Delete("a")
	if m.Has("a") {
		t.Error("Delete did not remove key")
	}

	v, ok := m.Pop("b")
	if !ok || v != 2 {
		t.Errorf("Pop(b) = %d, %v; want 2, true", v, ok)
	}
	if _, ok := m.Pop("b"); ok {
		t.Error("second Pop should report absent")
	}
}

func TestCountClear(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}
	if m.Count() != 100 {
		t.Errorf("Count() = %d, want 100", m.Count())
	}

	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d, want 0", m.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[string, int]()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%50)
				m.GetOrSet(key, g)
				m.Get(key)
				if i%10 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()
}
