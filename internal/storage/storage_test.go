package storage

import "testing"

func TestMemoryGetSetDelete(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	m.Set("cart", "[]")
	if value, ok := m.Get("cart"); !ok || value != "[]" {
		t.Fatalf("expected stored value, got %q ok=%v", value, ok)
	}

	m.Set("cart", "[1]")
	if value, _ := m.Get("cart"); value != "[1]" {
		t.Fatalf("expected last write to win, got %q", value)
	}

	m.Delete("cart")
	if _, ok := m.Get("cart"); ok {
		t.Fatal("expected key deleted")
	}
}

func TestMemoryWatchFiresOnWriteAndDelete(t *testing.T) {
	m := NewMemory()

	var keys []string
	m.Watch(func(key string) { keys = append(keys, key) })

	m.Set("cart", "[]")
	m.Delete("cart")

	if len(keys) != 2 || keys[0] != "cart" || keys[1] != "cart" {
		t.Fatalf("expected two notifications for cart, got %v", keys)
	}
}
