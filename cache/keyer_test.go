package cache

import (
	"strings"
	"testing"
)

func TestDefaultKeyer_DeterministicAcrossMapOrder(t *testing.T) {
	keyer := NewDefaultKeyer()

	// Same content, different insertion order.
	reqs := []map[string]any{
		{"account": "a-1", "currency": "EUR", "amount": 250},
		{"currency": "EUR", "amount": 250, "account": "a-1"},
		{"amount": 250, "account": "a-1", "currency": "EUR"},
	}

	keys := make([]string, len(reqs))
	for i, req := range reqs {
		key, err := keyer.Key("payments", req)
		if err != nil {
			t.Fatalf("Key() error = %v", err)
		}
		keys[i] = key
	}

	if keys[0] != keys[1] || keys[1] != keys[2] {
		t.Errorf("equal requests produced unequal keys:\n  %s\n  %s\n  %s", keys[0], keys[1], keys[2])
	}
}

func TestDefaultKeyer_NestedMapsDeterministic(t *testing.T) {
	keyer := NewDefaultKeyer()

	req1 := map[string]any{
		"filter": map[string]any{"region": "eu", "tier": "gold"},
		"limit":  10,
	}
	req2 := map[string]any{
		"limit":  10,
		"filter": map[string]any{"tier": "gold", "region": "eu"},
	}

	key1, err := keyer.Key("search", req1)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	key2, err := keyer.Key("search", req2)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}

	if key1 != key2 {
		t.Errorf("nested map order changed the key:\n  %s\n  %s", key1, key2)
	}
}

func TestDefaultKeyer_SliceOrderMatters(t *testing.T) {
	keyer := NewDefaultKeyer()

	key1, _ := keyer.Key("inventory", []any{"a", "b"})
	key2, _ := keyer.Key("inventory", []any{"b", "a"})

	if key1 == key2 {
		t.Error("slices with different element order should produce different keys")
	}
}

func TestDefaultKeyer_DifferentRequestsDiffer(t *testing.T) {
	keyer := NewDefaultKeyer()

	tests := []struct {
		name string
		a, b any
	}{
		{"different values", map[string]any{"order": "o-1"}, map[string]any{"order": "o-2"}},
		{"different fields", map[string]any{"order": "o-1"}, map[string]any{"invoice": "o-1"}},
		{"map vs nil", map[string]any{"order": "o-1"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyA, err := keyer.Key("orders", tt.a)
			if err != nil {
				t.Fatalf("Key(a) error = %v", err)
			}
			keyB, err := keyer.Key("orders", tt.b)
			if err != nil {
				t.Fatalf("Key(b) error = %v", err)
			}
			if keyA == keyB {
				t.Errorf("distinct requests produced the same key %s", keyA)
			}
		})
	}
}

func TestDefaultKeyer_DependencyScopesKey(t *testing.T) {
	keyer := NewDefaultKeyer()
	req := map[string]any{"order": "o-1"}

	key1, _ := keyer.Key("payments", req)
	key2, _ := keyer.Key("payments-sandbox", req)

	if key1 == key2 {
		t.Error("identical requests against different dependencies should not share a key")
	}
}

func TestDefaultKeyer_Format(t *testing.T) {
	keyer := NewDefaultKeyer()

	key, err := keyer.Key("payments", map[string]any{"order": "o-1"})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}

	if !strings.HasPrefix(key, "dep:payments:") {
		t.Errorf("Key() = %s, want dep:payments: prefix", key)
	}

	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		t.Fatalf("Key() = %s, want 3 colon-separated parts", key)
	}
	if len(parts[2]) != 16 {
		t.Errorf("hash part = %q (%d chars), want 16 hex chars", parts[2], len(parts[2]))
	}

	if err := ValidateKey(key); err != nil {
		t.Errorf("ValidateKey(%s) = %v, want nil", key, err)
	}
}

func TestDefaultKeyer_StructRequest(t *testing.T) {
	keyer := NewDefaultKeyer()

	type lookup struct {
		SKU   string `json:"sku"`
		Count int    `json:"count"`
	}

	key1, err := keyer.Key("inventory", lookup{SKU: "widget-9", Count: 3})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	key2, _ := keyer.Key("inventory", lookup{SKU: "widget-9", Count: 3})
	key3, _ := keyer.Key("inventory", lookup{SKU: "widget-9", Count: 4})

	if key1 != key2 {
		t.Error("equal struct requests should produce equal keys")
	}
	if key1 == key3 {
		t.Error("different struct requests should produce different keys")
	}
}

func TestDefaultKeyer_NilRequest(t *testing.T) {
	keyer := NewDefaultKeyer()

	key, err := keyer.Key("payments", nil)
	if err != nil {
		t.Fatalf("Key(nil) error = %v", err)
	}
	if !strings.HasPrefix(key, "dep:payments:") {
		t.Errorf("Key(nil) = %s, want dep:payments: prefix", key)
	}
}

func TestDefaultKeyer_UnencodableRequest(t *testing.T) {
	keyer := NewDefaultKeyer()

	if _, err := keyer.Key("payments", make(chan int)); err == nil {
		t.Error("Key() with an unencodable request should error")
	}
}
