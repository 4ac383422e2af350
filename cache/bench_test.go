package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkMemoryCache_Get_Hit measures cache hit performance.
func BenchmarkMemoryCache_Get_Hit(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	_ = c.Set(ctx, "dep:payments:k", []byte(`{"status":"captured"}`), time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "dep:payments:k")
	}
}

// BenchmarkMemoryCache_Get_Miss measures cache miss performance.
func BenchmarkMemoryCache_Get_Miss(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "dep:payments:missing")
	}
}

// BenchmarkMemoryCache_Set measures write performance.
func BenchmarkMemoryCache_Set(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	value := []byte(`{"status":"captured"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, fmt.Sprintf("dep:payments:%d", i), value, time.Hour)
	}
}

// BenchmarkMemoryCache_Set_SameKey measures overwrite performance.
func BenchmarkMemoryCache_Set_SameKey(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	value := []byte(`{"status":"captured"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, "dep:payments:k", value, time.Hour)
	}
}

// BenchmarkMemoryCache_Concurrent_ReadWrite measures mixed concurrent operations.
func BenchmarkMemoryCache_Concurrent_ReadWrite(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_ = c.Set(ctx, fmt.Sprintf("dep:search:%d", i), []byte("results"), time.Hour)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("dep:search:%d", i%100)
			if i%4 == 0 {
				_ = c.Set(ctx, key, []byte("fresh results"), time.Hour)
			} else {
				_, _ = c.Get(ctx, key)
			}
			i++
		}
	})
}

// BenchmarkDefaultKeyer_Key measures key derivation.
func BenchmarkDefaultKeyer_Key(b *testing.B) {
	keyer := NewDefaultKeyer()
	req := map[string]any{
		"query": "test",
		"limit": 10,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = keyer.Key("search", req)
	}
}

// BenchmarkDefaultKeyer_Key_LargeRequest measures key derivation for a large request.
func BenchmarkDefaultKeyer_Key_LargeRequest(b *testing.B) {
	keyer := NewDefaultKeyer()
	req := map[string]any{
		"query":   "test query string",
		"limit":   100,
		"offset":  0,
		"filters": []any{"filter1", "filter2", "filter3"},
		"nested": map[string]any{
			"key1": "value1",
			"key2": "value2",
			"key3": "value3",
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = keyer.Key("search", req)
	}
}

// BenchmarkDefaultKeyer_Key_Concurrent measures concurrent key derivation.
func BenchmarkDefaultKeyer_Key_Concurrent(b *testing.B) {
	keyer := NewDefaultKeyer()
	req := map[string]any{"sku": "widget-9"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = keyer.Key("inventory", req)
		}
	})
}

// BenchmarkPolicy_EffectiveTTL measures TTL resolution.
func BenchmarkPolicy_EffectiveTTL(b *testing.B) {
	policy := DefaultPolicy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = policy.EffectiveTTL(10 * time.Minute)
	}
}

// BenchmarkValidateKey measures key validation.
func BenchmarkValidateKey(b *testing.B) {
	key := "dep:search:abc123def456"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateKey(key)
	}
}
