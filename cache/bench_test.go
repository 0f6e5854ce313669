package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkMemoryStore_Get_Hit measures cache hit performance.
func BenchmarkMemoryStore_Get_Hit(b *testing.B) {
	s, _ := NewMemoryStore(DefaultStoreConfig())
	ctx := context.Background()
	_ = s.Set(ctx, "key", []byte("value"), time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(ctx, "key")
	}
}

// BenchmarkMemoryStore_Get_Miss measures cache miss performance.
func BenchmarkMemoryStore_Get_Miss(b *testing.B) {
	s, _ := NewMemoryStore(DefaultStoreConfig())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(ctx, "missing")
	}
}

// BenchmarkMemoryStore_Set_Evicting measures writes into a full store.
func BenchmarkMemoryStore_Set_Evicting(b *testing.B) {
	s, _ := NewMemoryStore(StoreConfig{MaxEntries: 100})
	ctx := context.Background()
	value := []byte("test value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Set(ctx, fmt.Sprintf("key-%d", i), value, time.Hour)
	}
}

// BenchmarkMemoryStore_Concurrent measures mixed parallel access.
func BenchmarkMemoryStore_Concurrent(b *testing.B) {
	s, _ := NewMemoryStore(DefaultStoreConfig())
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_ = s.Set(ctx, fmt.Sprintf("key-%d", i), []byte("value"), time.Hour)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = s.Get(ctx, fmt.Sprintf("key-%d", i%100))
			i++
		}
	})
}

// BenchmarkContentHasher_Fingerprint measures key derivation over page content.
func BenchmarkContentHasher_Fingerprint(b *testing.B) {
	h := NewContentHasher()
	content := map[string]any{
		"url":   "https://shop.example/products/42",
		"title": "Running shoes",
		"text": map[string]any{
			"headings":   []any{"Running shoes", "Reviews"},
			"paragraphs": []any{"Lightweight and durable.", "Free returns within 30 days."},
		},
	}
	opts := map[string]any{"requestId": "abc", "region": "US"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.Fingerprint(content, TypeComprehensive, opts)
	}
}

// BenchmarkTTLPolicy_TTLFor measures TTL computation.
func BenchmarkTTLPolicy_TTLFor(b *testing.B) {
	p := DefaultTTLPolicy()
	content := map[string]any{"url": "https://shop.example/about"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.TTLFor(content, TypeLanguage, nil)
	}
}
