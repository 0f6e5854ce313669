package cache_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/marketlens/cache"
)

func ExampleNewMemoryStore() {
	store, err := cache.NewMemoryStore(cache.StoreConfig{MaxEntries: 2})
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	_ = store.Set(ctx, "a", []byte("first"), time.Hour)
	_ = store.Set(ctx, "b", []byte("second"), time.Hour)
	_, _ = store.Get(ctx, "a")
	_ = store.Set(ctx, "c", []byte("third"), time.Hour)

	_, ok := store.Get(ctx, "b")
	fmt.Println("b cached:", ok)
	fmt.Println("evictions:", store.Stats().Evictions)
	// Output:
	// b cached: false
	// evictions: 1
}

func ExampleNewMemoryStore_invalidCapacity() {
	_, err := cache.NewMemoryStore(cache.StoreConfig{MaxEntries: 0})
	fmt.Println(err)
	// Output:
	// cache: invalid configuration MaxEntries=0: cache: capacity must be a positive integer
}

func ExampleContentHasher_Fingerprint() {
	h := cache.NewContentHasher()
	content := map[string]any{"url": "https://shop.example/products/1", "title": "Shoes"}

	a, _ := h.Fingerprint(content, cache.TypeLanguage, map[string]any{"requestId": "1"})
	b, _ := h.Fingerprint(content, cache.TypeLanguage, map[string]any{"requestId": "2"})

	fmt.Println("prefix:", strings.HasPrefix(a.String(), "analysis:language:"))
	fmt.Println("same key:", a == b)
	// Output:
	// prefix: true
	// same key: true
}

func ExampleTTLPolicy_TTLFor() {
	p := cache.DefaultTTLPolicy()

	fmt.Println(p.TTLFor(map[string]any{"url": "https://shop.example/"}, cache.TypeLanguage, nil))
	fmt.Println(p.TTLFor(map[string]any{"url": "https://shop.example/about"}, cache.TypeLanguage, nil))
	fmt.Println(p.TTLFor(map[string]any{"url": "https://shop.example/cart"}, cache.TypeUserExperience, nil))
	fmt.Println(p.TTLFor(nil, cache.TypeNetworkPerformance, map[string]any{cache.TTLOverrideOption: "30s"}))
	// Output:
	// 24h0m0s
	// 48h0m0s
	// 1h30m0s
	// 30s
}

func ExampleLoader_Load() {
	store, _ := cache.NewMemoryStore(cache.DefaultStoreConfig())
	loader, _ := cache.NewLoader(store, nil, cache.DefaultTTLPolicy(), nil)
	ctx := context.Background()

	compute := func(context.Context) ([]byte, bool, error) {
		fmt.Println("computing")
		return []byte(`{"overallScore":86}`), true, nil
	}

	for i := 0; i < 2; i++ {
		res, _ := loader.Load(ctx, "page", cache.TypeCulture, nil, compute)
		fmt.Println(string(res.Value), res.FromCache)
	}
	// Output:
	// computing
	// {"overallScore":86} false
	// {"overallScore":86} true
}
