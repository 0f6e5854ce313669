package analysis_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/marketlens/analysis"
	"github.com/jonwraymond/marketlens/cache"
)

func score(n int) analysis.CategoryScore {
	return analysis.CategoryScore{Score: n}
}

func ExampleMerger_MergeRegion() {
	local := analysis.RegionAnalysisResult{
		Region:         "DE",
		Language:       score(80),
		Culture:        score(70),
		Compliance:     score(60),
		UserExperience: score(90),
	}
	ai := analysis.RegionAnalysisResult{
		Language:       score(90),
		Culture:        score(80),
		Compliance:     score(70),
		UserExperience: score(90),
	}

	merged := analysis.NewMerger(analysis.StrategyWeighted).MergeRegion(local, &ai)

	fmt.Println("language:", merged.Language.Score)
	fmt.Println("overall:", merged.OverallScore)
	fmt.Println("ai enhanced:", merged.AIEnhanced)
	// Output:
	// language: 86
	// overall: 79
	// ai enhanced: true
}

func ExampleOrchestrator_Analyze() {
	store, _ := cache.NewMemoryStore(cache.StoreConfig{MaxEntries: 100})
	orch, _ := analysis.NewOrchestrator(analysis.Config{Store: store})

	content := analysis.Content{
		URL:      "https://example.com/about",
		Title:    "About us",
		Language: "en",
	}
	ctx := context.Background()

	first, _ := orch.Analyze(ctx, content, []string{"gb"}, analysis.Options{})
	second, _ := orch.Analyze(ctx, content, []string{"GB"}, analysis.Options{})

	fmt.Println("state:", first.States["GB"])
	fmt.Println("first from cache:", first.Regions["GB"].FromCache)
	fmt.Println("second from cache:", second.Regions["GB"].FromCache)
	fmt.Println("cached entries:", orch.CacheStats().Size)
	// Output:
	// state: COMPLETE
	// first from cache: false
	// second from cache: true
	// cached entries: 1
}

func ExampleLookupRegion() {
	r, _ := analysis.LookupRegion("de")
	fmt.Println(r.Name, r.Currency, r.Languages)
	// Output:
	// Germany EUR [de]
}
