package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/marketlens/cache"
)

// StatsSource exposes cache counters. *cache.MemoryStore satisfies it.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures the cache health checker.
type CacheCheckerConfig struct {
	// DegradedFill is the size/capacity ratio at which the cache reports
	// degraded: every further insert evicts. Default: 0.9
	DegradedFill float64

	// MaxMemoryBytes reports unhealthy when the accounted payload size
	// exceeds it. Zero disables the check.
	MaxMemoryBytes int64
}

// CacheChecker reports analysis cache fill, memory and hit rate.
type CacheChecker struct {
	source StatsSource
	config CacheCheckerConfig
}

// NewCacheChecker creates a cache health checker.
func NewCacheChecker(source StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.DegradedFill <= 0 || config.DegradedFill > 1 {
		config.DegradedFill = 0.9
	}
	return &CacheChecker{source: source, config: config}
}

func (c *CacheChecker) Name() string { return "cache" }

func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	if c.source == nil {
		return Unhealthy("cache not configured", ErrCheckFailed)
	}

	stats := c.source.Stats()
	fill := 0.0
	if stats.MaxEntries > 0 {
		fill = float64(stats.Size) / float64(stats.MaxEntries)
	}

	details := map[string]any{
		"size":         stats.Size,
		"max_entries":  stats.MaxEntries,
		"fill_ratio":   fill,
		"hits":         stats.Hits,
		"misses":       stats.Misses,
		"hit_rate":     stats.HitRate,
		"evictions":    stats.Evictions,
		"expirations":  stats.Expirations,
		"memory_bytes": stats.MemoryBytes,
	}

	if c.config.MaxMemoryBytes > 0 && stats.MemoryBytes > c.config.MaxMemoryBytes {
		return Unhealthy(
			fmt.Sprintf("cache memory %d bytes exceeds limit %d", stats.MemoryBytes, c.config.MaxMemoryBytes),
			ErrMemoryLimit,
		).WithDetails(details)
	}
	if fill >= c.config.DegradedFill {
		return Degraded(fmt.Sprintf("cache %.0f%% full, evicting", fill*100)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("cache %.0f%% full, hit rate %.1f%%", fill*100, stats.HitRate*100)).WithDetails(details)
}
