package usecases

import (
	"context"
	"encoding/json"

	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/pkg/metrics"
)

// Cache TTLs in seconds.
const (
	searchTTL     = 60
	submissionTTL = 600
)

// readThrough returns the cached value for key, or calls load and caches its
// result. A nil cache or an undecodable entry falls through to load.
func readThrough[T any](ctx context.Context, cache ports.CacheService, op, key string, ttl int, load func() (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				metrics.CacheHits.WithLabelValues(op).Inc()
				return v, nil
			}
		}
		metrics.CacheMisses.WithLabelValues(op).Inc()
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttl)
		}
	}
	return v, nil
}

func spatialKey(submissionID string) string  { return "submissions:spatial:" + submissionID }
func metadataKey(submissionID string) string { return "submissions:metadata:" + submissionID }
