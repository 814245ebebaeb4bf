package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/form-signals/internal/models"
	"github.com/yourusername/form-signals/internal/repository"
)

// HistoryKey identifies one team's history window before a kickoff
type HistoryKey struct {
	TeamID int64
	Before time.Time
	Limit  int
}

// String returns string representation of history key
func (k HistoryKey) String() string {
	return fmt.Sprintf("%d:%d:%d", k.TeamID, k.Before.Unix(), k.Limit)
}

// HistoryCache keeps recent finished results per team so that teams
// playing several fixtures in a window are read once. A zero TTL disables
// caching.
type HistoryCache struct {
	matches repository.MatchRepository
	cache   *cache.Cache
	ttl     time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewHistoryCache creates a history cache in front of matches
func NewHistoryCache(matches repository.MatchRepository, ttl time.Duration) *HistoryCache {
	hc := &HistoryCache{matches: matches, ttl: ttl}
	if ttl > 0 {
		hc.cache = cache.New(ttl, ttl*2)
	}
	return hc
}

// Recent returns up to limit finished results of teamID before the given
// time, most recent first.
func (hc *HistoryCache) Recent(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.MatchRecord, error) {
	key := HistoryKey{TeamID: teamID, Before: before, Limit: limit}

	if hc.cache != nil {
		if v, found := hc.cache.Get(key.String()); found {
			if records, ok := v.([]models.MatchRecord); ok {
				hc.hits.Add(1)
				return records, nil
			}
		}
	}
	hc.misses.Add(1)

	records, err := hc.matches.GetRecentFinished(ctx, teamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for team %d: %w", teamID, err)
	}

	if hc.cache != nil {
		hc.cache.Set(key.String(), records, hc.ttl)
	}
	return records, nil
}

// Flush drops every cached history. Called after backfill, when newly
// finished matches change what a window contains.
func (hc *HistoryCache) Flush() {
	if hc.cache != nil {
		hc.cache.Flush()
	}
}

// Stats returns cache hit and miss counts
func (hc *HistoryCache) Stats() (hits, misses uint64) {
	return hc.hits.Load(), hc.misses.Load()
}
