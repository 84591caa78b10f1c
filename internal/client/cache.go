package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v9"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

// SearchCache keeps per-(store, query) result lists in Redis so the
// interactive search path does not hammer the stores. Alert
// evaluations bypass it and always scrape fresh.
type SearchCache struct {
	Redis  *redis.Client
	TTL    time.Duration
	Logger logger
}

func searchCacheKey(storeSlug string, query string) string {
	return "search:" + storeSlug + ":" + strings.ToLower(strings.TrimSpace(query))
}

func (sc SearchCache) Get(ctx context.Context, storeSlug string, query string) ([]model.Listing, bool) {
	if sc.Redis == nil {
		return nil, false
	}
	key := searchCacheKey(storeSlug, query)
	cached, err := sc.Redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			sc.Logger.Errorf("SearchCache: Error getting cache, key: %s, err: %v", key, err)
		}
		return nil, false
	}
	var listings []model.Listing
	if err := json.Unmarshal([]byte(cached), &listings); err != nil {
		sc.Logger.Errorf("SearchCache: Error unmarshalling cache, key: %s, err: %v", key, err)
		return nil, false
	}
	sc.Logger.Debugf("SearchCache: Cache hit, key: %s", key)
	return listings, true
}

func (sc SearchCache) Set(ctx context.Context, storeSlug string, query string, listings []model.Listing) {
	if sc.Redis == nil {
		return
	}
	key := searchCacheKey(storeSlug, query)
	data, err := json.Marshal(listings)
	if err != nil {
		sc.Logger.Errorf("SearchCache: Error marshalling listings, key: %s, err: %v", key, err)
		return
	}
	if err := sc.Redis.Set(ctx, key, data, sc.TTL).Err(); err != nil {
		sc.Logger.Errorf("SearchCache: Error setting cache, key: %s, err: %v", key, err)
	}
}
