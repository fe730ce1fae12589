package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/observability"
)

const (
	cacheSize = 128
	cacheTTL  = 30 * time.Second
)

type resultCache struct {
	lru *lru.LRU[string, []model.Item]
}

func newResultCache() *resultCache {
	return &resultCache{lru: lru.NewLRU[string, []model.Item](cacheSize, nil, cacheTTL)}
}

func (c *resultCache) get(key string) ([]model.Item, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		observability.IncSearchCacheHit()
		return v, true
	}
	observability.IncSearchCacheMiss()
	return nil, false
}

func (c *resultCache) add(key string, items []model.Item) {
	c.lru.Add(key, items)
}

func (c *resultCache) purge() {
	c.lru.Purge()
}

// cacheKey canonicalizes the request, including the link base the results
// were rendered against, and suffixes an xxhash of the canonical text so
// near-identical requests never collide.
func cacheKey(baseURL string, req Request) string {
	canon := strings.Join([]string{
		baseURL,
		strings.Join(req.Collections, ","),
		req.BBox,
		req.Datetime,
		req.SortBy,
		fmt.Sprintf("limit=%d", req.Limit),
	}, "|")
	return fmt.Sprintf("search:%016x", xxhash.Sum64String(canon))
}
