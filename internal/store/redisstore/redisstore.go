// Package redisstore implements the record store on Redis. Collections
// are JSON strings indexed by a set of ids; the items of a collection
// live in one hash so a collection delete cascades with a single DEL.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geopod-io/geopod/internal/observability"
	"github.com/geopod-io/geopod/internal/store"
)

const (
	keyCollectionSet = "geopod:collections"
	keySettings      = "geopod:settings"
)

func keyCollection(id string) string { return "geopod:collection:" + id }
func keyItems(collectionID string) string {
	return "geopod:items:" + collectionID
}

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

type Client struct {
	rdb *redis.Client
}

func New(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveStoreOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) Collections() store.Collections { return collections{c.rdb} }
func (c *Client) Items() store.Items             { return items{c.rdb} }
func (c *Client) Settings() store.Settings       { return settings{c.rdb} }

type collections struct {
	rdb *redis.Client
}

func (s collections) GetAll(ctx context.Context) ([]store.CollectionRecord, error) {
	start := time.Now()
	ids, err := s.rdb.SMembers(ctx, keyCollectionSet).Result()
	if err != nil {
		observability.ObserveStoreOp("collections_get_all", err, time.Since(start).Seconds())
		return nil, fmt.Errorf("redis SMEMBERS %s: %w", keyCollectionSet, err)
	}
	sort.Strings(ids)

	out := make([]store.CollectionRecord, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.Get(ctx, keyCollection(id)).Result()
		if errors.Is(err, redis.Nil) {
			continue // id indexed but record gone; skip
		}
		if err != nil {
			observability.ObserveStoreOp("collections_get_all", err, time.Since(start).Seconds())
			return nil, fmt.Errorf("redis GET %s: %w", keyCollection(id), err)
		}
		var rec store.CollectionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			observability.ObserveStoreOp("collections_get_all", err, time.Since(start).Seconds())
			return nil, fmt.Errorf("decode collection %s: %w", id, err)
		}
		out = append(out, rec)
	}
	observability.ObserveStoreOp("collections_get_all", nil, time.Since(start).Seconds())
	return out, nil
}

func (s collections) GetByID(ctx context.Context, id string) (store.CollectionRecord, error) {
	start := time.Now()
	raw, err := s.rdb.Get(ctx, keyCollection(id)).Result()
	if errors.Is(err, redis.Nil) {
		observability.ObserveStoreOp("collections_get", nil, time.Since(start).Seconds())
		return store.CollectionRecord{}, store.ErrNotFound
	}
	if err != nil {
		observability.ObserveStoreOp("collections_get", err, time.Since(start).Seconds())
		return store.CollectionRecord{}, fmt.Errorf("redis GET %s: %w", keyCollection(id), err)
	}
	var rec store.CollectionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		observability.ObserveStoreOp("collections_get", err, time.Since(start).Seconds())
		return store.CollectionRecord{}, fmt.Errorf("decode collection %s: %w", id, err)
	}
	observability.ObserveStoreOp("collections_get", nil, time.Since(start).Seconds())
	return rec, nil
}

func (s collections) Create(ctx context.Context, rec store.CollectionRecord) error {
	return s.put(ctx, "collections_create", rec)
}

func (s collections) Update(ctx context.Context, rec store.CollectionRecord) error {
	return s.put(ctx, "collections_update", rec)
}

func (s collections) put(ctx context.Context, op string, rec store.CollectionRecord) error {
	start := time.Now()
	raw, err := json.Marshal(rec)
	if err != nil {
		observability.ObserveStoreOp(op, err, time.Since(start).Seconds())
		return fmt.Errorf("encode collection %s: %w", rec.ID, err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, keyCollection(rec.ID), raw, 0)
	pipe.SAdd(ctx, keyCollectionSet, rec.ID)
	_, err = pipe.Exec(ctx)
	observability.ObserveStoreOp(op, err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET %s: %w", keyCollection(rec.ID), err)
	}
	return nil
}

// Delete removes the collection record, its index entry and the whole
// items hash in one transaction: the cascade.
func (s collections) Delete(ctx context.Context, id string) error {
	start := time.Now()
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, keyCollection(id))
	pipe.SRem(ctx, keyCollectionSet, id)
	pipe.Del(ctx, keyItems(id))
	_, err := pipe.Exec(ctx)
	observability.ObserveStoreOp("collections_delete", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis DEL %s: %w", keyCollection(id), err)
	}
	return nil
}

type items struct {
	rdb *redis.Client
}

func (s items) GetByCollection(ctx context.Context, collectionID string, limit, offset int) ([]store.ItemRecord, error) {
	start := time.Now()
	raw, err := s.rdb.HGetAll(ctx, keyItems(collectionID)).Result()
	if err != nil {
		observability.ObserveStoreOp("items_get_by_collection", err, time.Since(start).Seconds())
		return nil, fmt.Errorf("redis HGETALL %s: %w", keyItems(collectionID), err)
	}

	recs := make([]store.ItemRecord, 0, len(raw))
	for id, v := range raw {
		var rec store.ItemRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			observability.ObserveStoreOp("items_get_by_collection", err, time.Since(start).Seconds())
			return nil, fmt.Errorf("decode item %s/%s: %w", collectionID, id, err)
		}
		recs = append(recs, rec)
	}
	// hashes are unordered; paging needs a stable order
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	if offset > 0 {
		if offset >= len(recs) {
			recs = nil
		} else {
			recs = recs[offset:]
		}
	}
	if limit >= 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	observability.ObserveStoreOp("items_get_by_collection", nil, time.Since(start).Seconds())
	return recs, nil
}

func (s items) GetByID(ctx context.Context, collectionID, id string) (store.ItemRecord, error) {
	start := time.Now()
	raw, err := s.rdb.HGet(ctx, keyItems(collectionID), id).Result()
	if errors.Is(err, redis.Nil) {
		observability.ObserveStoreOp("items_get", nil, time.Since(start).Seconds())
		return store.ItemRecord{}, store.ErrNotFound
	}
	if err != nil {
		observability.ObserveStoreOp("items_get", err, time.Since(start).Seconds())
		return store.ItemRecord{}, fmt.Errorf("redis HGET %s %s: %w", keyItems(collectionID), id, err)
	}
	var rec store.ItemRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		observability.ObserveStoreOp("items_get", err, time.Since(start).Seconds())
		return store.ItemRecord{}, fmt.Errorf("decode item %s/%s: %w", collectionID, id, err)
	}
	observability.ObserveStoreOp("items_get", nil, time.Since(start).Seconds())
	return rec, nil
}

func (s items) Create(ctx context.Context, rec store.ItemRecord) error {
	return s.put(ctx, "items_create", rec)
}

func (s items) Update(ctx context.Context, rec store.ItemRecord) error {
	return s.put(ctx, "items_update", rec)
}

func (s items) put(ctx context.Context, op string, rec store.ItemRecord) error {
	start := time.Now()
	raw, err := json.Marshal(rec)
	if err != nil {
		observability.ObserveStoreOp(op, err, time.Since(start).Seconds())
		return fmt.Errorf("encode item %s/%s: %w", rec.CollectionID, rec.ID, err)
	}
	err = s.rdb.HSet(ctx, keyItems(rec.CollectionID), rec.ID, raw).Err()
	observability.ObserveStoreOp(op, err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis HSET %s %s: %w", keyItems(rec.CollectionID), rec.ID, err)
	}
	return nil
}

func (s items) Delete(ctx context.Context, collectionID, id string) error {
	start := time.Now()
	err := s.rdb.HDel(ctx, keyItems(collectionID), id).Err()
	observability.ObserveStoreOp("items_delete", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis HDEL %s %s: %w", keyItems(collectionID), id, err)
	}
	return nil
}

type settings struct {
	rdb *redis.Client
}

func (s settings) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, err := s.rdb.HGet(ctx, keySettings, key).Result()
	if errors.Is(err, redis.Nil) {
		observability.ObserveStoreOp("settings_get", nil, time.Since(start).Seconds())
		return "", false, nil
	}
	observability.ObserveStoreOp("settings_get", err, time.Since(start).Seconds())
	if err != nil {
		return "", false, fmt.Errorf("redis HGET %s %s: %w", keySettings, key, err)
	}
	return v, true, nil
}

func (s settings) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.rdb.HSet(ctx, keySettings, key, value).Err()
	observability.ObserveStoreOp("settings_set", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis HSET %s %s: %w", keySettings, key, err)
	}
	return nil
}
