package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketCoords = []byte("coords")

// Cache persists resolved coordinates between runs. An entry is only reused
// when the requested city set is exactly the set that produced it; any change
// to the set is treated as a miss and triggers re-resolution.
type Cache struct {
	db *bolt.DB
}

// OpenCache opens (or creates) the cache database at path, creating parent
// directories as needed.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCoords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// setKey builds the canonical key for a city set. The key covers the full set,
// sorted, so set equality is key equality.
func setKey(cities []CityEntry) string {
	parts := make([]string, len(cities))
	for i, city := range cities {
		parts[i] = Query(city)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Lookup returns the cached resolution for exactly this city set.
func (c *Cache) Lookup(cities []CityEntry) ([]ResolvedCity, bool, error) {
	var resolved []ResolvedCity
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCoords).Get([]byte(setKey(cities)))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &resolved)
	})
	if err != nil {
		return nil, false, err
	}
	return resolved, resolved != nil, nil
}

// Store persists a resolved city set under its set key.
func (c *Cache) Store(resolved []ResolvedCity) error {
	entries := make([]CityEntry, len(resolved))
	for i, rc := range resolved {
		entries[i] = rc.CityEntry
	}

	data, err := json.Marshal(resolved)
	if err != nil {
		return fmt.Errorf("encoding resolved cities: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCoords).Put([]byte(setKey(entries)), data)
	})
}

// CachedResolver combines the cache with a Resolver: cache hit short-circuits,
// miss resolves the full set and stores the result.
type CachedResolver struct {
	cache    *Cache
	resolver *Resolver
	logger   *zap.Logger
}

// NewCachedResolver creates a CachedResolver.
func NewCachedResolver(cache *Cache, resolver *Resolver, logger *zap.Logger) *CachedResolver {
	return &CachedResolver{cache: cache, resolver: resolver, logger: logger}
}

// EnsureResolved returns coordinates for the city set, from cache when the set
// matches, otherwise via fresh resolution.
func (cr *CachedResolver) EnsureResolved(ctx context.Context, cities []CityEntry) ([]ResolvedCity, error) {
	cached, ok, err := cr.cache.Lookup(cities)
	if err != nil {
		return nil, fmt.Errorf("coordinate cache lookup: %w", err)
	}
	if ok {
		cr.logger.Info("coordinates served from cache", zap.Int("cities", len(cached)))
		return cached, nil
	}

	cr.logger.Info("updating city coordinates", zap.Int("cities", len(cities)))
	resolved, err := cr.resolver.Resolve(ctx, cities)
	if err != nil {
		return nil, err
	}
	if err := cr.cache.Store(resolved); err != nil {
		return nil, fmt.Errorf("storing coordinates: %w", err)
	}
	return resolved, nil
}
