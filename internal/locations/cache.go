package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiangge-ph/tiangge/bulletin"
	"github.com/tiangge-ph/tiangge/cache"
	"github.com/tiangge-ph/tiangge/internal/metrics"
)

// SchemaVersion tags cached province payloads. Any change to the Province
// record shape requires bumping it, which invalidates every outstanding
// cache with no migration.
const SchemaVersion = "3"

// ProvinceTTL bounds how long a cached province list is served.
const ProvinceTTL = 24 * time.Hour

// Persisted layout: three keys, written together, read as one logical entry.
const (
	keyProvinces    = "provinces"
	keyCacheTime    = "provinces_cache_time" // epoch milliseconds, as a string
	keyCacheVersion = "provinces_cache_version"
)

// ProvinceCache applies the freshness policy over a Store: a stored list is
// served only while its schema version matches SchemaVersion and it is
// younger than ProvinceTTL. Every other state, malformed payloads included,
// reads as a miss. No other component writes these keys.
type ProvinceCache struct {
	store cache.Store
	log   zerolog.Logger

	// now is swapped in tests to pin the clock.
	now     func() time.Time
	version string
	ttl     time.Duration
}

func NewProvinceCache(store cache.Store, log zerolog.Logger) *ProvinceCache {
	return &ProvinceCache{
		store:   store,
		log:     log.With().Str("component", "province_cache").Logger(),
		now:     time.Now,
		version: SchemaVersion,
		ttl:     ProvinceTTL,
	}
}

// Valid reports whether a stored list exists, carries the current schema
// version, and is younger than the TTL.
func (pc *ProvinceCache) Valid(ctx context.Context) bool {
	version, err := pc.store.Get(ctx, keyCacheVersion)
	if err != nil || string(version) != pc.version {
		return false
	}

	rawTime, err := pc.store.Get(ctx, keyCacheTime)
	if err != nil {
		return false
	}
	ms, err := strconv.ParseInt(string(rawTime), 10, 64)
	if err != nil {
		pc.log.Warn().Str("value", string(rawTime)).Msg("malformed cache timestamp, treating as miss")
		return false
	}
	if pc.now().Sub(time.UnixMilli(ms)) >= pc.ttl {
		return false
	}

	_, err = pc.store.Get(ctx, keyProvinces)
	return err == nil
}

// Provinces returns the cached list, or nil when the entry is invalid or
// unreadable. Malformed payloads are a logged miss, never an error.
func (pc *ProvinceCache) Provinces(ctx context.Context) []bulletin.Province {
	if !pc.Valid(ctx) {
		metrics.ProvinceCacheMisses.Inc()
		return nil
	}

	payload, err := pc.store.Get(ctx, keyProvinces)
	if err != nil {
		metrics.ProvinceCacheMisses.Inc()
		return nil
	}

	var provinces []bulletin.Province
	if err := json.Unmarshal(payload, &provinces); err != nil {
		pc.log.Warn().Err(err).Msg("malformed province cache payload, treating as miss")
		metrics.ProvinceCacheMisses.Inc()
		return nil
	}

	metrics.ProvinceCacheHits.Inc()
	return provinces
}

// SetProvinces persists the list with the current timestamp and schema
// version. The three writes are not transactional; a partial write only
// degrades to a miss on the next read.
func (pc *ProvinceCache) SetProvinces(ctx context.Context, provinces []bulletin.Province) error {
	payload, err := json.Marshal(provinces)
	if err != nil {
		return fmt.Errorf("encode provinces: %w", err)
	}

	if err := pc.store.Set(ctx, keyProvinces, payload); err != nil {
		return fmt.Errorf("store provinces: %w", err)
	}
	ms := strconv.FormatInt(pc.now().UnixMilli(), 10)
	if err := pc.store.Set(ctx, keyCacheTime, []byte(ms)); err != nil {
		return fmt.Errorf("store cache time: %w", err)
	}
	if err := pc.store.Set(ctx, keyCacheVersion, []byte(pc.version)); err != nil {
		return fmt.Errorf("store cache version: %w", err)
	}
	return nil
}

// Clear removes the payload, timestamp, and version keys.
func (pc *ProvinceCache) Clear(ctx context.Context) error {
	return pc.store.Delete(ctx, keyProvinces, keyCacheTime, keyCacheVersion)
}
