package locations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiangge-ph/tiangge/bulletin"
	"github.com/tiangge-ph/tiangge/cache"
)

var siquijorOnly = []bulletin.Province{
	{ID: 1, Name: "Siquijor", Slug: "siquijor", PSGCCode: "074"},
}

func newTestProvinceCache(t *testing.T) (*ProvinceCache, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory()
	return NewProvinceCache(store, zerolog.Nop()), store
}

func TestProvinceCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	pc, _ := newTestProvinceCache(t)

	if got := pc.Provinces(ctx); got != nil {
		t.Fatalf("empty cache returned %v, want nil", got)
	}

	if err := pc.SetProvinces(ctx, siquijorOnly); err != nil {
		t.Fatal(err)
	}

	got := pc.Provinces(ctx)
	if len(got) != 1 {
		t.Fatalf("Provinces() returned %d records, want 1", len(got))
	}
	if got[0].Name != "Siquijor" || got[0].PSGCCode != "074" {
		t.Errorf("Provinces()[0] = %+v", got[0])
	}
}

func TestProvinceCacheExpiry(t *testing.T) {
	ctx := context.Background()
	pc, _ := newTestProvinceCache(t)

	base := time.Now()
	pc.now = func() time.Time { return base }
	if err := pc.SetProvinces(ctx, siquijorOnly); err != nil {
		t.Fatal(err)
	}

	pc.now = func() time.Time { return base.Add(ProvinceTTL - time.Minute) }
	if !pc.Valid(ctx) {
		t.Error("entry just under the TTL should be valid")
	}

	pc.now = func() time.Time { return base.Add(ProvinceTTL) }
	if pc.Valid(ctx) {
		t.Error("entry at the TTL should read as expired")
	}
	if got := pc.Provinces(ctx); got != nil {
		t.Errorf("expired entry returned %v, want nil", got)
	}
}

func TestProvinceCacheVersionMismatch(t *testing.T) {
	ctx := context.Background()
	pc, store := newTestProvinceCache(t)

	if err := pc.SetProvinces(ctx, siquijorOnly); err != nil {
		t.Fatal(err)
	}

	// A fresh timestamp does not save an entry written under an old schema.
	if err := store.Set(ctx, keyCacheVersion, []byte("2")); err != nil {
		t.Fatal(err)
	}
	if pc.Valid(ctx) {
		t.Error("version 2 entry should be invalid while current version is 3")
	}
	if got := pc.Provinces(ctx); got != nil {
		t.Errorf("version-mismatched entry returned %v, want nil", got)
	}
}

func TestProvinceCacheMalformedPayload(t *testing.T) {
	ctx := context.Background()
	pc, store := newTestProvinceCache(t)

	if err := pc.SetProvinces(ctx, siquijorOnly); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, keyProvinces, []byte("{definitely not json")); err != nil {
		t.Fatal(err)
	}

	if got := pc.Provinces(ctx); got != nil {
		t.Errorf("malformed payload returned %v, want nil", got)
	}
}

func TestProvinceCacheMalformedTimestamp(t *testing.T) {
	ctx := context.Background()
	pc, store := newTestProvinceCache(t)

	if err := pc.SetProvinces(ctx, siquijorOnly); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, keyCacheTime, []byte("yesterday")); err != nil {
		t.Fatal(err)
	}

	if pc.Valid(ctx) {
		t.Error("unparseable timestamp should invalidate the entry")
	}
}

func TestProvinceCachePartialEntry(t *testing.T) {
	ctx := context.Background()

	for _, missing := range []string{keyProvinces, keyCacheTime, keyCacheVersion} {
		pc, store := newTestProvinceCache(t)
		if err := pc.SetProvinces(ctx, siquijorOnly); err != nil {
			t.Fatal(err)
		}
		if err := store.Delete(ctx, missing); err != nil {
			t.Fatal(err)
		}
		if pc.Valid(ctx) {
			t.Errorf("entry missing %q should be invalid", missing)
		}
	}
}

func TestProvinceCacheClear(t *testing.T) {
	ctx := context.Background()
	pc, store := newTestProvinceCache(t)

	if err := pc.SetProvinces(ctx, siquijorOnly); err != nil {
		t.Fatal(err)
	}
	if err := pc.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	if pc.Valid(ctx) {
		t.Error("cleared cache should be invalid")
	}
	for _, key := range []string{keyProvinces, keyCacheTime, keyCacheVersion} {
		if _, err := store.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
			t.Errorf("key %q still present after Clear", key)
		}
	}
}
