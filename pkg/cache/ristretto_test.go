package cache

import (
	"math/big"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()
	c, err := NewRistrettoCache(&RistrettoConfig{
		MaxEntries: 100,
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c.(*RistrettoCache)
}

func TestRistrettoCache(t *testing.T) {
	cache := newTestCache(t)

	t.Run("set-and-get", func(t *testing.T) {
		key := "allowance:0xaa:0xbb"
		value := big.NewInt(5_000_000)

		if !cache.Set(key, value, 1*time.Hour) {
			t.Error("expected Set to succeed")
		}
		cache.Wait()

		retrieved, found := cache.Get(key)
		if !found {
			t.Error("expected key to be found")
		}
		if retrieved.(*big.Int).Cmp(value) != 0 {
			t.Errorf("expected %s, got %v", value, retrieved)
		}
	})

	t.Run("get-missing-key", func(t *testing.T) {
		_, found := cache.Get("allowance:0xaa:0xcc")
		if found {
			t.Error("expected key to not be found")
		}
	})

	t.Run("delete", func(t *testing.T) {
		key := "title:3"
		cache.Set(key, "Will ETH close above 4000?", 1*time.Hour)
		cache.Wait()

		if _, found := cache.Get(key); !found {
			t.Error("expected key to exist before delete")
		}

		cache.Delete(key)

		if _, found := cache.Get(key); found {
			t.Error("expected key to be deleted")
		}
	})

	t.Run("ttl-expiration", func(t *testing.T) {
		key := "ttl-test"
		cache.Set(key, "stale-soon", 200*time.Millisecond)
		cache.Wait()

		if _, found := cache.Get(key); !found {
			t.Error("expected key to exist before TTL expires")
		}

		time.Sleep(300 * time.Millisecond)

		if _, found := cache.Get(key); found {
			t.Error("expected key to be expired after TTL")
		}
	})

	t.Run("clear", func(t *testing.T) {
		cache.Set("clear-key1", "value1", 1*time.Hour)
		cache.Set("clear-key2", "value2", 1*time.Hour)
		cache.Wait()

		_, found1 := cache.Get("clear-key1")
		_, found2 := cache.Get("clear-key2")
		if !found1 || !found2 {
			t.Logf("Admission: key1=%v, key2=%v", found1, found2)
			t.Skip("Ristretto probabilistic admission - some keys not admitted")
		}

		cache.Clear()

		if _, found := cache.Get("clear-key1"); found {
			t.Error("expected keys to be cleared")
		}
		if _, found := cache.Get("clear-key2"); found {
			t.Error("expected keys to be cleared")
		}
	})
}

func TestConfigDefaults(t *testing.T) {
	// Zero config takes the default sizing and a nop logger.
	c, err := NewRistrettoCache(&RistrettoConfig{})
	if err != nil {
		t.Fatalf("failed to create cache with defaults: %v", err)
	}
	defer c.Close()

	if !c.Set("key", "value", time.Hour) {
		t.Error("expected Set to succeed on default-sized cache")
	}
}

func TestLookup(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("allowance", big.NewInt(42), time.Hour)
	cache.Set("title", "Market 7", time.Hour)
	cache.Wait()

	allowance, ok := Lookup[*big.Int](cache, "allowance")
	if !ok {
		t.Fatal("expected typed hit")
	}
	if allowance.Int64() != 42 {
		t.Errorf("expected 42, got %s", allowance)
	}

	// Wrong type reads as a miss.
	if _, ok := Lookup[*big.Int](cache, "title"); ok {
		t.Error("expected type mismatch to read as miss")
	}

	// Nil cache reads as a miss.
	if _, ok := Lookup[*big.Int](nil, "allowance"); ok {
		t.Error("expected nil cache to read as miss")
	}

	if _, ok := Lookup[string](cache, "absent"); ok {
		t.Error("expected absent key to read as miss")
	}
}
