package cache

import (
	"context"
	"testing"
	"time"

	"github.com/vitrine-next/internal/config"
)

func TestDisabledStoreIsNoop(t *testing.T) {
	store := NewStore(&config.RedisConfig{Enabled: false})
	if store.Enabled() {
		t.Fatalf("store should be disabled")
	}
	if store.Client() != nil {
		t.Fatalf("disabled store should not expose a client")
	}
	ctx := context.Background()
	if err := store.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("set on disabled store should be noop: %v", err)
	}
	var dest map[string]int
	hit, err := store.GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("get on disabled store want miss, got hit=%v err=%v", hit, err)
	}
	if err := store.Del(ctx, "k"); err != nil {
		t.Fatalf("del on disabled store should be noop: %v", err)
	}
}

func TestStoreKeyPrefix(t *testing.T) {
	store := NewStoreWithClient(nil, "shop")
	if got := store.Key("coupon:stats"); got != "shop:coupon:stats" {
		t.Fatalf("key want shop:coupon:stats got %s", got)
	}
	if got := store.Key("  "); got != "shop" {
		t.Fatalf("blank key want prefix only, got %s", got)
	}
	var nilStore *Store
	if got := nilStore.Key("x"); got != "vt:x" {
		t.Fatalf("nil store key want vt:x got %s", got)
	}
}
