package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront/pkg/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromClient(raw, "test"), mr
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	client, _ := newTestClient(t)
	if _, err := client.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetGetAndTouch(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("unexpected get result %q %v", got, err)
	}
	if err := client.Touch(ctx, time.Hour, "k", "absent"); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}
	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if mr.Exists("k") {
		t.Fatalf("expected key removed")
	}
}

func TestPushRecentDeduplicatesAndCaps(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	key := client.SessionKey("s1", "search")

	for _, q := range []string{"milk", "bread", "milk", "tea", "cheese", "eggs", "jam"} {
		if err := client.PushRecent(ctx, key, q, 5, time.Hour); err != nil {
			t.Fatalf("push %q failed: %v", q, err)
		}
	}

	got, err := client.Recent(ctx, key, 5)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	want := []string{"jam", "eggs", "cheese", "tea", "milk"}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{namespace: "sf"}
	if got := client.SessionKey("abc", "tokens"); got != "sf:session:abc:tokens" {
		t.Fatalf("unexpected session key %s", got)
	}
	var unset *Client
	if got := unset.buildKey("session", "", "x"); got != "sf:session:x" {
		t.Fatalf("unexpected default namespace key %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error for uninitialized client")
	}
	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error for uninitialized client")
	}
}

func TestOptionsFromConfigRequiresEndpoint(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}
