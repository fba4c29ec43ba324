package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCandidates are tried in order when REDIS_ADDR is unset: the compose service
// name used in CI, a host-local instance, then the local test profile port.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// testRedisAddr returns the first reachable Redis address. REDIS_ADDR, when set, is
// the only address tried.
func testRedisAddr(t TestingTB) (string, error) {
	t.Helper()
	candidates := redisCandidates
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}

	var lastErr error
	for _, addr := range candidates {
		if lastErr = pingRedis(addr); lastErr == nil {
			return addr, nil
		}
		t.Logf("redis not reachable at %s: %v", addr, lastErr)
	}
	return "", lastErr
}

func pingRedis(addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

// SetupTestRedis returns a client on an emptied logical database reserved for this
// test, skipping when Redis is unreachable.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()
	addr, err := testRedisAddr(t)
	if err != nil {
		unavailable(t, requireRedis(), "test redis", err)
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		unavailable(t, requireRedis(), "test redis", err)
		return nil
	}
	return client
}

// reserveRedisDB picks the logical database for a test. TEST_REDIS_DB wins; otherwise
// DB 1..15 are claimed with a lock key kept in DB 0, which tests never flush, so
// packages running in parallel do not wipe each other. DB 1 is the fallback.
func reserveRedisDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	defer closeAndLog(t, "redis meta client", meta)

	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for i := 1; i <= 15; i++ {
		key := fmt.Sprintf("bookings:testutil:db_lock:%d", i)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		won, err := meta.SetNX(ctx, key, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !won {
			continue
		}
		releaseOnCleanup(t, addr, key)
		return i
	}
	t.Logf("no free redis db at %s, using DB 1", addr)
	return 1
}

func releaseOnCleanup(t TestingTB, addr, key string) {
	cleaner, ok := any(t).(interface{ Cleanup(func()) })
	if !ok {
		return
	}
	cleaner.Cleanup(func() {
		c := redis.NewClient(&redis.Options{Addr: addr})
		defer closeAndLog(t, "redis cleanup client", c)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Del(ctx, key).Err(); err != nil {
			t.Logf("release redis db lock %s: %v", key, err)
		}
	})
}
