package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

func testLeaderboard(t *testing.T) *leaderboard {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	lb := newLeaderboard(logger.Nop(), rdb, "test-"+uuid.NewString())
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, lb.prefix+":*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
		_ = rdb.Close()
	})
	return lb
}

func TestLeaderboardColdThenWarm(t *testing.T) {
	lb := testLeaderboard(t)
	ctx := context.Background()

	_, warm, err := lb.Top(ctx, "level", 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if warm {
		t.Fatalf("expected cold board")
	}

	a, b := uuid.New(), uuid.New()
	if err := lb.Rebuild(ctx, "level", []Member{{UserID: a, Score: 5}, {UserID: b, Score: 9}}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := lb.Upsert(ctx, a, map[string]float64{"level": 12}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	top, warm, err := lb.Top(ctx, "level", 10)
	if err != nil || !warm {
		t.Fatalf("Top: warm=%v err=%v", warm, err)
	}
	if len(top) != 2 || top[0].UserID != a || top[0].Score != 12 {
		t.Fatalf("unexpected order: %+v", top)
	}

	if err := lb.Remove(ctx, a, []string{"level"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	top, _, _ = lb.Top(ctx, "level", 10)
	if len(top) != 1 || top[0].UserID != b {
		t.Fatalf("unexpected after remove: %+v", top)
	}
}
