package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Member is one ranked user in a board.
type Member struct {
	UserID uuid.UUID
	Score  float64
}

// Leaderboard keeps one sorted set per sort key.
type Leaderboard interface {
	// Upsert writes the user's score on every board in one round trip.
	Upsert(ctx context.Context, userID uuid.UUID, scores map[string]float64) error
	Remove(ctx context.Context, userID uuid.UUID, boards []string) error
	// Top returns members by descending score. warm is false when the board
	// has never been built and the caller should rebuild it.
	Top(ctx context.Context, board string, limit int) (members []Member, warm bool, err error)
	Rebuild(ctx context.Context, board string, members []Member) error
	Close() error
}

type leaderboard struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewLeaderboard(log *logger.Logger, cfg Config) (Leaderboard, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newLeaderboard(log, rdb, cfg.KeyPrefix), nil
}

func newLeaderboard(log *logger.Logger, rdb *goredis.Client, prefix string) *leaderboard {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "aletheia"
	}
	return &leaderboard{
		log:    log.With("service", "RedisLeaderboard"),
		rdb:    rdb,
		prefix: prefix,
	}
}

func (l *leaderboard) key(board string) string {
	return l.prefix + ":leaderboard:" + board
}

// builtKey marks a board as built so an empty board is still warm.
func (l *leaderboard) builtKey(board string) string {
	return l.key(board) + ":built"
}

func (l *leaderboard) Upsert(ctx context.Context, userID uuid.UUID, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	member := userID.String()
	_, err := l.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for board, score := range scores {
			p.ZAdd(ctx, l.key(board), goredis.Z{Score: score, Member: member})
		}
		return nil
	})
	return err
}

func (l *leaderboard) Remove(ctx context.Context, userID uuid.UUID, boards []string) error {
	member := userID.String()
	_, err := l.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for _, board := range boards {
			p.ZRem(ctx, l.key(board), member)
		}
		return nil
	})
	return err
}

func (l *leaderboard) Top(ctx context.Context, board string, limit int) ([]Member, bool, error) {
	if limit <= 0 {
		return nil, true, nil
	}
	built, err := l.rdb.Exists(ctx, l.builtKey(board)).Result()
	if err != nil {
		return nil, false, err
	}
	if built == 0 {
		return nil, false, nil
	}
	zs, err := l.rdb.ZRevRangeWithScores(ctx, l.key(board), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, false, err
	}
	out := make([]Member, 0, len(zs))
	for _, z := range zs {
		raw, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			l.log.Warn("Dropping malformed leaderboard member", "board", board, "member", raw)
			continue
		}
		out = append(out, Member{UserID: id, Score: z.Score})
	}
	return out, true, nil
}

func (l *leaderboard) Rebuild(ctx context.Context, board string, members []Member) error {
	key := l.key(board)
	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		if len(members) > 0 {
			zs := make([]goredis.Z, 0, len(members))
			for _, m := range members {
				zs = append(zs, goredis.Z{Score: m.Score, Member: m.UserID.String()})
			}
			p.ZAdd(ctx, key, zs...)
		}
		p.Set(ctx, l.builtKey(board), time.Now().UTC().Format(time.RFC3339), 0)
		return nil
	})
	if err == nil {
		l.log.Debug("Leaderboard rebuilt", "board", board, "members", len(members))
	}
	return err
}

func (l *leaderboard) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
