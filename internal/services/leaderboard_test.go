package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lbredis "github.com/yungbote/aletheia-backend/internal/clients/redis"
	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
)

type memBoard struct {
	mu       sync.Mutex
	boards   map[string]map[uuid.UUID]float64
	rebuilds int
	err      error
}

func newMemBoard() *memBoard { return &memBoard{boards: map[string]map[uuid.UUID]float64{}} }

func (b *memBoard) Upsert(ctx context.Context, userID uuid.UUID, scores map[string]float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for k, v := range scores {
		if b.boards[k] == nil {
			b.boards[k] = map[uuid.UUID]float64{}
		}
		b.boards[k][userID] = v
	}
	return nil
}

func (b *memBoard) Remove(ctx context.Context, userID uuid.UUID, boards []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range boards {
		delete(b.boards[k], userID)
	}
	return b.err
}

func (b *memBoard) Top(ctx context.Context, board string, limit int) ([]lbredis.Member, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, false, b.err
	}
	set, warm := b.boards[board]
	out := make([]lbredis.Member, 0, len(set))
	for id, s := range set {
		out = append(out, lbredis.Member{UserID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, warm, nil
}

func (b *memBoard) Rebuild(ctx context.Context, board string, members []lbredis.Member) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuilds++
	set := map[uuid.UUID]float64{}
	for _, m := range members {
		set[m.UserID] = m.Score
	}
	b.boards[board] = set
	return nil
}

func (b *memBoard) Close() error { return nil }

func seedRanked(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []struct {
		name   string
		level  int
		xp     int
		wealth int
	}{
		{"bravo", 3, 10, 9},
		{"alpha", 3, 10, 2},
		{"charlie", 5, 0, 4},
		{"delta", 3, 50, 1},
	} {
		st := progression.DefaultStats()
		st.Level, st.XP, st.Wealth = s.level, s.xp, s.wealth
		testutil.SeedProfileWithStats(t, ctx, h.db, s.name, st)
	}
}

func usernames(page *LeaderboardPage) []string {
	out := make([]string, 0, len(page.Entries))
	for _, e := range page.Entries {
		out = append(out, e.Username)
	}
	return out
}

func TestLeaderboardFromDatabase(t *testing.T) {
	h := newHarness(t, nil)
	seedRanked(t, h)
	ctx := context.Background()

	page, err := h.board.Top(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, SortLevel, page.Sort)
	assert.Equal(t, []string{"charlie", "delta", "alpha", "bravo"}, usernames(page))
	assert.Equal(t, 1, page.Entries[0].Rank)
	assert.Equal(t, 5, page.Entries[0].Value)
	assert.Equal(t, string(progression.RankE), page.Entries[0].Tier)

	page, err = h.board.Top(ctx, "Wealth", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"bravo", "charlie"}, usernames(page))
	assert.Equal(t, 9, page.Entries[0].Value)

	_, err = h.board.Top(ctx, "luck", 10)
	requireAPICode(t, err, 400, "invalid_sort")
}

func TestLeaderboardClampsLimit(t *testing.T) {
	assert.Equal(t, defaultLeaderboardSize, clampLimit(0))
	assert.Equal(t, defaultLeaderboardSize, clampLimit(-3))
	assert.Equal(t, maxLeaderboardSize, clampLimit(1000))
	assert.Equal(t, 7, clampLimit(7))
}

func TestLeaderboardCacheRebuildsColdBoards(t *testing.T) {
	h := newHarness(t, nil)
	seedRanked(t, h)
	ctx := context.Background()
	board := newMemBoard()
	svc := NewLeaderboardService(testutil.Logger(t), h.repos.Profiles, board)

	page, err := svc.Top(ctx, "level", 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 4)
	assert.Equal(t, []string{"charlie", "delta"}, usernames(page)[:2])
	assert.Equal(t, len(LeaderboardSorts), board.rebuilds)

	page, err = svc.Top(ctx, "wealth", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"bravo"}, usernames(page))
	assert.Equal(t, len(LeaderboardSorts), board.rebuilds)

	st := progression.DefaultStats()
	st.Level = 40
	top := testutil.SeedProfileWithStats(t, ctx, h.db, "echo", st)
	svc.Sync(ctx, top)
	page, err = svc.Top(ctx, "level", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, usernames(page))
	assert.Equal(t, string(progression.RankB), page.Entries[0].Tier)

	svc.Forget(ctx, top.ID)
	page, err = svc.Top(ctx, "level", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie"}, usernames(page))
}

func TestLeaderboardCacheRefillsPastDeactivatedMembers(t *testing.T) {
	h := newHarness(t, nil)
	seedRanked(t, h)
	ctx := context.Background()
	board := newMemBoard()
	svc := NewLeaderboardService(testutil.Logger(t), h.repos.Profiles, board)

	page, err := svc.Top(ctx, "level", 10)
	require.NoError(t, err)
	require.Equal(t, "charlie", page.Entries[0].Username)
	charlie := page.Entries[0].UserID

	require.NoError(t, h.db.Model(&types.Profile{}).Where("id = ?", charlie).Update("is_deactivated", true).Error)

	page, err = svc.Top(ctx, "level", 2)
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "delta", page.Entries[0].Username)
	assert.Equal(t, 1, page.Entries[0].Rank)
	assert.NotContains(t, usernames(page), "charlie")

	board.mu.Lock()
	_, stillRanked := board.boards["level"][charlie]
	board.mu.Unlock()
	assert.False(t, stillRanked, "deactivated member should leave the board")
}

func TestLeaderboardFallsBackWhenCacheFails(t *testing.T) {
	h := newHarness(t, nil)
	seedRanked(t, h)
	board := newMemBoard()
	board.err = errors.New("connection refused")
	svc := NewLeaderboardService(testutil.Logger(t), h.repos.Profiles, board)

	page, err := svc.Top(context.Background(), "level", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "delta"}, usernames(page))
}
