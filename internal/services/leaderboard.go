package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	lbredis "github.com/yungbote/aletheia-backend/internal/clients/redis"
	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/observability"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

const (
	SortLevel              = "level"
	defaultLeaderboardSize = 50
	maxLeaderboardSize     = 100
	maxCacheRefills        = 3
	// level rank is level-major, xp-minor; xp stays far below this.
	levelScoreScale = 1e12
)

// LeaderboardSorts lists every accepted sort key.
var LeaderboardSorts = func() []string {
	out := []string{SortLevel}
	for _, a := range progression.Attributes {
		out = append(out, string(a))
	}
	return out
}()

type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	Class     string    `json:"class"`
	Level     int       `json:"level"`
	XP        int       `json:"xp"`
	Value     int       `json:"value"`
	Tier      string    `json:"tier"`
}

type LeaderboardPage struct {
	Sort    string             `json:"sort"`
	Entries []LeaderboardEntry `json:"entries"`
}

type LeaderboardService interface {
	Top(ctx context.Context, sortKey string, limit int) (*LeaderboardPage, error)
	// Sync and Forget are best-effort cache writes; failures are logged.
	Sync(ctx context.Context, p *types.Profile)
	Forget(ctx context.Context, userID uuid.UUID)
}

type leaderboardService struct {
	log      *logger.Logger
	profiles repos.ProfileRepo
	board    lbredis.Leaderboard
}

// NewLeaderboardService serves from board when non-nil, else from the
// profiles table.
func NewLeaderboardService(baseLog *logger.Logger, profiles repos.ProfileRepo, board lbredis.Leaderboard) LeaderboardService {
	return &leaderboardService{
		log:      baseLog.With("service", "LeaderboardService"),
		profiles: profiles,
		board:    board,
	}
}

func normalizeSort(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return SortLevel, true
	}
	for _, s := range LeaderboardSorts {
		if s == raw {
			return s, true
		}
	}
	return "", false
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLeaderboardSize
	case limit > maxLeaderboardSize:
		return maxLeaderboardSize
	default:
		return limit
	}
}

func sortValue(stats progression.Stats, key string) int {
	if key == SortLevel {
		return stats.Level
	}
	attr, _ := progression.ParseAttribute(key)
	return stats.Get(attr)
}

func score(stats progression.Stats, key string) float64 {
	if key == SortLevel {
		return float64(stats.Level)*levelScoreScale + float64(stats.XP)
	}
	return float64(sortValue(stats, key))
}

func scores(stats progression.Stats) map[string]float64 {
	out := make(map[string]float64, len(LeaderboardSorts))
	for _, k := range LeaderboardSorts {
		out[k] = score(stats, k)
	}
	return out
}

func (s *leaderboardService) Top(ctx context.Context, sortKey string, limit int) (*LeaderboardPage, error) {
	key, ok := normalizeSort(sortKey)
	if !ok {
		return nil, apierr.BadRequest("invalid_sort", fmt.Sprintf("sort must be one of %s", strings.Join(LeaderboardSorts, ", ")))
	}
	limit = clampLimit(limit)
	dbc := dbctx.Context{Ctx: ctx}

	if s.board != nil {
		page, err := s.topFromCache(ctx, key, limit)
		if err == nil {
			observability.Current().IncLeaderboardRead("redis")
			return page, nil
		}
		s.log.Warn("leaderboard cache unavailable, using database", "sort", key, "error", err)
	}

	all, err := s.profiles.ListActive(dbc)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	observability.Current().IncLeaderboardRead("db")
	sortProfiles(all, key)
	if len(all) > limit {
		all = all[:limit]
	}
	return buildPage(key, all), nil
}

func (s *leaderboardService) topFromCache(ctx context.Context, key string, limit int) (*LeaderboardPage, error) {
	members, warm, err := s.board.Top(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	if !warm {
		if err := s.rebuild(ctx); err != nil {
			return nil, err
		}
		if members, _, err = s.board.Top(ctx, key, limit); err != nil {
			return nil, err
		}
	}
	var ordered []*types.Profile
	for attempt := 0; ; attempt++ {
		kept, stale, err := s.resolveMembers(ctx, members)
		if err != nil {
			return nil, err
		}
		ordered = kept
		if len(stale) == 0 || len(members) < limit || attempt == maxCacheRefills {
			break
		}
		// Deleted and deactivated members leave every board, then the page is
		// read again so it fills up to limit.
		for _, id := range stale {
			s.Forget(ctx, id)
		}
		if members, _, err = s.board.Top(ctx, key, limit); err != nil {
			return nil, err
		}
	}
	return buildPage(key, ordered), nil
}

// resolveMembers loads ranked members in board order. Members with no
// active profile are returned as stale.
func (s *leaderboardService) resolveMembers(ctx context.Context, members []lbredis.Member) ([]*types.Profile, []uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	found, err := s.profiles.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load ranked profiles: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Profile, len(found))
	for _, p := range found {
		if !p.IsDeactivated {
			byID[p.ID] = p
		}
	}
	ordered := make([]*types.Profile, 0, len(members))
	var stale []uuid.UUID
	for _, m := range members {
		if p, ok := byID[m.UserID]; ok {
			ordered = append(ordered, p)
		} else {
			stale = append(stale, m.UserID)
		}
	}
	return ordered, stale, nil
}

func (s *leaderboardService) rebuild(ctx context.Context) error {
	all, err := s.profiles.ListActive(dbctx.Context{Ctx: ctx})
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	for _, key := range LeaderboardSorts {
		members := make([]lbredis.Member, 0, len(all))
		for _, p := range all {
			members = append(members, lbredis.Member{UserID: p.ID, Score: score(p.CurrentStats(), key)})
		}
		if err := s.board.Rebuild(ctx, key, members); err != nil {
			return fmt.Errorf("rebuild %s: %w", key, err)
		}
	}
	s.log.Info("leaderboard rebuilt", "profiles", len(all))
	return nil
}

func (s *leaderboardService) Sync(ctx context.Context, p *types.Profile) {
	if s.board == nil || p == nil {
		return
	}
	if err := s.board.Upsert(ctx, p.ID, scores(p.CurrentStats())); err != nil {
		s.log.Warn("leaderboard sync failed", "user_id", p.ID, "error", err)
	}
}

func (s *leaderboardService) Forget(ctx context.Context, userID uuid.UUID) {
	if s.board == nil {
		return
	}
	if err := s.board.Remove(ctx, userID, LeaderboardSorts); err != nil {
		s.log.Warn("leaderboard remove failed", "user_id", userID, "error", err)
	}
}

// sortProfiles orders by descending value; level ties break on xp, then
// username keeps the order stable.
func sortProfiles(ps []*types.Profile, key string) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i].CurrentStats(), ps[j].CurrentStats()
		if va, vb := score(a, key), score(b, key); va != vb {
			return va > vb
		}
		return ps[i].Username < ps[j].Username
	})
}

func buildPage(key string, ps []*types.Profile) *LeaderboardPage {
	page := &LeaderboardPage{Sort: key, Entries: make([]LeaderboardEntry, 0, len(ps))}
	for i, p := range ps {
		st := p.CurrentStats()
		page.Entries = append(page.Entries, LeaderboardEntry{
			Rank:      i + 1,
			UserID:    p.ID,
			Username:  p.Username,
			AvatarURL: p.AvatarURL,
			Class:     st.Class,
			Level:     st.Level,
			XP:        st.XP,
			Value:     sortValue(st, key),
			Tier:      string(progression.RankFor(st.Level)),
		})
	}
	return page
}
