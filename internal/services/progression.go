package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	dbpkg "github.com/yungbote/aletheia-backend/internal/data/db"
	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/ledger"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/domain/social"
	"github.com/yungbote/aletheia-backend/internal/observability"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/errs"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/realtime"
)

type RewardRequest struct {
	UserID    uuid.UUID
	Source    ledger.Source
	SourceKey string
	Reward    progression.Reward
	// Extra returns more profile columns to write in the same
	// compare-and-swap. It sees the locked row.
	Extra func(p *types.Profile) (map[string]interface{}, error)
}

type RewardOutcome struct {
	Profile      *types.Profile
	Source       ledger.Source
	Reward       progression.Reward
	Result       progression.Result
	Achievements []*types.Achievement

	notes []*types.Notification
}

// RewardView is the response shape shared by every rewarding endpoint.
func (o *RewardOutcome) RewardView() map[string]interface{} {
	stats := o.Reward.Stats
	if stats == nil {
		stats = map[string]int{}
	}
	return map[string]interface{}{"xp": o.Reward.XP, "stats": stats}
}

type ProgressionService interface {
	// Apply must run inside the caller's transaction (dbc.Tx set). It locks
	// the profile, applies the reward, writes stats guarded by version and
	// journals the event. A replayed (user, source, key) returns
	// errs.ErrAlreadyApplied; a lost version race returns errs.ErrConflict.
	Apply(dbc dbctx.Context, req RewardRequest) (*RewardOutcome, error)
	// Published is called after commit. It refreshes the leaderboard cache
	// and pushes the reward to the profile's live streams.
	Published(ctx context.Context, out *RewardOutcome)
}

type progressionService struct {
	log          *logger.Logger
	profiles     repos.ProfileRepo
	events       repos.RewardEventRepo
	achievements repos.AchievementRepo
	notes        repos.NotificationRepo
	board        LeaderboardService
	push         Pusher
}

func NewProgressionService(
	baseLog *logger.Logger,
	profiles repos.ProfileRepo,
	events repos.RewardEventRepo,
	achievements repos.AchievementRepo,
	notes repos.NotificationRepo,
	board LeaderboardService,
	push Pusher,
) ProgressionService {
	return &progressionService{
		log:          baseLog.With("service", "ProgressionService"),
		profiles:     profiles,
		events:       events,
		achievements: achievements,
		notes:        notes,
		board:        board,
		push:         push,
	}
}

func (s *progressionService) Apply(dbc dbctx.Context, req RewardRequest) (*RewardOutcome, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("progression apply requires a transaction")
	}
	if req.SourceKey == "" {
		return nil, fmt.Errorf("progression apply: empty source key")
	}
	p, err := s.profiles.LockByID(dbc, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("profile_not_found", "profile not found")
	}

	before := p.CurrentStats()
	res := progression.ApplyReward(before, req.Reward)

	var extra map[string]interface{}
	if req.Extra != nil {
		if extra, err = req.Extra(p); err != nil {
			return nil, err
		}
	}
	ok, err := s.profiles.UpdateStatsCAS(dbc, p.ID, p.Version, res.Stats, extra)
	if err != nil {
		return nil, fmt.Errorf("update stats: %w", err)
	}
	if !ok {
		return nil, errs.ErrConflict
	}
	p.Stats = datatypes.NewJSONType(res.Stats)
	p.Version++

	applied := map[string]int{}
	for attr, d := range res.Applied {
		applied[string(attr)] = d
	}
	ignored := res.IgnoredKeys
	if ignored == nil {
		ignored = []string{}
	}
	ev := &types.RewardEvent{
		UserID:      p.ID,
		Source:      req.Source,
		SourceKey:   req.SourceKey,
		XP:          req.Reward.XP,
		StatDeltas:  datatypes.NewJSONType(applied),
		IgnoredKeys: datatypes.NewJSONType(ignored),
		LevelBefore: before.Level,
		LevelAfter:  res.Stats.Level,
	}
	if err := s.events.Create(dbc, ev); err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return nil, errs.ErrAlreadyApplied
		}
		return nil, fmt.Errorf("journal reward: %w", err)
	}
	if len(res.IgnoredKeys) > 0 {
		s.log.Warn("reward carried unknown stat keys", "user_id", p.ID, "source", req.Source, "keys", res.IgnoredKeys)
	}

	out := &RewardOutcome{Profile: p, Source: req.Source, Reward: req.Reward, Result: res}
	for _, rank := range progression.RanksCrossed(before.Level, res.Stats.Level) {
		a, note, err := s.unlockRank(dbc, p.ID, rank)
		if err != nil {
			return nil, err
		}
		if a != nil {
			out.Achievements = append(out.Achievements, a)
			out.notes = append(out.notes, note)
		}
	}
	return out, nil
}

func rankTitle(r progression.Rank) string {
	if r == progression.RankNational {
		return "National Level Hunter"
	}
	return fmt.Sprintf("Rank %s Attained", r)
}

func (s *progressionService) unlockRank(dbc dbctx.Context, userID uuid.UUID, rank progression.Rank) (*types.Achievement, *types.Notification, error) {
	title := rankTitle(rank)
	has, err := s.achievements.HasTitle(dbc, userID, title)
	if err != nil {
		return nil, nil, fmt.Errorf("check achievement: %w", err)
	}
	if has {
		return nil, nil, nil
	}
	a := &types.Achievement{
		UserID:      userID,
		Title:       title,
		Description: fmt.Sprintf("Ascended to rank %s.", rank),
		Icon:        "⚔️",
	}
	if err := s.achievements.Create(dbc, a); err != nil {
		return nil, nil, fmt.Errorf("create achievement: %w", err)
	}
	note := &types.Notification{
		UserID:  userID,
		Type:    social.NotifyAchievement,
		Content: fmt.Sprintf("Achievement unlocked: %s", title),
	}
	if err := s.notes.Create(dbc, note); err != nil {
		return nil, nil, fmt.Errorf("notify achievement: %w", err)
	}
	return a, note, nil
}

func (s *progressionService) Published(ctx context.Context, out *RewardOutcome) {
	if out == nil || out.Profile == nil {
		return
	}
	observability.Current().ObserveReward(string(out.Source), out.Reward.XP, out.Result.LevelsGained)
	if s.board != nil {
		s.board.Sync(ctx, out.Profile)
	}
	if s.push != nil {
		s.push.Push(ctx, out.Profile.ID, realtime.EventReward, map[string]interface{}{
			"source":        out.Source,
			"reward":        out.RewardView(),
			"stats":         out.Result.Stats,
			"version":       out.Profile.Version,
			"levels_gained": out.Result.LevelsGained,
		})
		pushNotes(ctx, s.push, out.notes...)
	}
}

// rewardError maps ledger sentinels that escape WithRetry to API errors.
func rewardError(err error, code string) error {
	switch {
	case errors.Is(err, errs.ErrAlreadyApplied):
		return apierr.Conflict(code, "reward already granted")
	case errors.Is(err, errs.ErrConflict):
		return apierr.Conflict("version_conflict", "profile changed concurrently, retry")
	default:
		return err
	}
}
