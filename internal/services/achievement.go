package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/ledger"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/prompts"
)

const (
	maxFeatText        = 1000
	featTitle          = "Great Feat Logged"
	featIcon           = "🏆"
	fallbackFeatXP     = 10
	fallbackFeatNote   = "The void acknowledges your effort."
	maxFeatDescription = 280
)

type FeatResult struct {
	Outcome       *RewardOutcome
	SystemMessage string
	Achievement   *types.Achievement
}

type AchievementService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*types.Achievement, error)
	// LogFeat scores a real-world accomplishment and applies it through the ledger.
	LogFeat(ctx context.Context, userID uuid.UUID, text string) (*FeatResult, error)
	// History lists the caller's journaled rewards, newest first.
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.RewardEvent, error)
}

type achievementService struct {
	db           *gorm.DB
	log          *logger.Logger
	achievements repos.AchievementRepo
	events       repos.RewardEventRepo
	profiles     repos.ProfileRepo
	progression  ProgressionService
	oracle       *Oracle
}

func NewAchievementService(
	db *gorm.DB,
	baseLog *logger.Logger,
	achievements repos.AchievementRepo,
	events repos.RewardEventRepo,
	profiles repos.ProfileRepo,
	progression ProgressionService,
	oracle *Oracle,
) AchievementService {
	return &achievementService{
		db:           db,
		log:          baseLog.With("service", "AchievementService"),
		achievements: achievements,
		events:       events,
		profiles:     profiles,
		progression:  progression,
		oracle:       oracle,
	}
}

func (s *achievementService) List(ctx context.Context, userID uuid.UUID) ([]*types.Achievement, error) {
	out, err := s.achievements.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}

func (s *achievementService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.RewardEvent, error) {
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = defaultLeaderboardSize
	}
	out, err := s.events.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reward events: %w", err)
	}
	return out, nil
}

type featReply struct {
	XPGained       float64            `json:"xpGained"`
	StatsIncreased map[string]float64 `json:"statsIncreased"`
	SystemMessage  string             `json:"systemMessage"`
}

func (s *achievementService) LogFeat(ctx context.Context, userID uuid.UUID, text string) (*FeatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxFeatText {
		return nil, apierr.BadRequest("invalid_request", fmt.Sprintf("text must be 1..%d characters", maxFeatText))
	}
	p, err := s.profiles.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("profile_not_found", "profile not found")
	}
	stats := p.CurrentStats()

	reply, _ := askJSON(ctx, s.oracle, prompts.Feat, map[string]any{
		"Text":  text,
		"Class": stats.Class,
		"Level": stats.Level,
	}, featReply{XPGained: fallbackFeatXP, SystemMessage: fallbackFeatNote}, func(r *featReply) error {
		r.SystemMessage = strings.TrimSpace(r.SystemMessage)
		if r.SystemMessage == "" {
			r.SystemMessage = fallbackFeatNote
		}
		return nil
	})
	reward := progression.SanitizeReward(progression.RawReward{XP: reply.XPGained, Stats: reply.StatsIncreased}, progression.FeatLimits)

	// one key per request so retries reuse it
	key := uuid.New().String()
	var res FeatResult
	err = WithRetry(ctx, s.db, s.log, func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		out, err := s.progression.Apply(dbc, RewardRequest{
			UserID:    userID,
			Source:    ledger.SourceFeat,
			SourceKey: key,
			Reward:    reward,
		})
		if err != nil {
			return err
		}
		a := &types.Achievement{
			UserID:      userID,
			Title:       featTitle,
			Description: trimTo(text, maxFeatDescription),
			Icon:        featIcon,
		}
		if err := s.achievements.Create(dbc, a); err != nil {
			return fmt.Errorf("record feat: %w", err)
		}
		res = FeatResult{Outcome: out, SystemMessage: reply.SystemMessage, Achievement: a}
		return nil
	})
	if err != nil {
		return nil, rewardError(err, "feat_already_logged")
	}
	s.progression.Published(ctx, res.Outcome)
	return &res, nil
}
