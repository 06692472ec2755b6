package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/directives"
	"github.com/yungbote/aletheia-backend/internal/domain/ledger"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/prompts"
)

const (
	maxQuestText         = 280
	maxQuestDescription  = 1000
	maxPendingQuests     = 5
	questsPerGeneration  = 3
	defaultQuestHours    = 24
	minQuestHours        = 1
	maxQuestHours        = 168
	defaultManualQuestXP = 100
	maxGoals             = 10
	maxGoalRunes         = 200
	questsLadenMessage   = "Your spirit is already laden with trials. Complete them first."
)

type QuestView struct {
	*types.Quest
	Status directives.QuestStatus `json:"status"`
}

func viewQuest(q *types.Quest, now time.Time) *QuestView {
	return &QuestView{Quest: q, Status: q.Status(now)}
}

type CreateQuestInput struct {
	UserID         uuid.UUID
	Text           string
	Description    string
	Difficulty     string
	XPReward       *float64
	ExpiresInHours *float64
}

type QuestCompletion struct {
	Quest   *QuestView
	Outcome *RewardOutcome
}

type QuestGeneration struct {
	Quests []*QuestView `json:"quests"`
	// Message is set when generation was refused.
	Message  string `json:"message,omitempty"`
	Fallback bool   `json:"fallback"`
}

type QuestService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*QuestView, error)
	Create(ctx context.Context, in CreateQuestInput) (*QuestView, error)
	// Complete flips the quest and grants its reward exactly once.
	Complete(ctx context.Context, userID, questID uuid.UUID) (*QuestCompletion, error)
	Generate(ctx context.Context, userID uuid.UUID, goals []string) (*QuestGeneration, error)
}

type questService struct {
	db          *gorm.DB
	log         *logger.Logger
	quests      repos.QuestRepo
	profiles    repos.ProfileRepo
	progression ProgressionService
	oracle      *Oracle
	now         func() time.Time
}

func NewQuestService(
	db *gorm.DB,
	baseLog *logger.Logger,
	quests repos.QuestRepo,
	profiles repos.ProfileRepo,
	progression ProgressionService,
	oracle *Oracle,
) QuestService {
	return &questService{
		db:          db,
		log:         baseLog.With("service", "QuestService"),
		quests:      quests,
		profiles:    profiles,
		progression: progression,
		oracle:      oracle,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *questService) List(ctx context.Context, userID uuid.UUID) ([]*QuestView, error) {
	qs, err := s.quests.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	now := s.now()
	out := make([]*QuestView, 0, len(qs))
	for _, q := range qs {
		out = append(out, viewQuest(q, now))
	}
	return out, nil
}

func (s *questService) Create(ctx context.Context, in CreateQuestInput) (*QuestView, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" || utf8.RuneCountInString(text) > maxQuestText {
		return nil, apierr.BadRequest("invalid_request", fmt.Sprintf("text must be 1..%d characters", maxQuestText))
	}
	desc := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(desc) > maxQuestDescription {
		return nil, apierr.BadRequest("invalid_request", "description is too long")
	}
	diff, ok := progression.ParseDifficulty(in.Difficulty)
	if !ok {
		return nil, apierr.BadRequest("invalid_difficulty", "difficulty must be one of E, D, C, B, A, S")
	}
	xp := float64(defaultManualQuestXP)
	if in.XPReward != nil {
		xp = *in.XPReward
	}
	reward := progression.SanitizeReward(progression.RawReward{XP: xp}, progression.ManualQuestLimits(diff))

	now := s.now()
	q := &types.Quest{
		UserID:      in.UserID,
		Text:        text,
		Description: desc,
		Difficulty:  diff,
		XPReward:    reward.XP,
		StatReward:  datatypes.NewJSONType(map[string]int{}),
		Source:      directives.QuestSourceManual,
	}
	if in.ExpiresInHours != nil {
		h := *in.ExpiresInHours
		if math.IsNaN(h) || h < minQuestHours || h > maxQuestHours {
			return nil, apierr.BadRequest("invalid_request", fmt.Sprintf("expires_in_hours must be %d..%d", minQuestHours, maxQuestHours))
		}
		at := now.Add(time.Duration(h * float64(time.Hour)))
		q.ExpiresAt = &at
	}
	if _, err := s.quests.Create(dbctx.Context{Ctx: ctx}, []*types.Quest{q}); err != nil {
		return nil, fmt.Errorf("create quest: %w", err)
	}
	return viewQuest(q, now), nil
}

func (s *questService) Complete(ctx context.Context, userID, questID uuid.UUID) (*QuestCompletion, error) {
	var (
		quest *types.Quest
		out   *RewardOutcome
		now   = s.now()
	)
	err := WithRetry(ctx, s.db, s.log, func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		won, err := s.quests.MarkCompleted(dbc, questID, userID, now)
		if err != nil {
			return fmt.Errorf("mark quest completed: %w", err)
		}
		q, err := s.quests.GetByID(dbc, questID)
		if err != nil {
			return fmt.Errorf("load quest: %w", err)
		}
		if !won {
			return classifyIncomplete(q, userID, now)
		}
		limits := progression.TierLimits(q.Difficulty)
		if q.Source == directives.QuestSourceManual {
			limits = progression.ManualQuestLimits(q.Difficulty)
		}
		res, err := s.progression.Apply(dbc, RewardRequest{
			UserID:    userID,
			Source:    ledger.SourceQuest,
			SourceKey: q.ID.String(),
			Reward:    progression.SanitizeReward(q.Reward(), limits),
		})
		if err != nil {
			return err
		}
		quest, out = q, res
		return nil
	})
	if err != nil {
		return nil, rewardError(err, "quest_already_completed")
	}
	s.progression.Published(ctx, out)
	s.log.Info("quest completed", "user_id", userID, "quest", questID, "xp", out.Reward.XP, "levels_gained", out.Result.LevelsGained)
	return &QuestCompletion{Quest: viewQuest(quest, now), Outcome: out}, nil
}

// classifyIncomplete explains why the completion flip matched no row.
func classifyIncomplete(q *types.Quest, userID uuid.UUID, now time.Time) error {
	switch {
	case q == nil || q.UserID != userID:
		return apierr.NotFound("quest_not_found", "quest not found")
	case q.Completed:
		return apierr.Conflict("quest_already_completed", "quest already completed")
	case q.IsExpired(now):
		return apierr.Gone("quest_expired", "quest expired")
	default:
		return errors.New("quest completion matched no row")
	}
}

type questCandidate struct {
	Text          string             `json:"text"`
	Description   string             `json:"description"`
	Difficulty    string             `json:"difficulty"`
	XPReward      float64            `json:"xp_reward"`
	StatReward    map[string]float64 `json:"stat_reward"`
	DurationHours float64            `json:"duration_hours"`
}

type questBatch struct {
	Quests []questCandidate `json:"quests"`
}

var fallbackQuests = []questCandidate{
	{
		Text:          "Meditate in silence for 15 minutes",
		Description:   "Sit, breathe, and observe the noise until it settles.",
		Difficulty:    "E",
		XPReward:      40,
		StatReward:    map[string]float64{"spiritual": 1},
		DurationHours: 24,
	},
	{
		Text:          "Complete a 30-minute deep work session",
		Description:   "One task, no notifications, full attention.",
		Difficulty:    "D",
		XPReward:      80,
		StatReward:    map[string]float64{"intelligence": 2},
		DurationHours: 24,
	},
	{
		Text:          "Run or walk 3 km",
		Description:   "Move the vessel. Pace does not matter, distance does.",
		Difficulty:    "C",
		XPReward:      120,
		StatReward:    map[string]float64{"physical": 2},
		DurationHours: 48,
	},
}

func (s *questService) Generate(ctx context.Context, userID uuid.UUID, goals []string) (*QuestGeneration, error) {
	dbc := dbctx.Context{Ctx: ctx}
	now := s.now()
	pending, err := s.quests.CountPending(dbc, userID, now)
	if err != nil {
		return nil, fmt.Errorf("count pending quests: %w", err)
	}
	if pending >= maxPendingQuests {
		return &QuestGeneration{Quests: []*QuestView{}, Message: questsLadenMessage}, nil
	}
	p, err := s.profiles.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("profile_not_found", "profile not found")
	}
	goals = cleanGoals(goals)
	if len(goals) == 0 {
		goals = cleanGoals(p.Goals.Data())
	}
	stats := p.CurrentStats()

	// model call happens outside any transaction
	batch, used := askJSON(ctx, s.oracle, prompts.Quests, map[string]any{
		"Count": questsPerGeneration,
		"Class": stats.Class,
		"Level": stats.Level,
		"Goals": goals,
	}, questBatch{Quests: fallbackQuests}, func(b *questBatch) error {
		kept := b.Quests[:0]
		for _, c := range b.Quests {
			c.Text = strings.TrimSpace(c.Text)
			if c.Text == "" || utf8.RuneCountInString(c.Text) > maxQuestText {
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			return errors.New("no usable quests")
		}
		if len(kept) > questsPerGeneration {
			kept = kept[:questsPerGeneration]
		}
		b.Quests = kept
		return nil
	})
	source := directives.QuestSourceAI
	if !used {
		source = directives.QuestSourceFallback
	}

	rows := make([]*types.Quest, 0, len(batch.Quests))
	for _, c := range batch.Quests {
		rows = append(rows, buildQuest(userID, c, source, now))
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.quests.Create(dbctx.Context{Ctx: ctx, Tx: tx}, rows)
		return err
	}); err != nil {
		return nil, fmt.Errorf("insert quests: %w", err)
	}
	out := &QuestGeneration{Quests: make([]*QuestView, 0, len(rows)), Fallback: !used}
	for _, q := range rows {
		out.Quests = append(out.Quests, viewQuest(q, now))
	}
	return out, nil
}

func buildQuest(userID uuid.UUID, c questCandidate, source directives.QuestSource, now time.Time) *types.Quest {
	diff := progression.NormalizeDifficulty(c.Difficulty)
	reward := progression.SanitizeReward(progression.RawReward{XP: c.XPReward, Stats: c.StatReward}, progression.TierLimits(diff))
	stats := map[string]int{}
	for k, v := range reward.Stats {
		if attr, ok := progression.ParseAttribute(k); ok {
			stats[string(attr)] += v
		}
	}
	hours := c.DurationHours
	switch {
	case math.IsNaN(hours) || hours <= 0:
		hours = defaultQuestHours
	case hours < minQuestHours:
		hours = minQuestHours
	case hours > maxQuestHours:
		hours = maxQuestHours
	}
	expires := now.Add(time.Duration(hours * float64(time.Hour)))
	return &types.Quest{
		UserID:      userID,
		Text:        strings.TrimSpace(c.Text),
		Description: trimTo(strings.TrimSpace(c.Description), maxQuestDescription),
		Difficulty:  diff,
		XPReward:    reward.XP,
		StatReward:  datatypes.NewJSONType(stats),
		Source:      source,
		ExpiresAt:   &expires,
	}
}

func cleanGoals(in []string) []string {
	out := make([]string, 0, len(in))
	for _, g := range in {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, trimTo(g, maxGoalRunes))
		if len(out) == maxGoals {
			break
		}
	}
	return out
}
