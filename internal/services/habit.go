package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/aletheia-backend/internal/data/db"
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
	maxHabitName     = 120
	maxHabitAction   = 120
	defaultAction    = "completed"
	habitDayLayout   = "2006-01-02"
	habitHistorySize = 30
	fallbackFeedback = "Your effort is noted."
)

type HabitTrack struct {
	Habit    *types.Habit
	Log      *types.HabitLog
	Outcome  *RewardOutcome
	Feedback string
}

type HabitService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*types.Habit, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (*types.Habit, error)
	// Track logs today's entry for the habit. A habit gains at most one
	// streak step per calendar day in the configured zone.
	Track(ctx context.Context, userID, habitID uuid.UUID, action string) (*HabitTrack, error)
	History(ctx context.Context, userID, habitID uuid.UUID) ([]*types.HabitLog, error)
}

type habitService struct {
	db          *gorm.DB
	log         *logger.Logger
	habits      repos.HabitRepo
	logs        repos.HabitLogRepo
	profiles    repos.ProfileRepo
	progression ProgressionService
	oracle      *Oracle
	loc         *time.Location
	now         func() time.Time
}

func NewHabitService(
	db *gorm.DB,
	baseLog *logger.Logger,
	habits repos.HabitRepo,
	logs repos.HabitLogRepo,
	profiles repos.ProfileRepo,
	progression ProgressionService,
	oracle *Oracle,
	loc *time.Location,
) HabitService {
	if loc == nil {
		loc = time.UTC
	}
	return &habitService{
		db:          db,
		log:         baseLog.With("service", "HabitService"),
		habits:      habits,
		logs:        logs,
		profiles:    profiles,
		progression: progression,
		oracle:      oracle,
		loc:         loc,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *habitService) List(ctx context.Context, userID uuid.UUID) ([]*types.Habit, error) {
	hs, err := s.habits.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return hs, nil
}

func (s *habitService) Create(ctx context.Context, userID uuid.UUID, name string) (*types.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxHabitName {
		return nil, apierr.BadRequest("invalid_request", fmt.Sprintf("name must be 1..%d characters", maxHabitName))
	}
	h := &types.Habit{UserID: userID, Name: name}
	if err := s.habits.Create(dbctx.Context{Ctx: ctx}, h); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

func (s *habitService) owned(dbc dbctx.Context, userID, habitID uuid.UUID) (*types.Habit, error) {
	h, err := s.habits.GetByID(dbc, habitID)
	if err != nil {
		return nil, fmt.Errorf("load habit: %w", err)
	}
	if h == nil || h.UserID != userID {
		return nil, apierr.NotFound("habit_not_found", "habit not found")
	}
	return h, nil
}

func (s *habitService) History(ctx context.Context, userID, habitID uuid.UUID) ([]*types.HabitLog, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.owned(dbc, userID, habitID); err != nil {
		return nil, err
	}
	out, err := s.logs.ListByHabit(dbc, habitID, habitHistorySize)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	return out, nil
}

// nextStreak steps the streak when the previous log was the day before
// today and resets it to 1 after a gap.
func nextStreak(h *types.Habit, today time.Time, loc *time.Location) int {
	if h.LastLogged == nil || h.Streak < 1 {
		return 1
	}
	last := h.LastLogged.In(loc)
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)
	switch {
	case lastDay.Equal(today):
		return h.Streak
	case lastDay.AddDate(0, 0, 1).Equal(today):
		return h.Streak + 1
	default:
		return 1
	}
}

func (s *habitService) Track(ctx context.Context, userID, habitID uuid.UUID, action string) (*HabitTrack, error) {
	action = trimTo(strings.TrimSpace(action), maxHabitAction)
	if action == "" {
		action = defaultAction
	}
	now := s.now()
	local := now.In(s.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	day := today.Format(habitDayLayout)

	var out HabitTrack
	err := WithRetry(ctx, s.db, s.log, func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		h, err := s.owned(dbc, userID, habitID)
		if err != nil {
			return err
		}
		streak := nextStreak(h, today, s.loc)
		best := h.BestStreak
		if streak > best {
			best = streak
		}
		reward := progression.HabitReward(streak)

		entry := &types.HabitLog{HabitID: h.ID, UserID: userID, Day: day, Action: action, XPAwarded: reward.XP}
		if err := s.logs.Create(dbc, entry); err != nil {
			if dbpkg.IsUniqueViolation(err) {
				return apierr.Conflict("already_tracked_today", "habit already tracked today")
			}
			return fmt.Errorf("log habit: %w", err)
		}
		if err := s.habits.UpdateStreak(dbc, h.ID, streak, best, now); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
		h.Streak, h.BestStreak, h.LastLogged = streak, best, &now

		res, err := s.progression.Apply(dbc, RewardRequest{
			UserID:    userID,
			Source:    ledger.SourceHabit,
			SourceKey: h.ID.String() + ":" + day,
			Reward:    reward,
		})
		if err != nil {
			return err
		}
		out = HabitTrack{Habit: h, Log: entry, Outcome: res}
		return nil
	})
	if err != nil {
		return nil, rewardError(err, "already_tracked_today")
	}
	s.progression.Published(ctx, out.Outcome)

	stats := out.Outcome.Profile.CurrentStats()
	type feedbackReply struct {
		Feedback string `json:"feedback"`
	}
	fb, _ := askJSON(ctx, s.oracle, prompts.HabitFeedback, map[string]any{
		"Action": action,
		"Habit":  out.Habit.Name,
		"Streak": out.Habit.Streak,
		"Class":  stats.Class,
		"Level":  stats.Level,
	}, feedbackReply{Feedback: fallbackFeedback}, func(r *feedbackReply) error {
		r.Feedback = strings.TrimSpace(r.Feedback)
		if r.Feedback == "" {
			return errors.New("empty feedback")
		}
		return nil
	})
	out.Feedback = fb.Feedback
	return &out, nil
}
