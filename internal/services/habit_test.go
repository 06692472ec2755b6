package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aletheia-backend/internal/domain"
)

func newHabitService(t *testing.T, h *harness, now time.Time, loc *time.Location) HabitService {
	t.Helper()
	svc := NewHabitService(h.db, testutil.Logger(t), h.repos.Habits, h.repos.HabitLogs, h.repos.Profiles, h.progression, h.oracle, loc)
	svc.(*habitService).now = func() time.Time { return now }
	return svc
}

func setStreak(t *testing.T, h *harness, habit *types.Habit, streak, best int, last time.Time) {
	t.Helper()
	require.NoError(t, h.db.Model(&types.Habit{}).Where("id = ?", habit.ID).Updates(map[string]interface{}{
		"streak":      streak,
		"best_streak": best,
		"last_logged": last,
	}).Error)
}

func TestTrackHabitOncePerDay(t *testing.T) {
	h := newHarness(t, reply(`{"feedback":"Well done, seeker."}`, nil))
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	svc := newHabitService(t, h, now, time.UTC)
	p := testutil.SeedProfile(t, ctx, h.db, "steady")
	habit := testutil.SeedHabit(t, ctx, h.db, p.ID, "Meditate")

	tr, err := svc.Track(ctx, p.ID, habit.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Habit.Streak)
	assert.Equal(t, 50, tr.Outcome.Reward.XP)
	assert.Equal(t, "2026-03-10", tr.Log.Day)
	assert.Equal(t, "completed", tr.Log.Action)
	assert.Equal(t, "Well done, seeker.", tr.Feedback)

	_, err = svc.Track(ctx, p.ID, habit.ID, "again")
	requireAPICode(t, err, 409, "already_tracked_today")

	logs, err := svc.History(ctx, p.ID, habit.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestTrackHabitMilestone(t *testing.T) {
	h := newHarness(t, failing())
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newHabitService(t, h, now, time.UTC)
	p := testutil.SeedProfile(t, ctx, h.db, "devoted")
	habit := testutil.SeedHabit(t, ctx, h.db, p.ID, "Run")
	setStreak(t, h, habit, 6, 6, now.AddDate(0, 0, -1))

	tr, err := svc.Track(ctx, p.ID, habit.ID, "ran 5k")
	require.NoError(t, err)
	assert.Equal(t, 7, tr.Habit.Streak)
	assert.Equal(t, 7, tr.Habit.BestStreak)
	assert.Equal(t, 100, tr.Outcome.Reward.XP)
	assert.Equal(t, map[string]int{"spiritual": 1}, tr.Outcome.Reward.Stats)
	assert.Equal(t, 2, tr.Outcome.Profile.CurrentStats().Spiritual)
	assert.Equal(t, fallbackFeedback, tr.Feedback)
}

func TestTrackHabitDecayKeepsBest(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newHabitService(t, h, now, time.UTC)
	p := testutil.SeedProfile(t, ctx, h.db, "lapsed")
	habit := testutil.SeedHabit(t, ctx, h.db, p.ID, "Read")
	setStreak(t, h, habit, 12, 12, now.AddDate(0, 0, -3))

	tr, err := svc.Track(ctx, p.ID, habit.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Habit.Streak)
	assert.Equal(t, 12, tr.Habit.BestStreak)
	assert.Equal(t, 50, tr.Outcome.Reward.XP)
}

func TestTrackHabitUsesConfiguredZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	h := newHarness(t, nil)
	ctx := context.Background()
	// 03:00 UTC on the 11th is still the 10th at UTC-5.
	now := time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)
	svc := newHabitService(t, h, now, loc)
	p := testutil.SeedProfile(t, ctx, h.db, "zoned")
	habit := testutil.SeedHabit(t, ctx, h.db, p.ID, "Stretch")
	setStreak(t, h, habit, 2, 2, time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC))

	tr, err := svc.Track(ctx, p.ID, habit.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", tr.Log.Day)
	assert.Equal(t, 3, tr.Habit.Streak)
}

func TestTrackHabitNotOwned(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	svc := newHabitService(t, h, time.Now().UTC(), time.UTC)
	owner := testutil.SeedProfile(t, ctx, h.db, "keeper")
	intruder := testutil.SeedProfile(t, ctx, h.db, "intruder")
	habit := testutil.SeedHabit(t, ctx, h.db, owner.ID, "Journal")

	_, err := svc.Track(ctx, intruder.ID, habit.ID, "")
	requireAPICode(t, err, 404, "habit_not_found")

	_, err = svc.History(ctx, intruder.ID, habit.ID)
	requireAPICode(t, err, 404, "habit_not_found")
}

func TestCreateHabitValidatesName(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	svc := newHabitService(t, h, time.Now().UTC(), time.UTC)
	p := testutil.SeedProfile(t, ctx, h.db, "maker")

	habit, err := svc.Create(ctx, p.ID, "  Cold shower ")
	require.NoError(t, err)
	assert.Equal(t, "Cold shower", habit.Name)
	assert.Equal(t, 0, habit.Streak)

	_, err = svc.Create(ctx, p.ID, "")
	requireAPICode(t, err, 400, "invalid_request")
}
