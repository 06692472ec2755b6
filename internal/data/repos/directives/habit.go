package directives

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type HabitRepo interface {
	Create(dbc dbctx.Context, h *types.Habit) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Habit, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Habit, error)
	UpdateStreak(dbc dbctx.Context, id uuid.UUID, streak, best int, loggedAt time.Time) error
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type habitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitRepo(db *gorm.DB, baseLog *logger.Logger) HabitRepo {
	return &habitRepo{db: db, log: baseLog.With("repo", "HabitRepo")}
}

func (r *habitRepo) Create(dbc dbctx.Context, h *types.Habit) error {
	if h == nil {
		return nil
	}
	return dbc.Of(r.db).Create(h).Error
}

func (r *habitRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Habit, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var h types.Habit
	if err := dbc.Of(r.db).Where("id = ?", id).Limit(1).Find(&h).Error; err != nil {
		return nil, err
	}
	if h.ID == uuid.Nil {
		return nil, nil
	}
	return &h, nil
}

func (r *habitRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Habit, error) {
	out := []*types.Habit{}
	if err := dbc.Of(r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *habitRepo) UpdateStreak(dbc dbctx.Context, id uuid.UUID, streak, best int, loggedAt time.Time) error {
	return dbc.Of(r.db).
		Model(&types.Habit{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"streak":      streak,
			"best_streak": best,
			"last_logged": loggedAt,
		}).Error
}

func (r *habitRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).Where("user_id = ?", userID).Delete(&types.Habit{}).Error
}

type HabitLogRepo interface {
	// Create fails with a unique violation when the day is already logged.
	Create(dbc dbctx.Context, l *types.HabitLog) error
	GetByHabitDay(dbc dbctx.Context, habitID uuid.UUID, day string) (*types.HabitLog, error)
	ListByHabit(dbc dbctx.Context, habitID uuid.UUID, limit int) ([]*types.HabitLog, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type habitLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitLogRepo(db *gorm.DB, baseLog *logger.Logger) HabitLogRepo {
	return &habitLogRepo{db: db, log: baseLog.With("repo", "HabitLogRepo")}
}

func (r *habitLogRepo) Create(dbc dbctx.Context, l *types.HabitLog) error {
	if l == nil {
		return nil
	}
	return dbc.Of(r.db).Create(l).Error
}

func (r *habitLogRepo) GetByHabitDay(dbc dbctx.Context, habitID uuid.UUID, day string) (*types.HabitLog, error) {
	var l types.HabitLog
	if err := dbc.Of(r.db).
		Where("habit_id = ? AND day = ?", habitID, day).
		Limit(1).
		Find(&l).Error; err != nil {
		return nil, err
	}
	if l.ID == uuid.Nil {
		return nil, nil
	}
	return &l, nil
}

func (r *habitLogRepo) ListByHabit(dbc dbctx.Context, habitID uuid.UUID, limit int) ([]*types.HabitLog, error) {
	if limit <= 0 {
		limit = 30
	}
	out := []*types.HabitLog{}
	if err := dbc.Of(r.db).
		Where("habit_id = ?", habitID).
		Order("day DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *habitLogRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).Where("user_id = ?", userID).Delete(&types.HabitLog{}).Error
}
