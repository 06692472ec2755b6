package ledger

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type AchievementRepo interface {
	Create(dbc dbctx.Context, a *types.Achievement) error
	HasTitle(dbc dbctx.Context, userID uuid.UUID, title string) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Achievement, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) Create(dbc dbctx.Context, a *types.Achievement) error {
	if a == nil {
		return nil
	}
	return dbc.Of(r.db).Create(a).Error
}

func (r *achievementRepo) HasTitle(dbc dbctx.Context, userID uuid.UUID, title string) (bool, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.Achievement{}).
		Where("user_id = ? AND title = ?", userID, title).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *achievementRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Achievement, error) {
	out := []*types.Achievement{}
	if err := dbc.Of(r.db).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).Where("user_id = ?", userID).Delete(&types.Achievement{}).Error
}
