package ledger

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type RewardEventRepo interface {
	// Create fails with a unique violation on a replayed (user, source, key).
	Create(dbc dbctx.Context, ev *types.RewardEvent) error
	Exists(dbc dbctx.Context, userID uuid.UUID, source, sourceKey string) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RewardEvent, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type rewardEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardEventRepo(db *gorm.DB, baseLog *logger.Logger) RewardEventRepo {
	return &rewardEventRepo{db: db, log: baseLog.With("repo", "RewardEventRepo")}
}

func (r *rewardEventRepo) Create(dbc dbctx.Context, ev *types.RewardEvent) error {
	if ev == nil {
		return nil
	}
	return dbc.Of(r.db).Create(ev).Error
}

func (r *rewardEventRepo) Exists(dbc dbctx.Context, userID uuid.UUID, source, sourceKey string) (bool, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.RewardEvent{}).
		Where("user_id = ? AND source = ? AND source_key = ?", userID, source, sourceKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *rewardEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RewardEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []*types.RewardEvent{}
	if err := dbc.Of(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rewardEventRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).Where("user_id = ?", userID).Delete(&types.RewardEvent{}).Error
}
