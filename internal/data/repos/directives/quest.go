package directives

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type QuestRepo interface {
	Create(dbc dbctx.Context, quests []*types.Quest) ([]*types.Quest, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quest, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Quest, error)
	CountPending(dbc dbctx.Context, userID uuid.UUID, now time.Time) (int64, error)
	// MarkCompleted flips completed only for an owned, open, unexpired quest.
	// It reports whether this call won the flip.
	MarkCompleted(dbc dbctx.Context, id, userID uuid.UUID, now time.Time) (bool, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type questRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestRepo(db *gorm.DB, baseLog *logger.Logger) QuestRepo {
	return &questRepo{db: db, log: baseLog.With("repo", "QuestRepo")}
}

func (r *questRepo) Create(dbc dbctx.Context, quests []*types.Quest) ([]*types.Quest, error) {
	if len(quests) == 0 {
		return []*types.Quest{}, nil
	}
	if err := dbc.Of(r.db).Create(&quests).Error; err != nil {
		return nil, err
	}
	return quests, nil
}

func (r *questRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quest, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var q types.Quest
	if err := dbc.Of(r.db).Where("id = ?", id).Limit(1).Find(&q).Error; err != nil {
		return nil, err
	}
	if q.ID == uuid.Nil {
		return nil, nil
	}
	return &q, nil
}

func (r *questRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Quest, error) {
	out := []*types.Quest{}
	if err := dbc.Of(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questRepo) CountPending(dbc dbctx.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.Quest{}).
		Where("user_id = ? AND completed = ?", userID, false).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *questRepo) MarkCompleted(dbc dbctx.Context, id, userID uuid.UUID, now time.Time) (bool, error) {
	res := dbc.Of(r.db).
		Model(&types.Quest{}).
		Where("id = ? AND user_id = ? AND completed = ?", id, userID, false).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *questRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).Where("user_id = ?", userID).Delete(&types.Quest{}).Error
}
