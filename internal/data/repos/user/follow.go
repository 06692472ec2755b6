package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type FollowRepo interface {
	Exists(dbc dbctx.Context, followerID, followeeID uuid.UUID) (bool, error)
	Create(dbc dbctx.Context, followerID, followeeID uuid.UUID) error
	Delete(dbc dbctx.Context, followerID, followeeID uuid.UUID) error
	ListFollowing(dbc dbctx.Context, followerID uuid.UUID) ([]uuid.UUID, error)
	CountFollowers(dbc dbctx.Context, followeeID uuid.UUID) (int64, error)
	// DeleteByUser drops every edge touching userID.
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type followRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFollowRepo(db *gorm.DB, baseLog *logger.Logger) FollowRepo {
	return &followRepo{db: db, log: baseLog.With("repo", "FollowRepo")}
}

func (r *followRepo) Exists(dbc dbctx.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *followRepo) Create(dbc dbctx.Context, followerID, followeeID uuid.UUID) error {
	return dbc.Of(r.db).Create(&types.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error
}

func (r *followRepo) Delete(dbc dbctx.Context, followerID, followeeID uuid.UUID) error {
	return dbc.Of(r.db).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&types.Follow{}).Error
}

func (r *followRepo) ListFollowing(dbc dbctx.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if err := dbc.Of(r.db).
		Model(&types.Follow{}).
		Where("follower_id = ?", followerID).
		Order("created_at ASC").
		Pluck("followee_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *followRepo) CountFollowers(dbc dbctx.Context, followeeID uuid.UUID) (int64, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.Follow{}).
		Where("followee_id = ?", followeeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *followRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).
		Where("follower_id = ? OR followee_id = ?", userID, userID).
		Delete(&types.Follow{}).Error
}
