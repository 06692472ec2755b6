package social

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type CommentRepo interface {
	Create(dbc dbctx.Context, c *types.Comment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error)
	ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*types.Comment, error)
	CountByPosts(dbc dbctx.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
	DeleteByPosts(dbc dbctx.Context, postIDs []uuid.UUID) error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) Create(dbc dbctx.Context, c *types.Comment) error {
	if c == nil {
		return nil
	}
	return dbc.Of(r.db).Create(c).Error
}

func (r *commentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Comment
	if err := dbc.Of(r.db).Where("id = ?", id).Limit(1).Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *commentRepo) ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*types.Comment, error) {
	out := []*types.Comment{}
	if err := dbc.Of(r.db).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type postCount struct {
	PostID uuid.UUID
	N      int64
}

func (r *commentRepo) CountByPosts(dbc dbctx.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []postCount
	if err := dbc.Of(r.db).
		Model(&types.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row.N
	}
	return out, nil
}

func (r *commentRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).Where("author_id = ?", userID).Delete(&types.Comment{}).Error
}

func (r *commentRepo) DeleteByPosts(dbc dbctx.Context, postIDs []uuid.UUID) error {
	if len(postIDs) == 0 {
		return nil
	}
	return dbc.Of(r.db).Where("post_id IN ?", postIDs).Delete(&types.Comment{}).Error
}
