package social

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type PostRepo interface {
	Create(dbc dbctx.Context, p *types.Post) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error)
	ListLatest(dbc dbctx.Context, limit int) ([]*types.Post, error)
	ListIDsByAuthor(dbc dbctx.Context, authorID uuid.UUID) ([]uuid.UUID, error)
	DeleteByAuthor(dbc dbctx.Context, authorID uuid.UUID) error
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return &postRepo{db: db, log: baseLog.With("repo", "PostRepo")}
}

func (r *postRepo) Create(dbc dbctx.Context, p *types.Post) error {
	if p == nil {
		return nil
	}
	return dbc.Of(r.db).Create(p).Error
}

func (r *postRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Post
	if err := dbc.Of(r.db).Where("id = ?", id).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *postRepo) ListLatest(dbc dbctx.Context, limit int) ([]*types.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []*types.Post{}
	if err := dbc.Of(r.db).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postRepo) ListIDsByAuthor(dbc dbctx.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if err := dbc.Of(r.db).
		Model(&types.Post{}).
		Where("author_id = ?", authorID).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postRepo) DeleteByAuthor(dbc dbctx.Context, authorID uuid.UUID) error {
	return dbc.Of(r.db).Where("author_id = ?", authorID).Delete(&types.Post{}).Error
}

type PostLikeRepo interface {
	Exists(dbc dbctx.Context, postID, userID uuid.UUID) (bool, error)
	Create(dbc dbctx.Context, postID, userID uuid.UUID) error
	Delete(dbc dbctx.Context, postID, userID uuid.UUID) error
	CountByPost(dbc dbctx.Context, postID uuid.UUID) (int64, error)
	// LikersByPosts maps each post to the ids that liked it.
	LikersByPosts(dbc dbctx.Context, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
	DeleteByPosts(dbc dbctx.Context, postIDs []uuid.UUID) error
}

type postLikeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostLikeRepo(db *gorm.DB, baseLog *logger.Logger) PostLikeRepo {
	return &postLikeRepo{db: db, log: baseLog.With("repo", "PostLikeRepo")}
}

func (r *postLikeRepo) Exists(dbc dbctx.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postLikeRepo) Create(dbc dbctx.Context, postID, userID uuid.UUID) error {
	return dbc.Of(r.db).Create(&types.PostLike{PostID: postID, UserID: userID}).Error
}

func (r *postLikeRepo) Delete(dbc dbctx.Context, postID, userID uuid.UUID) error {
	return dbc.Of(r.db).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&types.PostLike{}).Error
}

func (r *postLikeRepo) CountByPost(dbc dbctx.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.PostLike{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postLikeRepo) LikersByPosts(dbc dbctx.Context, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := map[uuid.UUID][]uuid.UUID{}
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []types.PostLike
	if err := dbc.Of(r.db).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = append(out[row.PostID], row.UserID)
	}
	return out, nil
}

func (r *postLikeRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).Where("user_id = ?", userID).Delete(&types.PostLike{}).Error
}

func (r *postLikeRepo) DeleteByPosts(dbc dbctx.Context, postIDs []uuid.UUID) error {
	if len(postIDs) == 0 {
		return nil
	}
	return dbc.Of(r.db).Where("post_id IN ?", postIDs).Delete(&types.PostLike{}).Error
}
