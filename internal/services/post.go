package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/social"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

const (
	feedSize       = 50
	maxPostContent = 1000
	maxComment     = 500
)

type FeedPost struct {
	ID           uuid.UUID   `json:"id"`
	AuthorID     uuid.UUID   `json:"author_id"`
	Content      string      `json:"content"`
	IsSystemPost bool        `json:"is_system_post"`
	CreatedAt    time.Time   `json:"created_at"`
	Username     string      `json:"username"`
	AvatarURL    string      `json:"avatar_url"`
	CoverURL     string      `json:"cover_url"`
	Class        string      `json:"class"`
	Resonance    int         `json:"resonance"`
	CommentCount int64       `json:"comment_count"`
	LikedBy      []uuid.UUID `json:"liked_by"`
}

type LikeState struct {
	IsLiked   bool  `json:"isLiked"`
	Resonance int64 `json:"resonance"`
}

type CommentNode struct {
	*types.Comment
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url"`
	Replies   []*CommentNode `json:"replies"`
}

type PostService interface {
	Feed(ctx context.Context) ([]*FeedPost, error)
	Create(ctx context.Context, authorID uuid.UUID, content string) (*types.Post, error)
	ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*LikeState, error)
	Comments(ctx context.Context, postID uuid.UUID) ([]*CommentNode, error)
	AddComment(ctx context.Context, authorID, postID uuid.UUID, content string, parentID *uuid.UUID) (*types.Comment, error)
}

type postService struct {
	db       *gorm.DB
	log      *logger.Logger
	posts    repos.PostRepo
	likes    repos.PostLikeRepo
	comments repos.CommentRepo
	notes    repos.NotificationRepo
	profiles repos.ProfileRepo
	push     Pusher
}

func NewPostService(
	db *gorm.DB,
	baseLog *logger.Logger,
	posts repos.PostRepo,
	likes repos.PostLikeRepo,
	comments repos.CommentRepo,
	notes repos.NotificationRepo,
	profiles repos.ProfileRepo,
	push Pusher,
) PostService {
	return &postService{
		db:       db,
		log:      baseLog.With("service", "PostService"),
		posts:    posts,
		likes:    likes,
		comments: comments,
		notes:    notes,
		profiles: profiles,
		push:     push,
	}
}

func (s *postService) Feed(ctx context.Context) ([]*FeedPost, error) {
	dbc := dbctx.Context{Ctx: ctx}
	posts, err := s.posts.ListLatest(dbc, feedSize)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if len(posts) == 0 {
		return []*FeedPost{}, nil
	}
	postIDs := make([]uuid.UUID, 0, len(posts))
	authorSet := map[uuid.UUID]struct{}{}
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorSet[p.AuthorID] = struct{}{}
	}
	authorIDs := make([]uuid.UUID, 0, len(authorSet))
	for id := range authorSet {
		authorIDs = append(authorIDs, id)
	}

	var (
		authors []*types.Profile
		likers  map[uuid.UUID][]uuid.UUID
		counts  map[uuid.UUID]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	gdbc := dbctx.Context{Ctx: gctx}
	g.Go(func() error {
		var err error
		authors, err = s.profiles.GetByIDs(gdbc, authorIDs)
		return err
	})
	g.Go(func() error {
		var err error
		likers, err = s.likes.LikersByPosts(gdbc, postIDs)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.comments.CountByPosts(gdbc, postIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble feed: %w", err)
	}

	byID := make(map[uuid.UUID]*types.Profile, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	out := make([]*FeedPost, 0, len(posts))
	for _, p := range posts {
		fp := &FeedPost{
			ID:           p.ID,
			AuthorID:     p.AuthorID,
			Content:      p.Content,
			IsSystemPost: p.IsSystemPost,
			CreatedAt:    p.CreatedAt,
			Resonance:    len(likers[p.ID]),
			CommentCount: counts[p.ID],
			LikedBy:      likers[p.ID],
		}
		if fp.LikedBy == nil {
			fp.LikedBy = []uuid.UUID{}
		}
		if a, ok := byID[p.AuthorID]; ok {
			fp.Username = a.Username
			fp.AvatarURL = a.AvatarURL
			fp.CoverURL = a.CoverURL
			fp.Class = a.CurrentStats().Class
		}
		out = append(out, fp)
	}
	return out, nil
}

func (s *postService) Create(ctx context.Context, authorID uuid.UUID, content string) (*types.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxPostContent {
		return nil, apierr.BadRequest("invalid_request", fmt.Sprintf("content must be 1..%d characters", maxPostContent))
	}
	p := &types.Post{AuthorID: authorID, Content: content}
	if err := s.posts.Create(dbctx.Context{Ctx: ctx}, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (s *postService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*LikeState, error) {
	state := &LikeState{}
	var note *types.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		post, err := s.posts.GetByID(dbc, postID)
		if err != nil {
			return fmt.Errorf("load post: %w", err)
		}
		if post == nil {
			return apierr.NotFound("post_not_found", "post not found")
		}
		liked, err := s.likes.Exists(dbc, postID, userID)
		if err != nil {
			return fmt.Errorf("check like: %w", err)
		}
		if liked {
			if err := s.likes.Delete(dbc, postID, userID); err != nil {
				return fmt.Errorf("unlike: %w", err)
			}
		} else {
			if err := s.likes.Create(dbc, postID, userID); err != nil {
				return fmt.Errorf("like: %w", err)
			}
			if post.AuthorID != userID {
				sender, pid := userID, post.ID
				note = &types.Notification{
					UserID:   post.AuthorID,
					Type:     social.NotifyResonance,
					SenderID: &sender,
					PostID:   &pid,
					Content:  "Your words resonated with a fellow seeker.",
				}
				if err := s.notes.Create(dbc, note); err != nil {
					return fmt.Errorf("notify resonance: %w", err)
				}
			}
		}
		state.IsLiked = !liked
		state.Resonance, err = s.likes.CountByPost(dbc, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	pushNotes(ctx, s.push, note)
	return state, nil
}

func (s *postService) Comments(ctx context.Context, postID uuid.UUID) ([]*CommentNode, error) {
	dbc := dbctx.Context{Ctx: ctx}
	post, err := s.posts.GetByID(dbc, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return nil, apierr.NotFound("post_not_found", "post not found")
	}
	cs, err := s.comments.ListByPost(dbc, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.AuthorID)
	}
	authors, err := s.profiles.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load comment authors: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Profile, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	nodes := make([]*CommentNode, 0, len(cs))
	for _, c := range cs {
		n := &CommentNode{Comment: c, Replies: []*CommentNode{}}
		if a, ok := byID[c.AuthorID]; ok {
			n.Username, n.AvatarURL = a.Username, a.AvatarURL
		}
		nodes = append(nodes, n)
	}
	return buildCommentTree(nodes), nil
}

// buildCommentTree nests replies under parents. Replies whose parent is
// gone become roots. Siblings keep creation order.
func buildCommentTree(nodes []*CommentNode) []*CommentNode {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].CreatedAt.Before(nodes[j].CreatedAt) })
	byID := make(map[uuid.UUID]*CommentNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	roots := []*CommentNode{}
	for _, n := range nodes {
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok && parent != n {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

func (s *postService) AddComment(ctx context.Context, authorID, postID uuid.UUID, content string, parentID *uuid.UUID) (*types.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxComment {
		return nil, apierr.BadRequest("invalid_request", fmt.Sprintf("content must be 1..%d characters", maxComment))
	}
	dbc := dbctx.Context{Ctx: ctx}
	post, err := s.posts.GetByID(dbc, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return nil, apierr.NotFound("post_not_found", "post not found")
	}
	if parentID != nil && *parentID == uuid.Nil {
		parentID = nil
	}
	if parentID != nil {
		parent, err := s.comments.GetByID(dbc, *parentID)
		if err != nil {
			return nil, fmt.Errorf("load parent comment: %w", err)
		}
		if parent == nil || parent.PostID != postID {
			return nil, apierr.BadRequest("invalid_parent", "parent comment does not belong to this post")
		}
	}
	c := &types.Comment{PostID: postID, AuthorID: authorID, Content: content, ParentID: parentID}
	if err := s.comments.Create(dbc, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}
