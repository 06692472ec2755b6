package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/social"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/realtime"
)

func newPostService(t *testing.T, h *harness) PostService {
	t.Helper()
	return NewPostService(h.db, testutil.Logger(t), h.repos.Posts, h.repos.PostLikes, h.repos.Comments, h.repos.Notifications, h.repos.Profiles, nil)
}

func TestFeedAssemblesAuthorsLikesAndCounts(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	svc := newPostService(t, h)
	author := testutil.SeedProfile(t, ctx, h.db, "poet")
	reader := testutil.SeedProfile(t, ctx, h.db, "reader")

	post, err := svc.Create(ctx, author.ID, "  The path is long.  ")
	require.NoError(t, err)
	assert.Equal(t, "The path is long.", post.Content)

	st, err := svc.ToggleLike(ctx, reader.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, st.IsLiked)
	assert.Equal(t, int64(1), st.Resonance)
	_, err = svc.AddComment(ctx, reader.ID, post.ID, "Indeed.", nil)
	require.NoError(t, err)

	feed, err := svc.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	fp := feed[0]
	assert.Equal(t, "poet", fp.Username)
	assert.Equal(t, "Initiate", fp.Class)
	assert.Equal(t, 1, fp.Resonance)
	assert.Equal(t, int64(1), fp.CommentCount)
	assert.Equal(t, []uuid.UUID{reader.ID}, fp.LikedBy)

	notes, err := h.repos.Notifications.ListByUser(dbctx.Context{Ctx: ctx}, author.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, social.NotifyResonance, notes[0].Type)

	st, err = svc.ToggleLike(ctx, reader.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, st.IsLiked)
	assert.Equal(t, int64(0), st.Resonance)
}

func TestSelfLikeDoesNotNotify(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	svc := newPostService(t, h)
	author := testutil.SeedProfile(t, ctx, h.db, "narcissus")
	post := testutil.SeedPost(t, ctx, h.db, author.ID, "me")

	_, err := svc.ToggleLike(ctx, author.ID, post.ID)
	require.NoError(t, err)
	notes, err := h.repos.Notifications.ListByUser(dbctx.Context{Ctx: ctx}, author.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = svc.ToggleLike(ctx, author.ID, uuid.New())
	requireAPICode(t, err, 404, "post_not_found")
}

func TestCommentTree(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	svc := newPostService(t, h)
	a := testutil.SeedProfile(t, ctx, h.db, "asker")
	b := testutil.SeedProfile(t, ctx, h.db, "answerer")
	post := testutil.SeedPost(t, ctx, h.db, a.ID, "Why?")
	other := testutil.SeedPost(t, ctx, h.db, b.ID, "Elsewhere")

	root, err := svc.AddComment(ctx, a.ID, post.ID, "First", nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	answer, err := svc.AddComment(ctx, b.ID, post.ID, "Because.", &root.ID)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.AddComment(ctx, a.ID, post.ID, "Thanks", &answer.ID)
	require.NoError(t, err)

	tree, err := svc.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "asker", tree[0].Username)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "answerer", tree[0].Replies[0].Username)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, "Thanks", tree[0].Replies[0].Replies[0].Content)

	foreign, err := svc.AddComment(ctx, b.ID, other.ID, "Off topic", nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, a.ID, post.ID, "Mixed", &foreign.ID)
	requireAPICode(t, err, 400, "invalid_parent")

	_, err = svc.AddComment(ctx, a.ID, post.ID, "", nil)
	requireAPICode(t, err, 400, "invalid_request")
	_, err = svc.Comments(ctx, uuid.New())
	requireAPICode(t, err, 404, "post_not_found")
}

func TestBuildCommentTreePromotesOrphans(t *testing.T) {
	now := time.Now()
	missing := uuid.New()
	rootID := uuid.New()
	nodes := []*CommentNode{
		{Comment: &types.Comment{ID: uuid.New(), ParentID: &rootID, CreatedAt: now.Add(2 * time.Second)}},
		{Comment: &types.Comment{ID: rootID, CreatedAt: now}},
		{Comment: &types.Comment{ID: uuid.New(), ParentID: &missing, CreatedAt: now.Add(time.Second)}},
	}
	tree := buildCommentTree(nodes)
	require.Len(t, tree, 2)
	assert.Equal(t, rootID, tree[0].ID)
	assert.Len(t, tree[0].Replies, 1)
	assert.Equal(t, &missing, tree[1].ParentID)
}

func TestLikePushesResonanceToAuthor(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	push := &recordingPusher{}
	svc := NewPostService(h.db, testutil.Logger(t), h.repos.Posts, h.repos.PostLikes, h.repos.Comments, h.repos.Notifications, h.repos.Profiles, push)
	author := testutil.SeedProfile(t, ctx, h.db, "orator")
	fan := testutil.SeedProfile(t, ctx, h.db, "fan")
	post := testutil.SeedPost(t, ctx, h.db, author.ID, "hear me")

	_, err := svc.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)

	sent := push.events()
	require.Len(t, sent, 1, "unliking does not notify")
	assert.Equal(t, author.ID, sent[0].UserID)
	assert.Equal(t, realtime.EventNotification, sent[0].Event)
}
