package social

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	socialdomain "github.com/yungbote/aletheia-backend/internal/domain/social"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
)

func TestFeedCountsAndLikers(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	posts := NewPostRepo(db, log)
	likes := NewPostLikeRepo(db, log)
	comments := NewCommentRepo(db, log)

	author := testutil.SeedProfile(t, ctx, tx, "author")
	fan := testutil.SeedProfile(t, ctx, tx, "fan")
	p1 := testutil.SeedPost(t, ctx, tx, author.ID, "Day 1 of the climb.")
	p2 := testutil.SeedPost(t, ctx, tx, author.ID, "Day 2.")

	if err := likes.Create(dbc, p1.ID, fan.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := likes.Create(dbc, p1.ID, author.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := comments.Create(dbc, &types.Comment{PostID: p2.ID, AuthorID: fan.ID, Content: "onward"}); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}

	latest, err := posts.ListLatest(dbc, 50)
	if err != nil || len(latest) != 2 {
		t.Fatalf("ListLatest: len=%d err=%v", len(latest), err)
	}

	likers, err := likes.LikersByPosts(dbc, []uuid.UUID{p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("LikersByPosts: %v", err)
	}
	if len(likers[p1.ID]) != 2 || len(likers[p2.ID]) != 0 {
		t.Fatalf("LikersByPosts: unexpected %v", likers)
	}

	counts, err := comments.CountByPosts(dbc, []uuid.UUID{p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("CountByPosts: %v", err)
	}
	if counts[p2.ID] != 3 || counts[p1.ID] != 0 {
		t.Fatalf("CountByPosts: unexpected %v", counts)
	}

	if err := likes.Delete(dbc, p1.ID, fan.ID); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	n, err := likes.CountByPost(dbc, p1.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountByPost: n=%d err=%v", n, err)
	}
}

func TestNotificationMarkReadOwnerOnly(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewNotificationRepo(db, testutil.Logger(t))
	owner := testutil.SeedProfile(t, ctx, tx, "owner")
	other := testutil.SeedProfile(t, ctx, tx, "other")

	n := &types.Notification{UserID: owner.ID, Type: socialdomain.NotifyFollow, Content: "other follows you"}
	if err := repo.Create(dbc, n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err := repo.MarkRead(dbc, n.ID, other.ID)
	if err != nil || ok {
		t.Fatalf("MarkRead (other): ok=%v err=%v", ok, err)
	}
	ok, err = repo.MarkRead(dbc, n.ID, owner.ID)
	if err != nil || !ok {
		t.Fatalf("MarkRead: ok=%v err=%v", ok, err)
	}
	list, err := repo.ListByUser(dbc, owner.ID, 10)
	if err != nil || len(list) != 1 || !list[0].IsRead {
		t.Fatalf("ListByUser: %+v err=%v", list, err)
	}
}
