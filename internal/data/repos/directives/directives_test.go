package directives

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/data/db"
	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
)

func TestQuestRepoMarkCompleted(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewQuestRepo(gdb, testutil.Logger(t))
	owner := testutil.SeedProfile(t, ctx, tx, "owner")
	other := testutil.SeedProfile(t, ctx, tx, "other")

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	open := testutil.SeedQuest(t, ctx, tx, owner.ID, progression.TierC, 100, nil, &future)
	expired := testutil.SeedQuest(t, ctx, tx, owner.ID, progression.TierE, 10, nil, &past)

	n, err := repo.CountPending(dbc, owner.ID, now)
	if err != nil || n != 1 {
		t.Fatalf("CountPending: n=%d err=%v", n, err)
	}

	won, err := repo.MarkCompleted(dbc, open.ID, other.ID, now)
	if err != nil || won {
		t.Fatalf("MarkCompleted (not owner): won=%v err=%v", won, err)
	}
	won, err = repo.MarkCompleted(dbc, open.ID, owner.ID, now)
	if err != nil || !won {
		t.Fatalf("MarkCompleted: won=%v err=%v", won, err)
	}
	won, err = repo.MarkCompleted(dbc, open.ID, owner.ID, now)
	if err != nil || won {
		t.Fatalf("MarkCompleted (again): won=%v err=%v", won, err)
	}
	won, err = repo.MarkCompleted(dbc, expired.ID, owner.ID, now)
	if err != nil || won {
		t.Fatalf("MarkCompleted (expired): won=%v err=%v", won, err)
	}

	got, err := repo.GetByID(dbc, open.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Completed || got.CompletedAt == nil {
		t.Fatalf("expected completed quest, got %+v", got)
	}

	list, err := repo.ListByUser(dbc, owner.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByUser: len=%d err=%v", len(list), err)
	}
}

func TestHabitLogUniquePerDay(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	logs := NewHabitLogRepo(gdb, testutil.Logger(t))
	owner := testutil.SeedProfile(t, ctx, tx, "habitual")
	h := testutil.SeedHabit(t, ctx, tx, owner.ID, "Meditate")

	if err := logs.Create(dbc, &types.HabitLog{HabitID: h.ID, UserID: owner.ID, Day: "2026-03-01"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := logs.Create(dbc, &types.HabitLog{ID: uuid.New(), HabitID: h.ID, UserID: owner.ID, Day: "2026-03-01"})
	if !db.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
