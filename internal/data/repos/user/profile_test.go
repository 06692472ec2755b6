package user

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
)

func TestProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewProfileRepo(db, testutil.Logger(t))
	seeded := testutil.SeedProfile(t, ctx, tx, "Sung_Jin")
	if seeded.Username != "sung_jin" || seeded.DisplayName != "Sung_Jin" {
		t.Fatalf("seed should store the normalized username: %q / %q", seeded.Username, seeded.DisplayName)
	}

	got, err := repo.GetByUsername(dbc, "  SUNG_jin ")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got == nil || got.ID != seeded.ID {
		t.Fatalf("GetByUsername: unexpected result: %+v", got)
	}
	if got.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", got.Version)
	}
	if got.CurrentStats().Level != 1 {
		t.Fatalf("expected default stats, got %+v", got.CurrentStats())
	}

	exists, err := repo.UsernameExists(dbc, "sung_jin")
	if err != nil || !exists {
		t.Fatalf("UsernameExists: exists=%v err=%v", exists, err)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil {
		t.Fatalf("GetByID (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByID (missing): expected nil")
	}

	stats := progression.DefaultStats()
	stats.Level = 2
	ok, err := repo.UpdateStatsCAS(dbc, seeded.ID, 1, stats, nil)
	if err != nil || !ok {
		t.Fatalf("UpdateStatsCAS: ok=%v err=%v", ok, err)
	}

	ok, err = repo.UpdateStatsCAS(dbc, seeded.ID, 1, stats, nil)
	if err != nil {
		t.Fatalf("UpdateStatsCAS (stale): %v", err)
	}
	if ok {
		t.Fatalf("UpdateStatsCAS (stale): expected conflict")
	}

	locked, err := repo.LockByID(dbc, seeded.ID)
	if err != nil {
		t.Fatalf("LockByID: %v", err)
	}
	if locked.Version != 2 || locked.CurrentStats().Level != 2 {
		t.Fatalf("LockByID: unexpected row version=%d stats=%+v", locked.Version, locked.CurrentStats())
	}

	ok, err = repo.UpdateFieldsCAS(dbc, seeded.ID, nil, map[string]interface{}{"display_name": "Shadow"})
	if err != nil || !ok {
		t.Fatalf("UpdateFieldsCAS: ok=%v err=%v", ok, err)
	}
	after, _ := repo.GetByID(dbc, seeded.ID)
	if after.DisplayName != "Shadow" || after.Version != 3 {
		t.Fatalf("UpdateFieldsCAS: unexpected row %+v", after)
	}
}

func TestProfileRepoSearch(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProfileRepo(db, testutil.Logger(t))

	testutil.SeedProfile(t, ctx, tx, "shadow_monarch")
	testutil.SeedProfile(t, ctx, tx, "shade")
	testutil.SeedProfile(t, ctx, tx, "sh_x")
	knight := testutil.SeedProfile(t, ctx, tx, "igris")
	gone := testutil.SeedProfile(t, ctx, tx, "shadowless")
	if err := tx.Model(knight).Update("display_name", "Shadow Knight").Error; err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := tx.Model(gone).Update("is_deactivated", true).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	names := func(prefix string, limit int) string {
		t.Helper()
		got, err := repo.Search(dbc, prefix, limit)
		if err != nil {
			t.Fatalf("Search(%q): %v", prefix, err)
		}
		out := make([]string, 0, len(got))
		for _, p := range got {
			out = append(out, p.Username)
		}
		return strings.Join(out, ",")
	}

	if got := names(" SHAD ", 20); got != "igris,shadow_monarch" {
		t.Fatalf("prefix search: got %q", got)
	}
	if got := names("sh_", 20); got != "sh_x" {
		t.Fatalf("underscore must match literally: got %q", got)
	}
	if got := names("sh", 2); got != "sh_x,shade" {
		t.Fatalf("limit: got %q", got)
	}
	if got := names("   ", 20); got != "" {
		t.Fatalf("blank prefix should match nothing: got %q", got)
	}
}

func TestFollowRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewFollowRepo(db, testutil.Logger(t))
	a := testutil.SeedProfile(t, ctx, tx, "alpha")
	b := testutil.SeedProfile(t, ctx, tx, "beta")

	if err := repo.Create(dbc, a.ID, b.ID); err != nil {
		t.Fatalf("Create: %v", err)
	}
	following, err := repo.ListFollowing(dbc, a.ID)
	if err != nil {
		t.Fatalf("ListFollowing: %v", err)
	}
	if len(following) != 1 || following[0] != b.ID {
		t.Fatalf("ListFollowing: unexpected %v", following)
	}
	n, err := repo.CountFollowers(dbc, b.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountFollowers: n=%d err=%v", n, err)
	}
	if err := repo.DeleteByUser(dbc, b.ID); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	exists, err := repo.Exists(dbc, a.ID, b.ID)
	if err != nil || exists {
		t.Fatalf("Exists after delete: exists=%v err=%v", exists, err)
	}
}
