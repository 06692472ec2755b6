package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.Profile {
	tb.Helper()
	return SeedProfileWithStats(tb, ctx, tx, username, progression.DefaultStats())
}

// SeedProfileWithStats stores username the way the profile repo does,
// trimmed and lower-cased; the display name keeps the given casing.
func SeedProfileWithStats(tb testing.TB, ctx context.Context, tx *gorm.DB, username string, stats progression.Stats) *types.Profile {
	tb.Helper()
	p := &types.Profile{
		ID:           uuid.New(),
		Username:     strings.ToLower(strings.TrimSpace(username)),
		PasswordHash: "x",
		DisplayName:  username,
		Stats:        datatypes.NewJSONType(stats),
		Inventory:    datatypes.NewJSONType([]types.Artifact{}),
		Goals:        datatypes.NewJSONType([]string{}),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedQuest(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, difficulty progression.Difficulty, xp int, stats map[string]int, expiresAt *time.Time) *types.Quest {
	tb.Helper()
	q := &types.Quest{
		ID:         uuid.New(),
		UserID:     userID,
		Text:       fmt.Sprintf("quest %s", difficulty),
		Difficulty: difficulty,
		XPReward:   xp,
		StatReward: datatypes.NewJSONType(stats),
		Source:     "manual",
		ExpiresAt:  expiresAt,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quest: %v", err)
	}
	return q
}

func SeedHabit(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Habit {
	tb.Helper()
	h := &types.Habit{ID: uuid.New(), UserID: userID, Name: name}
	if err := tx.WithContext(ctx).Create(h).Error; err != nil {
		tb.Fatalf("seed habit: %v", err)
	}
	return h
}

func SeedPost(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID uuid.UUID, content string) *types.Post {
	tb.Helper()
	p := &types.Post{ID: uuid.New(), AuthorID: authorID, Content: content}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}
