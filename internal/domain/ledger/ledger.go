package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Source string

const (
	SourceQuest  Source = "quest"
	SourceHabit  Source = "habit"
	SourceFeat   Source = "feat"
	SourceMirror Source = "mirror"
)

// RewardEvent journals one ledger application. (user_id, source, source_key)
// is unique, so replaying the same award is rejected by the store.
type RewardEvent struct {
	ID          uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                          `gorm:"type:uuid;not null;uniqueIndex:idx_reward_event_key,priority:1;column:user_id" json:"user_id"`
	Source      Source                             `gorm:"not null;size:16;uniqueIndex:idx_reward_event_key,priority:2;column:source" json:"source"`
	SourceKey   string                             `gorm:"not null;uniqueIndex:idx_reward_event_key,priority:3;column:source_key" json:"source_key"`
	XP          int                                `gorm:"column:xp;not null;default:0" json:"xp"`
	StatDeltas  datatypes.JSONType[map[string]int] `gorm:"column:stat_deltas" json:"stat_deltas"`
	IgnoredKeys datatypes.JSONType[[]string]       `gorm:"column:ignored_keys" json:"ignored_keys"`
	LevelBefore int                                `gorm:"column:level_before;not null" json:"level_before"`
	LevelAfter  int                                `gorm:"column:level_after;not null" json:"level_after"`
	CreatedAt   time.Time                          `gorm:"not null" json:"created_at"`
}

func (RewardEvent) TableName() string { return "reward_events" }

func (e *RewardEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type Achievement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Icon        string    `gorm:"column:icon" json:"icon"`
	UnlockedAt  time.Time `gorm:"not null;column:unlocked_at" json:"unlocked_at"`
}

func (Achievement) TableName() string { return "achievements" }

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now().UTC()
	}
	return nil
}
