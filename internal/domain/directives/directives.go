package directives

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/domain/progression"
)

type QuestSource string

const (
	QuestSourceManual   QuestSource = "manual"
	QuestSourceAI       QuestSource = "ai"
	QuestSourceFallback QuestSource = "fallback"
)

type QuestStatus string

const (
	QuestPending   QuestStatus = "pending"
	QuestCompleted QuestStatus = "completed"
	QuestExpired   QuestStatus = "expired"
)

type Quest struct {
	ID          uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                          `gorm:"type:uuid;not null;index:idx_quest_user_created,priority:1;column:user_id" json:"user_id"`
	Text        string                             `gorm:"not null;column:text" json:"text"`
	Description string                             `gorm:"column:description" json:"description"`
	Difficulty  progression.Difficulty             `gorm:"column:difficulty;size:1;not null;default:E" json:"difficulty"`
	Completed   bool                               `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time                         `gorm:"column:completed_at" json:"completed_at,omitempty"`
	XPReward    int                                `gorm:"column:xp_reward;not null;default:0" json:"xp_reward"`
	StatReward  datatypes.JSONType[map[string]int] `gorm:"column:stat_reward" json:"stat_reward"`
	Source      QuestSource                        `gorm:"column:source;not null;default:manual" json:"source"`
	ExpiresAt   *time.Time                         `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time                          `gorm:"not null;index:idx_quest_user_created,priority:2" json:"created_at"`
}

func (Quest) TableName() string { return "quests" }

func (q *Quest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (q *Quest) Status(now time.Time) QuestStatus {
	switch {
	case q.Completed:
		return QuestCompleted
	case q.IsExpired(now):
		return QuestExpired
	default:
		return QuestPending
	}
}

func (q *Quest) IsExpired(now time.Time) bool {
	return q.ExpiresAt != nil && !q.ExpiresAt.After(now)
}

// Reward is the stored payload, not yet clamped.
func (q *Quest) Reward() progression.RawReward {
	raw := progression.RawReward{XP: float64(q.XPReward)}
	if stats := q.StatReward.Data(); len(stats) > 0 {
		raw.Stats = make(map[string]float64, len(stats))
		for k, v := range stats {
			raw.Stats[k] = float64(v)
		}
	}
	return raw
}

type Habit struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Name       string     `gorm:"not null;column:name" json:"name"`
	Streak     int        `gorm:"column:streak;not null;default:0" json:"streak"`
	BestStreak int        `gorm:"column:best_streak;not null;default:0" json:"best_streak"`
	LastLogged *time.Time `gorm:"column:last_logged" json:"last_logged,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

func (Habit) TableName() string { return "habits" }

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// HabitLog is one tracked day. (habit_id, day) is unique.
type HabitLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HabitID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_habit_log_day,priority:1;column:habit_id" json:"habit_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Day       string    `gorm:"not null;size:10;uniqueIndex:idx_habit_log_day,priority:2;column:day" json:"day"`
	Action    string    `gorm:"column:action" json:"action"`
	XPAwarded int       `gorm:"column:xp_awarded;not null;default:0" json:"xp_awarded"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (HabitLog) TableName() string { return "habit_logs" }

func (l *HabitLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
